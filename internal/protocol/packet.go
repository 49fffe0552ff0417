// Package protocol defines the packet format spoken between a component and
// its host.
package protocol

import "fmt"

// Interface identifies what a packet asks for or carries.
type Interface uint8

// Control-plane interfaces.
const (
	ConnectInPort     Interface = 'c'
	ConnectOutPort    Interface = 'C'
	DisconnectInPort  Interface = 'k'
	DisconnectOutPort Interface = 'K'
	GetProfile        Interface = 'Z'
	GetStatus         Interface = 'X'
	GetContext        Interface = 'B'
	Activate          Interface = 'A'
	Deactivate        Interface = 'D'
	Execute           Interface = 'E'
	Reset             Interface = 'R'
	PacketError       Interface = 'F'
	UnknownInterface  Interface = 'U'
	ProfileInPort     Interface = 'I'
	ProfileOutPort    Interface = 'O'
)

// Data-plane interfaces.
const (
	PortData Interface = 'P'
)

func (i Interface) String() string {
	switch i {
	case ConnectInPort:
		return "connect-in"
	case ConnectOutPort:
		return "connect-out"
	case DisconnectInPort:
		return "disconnect-in"
	case DisconnectOutPort:
		return "disconnect-out"
	case GetProfile:
		return "get-profile"
	case GetStatus:
		return "get-status"
	case GetContext:
		return "get-context"
	case Activate:
		return "activate"
	case Deactivate:
		return "deactivate"
	case Execute:
		return "execute"
	case Reset:
		return "reset"
	case PacketError:
		return "packet-error"
	case UnknownInterface:
		return "unknown-interface"
	case ProfileInPort:
		return "profile-in"
	case ProfileOutPort:
		return "profile-out"
	case PortData:
		return "port-data"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(i))
	}
}

// Result codes carried in the single-byte payload of control replies.
const (
	ResultOK    uint8 = 0x00
	ResultError uint8 = 0xFF
)

// ControlPortIndex is the target port index that routes a packet to the
// control plane instead of a data port.
const ControlPortIndex uint8 = 0xFF

// Wire layout: Interface(1) + Address(4) + SourcePort(1) + TargetPort(1) + Length(1).
const (
	offInterface  = 0
	offAddress    = 1
	offSourcePort = 5
	offTargetPort = 6
	offLength     = 7

	// HeaderSize is the fixed header size.
	HeaderSize = 8
	// AddressSize is the width of a source address.
	AddressSize = 4
	// DefaultCapacity is the packet buffer size used by the device runtime.
	DefaultCapacity = 128
	// MaxCapacity is the largest buffer whose payload length still fits the
	// one-byte length field.
	MaxCapacity = HeaderSize + 255
)

// Address identifies a remote endpoint on the link.
type Address [AddressSize]byte

// AddressFromString builds an address from up to four ASCII characters,
// e.g. "UART". Shorter strings are zero padded.
func AddressFromString(s string) Address {
	var a Address
	copy(a[:], s)
	return a
}

func (a Address) String() string {
	printable := true
	for _, b := range a {
		if b < 0x20 || b > 0x7e {
			printable = false
			break
		}
	}
	if printable {
		return string(a[:])
	}
	return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
}

// Packet is a decoded packet, used where a value is easier to handle than a
// Buffer (host side, tests).
type Packet struct {
	Interface  Interface
	Address    Address
	SourcePort uint8
	TargetPort uint8
	Payload    []byte
}

// IsControl reports whether the packet targets the control plane.
func (p *Packet) IsControl() bool {
	return p.TargetPort == ControlPortIndex
}
