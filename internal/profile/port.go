package profile

import (
	"fmt"
)

// TypeCode identifies the data type a port carries.
type TypeCode uint8

// Scalar types use lower case, sequences upper case.
const (
	TypeBoolean    TypeCode = 'b'
	TypeChar       TypeCode = 'c'
	TypeOctet      TypeCode = 'o'
	TypeLong       TypeCode = 'l'
	TypeFloat      TypeCode = 'f'
	TypeDouble     TypeCode = 'd'
	TypeBooleanSeq TypeCode = 'B'
	TypeCharSeq    TypeCode = 'C'
	TypeOctetSeq   TypeCode = 'O'
	TypeLongSeq    TypeCode = 'L'
	TypeFloatSeq   TypeCode = 'F'
	TypeDoubleSeq  TypeCode = 'D'
)

func (t TypeCode) String() string {
	switch t {
	case TypeBoolean:
		return "TimedBoolean"
	case TypeChar:
		return "TimedChar"
	case TypeOctet:
		return "TimedOctet"
	case TypeLong:
		return "TimedLong"
	case TypeFloat:
		return "TimedFloat"
	case TypeDouble:
		return "TimedDouble"
	case TypeBooleanSeq:
		return "TimedBooleanSeq"
	case TypeCharSeq:
		return "TimedCharSeq"
	case TypeOctetSeq:
		return "TimedOctetSeq"
	case TypeLongSeq:
		return "TimedLongSeq"
	case TypeFloatSeq:
		return "TimedFloatSeq"
	case TypeDoubleSeq:
		return "TimedDoubleSeq"
	default:
		return fmt.Sprintf("unknown(%c)", rune(t))
	}
}

// Direction tells whether a port receives or produces data.
type Direction uint8

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// PortOptions sizes the buffers of a port.
type PortOptions struct {
	FifoCapacity   int
	MaxItemSize    int
	MaxConnections int
	Overflow       OverflowPolicy
}

// DefaultPortOptions returns the sizes used when nothing is configured.
func DefaultPortOptions() PortOptions {
	return PortOptions{
		FifoCapacity:   4,
		MaxItemSize:    64,
		MaxConnections: DefaultMaxConnections,
		Overflow:       DropOldest,
	}
}

// Port is a named, typed data endpoint with its own FIFO and connection list.
type Port struct {
	name      string
	typeCode  TypeCode
	direction Direction

	fifo        *Fifo
	connections *ConnectionList
}

// NewPort creates a port. The direction is assigned when the port is added
// to a Profile.
func NewPort(name string, typeCode TypeCode, opts PortOptions) *Port {
	return &Port{
		name:        name,
		typeCode:    typeCode,
		fifo:        NewFifo(opts.FifoCapacity, opts.MaxItemSize, opts.Overflow),
		connections: NewConnectionList(opts.MaxConnections),
	}
}

// Name returns the port name.
func (p *Port) Name() string { return p.name }

// TypeCode returns the type code.
func (p *Port) TypeCode() TypeCode { return p.typeCode }

// Direction returns whether the port is an input or an output.
func (p *Port) Direction() Direction { return p.direction }

// Fifo returns the pending-item queue.
func (p *Port) Fifo() *Fifo { return p.fifo }

// Connections returns the registered remote endpoints.
func (p *Port) Connections() *ConnectionList { return p.connections }

// Write queues one item. Application code calls it on output ports from
// inside a lifecycle callback.
func (p *Port) Write(item []byte) error {
	return p.fifo.Push(item)
}

// IsNew reports whether an unread item is queued.
func (p *Port) IsNew() bool { return p.fifo.HasNext() }

// Read pops the head item into dst.
func (p *Port) Read(dst []byte) (int, error) {
	return p.fifo.Pop(dst)
}
