package protocol

import (
	"fmt"

	errs "github.com/1ureka/rtno/internal/errors"
)

// Encode serializes a Packet into a byte slice ready for a transport.
func Encode(pkt *Packet) ([]byte, error) {
	if len(pkt.Payload) > MaxCapacity-HeaderSize {
		return nil, errs.WrapCapacity(errs.ErrCapacityExceeded, "protocol", "Encode")
	}
	buf := make([]byte, HeaderSize+len(pkt.Payload))
	putHeader(buf, pkt.Interface, pkt.Address, pkt.SourcePort, pkt.TargetPort)
	buf[offLength] = uint8(len(pkt.Payload))
	copy(buf[HeaderSize:], pkt.Payload)
	return buf, nil
}

// Decode deserializes a byte slice into a Packet.
func Decode(data []byte) (*Packet, error) {
	n, err := checkFrame(data)
	if err != nil {
		return nil, err
	}
	pkt := &Packet{
		Interface:  Interface(data[offInterface]),
		SourcePort: data[offSourcePort],
		TargetPort: data[offTargetPort],
	}
	copy(pkt.Address[:], data[offAddress:offAddress+AddressSize])
	if n > 0 {
		pkt.Payload = make([]byte, n)
		copy(pkt.Payload, data[HeaderSize:HeaderSize+n])
	}
	return pkt, nil
}

// PacketSize returns the total size of the packet whose header starts data,
// or 0 when data is shorter than a header.
func PacketSize(data []byte) int {
	if len(data) < HeaderSize {
		return 0
	}
	return HeaderSize + int(data[offLength])
}

func putHeader(buf []byte, code Interface, addr Address, src, dst uint8) {
	buf[offInterface] = uint8(code)
	copy(buf[offAddress:offAddress+AddressSize], addr[:])
	buf[offSourcePort] = src
	buf[offTargetPort] = dst
}

// checkFrame validates the header of data and returns its payload length.
func checkFrame(data []byte) (int, error) {
	if len(data) < HeaderSize {
		return 0, errs.WrapProtocol(
			fmt.Errorf("%w: %d bytes (need at least %d)", errs.ErrMalformed, len(data), HeaderSize),
			"protocol", "Decode")
	}
	n := int(data[offLength])
	if len(data) < HeaderSize+n {
		return 0, errs.WrapProtocol(
			fmt.Errorf("%w: length field %d, only %d payload bytes", errs.ErrMalformed, n, len(data)-HeaderSize),
			"protocol", "Decode")
	}
	return n, nil
}
