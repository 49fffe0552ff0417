package protocol

import (
	errs "github.com/1ureka/rtno/internal/errors"
)

// Buffer is a fixed-capacity packet under construction or just received.
//
// A Buffer is writable between Clear and Seal and read-only afterwards.
// Mutators called on a sealed buffer return ErrSealed and leave it intact.
// The backing array is allocated once, in NewBuffer.
type Buffer struct {
	buf    []byte
	length int
	sealed bool
}

// NewBuffer creates a buffer holding packets of at most capacity bytes,
// header included. capacity is clamped to [HeaderSize, MaxCapacity].
func NewBuffer(capacity int) *Buffer {
	if capacity < HeaderSize {
		capacity = HeaderSize
	}
	if capacity > MaxCapacity {
		capacity = MaxCapacity
	}
	return &Buffer{buf: make([]byte, capacity)}
}

// Capacity returns the total buffer size in bytes.
func (b *Buffer) Capacity() int { return len(b.buf) }

// MaxPayload returns the largest payload the buffer can hold.
func (b *Buffer) MaxPayload() int { return len(b.buf) - HeaderSize }

// Clear resets the buffer to an empty, writable packet.
func (b *Buffer) Clear() {
	for i := 0; i < HeaderSize; i++ {
		b.buf[i] = 0
	}
	b.length = 0
	b.sealed = false
}

// SetInterface writes the interface code.
func (b *Buffer) SetInterface(code Interface) error {
	if b.sealed {
		return errs.WrapProtocol(errs.ErrSealed, "Buffer", "SetInterface")
	}
	b.buf[offInterface] = uint8(code)
	return nil
}

// SetAddress writes the source address.
func (b *Buffer) SetAddress(addr Address) error {
	if b.sealed {
		return errs.WrapProtocol(errs.ErrSealed, "Buffer", "SetAddress")
	}
	copy(b.buf[offAddress:offAddress+AddressSize], addr[:])
	return nil
}

// SetSourcePortIndex writes the source port index.
func (b *Buffer) SetSourcePortIndex(i uint8) error {
	if b.sealed {
		return errs.WrapProtocol(errs.ErrSealed, "Buffer", "SetSourcePortIndex")
	}
	b.buf[offSourcePort] = i
	return nil
}

// SetTargetPortIndex writes the target port index.
func (b *Buffer) SetTargetPortIndex(i uint8) error {
	if b.sealed {
		return errs.WrapProtocol(errs.ErrSealed, "Buffer", "SetTargetPortIndex")
	}
	b.buf[offTargetPort] = i
	return nil
}

// Push appends p to the payload. If p does not fit, the buffer is left
// unchanged and a CapacityExceeded error is returned.
func (b *Buffer) Push(p []byte) error {
	if b.sealed {
		return errs.WrapProtocol(errs.ErrSealed, "Buffer", "Push")
	}
	if b.length+len(p) > b.MaxPayload() {
		return errs.WrapCapacity(errs.ErrCapacityExceeded, "Buffer", "Push")
	}
	copy(b.buf[HeaderSize+b.length:], p)
	b.length += len(p)
	return nil
}

// PushByte appends a single byte to the payload.
func (b *Buffer) PushByte(c byte) error {
	return b.Push([]byte{c})
}

// Seal stores the payload length and makes the buffer read-only.
func (b *Buffer) Seal() error {
	if b.sealed {
		return errs.WrapProtocol(errs.ErrSealed, "Buffer", "Seal")
	}
	b.buf[offLength] = uint8(b.length)
	b.sealed = true
	return nil
}

// Sealed reports whether the buffer has been sealed.
func (b *Buffer) Sealed() bool { return b.sealed }

// Load copies a received packet into the buffer and seals it.
func (b *Buffer) Load(raw []byte) error {
	n, err := checkFrame(raw)
	if err != nil {
		return err
	}
	if n > b.MaxPayload() {
		return errs.WrapCapacity(errs.ErrCapacityExceeded, "Buffer", "Load")
	}
	copy(b.buf, raw[:HeaderSize+n])
	b.length = n
	b.sealed = true
	return nil
}

// Interface returns the interface code.
func (b *Buffer) Interface() Interface { return Interface(b.buf[offInterface]) }

// Address returns the source address.
func (b *Buffer) Address() Address {
	var a Address
	copy(a[:], b.buf[offAddress:offAddress+AddressSize])
	return a
}

// SourcePortIndex returns the source port index.
func (b *Buffer) SourcePortIndex() uint8 { return b.buf[offSourcePort] }

// TargetPortIndex returns the target port index.
func (b *Buffer) TargetPortIndex() uint8 { return b.buf[offTargetPort] }

// Data returns the payload. The slice aliases the buffer and is only valid
// until the next Clear or Load.
func (b *Buffer) Data() []byte { return b.buf[HeaderSize : HeaderSize+b.length] }

// Len returns the payload length.
func (b *Buffer) Len() int { return b.length }

// Bytes returns the wire image of a sealed packet.
func (b *Buffer) Bytes() ([]byte, error) {
	if !b.sealed {
		return nil, errs.WrapProtocol(errs.ErrNotSealed, "Buffer", "Bytes")
	}
	return b.buf[:HeaderSize+b.length], nil
}
