package transport

import (
	"time"

	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/protocol"
)

// Pipe is one end of an in-memory link.
type Pipe struct {
	in   *inbox
	peer *inbox
}

// NewPipe returns the two connected ends of an in-memory link. Each end
// queues up to size packets and Receive waits at most pollTimeout.
func NewPipe(size int, pollTimeout time.Duration) (*Pipe, *Pipe) {
	a := newInbox(size, pollTimeout)
	b := newInbox(size, pollTimeout)
	return &Pipe{in: a, peer: b}, &Pipe{in: b, peer: a}
}

// Send queues pkt at the other end, blocking while its queue is full.
func (p *Pipe) Send(_ protocol.Address, pkt []byte) error {
	if p.in.isClosed() || !p.peer.put(pkt) {
		return errs.WrapTransport(errs.ErrClosed, "Pipe", "Send")
	}
	return nil
}

// Receive returns the next packet sent by the other end.
func (p *Pipe) Receive(buf []byte) (int, error) {
	return p.in.take(buf, "Pipe")
}

// Close closes both directions.
func (p *Pipe) Close() error {
	p.in.close()
	p.peer.close()
	return nil
}
