// Package transport moves sealed packets between a component and its host.
//
// Every link implements Transport. Stream links (serial, TCP) frame packets
// themselves; message links (WebSocket, WebRTC DataChannel, pipe) carry one
// packet per message and feed received messages into a bounded inbox.
package transport

import (
	"errors"
	"sync"
	"time"

	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/protocol"
)

// Transport is a packet link.
type Transport interface {
	// Send writes one sealed packet towards addr. Point-to-point links
	// ignore addr.
	Send(addr protocol.Address, pkt []byte) error
	// Receive waits at most the link's poll timeout for one packet.
	// It returns (0, nil) when nothing arrived, (n, nil) when a packet of n
	// bytes was copied into buf, and (0, err) on a link fault.
	Receive(buf []byte) (int, error)
	Close() error
}

// ErrNoPeer is returned by Send when no host is attached to a listening link.
var ErrNoPeer = errors.New("no peer attached")

// Negative fault codes carried in a packet-error reply.
const (
	CodeTimeout   int8 = -1
	CodeChecksum  int8 = -2
	CodeOversize  int8 = -3
	CodeLink      int8 = -4
	CodeMalformed int8 = -5
)

// Code maps a receive or decode error to the negative code sent back to
// the host.
func Code(err error) int8 {
	switch {
	case errors.Is(err, errs.ErrTimeout):
		return CodeTimeout
	case errors.Is(err, errs.ErrChecksum):
		return CodeChecksum
	case errors.Is(err, errs.ErrOversize), errors.Is(err, errs.ErrCapacityExceeded):
		return CodeOversize
	case errors.Is(err, errs.ErrMalformed):
		return CodeMalformed
	default:
		return CodeLink
	}
}

// Fatal reports whether err means the link is gone and receiving should stop.
func Fatal(err error) bool {
	return errors.Is(err, errs.ErrClosed)
}

const defaultInboxSize = 64

// inbox is the bounded queue between an asynchronous receive path and
// Receive. Messages are copied on entry.
type inbox struct {
	ch      chan []byte
	timeout time.Duration

	closeOnce sync.Once
	closed    chan struct{}
}

func newInbox(size int, timeout time.Duration) *inbox {
	if size <= 0 {
		size = defaultInboxSize
	}
	return &inbox{
		ch:      make(chan []byte, size),
		timeout: timeout,
		closed:  make(chan struct{}),
	}
}

// put queues a copy of msg, blocking while the inbox is full. It returns
// false once the inbox is closed.
func (q *inbox) put(msg []byte) bool {
	cp := make([]byte, len(msg))
	copy(cp, msg)

	select {
	case <-q.closed:
		return false
	default:
	}

	select {
	case q.ch <- cp:
		return true
	case <-q.closed:
		return false
	}
}

// take implements Transport.Receive on top of the queue.
func (q *inbox) take(buf []byte, component string) (int, error) {
	var msg []byte

	select {
	case msg = <-q.ch:
	default:
		timer := time.NewTimer(q.timeout)
		defer timer.Stop()
		select {
		case msg = <-q.ch:
		case <-timer.C:
			return 0, nil
		case <-q.closed:
			return 0, errs.WrapTransport(errs.ErrClosed, component, "Receive")
		}
	}

	if len(msg) > len(buf) {
		return 0, errs.WrapTransport(errs.ErrOversize, component, "Receive")
	}
	return copy(buf, msg), nil
}

func (q *inbox) close() {
	q.closeOnce.Do(func() { close(q.closed) })
}

func (q *inbox) isClosed() bool {
	select {
	case <-q.closed:
		return true
	default:
		return false
	}
}
