package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/protocol"
	"github.com/1ureka/rtno/internal/util"
)

// netLink adapts a net.Conn to byteLink.
type netLink struct {
	net.Conn
}

func (l netLink) SetReadTimeout(d time.Duration) error {
	return l.SetReadDeadline(time.Now().Add(d))
}

func (l netLink) Read(p []byte) (int, error) {
	n, err := l.Conn.Read(p)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return n, nil
		}
		if errors.Is(err, net.ErrClosed) {
			return n, io.EOF
		}
	}
	return n, err
}

// DialTCP connects to a device listening with ListenTCP.
func DialTCP(ctx context.Context, addr string, opts StreamOptions) (*Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return newStream(netLink{conn}, "TCP", opts), nil
}

// TCPListener is the device side of a TCP link. It serves one host at a
// time; a host that disconnects is replaced by the next one to connect.
type TCPListener struct {
	ln   *net.TCPListener
	opts StreamOptions

	mu     sync.Mutex
	stream *Stream
	closed bool
}

// ListenTCP listens on addr.
func ListenTCP(addr string, opts StreamOptions) (*TCPListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultStreamOptions().PollTimeout
	}
	util.LogInfo("[tcp] listening on %s", ln.Addr())
	return &TCPListener{ln: ln.(*net.TCPListener), opts: opts}, nil
}

// Addr returns the listening address.
func (t *TCPListener) Addr() net.Addr { return t.ln.Addr() }

func (t *TCPListener) current() *Stream {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stream
}

// Send writes to the attached host.
func (t *TCPListener) Send(addr protocol.Address, pkt []byte) error {
	s := t.current()
	if s == nil {
		return errs.WrapTransport(ErrNoPeer, "TCP", "Send")
	}
	return s.Send(addr, pkt)
}

// Receive accepts a host when none is attached, then reads from it.
func (t *TCPListener) Receive(buf []byte) (int, error) {
	s := t.current()
	if s == nil {
		return 0, t.accept()
	}

	n, err := s.Receive(buf)
	if err != nil && Fatal(err) {
		util.LogInfo("[tcp] host disconnected")
		t.mu.Lock()
		t.stream = nil
		t.mu.Unlock()
		s.Close()
		return 0, nil
	}
	return n, err
}

func (t *TCPListener) accept() error {
	if err := t.ln.SetDeadline(time.Now().Add(t.opts.PollTimeout)); err != nil {
		return errs.WrapTransport(errs.ErrClosed, "TCP", "Accept")
	}
	conn, err := t.ln.Accept()
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil
		}
		return errs.WrapTransport(errs.ErrClosed, "TCP", "Accept")
	}

	util.LogInfo("[tcp] host connected from %s", conn.RemoteAddr())
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		conn.Close()
		return errs.WrapTransport(errs.ErrClosed, "TCP", "Accept")
	}
	t.stream = newStream(netLink{conn}, "TCP", t.opts)
	return nil
}

// Close stops listening and drops the attached host.
func (t *TCPListener) Close() error {
	t.mu.Lock()
	s := t.stream
	t.stream = nil
	t.closed = true
	t.mu.Unlock()

	err := t.ln.Close()
	if s != nil {
		err = errors.Join(err, s.Close())
	}
	return err
}
