package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/protocol"
	"github.com/1ureka/rtno/internal/util"
)

// byteLink is a raw byte stream whose Read gives up after the last timeout
// set, returning (0, nil).
type byteLink interface {
	io.ReadWriteCloser
	SetReadTimeout(d time.Duration) error
}

// StreamOptions bounds the waits of a stream link.
type StreamOptions struct {
	// PollTimeout bounds the wait for the start of a frame.
	PollTimeout time.Duration
	// FrameTimeout bounds the wait for the rest of a frame once it started.
	FrameTimeout time.Duration
}

// DefaultStreamOptions returns the timeouts used when nothing is configured.
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		PollTimeout:  20 * time.Millisecond,
		FrameTimeout: 200 * time.Millisecond,
	}
}

// Stream frames packets over a byte link. Receive must be called from one
// goroutine; Send may be called concurrently.
type Stream struct {
	link byteLink
	name string
	opts StreamOptions

	chunk [chunkSize]byte
	r, w  int

	wmu  sync.Mutex
	wbuf []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newStream(link byteLink, name string, opts StreamOptions) *Stream {
	def := DefaultStreamOptions()
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = def.PollTimeout
	}
	if opts.FrameTimeout <= 0 {
		opts.FrameTimeout = def.FrameTimeout
	}
	return &Stream{
		link:   link,
		name:   name,
		opts:   opts,
		wbuf:   make([]byte, 0, protocol.MaxCapacity+frameOverhead),
		closed: make(chan struct{}),
	}
}

// Send frames pkt and writes it in a single Write.
func (s *Stream) Send(_ protocol.Address, pkt []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.wbuf = appendFrame(s.wbuf[:0], pkt)
	if _, err := s.link.Write(s.wbuf); err != nil {
		return errs.WrapTransport(err, s.name, "Send")
	}
	util.Stats.AddSent(len(pkt))
	return nil
}

// Receive hunts for a start marker until the poll timeout, then reads one
// whole frame within the frame timeout.
func (s *Stream) Receive(buf []byte) (int, error) {
	found, err := s.hunt(time.Now().Add(s.opts.PollTimeout))
	if err != nil || !found {
		return 0, err
	}

	deadline := time.Now().Add(s.opts.FrameTimeout)

	var header [protocol.HeaderSize]byte
	if err := s.readFull(header[:], deadline); err != nil {
		return 0, err
	}
	n := frameLength(header[:])

	if n > len(buf) {
		// Skip the rest so the next hunt starts after this frame.
		_ = s.skip(n-protocol.HeaderSize+1, deadline)
		return 0, errs.WrapTransport(errs.ErrOversize, s.name, "Receive")
	}

	copy(buf, header[:])
	if err := s.readFull(buf[protocol.HeaderSize:n], deadline); err != nil {
		return 0, err
	}

	var sum [1]byte
	if err := s.readFull(sum[:], deadline); err != nil {
		return 0, err
	}
	if sum[0] != checksum(buf[:n]) {
		return 0, errs.WrapTransport(errs.ErrChecksum, s.name, "Receive")
	}

	util.Stats.AddRecv(n)
	return n, nil
}

// Close closes the underlying link.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.link.Close()
	})
	return err
}

// hunt consumes bytes until two consecutive start bytes are seen.
func (s *Stream) hunt(deadline time.Time) (bool, error) {
	run := 0
	for run < frameStartLen {
		b, ok, err := s.readByte(deadline)
		if err != nil || !ok {
			return false, err
		}
		if b == frameStart {
			run++
		} else {
			run = 0
		}
	}
	return true, nil
}

func (s *Stream) readFull(p []byte, deadline time.Time) error {
	for i := range p {
		b, ok, err := s.readByte(deadline)
		if err != nil {
			return err
		}
		if !ok {
			return errs.WrapTransport(errs.ErrTimeout, s.name, "Receive")
		}
		p[i] = b
	}
	return nil
}

func (s *Stream) skip(n int, deadline time.Time) error {
	for ; n > 0; n-- {
		if _, ok, err := s.readByte(deadline); err != nil || !ok {
			return err
		}
	}
	return nil
}

// readByte returns the next byte, or ok == false once deadline has passed.
func (s *Stream) readByte(deadline time.Time) (byte, bool, error) {
	for s.r == s.w {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, false, nil
		}
		if err := s.fill(remaining); err != nil {
			return 0, false, err
		}
	}
	b := s.chunk[s.r]
	s.r++
	return b, true, nil
}

func (s *Stream) fill(timeout time.Duration) error {
	select {
	case <-s.closed:
		return errs.WrapTransport(errs.ErrClosed, s.name, "Receive")
	default:
	}

	if err := s.link.SetReadTimeout(timeout); err != nil {
		return s.linkError(err)
	}
	n, err := s.link.Read(s.chunk[:])
	s.r, s.w = 0, n
	if err != nil {
		return s.linkError(err)
	}
	return nil
}

// linkError classifies a failure of the byte link. A link that is gone is
// reported as ErrClosed so the dispatch loop stops.
func (s *Stream) linkError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		err = errs.ErrClosed
	}
	return errs.WrapTransport(err, s.name, "Receive")
}
