package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/protocol"
)

// receiveWithin polls tr until a packet arrives or d elapses.
func receiveWithin(t *testing.T, tr Transport, d time.Duration) []byte {
	t.Helper()
	buf := make([]byte, protocol.DefaultCapacity)
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		n, err := tr.Receive(buf)
		require.NoError(t, err)
		if n > 0 {
			return buf[:n]
		}
	}
	t.Fatalf("no packet within %v", d)
	return nil
}

func TestPipe(t *testing.T) {
	a, b := NewPipe(4, 10*time.Millisecond)
	pkt := testPacket(t, []byte{7})

	require.NoError(t, a.Send(protocol.Address{}, pkt))
	assert.Equal(t, pkt, receiveWithin(t, b, time.Second))

	n, err := b.Receive(make([]byte, protocol.DefaultCapacity))
	assert.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, a.Close())
	_, err = b.Receive(make([]byte, protocol.DefaultCapacity))
	assert.True(t, Fatal(err))
	assert.ErrorIs(t, b.Send(protocol.Address{}, pkt), errs.ErrClosed)
}

func TestPipeOversize(t *testing.T) {
	a, b := NewPipe(4, 10*time.Millisecond)
	require.NoError(t, a.Send(protocol.Address{}, testPacket(t, make([]byte, 20))))

	_, err := b.Receive(make([]byte, protocol.HeaderSize))
	assert.Equal(t, CodeOversize, Code(err))
}

func TestTCPLink(t *testing.T) {
	ln, err := ListenTCP("127.0.0.1:0", testStreamOpts)
	require.NoError(t, err)
	defer ln.Close()

	assert.ErrorIs(t, ln.Send(protocol.Address{}, []byte{1}), ErrNoPeer)

	host, err := DialTCP(context.Background(), ln.Addr().String(), testStreamOpts)
	require.NoError(t, err)
	defer host.Close()

	// The first Receive accepts the host.
	pkt := testPacket(t, []byte("ping"))
	go host.Send(protocol.Address{}, pkt)
	assert.Equal(t, pkt, receiveWithin(t, ln, time.Second))

	reply := testPacket(t, []byte("pong"))
	require.NoError(t, ln.Send(protocol.Address{}, reply))
	assert.Equal(t, reply, receiveWithin(t, host, time.Second))
}

func TestWebSocketLink(t *testing.T) {
	srv, err := ListenWebSocket("127.0.0.1:0", "/rtno", 10*time.Millisecond)
	require.NoError(t, err)
	defer srv.Close()

	host, err := DialWebSocket(context.Background(), srv.URL(), 10*time.Millisecond)
	require.NoError(t, err)
	defer host.Close()

	pkt := testPacket(t, []byte("ping"))
	require.NoError(t, host.Send(protocol.Address{}, pkt))
	assert.Equal(t, pkt, receiveWithin(t, srv, time.Second))

	reply := testPacket(t, []byte("pong"))
	require.NoError(t, srv.Send(protocol.Address{}, reply))
	assert.Equal(t, reply, receiveWithin(t, host, time.Second))
}

func TestCode(t *testing.T) {
	assert.Equal(t, CodeTimeout, Code(errs.WrapTransport(errs.ErrTimeout, "x", "y")))
	assert.Equal(t, CodeLink, Code(errs.ErrClosed))
}
