package signaling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ureka/rtno/internal/protocol"
	"github.com/1ureka/rtno/internal/transport"
)

// receiveWithin polls tr until a packet arrives.
func receiveWithin(t *testing.T, tr transport.Transport, d time.Duration) []byte {
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
	t.Fatal("no packet received")
	return nil
}

func TestEstablishLoopback(t *testing.T) {
	if testing.Short() {
		t.Skip("needs ICE over loopback")
	}

	srv := NewServer(GeneratePIN(6))
	_, err := srv.Start("127.0.0.1:0")
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Host candidates only, loopback included.
	opts := transport.DataChannelOptions{PollTimeout: 10 * time.Millisecond, Loopback: true}

	type result struct {
		dc  *transport.DataChannel
		err error
	}
	deviceCh := make(chan result, 1)
	go func() {
		dc, err := EstablishAsDevice(ctx, srv, opts)
		deviceCh <- result{dc, err}
	}()

	host, err := EstablishAsHost(ctx, srv.URL(), opts)
	require.NoError(t, err)
	defer host.Close()

	device := <-deviceCh
	require.NoError(t, device.err)
	defer device.dc.Close()

	devAddr := protocol.AddressFromString("UART")
	hostAddr := protocol.AddressFromString("HOST")

	request, err := protocol.Encode(&protocol.Packet{
		Interface: protocol.GetStatus, Address: hostAddr,
		SourcePort: protocol.ControlPortIndex, TargetPort: protocol.ControlPortIndex,
	})
	require.NoError(t, err)
	require.NoError(t, host.Send(devAddr, request))
	assert.Equal(t, request, receiveWithin(t, device.dc, 10*time.Second))

	reply, err := protocol.Encode(&protocol.Packet{
		Interface: protocol.GetStatus, Address: devAddr,
		SourcePort: protocol.ControlPortIndex, TargetPort: protocol.ControlPortIndex,
		Payload: []byte{'I'},
	})
	require.NoError(t, err)
	require.NoError(t, device.dc.Send(hostAddr, reply))
	assert.Equal(t, reply, receiveWithin(t, host, 10*time.Second))
}
