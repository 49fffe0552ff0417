// Package signaling establishes a WebRTC DataChannel link between a device
// and a host. The device runs a PIN-protected WebSocket server and sends the
// offer; the host dials it and answers. Callers receive a ready link.
package signaling

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/1ureka/rtno/internal/transport"
	"github.com/1ureka/rtno/internal/util"
)

// closeGrace is how long a link may still open after signaling ended.
const closeGrace = 5 * time.Second

// EstablishAsDevice waits for a host on srv, then performs the exchange as
// the offering side. srv must be started.
func EstablishAsDevice(ctx context.Context, srv *Server, opts transport.DataChannelOptions) (*transport.DataChannel, error) {
	util.LogInfo("[signaling] waiting for host on %s", srv.URL())

	wsConn, err := srv.WaitForClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for host: %w", err)
	}
	defer wsConn.Close()
	util.LogInfo("[signaling] host connected")

	return establish(ctx, wsConn, opts, true)
}

// EstablishAsHost dials a device's signaling server and performs the
// exchange as the answering side.
func EstablishAsHost(ctx context.Context, wsURL string, opts transport.DataChannelOptions) (*transport.DataChannel, error) {
	wsConn, err := Dial(ctx, wsURL)
	if err != nil {
		return nil, err
	}
	defer wsConn.Close()
	util.LogDebug("[signaling] WS connected: %s", wsURL)

	return establish(ctx, wsConn, opts, false)
}

func establish(ctx context.Context, wsConn *websocket.Conn, opts transport.DataChannelOptions, offer bool) (*transport.DataChannel, error) {
	tr, err := transport.NewDataChannel(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create DataChannel: %w", err)
	}

	e := &exchange{tr: tr, conn: wsConn}
	e.trickle()

	// Exits when wsConn is closed by the caller's defer.
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.watch()
	}()

	if offer {
		if err := e.sendOffer(); err != nil {
			tr.Close()
			return nil, fmt.Errorf("failed to send offer: %w", err)
		}
	}

	select {
	case <-tr.Ready():
		util.LogInfo("[signaling] DataChannel established, closing WS")
		return tr, nil

	case err := <-errCh:
		// The peer drops the WebSocket once its side is open, which may be
		// just before ours opens.
		timer := time.NewTimer(closeGrace)
		defer timer.Stop()
		select {
		case <-tr.Ready():
			return tr, nil
		case <-timer.C:
		case <-ctx.Done():
		}
		tr.Close()
		return nil, fmt.Errorf("signaling failed: %w", err)

	case <-ctx.Done():
		tr.Close()
		return nil, ctx.Err()
	}
}
