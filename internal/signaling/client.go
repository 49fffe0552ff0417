package signaling

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// ErrBadPIN is returned by Dial when the device refuses the PIN.
var ErrBadPIN = errors.New("signaling PIN rejected")

// Dial opens the signaling WebSocket of a device. wsURL carries the PIN in
// its query, as returned by Server.URL:
//
//	ws://192.168.0.20:7302/ws?pin=123456
func Dial(ctx context.Context, wsURL string) (*websocket.Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrBadPIN
		}
		return nil, fmt.Errorf("failed to reach signaling server: %w", err)
	}
	return conn, nil
}
