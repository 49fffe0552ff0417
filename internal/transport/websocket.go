package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/protocol"
	"github.com/1ureka/rtno/internal/util"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = time.Second

// wsConn carries one packet per binary message over a WebSocket.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) write(pkt []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.BinaryMessage, pkt)
}

// readLoop feeds binary messages into q until the connection fails.
func (c *wsConn) readLoop(q *inbox) error {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		util.Stats.AddRecv(len(data))
		if !q.put(data) {
			return errs.ErrClosed
		}
	}
}

// WebSocketServer is the device side of a WebSocket link. It serves one host
// at a time on a single path.
type WebSocketServer struct {
	listener net.Listener
	path     string
	inbox    *inbox

	mu   sync.Mutex
	peer *wsConn
}

// ListenWebSocket serves the link on addr at path.
func ListenWebSocket(addr, path string, pollTimeout time.Duration) (*WebSocketServer, error) {
	if path == "" {
		path = "/rtno"
	}
	if pollTimeout <= 0 {
		pollTimeout = DefaultStreamOptions().PollTimeout
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start WS server: %w", err)
	}

	s := &WebSocketServer{
		listener: listener,
		path:     path,
		inbox:    newInbox(defaultInboxSize, pollTimeout),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, s.handleWS)

	go func() {
		_ = http.Serve(listener, mux)
	}()

	util.LogInfo("[ws] listening on ws://%s%s", listener.Addr(), path)
	return s, nil
}

// Addr returns the listening address.
func (s *WebSocketServer) Addr() net.Addr { return s.listener.Addr() }

// URL returns the ws:// URL a host dials.
func (s *WebSocketServer) URL() string {
	return fmt.Sprintf("ws://%s%s", s.listener.Addr(), s.path)
}

func (s *WebSocketServer) handleWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	busy := s.peer != nil
	s.mu.Unlock()
	if busy {
		http.Error(w, "already connected", http.StatusConflict)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	peer := &wsConn{conn: conn}
	s.mu.Lock()
	if s.peer != nil {
		s.mu.Unlock()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "already connected"))
		conn.Close()
		return
	}
	s.peer = peer
	s.mu.Unlock()

	util.LogInfo("[ws] host connected from %s", r.RemoteAddr)
	err = peer.readLoop(s.inbox)
	util.LogInfo("[ws] host disconnected: %v", err)

	s.mu.Lock()
	if s.peer == peer {
		s.peer = nil
	}
	s.mu.Unlock()
	conn.Close()
}

// Send writes to the attached host.
func (s *WebSocketServer) Send(_ protocol.Address, pkt []byte) error {
	s.mu.Lock()
	peer := s.peer
	s.mu.Unlock()
	if peer == nil {
		return errs.WrapTransport(ErrNoPeer, "WebSocket", "Send")
	}
	if err := peer.write(pkt); err != nil {
		return errs.WrapTransport(err, "WebSocket", "Send")
	}
	util.Stats.AddSent(len(pkt))
	return nil
}

// Receive returns the next queued message.
func (s *WebSocketServer) Receive(buf []byte) (int, error) {
	return s.inbox.take(buf, "WebSocket")
}

// Close shuts down the listener and the attached host.
func (s *WebSocketServer) Close() error {
	s.inbox.close()
	s.mu.Lock()
	peer := s.peer
	s.peer = nil
	s.mu.Unlock()

	err := s.listener.Close()
	if peer != nil {
		err = errors.Join(err, peer.conn.Close())
	}
	return err
}

// WebSocketClient is the host side of a WebSocket link.
type WebSocketClient struct {
	peer  *wsConn
	inbox *inbox
}

// DialWebSocket connects to a device serving ListenWebSocket.
func DialWebSocket(ctx context.Context, url string, pollTimeout time.Duration) (*WebSocketClient, error) {
	if pollTimeout <= 0 {
		pollTimeout = DefaultStreamOptions().PollTimeout
	}
	dialer := websocket.DefaultDialer
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to WS server: %w", err)
	}

	c := &WebSocketClient{
		peer:  &wsConn{conn: conn},
		inbox: newInbox(defaultInboxSize, pollTimeout),
	}
	go func() {
		if err := c.peer.readLoop(c.inbox); err != nil {
			util.LogDebug("[ws] read loop ended: %v", err)
		}
		c.inbox.close()
	}()
	return c, nil
}

// Send writes one packet.
func (c *WebSocketClient) Send(_ protocol.Address, pkt []byte) error {
	if err := c.peer.write(pkt); err != nil {
		return errs.WrapTransport(err, "WebSocket", "Send")
	}
	util.Stats.AddSent(len(pkt))
	return nil
}

// Receive returns the next queued message.
func (c *WebSocketClient) Receive(buf []byte) (int, error) {
	return c.inbox.take(buf, "WebSocket")
}

// Close closes the connection.
func (c *WebSocketClient) Close() error {
	c.inbox.close()
	c.peer.mu.Lock()
	c.peer.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.peer.mu.Unlock()
	return c.peer.conn.Close()
}
