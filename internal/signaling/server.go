package signaling

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Path is the HTTP path the signaling server answers on.
const Path = "/ws"

// Server is the device side of signaling: a WebSocket endpoint that admits
// the first host presenting the right PIN.
type Server struct {
	pin      string
	upgrader websocket.Upgrader
	http     *http.Server
	addr     net.Addr

	taken  atomic.Bool
	hostCh chan *websocket.Conn
}

// NewServer creates a server that admits a host presenting pin.
func NewServer(pin string) *Server {
	s := &Server{
		pin:    pin,
		hostCh: make(chan *websocket.Conn, 1),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.admit)
	s.http = &http.Server{Handler: mux}
	return s
}

// PIN returns the PIN a host must present.
func (s *Server) PIN() string { return s.pin }

// Start listens on addr; an empty addr picks a random port.
func (s *Server) Start(addr string) (net.Addr, error) {
	if addr == "" {
		addr = ":0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start signaling server: %w", err)
	}
	s.addr = ln.Addr()
	go s.http.Serve(ln)
	return s.addr, nil
}

// URL returns the URL, PIN included, a host on this machine would dial.
func (s *Server) URL() string {
	return fmt.Sprintf("ws://%s%s?pin=%s", s.addr, Path, s.pin)
}

func (s *Server) admit(w http.ResponseWriter, r *http.Request) {
	pin := r.URL.Query().Get("pin")
	if subtle.ConstantTimeCompare([]byte(pin), []byte(s.pin)) != 1 {
		http.Error(w, "invalid PIN", http.StatusUnauthorized)
		return
	}
	if !s.taken.CompareAndSwap(false, true) {
		http.Error(w, "a host is already connected", http.StatusConflict)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.taken.Store(false)
		return
	}
	s.hostCh <- conn
}

// WaitForClient blocks until a host is admitted or ctx is cancelled.
func (s *Server) WaitForClient(ctx context.Context) (*websocket.Conn, error) {
	select {
	case conn := <-s.hostCh:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting hosts. An admitted host's connection stays open.
func (s *Server) Close() {
	s.http.Close()
}

// GeneratePIN returns a random numeric PIN of n digits.
func GeneratePIN(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = '0' + b[i]%10
	}
	return string(b)
}
