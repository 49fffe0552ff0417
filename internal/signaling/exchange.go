package signaling

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/1ureka/rtno/internal/transport"
)

// exchange runs the SDP/ICE exchange for one DataChannel over one WebSocket.
type exchange struct {
	tr   *transport.DataChannel
	conn *websocket.Conn
	mu   sync.Mutex
}

// send writes a signaling message to the WebSocket, guarded by a mutex.
func (e *exchange) send(msg message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.WriteJSON(msg)
}

// sendOffer creates an SDP offer, sets it as local description, and sends it.
func (e *exchange) sendOffer() error {
	offer, err := e.tr.CreateOffer()
	if err != nil {
		return err
	}
	if err := e.tr.SetLocalDescription(offer); err != nil {
		return err
	}
	return e.send(message{Kind: kindOffer, SDP: offer.SDP})
}

// sendAnswer creates an SDP answer, sets it as local description, and sends it.
func (e *exchange) sendAnswer() error {
	answer, err := e.tr.CreateAnswer()
	if err != nil {
		return err
	}
	if err := e.tr.SetLocalDescription(answer); err != nil {
		return err
	}
	return e.send(message{Kind: kindAnswer, SDP: answer.SDP})
}

// trickle forwards gathered local candidates. Sending is best-effort.
func (e *exchange) trickle() {
	e.tr.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		cand := c.ToJSON()
		_ = e.send(message{Kind: kindCandidate, Candidate: &cand})
	})
}

// watch handles incoming messages until the WebSocket fails or closes.
func (e *exchange) watch() error {
	for {
		var msg message
		if err := e.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed to read WS message: %w", err)
		}

		switch msg.Kind {
		case kindOffer:
			if err := e.tr.SetRemoteDescription(webrtc.SessionDescription{
				Type: webrtc.SDPTypeOffer, SDP: msg.SDP,
			}); err != nil {
				return err
			}
			if err := e.sendAnswer(); err != nil {
				return err
			}

		case kindAnswer:
			if err := e.tr.SetRemoteDescription(webrtc.SessionDescription{
				Type: webrtc.SDPTypeAnswer, SDP: msg.SDP,
			}); err != nil {
				return err
			}

		case kindCandidate:
			if msg.Candidate == nil {
				continue
			}
			if err := e.tr.AddICECandidate(*msg.Candidate); err != nil {
				return fmt.Errorf("failed to add ICE candidate: %w", err)
			}
		}
	}
}
