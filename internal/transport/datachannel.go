package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/protocol"
	"github.com/1ureka/rtno/internal/util"
)

// DataChannelOptions configures a WebRTC link. There is no TURN; the link
// is meant for direct connectivity.
type DataChannelOptions struct {
	// PollTimeout bounds one Receive.
	PollTimeout time.Duration
	// STUNServers are used for ICE candidate gathering. None means host
	// candidates only.
	STUNServers []string
	// Loopback also gathers 127.0.0.1 candidates, for peers on one host.
	Loopback bool
}

// DefaultDataChannelOptions returns the public Google STUN servers.
func DefaultDataChannelOptions() DataChannelOptions {
	return DataChannelOptions{
		PollTimeout: DefaultStreamOptions().PollTimeout,
		STUNServers: []string{
			"stun:stun.l.google.com:19302",
			"stun:stun1.l.google.com:19302",
		},
	}
}

const (
	highWaterMark  = 256 * 1024 // pause sending when bufferedAmount exceeds this
	lowWaterMark   = 64 * 1024  // resume sending when bufferedAmount drops below this
	sendBufferSize = 64         // outgoing packet channel capacity
)

func newPeerConnection(opts DataChannelOptions) (*webrtc.PeerConnection, error) {
	var cfg webrtc.Configuration
	if len(opts.STUNServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: opts.STUNServers}}
	}
	var se webrtc.SettingEngine
	se.SetIncludeLoopbackCandidate(opts.Loopback)
	return webrtc.NewAPI(webrtc.WithSettingEngine(se)).NewPeerConnection(cfg)
}

// newDataChannel creates a pre-negotiated DataChannel (ID 0) so both sides
// can create it independently without OnDataChannel. It is ordered because
// a profile reply is a sequence of packets.
func newDataChannel(pc *webrtc.PeerConnection) (*webrtc.DataChannel, error) {
	negotiated := true
	id := uint16(0)

	return pc.CreateDataChannel("rtno", &webrtc.DataChannelInit{
		Negotiated: &negotiated,
		ID:         &id,
	})
}

// DataChannel is a link over a WebRTC PeerConnection + DataChannel pair. The
// caller performs signaling through the exposed methods and waits on Ready
// before using it as a Transport.
type DataChannel struct {
	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel

	outbox      chan []byte
	drainSignal chan struct{}
	openSignal  chan struct{}
	inbox       *inbox

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	pcState webrtc.PeerConnectionState
}

// NewDataChannel creates the PeerConnection and DataChannel. The link is
// alive as long as the DataChannel is open and ctx has not been cancelled.
func NewDataChannel(ctx context.Context, opts DataChannelOptions) (*DataChannel, error) {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultStreamOptions().PollTimeout
	}

	pc, err := newPeerConnection(opts)
	if err != nil {
		return nil, err
	}

	dc, err := newDataChannel(pc)
	if err != nil {
		pc.Close()
		return nil, err
	}

	tCtx, tCancel := context.WithCancel(ctx)

	t := &DataChannel{
		pc:          pc,
		dc:          dc,
		outbox:      make(chan []byte, sendBufferSize),
		drainSignal: make(chan struct{}, 1),
		openSignal:  make(chan struct{}),
		inbox:       newInbox(defaultInboxSize, opts.PollTimeout),
		ctx:         tCtx,
		cancel:      tCancel,
		pcState:     webrtc.PeerConnectionStateNew,
	}

	var openOnce sync.Once
	dc.OnOpen(func() {
		openOnce.Do(func() { close(t.openSignal) })
	})

	dc.OnClose(func() {
		util.LogInfo("[webrtc] DataChannel closed")
		tCancel()
	})

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		util.Stats.AddRecv(len(msg.Data))
		t.inbox.put(msg.Data)
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		util.LogDebug("[webrtc] PeerConnection state: %s", state.String())
		t.mu.Lock()
		t.pcState = state
		t.mu.Unlock()
	})

	dc.SetBufferedAmountLowThreshold(uint64(lowWaterMark))
	dc.OnBufferedAmountLow(func() {
		select {
		case t.drainSignal <- struct{}{}:
		default:
		}
	})

	go func() {
		<-tCtx.Done()
		t.inbox.close()
	}()
	go t.sendLoop()

	return t, nil
}

// Ready is closed once the DataChannel is open.
func (t *DataChannel) Ready() <-chan struct{} { return t.openSignal }

// Done is closed once the link is shut down.
func (t *DataChannel) Done() <-chan struct{} { return t.ctx.Done() }

// ConnectionState returns the last observed PeerConnection state.
func (t *DataChannel) ConnectionState() webrtc.PeerConnectionState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pcState
}

// Close shuts down the DataChannel and PeerConnection.
func (t *DataChannel) Close() error {
	t.cancel()
	return errors.Join(t.dc.Close(), t.pc.Close())
}

// CreateOffer generates an SDP offer.
func (t *DataChannel) CreateOffer() (webrtc.SessionDescription, error) {
	return t.pc.CreateOffer(nil)
}

// CreateAnswer generates an SDP answer.
func (t *DataChannel) CreateAnswer() (webrtc.SessionDescription, error) {
	return t.pc.CreateAnswer(nil)
}

// SetLocalDescription applies the local SDP.
func (t *DataChannel) SetLocalDescription(sdp webrtc.SessionDescription) error {
	return t.pc.SetLocalDescription(sdp)
}

// SetRemoteDescription applies the remote SDP.
func (t *DataChannel) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	return t.pc.SetRemoteDescription(sdp)
}

// OnICECandidate registers a callback for gathered local candidates. A nil
// candidate signals the end of gathering.
func (t *DataChannel) OnICECandidate(fn func(*webrtc.ICECandidate)) {
	t.pc.OnICECandidate(fn)
}

// AddICECandidate adds a remote candidate received through signaling.
func (t *DataChannel) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return t.pc.AddICECandidate(candidate)
}

// Send queues a copy of pkt for the sender goroutine. It blocks while the
// queue is full.
func (t *DataChannel) Send(_ protocol.Address, pkt []byte) error {
	cp := make([]byte, len(pkt))
	copy(cp, pkt)

	select {
	case t.outbox <- cp:
		return nil
	case <-t.ctx.Done():
		return errs.WrapTransport(errs.ErrClosed, "DataChannel", "Send")
	}
}

// Receive returns the next received message.
func (t *DataChannel) Receive(buf []byte) (int, error) {
	return t.inbox.take(buf, "DataChannel")
}

// sendLoop is the single writer. It waits for the DataChannel to open,
// then drains the outbox with backpressure.
func (t *DataChannel) sendLoop() {
	select {
	case <-t.openSignal:
	case <-t.ctx.Done():
		return
	}

	for {
		select {
		case pkt := <-t.outbox:
			if t.dc.BufferedAmount() > uint64(highWaterMark) {
				select {
				case <-t.drainSignal:
				case <-t.ctx.Done():
					return
				}
			}

			if err := t.dc.Send(pkt); err != nil {
				util.LogError("[webrtc] failed to send packet (%d bytes): %v", len(pkt), err)
				t.cancel()
				return
			}
			util.Stats.AddSent(len(pkt))

		case <-t.ctx.Done():
			return
		}
	}
}
