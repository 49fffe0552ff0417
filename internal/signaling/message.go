package signaling

import "github.com/pion/webrtc/v4"

type kind string

const (
	kindOffer     kind = "offer"
	kindAnswer    kind = "answer"
	kindCandidate kind = "candidate"
)

// message is one JSON frame of the exchange. Offers and answers carry SDP,
// candidate frames carry one trickled ICE candidate.
type message struct {
	Kind      kind                     `json:"kind"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
}
