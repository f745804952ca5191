package reactor

import (
	"sync"

	"github.com/riftio/reactorhttp/httpwire"
	"github.com/riftio/reactorhttp/wswire"
)

// Phase identifies which protocol a connection currently speaks. A
// connection's phase only ever moves forward: Http -> WebSocket, never
// the reverse.
type Phase int

const (
	PhaseHTTP Phase = iota
	PhaseWebSocket
)

// attachment is the tagged-variant per-socket state bound to a selection
// key: one struct carrying both possible decoders, of which exactly one is
// consulted depending on phase. This mirrors the corpus's preference for a
// single struct with a discriminant field over a small class hierarchy.
type attachment struct {
	mu sync.Mutex

	phase     Phase
	keepAlive bool
	outbound  [][]byte

	httpDec *httpwire.Decoder
	wsDec   *wswire.Decoder

	channel *Channel

	// responsePending is set by the read pipeline on the loop thread before
	// handing a request to the handler, and read and cleared under mu by
	// tryWrite (on whichever thread calls it) or doWrite once the resulting
	// response has fully drained (resolves spec's read loop open question
	// via option (a): pause further decodes on this connection while a
	// response is in flight).
	responsePending bool

	remoteAddr string

	// closeNotified is loop-owned only, guarding against a second
	// ClientClose after a WebSocket Close frame already notified the
	// handler while the socket stayed open per RFC6455 semantics.
	closeNotified bool
}

func newHTTPAttachment(maxBody, maxLine int) *attachment {
	return &attachment{
		phase:     PhaseHTTP,
		keepAlive: true,
		httpDec:   httpwire.NewDecoder(maxBody, maxLine),
	}
}

// upgradeToWebSocket replaces the HTTP decoder with a WebSocket decoder in
// place, preserving outbound/channel/mutex identity — the attachment
// struct itself is not replaced, only its discriminant and decoder, since
// Go has no cheap way to swap a pointer's underlying struct type and the
// selection key already holds a stable *attachment.
func (a *attachment) upgradeToWebSocket() {
	a.phase = PhaseWebSocket
	a.httpDec = nil
	a.wsDec = wswire.NewDecoder()
	a.keepAlive = true
}
