package api

import "errors"

// Close statuses reported to Handler.ClientClose, per the error taxonomy:
// peer-side I/O failure, protocol malformation, and normal keep-alive-false
// drain all resolve to one of these.
const (
	CloseNormal   = 1000 // keep_alive=false drain completed; graceful.
	CloseAway     = 1006 // peer reset/EOF or I/O failure mid-operation.
	CloseMessageTooBig = 1009 // oversized or otherwise unclassified bad WS frame.
	CloseHTTP     = -1   // HTTP-phase close: no WS close code applies.
)

// Sentinel errors surfaced by the wire codecs (httpwire, wswire) to the
// read pipeline.
var (
	ErrNeedMore     = errors.New("reactorhttp: need more bytes")
	ErrMalformed    = errors.New("reactorhttp: malformed protocol message")
	ErrBodyTooLarge = errors.New("reactorhttp: request body exceeds maximum size")
	ErrLineTooLong  = errors.New("reactorhttp: request line exceeds maximum size")
)

// ErrInvalidKey is returned by TryWrite when called against a connection
// that has already been closed by the reactor. Per design note §9, this
// must be a no-op, not a fault: handler callbacks may race stop().
var ErrInvalidKey = errors.New("reactorhttp: selection key no longer valid")
