package reactor

import (
	"github.com/riftio/reactorhttp/httpwire"
	"github.com/riftio/reactorhttp/wswire"
)

// Handler is the external collaborator named by spec §6. The reactor owns
// no knowledge of request routing or response formatting; it only ever
// calls back into a Handler.
type Handler interface {
	// HandleRequest is invoked for each complete HTTP request. respond
	// delivers the handler's response bytes back through TryWrite on the
	// request's owning connection; it may be called from any thread,
	// including a worker pool goroutine, and at most once per request.
	HandleRequest(req *httpwire.Request, ch *Channel, respond func([]byte))

	// HandleFrame is invoked for each complete Text/Binary WebSocket
	// frame. Ping/Pong/Close are handled by the reactor itself and never
	// reach the handler.
	HandleFrame(ch *Channel, frame *wswire.Frame)

	// ClientClose is invoked exactly once per connection, with a status
	// from api.CloseHTTP/CloseNormal/CloseAway/CloseMessageTooBig,
	// wswire.CloseProtocolError, a peer-supplied WebSocket close code, or
	// wswire.CloseNoStatusRcvd for a Close frame that carries no code.
	ClientClose(ch *Channel, status int)

	// Close is invoked once from Server.Stop.
	Close()
}
