//go:build linux

package reactor

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/riftio/reactorhttp/api"
	"github.com/riftio/reactorhttp/httpwire"
	"github.com/riftio/reactorhttp/wswire"
)

// doRead implements spec §4.C: fill the shared scratch buffer from one
// socket and dispatch by phase. The scratch buffer's contents are fed
// straight into the connection's decoder, which copies what it needs to
// retain — nothing here stashes a slice of l.scratch past this call, per
// invariant 5.
func (l *Loop) doRead(key *selectionKey) {
	n, err := unix.Read(key.fd, l.scratch)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return
		}
		l.closeKey(key, api.CloseAway)
		return
	}
	if n == 0 {
		// End of stream: the peer has shut down its write side.
		l.closeKey(key, api.CloseAway)
		return
	}

	atta := key.atta
	switch atta.phase {
	case PhaseHTTP:
		atta.httpDec.Feed(l.scratch[:n])
		l.pumpHTTP(key)
	case PhaseWebSocket:
		atta.wsDec.Feed(l.scratch[:n])
		l.pumpWS(key)
	}
}

// pumpHTTP attempts to decode one request from the connection's decoder.
// It is called both directly from doRead and, after a response finishes
// draining, from doWrite — resuming decode of whatever bytes the decoder
// already buffered without waiting for a fresh socket readiness event.
func (l *Loop) pumpHTTP(key *selectionKey) {
	atta := key.atta
	req, err := atta.httpDec.Next()
	switch err {
	case nil:
		l.completeRequest(key, req)
	case api.ErrNeedMore:
		l.armRead(key)
	case api.ErrMalformed:
		l.closeKey(key, api.CloseHTTP)
	case api.ErrBodyTooLarge:
		atta.keepAlive = false
		l.tryWrite(key, httpwire.ErrorResponse(413))
	case api.ErrLineTooLong:
		atta.keepAlive = false
		l.tryWrite(key, httpwire.ErrorResponse(414))
	default:
		l.closeKey(key, api.CloseHTTP)
	}
}

func (l *Loop) completeRequest(key *selectionKey, req *httpwire.Request) {
	atta := key.atta
	req.RemoteAddr = atta.remoteAddr
	ch := atta.channel
	ch.Reset()

	if req.IsUpgrade {
		l.completeUpgrade(key, req)
		return
	}

	atta.keepAlive = req.KeepAlive
	// Pause further decode on this connection until the response this
	// request produces has fully drained (SPEC_FULL §4.C, resolving the
	// read-loop open question as option (a)): otherwise a second request
	// parsed from the same buffer could be handed to the handler while
	// request N's callback is still in flight on another thread.
	atta.responsePending = true
	l.clearInterest(key)

	l.cfg.Handler.HandleRequest(req, ch, func(resp []byte) {
		l.tryWrite(key, resp)
	})
}

// completeUpgrade replaces the key's attachment variant in place (spec
// §4.A: "the upgrade is an assignment of a new variant to the key's
// attachment slot... The channel handle is phase-independent") and writes
// the 101 handshake response.
func (l *Loop) completeUpgrade(key *selectionKey, req *httpwire.Request) {
	atta := key.atta
	clientKey := req.HeaderGet("Sec-WebSocket-Key")
	resp := build101Response(clientKey)

	atta.upgradeToWebSocket()
	l.tryWrite(key, resp)
	l.pumpWS(key)
}

// pumpWS drains as many complete frames as the decoder currently holds,
// dispatching each per spec §4.C's WebSocket decode loop.
func (l *Loop) pumpWS(key *selectionKey) {
	atta := key.atta
	for {
		frame, err := atta.wsDec.Next()
		switch err {
		case nil:
			l.handleWSFrame(key, frame)
		case api.ErrNeedMore:
			l.armRead(key)
			return
		case wswire.ErrProtocolError:
			l.closeKey(key, wswire.CloseProtocolError)
			return
		case wswire.ErrFrameTooLarge:
			l.closeKey(key, wswire.CloseMessageTooBig)
			return
		default:
			l.closeKey(key, wswire.CloseMessageTooBig)
			return
		}
	}
}

func (l *Loop) handleWSFrame(key *selectionKey, frame *wswire.Frame) {
	switch frame.Opcode {
	case wswire.OpcodeText, wswire.OpcodeBinary:
		l.cfg.Handler.HandleFrame(key.atta.channel, frame)
	case wswire.OpcodePing:
		l.tryWrite(key, wswire.EncodePong(frame.Payload))
	case wswire.OpcodeClose:
		status := closeStatusFromPayload(frame.Payload)
		l.notifyClose(key, status)
		l.tryWrite(key, wswire.EncodeClose(status, ""))
	}
}

func closeStatusFromPayload(payload []byte) int {
	if len(payload) < 2 {
		return wswire.CloseNoStatusRcvd
	}
	return int(binary.BigEndian.Uint16(payload))
}

func build101Response(clientKey string) []byte {
	accept := wswire.AcceptKey(clientKey)
	return []byte("HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + accept + "\r\n\r\n")
}
