//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"

	"github.com/riftio/reactorhttp/api"
)

// closeKey implements spec §4.G: close the underlying socket ignoring
// errors, then notify the handler: with api.CloseHTTP for an HTTP-phase
// connection, otherwise with status. The key becomes invalid immediately
// so any in-flight tryWrite from another thread becomes a no-op (design
// note §9).
func (l *Loop) closeKey(key *selectionKey, status int) {
	atta := key.atta
	atta.mu.Lock()
	if !key.valid.CompareAndSwap(true, false) {
		atta.mu.Unlock()
		return
	}
	unix.Close(key.fd)
	if atta.phase == PhaseHTTP {
		status = api.CloseHTTP
	}
	atta.mu.Unlock()

	l.unregisterKey(key.fd)
	l.notifyClose(key, status)
}

// notifyClose invokes ClientClose at most once per connection (testable
// property 4), since a WebSocket Close frame notifies the handler while
// the socket may still be open, and a later peer disconnect must not
// notify a second time.
func (l *Loop) notifyClose(key *selectionKey, status int) {
	atta := key.atta
	if atta.closeNotified {
		return
	}
	atta.closeNotified = true
	l.cfg.Handler.ClientClose(atta.channel, status)
}
