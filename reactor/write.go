//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"

	"github.com/riftio/reactorhttp/api"
)

// tryWrite implements spec §4.D: callable from any thread, including the
// loop itself (for Pongs, Close echoes, 413/414 responses). The attachment
// mutex serializes this against doWrite and against closeKey, closing the
// fd-reuse race a single-threaded reactor with multi-threaded writers would
// otherwise have (a handler thread could still be mid gather-write when the
// loop recycles the fd for a freshly accepted connection).
//
// When the inline gatherWrite drains the buffers completely, this mirrors
// doWrite's own drained branch: read interest is re-armed and, if a
// request's response just finished draining, pumpHTTP resumes decode of
// whatever the connection's decoder already buffered. Most responses built
// on the reactor thread itself (a synchronous handler) take this inline
// path rather than ever reaching doWrite, so skipping this step here would
// leave a keep-alive connection's epoll interest cleared forever after its
// very first request.
func (l *Loop) tryWrite(key *selectionKey, bufs ...[]byte) error {
	atta := key.atta
	atta.mu.Lock()

	if !key.isValid() {
		atta.mu.Unlock()
		return api.ErrInvalidKey
	}

	if len(atta.outbound) == 0 {
		remaining, err := gatherWrite(key.fd, bufs)
		if err != nil {
			atta.mu.Unlock()
			l.closeKey(key, api.CloseAway)
			return err
		}
		if remaining != nil {
			atta.outbound = append(atta.outbound, remaining...)
			atta.mu.Unlock()
			l.pending.Push(key)
			l.wake()
			return nil
		}
		keepAlive := atta.keepAlive
		wasPending := atta.responsePending
		atta.responsePending = false
		phase := atta.phase
		atta.mu.Unlock()

		if !keepAlive {
			l.closeKey(key, api.CloseNormal)
			return nil
		}
		l.armRead(key)
		if wasPending && phase == PhaseHTTP {
			l.pumpHTTP(key)
		}
		return nil
	}

	// A queue already exists: never attempt an inline write here, since
	// doing so could deliver these bytes ahead of ones already queued.
	atta.outbound = append(atta.outbound, bufs...)
	atta.mu.Unlock()
	l.pending.Push(key)
	l.wake()
	return nil
}

// doWrite runs only on the loop thread when write-readiness fires (spec
// §4.D).
func (l *Loop) doWrite(key *selectionKey) {
	atta := key.atta
	atta.mu.Lock()
	remaining, err := gatherWrite(key.fd, atta.outbound)
	if err != nil {
		atta.mu.Unlock()
		l.closeKey(key, api.CloseAway)
		return
	}
	atta.outbound = remaining
	drained := len(atta.outbound) == 0
	keepAlive := atta.keepAlive
	wasPending := atta.responsePending
	if drained {
		atta.responsePending = false
	}
	atta.mu.Unlock()

	if !drained {
		return // leave write-interest armed; the loop re-enters when writable.
	}

	if keepAlive {
		l.armRead(key)
		if wasPending && atta.phase == PhaseHTTP {
			l.pumpHTTP(key)
		}
		return
	}
	l.closeKey(key, api.CloseNormal)
}

// gatherWrite performs a single vectored write of bufs to fd, per the
// glossary's "gather-write" entry. It returns the still-unwritten tail of
// bufs (nil if everything was written), or an error on anything other than
// EAGAIN/EWOULDBLOCK.
func gatherWrite(fd int, bufs [][]byte) ([][]byte, error) {
	total := 0
	for _, b := range bufs {
		total += len(b)
	}
	if total == 0 {
		return nil, nil
	}

	n, err := unix.Writev(fd, bufs)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			n = 0
		} else {
			return nil, err
		}
	}
	if n >= total {
		return nil, nil
	}
	return remainderAfter(bufs, n), nil
}

func remainderAfter(bufs [][]byte, n int) [][]byte {
	var out [][]byte
	for _, b := range bufs {
		if n >= len(b) {
			n -= len(b)
			continue
		}
		out = append(out, b[n:])
		n = 0
	}
	return out
}
