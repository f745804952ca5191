package reactor

import "sync/atomic"

// interest mirrors the epoll readiness the loop has currently armed for a
// key. No key carries interestAccept: the listening socket is dispatched by
// its fd and has no selectionKey. Connection keys alternate
// between interestRead and interestWrite per invariant 1 (all interest-op
// mutations happen on the event-loop thread).
type interest int

const (
	interestAccept interest = iota
	interestRead
	interestWrite
)

// selectionKey binds a file descriptor to its attachment and current
// interest set, exactly the "handle binding a socket, its attachment, and
// its current interest set" of the glossary entry. valid flips false once
// closeKey has run; tryWrite and the wake-queue drain both check it before
// touching the fd again, since a handler thread may still hold a *Channel
// referencing a key the loop has since closed.
type selectionKey struct {
	fd       int
	interest interest
	atta     *attachment
	valid    atomic.Bool
}

func newSelectionKey(fd int, atta *attachment) *selectionKey {
	k := &selectionKey{fd: fd, interest: interestRead, atta: atta}
	k.valid.Store(true)
	return k
}

func (k *selectionKey) isValid() bool { return k.valid.Load() }
