package reactor

import "github.com/riftio/reactorhttp/api"

// Channel is the opaque handler-facing handle named by spec §6: it carries
// the selection key and a back-reference to the loop so handler code
// running on another thread can call TryWrite without ever touching epoll
// interest ops directly.
type Channel struct {
	key  *selectionKey
	loop *Loop
}

// Reset is called by the read pipeline before each HTTP request is handed
// to the handler. Channel holds no per-request state, so it does nothing.
func (c *Channel) Reset() {}

// TryWrite enqueues buffers for delivery to the peer, preserving caller
// order, and is safe to call concurrently from any thread including the
// loop itself. If the key has already been closed it writes nothing and
// returns api.ErrInvalidKey — stop() and peer-initiated closes may race
// with in-flight handler callbacks per the design note on invalid keys.
func (c *Channel) TryWrite(bufs ...[]byte) error {
	return c.loop.tryWrite(c.key, bufs...)
}

// AcquireBuffer returns a pooled byte buffer of at least size bytes for a
// handler to build a response into, avoiding a fresh allocation per
// request/frame. TryWrite does not copy the bytes: whatever it cannot write
// at once stays referenced by the connection's outbound queue until it
// drains.
func (c *Channel) AcquireBuffer(size int) api.Buffer {
	return c.loop.pool.Get(size)
}

// RemoteAddr returns the peer address captured at accept time.
func (c *Channel) RemoteAddr() string {
	c.key.atta.mu.Lock()
	defer c.key.atta.mu.Unlock()
	return c.key.atta.remoteAddr
}
