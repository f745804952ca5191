// Package bufpool provides size-bucketed, pooled outbound byte buffers for
// the write pipeline, so tryWrite/doWrite don't allocate a fresh []byte for
// every response body, 413/414 page, or WebSocket frame.
package bufpool

import (
	"sync"

	"github.com/riftio/reactorhttp/api"
)

// buffer is the concrete api.Buffer returned by Pool.
type buffer struct {
	pool *Pool
	raw  []byte // full-capacity slice as drawn from the size class
	buf  []byte // caller-visible view, raw[:size]
	cls  int    // size class index the slice was drawn from
}

func (b *buffer) Bytes() []byte { return b.buf }

func (b *buffer) Release() {
	if b.pool == nil {
		return
	}
	p := b.pool
	b.pool = nil
	p.putClass(b.cls, b)
}

// Pool is a sync.Pool-per-size-class buffer pool. Size classes are powers
// of two starting at minClass bytes; Get rounds up to the smallest class
// that fits, same bucketing idea as a NUMA-keyed pool but keyed by size
// instead of locality since this core has no NUMA concerns.
type Pool struct {
	minClass int
	mu       sync.Mutex
	classes  []*sync.Pool
}

// New creates a Pool whose smallest size class is minClass bytes (rounded
// up to a power of two, minimum 64).
func New(minClass int) *Pool {
	if minClass < 64 {
		minClass = 64
	}
	return &Pool{minClass: roundPow2(minClass)}
}

var _ api.BufferPool = (*Pool)(nil)

func roundPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func classIndex(size, minClass int) int {
	idx := 0
	c := minClass
	for c < size {
		c <<= 1
		idx++
	}
	return idx
}

func (p *Pool) classFor(idx int) *sync.Pool {
	p.mu.Lock()
	for len(p.classes) <= idx {
		cls := len(p.classes)
		size := p.minClass << cls
		p.classes = append(p.classes, &sync.Pool{
			New: func() any {
				return make([]byte, size)
			},
		})
	}
	sp := p.classes[idx]
	p.mu.Unlock()
	return sp
}

// Get returns a buffer of at least size bytes, reused from the matching
// size class when available.
func (p *Pool) Get(size int) api.Buffer {
	idx := classIndex(size, p.minClass)
	sp := p.classFor(idx)
	raw := sp.Get().([]byte)
	if len(raw) < size {
		raw = make([]byte, p.minClass<<idx)
	}
	return &buffer{pool: p, raw: raw, buf: raw[:size], cls: idx}
}

// Put returns a buffer obtained from Get.
func (p *Pool) Put(b api.Buffer) {
	b.Release()
}

func (p *Pool) putClass(idx int, b *buffer) {
	sp := p.classFor(idx)
	sp.Put(b.raw)
}
