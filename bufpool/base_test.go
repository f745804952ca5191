package bufpool

import "testing"

func TestPoolReuse(t *testing.T) {
	p := New(64)
	b1 := p.Get(128)
	b1.Release()
	b2 := p.Get(100)
	if cap(b2.(*buffer).raw) < 128 {
		t.Fatalf("buffer capacity too small after reuse: %d", cap(b2.(*buffer).raw))
	}
}

func TestPoolGrowsByClass(t *testing.T) {
	p := New(64)
	small := p.Get(10)
	if len(small.Bytes()) != 10 {
		t.Fatalf("expected 10 bytes, got %d", len(small.Bytes()))
	}
	big := p.Get(5000)
	if len(big.Bytes()) != 5000 {
		t.Fatalf("expected 5000 bytes, got %d", len(big.Bytes()))
	}
}
