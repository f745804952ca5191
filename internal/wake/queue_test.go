package wake

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestQueueFIFOSingleProducer(t *testing.T) {
	q := New[int](16)
	for i := 0; i < 10; i++ {
		if !q.Push(i) {
			t.Fatalf("push %d failed unexpectedly", i)
		}
	}
	for i := 0; i < 10; i++ {
		v, ok := q.Pop()
		if !ok || v != i {
			t.Fatalf("expected %d, got %d (ok=%v)", i, v, ok)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestQueueMultiProducerSingleConsumer(t *testing.T) {
	q := New[int](1024)
	const producers = 8
	const perProducer = 5000
	const total = producers * perProducer

	var wg sync.WaitGroup
	var sent int64
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				for !q.Push(id*perProducer + i) {
					runtime.Gosched()
				}
				atomic.AddInt64(&sent, 1)
			}
		}(p)
	}

	received := 0
	seen := make([]bool, total)
	for received < total {
		v, ok := q.Pop()
		if !ok {
			runtime.Gosched()
			continue
		}
		if seen[v] {
			t.Fatalf("duplicate item %d", v)
		}
		seen[v] = true
		received++
	}
	wg.Wait()
	if int(atomic.LoadInt64(&sent)) != total {
		t.Fatalf("expected %d sent, got %d", total, sent)
	}
}

func TestDrainInto(t *testing.T) {
	q := New[int](8)
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	var got []int
	q.DrainInto(func(v int) { got = append(got, v) })
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order at %d: %d", i, v)
		}
	}
}
