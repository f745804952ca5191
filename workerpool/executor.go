// Package workerpool is the external thread-pool collaborator named
// out-of-scope by the reactor core (spec §1: "thread-pool workers that
// execute handlers"). The reactor package never imports this package —
// it is wired in by application code (see cmd/reactorhttpd) that wants
// handler callbacks to run off the single reactor goroutine.
package workerpool

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/riftio/reactorhttp/internal/wake"
)

// Task is a unit of work submitted to the pool.
type Task func()

// Pool dispatches tasks across worker goroutines using per-worker
// lock-free local queues with a buffered-channel global queue as
// overflow fallback.
type Pool struct {
	globalQueue chan Task
	localQueues []*wake.Queue[Task]
	workers     []*worker
	closeCh     chan struct{}
	closed      atomic.Bool
	numWorkers  int32

	totalTasks     int64
	completedTasks int64
}

// New creates a Pool with numWorkers goroutines. If numWorkers <= 0, it
// defaults to runtime.NumCPU().
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	p := &Pool{
		globalQueue: make(chan Task, numWorkers*4),
		closeCh:     make(chan struct{}),
		numWorkers:  int32(numWorkers),
	}
	p.localQueues = make([]*wake.Queue[Task], numWorkers)
	p.workers = make([]*worker, numWorkers)
	for i := 0; i < numWorkers; i++ {
		p.localQueues[i] = wake.New[Task](1024)
	}
	for i := 0; i < numWorkers; i++ {
		w := &worker{id: i, pool: p, localQueue: p.localQueues[i], stopCh: make(chan struct{})}
		p.workers[i] = w
		go w.run()
	}
	return p
}

// Submit enqueues a task for execution without blocking. Returns
// ErrPoolClosed if the pool has been closed, and also when the chosen
// worker's local queue and the global queue are both full; the task is
// then not run.
func (p *Pool) Submit(task Task) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	n := atomic.AddInt64(&p.totalTasks, 1)
	idx := int(n % int64(p.NumWorkers()))
	if p.localQueues[idx].Push(task) {
		return nil
	}
	select {
	case p.globalQueue <- task:
		return nil
	case <-p.closeCh:
		return ErrPoolClosed
	default:
		return ErrPoolClosed
	}
}

// NumWorkers returns the number of active workers.
func (p *Pool) NumWorkers() int { return int(atomic.LoadInt32(&p.numWorkers)) }

// Close shuts the pool down. In-flight tasks are not awaited.
func (p *Pool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.closeCh)
		for _, w := range p.workers {
			close(w.stopCh)
		}
	}
}

// Stats returns basic pool counters.
func (p *Pool) Stats() map[string]int64 {
	return map[string]int64{
		"total_tasks":     atomic.LoadInt64(&p.totalTasks),
		"completed_tasks": atomic.LoadInt64(&p.completedTasks),
		"num_workers":     int64(p.NumWorkers()),
	}
}

type worker struct {
	id         int
	pool       *Pool
	localQueue *wake.Queue[Task]
	stopCh     chan struct{}
}

func (w *worker) run() {
	for {
		select {
		case <-w.stopCh:
			return
		default:
		}
		if task, ok := w.localQueue.Pop(); ok {
			w.execute(task)
			continue
		}
		select {
		case task := <-w.pool.globalQueue:
			w.execute(task)
		case <-w.stopCh:
			return
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func (w *worker) execute(task Task) {
	defer func() {
		_ = recover()
		atomic.AddInt64(&w.pool.completedTasks, 1)
	}()
	task()
}
