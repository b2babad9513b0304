package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// MinGrain is the smallest number of work-items handed to one worker.
// Dispatches below this size run on the calling goroutine.
const MinGrain = 256

// WorkerPool is a pool of goroutines that executes the work-items of one
// kernel dispatch in parallel.
//
// Each worker owns a queue. Workers pull from their own queue first and steal
// from the others when it runs dry, which keeps long ranges (chunks whose
// points have many same-cluster neighbours) from stalling the dispatch.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)
	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own := p.workQueues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case work := <-own:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				drain(own)
				return
			case work := <-own:
				work()
			}
		}
	}
}

func drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(self int) func() {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// Range calls fn over [0, n) split into contiguous sub-ranges and blocks
// until every sub-range has finished. Sub-ranges never overlap, so fn may
// write to disjoint output slots without locking.
//
// Small ranges, a single-worker pool and a closed pool all run inline on the
// calling goroutine.
func (p *WorkerPool) Range(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if p == nil || p.workers == 1 || n < 2*MinGrain || !p.running.Load() {
		fn(0, n)
		return
	}

	parts := p.workers * 4
	grain := (n + parts - 1) / parts
	if grain < MinGrain {
		grain = MinGrain
	}

	var wg sync.WaitGroup
	for i, lo := 0, 0; lo < n; i, lo = i+1, lo+grain {
		hi := min(lo+grain, n)
		wg.Add(1)
		work := func() {
			defer wg.Done()
			fn(lo, hi)
		}
		select {
		case p.workQueues[i%p.workers] <- work:
		case <-p.done:
			work()
		}
	}
	wg.Wait()
}

// Close gracefully shuts down the pool after queued work has run.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
