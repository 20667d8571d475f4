package engine

import (
	"context"
	"sync"
)

// jobResult pairs a processed payload with its outcome.
type jobResult[T, R any] struct {
	payload T
	result  R
	err     error
}

// workerPool is a fixed-size goroutine pool with a bounded input queue.
// Results are emitted in completion order and the results channel is closed
// once the queue is closed and drained.
type workerPool[T, R any] struct {
	queue   chan T
	results chan jobResult[T, R]
	process func(ctx context.Context, t T) (R, error)
	wg      sync.WaitGroup
}

// newWorkerPool creates and starts a pool with n goroutines and queue capacity cap.
// The results buffer has the same capacity so workers only block on a slow
// consumer once cap results are outstanding.
func newWorkerPool[T, R any](ctx context.Context, n, cap int, fn func(context.Context, T) (R, error)) *workerPool[T, R] {
	p := &workerPool[T, R]{
		queue:   make(chan T, cap),
		results: make(chan jobResult[T, R], cap),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
	return p
}

// run keeps draining after ctx is cancelled so every queued payload still
// yields a result; process is expected to fail fast on a dead context.
func (p *workerPool[T, R]) run(ctx context.Context) {
	for t := range p.queue {
		r, err := p.process(ctx, t)
		p.results <- jobResult[T, R]{payload: t, result: r, err: err}
	}
}

// Submit enqueues a job without blocking (returns false if full).
func (p *workerPool[T, R]) Submit(t T) bool {
	select {
	case p.queue <- t:
		return true
	default:
		return false
	}
}

// Close stops accepting jobs. Workers finish what is queued.
func (p *workerPool[T, R]) Close() {
	close(p.queue)
}

// Results delivers one jobResult per submitted payload.
func (p *workerPool[T, R]) Results() <-chan jobResult[T, R] {
	return p.results
}
