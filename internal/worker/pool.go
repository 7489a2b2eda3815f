package worker

import (
	"context"
	"sync"
)

// Job is a unit of work producing a result of type R
type Job[R any] interface {
	Execute(ctx context.Context) R
}

// JobFunc adapts a plain function to Job
type JobFunc[R any] func(ctx context.Context) R

// Execute calls f
func (f JobFunc[R]) Execute(ctx context.Context) R {
	return f(ctx)
}

// Pool runs jobs on a fixed number of goroutines. Results are drained as
// they arrive, so Submit never waits on a reader.
type Pool[R any] struct {
	workers    int
	jobQueue   chan Job[R]
	results    chan R
	collected  []R
	collectEnd chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a pool bound to ctx. Cancelling ctx stops workers after
// their current job; queued jobs are dropped.
func NewPool[R any](ctx context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool[R]{
		workers:    workers,
		jobQueue:   make(chan Job[R], workers*2),
		results:    make(chan R, workers*2),
		collectEnd: make(chan struct{}),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the workers and the result collector
func (p *Pool[R]) Start() {
	go func() {
		defer close(p.collectEnd)
		for r := range p.results {
			p.collected = append(p.collected, r)
		}
	}()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[R]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.results <- job.Execute(p.ctx)
		}
	}
}

// Submit queues a job. It returns false when the pool has been cancelled.
// Submit must not be called after Wait.
func (p *Pool[R]) Submit(job Job[R]) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- job:
		return true
	}
}

// Wait closes the queue, waits for the workers and returns every result in
// completion order. Later calls return the same results.
func (p *Pool[R]) Wait() []R {
	p.closeOnce.Do(func() {
		close(p.jobQueue)
		p.wg.Wait()
		close(p.results)
		<-p.collectEnd
		p.cancelFunc()
	})
	return p.collected
}

// Shutdown cancels outstanding work and returns whatever finished
func (p *Pool[R]) Shutdown() []R {
	p.cancelFunc()
	return p.Wait()
}
