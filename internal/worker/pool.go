package worker

import (
	"context"
	"sort"
	"sync"
)

// Job is a unit of work producing an R
type Job[R any] interface {
	Execute(ctx context.Context) R
}

// JobFunc adapts a function to Job
type JobFunc[R any] func(ctx context.Context) R

func (f JobFunc[R]) Execute(ctx context.Context) R { return f(ctx) }

type queued[R any] struct {
	index int
	job   Job[R]
}

type finished[R any] struct {
	index  int
	result R
}

// Pool runs jobs on a fixed number of workers. Results are gathered by a
// single collecting goroutine, so no result is ever written concurrently.
// Submit and Wait must be called from the same goroutine.
type Pool[R any] struct {
	workers int
	ctx     context.Context
	cancel  context.CancelFunc

	jobs    chan queued[R]
	results chan finished[R]
	wg      sync.WaitGroup

	submitted int
	collected []finished[R]
	done      chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
}

// NewPool creates a pool whose jobs run under ctx
func NewPool[R any](ctx context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Pool[R]{
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(chan queued[R], workers*2),
		results: make(chan finished[R], workers*2),
		done:    make(chan struct{}),
	}
}

// Start launches the workers and the result collector
func (p *Pool[R]) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
		go p.collect()
	})
}

func (p *Pool[R]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case q, ok := <-p.jobs:
			if !ok {
				return
			}
			r := q.job.Execute(p.ctx)
			// Delivered even after Shutdown: the collector drains until close
			p.results <- finished[R]{index: q.index, result: r}
		}
	}
}

func (p *Pool[R]) collect() {
	defer close(p.done)
	for f := range p.results {
		p.collected = append(p.collected, f)
	}
}

// Submit queues a job. It returns without queuing once the pool is shut down.
func (p *Pool[R]) Submit(job Job[R]) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobs <- queued[R]{index: p.submitted, job: job}:
		p.submitted++
	}
}

// Wait stops accepting jobs, waits for the running ones and returns their
// results in submission order
func (p *Pool[R]) Wait() []R {
	p.Start()
	p.closeJobs()
	p.wg.Wait()
	p.closeOnce.Do(func() { close(p.results) })
	<-p.done

	sort.Slice(p.collected, func(i, j int) bool {
		return p.collected[i].index < p.collected[j].index
	})

	out := make([]R, len(p.collected))
	for i, f := range p.collected {
		out[i] = f.result
	}
	p.Shutdown()
	return out
}

// Shutdown cancels the pool context. Jobs still queued are dropped; Wait
// returns whatever finished.
func (p *Pool[R]) Shutdown() {
	p.cancel()
}

func (p *Pool[R]) closeJobs() {
	defer func() { _ = recover() }()
	close(p.jobs)
}
