// Package pool provides a bounded worker pool for offloading CPU-bound work.
// This package is internal and should not be imported by external projects.
package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrPoolClosed = errors.New("pool is closed")

// Task represents a unit of work. A submitted task always runs to
// completion; the pool never cancels work in flight.
type Task func() error

// WorkerPool runs tasks on a fixed number of worker goroutines.
type WorkerPool struct {
	taskQueue chan taskWrapper
	closed    atomic.Bool
	wg        sync.WaitGroup

	// Metrics
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

type taskWrapper struct {
	task   Task
	result chan error
}

// New creates a pool with the given number of workers. Workers are started
// eagerly and live until Close.
func New(workers, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}

	p := &WorkerPool{
		taskQueue: make(chan taskWrapper, queueSize),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// SubmitWait submits a task and blocks until it completes or ctx is done.
// The task itself is not cancelled once a worker has picked it up.
func (p *WorkerPool) SubmitWait(ctx context.Context, task Task) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	p.submitted.Add(1)

	wrapper := taskWrapper{
		task:   task,
		result: make(chan error, 1),
	}

	select {
	case p.taskQueue <- wrapper:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-wrapper.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for wrapper := range p.taskQueue {
		err := p.run(wrapper.task)

		// Counters update before the result is delivered so Stats observed
		// right after SubmitWait returns already include this task.
		if err != nil {
			p.failed.Add(1)
		} else {
			p.completed.Add(1)
		}

		wrapper.result <- err
		close(wrapper.result)
	}
}

func (p *WorkerPool) run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("task panicked")
		}
	}()
	return task()
}

// Close stops accepting tasks and waits for in-flight work to finish.
func (p *WorkerPool) Close() {
	if p.closed.Swap(true) {
		return
	}
	close(p.taskQueue)
	p.wg.Wait()
}

// Stats returns pool statistics.
func (p *WorkerPool) Stats() Stats {
	return Stats{
		Queued:    len(p.taskQueue),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Stats contains pool statistics.
type Stats struct {
	Queued    int   `json:"queued"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}
