// Package postcommit runs side effects after a database transaction has
// committed. Effects run one at a time in enqueue order; a failing effect is
// logged and dropped, never retried and never reported to the caller.
package postcommit

import (
	"context"
	"fmt"
	"log"
	"sync"
)

type Effect func(ctx context.Context) error

type job struct {
	name string
	fn   Effect
}

type Queue struct {
	jobs    chan job
	pending sync.WaitGroup
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.RWMutex
	running bool
	stopped bool
}

// NewQueue creates a queue that buffers up to size effects.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		jobs:   make(chan job, size),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the worker. Calling Start twice is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running || q.stopped {
		return
	}
	q.running = true

	go q.run()
	log.Println("Post-commit queue started")
}

func (q *Queue) run() {
	defer close(q.done)

	for j := range q.jobs {
		q.execute(j)
	}
}

func (q *Queue) execute(j job) {
	defer q.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Post-commit effect %s panicked: %v", j.name, r)
		}
	}()

	if err := j.fn(q.ctx); err != nil {
		log.Printf("Post-commit effect %s failed: %v", j.name, err)
	}
}

// Enqueue schedules fn. When the queue is stopped or full the effect is
// dropped and an error is returned; callers treat that as best-effort.
func (q *Queue) Enqueue(name string, fn Effect) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped {
		return fmt.Errorf("post-commit queue stopped, dropping %s", name)
	}

	q.pending.Add(1)
	select {
	case q.jobs <- job{name: name, fn: fn}:
		return nil
	default:
		q.pending.Done()
		log.Printf("Post-commit queue full, dropping %s", name)
		return fmt.Errorf("post-commit queue full, dropping %s", name)
	}
}

// Wait blocks until every effect enqueued so far has run.
func (q *Queue) Wait() {
	q.pending.Wait()
}

// Stop drains queued effects and stops the worker.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	wasRunning := q.running
	close(q.jobs)
	q.mu.Unlock()

	if wasRunning {
		<-q.done
	} else {
		for j := range q.jobs {
			q.pending.Done()
			log.Printf("Post-commit queue never started, dropping %s", j.name)
		}
	}

	q.cancel()
	log.Println("Post-commit queue stopped")
}

// Runner is what the services depend on.
type Runner interface {
	Enqueue(name string, fn Effect) error
}

// Inline runs effects synchronously. Failures are still only logged.
type Inline struct{}

func (Inline) Enqueue(name string, fn Effect) error {
	if err := fn(context.Background()); err != nil {
		log.Printf("Post-commit effect %s failed: %v", name, err)
	}
	return nil
}
