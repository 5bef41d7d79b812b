// Package pool provides a fixed-size worker pool with a blocking drain.
package pool

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
)

var (
	// ErrClosed is returned when submitting to a closed pool.
	ErrClosed = errors.New("pool: closed")

	// ErrPanic wraps a value recovered from a panicking task.
	ErrPanic = errors.New("pool: task panicked")
)

// Task is a unit of work. A non-nil error is collected and reported by Drain.
type Task func() error

// Pool runs tasks on a fixed set of long-lived workers.
//
// The queue is unbounded and Submit never blocks. Tasks complete in no
// particular order; Drain is the only synchronization point.
type Pool struct {
	mu       sync.Mutex
	work     *sync.Cond // a task was queued or the pool is closing
	idle     *sync.Cond // the queue is empty and nothing is in flight
	queue    []Task
	inflight int
	closed   bool
	errs     []error
	workers  int
	wg       sync.WaitGroup
}

// New starts a pool with the given number of workers.
// workers <= 0 uses runtime.GOMAXPROCS(0).
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{workers: workers}
	p.work = sync.NewCond(&p.mu)
	p.idle = sync.NewCond(&p.mu)
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

// Submit queues a task and wakes one idle worker.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.queue = append(p.queue, task)
	p.mu.Unlock()
	p.work.Signal()
	return nil
}

// Drain blocks until every submitted task has finished, then returns the
// failures collected since the previous Drain as an *AggregateError, or nil.
func (p *Pool) Drain() error {
	p.mu.Lock()
	for len(p.queue) > 0 || p.inflight > 0 {
		p.idle.Wait()
	}
	errs := p.errs
	p.errs = nil
	p.mu.Unlock()

	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errs: errs}
}

// Close stops the workers and waits for them to exit. Tasks already
// running finish; tasks still queued are discarded without running.
// Close is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		clear(p.queue)
		p.queue = nil
	}
	p.mu.Unlock()
	p.work.Broadcast()
	p.wg.Wait()

	// Wake any Drain that was waiting on the discarded queue.
	p.idle.Broadcast()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for !p.closed && len(p.queue) == 0 {
			p.work.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		// Counted before unlocking so Drain never sees an empty queue with
		// a dequeued task not yet accounted for.
		p.inflight++
		p.mu.Unlock()

		err := run(task)

		p.mu.Lock()
		p.inflight--
		if err != nil {
			p.errs = append(p.errs, err)
		}
		if p.inflight == 0 && len(p.queue) == 0 {
			p.idle.Broadcast()
		}
		p.mu.Unlock()
	}
}

func run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return task()
}

// AggregateError collects the failures of tasks run between two drains.
// The order of Errs is unspecified.
type AggregateError struct {
	Errs []error
}

// Error reports the first failure and how many others occurred.
func (e *AggregateError) Error() string {
	switch len(e.Errs) {
	case 0:
		return "pool: no errors"
	case 1:
		return e.Errs[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(e.Errs[0].Error())
	fmt.Fprintf(&sb, " (and %d more)", len(e.Errs)-1)
	return sb.String()
}

// Unwrap exposes every collected failure to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errs
}
