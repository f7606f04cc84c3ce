// Package pool provides a bounded goroutine pool for probe fan-out.
package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var ErrPoolClosed = errors.New("pool is closed")

// Task represents a unit of work.
type Task func(ctx context.Context) error

// Config configures the pool.
type Config struct {
	MaxWorkers  int           `json:"max_workers"`
	QueueSize   int           `json:"queue_size"`
	IdleTimeout time.Duration `json:"idle_timeout"`
	// PanicHandler receives recovered panics from tasks.
	PanicHandler func(any) `json:"-"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:  4,
		QueueSize:   16,
		IdleTimeout: 60 * time.Second,
	}
}

// Pool manages a bounded set of worker goroutines. Workers spawn on demand
// up to MaxWorkers and retire after IdleTimeout without work, so a pool that
// only sees periodic bursts holds no goroutines between them.
type Pool struct {
	maxWorkers  int
	taskQueue   chan taskWrapper
	workerCount atomic.Int32
	activeCount atomic.Int32
	closed      atomic.Bool
	wg          sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	idleTimeout  time.Duration
	panicHandler func(any)
}

type taskWrapper struct {
	task   Task
	ctx    context.Context
	result chan error
}

// New creates a pool. Zero or negative config fields fall back to defaults.
func New(config Config) *Pool {
	def := DefaultConfig()
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = def.MaxWorkers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = def.IdleTimeout
	}
	return &Pool{
		maxWorkers:   config.MaxWorkers,
		taskQueue:    make(chan taskWrapper, config.QueueSize),
		idleTimeout:  config.IdleTimeout,
		panicHandler: config.PanicHandler,
	}
}

// Submit enqueues a task, blocking until queue space frees up or the context
// is done. The task runs with the submitted context.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	wrapper := taskWrapper{task: task, ctx: ctx}
	p.ensureWorker()

	select {
	case p.taskQueue <- wrapper:
		p.submitted.Add(1)
		p.ensureWorker()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitWait enqueues a task and blocks until it completes, returning the
// task's error.
func (p *Pool) SubmitWait(ctx context.Context, task Task) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	wrapper := taskWrapper{task: task, ctx: ctx, result: make(chan error, 1)}
	p.ensureWorker()

	select {
	case p.taskQueue <- wrapper:
		p.submitted.Add(1)
		p.ensureWorker()
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

func (p *Pool) ensureWorker() {
	for {
		current := p.workerCount.Load()
		if current >= int32(p.maxWorkers) {
			return
		}
		// Enough workers already exist for the queued work.
		if current > 0 && int(current) > len(p.taskQueue) {
			return
		}
		if p.workerCount.CompareAndSwap(current, current+1) {
			p.wg.Add(1)
			go p.worker()
			return
		}
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	defer p.workerCount.Add(-1)

	timer := time.NewTimer(p.idleTimeout)
	defer timer.Stop()

	for {
		select {
		case wrapper, ok := <-p.taskQueue:
			if !ok {
				return
			}

			p.activeCount.Add(1)
			err := p.runTask(wrapper)
			p.activeCount.Add(-1)

			if wrapper.result != nil {
				wrapper.result <- err
				close(wrapper.result)
			}
			if err != nil {
				p.failed.Add(1)
			} else {
				p.completed.Add(1)
			}

			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(p.idleTimeout)

		case <-timer.C:
			// Idle: retire unless this is the last worker. The survivor
			// keeps the queue drained when a submit races a retirement.
			if p.workerCount.Load() > 1 {
				return
			}
			timer.Reset(p.idleTimeout)
		}
	}
}

func (p *Pool) runTask(wrapper taskWrapper) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if p.panicHandler != nil {
				p.panicHandler(r)
			}
			err = errors.New("task panicked")
		}
	}()

	if wrapper.ctx != nil && wrapper.ctx.Err() != nil {
		return wrapper.ctx.Err()
	}
	return wrapper.task(wrapper.ctx)
}

// Close stops accepting tasks and waits for in-flight work to finish.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}
	close(p.taskQueue)
	p.wg.Wait()
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   int(p.workerCount.Load()),
		Active:    int(p.activeCount.Load()),
		Queued:    len(p.taskQueue),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Stats contains pool counters.
type Stats struct {
	Workers   int   `json:"workers"`
	Active    int   `json:"active"`
	Queued    int   `json:"queued"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}
