// Package workerpool runs fire-and-forget tasks on a fixed set of goroutines
// fed by a bounded queue. What happens when the queue is full is an explicit
// Overflow policy rather than unbounded growth.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrQueueFull is returned by Submit under the Reject policy.
	ErrQueueFull = errors.New("workerpool: queue full")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("workerpool: closed")
)

// Task is one unit of work. The context is the pool's base context.
type Task func(ctx context.Context)

// Overflow decides what Submit does when the queue is full.
type Overflow int

const (
	// Reject refuses the new task.
	Reject Overflow = iota
	// DropOldest discards the oldest queued task to make room.
	DropOldest
	// Block waits until a worker frees a slot or the pool is closed.
	Block
)

func (o Overflow) String() string {
	switch o {
	case DropOldest:
		return "drop-oldest"
	case Block:
		return "block"
	default:
		return "reject"
	}
}

// ParseOverflow maps a config value to a policy.
func ParseOverflow(s string) (Overflow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return Reject, nil
	case "drop-oldest", "drop_oldest":
		return DropOldest, nil
	case "block":
		return Block, nil
	}
	return Reject, fmt.Errorf("unknown overflow policy %q", s)
}

// Config configures a Pool.
type Config struct {
	Workers   int
	QueueSize int
	Overflow  Overflow
	// OnDrop is called when DropOldest discards a queued task.
	OnDrop func()
	// OnPanic is called with the recovered value when a task panics.
	OnPanic func(v any)
}

// Pool is a fixed-size worker pool. It is safe for concurrent use.
type Pool struct {
	cfg   Config
	queue chan Task
	g     *errgroup.Group
	ctx   context.Context

	// done is closed first by Close so blocked submitters let go of mu.
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex
	closed bool
}

// New starts cfg.Workers goroutines that run submitted tasks with ctx.
func New(ctx context.Context, cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	p := &Pool{
		cfg:   cfg,
		queue: make(chan Task, cfg.QueueSize),
		done:  make(chan struct{}),
		g:     g,
		ctx:   gctx,
	}
	for i := 0; i < cfg.Workers; i++ {
		g.Go(p.work)
	}
	return p
}

func (p *Pool) work() error {
	for task := range p.queue {
		p.run(task)
	}
	return nil
}

func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil && p.cfg.OnPanic != nil {
			p.cfg.OnPanic(r)
		}
	}()
	task(p.ctx)
}

// Submit queues task. It never runs the task on the calling goroutine.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- task:
		return nil
	default:
	}

	switch p.cfg.Overflow {
	case Block:
		select {
		case p.queue <- task:
			return nil
		case <-p.done:
			return ErrClosed
		}
	case DropOldest:
		for {
			select {
			case p.queue <- task:
				return nil
			default:
			}
			select {
			case <-p.queue:
				if p.cfg.OnDrop != nil {
					p.cfg.OnDrop()
				}
			default:
			}
		}
	default:
		return ErrQueueFull
	}
}

// Pending returns the number of queued tasks not yet picked up by a worker.
func (p *Pool) Pending() int { return len(p.queue) }

// Workers returns the configured worker count.
func (p *Pool) Workers() int { return p.cfg.Workers }

// Close stops admission. Submitters blocked under Block return ErrClosed.
// Queued tasks still run; Close does not wait for them.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.done) })

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.queue)
}

// Wait blocks until every worker has exited. Call Close first.
func (p *Pool) Wait() {
	_ = p.g.Wait()
}
