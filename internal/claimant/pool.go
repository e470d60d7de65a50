// Package claimant runs claim attempts as independent units of work on a
// fixed-size worker pool, so that several attempts are genuinely in flight
// against the arbiter at once.
package claimant

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"

	"github.com/Iron-Ham/transferwindow/internal/arbiter"
	"github.com/Iron-Ham/transferwindow/internal/errors"
	"github.com/Iron-Ham/transferwindow/internal/event"
	"github.com/Iron-Ham/transferwindow/internal/logging"
	"github.com/Iron-Ham/transferwindow/internal/notify"
)

// MinWorkers is the smallest pool that can exercise contention.
const MinWorkers = 2

// Claimer is the arbiter operation a task performs.
type Claimer interface {
	Claim(ctx context.Context, actor string) arbiter.ClaimResult
}

// Task is one claim attempt by one actor. The arbiter carries the shared
// resource state.
type Task struct {
	Arbiter  Claimer
	Actor    string
	Notifier notify.Notifier
}

// Run performs exactly one claim.
func (t Task) Run(ctx context.Context) arbiter.ClaimResult {
	return t.Arbiter.Claim(ctx, t.Actor)
}

// Config sizes the pool.
type Config struct {
	Workers   int
	QueueSize int
	// RatePerSecond limits how fast queued tasks start. Zero disables pacing.
	RatePerSecond float64
	Burst         int
}

// DefaultConfig returns two workers and a small queue, matching a pair of
// clubs bidding at once.
func DefaultConfig() Config {
	return Config{
		Workers:   MinWorkers,
		QueueSize: 16,
		Burst:     1,
	}
}

// Observer is called after each task with its result. It runs on the
// worker goroutine.
type Observer func(Task, arbiter.ClaimResult)

// Option configures a Pool.
type Option func(*Pool)

// WithObserver registers fn to receive every result.
func WithObserver(fn Observer) Option {
	return func(p *Pool) { p.observer = fn }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBus publishes a ClaimantDroppedEvent for discarded tasks.
func WithBus(bus *event.Bus) Option {
	return func(p *Pool) { p.bus = bus }
}

// Stats counts pool activity.
type Stats struct {
	Submitted int64
	Completed int64
	Dropped   int64
}

// Pool is a fixed set of workers consuming a bounded FIFO of tasks.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex // guards closed against concurrent Submit and Close
	closed bool
	tasks  chan Task

	wg       conc.WaitGroup
	limiter  *rate.Limiter
	observer Observer
	bus      *event.Bus
	logger   *logging.Logger

	submitted atomic.Int64
	completed atomic.Int64
	dropped   atomic.Int64

	closeOnce sync.Once
	closeErr  error
}

// NewPool starts cfg.Workers workers. Fewer than MinWorkers is rejected.
func NewPool(cfg Config, opts ...Option) (*Pool, error) {
	if cfg.Workers < MinWorkers {
		return nil, errors.NewValidationError(fmt.Sprintf("pool needs at least %d workers", MinWorkers)).
			WithField("pool.workers").
			WithValue(cfg.Workers)
	}
	if cfg.QueueSize < 0 {
		return nil, errors.NewValidationError("queue size cannot be negative").
			WithField("pool.queue_size").
			WithValue(cfg.QueueSize)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(chan Task, cfg.QueueSize),
		logger: logging.NopLogger(),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithComponent("claimant")

	for i := 0; i < cfg.Workers; i++ {
		p.wg.Go(p.work)
	}
	p.logger.Debug("pool started", "workers", cfg.Workers, "queue_size", cfg.QueueSize)
	return p, nil
}

// Submit queues t without blocking. It fails with errors.ErrQueueFull when
// the queue is at capacity and errors.ErrPoolClosed after Close.
func (p *Pool) Submit(t Task) error {
	if t.Notifier == nil {
		t.Notifier = notify.Discard
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return errors.NewPoolError(t.Actor, errors.ErrPoolClosed)
	}
	select {
	case p.tasks <- t:
		p.submitted.Add(1)
		return nil
	default:
		return errors.NewPoolError(t.Actor, errors.ErrQueueFull)
	}
}

// Close stops accepting tasks, runs those already queued, and waits for the
// workers. A worker panic is returned as an error.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()

		if r := p.wg.WaitAndRecover(); r != nil {
			p.closeErr = r.AsError()
			p.logger.Error("claimant worker panicked", "panic", r.String())
		}
		p.cancel()
	})
	return p.closeErr
}

// Stop cancels in-flight and queued attempts, then closes the pool.
// Attempts still waiting at the arbiter abort without mutating.
func (p *Pool) Stop() error {
	p.cancel()
	return p.Close()
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Dropped:   p.dropped.Load(),
	}
}

func (p *Pool) work() {
	for t := range p.tasks {
		if p.limiter != nil {
			if err := p.limiter.Wait(p.ctx); err != nil {
				p.drop(t, err)
				continue
			}
		}

		res := t.Run(p.ctx)
		p.completed.Add(1)
		if p.observer != nil {
			p.observer(t, res)
		}
	}
}

func (p *Pool) drop(t Task, cause error) {
	p.dropped.Add(1)
	reason := cause.Error()
	t.Notifier.Emit(fmt.Sprintf("[%s] Offer withdrawn before it started: %s", t.Actor, reason))
	p.logger.WithActor(t.Actor).Warn("claimant dropped", "reason", reason)
	if p.bus != nil {
		p.bus.Publish(event.NewClaimantDroppedEvent(t.Actor, reason))
	}
}
