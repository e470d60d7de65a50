// Package arbiter serializes claims and resets on one shared resource so
// that at most one actor wins each availability window.
//
// A claim runs its check, the negotiation delay, the tentative mutation and
// the store write inside one critical section. No other caller observes the
// status until that write has been confirmed or rolled back.
package arbiter

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/transferwindow/internal/errors"
	"github.com/Iron-Ham/transferwindow/internal/event"
	"github.com/Iron-Ham/transferwindow/internal/logging"
	"github.com/Iron-Ham/transferwindow/internal/notify"
	"github.com/Iron-Ham/transferwindow/internal/resource"
)

// DefaultNegotiationDelay is the simulated transaction latency.
const DefaultNegotiationDelay = time.Second

// Updater is the store operation the arbiter persists through.
type Updater interface {
	ConditionalUpdate(ctx context.Context, id string, status resource.Status, holder string) (bool, error)
}

// Arbiter owns the critical section around a resource.State. It is the
// only component that mutates the state.
type Arbiter struct {
	state    *resource.State
	store    Updater
	notifier notify.Notifier

	gate   gate
	delay  time.Duration
	bus    *event.Bus
	logger *logging.Logger
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithNegotiationDelay sets the delay a claim waits inside the critical
// section before mutating. Zero disables it.
func WithNegotiationDelay(d time.Duration) Option {
	return func(a *Arbiter) {
		if d >= 0 {
			a.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Arbiter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithBus publishes a decision event for every claim and reset.
func WithBus(bus *event.Bus) Option {
	return func(a *Arbiter) { a.bus = bus }
}

// New creates an Arbiter for state, persisting through store and reporting
// through notifier. A nil notifier discards notifications.
func New(state *resource.State, store Updater, notifier notify.Notifier, opts ...Option) *Arbiter {
	if notifier == nil {
		notifier = notify.Discard
	}
	a := &Arbiter{
		state:    state,
		store:    store,
		notifier: notifier,
		gate:     newGate(),
		delay:    DefaultNegotiationDelay,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.WithComponent("arbiter").WithResource(state.ID())
	return a
}

// Snapshot returns the current state of the resource.
func (a *Arbiter) Snapshot() resource.Snapshot {
	return a.state.Snapshot()
}

// NegotiationDelay returns the configured delay.
func (a *Arbiter) NegotiationDelay() time.Duration {
	return a.delay
}

// Claim attempts to make actor the holder of the resource. Surrounding
// whitespace is not part of the name. It never returns an error; every
// failure is reported in the result and through the notifier.
func (a *Arbiter) Claim(ctx context.Context, actor string) ClaimResult {
	start := time.Now()
	actor = strings.TrimSpace(actor)
	res := ClaimResult{AttemptID: uuid.NewString(), Actor: actor}
	log := a.logger.WithActor(actor).WithAttempt(res.AttemptID)
	name := a.state.DisplayName()

	defer func() {
		res.Elapsed = time.Since(start)
		a.publishClaim(res)
		log.Info("claim decided",
			"outcome", res.Outcome.String(),
			"holder", res.Holder,
			"waited_ms", res.Waited.Milliseconds(),
			"elapsed_ms", res.Elapsed.Milliseconds())
	}()

	if actor == "" {
		a.notifier.Emit(msgInvalidActor(actor))
		res.Outcome = Failed
		res.Err = errors.NewValidationError("actor name is empty").WithField("actor").WithCause(errors.ErrInvalidActor)
		return res
	}

	if err := a.gate.enter(ctx); err != nil {
		res.Waited = time.Since(start)
		a.notifier.Emit(msgGaveUp(actor, name))
		res.Outcome = Aborted
		res.Err = err
		return res
	}
	defer a.gate.leave()
	res.Waited = time.Since(start)

	a.notifier.Emit(msgAttempt(actor, name))
	snap := a.state.Snapshot()
	a.notifier.Emit(msgCurrentStatus(snap.StatusText()))

	if snap.Status == resource.StatusClaimed {
		a.notifier.Emit(msgLost(actor, name, snap.Status.String(), snap.Holder))
		res.Outcome = Lost
		res.Holder = snap.Holder
		return res
	}

	if err := a.negotiate(ctx, actor); err != nil {
		a.notifier.Emit(msgInterrupted(actor))
		res.Outcome = Aborted
		res.Err = err
		return res
	}

	prev, err := a.state.Transition(resource.StatusClaimed, actor)
	if err != nil {
		a.notifier.Emit(msgClaimNotPersisted(actor))
		res.Outcome = Failed
		res.Err = err
		return res
	}

	if err := a.persist(ctx, resource.StatusClaimed, actor); err != nil {
		a.state.Restore(prev)
		log.Warn("claim not persisted, rolled back",
			"error", err.Error(),
			"retryable", errors.IsRetryable(err))
		a.notifier.Emit(msgClaimNotPersisted(actor))
		res.Outcome = Failed
		res.Err = err
		return res
	}

	a.notifier.Emit(msgWon(actor, name))
	a.notifier.SetStatusDisplay(a.state.Snapshot().StatusText())
	res.Outcome = Won
	res.Holder = actor
	return res
}

// Reset makes the resource available again. Once inside the critical
// section it announces itself with ResetHeader. If the store write fails the
// in-memory state stays reset and the result is ResetFailed.
func (a *Arbiter) Reset(ctx context.Context) ResetResult {
	start := time.Now()
	res := ResetResult{AttemptID: uuid.NewString()}
	log := a.logger.WithAttempt(res.AttemptID)
	name := a.state.DisplayName()

	defer func() {
		res.Elapsed = time.Since(start)
		a.publishReset(res)
		log.Info("reset decided",
			"outcome", res.Outcome.String(),
			"previous_holder", res.PreviousHolder,
			"elapsed_ms", res.Elapsed.Milliseconds())
	}()

	if err := a.gate.enter(ctx); err != nil {
		res.Waited = time.Since(start)
		a.notifier.Emit(msgResetGaveUp(name))
		res.Outcome = ResetAborted
		res.Err = err
		return res
	}
	defer a.gate.leave()
	res.Waited = time.Since(start)

	a.notifier.Emit(ResetHeader)
	a.notifier.Emit(msgResetting(name))

	prev, err := a.state.Transition(resource.StatusAvailable, resource.HolderNone)
	if err != nil {
		a.notifier.Emit(msgResetNotPersisted())
		res.Outcome = ResetFailed
		res.Err = err
		return res
	}
	res.PreviousHolder = prev.Holder

	if err := a.persist(ctx, resource.StatusAvailable, resource.HolderNone); err != nil {
		log.Warn("reset not persisted, memory and store may disagree",
			"error", err.Error(),
			"retryable", errors.IsRetryable(err))
		a.notifier.Emit(msgResetNotPersisted())
		res.Outcome = ResetFailed
		res.Err = err
		return res
	}

	a.notifier.Emit(msgResetApplied(name))
	a.notifier.SetStatusDisplay(a.state.Snapshot().StatusText())
	res.Outcome = Applied
	return res
}

// negotiate waits out the negotiation delay, returning an error if ctx ends
// first.
func (a *Arbiter) negotiate(ctx context.Context, actor string) error {
	if err := ctx.Err(); err != nil {
		return canceled(err)
	}
	if a.delay <= 0 {
		return nil
	}

	a.notifier.Emit(msgNegotiating(actor, a.delay))
	timer := time.NewTimer(a.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return canceled(ctx.Err())
	}
}

// persist writes the transition. Once the delay has elapsed the decision is
// final, so cancellation of ctx no longer interrupts the write; the store's
// own timeout still applies.
func (a *Arbiter) persist(ctx context.Context, status resource.Status, holder string) error {
	ok, err := a.store.ConditionalUpdate(context.WithoutCancel(ctx), a.state.ID(), status, holder)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(errors.ErrWriteNotApplied, "no record %s", a.state.ID())
	}
	return nil
}

func (a *Arbiter) publishClaim(res ClaimResult) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(event.NewClaimDecidedEvent(a.state.ID(), res.AttemptID, res.Actor,
		res.Outcome.String(), res.Holder, res.Waited, res.Err))
}

func (a *Arbiter) publishReset(res ResetResult) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(event.NewResetDecidedEvent(a.state.ID(), res.AttemptID, res.Outcome.String(), res.Err))
}
