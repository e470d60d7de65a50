// Package resource holds the in-memory state of the single contended
// resource and its persisted record shape.
package resource

import (
	"context"
	"sync"

	"github.com/Iron-Ham/transferwindow/internal/errors"
)

// State is the in-memory copy of one resource. ID and display name never
// change. Status and holder change together, and only through Transition and
// Restore, which the arbiter calls from inside its critical section. Readers
// may call Snapshot at any time.
type State struct {
	id          string
	displayName string

	mu     sync.RWMutex
	status Status
	holder string
}

// New builds a State from a persisted record, normalizing it first.
func New(rec Record) (*State, error) {
	rec, err := rec.Normalize()
	if err != nil {
		return nil, err
	}
	return &State{
		id:          rec.ID,
		displayName: rec.DisplayName,
		status:      rec.Status,
		holder:      rec.Holder,
	}, nil
}

// ID returns the resource id.
func (s *State) ID() string { return s.id }

// DisplayName returns the resource's descriptive label.
func (s *State) DisplayName() string { return s.displayName }

// Snapshot returns a consistent copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:          s.id,
		DisplayName: s.displayName,
		Status:      s.status,
		Holder:      s.holder,
	}
}

// Transition sets status and holder and returns the state that was replaced,
// for use with Restore. Pairs that violate the status/holder invariant are
// rejected without mutation.
func (s *State) Transition(status Status, holder string) (Snapshot, error) {
	next := Snapshot{ID: s.id, DisplayName: s.displayName, Status: status, Holder: holder}
	if !next.Consistent() {
		return Snapshot{}, errors.NewValidationError("inconsistent transition").
			WithField("holder").
			WithValue(holder).
			WithCause(errors.ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := Snapshot{ID: s.id, DisplayName: s.displayName, Status: s.status, Holder: s.holder}
	s.status = status
	s.holder = holder
	return prev, nil
}

// Restore puts back a snapshot previously returned by Transition.
func (s *State) Restore(prev Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = prev.Status
	s.holder = prev.Holder
}

// Fetcher reads a persisted record by id.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (Record, error)
}

// Load fetches the record for id and builds its State. A missing record
// yields an error matching errors.ErrResourceNotFound.
func Load(ctx context.Context, f Fetcher, id string) (*State, error) {
	rec, err := f.Fetch(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "load resource %s", id)
	}
	st, err := New(rec)
	if err != nil {
		return nil, errors.Wrapf(err, "load resource %s", id)
	}
	return st, nil
}
