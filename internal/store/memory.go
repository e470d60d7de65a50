package store

import (
	"context"
	"sync"

	"github.com/Iron-Ham/transferwindow/internal/errors"
	"github.com/Iron-Ham/transferwindow/internal/resource"
)

// Memory is an in-process Store. Updates can be made to fail on demand,
// which is how the rollback paths are exercised in tests and dry runs.
type Memory struct {
	mu        sync.Mutex
	records   map[string]resource.Record
	updateErr error
	updates   int
	closed    bool
}

// NewMemory creates a Memory store holding recs.
func NewMemory(recs ...resource.Record) *Memory {
	m := &Memory{records: make(map[string]resource.Record)}
	for _, r := range recs {
		m.records[r.ID] = r
	}
	return m
}

// FailUpdates makes every following ConditionalUpdate fail with err. If err
// matches errors.ErrWriteNotApplied the update reports no matching row
// instead of an error. A nil err restores normal behavior.
func (m *Memory) FailUpdates(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateErr = err
}

// UpdateCount returns how many ConditionalUpdate calls were applied.
func (m *Memory) UpdateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

func (m *Memory) Fetch(ctx context.Context, id string) (resource.Record, error) {
	if err := ctx.Err(); err != nil {
		return resource.Record{}, errors.NewStoreError("fetch", err).WithBackend(DriverMemory).WithResourceID(id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return resource.Record{}, errors.NewStoreError("fetch", errClosed).WithBackend(DriverMemory).WithResourceID(id)
	}
	rec, ok := m.records[id]
	if !ok {
		return resource.Record{}, errors.NewNotFoundError("resource", id)
	}
	return rec, nil
}

func (m *Memory) ConditionalUpdate(ctx context.Context, id string, status resource.Status, holder string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.NewStoreError("update", err).WithBackend(DriverMemory).WithResourceID(id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, errors.NewStoreError("update", errClosed).WithBackend(DriverMemory).WithResourceID(id)
	}
	if m.updateErr != nil {
		if errors.Is(m.updateErr, errors.ErrWriteNotApplied) {
			return false, nil
		}
		return false, errors.NewStoreError("update", m.updateErr).WithBackend(DriverMemory).WithResourceID(id)
	}

	rec, ok := m.records[id]
	if !ok {
		return false, nil
	}
	rec.Status = status
	rec.Holder = holder
	m.records[id] = rec
	m.updates++
	return true, nil
}

func (m *Memory) Seed(_ context.Context, rec resource.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.NewStoreError("seed", errClosed).WithBackend(DriverMemory).WithResourceID(rec.ID)
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var errClosed = errors.New("store closed")
