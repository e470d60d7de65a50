package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Iron-Ham/transferwindow/internal/errors"
	"github.com/Iron-Ham/transferwindow/internal/resource"
)

// fileDocument is the on-disk layout of a File store.
type fileDocument struct {
	Resources map[string]resource.Record `json:"resources"`
}

// File is a Store kept in a single JSON file. Every operation holds a
// flock on "<path>.lock" for its whole read-modify-write cycle and writes
// through a temporary file and rename.
type File struct {
	path string

	mu     sync.Mutex // serializes this process; the flock covers others
	closed bool
}

// NewFile opens a File store at path, creating parent directories.
// The data file itself is created on the first write.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.NewValidationError("file store requires a path").WithField("store.path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.NewStoreError("open", err).WithBackend(DriverFile).WithRetryable(false)
	}
	return &File{path: path}, nil
}

// Path returns the data file path.
func (f *File) Path() string { return f.path }

func (f *File) Fetch(ctx context.Context, id string) (resource.Record, error) {
	var rec resource.Record
	err := f.withLock(ctx, "fetch", id, true, func(doc *fileDocument) (bool, error) {
		r, ok := doc.Resources[id]
		if !ok {
			return false, errors.NewNotFoundError("resource", id)
		}
		rec = r
		return false, nil
	})
	return rec, err
}

func (f *File) ConditionalUpdate(ctx context.Context, id string, status resource.Status, holder string) (bool, error) {
	matched := false
	err := f.withLock(ctx, "update", id, false, func(doc *fileDocument) (bool, error) {
		rec, ok := doc.Resources[id]
		if !ok {
			return false, nil
		}
		rec.Status = status
		rec.Holder = holder
		doc.Resources[id] = rec
		matched = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

func (f *File) Seed(ctx context.Context, rec resource.Record) error {
	return f.withLock(ctx, "seed", rec.ID, false, func(doc *fileDocument) (bool, error) {
		doc.Resources[rec.ID] = rec
		return true, nil
	})
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// withLock loads the document under the file lock, runs fn, and saves the
// document when fn reports a change.
func (f *File) withLock(ctx context.Context, op, id string, shared bool, fn func(*fileDocument) (bool, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return f.storeErr(op, id, errClosed)
	}

	fl := NewFileLock(f.path + ".lock")
	if err := fl.Lock(ctx, shared); err != nil {
		return f.storeErr(op, id, err)
	}
	defer func() { _ = fl.Unlock() }()

	doc, err := f.load()
	if err != nil {
		return f.storeErr(op, id, err)
	}

	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}

	if err := f.save(doc); err != nil {
		return f.storeErr(op, id, err)
	}
	return nil
}

func (f *File) load() (*fileDocument, error) {
	doc := &fileDocument{}
	data, err := os.ReadFile(f.path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read data file: %w", err)
	default:
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("unmarshal data file: %w", err)
		}
	}
	if doc.Resources == nil {
		doc.Resources = make(map[string]resource.Record)
	}
	return doc, nil
}

func (f *File) save(doc *fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal data file: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (f *File) storeErr(op, id string, cause error) *errors.StoreError {
	return errors.NewStoreError(op, cause).WithBackend(DriverFile).WithResourceID(id)
}
