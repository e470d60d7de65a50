package store

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"
)

// lockPollInterval is how often a context-aware lock retries a held flock.
const lockPollInterval = 10 * time.Millisecond

// FileLock provides cross-process mutual exclusion using flock(2), so two
// transferwindow processes sharing a data file cannot interleave their
// read-modify-write cycles.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a FileLock backed by the file at path. The file is
// created on first use.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Lock acquires the lock, exclusive or shared, polling until it is free or
// ctx is done.
func (fl *FileLock) Lock(ctx context.Context, shared bool) error {
	how := syscall.LOCK_EX
	if shared {
		how = syscall.LOCK_SH
	}

	for {
		ok, err := fl.tryLock(how)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("flock %s: %w", fl.path, ctx.Err())
		case <-time.After(lockPollInterval):
		}
	}
}

func (fl *FileLock) tryLock(how int) (bool, error) {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return false, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), how|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if err == syscall.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("flock: %w", err)
	}

	fl.file = f
	return true, nil
}

// Unlock releases the lock and closes the lock file.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}

	if err := syscall.Flock(int(fl.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = fl.file.Close()
		fl.file = nil
		return fmt.Errorf("funlock: %w", err)
	}

	err := fl.file.Close()
	fl.file = nil
	return err
}
