// Package store persists resource records. Every backend offers the same
// two operations the arbiter depends on, a fetch by id and an update by id
// that reports whether a row matched, plus Seed for tooling and tests.
//
// Single-row atomicity is the only guarantee. Serializing claims is the
// arbiter's job, not the store's.
package store

import (
	"context"
	"time"

	"github.com/Iron-Ham/transferwindow/internal/errors"
	"github.com/Iron-Ham/transferwindow/internal/logging"
	"github.com/Iron-Ham/transferwindow/internal/resource"
)

// Store is a persistence backend for resource records.
type Store interface {
	// Fetch returns the record for id. A missing record yields an error
	// matching errors.ErrResourceNotFound.
	Fetch(ctx context.Context, id string) (resource.Record, error)

	// ConditionalUpdate writes status and holder to the record for id. It
	// returns false when no record matched. A HolderNone holder is stored
	// as null.
	ConditionalUpdate(ctx context.Context, id string, status resource.Status, holder string) (bool, error)

	// Seed creates or overwrites a record.
	Seed(ctx context.Context, rec resource.Record) error

	// Close releases the backend's connections.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Drivers returns the supported driver names.
func Drivers() []string {
	return []string{DriverMemory, DriverFile, DriverMySQL, DriverPostgres, DriverMongo}
}

// Options selects and configures a backend.
type Options struct {
	Driver     string
	Path       string        // file
	DSN        string        // mysql, postgres, mongo
	Database   string        // mongo
	Collection string        // mongo
	Table      string        // mysql, postgres
	Timeout    time.Duration // per-operation timeout; 0 disables
}

// Open connects to the backend named by opts.Driver.
func Open(ctx context.Context, opts Options, logger *logging.Logger) (Store, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	logger = logger.WithComponent("store").With("driver", opts.Driver)

	var (
		s   Store
		err error
	)
	switch opts.Driver {
	case DriverMemory:
		s = NewMemory()
	case DriverFile:
		s, err = NewFile(opts.Path)
	case DriverMySQL:
		s, err = OpenMySQL(ctx, opts.DSN, opts.Table, opts.Timeout)
	case DriverPostgres:
		s, err = OpenPostgres(ctx, opts.DSN, opts.Table, opts.Timeout)
	case DriverMongo:
		s, err = OpenMongo(ctx, opts.DSN, opts.Database, opts.Collection, opts.Timeout)
	default:
		return nil, errors.Wrapf(errors.ErrUnknownDriver, "driver %q", opts.Driver)
	}
	if err != nil {
		logger.Warn("store open failed", "error", err.Error())
		return nil, err
	}

	logger.Info("store opened")
	return s, nil
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
