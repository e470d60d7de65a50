package arbiter

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/transferwindow/internal/errors"
)

// gate is a one-slot mutual exclusion whose wait can be cancelled.
type gate chan struct{}

func newGate() gate {
	return make(gate, 1)
}

// enter blocks until the gate is free or ctx is done. A context that is
// already done never enters, even if the gate happens to be free.
func (g gate) enter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return canceled(err)
	}
	select {
	case g <- struct{}{}:
		return nil
	case <-ctx.Done():
		return canceled(ctx.Err())
	}
}

func (g gate) leave() {
	<-g
}

// canceled wraps a context error so it matches both errors.ErrCanceled and
// the context error.
func canceled(cause error) error {
	return fmt.Errorf("%w: %w", errors.ErrCanceled, cause)
}
