// Package notify delivers human-readable progress lines and status display
// updates from the claim core to whoever is presenting them.
package notify

// Notifier is the sink the arbiter reports through. Implementations must be
// safe for concurrent use and must not block the caller.
type Notifier interface {
	// Emit appends one progress line. Lines from a single caller are
	// delivered in call order.
	Emit(line string)

	// SetStatusDisplay replaces the status display text. Last write wins.
	SetStatusDisplay(text string)
}

// Discard is a Notifier that drops everything.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Emit(string)             {}
func (discard) SetStatusDisplay(string) {}
