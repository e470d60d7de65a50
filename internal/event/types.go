package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "claim.decided", "notify.line").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeNotifyLine      = "notify.line"
	TypeNotifyStatus    = "notify.status"
	TypeClaimDecided    = "claim.decided"
	TypeResetDecided    = "reset.decided"
	TypeClaimantDropped = "claimant.dropped"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Notification Events
// -----------------------------------------------------------------------------

// LineEvent carries one human-readable progress line.
type LineEvent struct {
	baseEvent
	Seq  uint64 // Position in the notifier's total order, starting at 1
	Line string
}

// NewLineEvent creates a LineEvent.
func NewLineEvent(seq uint64, line string) LineEvent {
	return LineEvent{
		baseEvent: newBaseEvent(TypeNotifyLine),
		Seq:       seq,
		Line:      line,
	}
}

// StatusEvent replaces the status display text. Last write wins.
type StatusEvent struct {
	baseEvent
	Seq  uint64
	Text string
}

// NewStatusEvent creates a StatusEvent.
func NewStatusEvent(seq uint64, text string) StatusEvent {
	return StatusEvent{
		baseEvent: newBaseEvent(TypeNotifyStatus),
		Seq:       seq,
		Text:      text,
	}
}

// -----------------------------------------------------------------------------
// Decision Events
// -----------------------------------------------------------------------------

// ClaimDecidedEvent is emitted once per claim attempt after the arbiter has
// left its critical section.
type ClaimDecidedEvent struct {
	baseEvent
	ResourceID string
	AttemptID  string
	Actor      string
	Outcome    string // won, lost, failed, aborted
	Holder     string // Holder after the decision; empty when available
	Waited     time.Duration
	Err        error
}

// NewClaimDecidedEvent creates a ClaimDecidedEvent.
func NewClaimDecidedEvent(resourceID, attemptID, actor, outcome, holder string, waited time.Duration, err error) ClaimDecidedEvent {
	return ClaimDecidedEvent{
		baseEvent:  newBaseEvent(TypeClaimDecided),
		ResourceID: resourceID,
		AttemptID:  attemptID,
		Actor:      actor,
		Outcome:    outcome,
		Holder:     holder,
		Waited:     waited,
		Err:        err,
	}
}

// ResetDecidedEvent is emitted once per reset.
type ResetDecidedEvent struct {
	baseEvent
	ResourceID string
	AttemptID  string
	Outcome    string // applied, failed, aborted
	Err        error
}

// NewResetDecidedEvent creates a ResetDecidedEvent.
func NewResetDecidedEvent(resourceID, attemptID, outcome string, err error) ResetDecidedEvent {
	return ResetDecidedEvent{
		baseEvent:  newBaseEvent(TypeResetDecided),
		ResourceID: resourceID,
		AttemptID:  attemptID,
		Outcome:    outcome,
		Err:        err,
	}
}

// ClaimantDroppedEvent is emitted when the pool discards a queued claimant
// without running it, for example because shutdown interrupted its pacing.
type ClaimantDroppedEvent struct {
	baseEvent
	Actor  string
	Reason string
}

// NewClaimantDroppedEvent creates a ClaimantDroppedEvent.
func NewClaimantDroppedEvent(actor, reason string) ClaimantDroppedEvent {
	return ClaimantDroppedEvent{
		baseEvent: newBaseEvent(TypeClaimantDropped),
		Actor:     actor,
		Reason:    reason,
	}
}
