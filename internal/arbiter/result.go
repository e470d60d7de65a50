package arbiter

import "time"

// Outcome is the result of a claim attempt.
type Outcome int

const (
	// Won means the actor now holds the resource and the store confirmed it.
	Won Outcome = iota
	// Lost means another actor already held the resource. Not an error.
	Lost
	// Failed means the attempt could not be applied; state is unchanged.
	Failed
	// Aborted means the caller was cancelled before any mutation.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Won:
		return "won"
	case Lost:
		return "lost"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ClaimResult describes one claim attempt.
type ClaimResult struct {
	AttemptID string
	Actor     string
	Outcome   Outcome
	// Holder is the actor holding the resource after the attempt: the
	// winner for Lost, the actor for Won, empty otherwise.
	Holder string
	// Err explains Failed and Aborted outcomes.
	Err error
	// Waited is the time spent waiting to enter the critical section.
	Waited time.Duration
	// Elapsed is the total duration of the call.
	Elapsed time.Duration
}

// ResetOutcome is the result of a reset.
type ResetOutcome int

const (
	// Applied means the resource is available and the store confirmed it.
	Applied ResetOutcome = iota
	// ResetFailed means the store write failed. The in-memory state has
	// still been reset and may disagree with the store until the next
	// successful write.
	ResetFailed
	// ResetAborted means the caller was cancelled before entering the
	// critical section.
	ResetAborted
)

func (o ResetOutcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case ResetFailed:
		return "failed"
	case ResetAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ResetResult describes one reset.
type ResetResult struct {
	AttemptID string
	Outcome   ResetOutcome
	// PreviousHolder is who held the resource before the reset, if anyone.
	PreviousHolder string
	Err            error
	Waited         time.Duration
	Elapsed        time.Duration
}
