package arbiter

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
)

// ResetHeader opens the notifications of every reset that gets past the gate.
const ResetHeader = "=== RESETTING RESOURCE STATUS ==="

// Banner is the line shown once the resource is loaded.
func Banner(displayName string) string {
	return fmt.Sprintf("System ready. Waiting for offers for %s...", displayName)
}

func msgAttempt(actor, name string) string {
	return fmt.Sprintf("[%s] Attempting to claim %s...", actor, name)
}

func msgCurrentStatus(status string) string {
	return "  Current status: " + status
}

func msgNegotiating(actor string, d time.Duration) string {
	return fmt.Sprintf("  [%s] Negotiating... (%s)", actor, units.HumanDuration(d))
}

func msgInterrupted(actor string) string {
	return fmt.Sprintf("  [%s] Negotiation interrupted!", actor)
}

func msgGaveUp(actor, name string) string {
	return fmt.Sprintf("[%s] Gave up waiting for %s.", actor, name)
}

func msgInvalidActor(actor string) string {
	return fmt.Sprintf("-> FAILED: %q is not a valid club name.", actor)
}

func msgWon(actor, name string) string {
	return fmt.Sprintf("-> SUCCESS: [%s] signed %s!", actor, name)
}

func msgLost(actor, name, status, holder string) string {
	return fmt.Sprintf("-> FAILED: [%s] too late, %s is already %s by %s", actor, name, status, holder)
}

func msgClaimNotPersisted(actor string) string {
	return fmt.Sprintf("-> FAILED: [%s] could not update the store!", actor)
}

func msgResetting(name string) string {
	return fmt.Sprintf("Resetting %s in the store...", name)
}

func msgResetGaveUp(name string) string {
	return fmt.Sprintf("Gave up waiting to reset %s.", name)
}

func msgResetApplied(name string) string {
	return fmt.Sprintf("-> SUCCESS: %s is Available again.", name)
}

func msgResetNotPersisted() string {
	return "-> FAILED: could not reset the store."
}
