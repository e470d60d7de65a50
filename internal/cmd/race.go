package cmd

import (
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Iron-Ham/transferwindow/internal/arbiter"
	"github.com/Iron-Ham/transferwindow/internal/claimant"
	"github.com/Iron-Ham/transferwindow/internal/event"
	"github.com/Iron-Ham/transferwindow/internal/tui/styles"
	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

var raceCmd = &cobra.Command{
	Use:   "race [actor...]",
	Short: "Submit several claims at once and report who won",
	Long: `Submit one claim per actor to the claimant pool at the same time.
With no arguments the actors from arbiter.actors are used.

Examples:
  # The default race between PSG and Man City
  transferwindow race

  # Four clubs at once
  transferwindow race PSG "Man City" Chelsea Bayern`,
	RunE: runRace,
}

func init() {
	rootCmd.AddCommand(raceCmd)
}

func runRace(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	out := cmd.OutOrStdout()
	rt.printTo(out)
	rt.announce()

	actors := args
	if len(actors) == 0 {
		actors = rt.cfg.Arbiter.Actors
	}
	if len(actors) == 0 {
		return fmt.Errorf("no actors given and arbiter.actors is empty")
	}

	var (
		mu      sync.Mutex
		results []arbiter.ClaimResult
		dropped []event.ClaimantDroppedEvent
	)
	dropID := rt.bus.Subscribe(event.TypeClaimantDropped, func(e event.Event) {
		mu.Lock()
		dropped = append(dropped, e.(event.ClaimantDroppedEvent))
		mu.Unlock()
	})
	defer rt.bus.Unsubscribe(dropID)

	pool, err := rt.newPool(claimant.WithObserver(func(_ claimant.Task, res arbiter.ClaimResult) {
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
	}))
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = pool.Stop()
	}()

	for _, actor := range actors {
		if err := pool.Submit(claimant.Task{Arbiter: rt.arbiter, Actor: actor, Notifier: rt.queue}); err != nil {
			rt.queue.Emit(fmt.Sprintf("-> FAILED: [%s] %v", actor, err))
		}
	}
	if err := pool.Close(); err != nil {
		return fmt.Errorf("claimant pool: %w", err)
	}
	rt.queue.Flush()

	mu.Lock()
	defer mu.Unlock()
	printSummary(cmd.OutOrStdout(), results, dropped)
	return nil
}

// printSummary lists every decided claim, then every claimant the pool
// withdrew before it reached the arbiter.
func printSummary(out io.Writer, results []arbiter.ClaimResult, dropped []event.ClaimantDroppedEvent) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, paint(out, func(s string) string { return styles.Title.Render(s) }, "Summary:"))
	for _, res := range results {
		line := fmt.Sprintf("  %-12s %-8s waited %s", res.Actor, res.Outcome, units.HumanDuration(res.Waited))
		if res.Err != nil {
			line += fmt.Sprintf(" (%v)", res.Err)
		}
		fmt.Fprintln(out, line)
	}
	for _, d := range dropped {
		fmt.Fprintf(out, "  %-12s %-8s (%s)\n", d.Actor, "dropped", d.Reason)
	}
}
