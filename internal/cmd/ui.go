package cmd

import (
	"context"

	"github.com/Iron-Ham/transferwindow/internal/claimant"
	"github.com/Iron-Ham/transferwindow/internal/tui"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive claim console",
	Long: `Open a terminal console with one key per club (1-9), r to reset the
resource and q to quit. Notifications scroll in the log pane and the status
label follows every successful claim or reset.`,
	RunE: runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

// uiBackend turns console keys into pool submissions and resets.
type uiBackend struct {
	ctx   context.Context
	rt    *runtime
	pool  *claimant.Pool
	reset conc.WaitGroup
}

func (b *uiBackend) Claim(actor string) error {
	return b.pool.Submit(claimant.Task{Arbiter: b.rt.arbiter, Actor: actor, Notifier: b.rt.queue})
}

func (b *uiBackend) Reset() {
	b.reset.Go(func() {
		b.rt.arbiter.Reset(b.ctx)
	})
}

func runUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	pool, err := rt.newPool()
	if err != nil {
		return err
	}
	backend := &uiBackend{ctx: ctx, rt: rt, pool: pool}

	app := tui.New(rt.bus, backend, tui.Options{
		Title:    rt.arbiter.Snapshot().DisplayName,
		Actors:   rt.cfg.Arbiter.Actors,
		Status:   rt.arbiter.Snapshot().StatusText(),
		MaxLines: rt.cfg.TUI.MaxLogLines,
		OnStart:  rt.announce,
	})

	runErr := app.Run()

	cancel()
	stopErr := pool.Stop()
	backend.reset.Wait()
	if runErr != nil {
		return runErr
	}
	return stopErr
}
