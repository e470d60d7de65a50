package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Iron-Ham/transferwindow/internal/arbiter"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Make the resource available again",
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	rt.printTo(cmd.OutOrStdout())
	res := rt.arbiter.Reset(ctx)
	if res.Outcome != arbiter.Applied {
		return fmt.Errorf("reset %s: %w", res.Outcome, res.Err)
	}
	return nil
}
