package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Iron-Ham/transferwindow/internal/arbiter"
	"github.com/spf13/cobra"
)

var claimCmd = &cobra.Command{
	Use:   "claim <actor>",
	Short: "Make a single claim",
	Long: `Make one claim on behalf of actor. Losing to an existing holder is a
normal outcome; the command only fails when the claim could not be decided.`,
	Args: cobra.ExactArgs(1),
	RunE: runClaim,
}

func init() {
	rootCmd.AddCommand(claimCmd)
}

func runClaim(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	rt.printTo(cmd.OutOrStdout())
	rt.announce()

	res := rt.arbiter.Claim(ctx, args[0])
	switch res.Outcome {
	case arbiter.Failed, arbiter.Aborted:
		return fmt.Errorf("claim %s: %w", res.Outcome, res.Err)
	}
	return nil
}
