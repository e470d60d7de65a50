package cmd

import (
	"fmt"

	"github.com/Iron-Ham/transferwindow/internal/config"
	"github.com/Iron-Ham/transferwindow/internal/resource"
	"github.com/Iron-Ham/transferwindow/internal/store"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create or overwrite the resource record",
	Long: `Write the configured resource record to the store, replacing any
existing one. SQL backends get their table created first.

Examples:
  # Available, with the configured display name
  transferwindow seed

  # Start already claimed
  transferwindow seed --status Claimed --holder PSG`,
	RunE: runSeed,
}

var (
	seedStatus string
	seedHolder string
	seedName   string
)

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedStatus, "status", string(resource.StatusAvailable), "Initial status (Available or Claimed)")
	seedCmd.Flags().StringVar(&seedHolder, "holder", "", "Holder when the status is Claimed")
	seedCmd.Flags().StringVar(&seedName, "name", "", "Display name (default: resource.display_name)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := createLogger(cfg.Paths.ResolveDataDir(), cfg)
	defer func() { _ = logger.Close() }()

	name := seedName
	if name == "" {
		name = cfg.Resource.DisplayName
	}
	rec, err := resource.Record{
		ID:          cfg.Resource.ID,
		DisplayName: name,
		Status:      resource.Status(seedStatus),
		Holder:      seedHolder,
	}.Normalize()
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if sq, ok := st.(*store.SQL); ok {
		if err := sq.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	if err := st.Seed(ctx, rec); err != nil {
		return err
	}

	logger.Info("resource seeded", "resource_id", rec.ID, "status", rec.Status.String(), "holder", rec.Holder)
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s (%s) in %s store: %s\n", rec.DisplayName, rec.ID, cfg.Store.Driver, rec.Snapshot().StatusText())
	return nil
}
