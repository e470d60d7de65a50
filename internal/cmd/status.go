package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Iron-Ham/transferwindow/internal/config"
	"github.com/Iron-Ham/transferwindow/internal/store"
	"github.com/Iron-Ham/transferwindow/internal/tui/styles"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted status of the resource",
	Long: `Read the resource record from the store and print its status.

With --watch, keep printing whenever the record changes. The file driver is
watched for filesystem events; other drivers are polled.`,
	RunE: runStatus,
}

var (
	statusWatch    bool
	statusInterval time.Duration
)

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Keep printing on every change")
	statusCmd.Flags().DurationVar(&statusInterval, "interval", time.Second, "Poll interval for drivers that cannot be watched")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := createLogger(cfg.Paths.ResolveDataDir(), cfg)
	defer func() { _ = logger.Close() }()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	out := cmd.OutOrStdout()
	last, err := printRecord(ctx, out, st, cfg.Resource.ID, "")
	if err != nil || !statusWatch {
		return err
	}

	changed := func() error {
		last, err = printRecord(ctx, out, st, cfg.Resource.ID, last)
		return err
	}
	if fs, ok := st.(*store.File); ok {
		return watchFile(ctx, fs.Path(), changed)
	}
	return poll(ctx, statusInterval, changed)
}

// printRecord prints the record when its status text differs from last and
// returns the current text. The record is normalized the way it is on load,
// so a legacy row reads the same here as it does to the arbiter.
func printRecord(ctx context.Context, out io.Writer, st store.Store, id, last string) (string, error) {
	rec, err := st.Fetch(ctx, id)
	if err != nil {
		return last, err
	}
	rec, err = rec.Normalize()
	if err != nil {
		return last, err
	}
	snap := rec.Snapshot()
	text := snap.StatusText()
	if text == last {
		return last, nil
	}
	fmt.Fprintf(out, "%s (%s): %s\n", snap.DisplayName, snap.ID, paint(out, styles.RenderStatus, text))
	return text, nil
}

// watchFile calls fn whenever path is written or replaced. The directory is
// watched because the file store replaces its file by rename.
func watchFile(ctx context.Context, path string, fn func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := fn(); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
}

func poll(ctx context.Context, interval time.Duration, fn func() error) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := fn(); err != nil {
				return err
			}
		}
	}
}
