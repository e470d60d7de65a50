package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Iron-Ham/transferwindow/internal/arbiter"
	"github.com/Iron-Ham/transferwindow/internal/claimant"
	"github.com/Iron-Ham/transferwindow/internal/config"
	"github.com/Iron-Ham/transferwindow/internal/event"
	"github.com/Iron-Ham/transferwindow/internal/logging"
	"github.com/Iron-Ham/transferwindow/internal/notify"
	"github.com/Iron-Ham/transferwindow/internal/resource"
	"github.com/Iron-Ham/transferwindow/internal/store"
)

// runtime is everything a claim-issuing command needs, wired from config.
type runtime struct {
	cfg     *config.Config
	logger  *logging.Logger
	store   store.Store
	bus     *event.Bus
	queue   *notify.Queue
	arbiter *arbiter.Arbiter

	unsubscribe []func()
}

// openRuntime loads config, opens the store, and loads the configured
// resource. A missing resource is returned as an error so the process
// exits non-zero.
func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dataDir := cfg.Paths.ResolveDataDir()
	logger := createLogger(dataDir, cfg)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	state, err := resource.Load(ctx, st, cfg.Resource.ID)
	if err != nil {
		logger.Error("resource load failed", "resource_id", cfg.Resource.ID, "error", err.Error())
		_ = st.Close()
		_ = logger.Close()
		return nil, err
	}

	bus := event.NewBus(logger)
	queue := notify.NewQueue(bus)
	arb := arbiter.New(state, st, queue,
		arbiter.WithNegotiationDelay(cfg.Arbiter.NegotiationDelay),
		arbiter.WithLogger(logger),
		arbiter.WithBus(bus),
	)

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		bus:     bus,
		queue:   queue,
		arbiter: arb,
	}, nil
}

// printTo streams notifications to w until Close.
func (rt *runtime) printTo(w io.Writer) {
	rt.unsubscribe = append(rt.unsubscribe, notify.PrintTo(rt.bus, w, decoratorFor(w)))
}

// announce emits the startup banner.
func (rt *runtime) announce() {
	rt.queue.Emit(arbiter.Banner(rt.arbiter.Snapshot().DisplayName))
}

// newPool starts a claimant pool sized from config.
func (rt *runtime) newPool(opts ...claimant.Option) (*claimant.Pool, error) {
	cfg := claimant.Config{
		Workers:       rt.cfg.Pool.Workers,
		QueueSize:     rt.cfg.Pool.QueueSize,
		RatePerSecond: rt.cfg.Pool.RatePerSecond,
		Burst:         rt.cfg.Pool.Burst,
	}
	opts = append([]claimant.Option{
		claimant.WithLogger(rt.logger),
		claimant.WithBus(rt.bus),
	}, opts...)
	return claimant.NewPool(cfg, opts...)
}

// Close delivers pending notifications, then releases the store and the log.
func (rt *runtime) Close() error {
	rt.queue.Close()
	for _, fn := range rt.unsubscribe {
		fn()
	}
	if n := rt.bus.SubscriptionCount(); n > 0 {
		rt.logger.Warn("event subscriptions left open", "count", n)
	}
	rt.logger.Debug("runtime closed", "events_published", rt.bus.PublishedCount())

	err := rt.store.Close()
	if lerr := rt.logger.Close(); err == nil {
		err = lerr
	}
	return err
}

func openStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (store.Store, error) {
	return store.Open(ctx, storeOptions(cfg), logger)
}

func storeOptions(cfg *config.Config) store.Options {
	return store.Options{
		Driver:     cfg.Store.Driver,
		Path:       cfg.Store.ResolvePath(cfg.Paths.ResolveDataDir()),
		DSN:        cfg.Store.DSN,
		Database:   cfg.Store.Database,
		Collection: cfg.Store.Collection,
		Table:      cfg.Store.Table,
		Timeout:    cfg.Store.Timeout,
	}
}

// createLogger creates a logger if logging is enabled in config.
// Returns a NopLogger if logging is disabled or if creation fails.
func createLogger(dataDir string, cfg *config.Config) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}

	rotationConfig := logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}

	logger, err := logging.NewLoggerWithRotation(dataDir, cfg.Logging.Level, rotationConfig)
	if err != nil {
		// Log creation failure shouldn't prevent the application from starting
		fmt.Fprintf(os.Stderr, "Warning: failed to create logger: %v\n", err)
		return logging.NopLogger()
	}

	return logger
}
