package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// TRANSFERWINDOW_STORE_DRIVER=mysql.
const EnvPrefix = "TRANSFERWINDOW"

// Config represents the complete transferwindow configuration
type Config struct {
	Resource ResourceConfig `mapstructure:"resource"`
	Arbiter  ArbiterConfig  `mapstructure:"arbiter"`
	Pool     PoolConfig     `mapstructure:"pool"`
	Store    StoreConfig    `mapstructure:"store"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Paths    PathsConfig    `mapstructure:"paths"`
	TUI      TUIConfig      `mapstructure:"tui"`
}

// ResourceConfig names the single resource the process arbitrates
type ResourceConfig struct {
	// ID is the primary key of the record loaded at startup (default: "LY27")
	ID string `mapstructure:"id"`
	// DisplayName is used by `seed` when creating the record (default: "Lamine Yamal")
	DisplayName string `mapstructure:"display_name"`
}

// ArbiterConfig controls claim arbitration
type ArbiterConfig struct {
	// NegotiationDelay is how long a claim holds the gate before committing (default: 1s)
	NegotiationDelay time.Duration `mapstructure:"negotiation_delay"`
	// Actors are the claimants used by `race` when none are given (default: PSG, Man City)
	Actors []string `mapstructure:"actors"`
}

// PoolConfig sizes the claimant worker pool
type PoolConfig struct {
	// Workers is the number of concurrent claimants (default: 2, min: 2)
	Workers int `mapstructure:"workers"`
	// QueueSize bounds how many attempts may wait for a worker (default: 16)
	QueueSize int `mapstructure:"queue_size"`
	// RatePerSecond paces attempt starts; 0 disables pacing
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	// Burst is the limiter bucket size when pacing is enabled (default: 1)
	Burst int `mapstructure:"burst"`
}

// StoreConfig selects and configures the persistence backend
type StoreConfig struct {
	// Driver is one of: memory, file, mysql, postgres, mongo (default: "file")
	Driver string `mapstructure:"driver"`
	// Path is the JSON file for the file driver. Empty means {data_dir}/resources.json.
	Path string `mapstructure:"path"`
	// DSN is the connection string for mysql, postgres and mongo
	DSN string `mapstructure:"dsn"`
	// Database is the mongo database name
	Database string `mapstructure:"database"`
	// Collection is the mongo collection name
	Collection string `mapstructure:"collection"`
	// Table is the SQL table name (default: "resources")
	Table string `mapstructure:"table"`
	// Timeout bounds each backend call (default: 5s)
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logs are written to the data directory (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// PathsConfig controls where transferwindow stores data
type PathsConfig struct {
	// DataDir holds the log file and the file store.
	// If empty, defaults to ~/.local/share/transferwindow.
	// Supports ~ for home directory expansion.
	DataDir string `mapstructure:"data_dir"`
}

// TUIConfig controls the terminal UI behavior
type TUIConfig struct {
	// MaxLogLines limits how many notification lines the log pane keeps
	MaxLogLines int `mapstructure:"max_log_lines"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Resource: ResourceConfig{
			ID:          "LY27",
			DisplayName: "Lamine Yamal",
		},
		Arbiter: ArbiterConfig{
			NegotiationDelay: time.Second,
			Actors:           []string{"PSG", "Man City"},
		},
		Pool: PoolConfig{
			Workers:   2,
			QueueSize: 16,
			Burst:     1,
		},
		Store: StoreConfig{
			Driver:     "file",
			Database:   "transferwindow",
			Collection: "resources",
			Table:      "resources",
			Timeout:    5 * time.Second,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		TUI: TUIConfig{
			MaxLogLines: 500,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("resource.id", defaults.Resource.ID)
	viper.SetDefault("resource.display_name", defaults.Resource.DisplayName)

	viper.SetDefault("arbiter.negotiation_delay", defaults.Arbiter.NegotiationDelay)
	viper.SetDefault("arbiter.actors", defaults.Arbiter.Actors)

	viper.SetDefault("pool.workers", defaults.Pool.Workers)
	viper.SetDefault("pool.queue_size", defaults.Pool.QueueSize)
	viper.SetDefault("pool.rate_per_second", defaults.Pool.RatePerSecond)
	viper.SetDefault("pool.burst", defaults.Pool.Burst)

	viper.SetDefault("store.driver", defaults.Store.Driver)
	viper.SetDefault("store.path", defaults.Store.Path)
	viper.SetDefault("store.dsn", defaults.Store.DSN)
	viper.SetDefault("store.database", defaults.Store.Database)
	viper.SetDefault("store.collection", defaults.Store.Collection)
	viper.SetDefault("store.table", defaults.Store.Table)
	viper.SetDefault("store.timeout", defaults.Store.Timeout)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	viper.SetDefault("paths.data_dir", defaults.Paths.DataDir)

	viper.SetDefault("tui.max_log_lines", defaults.TUI.MaxLogLines)
}

// BindEnv makes every key overridable from the environment,
// e.g. TRANSFERWINDOW_ARBITER_NEGOTIATION_DELAY=250ms.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ResolveDataDir returns the data directory with ~ expanded, falling back
// to the platform default when unset.
func (p *PathsConfig) ResolveDataDir() string {
	dir := p.DataDir
	if dir == "" {
		return DefaultDataDir()
	}
	if strings.HasPrefix(dir, "~/") || dir == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return dir
}

// ResolvePath returns the file store path, defaulting into dataDir.
func (s *StoreConfig) ResolvePath(dataDir string) string {
	if s.Path != "" {
		return s.Path
	}
	return filepath.Join(dataDir, "resources.json")
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "transferwindow")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".transferwindow"
	}
	return filepath.Join(home, ".config", "transferwindow")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultDataDir returns $XDG_DATA_HOME/transferwindow or
// ~/.local/share/transferwindow.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "transferwindow")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".transferwindow"
	}
	return filepath.Join(home, ".local", "share", "transferwindow")
}

// Settings returns cfg as nested maps keyed like the config file, with
// durations rendered as strings so the result round-trips through viper.
func (c *Config) Settings() map[string]any {
	return map[string]any{
		"resource": map[string]any{
			"id":           c.Resource.ID,
			"display_name": c.Resource.DisplayName,
		},
		"arbiter": map[string]any{
			"negotiation_delay": c.Arbiter.NegotiationDelay.String(),
			"actors":            c.Arbiter.Actors,
		},
		"pool": map[string]any{
			"workers":         c.Pool.Workers,
			"queue_size":      c.Pool.QueueSize,
			"rate_per_second": c.Pool.RatePerSecond,
			"burst":           c.Pool.Burst,
		},
		"store": map[string]any{
			"driver":     c.Store.Driver,
			"path":       c.Store.Path,
			"dsn":        c.Store.DSN,
			"database":   c.Store.Database,
			"collection": c.Store.Collection,
			"table":      c.Store.Table,
			"timeout":    c.Store.Timeout.String(),
		},
		"logging": map[string]any{
			"enabled":     c.Logging.Enabled,
			"level":       c.Logging.Level,
			"max_size_mb": c.Logging.MaxSizeMB,
			"max_backups": c.Logging.MaxBackups,
		},
		"paths": map[string]any{
			"data_dir": c.Paths.DataDir,
		},
		"tui": map[string]any{
			"max_log_lines": c.TUI.MaxLogLines,
		},
	}
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c.Settings())
}

// WriteFile writes cfg to path, creating parent directories. An existing
// file is only replaced when overwrite is set.
func (c *Config) WriteFile(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	header := []byte("# transferwindow configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
