package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/Iron-Ham/transferwindow/internal/store"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "pool.workers")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// tableNameRegex matches identifiers that are safe to splice into SQL
var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const (
	minWorkers           = 2
	maxNegotiationDelay  = 10 * time.Minute
	maxPathLength        = 4096
	maxLogSizeMB         = 1000 // 1GB
	maxResourceIDLength  = 64
	maxDisplayNameLength = 256
)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateResource()...)
	errors = append(errors, c.validateArbiter()...)
	errors = append(errors, c.validatePool()...)
	errors = append(errors, c.validateStore()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validatePaths()...)
	errors = append(errors, c.validateTUI()...)

	return errors
}

// validateResource validates the ResourceConfig
func (c *Config) validateResource() []ValidationError {
	var errors []ValidationError

	id := strings.TrimSpace(c.Resource.ID)
	if id == "" {
		errors = append(errors, ValidationError{
			Field:   "resource.id",
			Value:   c.Resource.ID,
			Message: "must not be empty",
		})
	} else if len(id) > maxResourceIDLength {
		errors = append(errors, ValidationError{
			Field:   "resource.id",
			Value:   c.Resource.ID,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", maxResourceIDLength),
		})
	}

	if len(c.Resource.DisplayName) > maxDisplayNameLength {
		errors = append(errors, ValidationError{
			Field:   "resource.display_name",
			Value:   c.Resource.DisplayName,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", maxDisplayNameLength),
		})
	}

	return errors
}

// validateArbiter validates the ArbiterConfig
func (c *Config) validateArbiter() []ValidationError {
	var errors []ValidationError

	if c.Arbiter.NegotiationDelay < 0 {
		errors = append(errors, ValidationError{
			Field:   "arbiter.negotiation_delay",
			Value:   c.Arbiter.NegotiationDelay,
			Message: "must be non-negative",
		})
	}
	if c.Arbiter.NegotiationDelay > maxNegotiationDelay {
		errors = append(errors, ValidationError{
			Field:   "arbiter.negotiation_delay",
			Value:   c.Arbiter.NegotiationDelay,
			Message: fmt.Sprintf("exceeds maximum of %s", maxNegotiationDelay),
		})
	}

	for i, actor := range c.Arbiter.Actors {
		if strings.TrimSpace(actor) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("arbiter.actors[%d]", i),
				Value:   actor,
				Message: "actor name must not be blank",
			})
		}
	}

	return errors
}

// validatePool validates the PoolConfig
func (c *Config) validatePool() []ValidationError {
	var errors []ValidationError

	if c.Pool.Workers < minWorkers {
		errors = append(errors, ValidationError{
			Field:   "pool.workers",
			Value:   c.Pool.Workers,
			Message: fmt.Sprintf("must be at least %d", minWorkers),
		})
	}

	if c.Pool.QueueSize < 0 {
		errors = append(errors, ValidationError{
			Field:   "pool.queue_size",
			Value:   c.Pool.QueueSize,
			Message: "must be non-negative",
		})
	}

	if c.Pool.RatePerSecond < 0 {
		errors = append(errors, ValidationError{
			Field:   "pool.rate_per_second",
			Value:   c.Pool.RatePerSecond,
			Message: "must be non-negative (0 disables pacing)",
		})
	}

	if c.Pool.RatePerSecond > 0 && c.Pool.Burst < 1 {
		errors = append(errors, ValidationError{
			Field:   "pool.burst",
			Value:   c.Pool.Burst,
			Message: "must be at least 1 when pacing is enabled",
		})
	}

	return errors
}

// validateStore validates the StoreConfig
func (c *Config) validateStore() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(store.Drivers(), c.Store.Driver) {
		errors = append(errors, ValidationError{
			Field:   "store.driver",
			Value:   c.Store.Driver,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(store.Drivers(), ", ")),
		})
		return errors
	}

	switch c.Store.Driver {
	case store.DriverMySQL, store.DriverPostgres, store.DriverMongo:
		if c.Store.DSN == "" {
			errors = append(errors, ValidationError{
				Field:   "store.dsn",
				Value:   c.Store.DSN,
				Message: fmt.Sprintf("is required for the %s driver", c.Store.Driver),
			})
		}
	}

	switch c.Store.Driver {
	case store.DriverMySQL, store.DriverPostgres:
		if c.Store.Table != "" && !tableNameRegex.MatchString(c.Store.Table) {
			errors = append(errors, ValidationError{
				Field:   "store.table",
				Value:   c.Store.Table,
				Message: "must start with a letter or underscore and contain only letters, digits and underscores",
			})
		}
	case store.DriverFile:
		if strings.ContainsRune(c.Store.Path, '\x00') {
			errors = append(errors, ValidationError{
				Field:   "store.path",
				Value:   c.Store.Path,
				Message: "path contains invalid null character",
			})
		}
	}

	if c.Store.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "store.timeout",
			Value:   c.Store.Timeout,
			Message: "must be non-negative (0 disables the timeout)",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validatePaths validates the PathsConfig
func (c *Config) validatePaths() []ValidationError {
	var errors []ValidationError

	path := c.Paths.DataDir
	if path == "" {
		return nil
	}

	if strings.ContainsRune(path, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "paths.data_dir",
			Value:   path,
			Message: "path contains invalid null character",
		})
	}

	if len(path) > maxPathLength {
		errors = append(errors, ValidationError{
			Field:   "paths.data_dir",
			Value:   path,
			Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
		})
	}

	return errors
}

// validateTUI validates the TUIConfig
func (c *Config) validateTUI() []ValidationError {
	if c.TUI.MaxLogLines < 0 {
		return []ValidationError{{
			Field:   "tui.max_log_lines",
			Value:   c.TUI.MaxLogLines,
			Message: "must be non-negative",
		}}
	}
	return nil
}
