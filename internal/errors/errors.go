// Package errors provides centralized error definitions and error handling utilities
// for transferwindow. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - StoreError: errors raised by a persistence backend (file, MySQL, Postgres, Mongo)
//   - PoolError: errors raised when scheduling claimant work
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource record not found
//   - ValidationError: invalid input or record contents
//
// # Usage
//
//	err := errors.NewStoreError("update", errors.ErrPersistenceUnavailable).
//	    WithBackend("mysql").
//	    WithResourceID("LY27")
//
//	if errors.Is(err, errors.ErrPersistenceUnavailable) { ... }
//	if errors.IsRetryable(err) { ... }
//
// Losing a race is not an error and has no representation here; it is a
// normal claim outcome.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Resource-related sentinel errors
var (
	// ErrResourceNotFound indicates that the requested resource id is absent from the store.
	ErrResourceNotFound = New("resource not found")
	// ErrInvalidRecord indicates that a persisted record violates the status/holder invariant.
	ErrInvalidRecord = New("invalid resource record")
	// ErrInvalidActor indicates that a claim was attempted with an empty actor name.
	ErrInvalidActor = New("invalid actor name")
)

// Persistence-related sentinel errors
var (
	// ErrPersistenceUnavailable indicates that the store could not be reached or refused the write.
	ErrPersistenceUnavailable = New("persistence unavailable")
	// ErrWriteNotApplied indicates that a conditional update matched no record.
	ErrWriteNotApplied = New("write not applied")
	// ErrUnknownDriver indicates that the configured store driver is not supported.
	ErrUnknownDriver = New("unknown store driver")
)

// Scheduling-related sentinel errors
var (
	// ErrQueueFull indicates that the claimant pool cannot accept more work.
	ErrQueueFull = New("claimant queue full")
	// ErrPoolClosed indicates that the claimant pool no longer accepts work.
	ErrPoolClosed = New("claimant pool closed")
)

// General sentinel errors
var (
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// TransferError is the base interface for all transferwindow errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type TransferError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// StoreError represents a failure inside a persistence backend.
//
// Example:
//
//	err := errors.NewStoreError("update", driverErr).WithBackend("postgres").WithResourceID("LY27")
//	fmt.Println(err) // "store error [backend=postgres, op=update, resource=LY27]: ..."
type StoreError struct {
	baseError
	Backend    string
	Op         string
	ResourceID string
}

// NewStoreError creates a new StoreError for the given operation.
// Store errors are retryable by default: a backend that is unreachable now
// may be reachable on the next attempt.
func NewStoreError(op string, cause error) *StoreError {
	return &StoreError{
		baseError: baseError{
			message:    op + " failed",
			cause:      cause,
			severity:   SeverityError,
			retryable:  true,
			userFacing: false,
		},
		Op: op,
	}
}

// WithBackend adds the backend name to the error context.
func (e *StoreError) WithBackend(backend string) *StoreError {
	e.Backend = backend
	return e
}

// WithResourceID adds the resource id to the error context.
func (e *StoreError) WithResourceID(id string) *StoreError {
	e.ResourceID = id
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *StoreError) WithRetryable(r bool) *StoreError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *StoreError) Error() string {
	var parts []string
	if e.Backend != "" {
		parts = append(parts, fmt.Sprintf("backend=%s", e.Backend))
	}
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.ResourceID != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", e.ResourceID))
	}

	prefix := "store error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("store error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	return prefix
}

// Is checks if this error matches the target. Every StoreError also matches
// ErrPersistenceUnavailable so callers can classify without knowing the backend.
func (e *StoreError) Is(target error) bool {
	if _, ok := target.(*StoreError); ok {
		return true
	}
	if target == ErrPersistenceUnavailable {
		return true
	}
	return e.baseError.Is(target)
}

// PoolError represents a failure to schedule claimant work.
type PoolError struct {
	baseError
	Actor string
}

// NewPoolError creates a new PoolError.
func NewPoolError(actor string, cause error) *PoolError {
	return &PoolError{
		baseError: baseError{
			message:    "submit failed",
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  Is(cause, ErrQueueFull),
			userFacing: true,
		},
		Actor: actor,
	}
}

// Error returns the formatted error message.
func (e *PoolError) Error() string {
	prefix := "pool error"
	if e.Actor != "" {
		prefix = fmt.Sprintf("pool error [actor=%s]", e.Actor)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *PoolError) Is(target error) bool {
	if _, ok := target.(*PoolError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("resource", "LY27")
//	fmt.Println(err) // "resource 'LY27' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityCritical,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if target == ErrResourceNotFound {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or record contents.
//
// Example:
//
//	err := errors.NewValidationError("claimed record has no holder").WithField("holder")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te TransferError
	if As(err, &te) {
		return te.IsRetryable()
	}

	return Is(err, ErrPersistenceUnavailable) || Is(err, ErrQueueFull)
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var te TransferError
	if As(err, &te) {
		return te.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement TransferError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var te TransferError
	if As(err, &te) {
		return te.Severity()
	}
	return SeverityError
}

// IsCanceled reports whether err stems from a canceled or expired context
// or wraps ErrCanceled.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrCanceled) || Is(err, context.Canceled) || Is(err, context.DeadlineExceeded)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "load resource")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
