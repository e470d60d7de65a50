package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// StoreError Tests
// -----------------------------------------------------------------------------

func TestNewStoreError(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := NewStoreError("update", cause)

	if err.Op != "update" {
		t.Errorf("Op = %q, want %q", err.Op, "update")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
	}
	if !err.IsRetryable() {
		t.Error("IsRetryable() = false, want true")
	}
	if err.IsUserFacing() {
		t.Error("IsUserFacing() = true, want false")
	}
}

func TestStoreError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *StoreError
		want string
	}{
		{
			name: "no context",
			err:  NewStoreError("fetch", nil),
			want: "store error [op=fetch]",
		},
		{
			name: "full context",
			err:  NewStoreError("update", New("boom")).WithBackend("mysql").WithResourceID("LY27"),
			want: "store error [backend=mysql, op=update, resource=LY27]: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStoreError_Is(t *testing.T) {
	cause := New("socket closed")
	err := NewStoreError("update", cause).WithBackend("file")

	if !errors.Is(err, ErrPersistenceUnavailable) {
		t.Error("StoreError should match ErrPersistenceUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("StoreError should match its cause")
	}
	var target *StoreError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &target) {
		t.Fatal("errors.As should find StoreError through wrapping")
	}
	if target.Backend != "file" {
		t.Errorf("Backend = %q, want %q", target.Backend, "file")
	}
}

// -----------------------------------------------------------------------------
// PoolError Tests
// -----------------------------------------------------------------------------

func TestPoolError(t *testing.T) {
	full := NewPoolError("PSG", ErrQueueFull)
	if !full.IsRetryable() {
		t.Error("queue-full pool error should be retryable")
	}
	if !errors.Is(full, ErrQueueFull) {
		t.Error("pool error should match its cause")
	}
	if got, want := full.Error(), "pool error [actor=PSG]: submit failed: claimant queue full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	closed := NewPoolError("", ErrPoolClosed)
	if closed.IsRetryable() {
		t.Error("closed pool error should not be retryable")
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("resource", "LY27")

	if got, want := err.Error(), "resource 'LY27' not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrResourceNotFound) {
		t.Error("NotFoundError should match ErrResourceNotFound")
	}
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}

	withCause := NewNotFoundError("resource", "X1").WithCause(New("no rows"))
	if got, want := withCause.Error(), "resource 'X1' not found: no rows"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("claimed record has no holder").
		WithField("holder").
		WithValue("").
		WithCause(ErrInvalidRecord)

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
	if !errors.Is(err, ErrInvalidRecord) {
		t.Error("ValidationError should match its cause")
	}
	want := "validation error [field=holder, value=]: claimed record has no holder: invalid resource record"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"store error", NewStoreError("fetch", nil), true},
		{"store error not retryable", NewStoreError("fetch", nil).WithRetryable(false), false},
		{"bare sentinel", ErrPersistenceUnavailable, true},
		{"wrapped queue full", fmt.Errorf("submit: %w", ErrQueueFull), true},
		{"not found", NewNotFoundError("resource", "LY27"), false},
		{"plain", New("plain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
	if !IsUserFacing(NewNotFoundError("resource", "LY27")) {
		t.Error("NotFoundError should be user facing")
	}
	if IsUserFacing(NewStoreError("update", nil)) {
		t.Error("StoreError should not be user facing")
	}
	if IsUserFacing(New("plain")) {
		t.Error("plain error should not be user facing")
	}
}

func TestGetSeverity(t *testing.T) {
	if got := GetSeverity(nil); got != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %v, want %v", got, SeverityDebug)
	}
	if got := GetSeverity(New("plain")); got != SeverityError {
		t.Errorf("GetSeverity(plain) = %v, want %v", got, SeverityError)
	}
	if got := GetSeverity(NewValidationError("x")); got != SeverityWarning {
		t.Errorf("GetSeverity(validation) = %v, want %v", got, SeverityWarning)
	}
}

func TestIsCanceled(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrCanceled, true},
		{"context canceled", fmt.Errorf("wait: %w", context.Canceled), true},
		{"deadline", context.DeadlineExceeded, true},
		{"other", ErrPersistenceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCanceled(tt.err); got != tt.want {
				t.Errorf("IsCanceled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	err := Wrapf(ErrResourceNotFound, "load %s", "LY27")
	if got, want := err.Error(), "load LY27: resource not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrResourceNotFound) {
		t.Error("wrapped error should match sentinel")
	}
}
