// Package logging provides structured logging for transferwindow.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation. Every claim attempt is logged with the resource,
// the actor and an attempt id so that a race can be reconstructed after
// the fact from the log alone.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(dataDir, "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("store opened", "driver", "mysql")
//
// # Context Propagation
//
//	attempt := logger.WithResource("LY27").WithActor("PSG").WithAttempt(id)
//	attempt.Info("claim decided", "outcome", "won")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"claim decided","resource_id":"LY27","actor":"PSG","attempt_id":"...","outcome":"won"}
//
// # Log Rotation
//
//	logger, err := logging.NewLoggerWithRotation(dataDir, "INFO", logging.RotationConfig{
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	})
//
// Rotated files are named transferwindow.log.1, transferwindow.log.2, and so
// on, where .1 is the most recent backup.
//
// # Thread Safety
//
// [Logger] and [RotatingWriter] are safe for concurrent use. Child loggers
// created via the With* methods share the parent's writer, and closing any
// of them closes the file once.
//
// # Testing
//
// Use [NopLogger] to discard all output.
package logging
