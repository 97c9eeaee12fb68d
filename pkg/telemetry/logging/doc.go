// Package logging provides structured logging for Cadence.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text, and console formats
//   - Context-aware logging with session, clip and instance fields
//   - Configurable log levels (debug, info, warn, error)
//
// Engine components accept a *slog.Logger and default to
// slog.Default().With("component", name). The command line builds one
// Logger from the telemetry.logging section and installs it with
// slog.SetDefault(logger.Slog()).
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, os.Stderr))
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger.Slog())
//
//	// Context-aware logging
//	ctx = logging.WithClip(ctx, "footstep")
//	logger.InfoContext(ctx, "played")  // Includes clip automatically
package logging
