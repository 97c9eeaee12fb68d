package engine

import (
	"errors"
	"fmt"

	"mercator-hq/cadence/pkg/pool"
	"mercator-hq/cadence/pkg/telemetry/metrics"
)

// Play outcomes. Every failed request returns one of these inside a
// *PlayError and leaves no instance behind.
var (
	// ErrInvalidRequest indicates an empty clip name.
	ErrInvalidRequest = errors.New("invalid play request")

	// ErrNotFound indicates no registered clip, event or play group has the
	// requested name.
	ErrNotFound = errors.New("clip not found")

	// ErrBlocked indicates a condition or an exclusive play group denied
	// the request. It is a normal negative outcome.
	ErrBlocked = errors.New("play blocked")

	// ErrLoadFailure indicates the loader could not provide the clip.
	ErrLoadFailure = errors.New("clip load failed")

	// ErrDevice indicates the device could not provide a voice.
	ErrDevice = errors.New("device failure")

	// ErrClosed indicates the engine was closed.
	ErrClosed = errors.New("engine closed")
)

// Pool conditions, surfaced through logs and metrics only.
var (
	ErrInvalidChannelState = pool.ErrInvalidChannelState
	ErrPoolExhausted       = pool.ErrPoolExhausted
)

// PlayError describes a failed play request.
type PlayError struct {
	// Clip is the name the caller requested.
	Clip string

	// Err is one of the engine sentinels.
	Err error

	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message.
func (e *PlayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("play %q: %v: %v", e.Clip, e.Err, e.Cause)
	}
	return fmt.Sprintf("play %q: %v", e.Clip, e.Err)
}

// Unwrap returns the sentinel and the cause.
func (e *PlayError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// Code returns a short label for the failure, used in metrics and history.
func (e *PlayError) Code() string {
	return ErrorCode(e)
}

// ErrorCode maps an error from a play call to a short label. A nil error is
// "played".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return metrics.ResultPlayed
	case errors.Is(err, ErrInvalidRequest):
		return metrics.ResultInvalid
	case errors.Is(err, ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, ErrBlocked):
		return metrics.ResultBlocked
	case errors.Is(err, ErrLoadFailure):
		return metrics.ResultFailed
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "device_failed"
	}
}

func playErr(clip string, sentinel, cause error) *PlayError {
	return &PlayError{Clip: clip, Err: sentinel, Cause: cause}
}
