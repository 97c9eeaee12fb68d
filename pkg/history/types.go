package history

import (
	"context"
	"fmt"
	"time"
)

// Kind classifies a history event.
type Kind string

const (
	// KindStart records an instance that started playing.
	KindStart Kind = "start"

	// KindStop records an instance that was removed.
	KindStop Kind = "stop"

	// KindDenied records a request that produced no instance.
	KindDenied Kind = "denied"
)

// Event is one entry in the play history.
type Event struct {
	// ID is a UUID assigned by the recorder.
	ID string `json:"id"`

	// Session identifies the engine run that produced the event.
	Session string `json:"session"`

	Kind Kind `json:"kind"`

	// Clip is the clip that played, or the requested name for denials.
	Clip string `json:"clip"`

	// Requested is the name the caller asked for, which may be an event
	// alias or a play group member that was substituted.
	Requested string `json:"requested,omitempty"`

	Bank string `json:"bank,omitempty"`

	// Instance is the playback instance id. Zero for denials.
	Instance uint64 `json:"instance,omitempty"`

	// Outcome is the stop reason for stops and the error code for denials.
	Outcome string `json:"outcome,omitempty"`

	Time time.Time `json:"time"`
}

// Query selects events. Zero fields match everything.
type Query struct {
	Clip    string
	Session string
	Kind    Kind
	Since   time.Time

	// Limit caps the result. Zero means no limit.
	Limit int
}

// Matches reports whether ev satisfies q.
func (q Query) Matches(ev Event) bool {
	if q.Clip != "" && ev.Clip != q.Clip {
		return false
	}
	if q.Session != "" && ev.Session != q.Session {
		return false
	}
	if q.Kind != "" && ev.Kind != q.Kind {
		return false
	}
	if !q.Since.IsZero() && ev.Time.Before(q.Since) {
		return false
	}
	return true
}

// ClipCount is the number of starts of one clip.
type ClipCount struct {
	Clip  string `json:"clip"`
	Plays int64  `json:"plays"`
}

// Stats summarises the history since a point in time.
type Stats struct {
	Total  int64          `json:"total"`
	ByKind map[Kind]int64 `json:"by_kind"`

	// TopClips lists the most started clips, most played first.
	TopClips []ClipCount `json:"top_clips"`
}

// Backend stores history events.
//
// Results of Query are ordered by time, oldest first.
type Backend interface {
	Record(ctx context.Context, events ...Event) error
	Query(ctx context.Context, q Query) ([]Event, error)
	Stats(ctx context.Context, since time.Time) (Stats, error)

	// Prune deletes events older than cutoff and returns how many it
	// deleted.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// topClipLimit is the number of clips reported in Stats.TopClips.
const topClipLimit = 10

// StorageError reports a failed backend operation.
type StorageError struct {
	Backend   string // "memory" or "sqlite"
	Operation string // "record", "query", "prune", ...
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("history storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

func newStorageError(backend, op string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: op, Cause: cause}
}
