package loader

import (
	"context"
	"errors"

	"mercator-hq/cadence/pkg/device"
)

var (
	// ErrAssetNotFound is returned when no file exists for a key.
	ErrAssetNotFound = errors.New("loader: asset not found")

	// ErrUnsupportedFormat is returned for files no decoder handles.
	ErrUnsupportedFormat = errors.New("loader: unsupported audio format")
)

// Clip is the decoded audio handle a loader produces.
type Clip = device.Clip

// Loader turns asset keys into decoded clips.
//
// The engine treats clips as opaque and only reads their duration and
// sample rate. LoadAsync calls done from an arbitrary goroutine; callers
// that need single-threaded delivery must marshal it themselves.
type Loader interface {
	LoadSync(ctx context.Context, key string) (Clip, error)
	LoadAsync(key string, done func(Clip, error))
	Unload(key string)
	UnloadAll()
	IsLoaded(key string) bool
}

var (
	_ Loader = (*FileLoader)(nil)
	_ Loader = (*MemoryLoader)(nil)
)

// Load modes used as the mode label of load metrics.
const (
	ModeSync  = "sync"
	ModeAsync = "async"
)
