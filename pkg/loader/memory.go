package loader

import (
	"context"
	"fmt"
	"sync"
)

type pendingLoad struct {
	key  string
	done func(Clip, error)
}

// MemoryLoader serves clips registered in memory. It backs the headless
// device in tests and in cadence play --dry-run.
//
// Failures can be programmed per key, and async completions can be held
// back until Complete is called so tests control when they land.
type MemoryLoader struct {
	mu       sync.Mutex
	clips    map[string]Clip
	failures map[string]error
	loaded   map[string]bool
	loads    map[string]int
	deferred bool
	pending  []pendingLoad
}

// NewMemoryLoader creates an empty loader.
func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{
		clips:    make(map[string]Clip),
		failures: make(map[string]error),
		loaded:   make(map[string]bool),
		loads:    make(map[string]int),
	}
}

// Add makes key loadable.
func (m *MemoryLoader) Add(key string, clip Clip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clips[key] = clip
}

// Fail makes loads of key fail with err. A nil err clears the failure.
func (m *MemoryLoader) Fail(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, key)
		return
	}
	m.failures[key] = err
}

// SetDeferred holds async completions until Complete when on is true.
func (m *MemoryLoader) SetDeferred(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deferred = on
}

// Complete delivers every held async completion and returns how many ran.
func (m *MemoryLoader) Complete() int {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, p := range pending {
		clip, err := m.LoadSync(context.Background(), p.key)
		p.done(clip, err)
	}
	return len(pending)
}

// Pending returns the number of held async completions.
func (m *MemoryLoader) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// LoadCount returns how many loads of key succeeded.
func (m *MemoryLoader) LoadCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads[key]
}

// LoadSync implements Loader.
func (m *MemoryLoader) LoadSync(ctx context.Context, key string) (Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures[key]; err != nil {
		return nil, err
	}
	clip, ok := m.clips[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAssetNotFound, key)
	}
	m.loaded[key] = true
	m.loads[key]++
	return clip, nil
}

// LoadAsync implements Loader. Without deferral done runs before LoadAsync
// returns.
func (m *MemoryLoader) LoadAsync(key string, done func(Clip, error)) {
	m.mu.Lock()
	if m.deferred {
		m.pending = append(m.pending, pendingLoad{key: key, done: done})
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	clip, err := m.LoadSync(context.Background(), key)
	done(clip, err)
}

// Unload implements Loader.
func (m *MemoryLoader) Unload(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.loaded, key)
}

// UnloadAll implements Loader.
func (m *MemoryLoader) UnloadAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = make(map[string]bool)
}

// IsLoaded implements Loader.
func (m *MemoryLoader) IsLoaded(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded[key]
}
