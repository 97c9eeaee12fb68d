package history

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrClosed is returned by a backend after Close.
var ErrClosed = errors.New("history: backend closed")

// MemoryBackend keeps events in memory. It is the default backend and
// loses its contents on exit.
type MemoryBackend struct {
	mu     sync.RWMutex
	events []Event
	closed bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Record implements Backend.
func (m *MemoryBackend) Record(ctx context.Context, events ...Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return newStorageError("memory", "record", ErrClosed)
	}
	m.events = append(m.events, events...)
	return nil
}

// Query implements Backend.
func (m *MemoryBackend) Query(ctx context.Context, q Query) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, newStorageError("memory", "query", ErrClosed)
	}

	var out []Event
	for _, ev := range m.events {
		if q.Matches(ev) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Stats implements Backend.
func (m *MemoryBackend) Stats(ctx context.Context, since time.Time) (Stats, error) {
	events, err := m.Query(ctx, Query{Since: since})
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{ByKind: make(map[Kind]int64)}
	plays := make(map[string]int64)
	for _, ev := range events {
		stats.Total++
		stats.ByKind[ev.Kind]++
		if ev.Kind == KindStart {
			plays[ev.Clip]++
		}
	}
	for clip, n := range plays {
		stats.TopClips = append(stats.TopClips, ClipCount{Clip: clip, Plays: n})
	}
	sort.Slice(stats.TopClips, func(i, j int) bool {
		a, b := stats.TopClips[i], stats.TopClips[j]
		if a.Plays != b.Plays {
			return a.Plays > b.Plays
		}
		return a.Clip < b.Clip
	})
	if len(stats.TopClips) > topClipLimit {
		stats.TopClips = stats.TopClips[:topClipLimit]
	}
	return stats, nil
}

// Prune implements Backend.
func (m *MemoryBackend) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, newStorageError("memory", "prune", ErrClosed)
	}

	kept := m.events[:0]
	var deleted int64
	for _, ev := range m.events {
		if ev.Time.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, ev)
	}
	m.events = kept
	return deleted, nil
}

// Ping implements Backend.
func (m *MemoryBackend) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.events = nil
	return nil
}

// Len returns the number of stored events.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}
