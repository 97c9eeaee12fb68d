package history

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// RecorderConfig contains configuration for the Recorder.
type RecorderConfig struct {
	// Session is stamped on events that do not carry one.
	Session string

	// BufferSize is the size of the async write channel buffer.
	// Default: 1024
	BufferSize int

	// WriteTimeout bounds each backend write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// Recorder writes events to a backend from a background goroutine so the
// caller never waits on storage. Events that arrive while the buffer is
// full are dropped and counted.
//
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	backend Backend
	config  RecorderConfig
	events  chan Event
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	written atomic.Int64
}

// NewRecorder starts a recorder that writes to backend.
func NewRecorder(backend Backend, cfg RecorderConfig) *Recorder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		backend: backend,
		config:  cfg,
		events:  make(chan Event, cfg.BufferSize),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "history.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Debug("history recorder initialized",
		"session", cfg.Session,
		"buffer_size", cfg.BufferSize,
	)
	return r
}

// Record enqueues ev. It fills in ID, Session and Time when they are
// empty and returns immediately.
func (r *Recorder) Record(ev Event) {
	if r == nil {
		return
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Session == "" {
		ev.Session = r.config.Session
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}

	select {
	case r.events <- ev:
	default:
		if r.dropped.Add(1) == 1 {
			r.logger.Warn("history buffer full, dropping events",
				"buffer_size", r.config.BufferSize,
			)
		}
	}
}

// Backend returns the backend the recorder writes to.
func (r *Recorder) Backend() Backend {
	if r == nil {
		return nil
	}
	return r.backend
}

// Dropped returns the number of events that were not queued.
func (r *Recorder) Dropped() int64 {
	if r == nil {
		return 0
	}
	return r.dropped.Load()
}

// Written returns the number of events stored successfully.
func (r *Recorder) Written() int64 {
	if r == nil {
		return 0
	}
	return r.written.Load()
}

// Close stops accepting events, writes everything still queued and waits
// for the worker to exit. It does not close the backend.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.done)
	r.wg.Wait()

	r.logger.Debug("history recorder shut down",
		"written", r.written.Load(),
		"dropped", r.dropped.Load(),
	)
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case ev := <-r.events:
			r.write(ev)

		case <-r.done:
			for {
				select {
				case ev := <-r.events:
					r.write(ev)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.backend.Record(ctx, ev); err != nil {
		r.logger.Error("failed to store history event",
			"event_id", ev.ID,
			"kind", ev.Kind,
			"clip", ev.Clip,
			"error", err,
		)
		return
	}
	r.written.Add(1)
}
