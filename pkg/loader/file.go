package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"mercator-hq/cadence/pkg/config"
	"mercator-hq/cadence/pkg/telemetry/metrics"
)

// resampleQuality trades CPU for quality when converting sample rates.
const resampleQuality = 4

// Sound is a clip decoded fully into memory.
type Sound struct {
	key    string
	buffer *beep.Buffer
}

// Duration implements device.Clip.
func (s *Sound) Duration() time.Duration {
	return s.buffer.Format().SampleRate.D(s.buffer.Len())
}

// SampleRate implements device.Clip.
func (s *Sound) SampleRate() int {
	return int(s.buffer.Format().SampleRate)
}

// Key returns the asset key the sound was loaded from.
func (s *Sound) Key() string { return s.key }

// Format returns the decoded format.
func (s *Sound) Format() beep.Format { return s.buffer.Format() }

// Streamer returns a new streamer over the whole sound.
func (s *Sound) Streamer() beep.StreamSeeker {
	return s.buffer.Streamer(0, s.buffer.Len())
}

// FileOption configures a FileLoader.
type FileOption func(*FileLoader)

// WithTimeout bounds each load attempt.
func WithTimeout(d time.Duration) FileOption {
	return func(l *FileLoader) { l.timeout = d }
}

// WithRetries sets the number of extra attempts for a failed load. A
// missing file is never retried.
func WithRetries(n int) FileOption {
	return func(l *FileLoader) { l.retries = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) FileOption {
	return func(l *FileLoader) { l.logger = logger.With("component", "loader") }
}

// WithMetrics records loads in collector.
func WithMetrics(collector *metrics.Collector) FileOption {
	return func(l *FileLoader) { l.metrics = collector }
}

// FileLoader decodes audio files below a root directory with beep and
// caches them by key.
//
// Keys are slash separated paths relative to the root. A key without an
// extension is tried with each configured extension in order. FileLoader
// is safe for concurrent use.
type FileLoader struct {
	root       string
	extensions []string
	sampleRate beep.SampleRate
	timeout    time.Duration
	retries    int
	logger     *slog.Logger
	metrics    *metrics.Collector

	mu    sync.RWMutex
	cache map[string]*Sound
}

// NewFileLoader creates a loader from configuration.
func NewFileLoader(cfg config.LoaderConfig, opts ...FileOption) *FileLoader {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = config.DefaultLoaderExtensions
	}
	l := &FileLoader{
		root:       cfg.Root,
		extensions: append([]string(nil), exts...),
		sampleRate: beep.SampleRate(cfg.SampleRate),
		timeout:    config.DefaultLoadTimeout,
		logger:     slog.Default().With("component", "loader"),
		cache:      make(map[string]*Sound),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadSync returns the cached sound for key or decodes it, retrying failed
// attempts.
func (l *FileLoader) LoadSync(ctx context.Context, key string) (Clip, error) {
	return l.load(ctx, key, ModeSync)
}

// LoadAsync decodes key on a new goroutine and calls done with the result.
// A cached key completes on the calling goroutine.
func (l *FileLoader) LoadAsync(key string, done func(Clip, error)) {
	if s, ok := l.cached(key); ok {
		done(s, nil)
		return
	}
	go func() {
		clip, err := l.load(context.Background(), key, ModeAsync)
		done(clip, err)
	}()
}

func (l *FileLoader) load(ctx context.Context, key, mode string) (Clip, error) {
	if s, ok := l.cached(key); ok {
		return s, nil
	}

	start := time.Now()
	var (
		s   *Sound
		err error
	)
	for attempt := 0; attempt <= l.retries; attempt++ {
		s, err = l.attempt(ctx, key)
		if err == nil || errors.Is(err, ErrAssetNotFound) || errors.Is(err, ErrUnsupportedFormat) || ctx.Err() != nil {
			break
		}
		l.logger.Warn("asset load failed, retrying", "key", key, "attempt", attempt+1, "error", err)
	}
	l.metrics.RecordLoad(mode, err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	if existing, ok := l.cache[key]; ok {
		s = existing
	} else {
		l.cache[key] = s
	}
	l.mu.Unlock()

	l.logger.Debug("asset loaded", "key", key, "duration", s.Duration(), "mode", mode)
	return s, nil
}

// attempt runs one decode bounded by the load timeout.
func (l *FileLoader) attempt(ctx context.Context, key string) (*Sound, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	type result struct {
		s   *Sound
		err error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := l.decode(key)
		ch <- result{s, err}
	}()

	select {
	case r := <-ch:
		return r.s, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("load %q: %w", key, ctx.Err())
	}
}

// resolve finds the file for key.
func (l *FileLoader) resolve(key string) (string, error) {
	base := filepath.Join(l.root, filepath.FromSlash(key))
	candidates := []string{base}
	if filepath.Ext(base) == "" {
		candidates = candidates[:0]
		for _, ext := range l.extensions {
			candidates = append(candidates, base+ext)
		}
	}

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %q: %w", path, err)
		}
	}
	return "", fmt.Errorf("%w: %q", ErrAssetNotFound, key)
}

func (l *FileLoader) decode(key string) (*Sound, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".ogg":
		stream, format, err = vorbis.Decode(f)
	case ".flac":
		stream, format, err = flac.Decode(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	defer stream.Close()

	var src beep.Streamer = stream
	if l.sampleRate > 0 && l.sampleRate != format.SampleRate {
		src = beep.Resample(resampleQuality, format.SampleRate, l.sampleRate, stream)
		format.SampleRate = l.sampleRate
	}

	buf := beep.NewBuffer(format)
	buf.Append(src)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}

	return &Sound{key: key, buffer: buf}, nil
}

func (l *FileLoader) cached(key string) (*Sound, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.cache[key]
	return s, ok
}

// Unload drops key from the cache.
func (l *FileLoader) Unload(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, key)
}

// UnloadAll empties the cache.
func (l *FileLoader) UnloadAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*Sound)
}

// IsLoaded reports whether key is cached.
func (l *FileLoader) IsLoaded(key string) bool {
	_, ok := l.cached(key)
	return ok
}

// Keys returns the cached keys.
func (l *FileLoader) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.cache))
	for k := range l.cache {
		keys = append(keys, k)
	}
	return keys
}
