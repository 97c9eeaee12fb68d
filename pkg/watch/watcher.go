package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrRunning is returned by Watch when the watcher is already running.
var ErrRunning = errors.New("watch: watcher already running")

// Config controls what a Watcher observes.
type Config struct {
	// Path is a configuration file or a directory of configuration files.
	Path string

	// Debounce is the quiet period after the last change before the
	// reload runs (default: 100ms).
	Debounce time.Duration

	// Extensions limits directory watches to these file extensions.
	Extensions []string

	// SkipHidden ignores dot files, which covers most editor swap files.
	SkipHidden bool
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		Debounce:   100 * time.Millisecond,
		Extensions: []string{".yaml", ".yml"},
		SkipHidden: true,
	}
}

// Watcher runs a reload function whenever the watched configuration
// changes. Bursts of events collapse into one reload.
type Watcher struct {
	fs       *fsnotify.Watcher
	logger   *slog.Logger
	config   Config
	debounce *Debouncer

	// file is set when a single file is watched through its directory.
	file string

	mu      sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a watcher. Nothing is observed until Watch runs.
func New(cfg Config, logger *slog.Logger) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("watch: path is required")
	}
	defaults := DefaultConfig()
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaults.Debounce
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = defaults.Extensions
	}
	if logger == nil {
		logger = slog.Default()
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	return &Watcher{
		fs:       fs,
		logger:   logger.With("component", "watch"),
		config:   cfg,
		debounce: NewDebouncer(cfg.Debounce),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch observes the configured path and calls onReload after changes
// settle. It blocks until ctx is cancelled or Stop is called. Reload
// errors are logged and watching continues.
func (w *Watcher) Watch(ctx context.Context, onReload func() error) error {
	w.mu.Lock()
	if w.running || w.stopped {
		w.mu.Unlock()
		return ErrRunning
	}
	w.running = true
	w.mu.Unlock()

	defer close(w.doneCh)

	if err := w.add(w.config.Path); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	w.logger.Info("file watcher started",
		"path", w.config.Path,
		"debounce_ms", w.config.Debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("file watcher stopped", "reason", "context cancelled")
			return nil

		case <-w.stopCh:
			w.logger.Info("file watcher stopped")
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watch: events channel closed")
			}
			if !w.relevant(event) {
				continue
			}

			w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())

			w.debounce.Trigger(func() {
				w.logger.Info("reloading configuration", "path", event.Name)
				if err := onReload(); err != nil {
					w.logger.Error("configuration reload failed", "error", err)
				}
			})

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watch: errors channel closed")
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

// Stop ends Watch, cancels a pending reload and releases the fsnotify
// watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	running := w.running
	w.mu.Unlock()

	close(w.stopCh)
	if running {
		<-w.doneCh
	}
	w.debounce.Stop()

	if err := w.fs.Close(); err != nil {
		return fmt.Errorf("watch: close watcher: %w", err)
	}
	return nil
}

// add watches a directory tree, or a single file through its directory so
// that editors replacing the file by rename are still seen.
func (w *Watcher) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		w.file = abs
		return w.fs.Add(filepath.Dir(abs))
	}

	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.config.SkipHidden && p != path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			return fmt.Errorf("watch directory %q: %w", p, err)
		}
		w.logger.Debug("watching directory", "path", p)
		return nil
	})
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if w.file != "" {
		abs, err := filepath.Abs(event.Name)
		return err == nil && abs == w.file
	}

	base := filepath.Base(event.Name)
	if w.config.SkipHidden && strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	return slices.ContainsFunc(w.config.Extensions, func(e string) bool {
		return strings.ToLower(e) == ext
	})
}
