package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func startWatcher(t *testing.T, cfg Config) (*Watcher, *atomic.Int32, chan struct{}) {
	t.Helper()

	w, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })

	var reloads atomic.Int32
	reloaded := make(chan struct{}, 10)
	onReload := func() error {
		reloads.Add(1)
		select {
		case reloaded <- struct{}{}:
		default:
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = w.Watch(ctx, onReload) }()

	// fsnotify needs the watch registered before the first write.
	time.Sleep(100 * time.Millisecond)
	return w, &reloads, reloaded
}

func TestNew(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Error("New() without a path succeeded")
	}

	w, err := New(Config{Path: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Stop()

	if w.config.Debounce != DefaultConfig().Debounce {
		t.Errorf("Debounce = %v, want default", w.config.Debounce)
	}
	if len(w.config.Extensions) != 2 {
		t.Errorf("Extensions = %v, want the yaml defaults", w.config.Extensions)
	}
}

func TestWatchSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cadence.yaml")
	if err := os.WriteFile(path, []byte("engine: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, reloads, reloaded := startWatcher(t, Config{Path: path, Debounce: 50 * time.Millisecond})

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("engine: {max_channels: 8}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, reloaded, "reload")
	time.Sleep(150 * time.Millisecond)

	if n := reloads.Load(); n != 1 {
		t.Errorf("reloads = %d, want 1 for one burst", n)
	}
}

func TestWatchDirectoryFiltersFiles(t *testing.T) {
	dir := t.TempDir()
	_, reloads, reloaded := startWatcher(t, Config{Path: dir, Debounce: 30 * time.Millisecond, SkipHidden: true})

	for _, name := range []string{"notes.txt", ".swap.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(150 * time.Millisecond)
	if n := reloads.Load(); n != 0 {
		t.Fatalf("reloads = %d after ignored files, want 0", n)
	}

	if err := os.WriteFile(filepath.Join(dir, "banks.yml"), []byte("banks: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, reloaded, "reload")
}

func TestWatchReloadErrorKeepsWatching(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cadence.yaml")
	if err := os.WriteFile(path, []byte("a: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(Config{Path: path, Debounce: 20 * time.Millisecond}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	calls := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = w.Watch(ctx, func() error {
			calls <- struct{}{}
			return errors.New("invalid configuration")
		})
	}()
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := os.WriteFile(path, []byte("a: 2\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		waitFor(t, calls, "reload attempt")
	}
}

func TestWatchTwice(t *testing.T) {
	w, _, _ := startWatcher(t, Config{Path: t.TempDir()})
	if err := w.Watch(context.Background(), func() error { return nil }); !errors.Is(err, ErrRunning) {
		t.Errorf("second Watch() error = %v, want ErrRunning", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	w, _, _ := startWatcher(t, Config{Path: t.TempDir()})
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatchMissingPath(t *testing.T) {
	w, err := New(Config{Path: filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.Watch(context.Background(), func() error { return nil }); err == nil {
		t.Error("Watch() on a missing path succeeded")
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var got atomic.Int32
	fired := make(chan struct{}, 1)
	for i := int32(1); i <= 5; i++ {
		d.Trigger(func() {
			got.Store(i)
			fired <- struct{}{}
		})
	}

	waitFor(t, fired, "debounced callback")
	if got.Load() != 5 {
		t.Errorf("callback %d ran, want the last one", got.Load())
	}

	d.Stop()
	d.Trigger(func() { t.Error("callback ran after Stop") })
	time.Sleep(60 * time.Millisecond)
}
