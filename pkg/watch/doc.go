// Package watch reloads configuration when files on disk change.
//
// A Watcher wraps fsnotify. A single file is watched through its parent
// directory, so editors that save by writing a temporary file and renaming
// it over the original still trigger a reload. Directories are watched
// recursively and filtered by extension.
//
// Change bursts are collapsed by a Debouncer: the reload runs once the
// path has been quiet for the debounce interval.
//
//	w, err := watch.New(watch.Config{Path: "cadence.yaml"}, logger)
//	if err != nil {
//		return err
//	}
//	defer w.Stop()
//	go w.Watch(ctx, reload)
//
// The reload function runs on a timer goroutine. Code that touches the
// engine must hand its work over with Engine.Post.
package watch
