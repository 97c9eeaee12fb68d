// Package history keeps a durable record of what the engine played.
//
// Every play request produces an Event: a start when an instance begins,
// a stop when it is removed (with the reason as Outcome), or a denial when
// the request produced nothing (with the error code as Outcome). Events
// are grouped by Session, a UUID assigned per engine run.
//
// # Backends
//
// MemoryBackend keeps events in a slice and is the default. SQLiteBackend
// writes to a SQLite database in WAL mode through either the pure Go
// modernc.org/sqlite driver ("sqlite") or the cgo mattn/go-sqlite3 driver
// ("sqlite3"). Open picks one from config.HistoryConfig.
//
// # Recording
//
// The engine never writes to a backend directly. It hands events to a
// Recorder, which queues them on a buffered channel and writes them from a
// worker goroutine:
//
//	rec := history.NewRecorder(backend, history.RecorderConfig{Session: id})
//	defer rec.Close()
//	rec.Record(history.Event{Kind: history.KindStart, Clip: "click"})
//
// # Retention
//
// Scheduler prunes events older than the retention period on a cron
// schedule (robfig/cron standard syntax, e.g. "0 * * * *").
package history
