package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by NewSQLiteBackend.
const (
	// DriverModernc is the pure Go modernc.org/sqlite driver.
	DriverModernc = "sqlite"

	// DriverMattn is the cgo github.com/mattn/go-sqlite3 driver.
	DriverMattn = "sqlite3"
)

// SQLiteConfig contains configuration for the SQLite backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver is DriverModernc or DriverMattn.
	// Default: DriverModernc
	Driver string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteBackend stores history in a SQLite database.
type SQLiteBackend struct {
	db     *sql.DB
	config SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteBackend opens the database, enables WAL mode and creates the
// schema.
func NewSQLiteBackend(cfg SQLiteConfig) (*SQLiteBackend, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.Driver != DriverModernc && cfg.Driver != DriverMattn {
		return nil, newStorageError("sqlite", "open", fmt.Errorf("unknown driver %q", cfg.Driver))
	}

	logger := slog.Default().With("component", "history.sqlite")

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, newStorageError("sqlite", "open", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	b := &SQLiteBackend{db: db, config: cfg, logger: logger}
	if err := b.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite history initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
	)
	return b, nil
}

func (b *SQLiteBackend) initialize() error {
	if _, err := b.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return newStorageError("sqlite", "enable_wal", err)
	}
	if _, err := b.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", b.config.BusyTimeout.Milliseconds())); err != nil {
		return newStorageError("sqlite", "set_busy_timeout", err)
	}
	if _, err := b.db.Exec(Schema); err != nil {
		return newStorageError("sqlite", "create_schema", err)
	}
	_, err := b.db.Exec(
		"INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)",
		SchemaVersion, time.Now().UnixNano(),
	)
	if err != nil {
		return newStorageError("sqlite", "schema_version", err)
	}
	return nil
}

// Record implements Backend. All events are written in one transaction.
func (b *SQLiteBackend) Record(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return newStorageError("sqlite", "record", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO play_events (id, session, kind, clip, requested, bank, instance, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return newStorageError("sqlite", "record", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		_, err := stmt.ExecContext(ctx,
			ev.ID, ev.Session, string(ev.Kind), ev.Clip, ev.Requested, ev.Bank,
			int64(ev.Instance), ev.Outcome, ev.Time.UnixNano(),
		)
		if err != nil {
			return newStorageError("sqlite", "record", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return newStorageError("sqlite", "record", err)
	}
	return nil
}

// where builds the WHERE clause for q.
func where(q Query) (string, []any) {
	var clauses []string
	var args []any

	if q.Clip != "" {
		clauses = append(clauses, "clip = ?")
		args = append(args, q.Clip)
	}
	if q.Session != "" {
		clauses = append(clauses, "session = ?")
		args = append(args, q.Session)
	}
	if q.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(q.Kind))
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, q.Since.UnixNano())
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Query implements Backend.
func (b *SQLiteBackend) Query(ctx context.Context, q Query) ([]Event, error) {
	clause, args := where(q)
	query := "SELECT id, session, kind, clip, requested, bank, instance, outcome, created_at FROM play_events" +
		clause + " ORDER BY created_at ASC, rowid ASC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev       Event
			kind     string
			instance int64
			created  int64
		)
		if err := rows.Scan(&ev.ID, &ev.Session, &kind, &ev.Clip, &ev.Requested, &ev.Bank, &instance, &ev.Outcome, &created); err != nil {
			return nil, newStorageError("sqlite", "query", err)
		}
		ev.Kind = Kind(kind)
		ev.Instance = uint64(instance)
		ev.Time = time.Unix(0, created)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("sqlite", "query", err)
	}
	return out, nil
}

// Stats implements Backend.
func (b *SQLiteBackend) Stats(ctx context.Context, since time.Time) (Stats, error) {
	stats := Stats{ByKind: make(map[Kind]int64)}

	clause, args := where(Query{Since: since})
	rows, err := b.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM play_events"+clause+" GROUP BY kind", args...)
	if err != nil {
		return Stats{}, newStorageError("sqlite", "stats", err)
	}
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			rows.Close()
			return Stats{}, newStorageError("sqlite", "stats", err)
		}
		stats.ByKind[Kind(kind)] = n
		stats.Total += n
	}
	rows.Close()

	clause, args = where(Query{Since: since, Kind: KindStart})
	rows, err = b.db.QueryContext(ctx,
		"SELECT clip, COUNT(*) AS plays FROM play_events"+clause+
			fmt.Sprintf(" GROUP BY clip ORDER BY plays DESC, clip ASC LIMIT %d", topClipLimit),
		args...)
	if err != nil {
		return Stats{}, newStorageError("sqlite", "stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cc ClipCount
		if err := rows.Scan(&cc.Clip, &cc.Plays); err != nil {
			return Stats{}, newStorageError("sqlite", "stats", err)
		}
		stats.TopClips = append(stats.TopClips, cc)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, newStorageError("sqlite", "stats", err)
	}
	return stats, nil
}

// Prune implements Backend.
func (b *SQLiteBackend) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := b.db.ExecContext(ctx, "DELETE FROM play_events WHERE created_at < ?", cutoff.UnixNano())
	if err != nil {
		return 0, newStorageError("sqlite", "prune", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, newStorageError("sqlite", "prune", err)
	}
	if n > 0 {
		b.logger.Debug("pruned history", "deleted", n, "cutoff", cutoff)
	}
	return n, nil
}

// Ping implements Backend.
func (b *SQLiteBackend) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return newStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close implements Backend.
func (b *SQLiteBackend) Close() error {
	if err := b.db.Close(); err != nil {
		return newStorageError("sqlite", "close", err)
	}
	b.logger.Info("SQLite history closed")
	return nil
}
