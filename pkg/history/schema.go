package history

// SchemaVersion is the current history schema version.
const SchemaVersion = 1

// Schema creates the history tables. Times are stored as Unix nanoseconds
// so both drivers read them back the same way.
const Schema = `
CREATE TABLE IF NOT EXISTS play_events (
	id         TEXT PRIMARY KEY,
	session    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	clip       TEXT NOT NULL,
	requested  TEXT NOT NULL DEFAULT '',
	bank       TEXT NOT NULL DEFAULT '',
	instance   INTEGER NOT NULL DEFAULT 0,
	outcome    TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_play_events_created_at ON play_events(created_at);
CREATE INDEX IF NOT EXISTS idx_play_events_clip ON play_events(clip);
CREATE INDEX IF NOT EXISTS idx_play_events_session ON play_events(session);

CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER PRIMARY KEY,
	applied_at INTEGER NOT NULL
);
`
