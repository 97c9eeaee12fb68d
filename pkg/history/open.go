package history

import (
	"fmt"
	"os"
	"path/filepath"

	"mercator-hq/cadence/pkg/config"
)

// Open creates the backend named by cfg.Backend.
func Open(cfg config.HistoryConfig) (Backend, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryBackend(), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, newStorageError("sqlite", "open", err)
			}
		}
		return NewSQLiteBackend(SQLiteConfig{Path: cfg.Path, Driver: cfg.Driver})
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
