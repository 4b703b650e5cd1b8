package history

import (
	"fmt"

	corehistory "github.com/kilianp07/clsprm/core/history"
)

// Config selects the history backend.
type Config struct {
	// Backend is "jsonl" (default) or "sqlite".
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// RotateMB enables rotation once the file grows past this size.
	RotateMB   int `json:"rotate_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
}

// Open returns the store described by cfg. An empty path disables history.
func Open(cfg Config) (corehistory.Store, error) {
	switch {
	case cfg.Path == "":
		return corehistory.NopStore{}, nil
	case cfg.Backend == "sqlite":
		return NewSQLiteStore(cfg.Path)
	case cfg.Backend != "" && cfg.Backend != "jsonl":
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	case cfg.RotateMB > 0:
		return NewRotatingJSONLStore(cfg.Path, cfg.RotateMB, cfg.MaxBackups, cfg.MaxAgeDays)
	default:
		return NewJSONLStore(cfg.Path)
	}
}
