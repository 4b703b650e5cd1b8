package config

import (
	"fmt"

	"github.com/kilianp07/clsprm/infra/history"
	"github.com/kilianp07/clsprm/infra/logger"
)

// LoggingConfig defines the log level and where run history is kept.
type LoggingConfig struct {
	Level string `json:"level"`
	// HistoryBackend selects the run history store: "jsonl" or "sqlite".
	HistoryBackend string `json:"history_backend"`
	// HistoryPath is the JSONL run history; empty disables it.
	HistoryPath string `json:"history_path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.HistoryBackend == "" {
		c.HistoryBackend = "jsonl"
	}
}

// Validate checks the level and rotation settings.
func (c LoggingConfig) Validate() error {
	if _, err := logger.ParseLevel(c.Level); err != nil {
		return err
	}
	if c.HistoryBackend != "jsonl" && c.HistoryBackend != "sqlite" {
		return fmt.Errorf("unknown history backend %s", c.HistoryBackend)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("rotation settings must be non-negative")
	}
	return nil
}

// History returns the history store settings.
func (c LoggingConfig) History() history.Config {
	return history.Config{
		Backend:    c.HistoryBackend,
		Path:       c.HistoryPath,
		RotateMB:   c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}
