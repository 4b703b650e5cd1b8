package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/clsprm/core/lotsizing"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `model:
  setup_cost_mode: corrected
  linkage: big_m
solver:
  backend: bnb
  time_limit: 45s
  conf:
    max_nodes: 2000
logging:
  level: debug
  history_path: /var/lib/clsprm/history.jsonl
  max_size_mb: 10
metrics:
  sinks:
    - type: prometheus
      conf:
        textfile: /tmp/clsprm.prom
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"setup_cost_mode", cfg.Model.SetupCostMode, lotsizing.SetupCostCorrected},
		{"linkage", cfg.Model.Linkage, lotsizing.LinkageBigM},
		{"backend", cfg.Solver.Backend, "bnb"},
		{"time_limit", cfg.Solver.TimeLimit, 45 * time.Second},
		{"level", cfg.Logging.Level, "debug"},
		{"history", cfg.Logging.History().Path, "/var/lib/clsprm/history.jsonl"},
		{"rotate", cfg.Logging.History().RotateMB, 10},
		{"sink", cfg.Metrics.Sinks[0].Type, "prometheus"},
		{"textfile", cfg.Metrics.Sinks[0].Conf["textfile"], "/tmp/clsprm.prom"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
	assert.EqualValues(t, 2000, cfg.Solver.Conf["max_nodes"])
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"model": {"linkage": "indicator"}, "logging": {"level": "warn"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, lotsizing.LinkageIndicator, cfg.Model.Linkage)
	assert.Equal(t, lotsizing.SetupCostBaseline, cfg.Model.SetupCostMode)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, lotsizing.SetupCostBaseline, cfg.Model.SetupCostMode)
	assert.Equal(t, lotsizing.LinkageIndicator, cfg.Model.Linkage)
	assert.Equal(t, "bnb", cfg.Solver.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.HistoryPath)
	assert.Equal(t, "jsonl", cfg.Logging.History().Backend)
	assert.Empty(t, cfg.Metrics.Sinks)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CLSPRM_MODEL__SETUP_COST_MODE", "corrected")
	t.Setenv("CLSPRM_SOLVER__TIME_LIMIT", "2m")
	t.Setenv("CLSPRM_LOGGING__HISTORY_PATH", "/tmp/h.jsonl")

	path := writeFile(t, "config.yaml", "model:\n  setup_cost_mode: baseline\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, lotsizing.SetupCostCorrected, cfg.Model.SetupCostMode)
	assert.Equal(t, 2*time.Minute, cfg.Solver.TimeLimit)
	assert.Equal(t, "/tmp/h.jsonl", cfg.Logging.HistoryPath)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"format", "config.toml", "x = 1"},
		{"linkage", "config.yaml", "model:\n  linkage: sos\n"},
		{"level", "config.yaml", "logging:\n  level: loud\n"},
		{"time limit", "config.yaml", "solver:\n  time_limit: -1s\n"},
		{"rotation", "config.yaml", "logging:\n  max_backups: -2\n"},
		{"history backend", "config.yaml", "logging:\n  history_backend: redis\n"},
		{"sentry rate", "config.yaml", "sentry:\n  traces_sample_rate: 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.data))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
