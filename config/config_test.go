package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kilianp07/posched/core/model"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `solver:
  time_limit_seconds: 2.5
  inactivity_timeout_seconds: 1
  node_limit: 1000
  lp_bound: false
horizon:
  ticks: 30
  hold_at_end: true
objective:
  kind: position_movements
  count_boundary: true
logging:
  backend: sqlite
metrics:
  sinks:
    - type: "nop"
  prometheus_addr: ":9100"
output:
  format: csv
  dir: results
sentry:
  environment: test
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"time_limit", cfg.Solver.TimeLimit(), 2500 * time.Millisecond},
		{"inactivity", cfg.Solver.InactivityTimeout(), time.Second},
		{"node_limit", cfg.Solver.NodeLimit, int64(1000)},
		{"lp_bound", *cfg.Solver.LPBound, false},
		{"lp_max_cells", cfg.Solver.LPMaxCells, 250000},
		{"horizon.ticks", cfg.Horizon.Ticks, 30},
		{"horizon.hold_at_end", cfg.Horizon.HoldAtEnd, true},
		{"objective.kind", cfg.Objective.Kind, "position_movements"},
		{"objective.count_boundary", cfg.Objective.CountBoundary, true},
		{"logging.path", cfg.Logging.Path, "progress.db"},
		{"logging.level", cfg.Logging.Level, "info"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"output.format", cfg.Output.Format, "csv"},
		{"output.dir", cfg.Output.Dir, "results"},
		{"sentry.environment", cfg.Sentry.Environment, "test"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Horizon.Ticks != 365 || cfg.Objective.Kind != "unit_movements" || cfg.Output.Format != "json" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !*cfg.Solver.LPBound {
		t.Fatalf("lp bound should default to enabled")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_HORIZON__TICKS", "12")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Horizon.Ticks != 12 {
		t.Fatalf("expected env override, got %d", cfg.Horizon.Ticks)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"objective":{"kind":"fastest"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(path)
	if !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"logging":{"backend":"kafka"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected backend error")
	}

	if _, err := Load(filepath.Join(dir, "config.toml")); err == nil {
		t.Fatalf("expected format error")
	}
}
