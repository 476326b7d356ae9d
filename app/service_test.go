package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/posched/config"
	"github.com/kilianp07/posched/core/factory"
	coremetrics "github.com/kilianp07/posched/core/metrics"
	"github.com/kilianp07/posched/core/model"
	"github.com/kilianp07/posched/core/validation"
)

const depot = "../core/scenario/testdata/depot.yaml"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Logging.Backend = "jsonl"
	cfg.Logging.Path = filepath.Join(dir, "progress.jsonl")
	cfg.Logging.Level = "warn"
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	cfg.Output.Format = "csv"
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceSolveDepot(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	res, err := svc.Solve(context.Background(), Request{ScenarioPath: depot})
	require.NoError(t, err)
	require.NotNil(t, res.Solution)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "depot", res.Scenario)
	assert.True(t, res.Solution.Metrics.IsFeasible)
	assert.NotEmpty(t, res.Solution.Assignments)
	assert.NotEmpty(t, res.Progress, "every improving solution is logged")
	for _, r := range res.Progress {
		assert.Equal(t, res.RunID, r.RunID)
	}
	_, err = os.Stat(filepath.Join(cfg.Output.Dir, "movements.csv"))
	assert.NoError(t, err)
}

func TestServiceCheck(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	sc, report, err := svc.Check(depot)
	require.NoError(t, err)
	assert.Equal(t, 2, sc.Waiting)
	assert.Empty(t, report.Violations())
}

func TestServiceReportsInfeasibleCapacity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tight.yaml")
	src := `time_axis: {type: integer}
phases: [{name: p, need: n}]
positions: [{name: A, capacity: 1, needs: [n]}]
unit_types: [{name: t}]
units: [{name: u1, type: t}, {name: u2, type: t}]
jobs:
  - {id: a, unit: u1, phase: p, start: "0", end: "2"}
  - {id: b, unit: u2, phase: p, start: "1", end: "3"}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	svc, err := New(testConfig(t))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	_, err = svc.Solve(context.Background(), Request{ScenarioPath: path, SkipExport: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, validation.ErrInfeasible))

	_, _, err = svc.Check(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestServiceRejectsBadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("units: []\n"), 0o644))
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	_, err = svc.Solve(context.Background(), Request{ScenarioPath: path})
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

type warnLog struct {
	warnings []string
}

func (l *warnLog) Debugf(string, ...any)         {}
func (l *warnLog) Debugw(string, map[string]any) {}
func (l *warnLog) Infof(string, ...any)          {}
func (l *warnLog) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}
func (l *warnLog) Errorf(string, ...any) {}

type failingStartSink struct{ coremetrics.NopSink }

func (failingStartSink) RecordRunStarted(coremetrics.RunStarted) error {
	return errors.New("influx down")
}

func TestRecordStartLogsSinkFailure(t *testing.T) {
	log := &warnLog{}
	recordStart(failingStartSink{}, coremetrics.RunStarted{RunID: "r1"}, log)
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "influx down")
}
