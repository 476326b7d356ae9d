package metrics

import "time"

// RunStarted is emitted once the model is built and handed to the engine.
type RunStarted struct {
	RunID       string
	Scenario    string
	Jobs        int
	Ticks       int
	Variables   int
	Constraints int
	Time        time.Time
}

// ProgressEvent reports one improving solution.
type ProgressEvent struct {
	RunID     string
	Iteration int
	Elapsed   time.Duration
	Objective int64
	Bound     int64
	Time      time.Time
}

// RunResult summarizes a finished solve.
type RunResult struct {
	RunID     string
	Scenario  string
	Status    string
	Objective int64
	BestBound int64
	WallTime  time.Duration
	Movements int
	Solutions int
	Nodes     int64
	Time      time.Time
}

// MetricsSink records the outcome of solver runs.
type MetricsSink interface {
	RecordRunResult(res RunResult) error
}

// ProgressRecorder records improving solutions as they are found.
type ProgressRecorder interface {
	RecordProgress(ev ProgressEvent) error
}

// RunStartRecorder records model sizes at the start of a run.
type RunStartRecorder interface {
	RecordRunStarted(ev RunStarted) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRunResult(RunResult) error      { return nil }
func (NopSink) RecordProgress(ProgressEvent) error   { return nil }
func (NopSink) RecordRunStarted(RunStarted) error    { return nil }

// MultiSink fans events out to several sinks, returning the first error.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordRunResult(res RunResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordRunResult(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordProgress forwards to sinks implementing ProgressRecorder.
func (m *MultiSink) RecordProgress(ev ProgressEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ProgressRecorder); ok {
			if err := rec.RecordProgress(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRunStarted forwards to sinks implementing RunStartRecorder.
func (m *MultiSink) RecordRunStarted(ev RunStarted) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RunStartRecorder); ok {
			if err := rec.RecordRunStarted(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
