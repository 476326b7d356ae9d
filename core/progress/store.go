// Package progress persists the append-only log of improving solutions found
// during a solve: iteration, elapsed time, objective and bound. The log is
// purely observational.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/posched/core/logger"
	"github.com/kilianp07/posched/core/solver"
)

// Record captures one improving solution.
type Record struct {
	RunID     string    `json:"run_id"`
	Iteration int       `json:"iteration"`
	Timestamp time.Time `json:"timestamp"`
	ElapsedMS int64     `json:"elapsed_ms"`
	Objective int64     `json:"objective"`
	Bound     int64     `json:"bound"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	RunID string
	Start time.Time
	End   time.Time
}

func (q Query) match(r Record) bool {
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore drops everything.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error         { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                 { return nil }

// Options select and tune a backend.
type Options struct {
	Backend    string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Open returns the store for opts.Backend: "jsonl", "rotating", "sqlite", or
// "none"/"" for a NopStore.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", "none":
		return NopStore{}, nil
	case "jsonl":
		return NewJSONLStore(opts.Path)
	case "rotating":
		return NewRotatingJSONLStore(opts.Path, opts.MaxSizeMB, opts.MaxBackups, opts.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(opts.Path)
	default:
		return nil, fmt.Errorf("unknown progress backend %q", opts.Backend)
	}
}

// Recorder returns a progress callback appending to store under runID.
// Write failures are logged and never interrupt the search.
func Recorder(ctx context.Context, store Store, runID string, log logger.Logger) func(solver.Progress) {
	log = logger.OrNop(log)
	return func(p solver.Progress) {
		rec := Record{
			RunID:     runID,
			Iteration: p.Iteration,
			Timestamp: time.Now(),
			ElapsedMS: p.Elapsed.Milliseconds(),
			Objective: p.Objective,
			Bound:     p.Bound,
		}
		if err := store.Append(ctx, rec); err != nil {
			log.Warnf("progress log append: %v", err)
		}
	}
}
