package solver

import (
	"context"
	"time"
)

// Status is the outcome of a solve.
type Status int

const (
	Unknown Status = iota
	ModelInvalid
	Feasible
	Infeasible
	Optimal
)

func (s Status) String() string {
	switch s {
	case ModelInvalid:
		return "MODEL_INVALID"
	case Feasible:
		return "FEASIBLE"
	case Infeasible:
		return "INFEASIBLE"
	case Optimal:
		return "OPTIMAL"
	default:
		return "UNKNOWN"
	}
}

// HasSolution reports whether variable values are available.
func (s Status) HasSolution() bool { return s == Feasible || s == Optimal }

// Progress describes an improving solution.
type Progress struct {
	Iteration int
	Elapsed   time.Duration
	Objective int64
	Bound     int64
}

// Options tune a solve. Zero values mean no limit.
type Options struct {
	TimeLimit time.Duration
	NodeLimit int64
	// OnSolution is called synchronously on each improving solution.
	OnSolution func(Progress)
}

// Stats are search counters reported by the engine.
type Stats struct {
	Nodes        int64
	Backtracks   int64
	Propagations int64
	Solutions    int
}

// Response is the result of a solve. Values are only meaningful when
// Status.HasSolution is true.
type Response struct {
	Status    Status
	Objective int64
	BestBound int64
	WallTime  time.Duration
	Stats     Stats
	Values    []bool
}

// Value returns the solved value of v.
func (r *Response) Value(v BoolVar) bool {
	if int(v) >= len(r.Values) {
		return false
	}
	return r.Values[v]
}

// LitValue returns the solved value of l.
func (r *Response) LitValue(l Literal) bool { return r.Value(l.Var()) != l.Negated() }

// Engine solves models. Cancelling ctx asks the engine to stop at its next
// safe point and return the best solution found so far.
type Engine interface {
	Solve(ctx context.Context, m *Model, opts Options) (*Response, error)
}
