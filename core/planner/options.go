package planner

import "time"

// ObjectiveKind selects what Minimize counts.
type ObjectiveKind string

const (
	// UnitMovements counts unit relocations.
	UnitMovements ObjectiveKind = "unit_movements"
	// PositionMovements counts position movement registrations.
	PositionMovements ObjectiveKind = "position_movements"
)

// DefaultHorizonTicks is used when no t_last is given.
const DefaultHorizonTicks = 365

// Options shape the model.
type Options struct {
	// T0 is the horizon start as a domain value. Nil selects the earliest
	// job start.
	T0 any
	// TLast is the horizon end as a domain value. Nil selects
	// T0 + HorizonTicks.
	TLast        any
	HorizonTicks int
	// Anchors are extra domain values forced into the compressed timeline.
	Anchors []any
	// HoldAtHorizonEnd stops the last tick from counting as a movement.
	HoldAtHorizonEnd bool
	Objective        ObjectiveKind
	// CountBoundary makes the unit objective count movements forced by job
	// windows (entering, leaving, horizon end) in addition to relocations.
	CountBoundary bool
}

func (o *Options) setDefaults() {
	if o.HorizonTicks <= 0 {
		o.HorizonTicks = DefaultHorizonTicks
	}
	if o.Objective == "" {
		o.Objective = UnitMovements
	}
}

// SolveOptions tune one call to Solve.
type SolveOptions struct {
	TimeLimit time.Duration
	NodeLimit int64
	// InactivityTimeout stops the search once a solution exists and no
	// better one was found for this long. Zero disables the monitor.
	InactivityTimeout time.Duration
	// PollInterval is the monitor period. It defaults to a tenth of the
	// inactivity timeout.
	PollInterval time.Duration
	// OnProgress receives every improving solution.
	OnProgress func(Progress)
}
