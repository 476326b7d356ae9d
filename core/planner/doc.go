// Package planner turns positions, unit types, units and jobs into a boolean
// model for a solver.Engine and drives its lifecycle:
//
//	Constructed -> Preprocessed -> VariablesBuilt -> ConstraintsAdded
//	            -> ObjectiveSet -> Solved
//
// Pre-processing clips jobs to the horizon, compresses the timeline and runs
// the structural checks of package validation. Variables are sparse: an
// assignment variable only exists for a position able to serve the job's
// need during one of the job's active ticks, and a pattern variable only
// where every position of the pattern has an assignment variable.
//
// Movement is never given as input. A unit moves between two consecutive
// compressed ticks when its pattern changes, when it enters or leaves the
// site, and at the last tick while still active. Each movement registers
// position movements for the positions it leaves, the positions it enters and
// the positions triggered by the layout configuration; any unit sitting in a
// position that registers a movement is itself moved.
package planner
