// Package solution reads a solved planner.Problem back into plain tables.
// Extraction never touches the model; a Solution is a read-only snapshot.
package solution

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/posched/core/planner"
	"github.com/kilianp07/posched/core/solver"
	"github.com/kilianp07/posched/core/validation"
)

// ErrNotSolved is returned when extracting from an unsolved problem.
var ErrNotSolved = errors.New("problem not solved")

// Assignment is one true assigned[job][position][index].
type Assignment struct {
	Job      string `json:"job"`
	Unit     string `json:"unit"`
	Phase    string `json:"phase"`
	Position string `json:"position"`
	Index    int    `json:"index"`
	Tick     int    `json:"tick"`
	Time     string `json:"time"`
}

// Movement is one true unit_movement[unit][index]: the unit leaves From at
// Index and occupies To at the next compressed tick.
type Movement struct {
	Unit          string   `json:"unit"`
	Index         int      `json:"index"`
	Tick          int      `json:"tick"`
	Time          string   `json:"time"`
	From          string   `json:"from"`
	To            string   `json:"to"`
	FromPositions []string `json:"from_positions"`
	ToPositions   []string `json:"to_positions"`
}

// PatternChoice is one true pattern_assigned[job][index][pattern].
type PatternChoice struct {
	Job       string   `json:"job"`
	Unit      string   `json:"unit"`
	Index     int      `json:"index"`
	Tick      int      `json:"tick"`
	Time      string   `json:"time"`
	Pattern   string   `json:"pattern"`
	Positions []string `json:"positions"`
}

// PositionMovement is one true position_movement[position][index].
type PositionMovement struct {
	Position string `json:"position"`
	Index    int    `json:"index"`
	Tick     int    `json:"tick"`
	Time     string `json:"time"`
}

// Metrics summarizes the solve.
type Metrics struct {
	Status     string         `json:"status"`
	IsOptimal  bool           `json:"is_optimal"`
	IsFeasible bool           `json:"is_feasible"`
	Objective  int64          `json:"objective"`
	BestBound  int64          `json:"best_bound"`
	WallTime   time.Duration  `json:"wall_time"`
	Solutions  int            `json:"solutions"`
	Nodes      int64          `json:"nodes"`
	Variables  map[string]int `json:"variables"`
}

// Solution holds the result tables.
type Solution struct {
	Assignments       []Assignment              `json:"assignments"`
	Movements         []Movement                `json:"movements"`
	Patterns          []PatternChoice           `json:"patterns"`
	PositionMovements []PositionMovement        `json:"position_movements"`
	Metrics           Metrics                   `json:"metrics"`
	Report            validation.CapacityReport `json:"capacity_report"`
}

// Extract builds the tables of a solved problem. Without a solution only
// Metrics and Report are filled.
func Extract(p *planner.Problem) (*Solution, error) {
	resp := p.Response()
	if p.State() != planner.Solved || resp == nil {
		return nil, fmt.Errorf("%w: state %s", ErrNotSolved, p.State())
	}
	v := p.Variables()
	sol := &Solution{
		Report: p.Report(),
		Metrics: Metrics{
			Status:     resp.Status.String(),
			IsOptimal:  resp.Status == solver.Optimal,
			IsFeasible: resp.Status.HasSolution(),
			Objective:  resp.Objective,
			BestBound:  resp.BestBound,
			WallTime:   resp.WallTime,
			Solutions:  resp.Stats.Solutions,
			Nodes:      resp.Stats.Nodes,
			Variables:  v.Count(),
		},
	}
	if !resp.Status.HasSolution() {
		return sol, nil
	}

	tl := p.Timeline()
	adapter := p.Adapter()
	at := func(i int) (int, string) { return tl.Tick(i), adapter.Format(tl.Value(i)) }

	jobs := map[string]struct{ unit, phase string }{}
	for _, j := range p.Jobs() {
		jobs[j.ID] = struct{ unit, phase string }{j.Unit.Name, j.Phase.Name}
	}

	for k, x := range v.Assigned {
		if !resp.Value(x) {
			continue
		}
		tick, when := at(k.Index)
		info := jobs[k.Job]
		sol.Assignments = append(sol.Assignments, Assignment{
			Job: k.Job, Unit: info.unit, Phase: info.phase, Position: k.Position,
			Index: k.Index, Tick: tick, Time: when,
		})
	}
	sort.Slice(sol.Assignments, func(i, j int) bool {
		a, b := sol.Assignments[i], sol.Assignments[j]
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		return a.Position < b.Position
	})

	// occupied maps (unit, index) to the chosen pattern.
	occupied := map[planner.UnitKey]PatternChoice{}
	for k, x := range v.Pattern {
		if !resp.Value(x) {
			continue
		}
		tick, when := at(k.Index)
		info := jobs[k.Job]
		var positions []string
		for _, pat := range v.Patterns(k.Job, k.Index) {
			if pat.Name == k.Pattern {
				positions = pat.PositionNames()
			}
		}
		c := PatternChoice{Job: k.Job, Unit: info.unit, Index: k.Index, Tick: tick, Time: when, Pattern: k.Pattern, Positions: positions}
		sol.Patterns = append(sol.Patterns, c)
		occupied[planner.UnitKey{Unit: info.unit, Index: k.Index}] = c
	}
	sort.Slice(sol.Patterns, func(i, j int) bool {
		a, b := sol.Patterns[i], sol.Patterns[j]
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		return a.Index < b.Index
	})

	out := p.Layout().Out
	where := func(unit string, i int) (string, []string) {
		c, ok := occupied[planner.UnitKey{Unit: unit, Index: i}]
		if !ok {
			return out, []string{out}
		}
		return strings.Join(c.Positions, "+"), c.Positions
	}
	for k, x := range v.UnitMove {
		if !resp.Value(x) {
			continue
		}
		tick, when := at(k.Index)
		from, fromPos := where(k.Unit, k.Index)
		to, toPos := where(k.Unit, k.Index+1)
		sol.Movements = append(sol.Movements, Movement{
			Unit: k.Unit, Index: k.Index, Tick: tick, Time: when,
			From: from, To: to, FromPositions: fromPos, ToPositions: toPos,
		})
	}
	sort.Slice(sol.Movements, func(i, j int) bool {
		a, b := sol.Movements[i], sol.Movements[j]
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		return a.Index < b.Index
	})

	for k, x := range v.PositionMove {
		if !resp.Value(x) {
			continue
		}
		tick, when := at(k.Index)
		sol.PositionMovements = append(sol.PositionMovements, PositionMovement{Position: k.Position, Index: k.Index, Tick: tick, Time: when})
	}
	sort.Slice(sol.PositionMovements, func(i, j int) bool {
		a, b := sol.PositionMovements[i], sol.PositionMovements[j]
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Position < b.Position
	})
	return sol, nil
}

// MovementCount returns the number of unit movements per unit.
func (s *Solution) MovementCount() map[string]int {
	out := map[string]int{}
	for _, m := range s.Movements {
		out[m.Unit]++
	}
	return out
}
