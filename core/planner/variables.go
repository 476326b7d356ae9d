package planner

import (
	"fmt"
	"sort"

	"github.com/kilianp07/posched/core/model"
	"github.com/kilianp07/posched/core/solver"
	"github.com/kilianp07/posched/core/timeaxis"
	"github.com/kilianp07/posched/core/validation"
)

// AssignKey addresses assigned[job][position][index].
type AssignKey struct {
	Job      string
	Position string
	Index    int
}

// PatternKey addresses pattern_assigned[job][index][pattern].
type PatternKey struct {
	Job     string
	Index   int
	Pattern string
}

// UnitKey addresses unit_movement[unit][index].
type UnitKey struct {
	Unit  string
	Index int
}

// PositionKey addresses position_movement[position][index].
type PositionKey struct {
	Position string
	Index    int
}

type jobTick struct {
	job   string
	index int
}

// Variables holds the four sparse decision families.
type Variables struct {
	Assigned     map[AssignKey]solver.BoolVar
	Pattern      map[PatternKey]solver.BoolVar
	UnitMove     map[UnitKey]solver.BoolVar
	PositionMove map[PositionKey]solver.BoolVar

	positions    map[string][]string
	patterns     map[jobTick][]*model.Pattern
	byPosition   map[PositionKey][]AssignKey
	orderedJobs  []*model.Job
	orderedTicks int
}

// CompatiblePositions returns the positions able to serve job, in site order.
func (v *Variables) CompatiblePositions(job string) []string { return v.positions[job] }

// Patterns returns the patterns available to job at index.
func (v *Variables) Patterns(job string, index int) []*model.Pattern {
	return v.patterns[jobTick{job, index}]
}

// AssignedAt returns the assignment variables of every job on a position at
// index.
func (v *Variables) AssignedAt(position string, index int) []AssignKey {
	return v.byPosition[PositionKey{position, index}]
}

// Count returns the number of variables per family.
func (v *Variables) Count() map[string]int {
	return map[string]int{
		"assigned":          len(v.Assigned),
		"pattern_assigned":  len(v.Pattern),
		"unit_movement":     len(v.UnitMove),
		"position_movement": len(v.PositionMove),
	}
}

// buildVariables creates the sparse families. A job without a compatible
// position or pattern makes the problem structurally infeasible.
func buildVariables(m *solver.Model, jobs []*model.Job, positions []*model.Position, units []*model.Unit, tl *timeaxis.Timeline) (*Variables, error) {
	v := &Variables{
		Assigned:     map[AssignKey]solver.BoolVar{},
		Pattern:      map[PatternKey]solver.BoolVar{},
		UnitMove:     map[UnitKey]solver.BoolVar{},
		PositionMove: map[PositionKey]solver.BoolVar{},
		positions:    map[string][]string{},
		patterns:     map[jobTick][]*model.Pattern{},
		byPosition:   map[PositionKey][]AssignKey{},
		orderedJobs:  jobs,
		orderedTicks: tl.Len(),
	}

	for _, j := range jobs {
		compatible := map[string]bool{}
		for _, p := range positions {
			if p.Satisfies(j.Need()) {
				compatible[p.Name] = true
				v.positions[j.ID] = append(v.positions[j.ID], p.Name)
			}
		}
		if len(compatible) == 0 {
			return nil, fmt.Errorf("%w: job %s needs %s but no position offers it", validation.ErrInfeasible, j.ID, j.Need().Name)
		}

		var usable []*model.Pattern
		for _, k := range j.Unit.Type.Patterns {
			ok := true
			for _, p := range k.Positions {
				if !compatible[p.Name] {
					ok = false
					break
				}
			}
			if ok {
				usable = append(usable, k)
			}
		}
		if len(usable) == 0 {
			return nil, fmt.Errorf("%w: no pattern of %s fits job %s", validation.ErrInfeasible, j.Unit.Type.Name, j.ID)
		}

		for _, i := range tl.ActiveIndices(j) {
			for _, pos := range v.positions[j.ID] {
				key := AssignKey{Job: j.ID, Position: pos, Index: i}
				v.Assigned[key] = m.NewBoolVar(fmt.Sprintf("assigned[%s][%s][%d]", j.ID, pos, i))
				pk := PositionKey{pos, i}
				v.byPosition[pk] = append(v.byPosition[pk], key)
			}
			v.patterns[jobTick{j.ID, i}] = usable
			for _, k := range usable {
				v.Pattern[PatternKey{Job: j.ID, Index: i, Pattern: k.Name}] = m.NewBoolVar(fmt.Sprintf("pattern[%s][%d][%s]", j.ID, i, k.Name))
			}
		}
	}

	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	sort.Strings(names)
	for _, u := range names {
		for i := 0; i < tl.Len(); i++ {
			v.UnitMove[UnitKey{u, i}] = m.NewBoolVar(fmt.Sprintf("unit_movement[%s][%d]", u, i))
		}
	}
	for _, p := range positions {
		for i := 0; i < tl.Len(); i++ {
			v.PositionMove[PositionKey{p.Name, i}] = m.NewBoolVar(fmt.Sprintf("position_movement[%s][%d]", p.Name, i))
		}
	}
	return v, nil
}

// searchOrder lists pattern variables tick by tick, then job by job.
func (v *Variables) searchOrder() []solver.BoolVar {
	var out []solver.BoolVar
	for i := 0; i < v.orderedTicks; i++ {
		for _, j := range v.orderedJobs {
			for _, k := range v.patterns[jobTick{j.ID, i}] {
				out = append(out, v.Pattern[PatternKey{Job: j.ID, Index: i, Pattern: k.Name}])
			}
		}
	}
	return out
}
