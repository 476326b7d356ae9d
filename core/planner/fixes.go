package planner

import (
	"fmt"

	"github.com/kilianp07/posched/core/model"
	"github.com/kilianp07/posched/core/solver"
)

// fix records l to be forced true. Fixes recorded before the constraints are
// emitted are consumed at that point; later ones go straight to the model.
func (p *Problem) fix(l solver.Literal) error {
	if p.state == Solved {
		return ErrAlreadySolved
	}
	if p.state >= ConstraintsAdded {
		p.model.Fix(l)
		return nil
	}
	p.fixes = append(p.fixes, l)
	return nil
}

func (p *Problem) ready() error {
	if p.state == Solved {
		return ErrAlreadySolved
	}
	return p.advance(VariablesBuilt)
}

func lit(v solver.BoolVar, value bool) solver.Literal {
	if value {
		return v.Lit()
	}
	return v.Not()
}

// FixAssignment forces assigned[job][position][index] to value.
func (p *Problem) FixAssignment(job, position string, index int, value bool) error {
	if err := p.ready(); err != nil {
		return err
	}
	v, ok := p.vars.Assigned[AssignKey{Job: job, Position: position, Index: index}]
	if !ok {
		return fmt.Errorf("%w: no assignment variable for job %s, position %s, index %d", ErrLookup, job, position, index)
	}
	return p.fix(lit(v, value))
}

// FixPatternAssignment forces pattern_assigned[job][index][pattern] to value.
func (p *Problem) FixPatternAssignment(job string, index int, pattern string, value bool) error {
	if err := p.ready(); err != nil {
		return err
	}
	v, ok := p.vars.Pattern[PatternKey{Job: job, Index: index, Pattern: pattern}]
	if !ok {
		return fmt.Errorf("%w: no pattern variable for job %s, index %d, pattern %s", ErrLookup, job, index, pattern)
	}
	return p.fix(lit(v, value))
}

// FixUnitMovement forces unit_movement[unit][index] to value.
func (p *Problem) FixUnitMovement(unit string, index int, value bool) error {
	if err := p.ready(); err != nil {
		return err
	}
	v, ok := p.vars.UnitMove[UnitKey{Unit: unit, Index: index}]
	if !ok {
		return fmt.Errorf("%w: no movement variable for unit %s, index %d", ErrLookup, unit, index)
	}
	return p.fix(lit(v, value))
}

// ApplyInitialConditions pins, for every listed unit, the pattern whose
// positions exactly equal the occupied positions at the horizon start.
func (p *Problem) ApplyInitialConditions(occupied map[string][]string) error {
	if err := p.ready(); err != nil {
		return err
	}
	i0, ok := p.timeline.Index(p.t0)
	if !ok {
		return fmt.Errorf("%w: horizon start %d missing from timeline", ErrLookup, p.t0)
	}
	units := map[string]*model.Unit{}
	for _, u := range p.unitList {
		units[u.Name] = u
	}
	for name, positions := range occupied {
		u, ok := units[name]
		if !ok {
			return fmt.Errorf("%w: initial conditions reference unknown unit %s", model.ErrConfiguration, name)
		}
		for _, pos := range positions {
			if _, ok := p.conf.Index(pos); !ok || pos == p.conf.Out {
				return fmt.Errorf("%w: initial conditions of %s reference unknown position %s", model.ErrConfiguration, name, pos)
			}
		}
		job := p.active[UnitKey{u.Name, i0}]
		if job == nil {
			return fmt.Errorf("%w: no active job for unit %s at horizon start", model.ErrConfiguration, name)
		}
		for _, pos := range positions {
			if !p.positionByName(pos).Satisfies(job.Need()) {
				return fmt.Errorf("%w: position %s cannot serve need %s of job %s", model.ErrConfiguration, pos, job.Need().Name, job.ID)
			}
		}
		var match *model.Pattern
		for _, k := range u.Type.Patterns {
			if k.Matches(positions) {
				match = k
				break
			}
		}
		if match == nil {
			return fmt.Errorf("%w: no pattern of %s occupies exactly %v", model.ErrConfiguration, u.Type.Name, positions)
		}
		if err := p.FixPatternAssignment(job.ID, i0, match.Name, true); err != nil {
			return fmt.Errorf("initial conditions of %s: %w", name, err)
		}
		p.log.Debugf("unit %s starts in pattern %s for job %s", name, match.Name, job.ID)
	}
	return nil
}

func (p *Problem) positionByName(name string) *model.Position {
	for _, pos := range p.in.Positions {
		if pos.Name == name {
			return pos
		}
	}
	return nil
}
