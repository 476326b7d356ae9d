package planner

import (
	"fmt"

	"github.com/kilianp07/posched/core/model"
	"github.com/kilianp07/posched/core/solver"
)

// addMovement derives unit_movement for every unit and tick and collects the
// position movement causes of each transition.
func (b *builder) addMovement() {
	last := b.tl.Len() - 1
	for _, u := range b.units {
		for i := 0; i <= last; i++ {
			moved := b.v.UnitMove[UnitKey{u.Name, i}]
			cur := b.active[UnitKey{u.Name, i}]
			if i == last {
				if cur == nil || b.holdAtEnd {
					b.m.Fix(moved.Not())
					continue
				}
				b.m.Fix(moved.Lit())
				b.boundary = append(b.boundary, moved)
				b.leave(cur, i, moved)
				continue
			}
			next := b.active[UnitKey{u.Name, i + 1}]
			switch {
			case cur == nil && next == nil:
				b.m.Fix(moved.Not())
			case cur == nil:
				b.m.Fix(moved.Lit())
				b.boundary = append(b.boundary, moved)
				b.enter(next, i, moved)
			case next == nil:
				b.m.Fix(moved.Lit())
				b.boundary = append(b.boundary, moved)
				b.leave(cur, i, moved)
			default:
				b.free = append(b.free, moved)
				b.transition(u, cur, next, i, moved)
			}
		}
	}
}

// leave handles a unit leaving the site after tick i.
func (b *builder) leave(j *model.Job, i int, moved solver.BoolVar) {
	for _, k := range b.v.Patterns(j.ID, i) {
		lit := b.patternVar(j.ID, i, k.Name).Lit()
		for _, p := range k.Positions {
			b.cause(p.Name, i, lit)
			for _, q := range b.conf.Triggered(p.Name, b.conf.Out) {
				b.cause(q, i, lit)
			}
		}
	}
	b.forwardLink(j, i, i, moved)
}

// enter handles a unit arriving at tick i+1.
func (b *builder) enter(j *model.Job, i int, moved solver.BoolVar) {
	for _, k := range b.v.Patterns(j.ID, i+1) {
		lit := b.patternVar(j.ID, i+1, k.Name).Lit()
		for _, p := range k.Positions {
			b.cause(p.Name, i, lit)
			for _, q := range b.conf.Triggered(b.conf.Out, p.Name) {
				b.cause(q, i, lit)
			}
		}
	}
	b.forwardLink(j, i+1, i, moved)
}

// transition links the patterns of a unit active at both i and i+1. One
// variable exists per pattern pair: stay for identical patterns, hop for
// a change. Rows and columns of this transition table sum to the pattern
// variables on each side, so exactly one entry is true and the unit moves
// iff that entry is a hop.
func (b *builder) transition(u *model.Unit, cur, next *model.Job, i int, moved solver.BoolVar) {
	from := b.v.Patterns(cur.ID, i)
	to := b.v.Patterns(next.ID, i+1)
	rows := make(map[string][]solver.Term, len(from))
	cols := make(map[string][]solver.Term, len(to))
	hops := []solver.Term{{Lit: moved.Lit(), Coef: -1}}

	for _, k0 := range from {
		for _, k1 := range to {
			var v solver.BoolVar
			if k0.Name == k1.Name {
				v = b.m.NewBoolVar(fmt.Sprintf("stay[%s][%d][%s]", u.Name, i, k0.Name))
			} else {
				v = b.m.NewBoolVar(fmt.Sprintf("hop[%s][%d][%s->%s]", u.Name, i, k0.Name, k1.Name))
				hops = append(hops, solver.Term{Lit: v.Lit(), Coef: 1})
				for _, q := range b.cascade(k0, k1) {
					b.cause(q, i, v.Lit())
				}
				b.counts["hop"]++
			}
			rows[k0.Name] = append(rows[k0.Name], solver.Term{Lit: v.Lit(), Coef: 1})
			cols[k1.Name] = append(cols[k1.Name], solver.Term{Lit: v.Lit(), Coef: 1})
		}
	}
	for _, k0 := range from {
		terms := append(rows[k0.Name], solver.Term{Lit: b.patternVar(cur.ID, i, k0.Name).Lit(), Coef: -1})
		b.m.AddLinear(terms, 0, 0)
	}
	for _, k1 := range to {
		terms := append(cols[k1.Name], solver.Term{Lit: b.patternVar(next.ID, i+1, k1.Name).Lit(), Coef: -1})
		b.m.AddLinear(terms, 0, 0)
	}
	b.m.AddLinear(hops, 0, 0)

	b.forwardLink(cur, i, i, moved)
	b.forwardLink(next, i+1, i, moved)
}

// cascade lists the positions registering a movement when a unit hops from
// pattern k0 to k1: both patterns' positions and every position triggered
// by a (p_out in k0, p_in in k1) pair.
func (b *builder) cascade(k0, k1 *model.Pattern) []string {
	seen := map[string]bool{}
	var out []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, p := range k0.Positions {
		add(p.Name)
	}
	for _, p := range k1.Positions {
		add(p.Name)
	}
	for _, pOut := range k0.Positions {
		for _, pIn := range k1.Positions {
			for _, q := range b.conf.Triggered(pOut.Name, pIn.Name) {
				add(q)
			}
		}
	}
	return out
}

// forwardLink states that a unit assigned to a position at tick at, moving
// at tick i, registers a movement of that position at i.
func (b *builder) forwardLink(j *model.Job, at, i int, moved solver.BoolVar) {
	for _, pos := range b.v.CompatiblePositions(j.ID) {
		x, ok := b.v.Assigned[AssignKey{j.ID, pos, at}]
		if !ok {
			continue
		}
		pm := b.v.PositionMove[PositionKey{pos, i}]
		b.m.AddBoolOr(x.Not(), moved.Not(), pm.Lit())
		b.counts["forward_link"]++
	}
}
