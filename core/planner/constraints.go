package planner

import (
	"sort"

	"github.com/kilianp07/posched/core/layout"
	"github.com/kilianp07/posched/core/model"
	"github.com/kilianp07/posched/core/solver"
	"github.com/kilianp07/posched/core/timeaxis"
)

// builder emits constraints over a Variables set.
type builder struct {
	m         *solver.Model
	v         *Variables
	tl        *timeaxis.Timeline
	positions []*model.Position
	units     []*model.Unit
	jobs      map[string]*model.Job
	active    map[UnitKey]*model.Job
	conf      *layout.Configuration
	holdAtEnd bool

	// causes collects, per position movement variable, the literals that
	// register it.
	causes   map[PositionKey][]solver.Literal
	free     []solver.BoolVar
	boundary []solver.BoolVar
	counts   map[string]int
}

func newBuilder(p *Problem) *builder {
	return &builder{
		m:         p.model,
		v:         p.vars,
		tl:        p.timeline,
		positions: p.in.Positions,
		units:     p.units(),
		jobs:      p.jobIndex,
		active:    p.active,
		conf:      p.conf,
		holdAtEnd: p.opts.HoldAtHorizonEnd,
		causes:    map[PositionKey][]solver.Literal{},
		counts:    map[string]int{},
	}
}

func (b *builder) patternVar(job string, i int, k string) solver.BoolVar {
	return b.v.Pattern[PatternKey{Job: job, Index: i, Pattern: k}]
}

// addPatternLinkage makes one pattern per active (job, tick) true and sets
// every assignment variable to the number of chosen patterns covering it.
// Positions no usable pattern covers end up forced to zero.
func (b *builder) addPatternLinkage() {
	for _, j := range b.v.orderedJobs {
		for _, i := range b.tl.ActiveIndices(j) {
			pats := b.v.Patterns(j.ID, i)
			lits := make([]solver.Literal, len(pats))
			for n, k := range pats {
				lits[n] = b.patternVar(j.ID, i, k.Name).Lit()
			}
			b.m.AddExactlyOne(lits...)
			b.counts["exactly_one"]++

			for _, pos := range b.v.CompatiblePositions(j.ID) {
				terms := []solver.Term{{Lit: b.v.Assigned[AssignKey{j.ID, pos, i}].Lit(), Coef: -1}}
				for _, k := range pats {
					if k.Contains(pos) {
						terms = append(terms, solver.Term{Lit: b.patternVar(j.ID, i, k.Name).Lit(), Coef: 1})
					}
				}
				b.m.AddLinear(terms, 0, 0)
				b.counts["linkage"]++
			}
		}
	}
}

// addCapacity bounds the occupants of each position at each tick. Positions
// that cannot be over-subscribed get no constraint.
func (b *builder) addCapacity() {
	for _, p := range b.positions {
		for i := 0; i < b.tl.Len(); i++ {
			keys := b.v.AssignedAt(p.Name, i)
			if len(keys) <= p.Capacity {
				continue
			}
			lits := make([]solver.Literal, len(keys))
			for n, k := range keys {
				lits[n] = b.v.Assigned[k].Lit()
			}
			b.m.AddSum(lits, -solver.Unbounded, int64(p.Capacity))
			b.counts["capacity"]++
		}
	}
}

func (b *builder) cause(position string, i int, lit solver.Literal) {
	if position == b.conf.Out {
		return
	}
	key := PositionKey{position, i}
	b.causes[key] = append(b.causes[key], lit)
}

// addPositionMovements turns the collected causes into exact position
// movement variables and links them back to the units occupying them.
func (b *builder) addPositionMovements() {
	keys := make([]PositionKey, 0, len(b.v.PositionMove))
	for k := range b.v.PositionMove {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, c int) bool {
		if keys[a].Index != keys[c].Index {
			return keys[a].Index < keys[c].Index
		}
		return keys[a].Position < keys[c].Position
	})
	for _, k := range keys {
		pm := b.v.PositionMove[k]
		b.m.AddMaxEquality(pm.Lit(), b.causes[k])
		b.counts["position_movement"]++

		// A unit occupying a position that registers a movement moves too.
		for _, ak := range b.v.AssignedAt(k.Position, k.Index) {
			moved := b.v.UnitMove[UnitKey{b.jobs[ak.Job].Unit.Name, k.Index}]
			b.m.AddBoolOr(pm.Not(), b.v.Assigned[ak].Not(), moved.Lit())
			b.counts["backward_link"]++
		}
	}
}
