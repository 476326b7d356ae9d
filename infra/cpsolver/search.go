package cpsolver

import (
	"context"
	"time"

	"github.com/kilianp07/posched/core/solver"
)

const unassigned int8 = -1

type constraint struct {
	terms   []solver.Term
	lo, hi  int64
	enforce []solver.Literal
}

type decision struct {
	v          solver.BoolVar
	preferTrue bool
}

// frame is one open decision on the search stack.
type frame struct {
	v        solver.BoolVar
	value    bool
	flipped  bool
	trailPos int
	cursor   int
}

type search struct {
	values []int8
	cons   []constraint
	watch  [][]int32

	queue  []int32
	head   int
	queued []bool

	trail  []solver.BoolVar
	frames []frame
	order  []decision
	cursor int

	hasObjective bool
	objIdx       int
	offset       int64

	best      int64
	bound     int64
	incumbent []bool
	solutions int

	stats      solver.Stats
	loops      int64
	checkEvery int64
	nodeLimit  int64
	start      time.Time
	onSolution func(solver.Progress)
}

func newSearch(m *solver.Model, checkEvery int64) *search {
	n := m.NumVars()
	s := &search{
		values:     make([]int8, n),
		watch:      make([][]int32, n),
		objIdx:     -1,
		bound:      -solver.Unbounded,
		checkEvery: checkEvery,
	}
	for i := range s.values {
		s.values[i] = unassigned
	}
	for _, c := range m.Constraints() {
		s.cons = append(s.cons, constraint{terms: c.Terms, lo: c.Lo, hi: c.Hi, enforce: c.Enforce})
	}
	if terms, offset, ok := m.Objective(); ok {
		s.hasObjective = true
		s.offset = offset
		s.objIdx = len(s.cons)
		s.cons = append(s.cons, constraint{terms: terms, lo: -solver.Unbounded, hi: solver.Unbounded})
	}
	s.queued = make([]bool, len(s.cons))
	for ci, c := range s.cons {
		seen := map[solver.BoolVar]struct{}{}
		add := func(v solver.BoolVar) {
			if _, ok := seen[v]; ok {
				return
			}
			seen[v] = struct{}{}
			s.watch[v] = append(s.watch[v], int32(ci))
		}
		for _, t := range c.terms {
			add(t.Lit.Var())
		}
		for _, l := range c.enforce {
			add(l.Var())
		}
		s.enqueue(int32(ci))
	}

	inOrder := make([]bool, n)
	for _, st := range m.Strategies() {
		for _, v := range st.Vars {
			if !inOrder[v] {
				inOrder[v] = true
				s.order = append(s.order, decision{v: v, preferTrue: st.PreferTrue})
			}
		}
	}
	for v := 0; v < n; v++ {
		if !inOrder[v] {
			s.order = append(s.order, decision{v: solver.BoolVar(v)})
		}
	}
	return s
}

func (s *search) litValue(l solver.Literal) int8 {
	v := s.values[l.Var()]
	if v == unassigned {
		return unassigned
	}
	if l.Negated() {
		return 1 - v
	}
	return v
}

func (s *search) enqueue(ci int32) {
	if !s.queued[ci] {
		s.queued[ci] = true
		s.queue = append(s.queue, ci)
	}
}

// setLit makes l true. It returns false on a clash with the current value.
func (s *search) setLit(l solver.Literal) bool {
	want := int8(1)
	if l.Negated() {
		want = 0
	}
	v := l.Var()
	switch s.values[v] {
	case unassigned:
		s.values[v] = want
		s.trail = append(s.trail, v)
		s.stats.Propagations++
		for _, ci := range s.watch[v] {
			s.enqueue(ci)
		}
		return true
	default:
		return s.values[v] == want
	}
}

func (s *search) setVar(v solver.BoolVar, value bool) bool {
	if value {
		return s.setLit(v.Lit())
	}
	return s.setLit(v.Not())
}

func (s *search) activity(c *constraint) (lo, hi int64) {
	for _, t := range c.terms {
		switch s.litValue(t.Lit) {
		case 1:
			lo += t.Coef
			hi += t.Coef
		case unassigned:
			if t.Coef > 0 {
				hi += t.Coef
			} else {
				lo += t.Coef
			}
		}
	}
	return lo, hi
}

// propagateConstraint applies bounds reasoning to one constraint.
func (s *search) propagateConstraint(c *constraint) bool {
	open := 0
	var last solver.Literal
	for _, l := range c.enforce {
		switch s.litValue(l) {
		case 0:
			return true
		case unassigned:
			open++
			last = l
		}
	}
	minA, maxA := s.activity(c)
	violated := minA > c.hi || maxA < c.lo
	switch {
	case open == 1 && violated:
		return s.setLit(last.Not())
	case open > 0:
		return true
	case violated:
		return false
	}
	for _, t := range c.terms {
		if s.litValue(t.Lit) != unassigned {
			continue
		}
		coef := t.Coef
		if coef < 0 {
			coef = -coef
		}
		if coef == 0 {
			continue
		}
		// Taking the larger contribution would overshoot hi: the term is
		// pinned to its smaller value, which lowers maxA by |coef|.
		if minA+coef > c.hi {
			if t.Coef > 0 {
				s.setLit(t.Lit.Not())
			} else {
				s.setLit(t.Lit)
			}
			maxA -= coef
		}
		// Taking the smaller contribution would undershoot lo: the term is
		// pinned to its larger value, which raises minA by |coef|.
		if s.litValue(t.Lit) == unassigned && maxA-coef < c.lo {
			if t.Coef > 0 {
				s.setLit(t.Lit)
			} else {
				s.setLit(t.Lit.Not())
			}
			minA += coef
		}
		if minA > c.hi || maxA < c.lo {
			return false
		}
	}
	return true
}

// propagate runs the queue to a fixpoint. The objective cutoff is always
// rechecked since it tightens between calls.
func (s *search) propagate() bool {
	if s.objIdx >= 0 {
		s.enqueue(int32(s.objIdx))
	}
	for s.head < len(s.queue) {
		ci := s.queue[s.head]
		s.head++
		s.queued[ci] = false
		if !s.propagateConstraint(&s.cons[ci]) {
			for _, rest := range s.queue[s.head:] {
				s.queued[rest] = false
			}
			s.queue, s.head = s.queue[:0], 0
			return false
		}
	}
	s.queue, s.head = s.queue[:0], 0
	return true
}

func (s *search) undo(pos int) {
	for len(s.trail) > pos {
		v := s.trail[len(s.trail)-1]
		s.trail = s.trail[:len(s.trail)-1]
		s.values[v] = unassigned
	}
}

func (s *search) pickBranch() (decision, bool) {
	for s.cursor < len(s.order) {
		d := s.order[s.cursor]
		if s.values[d.v] == unassigned {
			return d, true
		}
		s.cursor++
	}
	return decision{}, false
}

// backtrack flips the deepest unflipped decision. It returns false once the
// search tree is exhausted.
func (s *search) backtrack() bool {
	for len(s.frames) > 0 {
		s.stats.Backtracks++
		f := &s.frames[len(s.frames)-1]
		s.undo(f.trailPos)
		if f.flipped {
			s.frames = s.frames[:len(s.frames)-1]
			continue
		}
		f.flipped = true
		f.value = !f.value
		s.cursor = f.cursor
		s.setVar(f.v, f.value)
		if s.propagate() {
			return true
		}
	}
	return false
}

func (s *search) objectiveMin() int64 {
	if s.objIdx < 0 {
		return 0
	}
	lo, _ := s.activity(&s.cons[s.objIdx])
	return lo + s.offset
}

func (s *search) record() {
	obj := s.objectiveMin()
	s.solutions++
	s.stats.Solutions = s.solutions
	s.best = obj
	if s.incumbent == nil {
		s.incumbent = make([]bool, len(s.values))
	}
	for i, v := range s.values {
		s.incumbent[i] = v == 1
	}
	if s.onSolution != nil {
		s.onSolution(solver.Progress{
			Iteration: s.solutions,
			Elapsed:   time.Since(s.start),
			Objective: obj,
			Bound:     s.bound,
		})
	}
}

// run explores the tree from the propagated root. It returns true when the
// tree was exhausted and false when interrupted.
func (s *search) run(ctx context.Context) bool {
	for {
		s.loops++
		if s.loops%s.checkEvery == 0 && ctx.Err() != nil {
			return false
		}
		if s.nodeLimit > 0 && s.stats.Nodes >= s.nodeLimit {
			return false
		}
		d, ok := s.pickBranch()
		if !ok {
			s.record()
			if !s.hasObjective || s.best <= s.bound {
				return true
			}
			s.cons[s.objIdx].hi = s.best - 1 - s.offset
			if !s.backtrack() {
				return true
			}
			continue
		}
		s.stats.Nodes++
		s.frames = append(s.frames, frame{v: d.v, value: d.preferTrue, trailPos: len(s.trail), cursor: s.cursor})
		s.setVar(d.v, d.preferTrue)
		if !s.propagate() && !s.backtrack() {
			return true
		}
	}
}
