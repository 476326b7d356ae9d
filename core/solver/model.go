package solver

import (
	"errors"
	"fmt"
)

// Unbounded stands in for an infinite bound of a linear constraint.
const Unbounded int64 = 1 << 52

// BoolVar identifies a boolean decision variable of a Model.
type BoolVar int32

// Literal is a BoolVar or its negation.
type Literal int32

// Lit returns the positive literal of v.
func (v BoolVar) Lit() Literal { return Literal(v << 1) }

// Not returns the negated literal of v.
func (v BoolVar) Not() Literal { return Literal(v<<1 | 1) }

// Var returns the underlying variable.
func (l Literal) Var() BoolVar { return BoolVar(l >> 1) }

// Negated reports whether l is a negation.
func (l Literal) Negated() bool { return l&1 == 1 }

// Not returns the complement of l.
func (l Literal) Not() Literal { return l ^ 1 }

// Term is Coef times the 0/1 value of Lit.
type Term struct {
	Lit  Literal
	Coef int64
}

// Linear is the constraint Lo <= sum(terms) <= Hi, active only when every
// Enforce literal is true.
type Linear struct {
	Terms   []Term
	Lo, Hi  int64
	Enforce []Literal
}

// OnlyEnforceIf adds enforcement literals and returns c.
func (c *Linear) OnlyEnforceIf(lits ...Literal) *Linear {
	c.Enforce = append(c.Enforce, lits...)
	return c
}

// Strategy asks the engine to branch on Vars first, in order.
type Strategy struct {
	Vars       []BoolVar
	PreferTrue bool
}

// Model is a pure boolean optimization model. It is not safe for concurrent
// mutation.
type Model struct {
	names       []string
	constraints []*Linear
	objective   []Term
	offset      int64
	minimize    bool
	strategies  []Strategy
}

// NewModel returns an empty model.
func NewModel() *Model { return &Model{} }

// NewBoolVar adds a variable.
func (m *Model) NewBoolVar(name string) BoolVar {
	m.names = append(m.names, name)
	return BoolVar(len(m.names) - 1)
}

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.names) }

// Name returns the debug name of v.
func (m *Model) Name(v BoolVar) string { return m.names[v] }

// Constraints returns the constraints in insertion order.
func (m *Model) Constraints() []*Linear { return m.constraints }

// AddLinear adds lo <= sum(terms) <= hi.
func (m *Model) AddLinear(terms []Term, lo, hi int64) *Linear {
	c := &Linear{Terms: append([]Term(nil), terms...), Lo: lo, Hi: hi}
	m.constraints = append(m.constraints, c)
	return c
}

func ones(lits []Literal) []Term {
	t := make([]Term, len(lits))
	for i, l := range lits {
		t[i] = Term{Lit: l, Coef: 1}
	}
	return t
}

// AddSum adds lo <= number of true literals <= hi.
func (m *Model) AddSum(lits []Literal, lo, hi int64) *Linear {
	return m.AddLinear(ones(lits), lo, hi)
}

// AddExactlyOne requires exactly one literal to be true.
func (m *Model) AddExactlyOne(lits ...Literal) *Linear { return m.AddSum(lits, 1, 1) }

// AddAtMostOne allows at most one true literal.
func (m *Model) AddAtMostOne(lits ...Literal) *Linear { return m.AddSum(lits, -Unbounded, 1) }

// AddBoolOr requires at least one true literal.
func (m *Model) AddBoolOr(lits ...Literal) *Linear { return m.AddSum(lits, 1, Unbounded) }

// AddImplication adds a => b.
func (m *Model) AddImplication(a, b Literal) *Linear { return m.AddBoolOr(a.Not(), b) }

// AddEquality requires a and b to take the same value.
func (m *Model) AddEquality(a, b Literal) *Linear {
	return m.AddLinear([]Term{{Lit: a, Coef: 1}, {Lit: b, Coef: -1}}, 0, 0)
}

// AddMaxEquality makes target the disjunction of lits. An empty lits fixes
// target to false.
func (m *Model) AddMaxEquality(target Literal, lits []Literal) {
	for _, l := range lits {
		m.AddImplication(l, target)
	}
	terms := append(ones(lits), Term{Lit: target, Coef: -1})
	m.AddLinear(terms, 0, Unbounded)
}

// Fix forces l to be true.
func (m *Model) Fix(l Literal) *Linear { return m.AddLinear([]Term{{Lit: l, Coef: 1}}, 1, 1) }

// Minimize sets the objective offset + sum(terms).
func (m *Model) Minimize(terms []Term, offset int64) {
	m.objective = append([]Term(nil), terms...)
	m.offset = offset
	m.minimize = true
}

// Objective returns the objective terms and offset, and whether one was set.
func (m *Model) Objective() ([]Term, int64, bool) { return m.objective, m.offset, m.minimize }

// AddDecisionStrategy appends a branching hint.
func (m *Model) AddDecisionStrategy(vars []BoolVar, preferTrue bool) {
	m.strategies = append(m.strategies, Strategy{Vars: append([]BoolVar(nil), vars...), PreferTrue: preferTrue})
}

// Strategies returns the branching hints in insertion order.
func (m *Model) Strategies() []Strategy { return m.strategies }

// ErrModelInvalid is returned by Validate and by engines refusing a model.
var ErrModelInvalid = errors.New("model invalid")

// Validate checks that every literal references an existing variable.
func (m *Model) Validate() error {
	n := BoolVar(len(m.names))
	check := func(l Literal, where string) error {
		if v := l.Var(); v < 0 || v >= n {
			return fmt.Errorf("%w: %s references variable %d of %d", ErrModelInvalid, where, v, n)
		}
		return nil
	}
	for i, c := range m.constraints {
		where := fmt.Sprintf("constraint %d", i)
		for _, t := range c.Terms {
			if err := check(t.Lit, where); err != nil {
				return err
			}
		}
		for _, l := range c.Enforce {
			if err := check(l, where); err != nil {
				return err
			}
		}
	}
	for _, t := range m.objective {
		if err := check(t.Lit, "objective"); err != nil {
			return err
		}
	}
	for _, s := range m.strategies {
		for _, v := range s.Vars {
			if err := check(v.Lit(), "strategy"); err != nil {
				return err
			}
		}
	}
	return nil
}
