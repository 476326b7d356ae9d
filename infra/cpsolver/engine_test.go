package cpsolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/posched/core/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func solve(t *testing.T, m *solver.Model, opts solver.Options) *solver.Response {
	t.Helper()
	resp, err := New(Config{LPBound: true}, nil).Solve(context.Background(), m, opts)
	require.NoError(t, err)
	return resp
}

func TestSolveMinimizesWeightedCover(t *testing.T) {
	m := solver.NewModel()
	x := m.NewBoolVar("x")
	y := m.NewBoolVar("y")
	z := m.NewBoolVar("z")
	m.AddBoolOr(x.Lit(), y.Lit())
	m.AddBoolOr(y.Lit(), z.Lit())
	m.AddBoolOr(x.Lit(), z.Lit())
	m.Minimize([]solver.Term{{Lit: x.Lit(), Coef: 3}, {Lit: y.Lit(), Coef: 2}, {Lit: z.Lit(), Coef: 2}}, 1)

	resp := solve(t, m, solver.Options{})
	assert.Equal(t, solver.Optimal, resp.Status)
	assert.Equal(t, int64(5), resp.Objective)
	assert.Equal(t, resp.Objective, resp.BestBound)
	assert.False(t, resp.Value(x))
	assert.True(t, resp.Value(y))
	assert.True(t, resp.Value(z))
}

func TestSolveDetectsInfeasibility(t *testing.T) {
	m := solver.NewModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")
	m.AddExactlyOne(a.Lit(), b.Lit())
	m.AddImplication(a.Lit(), b.Lit())
	m.AddImplication(b.Lit(), a.Lit())

	resp := solve(t, m, solver.Options{})
	assert.Equal(t, solver.Infeasible, resp.Status)
	assert.False(t, resp.Status.HasSolution())
}

func TestEnforcementLiterals(t *testing.T) {
	m := solver.NewModel()
	on := m.NewBoolVar("on")
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")
	// a + b == 2 only when on; on is forced; so both must be set.
	m.AddSum([]solver.Literal{a.Lit(), b.Lit()}, 2, 2).OnlyEnforceIf(on.Lit())
	m.Fix(on.Lit())
	m.Minimize([]solver.Term{{Lit: a.Lit(), Coef: 1}, {Lit: b.Lit(), Coef: 1}}, 0)

	resp := solve(t, m, solver.Options{})
	require.Equal(t, solver.Optimal, resp.Status)
	assert.Equal(t, int64(2), resp.Objective)

	// Violated body switches the enforcement literal off.
	m2 := solver.NewModel()
	g := m2.NewBoolVar("guard")
	x := m2.NewBoolVar("x")
	m2.Fix(x.Not())
	m2.AddSum([]solver.Literal{x.Lit()}, 1, 1).OnlyEnforceIf(g.Lit())
	resp = solve(t, m2, solver.Options{})
	require.True(t, resp.Status.HasSolution())
	assert.False(t, resp.Value(g))
}

func TestMaxEqualityAndStrategy(t *testing.T) {
	m := solver.NewModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")
	or := m.NewBoolVar("or")
	m.AddMaxEquality(or.Lit(), []solver.Literal{a.Lit(), b.Lit()})
	m.AddDecisionStrategy([]solver.BoolVar{b}, true)

	resp := solve(t, m, solver.Options{})
	require.Equal(t, solver.Optimal, resp.Status)
	assert.True(t, resp.Value(b))
	assert.True(t, resp.Value(or))
}

func TestProgressCallbackAndNodeLimit(t *testing.T) {
	m := solver.NewModel()
	var lits []solver.Literal
	var terms []solver.Term
	for i := 0; i < 12; i++ {
		v := m.NewBoolVar("v")
		lits = append(lits, v.Lit())
		terms = append(terms, solver.Term{Lit: v.Lit(), Coef: int64(i + 1)})
	}
	m.AddSum(lits, 3, solver.Unbounded)
	m.Minimize(terms, 0)
	m.AddDecisionStrategy([]solver.BoolVar{11, 10, 9}, true)

	var seen []solver.Progress
	resp := solve(t, m, solver.Options{OnSolution: func(p solver.Progress) { seen = append(seen, p) }})
	require.Equal(t, solver.Optimal, resp.Status)
	assert.Equal(t, int64(6), resp.Objective)
	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.Less(t, seen[i].Objective, seen[i-1].Objective)
	}

	resp = solve(t, m, solver.Options{NodeLimit: 3})
	assert.Contains(t, []solver.Status{solver.Feasible, solver.Unknown}, resp.Status)
}

func TestCancelledContextReturnsIncumbent(t *testing.T) {
	m := solver.NewModel()
	x := m.NewBoolVar("x")
	m.Minimize([]solver.Term{{Lit: x.Lit(), Coef: 1}}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp, err := New(Config{CheckEvery: 1}, nil).Solve(ctx, m, solver.Options{TimeLimit: time.Second})
	require.NoError(t, err)
	assert.Equal(t, solver.Unknown, resp.Status)
}

func TestInvalidModel(t *testing.T) {
	m := solver.NewModel()
	m.AddBoolOr(solver.BoolVar(3).Lit())
	resp, err := New(Config{}, nil).Solve(context.Background(), m, solver.Options{})
	assert.True(t, errors.Is(err, solver.ErrModelInvalid))
	assert.Equal(t, solver.ModelInvalid, resp.Status)
}

func TestLPBound(t *testing.T) {
	m := solver.NewModel()
	x := m.NewBoolVar("x")
	y := m.NewBoolVar("y")
	m.AddSum([]solver.Literal{x.Lit(), y.Lit()}, 1, solver.Unbounded)
	m.Minimize([]solver.Term{{Lit: x.Lit(), Coef: 2}, {Lit: y.Lit(), Coef: 3}}, 0)

	b, ok := lpBound(m, 1000)
	require.True(t, ok)
	assert.Equal(t, int64(2), b)

	_, ok = lpBound(m, 1)
	assert.False(t, ok, "cell cap must skip the relaxation")

	orig := relaxLP
	defer func() { relaxLP = orig }()
	relaxLP = func([]float64, *mat.Dense, []float64, mat.Matrix, []float64) (float64, error) {
		return 0, errors.New("boom")
	}
	_, ok = lpBound(m, 1000)
	assert.False(t, ok)
}

func TestNegativeCoefficientEquality(t *testing.T) {
	m := solver.NewModel()
	x := m.NewBoolVar("x")
	y := m.NewBoolVar("y")
	m.AddLinear([]solver.Term{{Lit: x.Lit(), Coef: 1}, {Lit: y.Lit(), Coef: -1}}, 0, 0)
	m.Fix(x.Lit())

	resp := solve(t, m, solver.Options{})
	require.Equal(t, solver.Optimal, resp.Status)
	assert.True(t, resp.Value(y))

	// Forcing the negative side false must pull the positive side down.
	m2 := solver.NewModel()
	a := m2.NewBoolVar("a")
	b := m2.NewBoolVar("b")
	m2.AddEquality(a.Lit(), b.Lit())
	m2.Fix(b.Not())
	m2.AddDecisionStrategy([]solver.BoolVar{a}, true)
	resp = solve(t, m2, solver.Options{})
	require.Equal(t, solver.Optimal, resp.Status)
	assert.False(t, resp.Value(a))

	m3 := solver.NewModel()
	p := m3.NewBoolVar("p")
	q := m3.NewBoolVar("q")
	m3.AddEquality(p.Lit(), q.Lit())
	m3.Fix(p.Lit())
	m3.Fix(q.Not())
	resp = solve(t, m3, solver.Options{})
	assert.Equal(t, solver.Infeasible, resp.Status)
}

// Pattern choice linked to per-position assignment: assigned[p] - sum of
// patterns containing p == 0, with exactly one pattern.
func TestPatternLinkageRows(t *testing.T) {
	build := func() (*solver.Model, [3]solver.BoolVar, solver.BoolVar, solver.BoolVar) {
		m := solver.NewModel()
		var assigned [3]solver.BoolVar
		for i := range assigned {
			assigned[i] = m.NewBoolVar("assigned")
		}
		wide := m.NewBoolVar("wide")
		narrow := m.NewBoolVar("narrow")
		m.AddExactlyOne(wide.Lit(), narrow.Lit())
		m.AddLinear([]solver.Term{{Lit: assigned[0].Lit(), Coef: -1}, {Lit: wide.Lit(), Coef: 1}}, 0, 0)
		m.AddLinear([]solver.Term{{Lit: assigned[1].Lit(), Coef: -1}, {Lit: wide.Lit(), Coef: 1}}, 0, 0)
		m.AddLinear([]solver.Term{{Lit: assigned[2].Lit(), Coef: -1}, {Lit: narrow.Lit(), Coef: 1}}, 0, 0)
		m.Minimize([]solver.Term{
			{Lit: assigned[0].Lit(), Coef: 1},
			{Lit: assigned[1].Lit(), Coef: 1},
			{Lit: assigned[2].Lit(), Coef: 1},
		}, 0)
		return m, assigned, wide, narrow
	}

	m, assigned, wide, narrow := build()
	m.AddDecisionStrategy([]solver.BoolVar{wide}, true)
	resp := solve(t, m, solver.Options{})
	require.Equal(t, solver.Optimal, resp.Status)
	assert.Equal(t, int64(1), resp.Objective)
	assert.True(t, resp.Value(narrow))
	assert.True(t, resp.Value(assigned[2]))
	assert.False(t, resp.Value(assigned[0]))

	m, assigned, wide, _ = build()
	m.Fix(wide.Lit())
	resp = solve(t, m, solver.Options{})
	require.Equal(t, solver.Optimal, resp.Status)
	assert.Equal(t, int64(2), resp.Objective)
	assert.True(t, resp.Value(assigned[0]))
	assert.True(t, resp.Value(assigned[1]))
	assert.False(t, resp.Value(assigned[2]))
}

// Stay/hop transition table between two pattern choices: rows and columns
// sum to the pattern variables and the hops sum to moved.
func TestTransitionTable(t *testing.T) {
	build := func(from, to int) (*solver.Model, solver.BoolVar) {
		m := solver.NewModel()
		cur := []solver.BoolVar{m.NewBoolVar("cur_a"), m.NewBoolVar("cur_b")}
		next := []solver.BoolVar{m.NewBoolVar("next_a"), m.NewBoolVar("next_b")}
		moved := m.NewBoolVar("moved")
		m.AddExactlyOne(cur[0].Lit(), cur[1].Lit())
		m.AddExactlyOne(next[0].Lit(), next[1].Lit())

		var cell [2][2]solver.BoolVar
		hops := []solver.Term{{Lit: moved.Lit(), Coef: -1}}
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				cell[i][j] = m.NewBoolVar("cell")
				if i != j {
					hops = append(hops, solver.Term{Lit: cell[i][j].Lit(), Coef: 1})
				}
			}
		}
		for i := 0; i < 2; i++ {
			m.AddLinear([]solver.Term{{Lit: cell[i][0].Lit(), Coef: 1}, {Lit: cell[i][1].Lit(), Coef: 1}, {Lit: cur[i].Lit(), Coef: -1}}, 0, 0)
			m.AddLinear([]solver.Term{{Lit: cell[0][i].Lit(), Coef: 1}, {Lit: cell[1][i].Lit(), Coef: 1}, {Lit: next[i].Lit(), Coef: -1}}, 0, 0)
		}
		m.AddLinear(hops, 0, 0)
		if from >= 0 {
			m.Fix(cur[from].Lit())
		}
		if to >= 0 {
			m.Fix(next[to].Lit())
		}
		m.Minimize([]solver.Term{{Lit: moved.Lit(), Coef: 1}}, 0)
		return m, moved
	}

	m, moved := build(0, 1)
	resp := solve(t, m, solver.Options{})
	require.Equal(t, solver.Optimal, resp.Status)
	assert.True(t, resp.Value(moved))
	assert.Equal(t, int64(1), resp.Objective)

	m, moved = build(1, 1)
	resp = solve(t, m, solver.Options{})
	require.Equal(t, solver.Optimal, resp.Status)
	assert.False(t, resp.Value(moved))

	m, _ = build(-1, -1)
	resp = solve(t, m, solver.Options{})
	require.Equal(t, solver.Optimal, resp.Status)
	assert.Equal(t, int64(0), resp.Objective)
}

func TestMaxEqualityForcesTargetDown(t *testing.T) {
	m := solver.NewModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")
	target := m.NewBoolVar("target")
	m.AddMaxEquality(target.Lit(), []solver.Literal{a.Lit(), b.Lit()})
	m.Fix(a.Not())
	m.Fix(b.Not())
	m.AddDecisionStrategy([]solver.BoolVar{target}, true)

	resp := solve(t, m, solver.Options{})
	require.Equal(t, solver.Optimal, resp.Status)
	assert.False(t, resp.Value(target))

	// Target fixed true needs one true input.
	m2 := solver.NewModel()
	c := m2.NewBoolVar("c")
	d := m2.NewBoolVar("d")
	on := m2.NewBoolVar("on")
	m2.AddMaxEquality(on.Lit(), []solver.Literal{c.Lit(), d.Lit()})
	m2.Fix(on.Lit())
	m2.Fix(c.Not())
	resp = solve(t, m2, solver.Options{})
	require.Equal(t, solver.Optimal, resp.Status)
	assert.True(t, resp.Value(d))
}
