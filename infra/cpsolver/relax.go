package cpsolver

import (
	"math"

	"github.com/kilianp07/posched/core/solver"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// relaxLP points to the LP routine. Tests override it to simulate failures.
var relaxLP = func(c []float64, g *mat.Dense, h []float64, a mat.Matrix, b []float64) (float64, error) {
	cStd, aStd, bStd := lp.Convert(c, g, h, a, b)
	opt, _, err := lp.Simplex(cStd, aStd, bStd, 1e-7, nil)
	return opt, err
}

// lpBound solves the continuous relaxation of the unenforced constraints
// with every variable in [0, 1] and returns its objective rounded up.
// Enforced constraints are dropped, which keeps the result a valid lower
// bound. ok is false when the relaxation is skipped or fails.
func lpBound(m *solver.Model, maxCells int) (bound int64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			bound, ok = 0, false
		}
	}()
	terms, offset, has := m.Objective()
	if !has || len(terms) == 0 {
		return 0, false
	}
	n := m.NumVars()

	var plain []*solver.Linear
	for _, lin := range m.Constraints() {
		if len(lin.Enforce) == 0 {
			plain = append(plain, lin)
		}
	}
	if (2*len(plain)+2*n)*n > maxCells {
		return 0, false
	}

	c := make([]float64, n)
	constant := float64(offset)
	for _, t := range terms {
		if t.Lit.Negated() {
			constant += float64(t.Coef)
			c[t.Lit.Var()] -= float64(t.Coef)
		} else {
			c[t.Lit.Var()] += float64(t.Coef)
		}
	}

	var gData, aData, h, b []float64
	for _, lin := range plain {
		row := make([]float64, n)
		var shift float64
		for _, t := range lin.Terms {
			if t.Lit.Negated() {
				shift += float64(t.Coef)
				row[t.Lit.Var()] -= float64(t.Coef)
			} else {
				row[t.Lit.Var()] += float64(t.Coef)
			}
		}
		if lin.Lo == lin.Hi {
			aData = append(aData, row...)
			b = append(b, float64(lin.Lo)-shift)
			continue
		}
		if lin.Hi < solver.Unbounded {
			gData = append(gData, row...)
			h = append(h, float64(lin.Hi)-shift)
		}
		if lin.Lo > -solver.Unbounded {
			neg := make([]float64, n)
			for i, v := range row {
				neg[i] = -v
			}
			gData = append(gData, neg...)
			h = append(h, shift-float64(lin.Lo))
		}
	}
	for v := 0; v < n; v++ {
		up := make([]float64, n)
		up[v] = 1
		down := make([]float64, n)
		down[v] = -1
		gData = append(gData, up...)
		gData = append(gData, down...)
		h = append(h, 1, 0)
	}

	g := mat.NewDense(len(h), n, gData)
	var a mat.Matrix
	if len(b) > 0 {
		a = mat.NewDense(len(b), n, aData)
	}
	opt, err := relaxLP(c, g, h, a, b)
	if err != nil {
		return 0, false
	}
	return int64(math.Ceil(opt + constant - 1e-6)), true
}
