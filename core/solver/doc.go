// Package solver defines the narrow contract between the planner and a
// constraint-solving engine: a boolean model made of linear constraints with
// optional enforcement literals, an objective to minimize, decision hints,
// and the Engine interface returning a Response.
//
// The builder mirrors the usual CP modelling API:
//
//	m := solver.NewModel()
//	x, y := m.NewBoolVar("x"), m.NewBoolVar("y")
//	m.AddBoolOr(x.Lit(), y.Lit())
//	m.AddImplication(x.Lit(), y.Not())
//	m.Minimize([]solver.Term{{Lit: x.Lit(), Coef: 2}, {Lit: y.Lit(), Coef: 1}}, 0)
//	resp, err := engine.Solve(ctx, m, solver.Options{TimeLimit: time.Minute})
package solver
