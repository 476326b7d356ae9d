// Package cpsolver is a depth-first branch-and-bound engine for
// solver.Model. It propagates linear boolean constraints with enforcement
// literals, branches along the model's decision strategies, and prunes with
// an incumbent cutoff on the objective. An optional LP relaxation computed
// with gonum tightens the reported best bound.
package cpsolver

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/posched/core/logger"
	"github.com/kilianp07/posched/core/solver"
)

// Config tunes the engine.
type Config struct {
	// LPBound enables the root LP relaxation bound.
	LPBound bool `json:"lp_bound"`
	// LPMaxCells skips the relaxation when rows*cols exceeds it.
	LPMaxCells int `json:"lp_max_cells"`
	// CheckEvery is the number of nodes between cancellation checks.
	CheckEvery int64 `json:"check_every"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.LPMaxCells == 0 {
		c.LPMaxCells = 250_000
	}
	if c.CheckEvery == 0 {
		c.CheckEvery = 128
	}
}

// Engine implements solver.Engine.
type Engine struct {
	cfg    Config
	logger logger.Logger
}

// New returns an engine. A nil logger disables logging.
func New(cfg Config, log logger.Logger) *Engine {
	cfg.SetDefaults()
	return &Engine{cfg: cfg, logger: logger.OrNop(log)}
}

// Solve runs the search until it is exhausted, ctx is cancelled or a limit
// is hit.
func (e *Engine) Solve(ctx context.Context, m *solver.Model, opts solver.Options) (*solver.Response, error) {
	start := time.Now()
	if err := m.Validate(); err != nil {
		return &solver.Response{Status: solver.ModelInvalid}, err
	}
	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit)
		defer cancel()
	}

	s := newSearch(m, e.cfg.CheckEvery)
	s.nodeLimit = opts.NodeLimit
	s.start = start
	s.onSolution = opts.OnSolution

	rootOK := s.propagate()
	if rootOK && s.hasObjective {
		s.bound = s.objectiveMin()
		if e.cfg.LPBound {
			if lb, ok := lpBound(m, e.cfg.LPMaxCells); ok && lb > s.bound {
				s.bound = lb
			}
		}
		e.logger.Debugf("root bound %d over %d vars, %d constraints", s.bound, m.NumVars(), len(m.Constraints()))
	}

	exhausted := !rootOK
	if rootOK {
		exhausted = s.run(ctx)
	}

	resp := &solver.Response{
		WallTime:  time.Since(start),
		Stats:     s.stats,
		BestBound: s.bound,
	}
	switch {
	case s.solutions > 0 && exhausted:
		resp.Status = solver.Optimal
	case s.solutions > 0:
		resp.Status = solver.Feasible
	case exhausted:
		resp.Status = solver.Infeasible
	default:
		resp.Status = solver.Unknown
	}
	if s.solutions > 0 {
		resp.Objective = s.best
		resp.Values = s.incumbent
		if exhausted {
			resp.BestBound = s.best
		}
	}
	e.logger.Infof("%s after %s: objective=%d bound=%d nodes=%d", resp.Status, resp.WallTime.Round(time.Millisecond), resp.Objective, resp.BestBound, s.stats.Nodes)
	return resp, nil
}

var _ solver.Engine = (*Engine)(nil)

func (e *Engine) String() string { return fmt.Sprintf("cpsolver(lp=%t)", e.cfg.LPBound) }
