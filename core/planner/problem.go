package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/posched/core/layout"
	"github.com/kilianp07/posched/core/logger"
	"github.com/kilianp07/posched/core/model"
	"github.com/kilianp07/posched/core/solver"
	"github.com/kilianp07/posched/core/timeaxis"
	"github.com/kilianp07/posched/core/validation"
)

var (
	// ErrLookup is returned when fixing a variable that was never created.
	ErrLookup = errors.New("variable lookup failed")
	// ErrAlreadySolved rejects changes once Solve returned.
	ErrAlreadySolved = errors.New("problem already solved")
)

// State is a lifecycle stage of a Problem.
type State int

const (
	Constructed State = iota
	Preprocessed
	VariablesBuilt
	ConstraintsAdded
	ObjectiveSet
	Solved
)

func (s State) String() string {
	return [...]string{"constructed", "preprocessed", "variables_built", "constraints_added", "objective_set", "solved"}[s]
}

// Progress describes an improving solution.
type Progress = solver.Progress

// Input is the static description of a site and its workload.
type Input struct {
	Adapter   timeaxis.Adapter
	Positions []*model.Position
	UnitTypes []*model.UnitType
	Units     []*model.Unit
	Jobs      []*model.Job
	// Layout holds movement triggers. Nil means no triggers.
	Layout *layout.Configuration
}

// Problem owns one model from construction to solve. It is not safe for
// concurrent use.
type Problem struct {
	in   Input
	opts Options
	log  logger.Logger

	state    State
	deps     *layout.UnitTypeDependency
	conf     *layout.Configuration
	jobIndex map[string]*model.Job
	unitList []*model.Unit

	t0, tLast int
	jobs      []*model.Job
	timeline  *timeaxis.Timeline
	report    validation.CapacityReport
	active    map[UnitKey]*model.Job

	model *solver.Model
	vars  *Variables
	b     *builder
	fixes []solver.Literal

	response *solver.Response
}

// NewProblem checks references between entities and normalizes unit types
// without patterns.
func NewProblem(in Input, opts Options, log logger.Logger) (*Problem, error) {
	if in.Adapter == nil {
		return nil, fmt.Errorf("%w: no time adapter", model.ErrConfiguration)
	}
	opts.setDefaults()
	if opts.Objective != UnitMovements && opts.Objective != PositionMovements {
		return nil, fmt.Errorf("%w: unknown objective %q", model.ErrConfiguration, opts.Objective)
	}
	deps, err := layout.NewUnitTypeDependency(in.Positions, in.UnitTypes)
	if err != nil {
		return nil, err
	}
	conf := in.Layout
	if conf == nil {
		if conf, err = layout.NewConfiguration(in.Positions, ""); err != nil {
			return nil, err
		}
	}
	for _, p := range in.Positions {
		if _, ok := conf.Index(p.Name); !ok {
			return nil, fmt.Errorf("%w: layout misses position %s", model.ErrConfiguration, p.Name)
		}
	}

	types := map[*model.UnitType]bool{}
	for _, ut := range in.UnitTypes {
		types[ut] = true
	}
	units := map[string]*model.Unit{}
	for _, u := range in.Units {
		if _, dup := units[u.Name]; dup {
			return nil, fmt.Errorf("%w: unit %s declared twice", model.ErrConfiguration, u.Name)
		}
		if !types[u.Type] {
			return nil, fmt.Errorf("%w: unit %s has undeclared type %s", model.ErrConfiguration, u.Name, u.Type.Name)
		}
		units[u.Name] = u
	}
	jobIndex := make(map[string]*model.Job, len(in.Jobs))
	for _, j := range in.Jobs {
		if units[j.Unit.Name] != j.Unit {
			return nil, fmt.Errorf("%w: job %s references undeclared unit %s", model.ErrConfiguration, j.ID, j.Unit.Name)
		}
		if _, dup := jobIndex[j.ID]; dup {
			return nil, fmt.Errorf("%w: job id %s declared twice", model.ErrConfiguration, j.ID)
		}
		jobIndex[j.ID] = j
	}

	unitList := append([]*model.Unit(nil), in.Units...)
	sort.Slice(unitList, func(a, b int) bool { return unitList[a].Name < unitList[b].Name })

	return &Problem{
		in:       in,
		opts:     opts,
		log:      logger.OrNop(log),
		deps:     deps,
		conf:     conf,
		jobIndex: jobIndex,
		unitList: unitList,
	}, nil
}

// State returns the lifecycle stage.
func (p *Problem) State() State { return p.state }

func (p *Problem) units() []*model.Unit { return p.unitList }

// Preprocess clips jobs to the horizon, compresses the timeline and runs the
// structural checks. The capacity report is kept even when a check fails.
func (p *Problem) Preprocess() (validation.CapacityReport, error) {
	if p.state >= Preprocessed {
		return p.report, nil
	}
	a := p.in.Adapter
	if p.opts.T0 != nil {
		t, err := a.ToTick(p.opts.T0)
		if err != nil {
			return p.report, fmt.Errorf("t0: %w", err)
		}
		p.t0 = t
	} else if len(p.in.Jobs) > 0 {
		p.t0 = p.in.Jobs[0].StartTick
		for _, j := range p.in.Jobs[1:] {
			if j.StartTick < p.t0 {
				p.t0 = j.StartTick
			}
		}
	}
	p.tLast = p.t0 + p.opts.HorizonTicks
	if p.opts.TLast != nil {
		t, err := a.ToTick(p.opts.TLast)
		if err != nil {
			return p.report, fmt.Errorf("t_last: %w", err)
		}
		p.tLast = t
	}
	if p.tLast < p.t0 {
		return p.report, fmt.Errorf("%w: horizon ends at %d before it starts at %d", model.ErrConfiguration, p.tLast, p.t0)
	}

	p.jobs = p.jobs[:0]
	for _, j := range p.in.Jobs {
		if j.Clip(a, p.t0, p.tLast) {
			p.jobs = append(p.jobs, j)
		}
	}
	if dropped := len(p.in.Jobs) - len(p.jobs); dropped > 0 {
		p.log.Infof("dropped %d jobs outside horizon [%d, %d]", dropped, p.t0, p.tLast)
	}
	if err := validation.NonOverlapping(p.jobs); err != nil {
		return p.report, err
	}

	anchors := []any{a.FromTick(p.t0)}
	for _, v := range p.opts.Anchors {
		t, err := a.ToTick(v)
		if err != nil {
			return p.report, fmt.Errorf("anchor: %w", err)
		}
		if t >= p.t0 && t <= p.tLast {
			anchors = append(anchors, v)
		}
	}
	tl, err := timeaxis.Compress(a, p.jobs, anchors...)
	if err != nil {
		return p.report, err
	}
	p.timeline = tl

	report, err := validation.CapacityFeasibility(p.jobs, p.in.Positions, tl)
	p.report = report
	if err != nil {
		return report, err
	}

	p.active = map[UnitKey]*model.Job{}
	for _, j := range p.jobs {
		for _, i := range tl.ActiveIndices(j) {
			p.active[UnitKey{j.Unit.Name, i}] = j
		}
	}
	p.state = Preprocessed
	p.log.Infof("preprocessed %d jobs over %d compressed ticks", len(p.jobs), tl.Len())
	return report, nil
}

// BuildVariables creates the sparse decision variables.
func (p *Problem) BuildVariables() error {
	if err := p.advance(Preprocessed); err != nil {
		return err
	}
	if p.state >= VariablesBuilt {
		return nil
	}
	m := solver.NewModel()
	vars, err := buildVariables(m, p.jobs, p.in.Positions, p.unitList, p.timeline)
	if err != nil {
		return err
	}
	p.model, p.vars = m, vars
	p.state = VariablesBuilt
	p.log.Debugw("variables built", toFields(vars.Count()))
	return nil
}

// AddConstraints emits pattern linkage, capacity, movement detection and
// cascade constraints, then consumes the recorded fixes.
func (p *Problem) AddConstraints() error {
	if err := p.advance(VariablesBuilt); err != nil {
		return err
	}
	if p.state >= ConstraintsAdded {
		return nil
	}
	b := newBuilder(p)
	b.addPatternLinkage()
	b.addCapacity()
	b.addMovement()
	b.addPositionMovements()
	for _, l := range p.fixes {
		p.model.Fix(l)
	}
	b.counts["fixed"] = len(p.fixes)
	p.fixes = nil
	p.model.AddDecisionStrategy(p.vars.searchOrder(), true)
	p.b = b
	p.state = ConstraintsAdded
	p.log.Debugw("constraints added", toFields(b.counts))
	return nil
}

// SetObjective installs the configured objective.
func (p *Problem) SetObjective() error {
	if err := p.advance(ConstraintsAdded); err != nil {
		return err
	}
	if p.state >= ObjectiveSet {
		return nil
	}
	var vars []solver.BoolVar
	switch p.opts.Objective {
	case PositionMovements:
		keys := make([]PositionKey, 0, len(p.vars.PositionMove))
		for k := range p.vars.PositionMove {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(a, b int) bool {
			if keys[a].Position != keys[b].Position {
				return keys[a].Position < keys[b].Position
			}
			return keys[a].Index < keys[b].Index
		})
		for _, k := range keys {
			vars = append(vars, p.vars.PositionMove[k])
		}
	default:
		vars = append(vars, p.b.free...)
		if p.opts.CountBoundary {
			vars = append(vars, p.b.boundary...)
		}
	}
	terms := make([]solver.Term, len(vars))
	for i, v := range vars {
		terms[i] = solver.Term{Lit: v.Lit(), Coef: 1}
	}
	p.model.Minimize(terms, 0)
	p.state = ObjectiveSet
	return nil
}

// Build runs every step up to a model ready to solve.
func (p *Problem) Build() error { return p.advance(ObjectiveSet) }

func (p *Problem) advance(target State) error {
	if p.state == Solved {
		return ErrAlreadySolved
	}
	steps := []func() error{
		func() error { _, err := p.Preprocess(); return err },
		p.BuildVariables,
		p.AddConstraints,
		p.SetObjective,
	}
	for s := p.state; s < target; s = p.state {
		if err := steps[s](); err != nil {
			return err
		}
	}
	return nil
}

// Solve builds what is missing and runs engine once. The response status is
// the outcome; an error means the model could not be built or submitted.
func (p *Problem) Solve(ctx context.Context, engine solver.Engine, opts SolveOptions) (*solver.Response, error) {
	if err := p.Build(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mon *InactivityMonitor
	var wg sync.WaitGroup
	if opts.InactivityTimeout > 0 {
		mon = NewInactivityMonitor(opts.InactivityTimeout, opts.PollInterval, cancel, p.log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			mon.Run(ctx)
		}()
	}

	resp, err := engine.Solve(ctx, p.model, solver.Options{
		TimeLimit: opts.TimeLimit,
		NodeLimit: opts.NodeLimit,
		OnSolution: func(pr solver.Progress) {
			if mon != nil {
				mon.Observe(pr)
			}
			if opts.OnProgress != nil {
				opts.OnProgress(pr)
			}
		},
	})
	cancel()
	wg.Wait()
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	p.response = resp
	p.state = Solved
	p.log.Infof("solve finished: %s objective=%d bound=%d", resp.Status, resp.Objective, resp.BestBound)
	return resp, nil
}

// Response returns the solve response, nil before Solve.
func (p *Problem) Response() *solver.Response { return p.response }

// Report returns the capacity diagnostic of pre-processing.
func (p *Problem) Report() validation.CapacityReport { return p.report }

// Timeline returns the compressed timeline, nil before pre-processing.
func (p *Problem) Timeline() *timeaxis.Timeline { return p.timeline }

// Variables returns the decision variables, nil before they are built.
func (p *Problem) Variables() *Variables { return p.vars }

// Model returns the underlying solver model.
func (p *Problem) Model() *solver.Model { return p.model }

// Jobs returns the jobs kept after horizon clipping.
func (p *Problem) Jobs() []*model.Job { return p.jobs }

// Units returns the units sorted by name.
func (p *Problem) Units() []*model.Unit { return p.unitList }

// Positions returns the positions in site order.
func (p *Problem) Positions() []*model.Position { return p.in.Positions }

// Layout returns the movement trigger configuration.
func (p *Problem) Layout() *layout.Configuration { return p.conf }

// Adapter returns the time adapter.
func (p *Problem) Adapter() timeaxis.Adapter { return p.in.Adapter }

// Horizon returns t0 and t_last as ticks.
func (p *Problem) Horizon() (int, int) { return p.t0, p.tLast }

// ActiveJob returns the job of unit active at compressed index i.
func (p *Problem) ActiveJob(unit string, i int) *model.Job { return p.active[UnitKey{unit, i}] }

// DependencyMatrix returns [unit type][pattern][position] occupancy.
func (p *Problem) DependencyMatrix() [][][]bool { return p.deps.GenerateMatrix() }

func toFields(m map[string]int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
