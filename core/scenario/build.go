package scenario

import (
	"fmt"

	"github.com/kilianp07/posched/core/factory"
	"github.com/kilianp07/posched/core/layout"
	"github.com/kilianp07/posched/core/logger"
	"github.com/kilianp07/posched/core/model"
	"github.com/kilianp07/posched/core/planner"
	"github.com/kilianp07/posched/core/timeaxis"
)

// Scenario is a document resolved into domain entities.
type Scenario struct {
	Name    string
	Input   planner.Input
	Options planner.Options
	// Initial maps unit names to the positions occupied at the horizon start.
	Initial map[string][]string
	// Waiting counts inserted waiting jobs.
	Waiting int
}

// Build resolves every reference of the document. base supplies options the
// document does not set, typically from configuration.
func (d *Document) Build(base planner.Options, log logger.Logger) (*Scenario, error) {
	log = logger.OrNop(log)
	adapter, err := timeaxis.New(factory.ModuleConfig{Type: d.TimeAxis.Type, Conf: d.TimeAxis.Conf})
	if err != nil {
		return nil, fmt.Errorf("%w: time axis: %v", model.ErrConfiguration, err)
	}

	phases := make(map[string]model.Phase, len(d.Phases))
	for _, ps := range d.Phases {
		if _, dup := phases[ps.Name]; dup {
			return nil, fmt.Errorf("%w: phase %s declared twice", model.ErrConfiguration, ps.Name)
		}
		ph, err := model.NewPhase(ps.Name, model.Need{Name: ps.Need})
		if err != nil {
			return nil, err
		}
		phases[ps.Name] = ph
	}

	positions := make([]*model.Position, 0, len(d.Positions))
	byName := make(map[string]*model.Position, len(d.Positions))
	for _, ps := range d.Positions {
		needs := make([]model.Need, len(ps.Needs))
		for i, n := range ps.Needs {
			needs[i] = model.Need{Name: n}
		}
		pos, err := model.NewPosition(ps.Name, ps.Capacity, needs...)
		if err != nil {
			return nil, err
		}
		if _, dup := byName[pos.Name]; dup {
			return nil, fmt.Errorf("%w: position %s declared twice", model.ErrConfiguration, pos.Name)
		}
		byName[pos.Name] = pos
		positions = append(positions, pos)
	}

	types := make([]*model.UnitType, 0, len(d.UnitTypes))
	typeByName := make(map[string]*model.UnitType, len(d.UnitTypes))
	for _, ts := range d.UnitTypes {
		var patterns []*model.Pattern
		for _, ks := range ts.Patterns {
			members := make([]*model.Position, len(ks.Positions))
			for i, n := range ks.Positions {
				pos, ok := byName[n]
				if !ok {
					return nil, fmt.Errorf("%w: pattern of %s references unknown position %s", model.ErrConfiguration, ts.Name, n)
				}
				members[i] = pos
			}
			k, err := model.NewPattern(ks.Name, members...)
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, k)
		}
		ut, err := model.NewUnitType(ts.Name, patterns...)
		if err != nil {
			return nil, err
		}
		if _, dup := typeByName[ut.Name]; dup {
			return nil, fmt.Errorf("%w: unit type %s declared twice", model.ErrConfiguration, ut.Name)
		}
		typeByName[ut.Name] = ut
		types = append(types, ut)
	}

	units := make([]*model.Unit, 0, len(d.Units))
	unitByName := make(map[string]*model.Unit, len(d.Units))
	for _, us := range d.Units {
		ut, ok := typeByName[us.Type]
		if !ok {
			return nil, fmt.Errorf("%w: unit %s has unknown type %s", model.ErrConfiguration, us.Name, us.Type)
		}
		u, err := model.NewUnit(us.Name, ut)
		if err != nil {
			return nil, err
		}
		if _, dup := unitByName[u.Name]; dup {
			return nil, fmt.Errorf("%w: unit %s declared twice", model.ErrConfiguration, u.Name)
		}
		unitByName[u.Name] = u
		units = append(units, u)
	}

	jobs := make([]*model.Job, 0, len(d.Jobs))
	for _, js := range d.Jobs {
		u, ok := unitByName[js.Unit]
		if !ok {
			return nil, fmt.Errorf("%w: job %s references unknown unit %s", model.ErrConfiguration, js.ID, js.Unit)
		}
		ph, ok := phases[js.Phase]
		if !ok {
			return nil, fmt.Errorf("%w: job %s references unknown phase %s", model.ErrConfiguration, js.ID, js.Phase)
		}
		start, err := adapter.Parse(js.Start)
		if err != nil {
			return nil, fmt.Errorf("job %s start: %w", js.ID, err)
		}
		end, err := adapter.Parse(js.End)
		if err != nil {
			return nil, fmt.Errorf("job %s end: %w", js.ID, err)
		}
		j, err := model.NewJob(js.ID, u, ph, start, end, adapter)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	waiting := 0
	if d.WaitingPhase != "" {
		ph, ok := phases[d.WaitingPhase]
		if !ok {
			return nil, fmt.Errorf("%w: unknown waiting phase %s", model.ErrConfiguration, d.WaitingPhase)
		}
		before := len(jobs)
		if jobs, err = InsertWaitingJobs(jobs, ph, adapter); err != nil {
			return nil, err
		}
		waiting = len(jobs) - before
		log.Infof("inserted %d waiting jobs", waiting)
	}

	conf, err := layout.NewConfiguration(positions, d.Layout.Out)
	if err != nil {
		return nil, err
	}
	for _, tr := range d.Layout.Triggers {
		if err := conf.AddTrigger(tr.From, tr.To, tr.Triggered...); err != nil {
			return nil, err
		}
	}

	initial := make(map[string][]string, len(d.InitialConditions))
	for _, ic := range d.InitialConditions {
		if _, dup := initial[ic.Unit]; dup {
			return nil, fmt.Errorf("%w: unit %s has several initial conditions", model.ErrConfiguration, ic.Unit)
		}
		initial[ic.Unit] = append([]string(nil), ic.Positions...)
	}

	opts := base
	if d.Horizon.T0 != "" {
		if opts.T0, err = adapter.Parse(d.Horizon.T0); err != nil {
			return nil, fmt.Errorf("horizon t0: %w", err)
		}
	}
	if d.Horizon.TLast != "" {
		if opts.TLast, err = adapter.Parse(d.Horizon.TLast); err != nil {
			return nil, fmt.Errorf("horizon t_last: %w", err)
		}
	}
	if d.Horizon.Ticks > 0 {
		opts.HorizonTicks = d.Horizon.Ticks
	}
	for _, a := range d.Horizon.Anchors {
		v, err := adapter.Parse(a)
		if err != nil {
			return nil, fmt.Errorf("horizon anchor: %w", err)
		}
		opts.Anchors = append(opts.Anchors, v)
	}

	log.Debugw("scenario resolved", map[string]any{
		"name": d.Name, "axis": adapter.Name(), "positions": len(positions),
		"unit_types": len(types), "units": len(units), "jobs": len(jobs),
	})
	return &Scenario{
		Name: d.Name,
		Input: planner.Input{
			Adapter:   adapter,
			Positions: positions,
			UnitTypes: types,
			Units:     units,
			Jobs:      jobs,
			Layout:    conf,
		},
		Options: opts,
		Initial: initial,
		Waiting: waiting,
	}, nil
}
