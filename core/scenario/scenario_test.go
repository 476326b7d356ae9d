package scenario

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/posched/core/model"
	"github.com/kilianp07/posched/core/planner"
	"github.com/kilianp07/posched/core/timeaxis"
)

func TestLoadAndBuildDepot(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "depot.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "depot", doc.Name)

	sc, err := doc.Build(planner.Options{HoldAtHorizonEnd: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "daily", sc.Input.Adapter.Name())
	assert.Len(t, sc.Input.Positions, 3)
	assert.Len(t, sc.Input.Units, 2)
	// n1 gap 04-04..04-05 and w1 gap 04-03 get waiting jobs.
	assert.Equal(t, 2, sc.Waiting)
	assert.Len(t, sc.Input.Jobs, 6)
	assert.True(t, sc.Options.HoldAtHorizonEnd)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), sc.Options.T0)
	assert.Equal(t, []string{"H1"}, sc.Input.Layout.Triggered("out", "H2"))
	assert.Equal(t, map[string][]string{"N1": {"H1"}}, sc.Initial)

	wide := sc.Input.UnitTypes[1]
	_, ok := wide.Pattern("P1")
	assert.True(t, ok, "unnamed pattern takes its positions as name")
}

func TestScenarioFeedsPlanner(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "depot.yaml"))
	require.NoError(t, err)
	sc, err := doc.Build(planner.Options{}, nil)
	require.NoError(t, err)
	p, err := planner.NewProblem(sc.Input, sc.Options, nil)
	require.NoError(t, err)
	_, err = p.Preprocess()
	require.NoError(t, err)
	require.NoError(t, p.BuildVariables())
	require.NoError(t, p.ApplyInitialConditions(sc.Initial))
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("name: x\ncolour: red\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestDecodeValidation(t *testing.T) {
	src := `
phases: [{name: p, need: n}]
positions: [{name: A, capacity: 0, needs: [n]}]
unit_types: [{name: t}]
units: [{name: u, type: t}]
`
	_, err := Decode(strings.NewReader(src))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
	assert.Contains(t, err.Error(), "positions[0].capacity")
}

func TestDecodeJSON(t *testing.T) {
	src := `{"time_axis":{"type":"integer"},"phases":[{"name":"p","need":"n"}],
"positions":[{"name":"A","capacity":1,"needs":["n"]}],"unit_types":[{"name":"t"}],
"units":[{"name":"u","type":"t"}],"jobs":[{"id":"j","unit":"u","phase":"p","start":"0","end":"2"}]}`
	doc, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	sc, err := doc.Build(planner.Options{}, nil)
	require.NoError(t, err)
	require.Len(t, sc.Input.Jobs, 1)
	assert.Equal(t, 2, sc.Input.Jobs[0].EndTick)
}

func TestBuildReferenceErrors(t *testing.T) {
	base := func() *Document {
		return &Document{
			TimeAxis:  TimeAxisDef{Type: "integer"},
			Phases:    []PhaseDef{{Name: "p", Need: "n"}},
			Positions: []PositionDef{{Name: "A", Capacity: 1, Needs: []string{"n"}}},
			UnitTypes: []UnitTypeDef{{Name: "t"}},
			Units:     []UnitDef{{Name: "u", Type: "t"}},
		}
	}
	cases := map[string]func(d *Document){
		"unknown unit type":      func(d *Document) { d.Units[0].Type = "x" },
		"unknown job unit":       func(d *Document) { d.Jobs = []JobDef{{ID: "j", Unit: "x", Phase: "p", Start: "0", End: "1"}} },
		"unknown job phase":      func(d *Document) { d.Jobs = []JobDef{{ID: "j", Unit: "u", Phase: "x", Start: "0", End: "1"}} },
		"bad tick value":         func(d *Document) { d.Jobs = []JobDef{{ID: "j", Unit: "u", Phase: "p", Start: "zero", End: "1"}} },
		"unknown pattern member": func(d *Document) { d.UnitTypes[0].Patterns = []PatternDef{{Positions: []string{"Z"}}} },
		"unknown trigger":        func(d *Document) { d.Layout.Triggers = []TriggerDef{{From: "A", To: "Z", Triggered: []string{"A"}}} },
		"duplicate unit":         func(d *Document) { d.Units = append(d.Units, UnitDef{Name: "u", Type: "t"}) },
		"duplicate initial": func(d *Document) {
			d.InitialConditions = []InitialCondition{{Unit: "u", Positions: []string{"A"}}, {Unit: "u", Positions: []string{"A"}}}
		},
		"unknown waiting phase": func(d *Document) { d.WaitingPhase = "idle" },
		"unknown axis":          func(d *Document) { d.TimeAxis.Type = "lunar" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := base()
			mutate(d)
			_, err := d.Build(planner.Options{}, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrConfiguration), "got %v", err)
		})
	}
}

func TestInsertWaitingJobs(t *testing.T) {
	ut, err := model.NewUnitType("t")
	require.NoError(t, err)
	u, err := model.NewUnit("u", ut)
	require.NoError(t, err)
	work := model.Phase{Name: "work", Need: model.Need{Name: "n"}}
	wait := model.Phase{Name: "wait", Need: model.Need{Name: "park"}}
	axis := timeaxis.Integer{}
	mk := func(id string, s, e int) *model.Job {
		j, err := model.NewJob(id, u, work, s, e, axis)
		require.NoError(t, err)
		return j
	}
	jobs := []*model.Job{mk("c", 9, 9), mk("a", 0, 2), mk("b", 3, 5)}
	out, err := InsertWaitingJobs(jobs, wait, axis)
	require.NoError(t, err)
	require.Len(t, out, 4, "adjacent jobs a and b leave no gap")
	w := out[3]
	assert.Equal(t, "u/wait/6", w.ID)
	assert.Equal(t, 6, w.StartTick)
	assert.Equal(t, 8, w.EndTick)
	assert.Equal(t, "park", w.Need().Name)
	assert.Same(t, jobs[0], out[0])
}
