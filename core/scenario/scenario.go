// Package scenario reads site descriptions (positions, unit types, units,
// jobs, layout triggers and initial conditions) from YAML or JSON files and
// turns them into planner input.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/posched/core/model"
	"github.com/kilianp07/posched/internal/validate"
)

// Document is the on-disk scenario format. JSON documents are read by the
// same YAML decoder.
type Document struct {
	Name              string             `yaml:"name" json:"name"`
	TimeAxis          TimeAxisDef       `yaml:"time_axis" json:"time_axis"`
	Horizon           HorizonDef        `yaml:"horizon" json:"horizon"`
	Phases            []PhaseDef        `yaml:"phases" json:"phases" validate:"required,min=1,dive"`
	Positions         []PositionDef     `yaml:"positions" json:"positions" validate:"required,min=1,dive"`
	UnitTypes         []UnitTypeDef     `yaml:"unit_types" json:"unit_types" validate:"required,min=1,dive"`
	Units             []UnitDef         `yaml:"units" json:"units" validate:"required,min=1,dive"`
	Jobs              []JobDef          `yaml:"jobs" json:"jobs" validate:"dive"`
	Layout            LayoutDef         `yaml:"layout" json:"layout"`
	InitialConditions []InitialCondition `yaml:"initial_conditions" json:"initial_conditions" validate:"dive"`
	// WaitingPhase, when set, fills gaps between consecutive jobs of a unit
	// with jobs of this phase.
	WaitingPhase string `yaml:"waiting_phase" json:"waiting_phase"`
}

// TimeAxisDef selects a time adapter from the timeaxis registry.
type TimeAxisDef struct {
	Type string         `yaml:"type" json:"type" validate:"omitempty,oneof=integer daily weekly shift minutes"`
	Conf map[string]any `yaml:"conf" json:"conf"`
}

// HorizonDef holds domain values in their textual form.
type HorizonDef struct {
	T0      string   `yaml:"t0" json:"t0"`
	TLast   string   `yaml:"t_last" json:"t_last"`
	Ticks   int      `yaml:"ticks" json:"ticks" validate:"gte=0"`
	Anchors []string `yaml:"anchors" json:"anchors"`
}

type PhaseDef struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	Need string `yaml:"need" json:"need" validate:"required"`
}

type PositionDef struct {
	Name     string   `yaml:"name" json:"name" validate:"required"`
	Capacity int      `yaml:"capacity" json:"capacity" validate:"gte=1"`
	Needs    []string `yaml:"needs" json:"needs" validate:"required,min=1"`
}

// UnitTypeDef lists allowed patterns. An empty list means every single
// position.
type UnitTypeDef struct {
	Name     string        `yaml:"name" json:"name" validate:"required"`
	Patterns []PatternDef `yaml:"patterns" json:"patterns" validate:"dive"`
}

type PatternDef struct {
	Name      string   `yaml:"name" json:"name"`
	Positions []string `yaml:"positions" json:"positions" validate:"required,min=1"`
}

type UnitDef struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	Type string `yaml:"type" json:"type" validate:"required"`
}

type JobDef struct {
	ID    string `yaml:"id" json:"id"`
	Unit  string `yaml:"unit" json:"unit" validate:"required"`
	Phase string `yaml:"phase" json:"phase" validate:"required"`
	Start string `yaml:"start" json:"start" validate:"required"`
	End   string `yaml:"end" json:"end" validate:"required"`
}

// LayoutDef declares movement triggers. Out renames the outside sentinel.
type LayoutDef struct {
	Out      string        `yaml:"out" json:"out"`
	Triggers []TriggerDef `yaml:"triggers" json:"triggers" validate:"dive"`
}

type TriggerDef struct {
	From      string   `yaml:"from" json:"from" validate:"required"`
	To        string   `yaml:"to" json:"to" validate:"required"`
	Triggered []string `yaml:"triggered" json:"triggered" validate:"required,min=1"`
}

// InitialCondition states which positions a unit occupies at the horizon
// start.
type InitialCondition struct {
	Unit      string   `yaml:"unit" json:"unit" validate:"required"`
	Positions []string `yaml:"positions" json:"positions" validate:"required,min=1"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return doc, nil
}

// Decode reads one document from r, rejecting unknown fields.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty scenario", model.ErrConfiguration)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
