// Package validation runs the structural checks that must pass before any
// decision variable is created.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kilianp07/posched/core/model"
	"github.com/kilianp07/posched/core/timeaxis"
)

// ErrInfeasible marks problems that no assignment can satisfy.
var ErrInfeasible = errors.New("structurally infeasible")

// NonOverlapping fails when two jobs of the same unit share a tick.
func NonOverlapping(jobs []*model.Job) error {
	byUnit := map[string][]*model.Job{}
	for _, j := range jobs {
		byUnit[j.Unit.Name] = append(byUnit[j.Unit.Name], j)
	}
	units := make([]string, 0, len(byUnit))
	for u := range byUnit {
		units = append(units, u)
	}
	sort.Strings(units)
	for _, u := range units {
		list := byUnit[u]
		sort.SliceStable(list, func(a, b int) bool { return list[a].StartTick < list[b].StartTick })
		for i := 1; i < len(list); i++ {
			prev, curr := list[i-1], list[i]
			if curr.StartTick <= prev.EndTick {
				return fmt.Errorf("%w: unit %s jobs %s and %s overlap at tick %d", ErrInfeasible, u, prev.ID, curr.ID, curr.StartTick)
			}
		}
	}
	return nil
}

// NeedBalance is the supply and demand of one need at one tick.
type NeedBalance struct {
	Supply int `json:"supply"`
	Demand int `json:"demand"`
}

// TickSummary aggregates capacity usage at one compressed tick.
type TickSummary struct {
	Index         int                    `json:"index"`
	Tick          int                    `json:"tick"`
	TotalCapacity int                    `json:"total_capacity"`
	TotalDemand   int                    `json:"total_demand"`
	PerNeed       map[string]NeedBalance `json:"per_need"`
}

// Overloaded returns the needs whose demand exceeds supply, sorted.
func (s TickSummary) Overloaded() []string {
	var out []string
	for n, b := range s.PerNeed {
		if b.Demand > b.Supply {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Describe renders the violation at this tick. Overloaded needs take
// precedence over the totals, which can look fine when a need has no supply.
func (s TickSummary) Describe() string {
	if over := s.Overloaded(); len(over) > 0 {
		return fmt.Sprintf("tick %d needs %s", s.Tick, strings.Join(over, ","))
	}
	return fmt.Sprintf("tick %d demand %d > capacity %d", s.Tick, s.TotalDemand, s.TotalCapacity)
}

// CapacityReport is the per-tick diagnostic of CapacityFeasibility.
type CapacityReport struct {
	Ticks []TickSummary `json:"ticks"`
}

// Violations returns the summaries of infeasible ticks.
func (r CapacityReport) Violations() []TickSummary {
	var out []TickSummary
	for _, s := range r.Ticks {
		if s.TotalDemand > s.TotalCapacity || len(s.Overloaded()) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// CapacityError carries the report of a failed capacity check.
type CapacityError struct {
	Report CapacityReport
}

func (e *CapacityError) Error() string {
	v := e.Report.Violations()
	parts := make([]string, 0, len(v))
	for _, s := range v {
		parts = append(parts, s.Describe())
	}
	return fmt.Sprintf("%v: %s", ErrInfeasible, strings.Join(parts, "; "))
}

func (e *CapacityError) Unwrap() error { return ErrInfeasible }

// CapacityFeasibility compares, at every compressed tick, the demand of active
// jobs per need with the capacity of positions offering that need. The report
// is returned on success and, wrapped in a *CapacityError, on failure.
func CapacityFeasibility(jobs []*model.Job, positions []*model.Position, tl *timeaxis.Timeline) (CapacityReport, error) {
	total := 0
	for _, p := range positions {
		total += p.Capacity
	}
	supply := map[string]int{}
	for _, p := range positions {
		for _, n := range p.Needs() {
			supply[n.Name] += p.Capacity
		}
	}

	report := CapacityReport{Ticks: make([]TickSummary, tl.Len())}
	for i := range report.Ticks {
		report.Ticks[i] = TickSummary{Index: i, Tick: tl.Tick(i), TotalCapacity: total, PerNeed: map[string]NeedBalance{}}
	}
	for _, j := range jobs {
		need := j.Need().Name
		for _, i := range tl.ActiveIndices(j) {
			s := &report.Ticks[i]
			s.TotalDemand++
			b := s.PerNeed[need]
			b.Demand++
			b.Supply = supply[need]
			s.PerNeed[need] = b
		}
	}
	if len(report.Violations()) > 0 {
		return report, &CapacityError{Report: report}
	}
	return report, nil
}
