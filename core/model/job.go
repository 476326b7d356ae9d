package model

import "fmt"

// TimeAxis converts domain time values to ticks and back.
type TimeAxis interface {
	ToTick(v any) (int, error)
	FromTick(t int) any
}

// Job is one occupancy obligation of a unit in a phase over the inclusive
// tick interval [StartTick, EndTick]. Start and End keep the domain values.
type Job struct {
	ID        string
	Unit      *Unit
	Phase     Phase
	Start     any
	End       any
	StartTick int
	EndTick   int
}

// NewJob converts start and end through axis and validates the window.
func NewJob(id string, unit *Unit, phase Phase, start, end any, axis TimeAxis) (*Job, error) {
	if unit == nil {
		return nil, fmt.Errorf("%w: job %s without unit", ErrConfiguration, id)
	}
	if phase.Need.Name == "" {
		return nil, fmt.Errorf("%w: job %s phase %q has no need", ErrConfiguration, id, phase.Name)
	}
	st, err := axis.ToTick(start)
	if err != nil {
		return nil, fmt.Errorf("job %s start: %w", id, err)
	}
	et, err := axis.ToTick(end)
	if err != nil {
		return nil, fmt.Errorf("job %s end: %w", id, err)
	}
	if et < st {
		return nil, fmt.Errorf("%w: job %s ends at tick %d before its start %d", ErrConfiguration, id, et, st)
	}
	if id == "" {
		id = fmt.Sprintf("%s/%s/%d", unit.Name, phase.Name, st)
	}
	return &Job{ID: id, Unit: unit, Phase: phase, Start: start, End: end, StartTick: st, EndTick: et}, nil
}

// Need returns the need required by the job's phase.
func (j *Job) Need() Need { return j.Phase.Need }

// TickRange returns the inclusive tick window.
func (j *Job) TickRange() (int, int) { return j.StartTick, j.EndTick }

// ActiveAt reports whether tick t lies within the job window.
func (j *Job) ActiveAt(t int) bool { return t >= j.StartTick && t <= j.EndTick }

// Clip trims the job to [t0, tLast] in place. It reports false when the job
// lies entirely outside the horizon and must be dropped.
func (j *Job) Clip(axis TimeAxis, t0, tLast int) bool {
	if j.EndTick < t0 || j.StartTick > tLast {
		return false
	}
	if j.StartTick < t0 {
		j.StartTick = t0
		j.Start = axis.FromTick(t0)
	}
	if j.EndTick > tLast {
		j.EndTick = tLast
		j.End = axis.FromTick(tLast)
	}
	return true
}

func (j *Job) String() string {
	return fmt.Sprintf("%s[%s %d..%d]", j.Unit.Name, j.Phase.Name, j.StartTick, j.EndTick)
}
