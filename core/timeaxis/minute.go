package timeaxis

import (
	"fmt"
	"time"
)

const minuteLayout = "2006-01-02T15:04"

// MinuteStep buckets datetimes into fixed Step-minute slots from Origin.
// Values inside a slot floor to its tick.
type MinuteStep struct {
	Origin time.Time
	Step   int
}

// NewMinuteStep returns a minute adapter. step must be positive.
func NewMinuteStep(origin time.Time, step int) (*MinuteStep, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: minute step %d must be positive", ErrInvalidValue, step)
	}
	return &MinuteStep{Origin: origin, Step: step}, nil
}

func (m *MinuteStep) Name() string { return "minutes" }

func (m *MinuteStep) Validate(v any) error {
	_, err := asTime(v)
	return err
}

func (m *MinuteStep) ToTick(v any) (int, error) {
	t, err := asTime(v)
	if err != nil {
		return 0, err
	}
	minutes := int(t.Sub(m.Origin) / time.Minute)
	if t.Before(m.Origin) && t.Sub(m.Origin)%time.Minute != 0 {
		minutes--
	}
	return floorDiv(minutes, m.Step), nil
}

func (m *MinuteStep) FromTick(tick int) any {
	return m.Origin.Add(time.Duration(tick*m.Step) * time.Minute)
}

func (m *MinuteStep) Parse(s string) (any, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(minuteLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return t, nil
}

func (m *MinuteStep) Format(v any) string {
	t, err := asTime(v)
	if err != nil {
		return "?"
	}
	return t.Format(minuteLayout)
}
