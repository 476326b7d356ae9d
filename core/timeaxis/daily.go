package timeaxis

import (
	"time"
)

// Daily maps a calendar date to its day offset from Origin.
type Daily struct {
	Origin time.Time
}

// NewDaily returns a daily adapter anchored at origin.
func NewDaily(origin time.Time) *Daily { return &Daily{Origin: midnight(origin)} }

func (d *Daily) Name() string { return "daily" }

func (d *Daily) Validate(v any) error {
	_, err := asTime(v)
	return err
}

func (d *Daily) ToTick(v any) (int, error) {
	t, err := asTime(v)
	if err != nil {
		return 0, err
	}
	return daysBetween(d.Origin, t), nil
}

func (d *Daily) FromTick(tick int) any { return d.Origin.AddDate(0, 0, tick) }

func (d *Daily) Parse(s string) (any, error) {
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (d *Daily) Format(v any) string {
	t, err := asTime(v)
	if err != nil {
		return "?"
	}
	return t.Format(dateLayout)
}
