package timeaxis

import (
	"time"
)

// Weekly collapses seven consecutive days, counted from Origin, into one
// tick. The mapping is lossy: FromTick returns the first day of the bucket.
type Weekly struct {
	Origin time.Time
}

// NewWeekly returns a weekly adapter anchored at origin.
func NewWeekly(origin time.Time) *Weekly { return &Weekly{Origin: midnight(origin)} }

func (w *Weekly) Name() string { return "weekly" }

func (w *Weekly) Validate(v any) error {
	_, err := asTime(v)
	return err
}

func (w *Weekly) ToTick(v any) (int, error) {
	t, err := asTime(v)
	if err != nil {
		return 0, err
	}
	return floorDiv(daysBetween(w.Origin, t), 7), nil
}

func (w *Weekly) FromTick(tick int) any { return w.Origin.AddDate(0, 0, 7*tick) }

func (w *Weekly) Parse(s string) (any, error) {
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (w *Weekly) Format(v any) string {
	t, err := asTime(v)
	if err != nil {
		return "?"
	}
	return t.Format(dateLayout)
}
