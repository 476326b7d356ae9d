package timeaxis

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/posched/core/model"
)

// ErrInvalidValue is returned for values of the wrong type or with an
// unknown shift label. It wraps model.ErrConfiguration.
var ErrInvalidValue = fmt.Errorf("%w: invalid time value", model.ErrConfiguration)

// Adapter converts domain time values to ticks and back.
type Adapter interface {
	model.TimeAxis
	// Validate checks the dynamic type of v without converting it.
	Validate(v any) error
	// Parse reads a value from its textual form, as found in scenario files.
	Parse(s string) (any, error)
	// Format renders a value for result tables.
	Format(v any) string
	Name() string
}

const dateLayout = "2006-01-02"

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int { return a - floorDiv(a, b)*b }

// midnight drops the clock part, keeping the calendar date in UTC.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from origin to t.
func daysBetween(origin, t time.Time) int {
	return int(midnight(t).Sub(midnight(origin)).Hours() / 24)
}

func asTime(v any) (time.Time, error) {
	switch tv := v.(type) {
	case time.Time:
		return tv, nil
	case *time.Time:
		if tv != nil {
			return *tv, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: expected time.Time, got %T", ErrInvalidValue, v)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return t, nil
}

// IsInvalid reports whether err stems from a rejected time value.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalidValue) }
