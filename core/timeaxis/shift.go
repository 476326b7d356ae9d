package timeaxis

import (
	"fmt"
	"strings"
	"time"
)

// ShiftValue identifies one shift of one calendar day.
type ShiftValue struct {
	Date  time.Time
	Shift string
}

func (s ShiftValue) String() string { return s.Date.Format(dateLayout) + "/" + s.Shift }

// Shift maps (date, shift label) pairs onto consecutive ticks. Tick 0 is
// OriginShift on Origin; each day contributes len(Shifts) ticks.
type Shift struct {
	Origin      time.Time
	OriginShift string
	Shifts      []string
	index       map[string]int
}

// NewShift returns a shift adapter. originShift must be one of shifts.
func NewShift(origin time.Time, originShift string, shifts []string) (*Shift, error) {
	if len(shifts) == 0 {
		return nil, fmt.Errorf("%w: no shifts configured", ErrInvalidValue)
	}
	idx := make(map[string]int, len(shifts))
	for i, s := range shifts {
		if _, dup := idx[s]; dup {
			return nil, fmt.Errorf("%w: shift %q listed twice", ErrInvalidValue, s)
		}
		idx[s] = i
	}
	if originShift == "" {
		originShift = shifts[0]
	}
	if _, ok := idx[originShift]; !ok {
		return nil, fmt.Errorf("%w: unknown origin shift %q", ErrInvalidValue, originShift)
	}
	return &Shift{Origin: midnight(origin), OriginShift: originShift, Shifts: append([]string(nil), shifts...), index: idx}, nil
}

func (s *Shift) Name() string { return "shift" }

func (s *Shift) shiftIndex(label string) (int, error) {
	i, ok := s.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: unknown shift %q (want one of %s)", ErrInvalidValue, label, strings.Join(s.Shifts, ", "))
	}
	return i, nil
}

func asShift(v any) (ShiftValue, error) {
	switch sv := v.(type) {
	case ShiftValue:
		return sv, nil
	case *ShiftValue:
		if sv != nil {
			return *sv, nil
		}
	}
	return ShiftValue{}, fmt.Errorf("%w: expected ShiftValue, got %T", ErrInvalidValue, v)
}

func (s *Shift) Validate(v any) error {
	sv, err := asShift(v)
	if err != nil {
		return err
	}
	_, err = s.shiftIndex(sv.Shift)
	return err
}

func (s *Shift) ToTick(v any) (int, error) {
	sv, err := asShift(v)
	if err != nil {
		return 0, err
	}
	i, err := s.shiftIndex(sv.Shift)
	if err != nil {
		return 0, err
	}
	return daysBetween(s.Origin, sv.Date)*len(s.Shifts) + i - s.index[s.OriginShift], nil
}

func (s *Shift) FromTick(tick int) any {
	offset := tick + s.index[s.OriginShift]
	n := len(s.Shifts)
	return ShiftValue{
		Date:  s.Origin.AddDate(0, 0, floorDiv(offset, n)),
		Shift: s.Shifts[floorMod(offset, n)],
	}
}

// Parse accepts "2006-01-02/label" or "2006-01-02 label".
func (s *Shift) Parse(str string) (any, error) {
	sep := strings.IndexAny(str, "/ ")
	if sep < 0 {
		return nil, fmt.Errorf("%w: shift value %q lacks a label", ErrInvalidValue, str)
	}
	d, err := parseDate(str[:sep])
	if err != nil {
		return nil, err
	}
	sv := ShiftValue{Date: d, Shift: strings.TrimSpace(str[sep+1:])}
	if err := s.Validate(sv); err != nil {
		return nil, err
	}
	return sv, nil
}

func (s *Shift) Format(v any) string {
	sv, err := asShift(v)
	if err != nil {
		return "?"
	}
	return sv.String()
}
