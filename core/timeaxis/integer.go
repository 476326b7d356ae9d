package timeaxis

import (
	"fmt"
	"strconv"
)

// Integer treats values as ticks already.
type Integer struct{}

func (Integer) Name() string { return "integer" }

func (Integer) Validate(v any) error {
	_, err := Integer{}.ToTick(v)
	return err
}

func (Integer) ToTick(v any) (int, error) {
	switch iv := v.(type) {
	case int:
		return iv, nil
	case int32:
		return int(iv), nil
	case int64:
		return int(iv), nil
	}
	return 0, fmt.Errorf("%w: expected integer, got %T", ErrInvalidValue, v)
}

func (Integer) FromTick(t int) any { return t }

func (Integer) Parse(s string) (any, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return i, nil
}

func (Integer) Format(v any) string { return fmt.Sprint(v) }
