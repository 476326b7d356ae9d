package timeaxis

import (
	"time"

	"github.com/kilianp07/posched/core/factory"
)

var registry = factory.NewRegistry[Adapter]()

// Register adds an adapter factory under name.
func Register(name string, f factory.Factory[Adapter]) error {
	return registry.Register(name, f)
}

// New builds the adapter described by cfg. An empty type selects "daily".
func New(cfg factory.ModuleConfig) (Adapter, error) {
	if cfg.Type == "" {
		cfg.Type = "daily"
	}
	return registry.Create(cfg)
}

type calendarConf struct {
	Origin      string   `json:"origin"`
	OriginShift string   `json:"origin_shift"`
	Shifts      []string `json:"shifts"`
	Step        int      `json:"step"`
}

func decodeCalendar(conf map[string]any) (calendarConf, time.Time, error) {
	var c calendarConf
	if err := factory.Decode(conf, &c); err != nil {
		return c, time.Time{}, err
	}
	if c.Origin == "" {
		return c, time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, c.Origin); err == nil {
		return c, t, nil
	}
	if t, err := time.Parse(minuteLayout, c.Origin); err == nil {
		return c, t, nil
	}
	t, err := parseDate(c.Origin)
	return c, t, err
}

func init() {
	_ = Register("integer", func(map[string]any) (Adapter, error) { return Integer{}, nil })
	_ = Register("daily", func(conf map[string]any) (Adapter, error) {
		_, origin, err := decodeCalendar(conf)
		if err != nil {
			return nil, err
		}
		return NewDaily(origin), nil
	})
	_ = Register("weekly", func(conf map[string]any) (Adapter, error) {
		_, origin, err := decodeCalendar(conf)
		if err != nil {
			return nil, err
		}
		return NewWeekly(origin), nil
	})
	_ = Register("shift", func(conf map[string]any) (Adapter, error) {
		c, origin, err := decodeCalendar(conf)
		if err != nil {
			return nil, err
		}
		if len(c.Shifts) == 0 {
			c.Shifts = []string{"morning", "afternoon", "night"}
		}
		return NewShift(origin, c.OriginShift, c.Shifts)
	})
	_ = Register("minutes", func(conf map[string]any) (Adapter, error) {
		c, origin, err := decodeCalendar(conf)
		if err != nil {
			return nil, err
		}
		if c.Step == 0 {
			c.Step = 60
		}
		return NewMinuteStep(origin, c.Step)
	})
}
