package model

import "fmt"

// UnitType is a unit category owning its allowed patterns.
type UnitType struct {
	Name     string
	Patterns []*Pattern
}

// NewUnitType returns a unit type with the given patterns.
func NewUnitType(name string, patterns ...*Pattern) (*UnitType, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: unit type without name", ErrConfiguration)
	}
	ut := &UnitType{Name: name}
	for _, k := range patterns {
		if err := ut.AddPattern(k); err != nil {
			return nil, err
		}
	}
	return ut, nil
}

// AddPattern appends k. Pattern names are unique within a unit type.
func (ut *UnitType) AddPattern(k *Pattern) error {
	if k == nil {
		return fmt.Errorf("%w: nil pattern for unit type %s", ErrConfiguration, ut.Name)
	}
	for _, existing := range ut.Patterns {
		if existing.Name == k.Name {
			return fmt.Errorf("%w: unit type %s already has pattern %s", ErrConfiguration, ut.Name, k.Name)
		}
	}
	ut.Patterns = append(ut.Patterns, k)
	return nil
}

// EnsureDefaultPatterns gives a unit type without patterns one singleton
// pattern per position. It reports whether patterns were added and is a
// no-op on later calls.
func (ut *UnitType) EnsureDefaultPatterns(positions []*Position) bool {
	if len(ut.Patterns) > 0 {
		return false
	}
	for _, p := range positions {
		ut.Patterns = append(ut.Patterns, &Pattern{Name: p.Name, Positions: []*Position{p}})
	}
	return len(ut.Patterns) > 0
}

// Pattern looks a pattern up by name.
func (ut *UnitType) Pattern(name string) (*Pattern, bool) {
	for _, k := range ut.Patterns {
		if k.Name == name {
			return k, true
		}
	}
	return nil, false
}

// Unit is a concrete item of a unit type.
type Unit struct {
	Name string
	Type *UnitType
}

// NewUnit returns a unit of the given type.
func NewUnit(name string, ut *UnitType) (*Unit, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: unit without name", ErrConfiguration)
	}
	if ut == nil {
		return nil, fmt.Errorf("%w: unit %s without type", ErrConfiguration, name)
	}
	return &Unit{Name: name, Type: ut}, nil
}

func (u *Unit) String() string { return u.Name }
