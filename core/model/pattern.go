package model

import (
	"fmt"
	"sort"
	"strings"
)

// Pattern is a set of positions occupied simultaneously by one unit.
type Pattern struct {
	Name      string
	Positions []*Position
}

// NewPattern builds a pattern. Positions must be distinct. An empty name is
// replaced by the joined position names.
func NewPattern(name string, positions ...*Position) (*Pattern, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: pattern %q has no positions", ErrConfiguration, name)
	}
	seen := make(map[string]struct{}, len(positions))
	names := make([]string, 0, len(positions))
	for _, p := range positions {
		if p == nil {
			return nil, fmt.Errorf("%w: pattern %q references nil position", ErrConfiguration, name)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("%w: pattern %q lists position %s twice", ErrConfiguration, name, p.Name)
		}
		seen[p.Name] = struct{}{}
		names = append(names, p.Name)
	}
	if name == "" {
		name = strings.Join(names, "+")
	}
	return &Pattern{Name: name, Positions: append([]*Position(nil), positions...)}, nil
}

// Contains reports whether the pattern occupies the named position.
func (k *Pattern) Contains(position string) bool {
	for _, p := range k.Positions {
		if p.Name == position {
			return true
		}
	}
	return false
}

// PositionNames returns the names of the occupied positions in declaration order.
func (k *Pattern) PositionNames() []string {
	out := make([]string, len(k.Positions))
	for i, p := range k.Positions {
		out[i] = p.Name
	}
	return out
}

// Matches reports whether the pattern occupies exactly the named positions.
func (k *Pattern) Matches(positions []string) bool {
	if len(positions) != len(k.Positions) {
		return false
	}
	a := k.PositionNames()
	b := append([]string(nil), positions...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (k *Pattern) String() string { return k.Name }
