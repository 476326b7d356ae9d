package model

import (
	"fmt"
	"sort"
)

// Position is a physical slot offering a set of needs with a positive capacity.
type Position struct {
	Name     string
	Capacity int
	needs    map[string]struct{}
}

// NewPosition returns a position offering the given needs.
func NewPosition(name string, capacity int, needs ...Need) (*Position, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: position without name", ErrConfiguration)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: position %s capacity %d must be positive", ErrConfiguration, name, capacity)
	}
	p := &Position{Name: name, Capacity: capacity, needs: make(map[string]struct{}, len(needs))}
	for _, n := range needs {
		p.needs[n.Name] = struct{}{}
	}
	return p, nil
}

// Satisfies reports whether the position offers need n.
func (p *Position) Satisfies(n Need) bool {
	_, ok := p.needs[n.Name]
	return ok
}

// Needs returns the offered needs sorted by name.
func (p *Position) Needs() []Need {
	out := make([]Need, 0, len(p.needs))
	for n := range p.needs {
		out = append(out, Need{Name: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (p *Position) String() string { return p.Name }
