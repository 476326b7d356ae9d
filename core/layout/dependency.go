package layout

import (
	"fmt"

	"github.com/kilianp07/posched/core/model"
)

// UnitTypeDependency relates unit types to their patterns over an ordered
// list of positions.
type UnitTypeDependency struct {
	positions []*model.Position
	posIndex  map[string]int
	types     []*model.UnitType
}

// NewUnitTypeDependency normalizes every unit type without patterns to one
// singleton pattern per position. Patterns may only reference known
// positions.
func NewUnitTypeDependency(positions []*model.Position, types []*model.UnitType) (*UnitTypeDependency, error) {
	d := &UnitTypeDependency{
		positions: append([]*model.Position(nil), positions...),
		posIndex:  make(map[string]int, len(positions)),
		types:     append([]*model.UnitType(nil), types...),
	}
	for i, p := range positions {
		if _, dup := d.posIndex[p.Name]; dup {
			return nil, fmt.Errorf("%w: position %s declared twice", model.ErrConfiguration, p.Name)
		}
		d.posIndex[p.Name] = i
	}
	seen := make(map[string]struct{}, len(types))
	for _, ut := range types {
		if _, dup := seen[ut.Name]; dup {
			return nil, fmt.Errorf("%w: unit type %s declared twice", model.ErrConfiguration, ut.Name)
		}
		seen[ut.Name] = struct{}{}
		ut.EnsureDefaultPatterns(d.positions)
		for _, k := range ut.Patterns {
			for _, p := range k.Positions {
				if _, ok := d.posIndex[p.Name]; !ok {
					return nil, fmt.Errorf("%w: pattern %s of %s uses unknown position %s", model.ErrConfiguration, k.Name, ut.Name, p.Name)
				}
			}
		}
	}
	return d, nil
}

// Positions returns the ordered positions.
func (d *UnitTypeDependency) Positions() []*model.Position { return d.positions }

// PositionIndex returns the matrix column of a position.
func (d *UnitTypeDependency) PositionIndex(name string) (int, bool) {
	i, ok := d.posIndex[name]
	return i, ok
}

// UnitTypes returns the ordered unit types.
func (d *UnitTypeDependency) UnitTypes() []*model.UnitType { return d.types }

// GenerateMatrix returns m[unitType][pattern][position], true when the pattern
// occupies the position. The result is freshly allocated on every call.
func (d *UnitTypeDependency) GenerateMatrix() [][][]bool {
	m := make([][][]bool, len(d.types))
	for u, ut := range d.types {
		m[u] = make([][]bool, len(ut.Patterns))
		for k, pat := range ut.Patterns {
			row := make([]bool, len(d.positions))
			for _, p := range pat.Positions {
				row[d.posIndex[p.Name]] = true
			}
			m[u][k] = row
		}
	}
	return m
}
