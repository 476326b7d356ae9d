package layout

import (
	"fmt"
	"sort"

	"github.com/kilianp07/posched/core/model"
)

// DefaultOut names the sentinel position standing for "outside the site".
const DefaultOut = "out"

type move struct{ from, to string }

// Configuration holds directional movement triggers: moving a unit from one
// position to another also registers movement at the triggered positions.
// The sentinel Out position may appear as from or to, for triggers fired
// when a unit enters or leaves the site.
type Configuration struct {
	Out       string
	positions []string
	index     map[string]int
	triggers  map[move]map[string]struct{}
}

// NewConfiguration returns an empty configuration over positions. The out
// sentinel takes the last index.
func NewConfiguration(positions []*model.Position, out string) (*Configuration, error) {
	if out == "" {
		out = DefaultOut
	}
	c := &Configuration{Out: out, index: make(map[string]int, len(positions)+1), triggers: map[move]map[string]struct{}{}}
	for _, p := range positions {
		if p.Name == out {
			return nil, fmt.Errorf("%w: position name %q is reserved", model.ErrConfiguration, out)
		}
		if _, dup := c.index[p.Name]; dup {
			return nil, fmt.Errorf("%w: position %s declared twice", model.ErrConfiguration, p.Name)
		}
		c.index[p.Name] = len(c.positions)
		c.positions = append(c.positions, p.Name)
	}
	c.index[out] = len(c.positions)
	c.positions = append(c.positions, out)
	return c, nil
}

// AddTrigger registers that moving from -> to also moves the triggered
// positions. Repeated calls for the same pair accumulate.
func (c *Configuration) AddTrigger(from, to string, triggered ...string) error {
	for _, n := range append([]string{from, to}, triggered...) {
		if _, ok := c.index[n]; !ok {
			return fmt.Errorf("%w: trigger references unknown position %s", model.ErrConfiguration, n)
		}
	}
	key := move{from, to}
	set, ok := c.triggers[key]
	if !ok {
		set = map[string]struct{}{}
		c.triggers[key] = set
	}
	for _, n := range triggered {
		set[n] = struct{}{}
	}
	return nil
}

// Triggered returns the positions triggered by from -> to, sorted.
func (c *Configuration) Triggered(from, to string) []string {
	set := c.triggers[move{from, to}]
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Index returns the cube index of a position or of the out sentinel.
func (c *Configuration) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Names returns the position names by cube index, out sentinel last.
func (c *Configuration) Names() []string { return append([]string(nil), c.positions...) }

// GenerateMatrix returns cube[from][to][triggered] and the name to index map.
// It allocates fresh structures on every call.
func (c *Configuration) GenerateMatrix() ([][][]bool, map[string]int) {
	n := len(c.positions)
	cube := make([][][]bool, n)
	for i := range cube {
		cube[i] = make([][]bool, n)
		for j := range cube[i] {
			cube[i][j] = make([]bool, n)
		}
	}
	for key, set := range c.triggers {
		f, t := c.index[key.from], c.index[key.to]
		for name := range set {
			cube[f][t][c.index[name]] = true
		}
	}
	idx := make(map[string]int, n)
	for k, v := range c.index {
		idx[k] = v
	}
	return cube, idx
}
