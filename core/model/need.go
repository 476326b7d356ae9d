package model

import "fmt"

// Need is a requirement category. Two needs are equal when their names are.
type Need struct {
	Name string `json:"name" yaml:"name"`
}

// Phase is a named work stage requiring exactly one Need.
type Phase struct {
	Name string `json:"name" yaml:"name"`
	Need Need   `json:"need" yaml:"need"`
}

// NewPhase validates and returns a phase.
func NewPhase(name string, need Need) (Phase, error) {
	if name == "" {
		return Phase{}, fmt.Errorf("%w: phase without name", ErrConfiguration)
	}
	if need.Name == "" {
		return Phase{}, fmt.Errorf("%w: phase %s without need", ErrConfiguration, name)
	}
	return Phase{Name: name, Need: need}, nil
}

func (p Phase) String() string { return p.Name }
