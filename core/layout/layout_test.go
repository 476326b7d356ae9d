package layout

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kilianp07/posched/core/model"
)

func positions(t *testing.T, names ...string) []*model.Position {
	t.Helper()
	out := make([]*model.Position, len(names))
	for i, n := range names {
		p, err := model.NewPosition(n, 1, model.Need{Name: "hangar"})
		if err != nil {
			t.Fatalf("position %s: %v", n, err)
		}
		out[i] = p
	}
	return out
}

func TestDependencyDefaultsAndIdempotence(t *testing.T) {
	ps := positions(t, "A", "B", "C")
	wide, _ := model.NewPattern("wide", ps[0], ps[1])
	typed, _ := model.NewUnitType("A380", wide)
	bare, _ := model.NewUnitType("A320")

	d, err := NewUnitTypeDependency(ps, []*model.UnitType{typed, bare})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bare.Patterns) != 3 {
		t.Fatalf("expected 3 singleton patterns, got %d", len(bare.Patterns))
	}
	m1 := d.GenerateMatrix()
	m2 := d.GenerateMatrix()
	if !reflect.DeepEqual(m1, m2) {
		t.Fatalf("matrix not idempotent")
	}
	if !m1[0][0][0] || !m1[0][0][1] || m1[0][0][2] {
		t.Fatalf("wide pattern row wrong: %v", m1[0][0])
	}
	if !m1[1][2][2] || m1[1][2][0] {
		t.Fatalf("singleton row wrong: %v", m1[1][2])
	}
}

func TestDependencyRejectsUnknownPosition(t *testing.T) {
	ps := positions(t, "A", "B")
	stray, _ := model.NewPosition("Z", 1)
	k, _ := model.NewPattern("k", stray)
	ut, _ := model.NewUnitType("T", k)
	if _, err := NewUnitTypeDependency(ps, []*model.UnitType{ut}); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestConfigurationIsDirectional(t *testing.T) {
	c, err := NewConfiguration(positions(t, "A", "B", "C", "D"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.AddTrigger("A", "D", "B", "C"); err != nil {
		t.Fatalf("add trigger: %v", err)
	}
	cube, idx := c.GenerateMatrix()
	if len(cube) != 5 || idx[DefaultOut] != 4 {
		t.Fatalf("expected out sentinel at index 4, got %v", idx)
	}
	a, d := idx["A"], idx["D"]
	if !cube[a][d][idx["B"]] || !cube[a][d][idx["C"]] {
		t.Fatalf("A->D should trigger B and C")
	}
	for k := range cube[d][a] {
		if cube[d][a][k] {
			t.Fatalf("D->A must not trigger anything")
		}
	}
	again, _ := c.GenerateMatrix()
	if !reflect.DeepEqual(cube, again) {
		t.Fatalf("cube not idempotent")
	}
	if got := c.Triggered("A", "D"); !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Fatalf("unexpected triggered set %v", got)
	}
}

func TestConfigurationRejectsUnknownNames(t *testing.T) {
	c, _ := NewConfiguration(positions(t, "A"), "")
	if err := c.AddTrigger("A", "X"); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if err := c.AddTrigger(DefaultOut, "A", "A"); err != nil {
		t.Fatalf("out sentinel should be accepted: %v", err)
	}
	if _, err := NewConfiguration(positions(t, "out"), ""); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("reserved name must be rejected")
	}
}
