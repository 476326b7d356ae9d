package solver

import (
	"errors"
	"testing"
)

func TestLiteralEncoding(t *testing.T) {
	m := NewModel()
	_ = m.NewBoolVar("a")
	b := m.NewBoolVar("b")
	if b.Lit().Var() != b || b.Not().Var() != b {
		t.Fatalf("literal does not round trip")
	}
	if b.Lit().Negated() || !b.Not().Negated() {
		t.Fatalf("negation flag wrong")
	}
	if b.Lit().Not() != b.Not() {
		t.Fatalf("complement wrong")
	}
	if m.Name(b) != "b" {
		t.Fatalf("unexpected name %s", m.Name(b))
	}
}

func TestValidateRejectsForeignVariables(t *testing.T) {
	m := NewModel()
	x := m.NewBoolVar("x")
	m.AddBoolOr(x.Lit())
	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.AddImplication(x.Lit(), BoolVar(7).Lit())
	if err := m.Validate(); !errors.Is(err, ErrModelInvalid) {
		t.Fatalf("expected invalid model, got %v", err)
	}
}

func TestResponseLitValue(t *testing.T) {
	r := &Response{Values: []bool{true, false}}
	if !r.LitValue(BoolVar(0).Lit()) || r.LitValue(BoolVar(0).Not()) || !r.LitValue(BoolVar(1).Not()) {
		t.Fatalf("literal values wrong")
	}
	if r.Value(BoolVar(5)) {
		t.Fatalf("out of range must be false")
	}
}
