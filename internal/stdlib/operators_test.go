package stdlib

import (
	"testing"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/dispatch"
)

func newOperatorsEngine(t *testing.T) *dispatch.Engine {
	t.Helper()
	e := dispatch.NewEngine()
	if err := registerOperators(e); err != nil {
		t.Fatalf("registerOperators: %v", err)
	}
	return e
}

func TestStringConcatOperator(t *testing.T) {
	e := newOperatorsEngine(t)
	plus := builtinFor(t, e, "+")

	v, err := plus.Fn([]*box.Value{box.FromValue("foo"), box.FromValue("bar")})
	if err != nil {
		t.Fatalf("+: %v", err)
	}
	if v.Interface().(string) != "foobar" {
		t.Errorf("\"foo\" + \"bar\" = %q, want \"foobar\"", v.Interface())
	}
}

func TestPlusRejectsNonStringOperands(t *testing.T) {
	e := newOperatorsEngine(t)
	plus := builtinFor(t, e, "+")

	if _, err := plus.Fn([]*box.Value{box.FromValue(int64(1)), box.FromValue(int64(2))}); err == nil {
		t.Errorf("expected + to reject non-string operands (the numeric fast path owns those)")
	}
}

func TestStructuralEqualityOverVectors(t *testing.T) {
	e := newOperatorsEngine(t)
	eq := builtinFor(t, e, "==")

	a := box.FromValue([]*box.Value{box.FromValue(int64(1)), box.FromValue(int64(2))})
	b := box.FromValue([]*box.Value{box.FromValue(int64(1)), box.FromValue(int64(2))})
	c := box.FromValue([]*box.Value{box.FromValue(int64(1)), box.FromValue(int64(3))})

	v, err := eq.Fn([]*box.Value{a, b})
	if err != nil {
		t.Fatalf("==: %v", err)
	}
	if !v.Interface().(bool) {
		t.Errorf("expected two structurally equal vectors to compare equal")
	}

	v, err = eq.Fn([]*box.Value{a, c})
	if err != nil {
		t.Fatalf("==: %v", err)
	}
	if v.Interface().(bool) {
		t.Errorf("expected two differing vectors to compare unequal")
	}
}

func TestStringOrderingOperators(t *testing.T) {
	e := newOperatorsEngine(t)
	lt := builtinFor(t, e, "<")

	v, err := lt.Fn([]*box.Value{box.FromValue("abc"), box.FromValue("abd")})
	if err != nil {
		t.Fatalf("<: %v", err)
	}
	if !v.Interface().(bool) {
		t.Errorf("expected \"abc\" < \"abd\"")
	}
}
