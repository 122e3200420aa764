package stdlib

import (
	"testing"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/dispatch"
)

func newCoreEngine(t *testing.T) *dispatch.Engine {
	t.Helper()
	e := dispatch.NewEngine()
	if err := registerCore(e); err != nil {
		t.Fatalf("registerCore: %v", err)
	}
	return e
}

func TestToStringFormatsScalars(t *testing.T) {
	e := newCoreEngine(t)
	toString := builtinFor(t, e, "to_string")

	v, err := toString.Fn([]*box.Value{box.FromValue(int64(42))})
	if err != nil {
		t.Fatalf("to_string: %v", err)
	}
	if v.Interface().(string) != "42" {
		t.Errorf("to_string(42) = %q, want \"42\"", v.Interface())
	}
}

func TestCloneProducesIndependentCopy(t *testing.T) {
	e := newCoreEngine(t)
	clone := builtinFor(t, e, "clone")

	original := box.FromValue(int64(1))
	cloned, err := clone.Fn([]*box.Value{original})
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if err := original.Assign(box.FromValue(int64(2))); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if cloned.Interface().(int64) != 1 {
		t.Errorf("clone should be unaffected by later mutation of the original, got %v", cloned.Interface())
	}
}

func TestSizeAndEmptyOverContainers(t *testing.T) {
	e := newCoreEngine(t)
	size := builtinFor(t, e, "size")
	empty := builtinFor(t, e, "empty")

	vec := box.FromValue([]*box.Value{box.FromValue(int64(1)), box.FromValue(int64(2))})
	n, err := size.Fn([]*box.Value{vec})
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if n.Interface().(int64) != 2 {
		t.Errorf("size(vec) = %v, want 2", n.Interface())
	}

	e2 := box.FromValue([]*box.Value{})
	isEmpty, err := empty.Fn([]*box.Value{e2})
	if err != nil {
		t.Fatalf("empty: %v", err)
	}
	if !isEmpty.Interface().(bool) {
		t.Errorf("expected an empty vector to report empty() = true")
	}
}

func TestGenerateRangeProducesHalfOpenInterval(t *testing.T) {
	e := newCoreEngine(t)
	genRange := builtinFor(t, e, "generate_range")

	v, err := genRange.Fn([]*box.Value{box.FromValue(int64(2)), box.FromValue(int64(5))})
	if err != nil {
		t.Fatalf("generate_range: %v", err)
	}
	vec, ok := asVector(v)
	if !ok {
		t.Fatalf("generate_range did not return a Vector")
	}
	if len(vec) != 3 {
		t.Fatalf("generate_range(2, 5) length = %d, want 3", len(vec))
	}
	if vec[0].Interface().(int64) != 2 || vec[2].Interface().(int64) != 4 {
		t.Errorf("generate_range(2, 5) = %v, want [2, 3, 4]", vec)
	}
}

func TestBindPartiallyAppliesArguments(t *testing.T) {
	e := newCoreEngine(t)
	bind := builtinFor(t, e, "bind")

	add := &testFunction{fn: func(args []*box.Value) (*box.Value, error) {
		a := args[0].Interface().(int64)
		b := args[1].Interface().(int64)
		return box.FromValue(a + b).AsReturnValue(), nil
	}}

	bound, err := bind.Fn([]*box.Value{box.FromValue(dispatch.Function(add)), box.FromValue(int64(10))})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	boundFn, ok := bound.Interface().(dispatch.Function)
	if !ok {
		t.Fatalf("bind did not return a callable")
	}
	result, err := boundFn.Call([]*box.Value{box.FromValue(int64(5))}, nil)
	if err != nil {
		t.Fatalf("bound call: %v", err)
	}
	if result.Interface().(int64) != 15 {
		t.Errorf("bound(5) = %v, want 15", result.Interface())
	}
}
