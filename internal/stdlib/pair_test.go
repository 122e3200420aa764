package stdlib

import (
	"testing"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/dispatch"
)

func attrFor(t *testing.T, e *dispatch.Engine, name string) *dispatch.AttributeAccessFunction {
	t.Helper()
	for _, fn := range e.Functions(name) {
		if a, ok := fn.(*dispatch.AttributeAccessFunction); ok {
			return a
		}
	}
	t.Fatalf("no *dispatch.AttributeAccessFunction registered under %q", name)
	return nil
}

func newPairEngine(t *testing.T) *dispatch.Engine {
	t.Helper()
	e := dispatch.NewEngine()
	if err := registerPair(e); err != nil {
		t.Fatalf("registerPair: %v", err)
	}
	return e
}

func TestMakePairAndAccessors(t *testing.T) {
	e := newPairEngine(t)
	makePair := builtinFor(t, e, "make_pair")
	first := attrFor(t, e, "first")
	second := attrFor(t, e, "second")

	p, err := makePair.Fn([]*box.Value{box.FromValue(int64(1)), box.FromValue("two")})
	if err != nil {
		t.Fatalf("make_pair: %v", err)
	}

	got, err := first.Get(p)
	if err != nil {
		t.Fatalf("first.Get: %v", err)
	}
	if got.Interface().(int64) != 1 {
		t.Errorf("first = %v, want 1", got.Interface())
	}

	got, err = second.Get(p)
	if err != nil {
		t.Fatalf("second.Get: %v", err)
	}
	if got.Interface().(string) != "two" {
		t.Errorf("second = %v, want \"two\"", got.Interface())
	}
}

func TestPairSetMutatesInPlace(t *testing.T) {
	e := newPairEngine(t)
	makePair := builtinFor(t, e, "make_pair")
	first := attrFor(t, e, "first")

	p, err := makePair.Fn([]*box.Value{box.FromValue(int64(1)), box.FromValue(int64(2))})
	if err != nil {
		t.Fatalf("make_pair: %v", err)
	}

	if err := first.Set(p, box.FromValue(int64(99))); err != nil {
		t.Fatalf("first.Set: %v", err)
	}

	got, err := first.Get(p)
	if err != nil {
		t.Fatalf("first.Get after Set: %v", err)
	}
	if got.Interface().(int64) != 99 {
		t.Errorf("first after Set = %v, want 99", got.Interface())
	}
}
