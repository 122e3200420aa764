package stdlib

import (
	"testing"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/dispatch"
)

func newVectorEngine(t *testing.T) *dispatch.Engine {
	t.Helper()
	e := dispatch.NewEngine()
	if err := registerVector(e); err != nil {
		t.Fatalf("registerVector: %v", err)
	}
	return e
}

func TestVectorPushBackAndIndex(t *testing.T) {
	e := newVectorEngine(t)
	pushBack := builtinFor(t, e, "push_back")
	index := builtinFor(t, e, "[]")

	vec := box.FromValue([]*box.Value{})
	if _, err := pushBack.Fn([]*box.Value{vec, box.FromValue(int64(10))}); err != nil {
		t.Fatalf("push_back: %v", err)
	}
	if _, err := pushBack.Fn([]*box.Value{vec, box.FromValue(int64(20))}); err != nil {
		t.Fatalf("push_back: %v", err)
	}

	v, err := index.Fn([]*box.Value{vec, box.FromValue(int64(1))})
	if err != nil {
		t.Fatalf("[]: %v", err)
	}
	if v.Interface().(int64) != 20 {
		t.Errorf("vec[1] = %v, want 20", v.Interface())
	}
}

func TestVectorIndexOutOfRange(t *testing.T) {
	e := newVectorEngine(t)
	index := builtinFor(t, e, "[]")

	vec := box.FromValue([]*box.Value{})
	if _, err := index.Fn([]*box.Value{vec, box.FromValue(int64(0))}); err == nil {
		t.Errorf("expected an out_of_range error indexing an empty vector")
	}
}

func TestVectorPopBackRemovesLast(t *testing.T) {
	e := newVectorEngine(t)
	pushBack := builtinFor(t, e, "push_back")
	popBack := builtinFor(t, e, "pop_back")

	vec := box.FromValue([]*box.Value{})
	if _, err := pushBack.Fn([]*box.Value{vec, box.FromValue(int64(5))}); err != nil {
		t.Fatalf("push_back: %v", err)
	}

	v, err := popBack.Fn([]*box.Value{vec})
	if err != nil {
		t.Fatalf("pop_back: %v", err)
	}
	if v.Interface().(int64) != 5 {
		t.Errorf("pop_back result = %v, want 5", v.Interface())
	}

	if _, err := popBack.Fn([]*box.Value{vec}); err == nil {
		t.Errorf("expected pop_back on an empty vector to error")
	}
}

func TestVectorClearEmptiesBackingSlice(t *testing.T) {
	e := newVectorEngine(t)
	pushBack := builtinFor(t, e, "push_back")
	clearFn := builtinFor(t, e, "clear")

	vec := box.FromValue([]*box.Value{})
	if _, err := pushBack.Fn([]*box.Value{vec, box.FromValue(int64(1))}); err != nil {
		t.Fatalf("push_back: %v", err)
	}
	if _, err := clearFn.Fn([]*box.Value{vec}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	underlying, _ := asVector(vec)
	if len(underlying) != 0 {
		t.Errorf("expected an empty vector after clear, got %d elements", len(underlying))
	}
}
