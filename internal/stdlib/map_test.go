package stdlib

import (
	"testing"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/dispatch"
)

func builtinFor(t *testing.T, e *dispatch.Engine, name string) *dispatch.Builtin {
	t.Helper()
	for _, fn := range e.Functions(name) {
		if b, ok := fn.(*dispatch.Builtin); ok {
			return b
		}
	}
	t.Fatalf("no *dispatch.Builtin registered under %q", name)
	return nil
}

func newMapEngine(t *testing.T) *dispatch.Engine {
	t.Helper()
	e := dispatch.NewEngine()
	if err := registerMap(e); err != nil {
		t.Fatalf("registerMap: %v", err)
	}
	return e
}

func TestMapIndexAutoVivifies(t *testing.T) {
	e := newMapEngine(t)
	index := builtinFor(t, e, "[]")

	m := box.FromValue(map[string]*box.Value{})
	key := box.FromValue("name")

	v, err := index.Fn([]*box.Value{m, key})
	if err != nil {
		t.Fatalf("[]: %v", err)
	}
	if !v.IsEmpty() {
		t.Errorf("expected a fresh empty slot for a missing key, got %#v", v.Interface())
	}

	underlying, _ := asMap(m)
	if _, ok := underlying["name"]; !ok {
		t.Errorf("expected [] to vivify the key into the backing map")
	}
}

func TestMapInsertAndErase(t *testing.T) {
	e := newMapEngine(t)
	insert := builtinFor(t, e, "insert")
	erase := builtinFor(t, e, "erase")
	count := builtinFor(t, e, "count")

	m := box.FromValue(map[string]*box.Value{})
	key := box.FromValue("x")
	val := box.FromValue(int64(42))

	if _, err := insert.Fn([]*box.Value{m, key, val}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, err := count.Fn([]*box.Value{m, key})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n.Interface().(int64) != 1 {
		t.Errorf("count after insert = %v, want 1", n.Interface())
	}

	erased, err := erase.Fn([]*box.Value{m, key})
	if err != nil {
		t.Fatalf("erase: %v", err)
	}
	if erased.Interface().(bool) != true {
		t.Errorf("erase of present key = %v, want true", erased.Interface())
	}

	n, err = count.Fn([]*box.Value{m, key})
	if err != nil {
		t.Fatalf("count after erase: %v", err)
	}
	if n.Interface().(int64) != 0 {
		t.Errorf("count after erase = %v, want 0", n.Interface())
	}
}

func TestMapKeysListsEveryKey(t *testing.T) {
	e := newMapEngine(t)
	keysFn := builtinFor(t, e, "keys")

	m := box.FromValue(map[string]*box.Value{
		"a": box.FromValue(int64(1)),
		"b": box.FromValue(int64(2)),
	})

	v, err := keysFn.Fn([]*box.Value{m})
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	vec, ok := asVector(v)
	if !ok {
		t.Fatalf("keys did not return a Vector")
	}
	if len(vec) != 2 {
		t.Errorf("keys length = %d, want 2", len(vec))
	}
}
