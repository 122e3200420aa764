package stdlib

import (
	"testing"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/dispatch"
)

func newStringsEngine(t *testing.T) *dispatch.Engine {
	t.Helper()
	e := dispatch.NewEngine()
	if err := registerStrings(e); err != nil {
		t.Fatalf("registerStrings: %v", err)
	}
	return e
}

func TestHumanSizeFormatsBytes(t *testing.T) {
	e := newStringsEngine(t)
	humanSize := builtinFor(t, e, "human_size")

	v, err := humanSize.Fn([]*box.Value{box.FromValue(int64(1024))})
	if err != nil {
		t.Fatalf("human_size: %v", err)
	}
	if v.Interface().(string) != "1.0 kB" {
		t.Errorf("human_size(1024) = %q, want \"1.0 kB\"", v.Interface())
	}
}

func TestHumanOrdinalFormatsRank(t *testing.T) {
	e := newStringsEngine(t)
	ordinal := builtinFor(t, e, "human_ordinal")

	v, err := ordinal.Fn([]*box.Value{box.FromValue(int64(3))})
	if err != nil {
		t.Fatalf("human_ordinal: %v", err)
	}
	if v.Interface().(string) != "3rd" {
		t.Errorf("human_ordinal(3) = %q, want \"3rd\"", v.Interface())
	}
}

func TestToUpperConvertsCase(t *testing.T) {
	e := newStringsEngine(t)
	toUpper := builtinFor(t, e, "to_upper")

	v, err := toUpper.Fn([]*box.Value{box.FromValue("quill")})
	if err != nil {
		t.Fatalf("to_upper: %v", err)
	}
	if v.Interface().(string) != "QUILL" {
		t.Errorf("to_upper(\"quill\") = %q, want \"QUILL\"", v.Interface())
	}
}

func TestToUpperRejectsNonString(t *testing.T) {
	e := newStringsEngine(t)
	toUpper := builtinFor(t, e, "to_upper")

	if _, err := toUpper.Fn([]*box.Value{box.FromValue(int64(1))}); err == nil {
		t.Errorf("expected to_upper to reject a non-string argument")
	}
}
