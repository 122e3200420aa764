package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/modules"
)

func TestEvalReturnsFinalExpressionValue(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v, err := e.Eval("1 + 2;")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got, ok := v.Interface().(int64); !ok || got != 3 {
		t.Errorf("Eval result = %#v, want int64(3)", v.Interface())
	}
}

func TestEvalPersistsGlobalsAcrossCalls(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Eval("var counter = 10;"); err != nil {
		t.Fatalf("Eval (decl): %v", err)
	}
	v, err := e.Eval("counter + 1;")
	if err != nil {
		t.Fatalf("Eval (use): %v", err)
	}
	if got, ok := v.Interface().(int64); !ok || got != 11 {
		t.Errorf("counter + 1 = %#v, want int64(11)", v.Interface())
	}
}

func TestUseIsIdempotentForSameResolvedPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "helper.ql")
	if err := os.WriteFile(path, []byte("GLOBAL hits = 0; hits = hits + 1;"), 0o644); err != nil {
		t.Fatalf("write helper: %v", err)
	}

	e, err := NewWithLoader(modules.NewFileLoader(dir))
	if err != nil {
		t.Fatalf("NewWithLoader: %v", err)
	}
	e.AllowMutableGlobals(true)

	if _, err := e.Use("helper"); err != nil {
		t.Fatalf("first Use: %v", err)
	}
	if _, err := e.Use("helper"); err != nil {
		t.Fatalf("second Use: %v", err)
	}
	v, err := e.Eval("hits;")
	if err != nil {
		t.Fatalf("Eval hits: %v", err)
	}
	if got, ok := v.Interface().(int64); !ok || got != 1 {
		t.Errorf("hits = %#v after two Use calls, want int64(1)", v.Interface())
	}
}

func TestGetStateRoundTripsUsedFiles(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.used = []string{"/tmp/a.ql", "/tmp/b.ql"}
	snap := e.GetState(nil)

	data, err := snap.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	other, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	restored, err := config.DecodeState(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	other.SetState(restored)
	if len(other.used) != 2 || other.used[1] != "/tmp/b.ql" {
		t.Errorf("restored used files = %v", other.used)
	}
}
