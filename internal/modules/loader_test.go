package modules

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestFileLoaderResolveAppendsExtension(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "helper.ql", "1;")
	l := NewFileLoader(dir)
	resolved, err := l.Resolve("helper")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if filepath.Base(resolved) != "helper.ql" {
		t.Errorf("resolved %q, want a path ending in helper.ql", resolved)
	}
}

func TestFileLoaderResolveMissingFileErrors(t *testing.T) {
	l := NewFileLoader(t.TempDir())
	if _, err := l.Resolve("does_not_exist"); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestFileLoaderResolveIsIdempotentForSamePath(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "once.ql", "1;")
	l := NewFileLoader(dir)
	a, errA := l.Resolve("once.ql")
	b, errB := l.Resolve("once.ql")
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v %v", errA, errB)
	}
	if a != b {
		t.Errorf("Resolve(%q) returned different paths across calls: %q vs %q", "once.ql", a, b)
	}
}

func TestPreloadAllReadsEveryPath(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "a.ql", "1;")
	writeTemp(t, dir, "b.ql", "2;")
	l := NewFileLoader(dir)
	results := PreloadAll(l, []string{"a.ql", "b.ql", "missing.ql"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Source != "1;" {
		t.Errorf("a.ql: got source %q err %v", results[0].Source, results[0].Err)
	}
	if results[1].Err != nil || results[1].Source != "2;" {
		t.Errorf("b.ql: got source %q err %v", results[1].Source, results[1].Err)
	}
	if results[2].Err == nil {
		t.Errorf("missing.ql: expected an error, got none")
	}
}

func TestNativeLoaderReportsUnregistered(t *testing.T) {
	l := NewNativeLoader()
	if _, err := l.Load("ssl", ""); err == nil {
		t.Fatalf("expected an error for an unregistered native module")
	}
}
