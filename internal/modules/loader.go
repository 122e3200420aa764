// Package modules implements the `use()` script-loading side of spec §9: a
// filesystem-backed Loader resolves and reads the source a `use(path)` call
// names, with idempotency (don't re-evaluate a path already loaded) owned
// by the calling dispatch.Engine rather than this package.
package modules

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/diagnostics"
)

// Loader resolves a `use()`/`use_root_dir`-relative path to source text.
type Loader interface {
	// Resolve returns path's canonical form, used as the idempotency key
	// (spec §8 scenario 7: "two calls with the same resolved path produce
	// the same side-effect set as one").
	Resolve(path string) (string, error)
	// Load reads the source at a resolved path.
	Load(resolved string) (string, error)
}

// FileLoader resolves paths against a fixed search path list, trying each
// in order and appending config.SourceFileExt when the bare name has no
// recognized extension (spec §9 "use(path)").
type FileLoader struct {
	SearchPaths []string
}

// NewFileLoader builds a loader searching the current directory plus dirs.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{SearchPaths: append([]string{"."}, dirs...)}
}

func (l *FileLoader) Resolve(path string) (string, error) {
	candidates := l.candidates(path)
	for _, c := range candidates {
		if abs, err := filepath.Abs(c); err == nil {
			if _, err := os.Stat(abs); err == nil {
				return abs, nil
			}
		}
	}
	return "", diagnostics.FileNotFoundError(path, l.SearchPaths)
}

func (l *FileLoader) candidates(path string) []string {
	names := []string{path}
	if !config.HasSourceExt(path) {
		names = append(names, path+config.SourceFileExt)
	}
	var out []string
	if filepath.IsAbs(path) {
		return names
	}
	for _, dir := range l.SearchPaths {
		for _, n := range names {
			out = append(out, filepath.Join(dir, n))
		}
	}
	return out
}

func (l *FileLoader) Load(resolved string) (string, error) {
	b, err := os.ReadFile(resolved)
	if err != nil {
		return "", diagnostics.LoadModuleError(resolved, err)
	}
	return string(b), nil
}

// PreloadSource is one resolved path's source, or the error that resolving
// or reading it produced.
type PreloadSource struct {
	Path     string
	Resolved string
	Source   string
	Err      error
}

// PreloadAll resolves and reads every path in paths concurrently: a script
// that opens with a run of `use()` calls shouldn't pay their file-system
// latency serially. Results are returned in input order regardless of
// completion order; a failure on one path does not cancel the others.
func PreloadAll(loader Loader, paths []string) []PreloadSource {
	results := make([]PreloadSource, len(paths))
	g, _ := errgroup.WithContext(context.Background())
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			resolved, err := loader.Resolve(p)
			if err != nil {
				results[i] = PreloadSource{Path: p, Err: err}
				return nil
			}
			src, err := loader.Load(resolved)
			results[i] = PreloadSource{Path: p, Resolved: resolved, Source: src, Err: err}
			return nil
		})
	}
	_ = g.Wait() // per-item errors are reported via PreloadSource.Err, not a group failure
	return results
}
