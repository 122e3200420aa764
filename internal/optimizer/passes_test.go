package optimizer

import (
	"testing"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/parser"
)

func parseFile(t *testing.T, src string) *ast.File {
	t.Helper()
	f, errs := parser.Parse(src, "test.chai")
	if len(errs) != 0 {
		t.Fatalf("parse(%q): %v", src, errs)
	}
	return f
}

func TestConstantFoldArithmetic(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string // ValueKind of the folded top-level statement
	}{
		{"add", "1 + 2;", "int"},
		{"mul float", "1.5 * 2.0;", "float"},
		{"compare", "3 < 4;", "bool"},
		{"bitwise", "6 & 3;", "int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parseFile(t, tt.src)
			out := Optimize(f)
			if len(out.Statements) != 1 {
				t.Fatalf("expected 1 statement, got %d", len(out.Statements))
			}
			c, ok := out.Statements[0].(*ast.Constant)
			if !ok {
				t.Fatalf("expected folded Constant, got %T", out.Statements[0])
			}
			if c.ValueKind != tt.want {
				t.Errorf("ValueKind = %q, want %q", c.ValueKind, tt.want)
			}
		})
	}
}

func TestConstantFoldDivisionByZeroNotFolded(t *testing.T) {
	f := parseFile(t, "1 / 0;")
	out := Optimize(f)
	if _, ok := out.Statements[0].(*ast.Constant); ok {
		t.Fatalf("division by zero must not fold at optimize time, left for runtime ArithmeticError")
	}
}

func TestConstantIfChoosesTrueArm(t *testing.T) {
	f := parseFile(t, "if (true) { 1; } else { 2; }")
	out := Optimize(f)
	if len(out.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out.Statements))
	}
	switch s := out.Statements[0].(type) {
	case *ast.Constant:
		if s.Text != "1" {
			t.Errorf("got constant %q, want 1", s.Text)
		}
	default:
		t.Fatalf("expected the then-arm folded down to a Constant, got %T", s)
	}
}

func TestBlockFoldingDropsScopeWhenNoDecls(t *testing.T) {
	f := parseFile(t, "while (true) { 1; 2; }")
	out := Optimize(f)
	w, ok := out.Statements[0].(*ast.While)
	if !ok {
		t.Fatalf("expected *ast.While, got %T", out.Statements[0])
	}
	if _, ok := w.Body.(*ast.ScopelessBlock); !ok {
		t.Fatalf("expected body folded to ScopelessBlock (no var decls), got %T", w.Body)
	}
}

func TestBlockFoldingKeepsScopeWithDecl(t *testing.T) {
	f := parseFile(t, "while (true) { var x = 1; x; }")
	out := Optimize(f)
	w := out.Statements[0].(*ast.While)
	if _, ok := w.Body.(*ast.Block); !ok {
		t.Fatalf("expected body to stay a scoped Block (has a var decl), got %T", w.Body)
	}
}

func TestUnusedReturnMarksNonTailCalls(t *testing.T) {
	f := parseFile(t, "foo(); bar();")
	out := Optimize(f)
	if len(out.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(out.Statements))
	}
	if _, ok := out.Statements[0].(*ast.UnusedReturnFunCall); !ok {
		t.Errorf("expected first (non-tail) call marked UnusedReturnFunCall, got %T", out.Statements[0])
	}
	if _, ok := out.Statements[1].(*ast.UnusedReturnFunCall); ok {
		t.Errorf("last statement's value is the block's result, must not be marked unused")
	}
}

func TestForSpecializationRecognizesCanonicalShape(t *testing.T) {
	f := parseFile(t, "for (var i = 0; i < 10; i += 1) { i; }")
	out := Optimize(f)
	fs, ok := out.Statements[0].(*ast.ForSpecialized)
	if !ok {
		t.Fatalf("expected *ast.ForSpecialized, got %T", out.Statements[0])
	}
	if fs.Var != "i" || fs.Start != 0 || fs.End != 10 {
		t.Errorf("got Var=%s Start=%d End=%d, want i 0 10", fs.Var, fs.Start, fs.End)
	}
}

func TestForSpecializationSkipsNonCanonicalShape(t *testing.T) {
	f := parseFile(t, "for (var i = 0; i < 10; i += 2) { i; }")
	out := Optimize(f)
	if _, ok := out.Statements[0].(*ast.ForSpecialized); ok {
		t.Fatalf("a step other than +1 must not be specialized")
	}
}

func TestReturnTailUnwrapsInDef(t *testing.T) {
	f := parseFile(t, "def f() { var x = 1; return x; }")
	out := Optimize(f)
	def, ok := out.Statements[0].(*ast.Def)
	if !ok {
		t.Fatalf("expected *ast.Def, got %T", out.Statements[0])
	}
	blk, ok := def.Body.(*ast.Block)
	if !ok {
		t.Fatalf("expected body to remain a Block (has a var decl), got %T", def.Body)
	}
	last := blk.Statements[len(blk.Statements)-1]
	if _, ok := last.(*ast.Return); ok {
		t.Errorf("tail return must be unwrapped to a bare expression")
	}
	if _, ok := last.(*ast.Id); !ok {
		t.Errorf("expected unwrapped tail to be the Id x, got %T", last)
	}
}
