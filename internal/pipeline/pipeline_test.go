package pipeline

import (
	"testing"

	"github.com/quill-lang/quill/internal/ast"
)

func runSource(t *testing.T, src string) *PipelineContext {
	t.Helper()
	ctx := NewPipelineContext(src)
	ctx.File = "test.chai"
	p := New(LexerProcessor{}, ParserProcessor{}, OptimizerProcessor{})
	return p.Run(ctx)
}

func TestPipelineProducesOptimizedAST(t *testing.T) {
	ctx := runSource(t, "1 + 2;")
	if !ctx.OK() {
		t.Fatalf("unexpected diagnostics: %v", ctx.Diagnostics)
	}
	if len(ctx.Tokens) == 0 {
		t.Fatalf("expected lexer stage to buffer tokens")
	}
	if ctx.AST == nil || len(ctx.AST.Statements) != 1 {
		t.Fatalf("expected one optimized statement, got %+v", ctx.AST)
	}
	if _, ok := ctx.AST.Statements[0].(*ast.Constant); !ok {
		t.Errorf("expected 1 + 2 folded to a Constant, got %T", ctx.AST.Statements[0])
	}
}

func TestPipelineCollectsParseDiagnosticsWithoutStopping(t *testing.T) {
	ctx := runSource(t, "def () { }")
	if ctx.OK() {
		t.Fatalf("expected a parse diagnostic for a def missing its name")
	}
	if len(ctx.Tokens) == 0 {
		t.Fatalf("lexer stage should still have run")
	}
}
