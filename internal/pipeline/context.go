package pipeline

import (
	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/diagnostics"
	"github.com/quill-lang/quill/internal/token"
)

// PipelineContext threads a single source file through the lex/parse/
// optimize stages, accumulating diagnostics from every stage that ran
// rather than stopping at the first failure (spec §4.8: optimization is
// the last pipeline stage before evaluation).
type PipelineContext struct {
	Source string
	File   string

	Tokens      []token.Token
	AST         *ast.File
	Diagnostics []*diagnostics.DiagnosticError
}

// NewPipelineContext starts a fresh context over source.
func NewPipelineContext(source string) *PipelineContext {
	return &PipelineContext{Source: source}
}

func (c *PipelineContext) addError(err *diagnostics.DiagnosticError) {
	c.Diagnostics = append(c.Diagnostics, err)
}

// OK reports whether every stage that ran so far produced no diagnostics.
func (c *PipelineContext) OK() bool { return len(c.Diagnostics) == 0 }
