package pipeline

import (
	"github.com/quill-lang/quill/internal/lexer"
	"github.com/quill-lang/quill/internal/optimizer"
	"github.com/quill-lang/quill/internal/parser"
	"github.com/quill-lang/quill/internal/token"
)

// LexerProcessor buffers every token of ctx.Source, independent of parsing,
// so a front-end (syntax highlighting, a REPL's bracket matcher) can inspect
// the token stream even when the parse stage that follows fails.
type LexerProcessor struct{}

func (LexerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	lx := lexer.New(ctx.Source, ctx.File)
	for {
		tok := lx.NextToken()
		ctx.Tokens = append(ctx.Tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return ctx
}

// ParserProcessor parses ctx.Source into an AST, recording every parse
// diagnostic rather than stopping at the first.
type ParserProcessor struct{}

func (ParserProcessor) Process(ctx *PipelineContext) *PipelineContext {
	file, errs := parser.Parse(ctx.Source, ctx.File)
	ctx.AST = file
	for _, e := range errs {
		ctx.addError(e)
	}
	return ctx
}

// OptimizerProcessor runs the spec §4.8 rewrite passes over ctx.AST, if
// parsing produced one.
type OptimizerProcessor struct{}

func (OptimizerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.AST == nil {
		return ctx
	}
	ctx.AST = optimizer.Optimize(ctx.AST)
	return ctx
}
