// Package pipeline chains the lex/parse/optimize stages (spec §4.6-§4.8)
// behind a single Processor interface, so a caller (the REPL, a one-shot
// file run, a future LSP front-end) assembles exactly the stages it needs.
package pipeline

// Processor is one pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Continue on errors to collect diagnostics from every stage that
		// can still run (a lex error doesn't prevent reporting later ones).
	}
	return ctx
}
