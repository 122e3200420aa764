package engine

import (
	"fmt"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/dispatch"
)

// registerSelfPrimitives wires eval/eval_file/use as script-callable
// functions bound to this Engine's own state (spec §6): unlike the rest of
// the standard library, these three need the full lex/parse/optimize/
// evaluate pipeline rather than a single BoxedValue operation, so they are
// registered here instead of internal/stdlib.
func (e *Engine) registerSelfPrimitives() error {
	evalFn := &dispatch.Builtin{
		Name:    config.EvalFuncName,
		NumArgs: 1,
		Fn: func(args []*box.Value) (*box.Value, error) {
			src, ok := args[0].Interface().(string)
			if !ok {
				return nil, fmt.Errorf("eval: expected a string argument")
			}
			return e.Eval(src)
		},
	}
	evalFileFn := &dispatch.Builtin{
		Name:    config.EvalFileFuncName,
		NumArgs: 1,
		Fn: func(args []*box.Value) (*box.Value, error) {
			path, ok := args[0].Interface().(string)
			if !ok {
				return nil, fmt.Errorf("eval_file: expected a string argument")
			}
			return e.EvalFile(path)
		},
	}
	useFn := &dispatch.Builtin{
		Name:    config.UseFuncName,
		NumArgs: 1,
		Fn: func(args []*box.Value) (*box.Value, error) {
			path, ok := args[0].Interface().(string)
			if !ok {
				return nil, fmt.Errorf("use: expected a string argument")
			}
			return e.Use(path)
		},
	}
	for _, fn := range []*dispatch.Builtin{evalFn, evalFileFn, useFn} {
		if err := e.dispatch.AddFunction(fn.Name, fn); err != nil {
			return err
		}
	}
	return nil
}
