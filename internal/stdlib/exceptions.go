package stdlib

import (
	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/dispatch"
	"github.com/quill-lang/quill/internal/evaluator"
	"github.com/quill-lang/quill/internal/types"
)

// Exception is the base of the exception hierarchy (spec §6: "plus an
// exception base"). Every derived kind embeds it so a `.what()` call and the
// `exception` catch type work uniformly across the hierarchy.
type Exception struct {
	Message string
}

func (e Exception) What() string { return e.Message }

// RuntimeError, OutOfRangeError, LogicError, ArithmeticErrorExc, and
// EvalErrorExc are the named exception kinds spec §6 requires the standard
// library to register: runtime_error, out_of_range, logic_error,
// arithmetic_error, eval_error. Each is a distinct Go type so TypeTag
// equality (the evaluator's Catch-clause matcher) tells them apart; each
// embeds Exception so add_base_class can also let a plain `catch (exception
// e)` match any of them.
type RuntimeError struct{ Exception }
type OutOfRangeError struct{ Exception }
type LogicError struct{ Exception }
type ArithmeticErrorExc struct{ Exception }
type EvalErrorExc struct{ Exception }

// newExceptionValue boxes v (one of the structs above) with a callable
// "what" attribute, so evaluator.lookupWhat's plain attribute-map lookup
// finds it without any special-casing of the concrete Go type.
func newExceptionValue(v interface{ What() string }) *box.Value {
	bv := box.FromValue(v).AsReturnValue()
	bv.SetAttr("what", box.FromValue(dispatch.Function(&dispatch.Builtin{
		Name:    "what",
		NumArgs: 1,
		Fn: func(args []*box.Value) (*box.Value, error) {
			return box.FromValue(v.What()).AsReturnValue(), nil
		},
	})))
	return bv
}

func exceptionConstructor(name string, wrap func(Exception) interface{ What() string }) *dispatch.Builtin {
	return &dispatch.Builtin{
		Name:    name,
		NumArgs: 1,
		Fn: func(args []*box.Value) (*box.Value, error) {
			msg, _ := args[0].Interface().(string)
			return newExceptionValue(wrap(Exception{Message: msg})), nil
		},
	}
}

// throwBuiltin exposes evaluator.Throw as a script-callable `throw(exc)`,
// the one stdlib entry point that needs to raise the unwind signal directly.
var throwBuiltin = &dispatch.Builtin{
	Name:    "throw",
	NumArgs: 1,
	Fn: func(args []*box.Value) (*box.Value, error) {
		return nil, evaluator.Throw(args[0])
	},
}

// projectToException upcasts any derived exception kind to the Exception
// base by copying its message, the add_base_class conversion used for every
// registered kind below.
func projectToException(bv *box.Value) (*box.Value, error) {
	if v, ok := bv.Interface().(interface{ What() string }); ok {
		return newExceptionValue(Exception{Message: v.What()}), nil
	}
	return bv, nil
}

// registerExceptions installs the exception hierarchy: a named TypeTag plus
// a same-named constructor function for each kind, and base-class upcasts
// from every derived kind to "exception" (spec §6 add_base_class).
func registerExceptions(e *dispatch.Engine) error {
	baseTag := types.Of(Exception{})
	if err := e.AddType(config.ExceptionTypeName, baseTag); err != nil {
		return err
	}

	kinds := []struct {
		name string
		tag  types.Tag
		ctor *dispatch.Builtin
	}{
		{"runtime_error", types.Of(RuntimeError{}), exceptionConstructor("runtime_error", func(base Exception) interface{ What() string } {
			return RuntimeError{base}
		})},
		{"out_of_range", types.Of(OutOfRangeError{}), exceptionConstructor("out_of_range", func(base Exception) interface{ What() string } {
			return OutOfRangeError{base}
		})},
		{"logic_error", types.Of(LogicError{}), exceptionConstructor("logic_error", func(base Exception) interface{ What() string } {
			return LogicError{base}
		})},
		{"arithmetic_error", types.Of(ArithmeticErrorExc{}), exceptionConstructor("arithmetic_error", func(base Exception) interface{ What() string } {
			return ArithmeticErrorExc{base}
		})},
		{"eval_error", types.Of(EvalErrorExc{}), exceptionConstructor("eval_error", func(base Exception) interface{ What() string } {
			return EvalErrorExc{base}
		})},
	}
	for _, k := range kinds {
		if err := e.AddType(k.name, k.tag); err != nil {
			return err
		}
		if err := e.AddFunction(k.name, k.ctor); err != nil {
			return err
		}
		if err := e.AddBaseClass(baseTag, k.tag, projectToException); err != nil {
			return err
		}
	}
	return e.AddFunction("throw", throwBuiltin)
}
