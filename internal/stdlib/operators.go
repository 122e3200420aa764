package stdlib

import (
	"reflect"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/dispatch"
)

// registerOperators covers the comparison and "+" overloads the evaluator's
// numericFastPath doesn't handle: string concatenation/ordering, and a
// generic structural fallback for everything else (vectors, maps, pairs,
// dynamic-object instances), so `==`/`!=` always resolve rather than
// dispatch-erroring on non-numeric operands.
func registerOperators(e *dispatch.Engine) error {
	return addAll(e,
		builtin("+", 2, func(args []*box.Value) (*box.Value, error) {
			l, lok := args[0].Interface().(string)
			r, rok := args[1].Interface().(string)
			if !lok || !rok {
				return nil, dispatchMismatch("+", args)
			}
			return box.FromValue(l + r).AsReturnValue(), nil
		}),
		builtin("==", 2, func(args []*box.Value) (*box.Value, error) {
			return box.FromValue(structuralEqual(args[0], args[1])).AsReturnValue(), nil
		}),
		builtin("!=", 2, func(args []*box.Value) (*box.Value, error) {
			return box.FromValue(!structuralEqual(args[0], args[1])).AsReturnValue(), nil
		}),
		builtin("<", 2, stringCompare(func(a, b string) bool { return a < b })),
		builtin("<=", 2, stringCompare(func(a, b string) bool { return a <= b })),
		builtin(">", 2, stringCompare(func(a, b string) bool { return a > b })),
		builtin(">=", 2, stringCompare(func(a, b string) bool { return a >= b })),
	)
}

func stringCompare(cmp func(a, b string) bool) func([]*box.Value) (*box.Value, error) {
	return func(args []*box.Value) (*box.Value, error) {
		l, lok := args[0].Interface().(string)
		r, rok := args[1].Interface().(string)
		if !lok || !rok {
			return nil, dispatchMismatch("<compare>", args)
		}
		return box.FromValue(cmp(l, r)).AsReturnValue(), nil
	}
}

// structuralEqual backs the default "==": identical for strings/bools by
// value, and by deep structural comparison for containers and instances, so
// two vectors/maps/pairs with equal contents compare equal without the
// script needing a bespoke operator per container type.
func structuralEqual(a, b *box.Value) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return a.IsEmpty() && b.IsEmpty()
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}

func dispatchMismatch(op string, args []*box.Value) error {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.GetType().Name()
	}
	return &noOverloadError{op: op, types: names}
}

type noOverloadError struct {
	op    string
	types []string
}

func (e *noOverloadError) Error() string {
	msg := "no " + e.op + " overload for ("
	for i, t := range e.types {
		if i > 0 {
			msg += ", "
		}
		msg += t
	}
	return msg + ")"
}
