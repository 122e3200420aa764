// Package stdlib registers the script-visible primitives spec §6 requires:
// print/to_string/clone, the operator fallbacks the evaluator's numeric
// fast path doesn't cover, the container types (vector, string, map, pair,
// future), the exception hierarchy, and dynamic-object introspection.
package stdlib

import (
	"fmt"
	"reflect"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/classobj"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/dispatch"
)

// Register installs the full standard library into e. Host programs embedding
// the engine call this once, before evaluating any script (pkg/engine does
// so automatically).
func Register(e *dispatch.Engine) error {
	for _, step := range []func(*dispatch.Engine) error{
		registerCore,
		registerOperators,
		registerVector,
		registerMap,
		registerPair,
		registerFuture,
		registerExceptions,
		registerStrings,
		registerJSON,
		registerYAML,
		registerDB,
		registerRPC,
	} {
		if err := step(e); err != nil {
			return err
		}
	}
	return nil
}

// builtin describes one registration; addAll below turns a flat list of
// these into AddFunction calls so each registerX body reads as a plain list.
func builtin(name string, numArgs int, fn func(args []*box.Value) (*box.Value, error)) *dispatch.Builtin {
	return &dispatch.Builtin{Name: name, NumArgs: numArgs, Fn: fn}
}

func addAll(e *dispatch.Engine, fns ...*dispatch.Builtin) error {
	for _, f := range fns {
		if err := e.AddFunction(f.Name, f); err != nil {
			return err
		}
	}
	return nil
}

func registerCore(e *dispatch.Engine) error {
	if err := addAll(e,
		builtin(config.PrintFuncName, 1, func(args []*box.Value) (*box.Value, error) {
			fmt.Println(stringify(args[0]))
			return box.NewEmpty(), nil
		}),
		builtin(config.PrintStringFuncName, 1, func(args []*box.Value) (*box.Value, error) {
			return box.FromValue(stringify(args[0])).AsReturnValue(), nil
		}),
		builtin(config.PrintlnStringFunc, 1, func(args []*box.Value) (*box.Value, error) {
			return box.FromValue(stringify(args[0]) + "\n").AsReturnValue(), nil
		}),
		builtin(config.ToStringFuncName, 1, func(args []*box.Value) (*box.Value, error) {
			return box.FromValue(stringify(args[0])).AsReturnValue(), nil
		}),
		builtin(config.CloneFuncName, 1, func(args []*box.Value) (*box.Value, error) {
			return args[0].Clone(), nil
		}),
		builtin(config.SizeFuncName, 1, func(args []*box.Value) (*box.Value, error) {
			n, err := sizeOf(args[0])
			if err != nil {
				return nil, err
			}
			return box.FromValue(n).AsReturnValue(), nil
		}),
		builtin(config.EmptyFuncName, 1, func(args []*box.Value) (*box.Value, error) {
			n, err := sizeOf(args[0])
			if err != nil {
				return nil, err
			}
			return box.FromValue(n == 0).AsReturnValue(), nil
		}),
		builtin(config.GetTypeNameFuncName, 1, func(args []*box.Value) (*box.Value, error) {
			if name := classobj.TypeName(args[0]); name != "" {
				return box.FromValue(name).AsReturnValue(), nil
			}
			return box.FromValue(args[0].GetType().Name()).AsReturnValue(), nil
		}),
		builtin(config.GetAttrsFuncName, 1, func(args []*box.Value) (*box.Value, error) {
			var attrs map[string]*box.Value
			if classobj.IsInstance(args[0]) {
				attrs = classobj.Attrs(args[0])
			} else {
				attrs = args[0].Attrs()
			}
			out := make(map[string]*box.Value, len(attrs))
			for k, v := range attrs {
				out[k] = v
			}
			return box.FromValue(out).AsReturnValue(), nil
		}),
		builtin(config.GetAttrFuncName, 2, func(args []*box.Value) (*box.Value, error) {
			name, _ := args[1].Interface().(string)
			return args[0].GetAttr(name), nil
		}),
		builtin(config.MethodMissingName, -1, func(args []*box.Value) (*box.Value, error) {
			name := ""
			if len(args) > 1 {
				name, _ = args[1].Interface().(string)
			}
			return nil, fmt.Errorf("no method named %q on %s", name, args[0].GetType().Name())
		}),
		builtin(config.GenerateRangeFunc, 2, func(args []*box.Value) (*box.Value, error) {
			from, err := asInt(args[0])
			if err != nil {
				return nil, err
			}
			to, err := asInt(args[1])
			if err != nil {
				return nil, err
			}
			out := make([]*box.Value, 0, maxInt(0, int(to-from)))
			for i := from; i < to; i++ {
				out = append(out, box.FromValue(i))
			}
			return box.FromValue(out).AsReturnValue(), nil
		}),
		builtin(config.RangeFuncName, 1, func(args []*box.Value) (*box.Value, error) {
			n, err := asInt(args[0])
			if err != nil {
				return nil, err
			}
			out := make([]*box.Value, 0, maxInt(0, int(n)))
			for i := int64(0); i < n; i++ {
				out = append(out, box.FromValue(i))
			}
			return box.FromValue(out).AsReturnValue(), nil
		}),
		builtin(config.BindFuncName, -1, func(args []*box.Value) (*box.Value, error) {
			if len(args) == 0 {
				return nil, fmt.Errorf("bind: expected at least a function argument")
			}
			fn, ok := args[0].Interface().(dispatch.Function)
			if !ok {
				return nil, fmt.Errorf("bind: first argument is not callable")
			}
			return box.FromValue(dispatch.Function(&dispatch.BoundFunction{
				Inner: fn,
				Bound: append([]*box.Value{}, args[1:]...),
			})).AsReturnValue(), nil
		}),
	); err != nil {
		return err
	}
	return nil
}

func stringify(v *box.Value) string {
	if classobj.IsInstance(v) {
		return classobj.Inspect(v)
	}
	switch s := v.Interface().(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func sizeOf(v *box.Value) (int64, error) {
	iv := v.Interface()
	switch c := iv.(type) {
	case string:
		return int64(len(c)), nil
	case []*box.Value:
		return int64(len(c)), nil
	case map[string]*box.Value:
		return int64(len(c)), nil
	}
	rv := reflect.ValueOf(iv)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return int64(rv.Len()), nil
	}
	return 0, fmt.Errorf("size: %s has no size", v.GetType().Name())
}

func asInt(v *box.Value) (int64, error) {
	switch n := v.Interface().(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("expected an integer, got %s", v.GetType().Name())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
