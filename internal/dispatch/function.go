// Package dispatch implements ProxyFunction (spec §3, §4.4) and the
// DispatchEngine (spec §4.5), the symbol table and overload-resolution
// kernel every call in the engine routes through.
package dispatch

import (
	"fmt"
	"reflect"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/convert"
	"github.com/quill-lang/quill/internal/types"
)

// Function is the common contract every ProxyFunction variant satisfies
// (spec §3, §4.4).
type Function interface {
	// Arity returns the parameter count, or -1 for variadic.
	Arity() int
	// ParamTypes returns [returnType, param0Type, param1Type, ...]. Elements
	// may be types.Undef to mean "accept anything".
	ParamTypes() []types.Tag
	// CallMatch reports whether args is an acceptable call, per §4.4.
	CallMatch(args []*box.Value, conv *convert.Registry) bool
	// Call invokes the function. Callers should have already verified
	// CallMatch; Call still performs argument conversion.
	Call(args []*box.Value, conv *convert.Registry) (*box.Value, error)
	// IsArithmeticParam reports whether parameter i (0-indexed, NOT
	// counting the return type slot) is flagged for arithmetic-widening
	// overload resolution (spec §4.4 step 3).
	IsArithmeticParam(i int) bool
}

// boxedNumberTag is the sentinel parameter type meaning "any arithmetic
// BoxedValue" (spec §4.4's "Boxed Number").
var boxedNumberTag = types.OfType(reflect.TypeOf(struct{ boxedNumber byte }{}))

// BoxedNumber returns the sentinel tag used to mark a parameter as
// accepting any arithmetic argument.
func BoxedNumber() types.Tag { return boxedNumberTag }

func acceptableArg(paramType types.Tag, arg *box.Value) bool {
	switch {
	case paramType.IsUndef():
		return true
	case paramType.BareEqual(boxedNumberTag):
		return arg.GetType().IsArithmetic()
	case paramType.BareEqual(arg.GetType()):
		return true
	}
	if _, isFn := arg.Interface().(Function); isFn {
		return true
	}
	return false
}

// --- Native-typed ---------------------------------------------------------

// NativeFunction wraps a host Go callable of known signature, exposed via
// reflect (spec §3 "Native-typed").
type NativeFunction struct {
	Name      string
	fn        reflect.Value
	fnType    reflect.Type
	arity     int
	retType   types.Tag
	paramTags []types.Tag
	arith     []bool
}

// NewNative builds a NativeFunction from any Go func value.
func NewNative(name string, fn interface{}) (*NativeFunction, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("NewNative(%s): not a function", name)
	}
	t := v.Type()
	arity := t.NumIn()
	if t.IsVariadic() {
		arity = -1
	}
	var ret types.Tag
	if t.NumOut() > 0 {
		ret = types.OfType(t.Out(0))
	}
	params := make([]types.Tag, t.NumIn())
	arith := make([]bool, t.NumIn())
	for i := 0; i < t.NumIn(); i++ {
		params[i] = types.OfType(t.In(i))
		arith[i] = params[i].IsArithmetic()
	}
	return &NativeFunction{Name: name, fn: v, fnType: t, arity: arity, retType: ret, paramTags: params, arith: arith}, nil
}

func (f *NativeFunction) Arity() int { return f.arity }

func (f *NativeFunction) ParamTypes() []types.Tag {
	out := make([]types.Tag, 0, len(f.paramTags)+1)
	out = append(out, f.retType)
	out = append(out, f.paramTags...)
	return out
}

func (f *NativeFunction) IsArithmeticParam(i int) bool {
	if i < 0 || i >= len(f.arith) {
		return false
	}
	return f.arith[i]
}

func (f *NativeFunction) CallMatch(args []*box.Value, conv *convert.Registry) bool {
	if f.arity >= 0 && len(args) != f.arity {
		return false
	}
	if f.arity < 0 && len(args) < f.fnType.NumIn()-1 {
		return false
	}
	for i, arg := range args {
		pt := f.paramTypeFor(i)
		if acceptableArg(pt, arg) {
			continue
		}
		if conv != nil && conv.Converts(pt, arg.GetType()) {
			continue
		}
		return false
	}
	return true
}

func (f *NativeFunction) paramTypeFor(i int) types.Tag {
	if f.fnType.IsVariadic() && i >= f.fnType.NumIn()-1 {
		return types.OfType(f.fnType.In(f.fnType.NumIn() - 1).Elem())
	}
	if i < len(f.paramTags) {
		return f.paramTags[i]
	}
	return types.Undef
}

func (f *NativeFunction) Call(args []*box.Value, conv *convert.Registry) (*box.Value, error) {
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		target := f.paramTypeFor(i)
		v, err := convert.Cast(arg, target, conv)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", f.Name, i, err)
		}
		if v == nil {
			in[i] = reflect.Zero(f.fnType.In(min(i, f.fnType.NumIn()-1)))
			continue
		}
		in[i] = reflect.ValueOf(v)
	}
	out := f.fn.Call(in)
	if len(out) == 0 {
		return box.Empty, nil
	}
	return box.FromValue(out[0].Interface()).AsReturnValue(), nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// --- Dynamic (script-defined) ---------------------------------------------

// DynamicFunction is a script-defined function: an AST body, a parameter
// type filter, an optional guard, arity (or variadic -1), and captured
// closure variables (spec §3 "Dynamic"). The actual body evaluation is
// supplied by the evaluator package as closures (CallFn/GuardFn) to avoid a
// dispatch<->evaluator import cycle; Body/Params/Closure remain for
// introspection and pretty-printing.
type DynamicFunction struct {
	Name     string
	Params   []ast.Param
	ParamTag []types.Tag // resolved parameter type filter, len == len(Params)
	Variadic bool
	Body     ast.Node
	Closure  map[string]*box.Value

	GuardFn func(args []*box.Value) (bool, error)
	CallFn  func(args []*box.Value) (*box.Value, error)
}

func (f *DynamicFunction) Arity() int {
	if f.Variadic {
		return -1
	}
	return len(f.Params)
}

func (f *DynamicFunction) ParamTypes() []types.Tag {
	out := make([]types.Tag, 0, len(f.ParamTag)+1)
	out = append(out, types.Undef)
	out = append(out, f.ParamTag...)
	return out
}

func (f *DynamicFunction) IsArithmeticParam(i int) bool {
	if i < 0 || i >= len(f.ParamTag) {
		return false
	}
	return f.ParamTag[i].IsArithmetic()
}

func (f *DynamicFunction) CallMatch(args []*box.Value, conv *convert.Registry) bool {
	if !f.Variadic && len(args) != len(f.Params) {
		return false
	}
	if f.Variadic && len(args) < len(f.Params) {
		return false
	}
	for i, arg := range args {
		if i >= len(f.ParamTag) {
			break // variadic tail: unfiltered
		}
		pt := f.ParamTag[i]
		if acceptableArg(pt, arg) {
			continue
		}
		if conv != nil && conv.Converts(pt, arg.GetType()) {
			continue
		}
		return false
	}
	if f.GuardFn != nil {
		ok, err := f.GuardFn(args)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func (f *DynamicFunction) Call(args []*box.Value, conv *convert.Registry) (*box.Value, error) {
	return f.CallFn(args)
}

// --- Bound ------------------------------------------------------------------

// Placeholder is the `_` sentinel used by bind() to leave a slot open
// (spec §3 "Bound", grounded on ChaiScript's bind_first / placeholders).
type Placeholder struct{}

// BoundFunction pre-supplies some leading arguments to Inner, with `_`
// placeholders passed through in order from the eventual call.
type BoundFunction struct {
	Inner Function
	Bound []*box.Value // entries that are Placeholder stand-ins get filled from Call's args
}

func (f *BoundFunction) openSlots() int {
	n := 0
	for _, b := range f.Bound {
		if _, ok := b.Interface().(Placeholder); ok {
			n++
		}
	}
	return n
}

func (f *BoundFunction) Arity() int {
	inner := f.Inner.Arity()
	if inner < 0 {
		return -1
	}
	return inner - len(f.Bound) + f.openSlots()
}

func (f *BoundFunction) ParamTypes() []types.Tag { return f.Inner.ParamTypes() }

func (f *BoundFunction) IsArithmeticParam(i int) bool { return f.Inner.IsArithmeticParam(i) }

func (f *BoundFunction) materialize(args []*box.Value) []*box.Value {
	out := make([]*box.Value, 0, len(f.Bound))
	ai := 0
	for _, b := range f.Bound {
		if _, ok := b.Interface().(Placeholder); ok {
			if ai < len(args) {
				out = append(out, args[ai])
				ai++
			}
			continue
		}
		out = append(out, b)
	}
	out = append(out, args[ai:]...)
	return out
}

func (f *BoundFunction) CallMatch(args []*box.Value, conv *convert.Registry) bool {
	return f.Inner.CallMatch(f.materialize(args), conv)
}

func (f *BoundFunction) Call(args []*box.Value, conv *convert.Registry) (*box.Value, error) {
	return f.Inner.Call(f.materialize(args), conv)
}

// --- Attribute access --------------------------------------------------------

// AttributeAccessFunction reads (and optionally writes) a host object field;
// arity 1 (spec §3). Member-access lookup prefers this variant over a
// same-named plain function (spec §9 design notes).
type AttributeAccessFunction struct {
	Name   string
	Get    func(receiver *box.Value) (*box.Value, error)
	Set    func(receiver *box.Value, val *box.Value) error
	Param0 types.Tag // receiver type filter, Undef accepts anything
}

func (f *AttributeAccessFunction) Arity() int { return 1 }
func (f *AttributeAccessFunction) ParamTypes() []types.Tag {
	return []types.Tag{types.Undef, f.Param0}
}
func (f *AttributeAccessFunction) IsArithmeticParam(i int) bool { return false }

func (f *AttributeAccessFunction) CallMatch(args []*box.Value, conv *convert.Registry) bool {
	if len(args) != 1 {
		return false
	}
	return acceptableArg(f.Param0, args[0])
}

func (f *AttributeAccessFunction) Call(args []*box.Value, conv *convert.Registry) (*box.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: expected 1 argument, got %d", f.Name, len(args))
	}
	return f.Get(args[0])
}

// --- Assignable ---------------------------------------------------------------

// AssignableFunction is a named reference to a ProxyFunction slot that
// script code may reassign (spec §3). Lookup re-reads Resolve() on every
// call so reassignment is observed immediately.
type AssignableFunction struct {
	Name    string
	Resolve func() Function
}

func (f *AssignableFunction) Arity() int { return f.Resolve().Arity() }
func (f *AssignableFunction) ParamTypes() []types.Tag { return f.Resolve().ParamTypes() }
func (f *AssignableFunction) IsArithmeticParam(i int) bool { return f.Resolve().IsArithmeticParam(i) }
func (f *AssignableFunction) CallMatch(args []*box.Value, conv *convert.Registry) bool {
	return f.Resolve().CallMatch(args, conv)
}
func (f *AssignableFunction) Call(args []*box.Value, conv *convert.Registry) (*box.Value, error) {
	return f.Resolve().Call(args, conv)
}

// --- Dispatch (overload set as a first-class value) --------------------------

// DispatchFunction is a container over an ordered list of candidates, so an
// entire overload set can be passed around as one first-class value (spec
// §3 "Dispatch").
type DispatchFunction struct {
	Name       string
	Candidates []Function
}

func (f *DispatchFunction) Arity() int {
	if len(f.Candidates) == 0 {
		return 0
	}
	return f.Candidates[0].Arity()
}
func (f *DispatchFunction) ParamTypes() []types.Tag {
	if len(f.Candidates) == 0 {
		return nil
	}
	return f.Candidates[0].ParamTypes()
}
func (f *DispatchFunction) IsArithmeticParam(i int) bool {
	if len(f.Candidates) == 0 {
		return false
	}
	return f.Candidates[0].IsArithmeticParam(i)
}
func (f *DispatchFunction) CallMatch(args []*box.Value, conv *convert.Registry) bool {
	for _, c := range f.Candidates {
		if c.CallMatch(args, conv) {
			return true
		}
	}
	return false
}
func (f *DispatchFunction) Call(args []*box.Value, conv *convert.Registry) (*box.Value, error) {
	return Resolve(f.Name, f.Candidates, args, conv)
}

// --- Builtin (BoxedValue-in, BoxedValue-out host function) -------------------

// Builtin wraps a Go closure operating directly on BoxedValues, for standard
// library entries that accept any argument type (print, to_string, size, the
// exception hierarchy, dynamic-object introspection) rather than one Go type
// NativeFunction's reflection would pin them to. ParamTags defaults to
// "accept anything" (types.Undef) for every parameter when left nil.
type Builtin struct {
	Name      string
	NumArgs   int // -1 for variadic
	ParamTags []types.Tag
	Fn        func(args []*box.Value) (*box.Value, error)
}

func (f *Builtin) Arity() int { return f.NumArgs }

func (f *Builtin) ParamTypes() []types.Tag {
	out := make([]types.Tag, 0, len(f.ParamTags)+1)
	out = append(out, types.Undef)
	out = append(out, f.ParamTags...)
	return out
}

func (f *Builtin) IsArithmeticParam(i int) bool { return false }

func (f *Builtin) paramTag(i int) types.Tag {
	if i < len(f.ParamTags) {
		return f.ParamTags[i]
	}
	return types.Undef
}

func (f *Builtin) CallMatch(args []*box.Value, conv *convert.Registry) bool {
	if f.NumArgs >= 0 && len(args) != f.NumArgs {
		return false
	}
	if f.NumArgs < 0 && len(args) < len(f.ParamTags) {
		return false
	}
	for i, arg := range args {
		if !acceptableArg(f.paramTag(i), arg) {
			return false
		}
	}
	return true
}

func (f *Builtin) Call(args []*box.Value, conv *convert.Registry) (*box.Value, error) {
	return f.Fn(args)
}
