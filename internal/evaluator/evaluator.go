// Package evaluator implements the tree-walking evaluator of spec §4.7: each
// AST node evaluates against a DispatchState and returns a BoxedValue.
// Return/Break/Continue and thrown exceptions are threaded as Go errors
// rather than panics, so every node that can unwind returns (nil, error)
// exactly like a dispatch failure, and Try/Catch/Finally inspects the error
// value to decide what to do with it.
package evaluator

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/classobj"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/diagnostics"
	"github.com/quill-lang/quill/internal/dispatch"
	"github.com/quill-lang/quill/internal/types"
)

// maxEvalDepth guards against runaway recursion on pathological scripts
// (unbounded recursive script functions, self-referential lambdas).
const maxEvalDepth = 10000

// Evaluator walks one AST against a single DispatchState. Create one per
// top-level eval call chain; Clone gives a fresh depth counter over the same
// underlying State for a nested call chain (e.g. a forked future).
type Evaluator struct {
	State *dispatch.State
	depth int
}

// New creates an Evaluator over state.
func New(state *dispatch.State) *Evaluator {
	return &Evaluator{State: state}
}

// Clone returns a new Evaluator sharing State but with its own recursion
// counter, for use by a nested evaluation that should not inherit the
// caller's depth budget (e.g. a lazily-invoked callback stored and called
// much later).
func (e *Evaluator) Clone() *Evaluator {
	return &Evaluator{State: e.State}
}

// --- unwind signals --------------------------------------------------------

// returnSignal carries Return's value up to the nearest function call frame.
type returnSignal struct{ Value *box.Value }

func (returnSignal) Error() string { return "return outside function" }

// breakSignal and continueSignal unwind to the nearest enclosing loop.
type breakSignal struct{}

func (breakSignal) Error() string { return "break outside loop" }

type continueSignal struct{}

func (continueSignal) Error() string { return "continue outside loop" }

// ThrownValue is a script-level exception in flight: the BoxedValue passed
// to throw(). Host diagnostics (ArithmeticError/DispatchError/etc.) raised
// inside a Try body are not wrapped in a ThrownValue; asException boxes them
// directly. Catch clauses match against Value's type the same way function
// parameters do.
type ThrownValue struct {
	Value *box.Value
}

func (t *ThrownValue) Error() string {
	if t.Value == nil {
		return "exception"
	}
	if s, ok := t.Value.Interface().(string); ok {
		return s
	}
	if fn, ok := lookupWhat(t.Value); ok {
		if bv, err := fn.Call([]*box.Value{t.Value}, nil); err == nil {
			if s, ok := bv.Interface().(string); ok {
				return s
			}
		}
	}
	return fmt.Sprintf("exception of type %s", t.Value.GetType().Name())
}

func lookupWhat(v *box.Value) (dispatch.Function, bool) {
	attrs := v.Attrs()
	if attrs == nil {
		return nil, false
	}
	slot, ok := attrs["what"]
	if !ok {
		return nil, false
	}
	fn, ok := slot.Interface().(dispatch.Function)
	return fn, ok
}

// Throw wraps v as a ThrownValue error, the Go-idiomatic unwind signal every
// evaluator node propagates until a matching Catch or the top level. It is
// exported so the standard library's throw() builtin can raise it without
// importing evaluator internals beyond this type.
func Throw(v *box.Value) error { return &ThrownValue{Value: v} }

// --- entry point -------------------------------------------------------------

// Eval dispatches on n's concrete type and returns the BoxedValue it
// produces, or an unwind signal / diagnostic error.
func (e *Evaluator) Eval(n ast.Node) (*box.Value, error) {
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > maxEvalDepth {
		return nil, diagnostics.New(diagnostics.ErrEval, posOf(n), "evaluation exceeded maximum recursion depth")
	}

	switch node := n.(type) {
	case nil:
		return box.Empty, nil
	case *ast.File:
		return e.evalStatements(node.Statements)
	case *ast.Noop:
		return box.Empty, nil
	case *ast.Constant:
		return e.evalConstant(node)
	case *ast.Id:
		if node.Name == "_" {
			// The bind() placeholder is a reserved token, not a lookup: spec
			// §4.5 reserves "_" so it can never shadow a real binding.
			return box.FromValue(dispatch.Placeholder{}).AsReturnValue(), nil
		}
		return e.State.GetObject(node.Name)
	case *ast.VarDecl:
		return e.evalVarDecl(node)
	case *ast.AssignDecl:
		return e.evalAssignDecl(node)
	case *ast.GlobalDecl:
		return e.evalGlobalDecl(node)
	case *ast.Equation:
		return e.evalEquation(node)
	case *ast.FunCall:
		return e.evalFunCall(node)
	case *ast.UnusedReturnFunCall:
		if _, err := e.Eval(node.Call); err != nil {
			return nil, err
		}
		return box.Empty, nil
	case *ast.ArrayCall:
		return e.evalArrayCall(node)
	case *ast.DotAccess:
		return e.evalDotAccess(node)
	case *ast.Lambda:
		return e.evalLambda(node)
	case *ast.Block:
		return e.evalScopedBlock(node.Statements)
	case *ast.ScopelessBlock:
		return e.evalStatements(node.Statements)
	case *ast.Def:
		return e.evalDef(node)
	case *ast.Method:
		return e.evalMethod(node)
	case *ast.AttrDecl:
		return e.evalAttrDecl(node)
	case *ast.Class:
		return e.evalClass(node)
	case *ast.While:
		return e.evalWhile(node)
	case *ast.For:
		return e.evalFor(node)
	case *ast.ForSpecialized:
		return e.evalForSpecialized(node)
	case *ast.RangedFor:
		return e.evalRangedFor(node)
	case *ast.If:
		return e.evalIf(node)
	case *ast.TernaryCond:
		return e.evalTernary(node)
	case *ast.Switch:
		return e.evalSwitch(node)
	case *ast.InlineArray:
		return e.evalInlineArray(node)
	case *ast.InlineMap:
		return e.evalInlineMap(node)
	case *ast.InlineRange:
		return e.evalInlineRange(node)
	case *ast.Return:
		return e.evalReturn(node)
	case *ast.Break:
		return nil, breakSignal{}
	case *ast.Continue:
		return nil, continueSignal{}
	case *ast.Try:
		return e.evalTry(node)
	case *ast.BinaryFoldRight:
		return e.evalBinaryFoldRight(node)
	case *ast.Binary:
		return e.evalBinary(node)
	case *ast.Prefix:
		return e.evalPrefix(node)
	case *ast.LogicalAnd:
		return e.evalLogicalAnd(node)
	case *ast.LogicalOr:
		return e.evalLogicalOr(node)
	case *ast.Reference:
		return e.evalReference(node)
	}
	return nil, fmt.Errorf("evaluator: unhandled node type %T", n)
}

// EvalProgram evaluates every top-level statement of f in sequence, turning
// any unwind signal leaking past the top level into an EvalError (spec §7:
// "leaking out of the expected scope becomes EvalError").
func (e *Evaluator) EvalProgram(f *ast.File) (*box.Value, error) {
	result, err := e.evalStatements(f.Statements)
	if err != nil {
		return nil, e.topLevelError(f, err)
	}
	return result, nil
}

func (e *Evaluator) topLevelError(n ast.Node, err error) error {
	switch err.(type) {
	case returnSignal:
		return diagnostics.NewEvalError(posOf(n), "unexpected return outside function", err, e.State.Stack())
	case breakSignal:
		return diagnostics.NewEvalError(posOf(n), "unexpected break outside loop", err, e.State.Stack())
	case continueSignal:
		return diagnostics.NewEvalError(posOf(n), "unexpected continue outside loop", err, e.State.Stack())
	}
	if tv, ok := err.(*ThrownValue); ok {
		return diagnostics.NewEvalError(posOf(n), "uncaught exception: "+tv.Error(), tv, e.State.Stack())
	}
	if _, ok := err.(*diagnostics.DiagnosticError); ok {
		return err
	}
	return diagnostics.NewEvalError(posOf(n), err.Error(), err, e.State.Stack())
}

func posOf(n ast.Node) diagnostics.Position {
	if n == nil {
		return diagnostics.Position{}
	}
	sp := n.Pos()
	return diagnostics.Position{File: sp.File, Line: sp.StartLine, Column: sp.StartCol}
}

// --- statements and scoping --------------------------------------------------

// evalStatements runs stmts in the current scope, returning the last
// statement's value (spec §4.8 Dead-code / Return-tail rely on this being
// the expression value of a block).
func (e *Evaluator) evalStatements(stmts []ast.Node) (*box.Value, error) {
	result := box.Empty
	for _, stmt := range stmts {
		v, err := e.Eval(stmt)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

// evalScopedBlock pushes a fresh scope, evaluates stmts, and pops the scope
// on every exit path including unwind (spec §4.7 Block).
func (e *Evaluator) evalScopedBlock(stmts []ast.Node) (*box.Value, error) {
	e.State.NewScope()
	defer e.State.PopScope()
	return e.evalStatements(stmts)
}

func (e *Evaluator) evalConstant(n *ast.Constant) (*box.Value, error) {
	switch n.ValueKind {
	case "int":
		iv, err := strconv.ParseInt(n.Text, 10, 64)
		if err != nil {
			return nil, diagnostics.ParseError(posOf(n), "malformed integer literal: "+err.Error())
		}
		return box.FromValue(iv).AsReturnValue(), nil
	case "float":
		fv, err := strconv.ParseFloat(n.Text, 64)
		if err != nil {
			return nil, diagnostics.ParseError(posOf(n), "malformed float literal: "+err.Error())
		}
		return box.FromValue(fv).AsReturnValue(), nil
	case "string":
		return box.FromValue(n.Text).AsReturnValue(), nil
	case "char":
		r := []rune(n.Text)
		if len(r) == 0 {
			return box.FromValue(rune(0)).AsReturnValue(), nil
		}
		return box.FromValue(r[0]).AsReturnValue(), nil
	case "bool":
		return box.FromValue(n.Text == "true").AsReturnValue(), nil
	default:
		return box.Empty, nil
	}
}

// --- declarations -------------------------------------------------------------

func (e *Evaluator) evalVarDecl(n *ast.VarDecl) (*box.Value, error) {
	var val *box.Value
	if n.Value != nil {
		v, err := e.Eval(n.Value)
		if err != nil {
			return nil, err
		}
		val = cloneIfOwned(v)
	} else {
		val = box.NewEmpty()
	}
	if err := e.State.Declare(n.Name, val); err != nil {
		return nil, err
	}
	return val, nil
}

// evalAssignDecl implements `&x`: declares x as an empty, mutable reference
// slot in the current scope, ready to be bound by the assignment that reads
// it as an Equation LHS (spec §4.7).
func (e *Evaluator) evalAssignDecl(n *ast.AssignDecl) (*box.Value, error) {
	val := box.NewEmpty()
	if err := e.State.Declare(n.Name, val); err != nil {
		return nil, err
	}
	return val, nil
}

func (e *Evaluator) evalGlobalDecl(n *ast.GlobalDecl) (*box.Value, error) {
	var val *box.Value
	if n.Value != nil {
		v, err := e.Eval(n.Value)
		if err != nil {
			return nil, err
		}
		val = cloneIfOwned(v)
	} else {
		val = box.NewEmpty()
	}
	if err := e.State.DeclareGlobal(n.Name, val); err != nil {
		return nil, err
	}
	return val, nil
}

// cloneIfOwned implements the "clone unless a return value" rule used
// throughout §4.7 (VarDecl initializer, InlineArray/InlineMap elements,
// plain `=` assignment to an undefined LHS). An empty source always yields a
// freshly-owned empty slot rather than the shared box.Empty sentinel, since
// the result here is about to become (or be assigned into) a scope slot.
func cloneIfOwned(v *box.Value) *box.Value {
	if v.IsEmpty() {
		return box.NewEmpty()
	}
	if v.IsReturnValue() {
		return v
	}
	return v.Clone()
}

// --- assignment ---------------------------------------------------------------

func (e *Evaluator) evalEquation(n *ast.Equation) (*box.Value, error) {
	rhs, err := e.Eval(n.RHS)
	if err != nil {
		return nil, err
	}
	lhs, err := e.Eval(n.LHS)
	if err != nil {
		return nil, err
	}

	if n.Operator != "=" && n.Operator != ":=" {
		if v, ok := compoundArithmetic(n.Operator, lhs, rhs); ok {
			if err := lhs.Assign(v); err != nil {
				return nil, err
			}
			return lhs, nil
		}
		opName := compoundOpFunction(n.Operator)
		result, err := e.State.CallFunction(opName, []*box.Value{lhs, rhs})
		if err != nil {
			return nil, err
		}
		if err := lhs.Assign(result); err != nil {
			return nil, err
		}
		return lhs, nil
	}

	if lhs.IsEmpty() {
		adopted := cloneIfOwned(rhs)
		if err := lhs.Assign(adopted); err != nil {
			return nil, err
		}
		return lhs, nil
	}
	result, err := e.State.CallFunction("=", []*box.Value{lhs, rhs})
	if err != nil {
		// No script/host "=" overload registered for this pair: fall back to
		// the BoxedValue's own shallow-assign semantics.
		if assignErr := lhs.Assign(rhs); assignErr != nil {
			return nil, err
		}
		return lhs, nil
	}
	return result, nil
}

// compoundOpFunction strips the trailing "=" from a compound-assignment
// lexeme to recover the underlying binary operator's registered name.
func compoundOpFunction(op string) string {
	if len(op) > 1 && op[len(op)-1] == '=' {
		return op[:len(op)-1]
	}
	return op
}

// --- function calls -------------------------------------------------------------

func (e *Evaluator) evalFunCall(n *ast.FunCall) (*box.Value, error) {
	args := make([]*box.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.Eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	name, ok := calleeName(n.Callee)
	if !ok {
		calleeVal, err := e.Eval(n.Callee)
		if err != nil {
			return nil, err
		}
		fn, ok := calleeVal.Interface().(dispatch.Function)
		if !ok {
			return nil, diagnostics.New(diagnostics.ErrDispatch, posOf(n), "callee is not callable")
		}
		return e.callFunction("<anonymous>", fn, args, n)
	}

	e.State.NewCallFrame(name, args, posOf(n))
	defer e.State.PopCallFrame()
	result, err := e.State.CallFunction(name, args)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Evaluator) callFunction(name string, fn dispatch.Function, args []*box.Value, n ast.Node) (*box.Value, error) {
	e.State.NewCallFrame(name, args, posOf(n))
	defer e.State.PopCallFrame()
	if !fn.CallMatch(args, e.State.Conv) {
		types := make([]string, len(args))
		for i, a := range args {
			types[i] = a.GetType().Name()
		}
		return nil, diagnostics.NewDispatchError(posOf(n), name, types, nil)
	}
	return fn.Call(args, e.State.Conv)
}

// calleeName recognizes the common case of a call by bare name — the
// overwhelming majority of FunCalls. A method call parses as a DotAccess
// instead (see evalDotAccess), so FunCall's Callee is never itself a
// receiver-qualified name.
func calleeName(n ast.Node) (string, bool) {
	if id, ok := n.(*ast.Id); ok {
		return id.Name, true
	}
	return "", false
}

func (e *Evaluator) evalArrayCall(n *ast.ArrayCall) (*box.Value, error) {
	target, err := e.Eval(n.Target)
	if err != nil {
		return nil, err
	}
	index, err := e.Eval(n.Index)
	if err != nil {
		return nil, err
	}
	e.State.NewCallFrame("[]", []*box.Value{target, index}, posOf(n))
	defer e.State.PopCallFrame()
	return e.State.CallFunction("[]", []*box.Value{target, index})
}

// evalDotAccess handles both `recv.member` (a bare read) and
// `recv.member(args)` (a method call); both route through CallMember so the
// attribute-map-function fallback and method_missing dispatch apply
// uniformly (spec §4.5/§4.7), matching ChaiScript's
// Dot_Access_AST_Node::eval_internal. A bare read additionally prefers the
// receiver's own attribute map (dynamic-object instance fields) over a
// same-named global function, since class instances own their attributes
// outright.
func (e *Evaluator) evalDotAccess(n *ast.DotAccess) (*box.Value, error) {
	target, err := e.Eval(n.Target)
	if err != nil {
		return nil, err
	}
	if !n.IsCall {
		if attrs := target.Attrs(); attrs != nil {
			if v, ok := attrs[n.Member]; ok {
				if _, isFn := v.Interface().(dispatch.Function); !isFn {
					return v, nil
				}
			}
		}
		e.State.NewCallFrame(n.Member, []*box.Value{target}, posOf(n))
		defer e.State.PopCallFrame()
		return e.State.CallMember(n.Member, target, nil)
	}

	rest := make([]*box.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.Eval(a)
		if err != nil {
			return nil, err
		}
		rest[i] = v
	}
	e.State.NewCallFrame(n.Member, append([]*box.Value{target}, rest...), posOf(n))
	defer e.State.PopCallFrame()
	return e.State.CallMember(n.Member, target, rest)
}

// --- closures -------------------------------------------------------------------

func (e *Evaluator) evalLambda(n *ast.Lambda) (*box.Value, error) {
	closure := make(map[string]*box.Value, len(n.Captures))
	for _, name := range n.Captures {
		v, err := e.State.GetObject(name)
		if err != nil {
			closure[name] = box.NewEmpty()
			continue
		}
		closure[name] = v.Clone()
	}
	fn := e.buildDynamicFunction("<lambda>", n.Params, n.Guard, n.Body, closure)
	return box.FromValue(dispatch.Function(fn)).AsReturnValue(), nil
}

// buildDynamicFunction constructs a dispatch.DynamicFunction whose CallFn
// evaluates body in a fresh scope seeded with closure then the bound
// parameters (spec §4.7 Closures; also used for Def/Method, whose Closure
// is empty since free functions and methods capture nothing).
func (e *Evaluator) buildDynamicFunction(name string, params []ast.Param, guard, body ast.Node, closure map[string]*box.Value) *dispatch.DynamicFunction {
	paramTags := make([]types.Tag, len(params))
	for i, p := range params {
		if p.TypeName == "" {
			paramTags[i] = types.Undef
			continue
		}
		if tag, ok := e.State.Engine.LookupType(p.TypeName); ok {
			paramTags[i] = tag
		} else {
			paramTags[i] = types.Undef
		}
	}

	fn := &dispatch.DynamicFunction{
		Name:     name,
		Params:   params,
		ParamTag: paramTags,
		Body:     body,
		Closure:  closure,
	}

	bindScope := func(args []*box.Value) {
		e.State.NewScope()
		for k, v := range closure {
			e.State.Declare(k, v)
		}
		for i, p := range params {
			if i < len(args) {
				e.State.Declare(p.Name, args[i])
			} else {
				e.State.Declare(p.Name, box.NewEmpty())
			}
		}
	}

	if guard != nil {
		fn.GuardFn = func(args []*box.Value) (bool, error) {
			bindScope(args)
			defer e.State.PopScope()
			v, err := e.Eval(guard)
			if err != nil {
				return false, err
			}
			b, ok := v.Interface().(bool)
			return ok && b, nil
		}
	}

	fn.CallFn = func(args []*box.Value) (*box.Value, error) {
		bindScope(args)
		defer e.State.PopScope()
		result, err := e.Eval(body)
		if err != nil {
			if rs, ok := err.(returnSignal); ok {
				return rs.Value, nil
			}
			return nil, err
		}
		return result, nil
	}

	return fn
}

// --- def / method / class --------------------------------------------------------

func (e *Evaluator) evalDef(n *ast.Def) (*box.Value, error) {
	fn := e.buildDynamicFunction(n.Name, n.Params, n.Guard, n.Body, nil)
	fn.Variadic = false
	if err := e.State.Engine.AddFunction(n.Name, fn); err != nil {
		return nil, err
	}
	return box.Empty, nil
}

func (e *Evaluator) evalMethod(n *ast.Method) (*box.Value, error) {
	className := n.ClassName
	if className == "" {
		if cur, err := e.State.GetObject(dispatch.ClassSentinel); err == nil {
			if s, ok := cur.Interface().(string); ok {
				className = s
			}
		}
	}
	// The receiver is always the method's implicit first parameter.
	params := append([]ast.Param{{Name: "this"}}, n.Params...)
	fullName := n.Name
	fn := e.buildDynamicFunction(fullName, params, n.Guard, n.Body, nil)
	if className != "" {
		// Tag the receiver with className's own nominal Tag, not types.Undef:
		// two classes defining a same-named method would otherwise register
		// identical signatures and collide in the engine's flat function
		// table (spec §3/§4.7 — the receiver's class is the dispatch
		// discriminator, mirroring ChaiScript's Param_Types::match comparing
		// get_type_name against the declared class name).
		fn.ParamTag[0] = classobj.TypeTag(e.State.Engine, className)
	}
	if err := e.State.Engine.AddFunction(fullName, fn); err != nil {
		return nil, err
	}
	return box.Empty, nil
}

func (e *Evaluator) evalAttrDecl(n *ast.AttrDecl) (*box.Value, error) {
	// Attribute slots materialize lazily on the instance itself (box.Value.GetAttr);
	// registering the declaration here only documents the class shape via a
	// receiver-only (arity 1) AttributeAccessFunction that get_attrs/get_attr
	// can introspect.
	name := n.Name
	fn := &dispatch.AttributeAccessFunction{
		Name: name,
		Get: func(receiver *box.Value) (*box.Value, error) {
			return receiver.GetAttr(name), nil
		},
		Set: func(receiver *box.Value, val *box.Value) error {
			receiver.SetAttr(name, val)
			return nil
		},
	}
	_ = e.State.Engine.AddFunction(name, fn) // best-effort: duplicate attr across classes is allowed to coexist
	return box.Empty, nil
}

// evalClass records the class name under the well-known sentinel in a fresh
// scope, then evaluates every member so Method/AttrDecl nodes register
// against it (spec §4.7 Class definition).
func (e *Evaluator) evalClass(n *ast.Class) (*box.Value, error) {
	e.State.NewScope()
	defer e.State.PopScope()
	if err := e.State.Declare(dispatch.ClassSentinel, box.FromValue(n.Name)); err != nil {
		return nil, err
	}
	for _, member := range n.Members {
		switch m := member.(type) {
		case *ast.Method:
			mm := *m
			mm.ClassName = n.Name
			if mm.Name == n.Name {
				if err := e.registerConstructor(&mm); err != nil {
					return nil, err
				}
				continue
			}
			if _, err := e.Eval(&mm); err != nil {
				return nil, err
			}
		case *ast.AttrDecl:
			ad := *m
			ad.ClassName = n.Name
			if _, err := e.Eval(&ad); err != nil {
				return nil, err
			}
		}
	}
	return box.Empty, nil
}

// registerConstructor wires a same-named method as the class constructor: a
// free function `ClassName(args...)` that allocates a fresh instance
// BoxedValue, binds it as `this`, runs the method body for initialization
// side effects, and returns the instance (spec §4.7: "a method with the same
// name as the class becomes the constructor").
func (e *Evaluator) registerConstructor(n *ast.Method) error {
	params := n.Params
	paramTags := make([]types.Tag, len(params))
	for i := range params {
		paramTags[i] = types.Undef
	}
	className := n.ClassName
	ctor := &dispatch.DynamicFunction{
		Name:     className,
		Params:   params,
		ParamTag: paramTags,
		Body:     n.Body,
	}
	ctor.CallFn = func(args []*box.Value) (*box.Value, error) {
		instance := classobj.New(e.State.Engine, className)

		e.State.NewScope()
		defer e.State.PopScope()
		e.State.Declare("this", instance)
		for i, p := range params {
			if i < len(args) {
				e.State.Declare(p.Name, args[i])
			} else {
				e.State.Declare(p.Name, box.NewEmpty())
			}
		}
		_, err := e.Eval(n.Body)
		if err != nil {
			if rs, ok := err.(returnSignal); ok {
				_ = rs
				return instance, nil
			}
			return nil, err
		}
		return instance, nil
	}
	return e.State.Engine.AddFunction(className, ctor)
}

// --- loops and conditionals -------------------------------------------------------

func (e *Evaluator) evalWhile(n *ast.While) (*box.Value, error) {
	e.State.NewScope()
	defer e.State.PopScope()
	result := box.Empty
	for {
		cond, err := e.Eval(n.Cond)
		if err != nil {
			return nil, err
		}
		ok, err := truthy(cond)
		if err != nil {
			return nil, err
		}
		if !ok {
			return result, nil
		}
		v, err := e.Eval(n.Body)
		if err != nil {
			if _, isBreak := err.(breakSignal); isBreak {
				return result, nil
			}
			if _, isCont := err.(continueSignal); isCont {
				continue
			}
			return nil, err
		}
		result = v
	}
}

func (e *Evaluator) evalFor(n *ast.For) (*box.Value, error) {
	e.State.NewScope()
	defer e.State.PopScope()
	if n.Init != nil {
		if _, err := e.Eval(n.Init); err != nil {
			return nil, err
		}
	}
	result := box.Empty
	for {
		if n.Cond != nil {
			cond, err := e.Eval(n.Cond)
			if err != nil {
				return nil, err
			}
			ok, err := truthy(cond)
			if err != nil {
				return nil, err
			}
			if !ok {
				return result, nil
			}
		}
		v, err := e.Eval(n.Body)
		if err != nil {
			if _, isBreak := err.(breakSignal); isBreak {
				return result, nil
			}
			if _, isCont := err.(continueSignal); !isCont {
				return nil, err
			}
		} else {
			result = v
		}
		if n.Step != nil {
			if _, err := e.Eval(n.Step); err != nil {
				return nil, err
			}
		}
	}
}

// evalForSpecialized executes the optimizer's native-iteration replacement
// for the canonical `for(var i=const; i<const; ++i)` shape (spec §4.8):
// the loop variable is a plain int64 slot in its own scope, incremented in
// Go rather than dispatched through "<" and "++".
func (e *Evaluator) evalForSpecialized(n *ast.ForSpecialized) (*box.Value, error) {
	e.State.NewScope()
	defer e.State.PopScope()
	slot := box.FromValue(n.Start)
	if err := e.State.Declare(n.Var, slot); err != nil {
		return nil, err
	}
	result := box.Empty
	for i := n.Start; i < n.End; i++ {
		if err := slot.Assign(box.FromValue(i)); err != nil {
			return nil, err
		}
		v, err := e.Eval(n.Body)
		if err != nil {
			if _, isBreak := err.(breakSignal); isBreak {
				return result, nil
			}
			if _, isCont := err.(continueSignal); !isCont {
				return nil, err
			}
			continue
		}
		result = v
	}
	return result, nil
}

func (e *Evaluator) evalRangedFor(n *ast.RangedFor) (*box.Value, error) {
	seq, err := e.Eval(n.Expr)
	if err != nil {
		return nil, err
	}
	items, err := asIterable(seq)
	if err != nil {
		return nil, err
	}
	e.State.NewScope()
	defer e.State.PopScope()
	if err := e.State.Declare(n.Var, box.NewEmpty()); err != nil {
		return nil, err
	}
	result := box.Empty
	for _, item := range items {
		if err := e.State.Assign(n.Var, item); err != nil {
			return nil, err
		}
		v, err := e.Eval(n.Body)
		if err != nil {
			if _, isBreak := err.(breakSignal); isBreak {
				return result, nil
			}
			if _, isCont := err.(continueSignal); isCont {
				continue
			}
			return nil, err
		}
		result = v
	}
	return result, nil
}

// asIterable extracts the element BoxedValues of seq for a ranged-for loop,
// grounded on the evaluator's fallback for the common containers the
// standard library registers ([]*box.Value for vectors; map iteration order
// is otherwise unspecified so it is sorted by key for determinism).
func asIterable(seq *box.Value) ([]*box.Value, error) {
	switch v := seq.Interface().(type) {
	case []*box.Value:
		return v, nil
	case map[string]*box.Value:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]*box.Value, 0, len(v))
		for _, k := range keys {
			out = append(out, v[k])
		}
		return out, nil
	}
	return nil, diagnostics.New(diagnostics.ErrEval, diagnostics.Position{}, fmt.Sprintf("type %s is not iterable", seq.GetType().Name()))
}

func (e *Evaluator) evalIf(n *ast.If) (*box.Value, error) {
	for _, arm := range n.Arms {
		if arm.Cond == nil {
			return e.Eval(arm.Body)
		}
		cond, err := e.Eval(arm.Cond)
		if err != nil {
			return nil, err
		}
		ok, err := truthy(cond)
		if err != nil {
			return nil, err
		}
		if ok {
			return e.Eval(arm.Body)
		}
	}
	return box.Empty, nil
}

func (e *Evaluator) evalTernary(n *ast.TernaryCond) (*box.Value, error) {
	cond, err := e.Eval(n.Cond)
	if err != nil {
		return nil, err
	}
	ok, err := truthy(cond)
	if err != nil {
		return nil, err
	}
	if ok {
		return e.Eval(n.Then)
	}
	return e.Eval(n.Else)
}

func (e *Evaluator) evalSwitch(n *ast.Switch) (*box.Value, error) {
	disc, err := e.Eval(n.Discriminant)
	if err != nil {
		return nil, err
	}
	e.State.NewScope()
	defer e.State.PopScope()

	matchedIdx := -1
	for i, c := range n.Cases {
		val, err := e.Eval(c.Value)
		if err != nil {
			return nil, err
		}
		eq, err := e.State.CallFunction("==", []*box.Value{disc, val})
		if err != nil {
			continue
		}
		if b, ok := eq.Interface().(bool); ok && b {
			matchedIdx = i
			break
		}
	}

	runBody := func(body []ast.Node) (*box.Value, bool, error) {
		v, err := e.evalStatements(body)
		if err != nil {
			if _, isBreak := err.(breakSignal); isBreak {
				return v, true, nil
			}
			return nil, false, err
		}
		return v, false, nil
	}

	result := box.Empty
	if matchedIdx >= 0 {
		for i := matchedIdx; i < len(n.Cases); i++ {
			v, stop, err := runBody(n.Cases[i].Body)
			if err != nil {
				return nil, err
			}
			result = v
			if stop {
				return result, nil
			}
		}
		if n.Default != nil {
			v, _, err := runBody(n.Default.Body)
			if err != nil {
				return nil, err
			}
			result = v
		}
		return result, nil
	}
	if n.Default != nil {
		v, _, err := runBody(n.Default.Body)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

// truthy coerces a condition value to bool (spec §4.7 "must be
// boolean-coercible"); any non-bool, non-zero value is true.
func truthy(v *box.Value) (bool, error) {
	switch b := v.Interface().(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	case float64:
		return b != 0, nil
	case nil:
		return false, nil
	default:
		return true, nil
	}
}

// --- inline containers ------------------------------------------------------------

func (e *Evaluator) evalInlineArray(n *ast.InlineArray) (*box.Value, error) {
	elems := make([]*box.Value, len(n.Elements))
	for i, el := range n.Elements {
		v, err := e.Eval(el)
		if err != nil {
			return nil, err
		}
		elems[i] = cloneIfOwned(v)
	}
	return box.FromValue(elems).AsReturnValue(), nil
}

func (e *Evaluator) evalInlineMap(n *ast.InlineMap) (*box.Value, error) {
	m := make(map[string]*box.Value, len(n.Pairs))
	for _, pr := range n.Pairs {
		k, err := e.Eval(pr.Key)
		if err != nil {
			return nil, err
		}
		v, err := e.Eval(pr.Value)
		if err != nil {
			return nil, err
		}
		key, ok := k.Interface().(string)
		if !ok {
			key = fmt.Sprint(k.Interface())
		}
		m[key] = cloneIfOwned(v)
	}
	return box.FromValue(m).AsReturnValue(), nil
}

func (e *Evaluator) evalInlineRange(n *ast.InlineRange) (*box.Value, error) {
	from, err := e.Eval(n.Range.From)
	if err != nil {
		return nil, err
	}
	to, err := e.Eval(n.Range.To)
	if err != nil {
		return nil, err
	}
	return e.State.CallFunction(config.GenerateRangeFunc, []*box.Value{from, to})
}

// --- return / try-catch-finally --------------------------------------------------

func (e *Evaluator) evalReturn(n *ast.Return) (*box.Value, error) {
	if n.Value == nil {
		return nil, returnSignal{Value: box.NewEmpty()}
	}
	v, err := e.Eval(n.Value)
	if err != nil {
		return nil, err
	}
	return nil, returnSignal{Value: v}
}

func (e *Evaluator) evalTry(n *ast.Try) (*box.Value, error) {
	result, bodyErr := e.Eval(n.Body)

	if bodyErr != nil {
		if exc, ok := asException(bodyErr); ok {
			handled := false
			for _, c := range n.Catches {
				matched, err := e.matchCatch(c, exc)
				if err != nil {
					bodyErr = err
					break
				}
				if !matched {
					continue
				}
				result, bodyErr = e.runCatch(c, exc)
				handled = true
				break
			}
			if !handled && bodyErr == nil {
				bodyErr = exc.err
			}
		}
	}

	if n.Finally != nil {
		if _, finErr := e.Eval(n.Finally.Body); finErr != nil {
			return nil, finErr
		}
	}
	if bodyErr != nil {
		return nil, bodyErr
	}
	return result, nil
}

// caughtException is the normalized shape of anything a Try body can raise
// that a Catch clause is eligible to intercept: a script throw(), or a host
// diagnostic (ArithmeticError, DispatchError, ...) boxed on the fly so it can
// be matched and named like any other exception value.
type caughtException struct {
	value *box.Value
	err   error
}

func asException(err error) (caughtException, bool) {
	switch e := err.(type) {
	case returnSignal, breakSignal, continueSignal:
		return caughtException{}, false
	case *ThrownValue:
		return caughtException{value: e.Value, err: err}, true
	case *diagnostics.DiagnosticError:
		return caughtException{value: box.FromValue(e).AsReturnValue(), err: err}, true
	case *diagnostics.DispatchError:
		return caughtException{value: box.FromValue(e).AsReturnValue(), err: err}, true
	case *diagnostics.EvalError:
		return caughtException{value: box.FromValue(e).AsReturnValue(), err: err}, true
	default:
		return caughtException{value: box.FromValue(err.Error()).AsReturnValue(), err: err}, true
	}
}

func (e *Evaluator) matchCatch(c *ast.Catch, exc caughtException) (bool, error) {
	if c.TypeName != "" {
		tag, ok := e.State.Engine.LookupType(c.TypeName)
		if !ok {
			return false, nil
		}
		if !tag.BareEqual(exc.value.GetType()) && !e.State.Conv.Converts(tag, exc.value.GetType()) {
			return false, nil
		}
	}
	if c.Guard == nil {
		return true, nil
	}
	e.State.NewScope()
	defer e.State.PopScope()
	if c.ExcName != "" {
		if err := e.State.Declare(c.ExcName, exc.value); err != nil {
			return false, err
		}
	}
	v, err := e.Eval(c.Guard)
	if err != nil {
		return false, err
	}
	ok, err := truthy(v)
	return ok, err
}

func (e *Evaluator) runCatch(c *ast.Catch, exc caughtException) (*box.Value, error) {
	e.State.NewScope()
	defer e.State.PopScope()
	if c.ExcName != "" {
		if err := e.State.Declare(c.ExcName, exc.value); err != nil {
			return nil, err
		}
	}
	return e.Eval(c.Body)
}

// --- operators -----------------------------------------------------------------

func (e *Evaluator) evalBinary(n *ast.Binary) (*box.Value, error) {
	left, err := e.Eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.Eval(n.Right)
	if err != nil {
		return nil, err
	}
	return e.applyBinary(n.Operator, left, right, n)
}

func (e *Evaluator) evalBinaryFoldRight(n *ast.BinaryFoldRight) (*box.Value, error) {
	left, err := e.Eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.evalConstant(n.Constant)
	if err != nil {
		return nil, err
	}
	return e.applyBinary(n.Operator, left, right, n)
}

func (e *Evaluator) applyBinary(op string, left, right *box.Value, n ast.Node) (*box.Value, error) {
	if v, ok, err := numericFastPath(op, left, right, n); ok || err != nil {
		return v, err
	}
	e.State.NewCallFrame(op, []*box.Value{left, right}, posOf(n))
	defer e.State.PopCallFrame()
	return e.State.CallFunction(op, []*box.Value{left, right})
}

func (e *Evaluator) evalPrefix(n *ast.Prefix) (*box.Value, error) {
	right, err := e.Eval(n.Right)
	if err != nil {
		return nil, err
	}
	if v, ok, err := numericPrefixFastPath(n.Operator, right, n); ok || err != nil {
		return v, err
	}
	e.State.NewCallFrame(n.Operator, []*box.Value{right}, posOf(n))
	defer e.State.PopCallFrame()
	return e.State.CallFunction(n.Operator, []*box.Value{right})
}

func (e *Evaluator) evalLogicalAnd(n *ast.LogicalAnd) (*box.Value, error) {
	left, err := e.Eval(n.Left)
	if err != nil {
		return nil, err
	}
	ok, err := truthy(left)
	if err != nil {
		return nil, err
	}
	if !ok {
		return box.FromValue(false).AsReturnValue(), nil
	}
	right, err := e.Eval(n.Right)
	if err != nil {
		return nil, err
	}
	ok, err = truthy(right)
	if err != nil {
		return nil, err
	}
	return box.FromValue(ok).AsReturnValue(), nil
}

func (e *Evaluator) evalLogicalOr(n *ast.LogicalOr) (*box.Value, error) {
	left, err := e.Eval(n.Left)
	if err != nil {
		return nil, err
	}
	ok, err := truthy(left)
	if err != nil {
		return nil, err
	}
	if ok {
		return box.FromValue(true).AsReturnValue(), nil
	}
	right, err := e.Eval(n.Right)
	if err != nil {
		return nil, err
	}
	ok, err = truthy(right)
	if err != nil {
		return nil, err
	}
	return box.FromValue(ok).AsReturnValue(), nil
}

// evalReference evaluates Target and returns the resulting BoxedValue as is,
// without cloning it; no reference marker is set on the result (used for
// `&x` targets and reference parameters, spec §4.7).
func (e *Evaluator) evalReference(n *ast.Reference) (*box.Value, error) {
	return e.Eval(n.Target)
}
