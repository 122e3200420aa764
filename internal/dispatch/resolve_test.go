package dispatch

import (
	"testing"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/types"
)

func constBuiltin(name string, numArgs int, result *box.Value) *Builtin {
	return &Builtin{
		Name:    name,
		NumArgs: numArgs,
		Fn:      func(args []*box.Value) (*box.Value, error) { return result, nil },
	}
}

func TestAddFunctionRejectsIdenticalSignature(t *testing.T) {
	e := NewEngine()
	one := constBuiltin("greet", 1, box.FromValue("hi"))
	two := constBuiltin("greet", 1, box.FromValue("hi"))

	if err := e.AddFunction("greet", one); err != nil {
		t.Fatalf("first AddFunction: %v", err)
	}
	if err := e.AddFunction("greet", two); err == nil {
		t.Fatalf("expected AddFunction to reject a second identical (name, arity, param tags) signature")
	}
}

func TestResolvePicksCandidateByArity(t *testing.T) {
	e := NewEngine()
	oneArg := constBuiltin("describe", 1, box.FromValue("one"))
	twoArg := constBuiltin("describe", 2, box.FromValue("two"))
	if err := e.AddFunction("describe", oneArg); err != nil {
		t.Fatalf("AddFunction(1-arg): %v", err)
	}
	if err := e.AddFunction("describe", twoArg); err != nil {
		t.Fatalf("AddFunction(2-arg): %v", err)
	}

	state := NewState(e)
	result, err := state.CallFunction("describe", []*box.Value{box.FromValue(int64(1))})
	if err != nil {
		t.Fatalf("CallFunction(1 arg): %v", err)
	}
	if result.Interface().(string) != "one" {
		t.Errorf("describe(x) = %v, want \"one\"", result.Interface())
	}

	result, err = state.CallFunction("describe", []*box.Value{box.FromValue(int64(1)), box.FromValue(int64(2))})
	if err != nil {
		t.Fatalf("CallFunction(2 args): %v", err)
	}
	if result.Interface().(string) != "two" {
		t.Errorf("describe(x, y) = %v, want \"two\"", result.Interface())
	}
}

func TestResolveReturnsDispatchErrorWhenNoCandidateMatches(t *testing.T) {
	e := NewEngine()
	strOnly := &Builtin{
		Name:      "shout",
		NumArgs:   1,
		ParamTags: []types.Tag{types.Of("")},
		Fn:        func(args []*box.Value) (*box.Value, error) { return args[0], nil },
	}
	if err := e.AddFunction("shout", strOnly); err != nil {
		t.Fatalf("AddFunction: %v", err)
	}

	state := NewState(e)
	if _, err := state.CallFunction("shout", []*box.Value{box.FromValue(int64(1))}); err == nil {
		t.Errorf("expected a DispatchError calling shout(int) against a string-only overload")
	}
}

// namedMethod builds a DynamicFunction shaped the way the evaluator
// registers a class method: an implicit "this" receiver parameter tagged
// with the owning class's own nominal Tag, not types.Undef.
func namedMethod(className, name, result string) *DynamicFunction {
	fn := &DynamicFunction{
		Name:     name,
		Params:   []ast.Param{{Name: "this"}},
		ParamTag: []types.Tag{types.Named(className)},
	}
	fn.CallFn = func(args []*box.Value) (*box.Value, error) {
		return box.FromValue(result).AsReturnValue(), nil
	}
	return fn
}

// TestSameNamedMethodOnDifferentClassesCoexist is the class-collision
// regression this package's overload resolution must not reintroduce: two
// classes defining a method with the same name and arity must register as
// distinct overloads (discriminated by the receiver's class Tag) and
// dispatch to the right one, rather than the second registration tripping
// AddFunction's duplicate-signature check.
func TestSameNamedMethodOnDifferentClassesCoexist(t *testing.T) {
	e := NewEngine()
	dog := namedMethod("Dog", "speak", "woof")
	cat := namedMethod("Cat", "speak", "meow")

	if err := e.AddFunction("speak", dog); err != nil {
		t.Fatalf("registering Dog.speak: %v", err)
	}
	if err := e.AddFunction("speak", cat); err != nil {
		t.Fatalf("registering Cat.speak collided with Dog.speak: %v", err)
	}

	state := NewState(e)
	dogInstance := box.FromValueWithTag("dog-instance", types.Named("Dog"))
	catInstance := box.FromValueWithTag("cat-instance", types.Named("Cat"))

	result, err := state.CallMember("speak", dogInstance, nil)
	if err != nil {
		t.Fatalf("CallMember(speak, dog): %v", err)
	}
	if result.Interface().(string) != "woof" {
		t.Errorf("Dog instance .speak() = %v, want \"woof\"", result.Interface())
	}

	result, err = state.CallMember("speak", catInstance, nil)
	if err != nil {
		t.Fatalf("CallMember(speak, cat): %v", err)
	}
	if result.Interface().(string) != "meow" {
		t.Errorf("Cat instance .speak() = %v, want \"meow\"", result.Interface())
	}
}

func TestCallMemberFallsBackToAttributeMapFunction(t *testing.T) {
	e := NewEngine()
	state := NewState(e)

	receiver := box.FromValue("instance")
	callback := &Builtin{
		Name:    "<anonymous>",
		NumArgs: 1,
		Fn:      func(args []*box.Value) (*box.Value, error) { return box.FromValue("called"), nil },
	}
	receiver.SetAttr("on_ready", box.FromValue(Function(callback)))

	result, err := state.CallMember("on_ready", receiver, nil)
	if err != nil {
		t.Fatalf("CallMember(on_ready): %v", err)
	}
	if result.Interface().(string) != "called" {
		t.Errorf("CallMember fell back to the attribute-map function incorrectly: got %v", result.Interface())
	}
}

func TestCallMemberFallsBackToMethodMissing(t *testing.T) {
	e := NewEngine()
	missing := &Builtin{
		Name:    "method_missing",
		NumArgs: -1,
		Fn: func(args []*box.Value) (*box.Value, error) {
			return box.FromValue(args[1].Interface().(string) + " is missing"), nil
		},
	}
	if err := e.AddFunction("method_missing", missing); err != nil {
		t.Fatalf("AddFunction(method_missing): %v", err)
	}

	state := NewState(e)
	receiver := box.FromValue("instance")
	result, err := state.CallMember("fly", receiver, nil)
	if err != nil {
		t.Fatalf("CallMember(fly): %v", err)
	}
	if result.Interface().(string) != "fly is missing" {
		t.Errorf("method_missing fallback = %v, want \"fly is missing\"", result.Interface())
	}
}
