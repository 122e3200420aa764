package stdlib

import (
	"fmt"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/dispatch"
	"github.com/quill-lang/quill/internal/evaluator"
	"github.com/quill-lang/quill/internal/types"
)

var vectorTag = types.Of([]*box.Value{})

func asVector(v *box.Value) ([]*box.Value, bool) {
	vec, ok := v.Interface().([]*box.Value)
	return vec, ok
}

// registerVector installs the Vector container (spec §6): indexing,
// mutation, and the handful of methods scripts need to build and walk a
// list without reaching into the host.
func registerVector(e *dispatch.Engine) error {
	if err := e.AddType(config.VectorTypeName, vectorTag); err != nil {
		return err
	}
	vec1 := &dispatch.Builtin{Name: "vector", NumArgs: 0, Fn: func(args []*box.Value) (*box.Value, error) {
		return box.FromValue([]*box.Value{}).AsReturnValue(), nil
	}}
	if err := e.AddFunction("Vector", vec1); err != nil {
		return err
	}
	return addAll(e,
		&dispatch.Builtin{Name: "[]", NumArgs: 2, ParamTags: []types.Tag{vectorTag}, Fn: func(args []*box.Value) (*box.Value, error) {
			vec, _ := asVector(args[0])
			i, err := asInt(args[1])
			if err != nil {
				return nil, err
			}
			if i < 0 || int(i) >= len(vec) {
				return nil, newOutOfRange(fmt.Sprintf("vector index %d out of range (size %d)", i, len(vec)))
			}
			return vec[i], nil
		}},
		&dispatch.Builtin{Name: "push_back", NumArgs: 2, ParamTags: []types.Tag{vectorTag}, Fn: func(args []*box.Value) (*box.Value, error) {
			ptr, ok := args[0].GetPtrMut()
			if !ok {
				return nil, fmt.Errorf("push_back: vector is const")
			}
			slice := ptr.(*[]*box.Value)
			*slice = append(*slice, args[1].Clone())
			return args[0], nil
		}},
		&dispatch.Builtin{Name: "pop_back", NumArgs: 1, ParamTags: []types.Tag{vectorTag}, Fn: func(args []*box.Value) (*box.Value, error) {
			ptr, ok := args[0].GetPtrMut()
			if !ok {
				return nil, fmt.Errorf("pop_back: vector is const")
			}
			slice := ptr.(*[]*box.Value)
			if len(*slice) == 0 {
				return nil, newOutOfRange("pop_back: vector is empty")
			}
			last := (*slice)[len(*slice)-1]
			*slice = (*slice)[:len(*slice)-1]
			return last, nil
		}},
		&dispatch.Builtin{Name: "front", NumArgs: 1, ParamTags: []types.Tag{vectorTag}, Fn: func(args []*box.Value) (*box.Value, error) {
			vec, _ := asVector(args[0])
			if len(vec) == 0 {
				return nil, newOutOfRange("front: vector is empty")
			}
			return vec[0], nil
		}},
		&dispatch.Builtin{Name: "back", NumArgs: 1, ParamTags: []types.Tag{vectorTag}, Fn: func(args []*box.Value) (*box.Value, error) {
			vec, _ := asVector(args[0])
			if len(vec) == 0 {
				return nil, newOutOfRange("back: vector is empty")
			}
			return vec[len(vec)-1], nil
		}},
		&dispatch.Builtin{Name: "clear", NumArgs: 1, ParamTags: []types.Tag{vectorTag}, Fn: func(args []*box.Value) (*box.Value, error) {
			ptr, ok := args[0].GetPtrMut()
			if !ok {
				return nil, fmt.Errorf("clear: vector is const")
			}
			slice := ptr.(*[]*box.Value)
			*slice = nil
			return args[0], nil
		}},
	)
}

// newOutOfRange raises an out_of_range exception script Catch clauses can
// intercept, the container-bounds counterpart to spec §7's ArithmeticError.
func newOutOfRange(msg string) error {
	return evaluator.Throw(newExceptionValue(OutOfRangeError{Exception{Message: msg}}))
}
