package stdlib

import (
	"fmt"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/dispatch"
	"github.com/quill-lang/quill/internal/types"
)

// Pair is the script-visible two-element tuple spec §6 lists alongside
// Vector and Map (make_pair, .first, .second).
type Pair struct {
	First  *box.Value
	Second *box.Value
}

var pairTag = types.Of(Pair{})

func asPair(v *box.Value) (Pair, bool) {
	p, ok := v.Interface().(Pair)
	return p, ok
}

// registerPair installs Pair's constructor and its .first/.second accessors
// as AttributeAccessFunctions (the same mechanism member access already
// uses for host struct fields), with a write side so `p.first = x` works.
func registerPair(e *dispatch.Engine) error {
	if err := e.AddType(config.PairTypeName, pairTag); err != nil {
		return err
	}
	if err := e.AddFunction("make_pair", &dispatch.Builtin{
		Name:    "make_pair",
		NumArgs: 2,
		Fn: func(args []*box.Value) (*box.Value, error) {
			return box.FromValue(Pair{First: args[0].Clone(), Second: args[1].Clone()}).AsReturnValue(), nil
		},
	}); err != nil {
		return err
	}

	first := &dispatch.AttributeAccessFunction{
		Name:   "first",
		Param0: pairTag,
		Get: func(receiver *box.Value) (*box.Value, error) {
			p, ok := asPair(receiver)
			if !ok {
				return nil, fmt.Errorf("first: receiver is not a Pair")
			}
			return p.First, nil
		},
		Set: func(receiver *box.Value, val *box.Value) error {
			p, ok := asPair(receiver)
			if !ok {
				return fmt.Errorf("first: receiver is not a Pair")
			}
			p.First = val.Clone()
			return receiver.Assign(box.FromValue(p))
		},
	}
	second := &dispatch.AttributeAccessFunction{
		Name:   "second",
		Param0: pairTag,
		Get: func(receiver *box.Value) (*box.Value, error) {
			p, ok := asPair(receiver)
			if !ok {
				return nil, fmt.Errorf("second: receiver is not a Pair")
			}
			return p.Second, nil
		},
		Set: func(receiver *box.Value, val *box.Value) error {
			p, ok := asPair(receiver)
			if !ok {
				return fmt.Errorf("second: receiver is not a Pair")
			}
			p.Second = val.Clone()
			return receiver.Assign(box.FromValue(p))
		},
	}
	if err := e.AddFunction("first", first); err != nil {
		return err
	}
	return e.AddFunction("second", second)
}
