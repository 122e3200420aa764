package convert

import (
	"fmt"
	"reflect"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/types"
)

// Cast implements the casting contract of spec §4.2. Target is described by
// a types.Tag (an Undef tag accepts the BoxedValue itself); the result, on
// success, is the Go value ready to be used as a call argument.
func Cast(bv *box.Value, target types.Tag, registry *Registry) (interface{}, error) {
	// 1. BoxedValue target: return as-is.
	if target.IsUndef() {
		return bv, nil
	}

	// 2. Bare type match: trivial projection, respecting const.
	if bv.GetType().BareEqual(target) {
		if target.IsConst() || !bv.IsConst() {
			return projected(bv, target)
		}
		return nil, fmt.Errorf("cannot remove const from %s", bv.GetType().Name())
	}

	// 5. Polymorphic conversion path, if registered.
	if registry != nil {
		if converted, err := registry.ConvertTo(target, bv); err == nil {
			registry.Save(converted)
			return Cast(converted, target, registry)
		}
	}

	// 6. Bad cast.
	return nil, fmt.Errorf("bad cast: cannot convert %s to %s", bv.GetType().Name(), target.Name())
}

func projected(bv *box.Value, target types.Tag) (interface{}, error) {
	v := bv.Interface()
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if target.GoType() != nil && rv.Type() != target.GoType() && rv.Type().ConvertibleTo(target.GoType()) {
		rv = rv.Convert(target.GoType())
	}
	return rv.Interface(), nil
}

// CastTyped is the Go-generics convenience wrapper used by native-typed
// ProxyFunctions: it resolves Target from T's zero value automatically.
func CastTyped[T any](bv *box.Value, registry *Registry) (T, error) {
	var zero T
	target := types.Of(zero)
	v, err := Cast(bv, target, registry)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("bad cast: %T is not %T", v, zero)
	}
	return typed, nil
}
