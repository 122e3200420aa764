// Package classobj formalizes the dynamic-object instance a Class
// constructor produces (spec §4.7): an attribute-map BoxedValue tagged
// with its class name, plus an identity independent of the struct's
// contents so two instances with identical attributes still compare and
// inspect as distinct objects.
package classobj

import (
	"github.com/google/uuid"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/dispatch"
	"github.com/quill-lang/quill/internal/types"
)

// TypeTag returns the engine-wide nominal Tag for className, minting and
// registering one via AddType the first time className is seen and reusing
// it on every later lookup (spec §4.7: two instances of the same class must
// report the same get_type_name and dispatch identically). Unlike a
// reflect-backed Tag, this identity doesn't depend on the instance's
// underlying Go storage, so two different classes never collide even though
// every instance boxes the same payload shape.
func TypeTag(engine *dispatch.Engine, className string) types.Tag {
	if tag, ok := engine.LookupType(className); ok {
		return tag
	}
	tag := types.Named(className)
	// Best-effort: a concurrent definition of the same class on another
	// call chain may have won the race; either way the name now resolves.
	_ = engine.AddType(className, tag)
	if existing, ok := engine.LookupType(className); ok {
		return existing
	}
	return tag
}

// New allocates a fresh instance of className: an attribute-map BoxedValue
// tagged with className's nominal Tag (see TypeTag) and carrying
// get_type_name's answer plus a hidden identity attribute, ready to be
// bound as `this` in a constructor call.
func New(engine *dispatch.Engine, className string) *box.Value {
	instance := box.FromValueWithTag(className, TypeTag(engine, className)).AsReturnValue()
	instance.SetAttr(config.GetTypeNameFuncName, box.FromValue(className))
	instance.SetAttr(config.InstanceIDAttrName, box.FromValue(uuid.NewString()))
	return instance
}

// IsInstance reports whether v was allocated by New, as opposed to a plain
// BoxedValue wrapping a host value.
func IsInstance(v *box.Value) bool {
	if v == nil {
		return false
	}
	id := v.GetAttr(config.InstanceIDAttrName)
	return id != nil && !id.IsEmpty()
}

// TypeName returns the class name recorded on v by New, or "" if v is not a
// classobj instance.
func TypeName(v *box.Value) string {
	if !IsInstance(v) {
		return ""
	}
	name := v.GetAttr(config.GetTypeNameFuncName)
	if name == nil {
		return ""
	}
	s, _ := name.Interface().(string)
	return s
}

// ID returns the identity uuid New assigned to v, or "" if v is not a
// classobj instance.
func ID(v *box.Value) string {
	if !IsInstance(v) {
		return ""
	}
	id := v.GetAttr(config.InstanceIDAttrName)
	if id == nil {
		return ""
	}
	s, _ := id.Interface().(string)
	return s
}

// Attrs returns v's user-visible attributes for get_attrs: every attribute
// except the hidden identity and type-name bookkeeping slots.
func Attrs(v *box.Value) map[string]*box.Value {
	out := make(map[string]*box.Value)
	for k, a := range v.Attrs() {
		if k == config.InstanceIDAttrName || k == config.GetTypeNameFuncName {
			continue
		}
		out[k] = a
	}
	return out
}

// Inspect renders v the way a REPL `inspect` command or debug print would:
// the class name and a short identity suffix, distinguishing instances with
// otherwise-identical attributes.
func Inspect(v *box.Value) string {
	name := TypeName(v)
	if name == "" {
		return "<object>"
	}
	id := ID(v)
	if len(id) >= 8 {
		id = id[:8]
	}
	return "<" + name + " " + id + ">"
}
