// Package types implements TypeTag (spec §3, §4.1): runtime type identity
// with const/reference/pointer/arithmetic qualifiers, built on top of
// reflect.Type since Go has no compile-time template mechanism to erase.
package types

import "reflect"

// Tag is the runtime identity of a host or script type, with the qualifier
// flags spec §3 requires. Two tags are Equal iff both the bare id and every
// qualifier match; BareEqual ignores qualifiers.
//
// name carries a nominal identity for types that have no reflect.Type of
// their own: a script `class` declared at runtime has nothing for Go's
// static type system to key off, so Named mints a Tag identified by class
// name instead of by id (spec §4.7 — distinguishes Dog from Cat even though
// both box their instances the same underlying Go shape).
type Tag struct {
	id          reflect.Type // nil for Undef and for Named tags
	name        string       // set only for Named tags
	isConst     bool
	isReference bool
	isPointer   bool
}

// Undef is the zero Tag: its underlying id is undefined and it equals no
// concrete type (spec §3 invariant).
var Undef = Tag{}

// boolType is special-cased out of IsArithmetic (spec §4.1: "Arithmetic flag
// excludes bool").
var boolType = reflect.TypeOf(false)

// Of derives a Tag from a representative Go value. Passing a pointer marks
// the tag IsPointer; passing nil with a reflect.Type to OfType is the usual
// way to build tags for abstract (non-instantiable) types such as BoxedValue
// itself.
func Of(v interface{}) Tag {
	if v == nil {
		return Undef
	}
	t := reflect.TypeOf(v)
	return OfType(t)
}

// OfType builds a Tag directly from a reflect.Type, stripping pointer
// indirection into the IsPointer qualifier.
func OfType(t reflect.Type) Tag {
	if t == nil {
		return Undef
	}
	tag := Tag{id: t}
	if t.Kind() == reflect.Ptr {
		tag.isPointer = true
		tag.id = t.Elem()
	}
	return tag
}

// Named mints a nominal Tag for a dynamically-defined script class: two
// Named tags are BareEqual iff their names match, regardless of the Go type
// actually backing each instance's storage.
func Named(name string) Tag {
	return Tag{name: name}
}

// WithConst returns a copy of t qualified const.
func (t Tag) WithConst() Tag { t.isConst = true; return t }

// WithReference returns a copy of t qualified as a reference.
func (t Tag) WithReference() Tag { t.isReference = true; return t }

// WithPointer returns a copy of t qualified as a pointer.
func (t Tag) WithPointer() Tag { t.isPointer = true; return t }

// Bare strips every qualifier, returning the unqualified identity.
func (t Tag) Bare() Tag { return Tag{id: t.id, name: t.name} }

// GoType exposes the underlying reflect.Type (nil for Undef).
func (t Tag) GoType() reflect.Type { return t.id }

// Name is a human-readable type name for diagnostics.
func (t Tag) Name() string {
	if t.name == "" && t.id == nil {
		return "<undef>"
	}
	name := t.name
	if name == "" {
		name = t.id.Name()
		if name == "" {
			name = t.id.String()
		}
	}
	if t.isPointer {
		name = "*" + name
	}
	if t.isReference {
		name = name + "&"
	}
	if t.isConst {
		name = "const " + name
	}
	return name
}

// Equal compares both the bare id and every qualifier.
func (t Tag) Equal(o Tag) bool {
	return t.BareEqual(o) && t.isConst == o.isConst && t.isReference == o.isReference && t.isPointer == o.isPointer
}

// BareEqual compares unqualified identity only — this is what overload
// resolution uses to treat T, T&, const T&, and a shared handle of T as the
// same underlying type for matching purposes (spec §4.1 rationale). A Named
// tag compares only against another Named tag of the same name; it never
// collides with a reflect-typed id even if the two happen to share storage.
func (t Tag) BareEqual(o Tag) bool {
	if t.name != "" || o.name != "" {
		return t.name != "" && t.name == o.name
	}
	if t.id == nil || o.id == nil {
		return false
	}
	return t.id == o.id
}

func (t Tag) IsUndef() bool       { return t.id == nil && t.name == "" }
func (t Tag) IsConst() bool       { return t.isConst }
func (t Tag) IsReference() bool   { return t.isReference }
func (t Tag) IsPointer() bool     { return t.isPointer }
func (t Tag) IsVoid() bool        { return t.id != nil && t.id.Kind() == reflect.Invalid }

// IsArithmetic reports whether the bare type is a Go numeric kind, excluding
// bool (spec §4.1).
func (t Tag) IsArithmetic() bool {
	if t.id == nil || t.id == boolType {
		return false
	}
	switch t.id.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
