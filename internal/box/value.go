// Package box implements BoxedValue (spec §3, §4.2): a type-erased
// container for any host or script value. Go's garbage collector already
// supplies the memory-safety the original design used ownership handles
// for, so Storage here records provenance (for clone/assign semantics and
// diagnostics) rather than driving manual reference counting.
package box

import (
	"fmt"
	"reflect"

	"github.com/quill-lang/quill/internal/types"
)

// Storage classifies how a Value's payload is held, per spec §3.
type Storage int

const (
	StorageEmpty Storage = iota
	StorageShared
	StorageRef
	StorageConstRef
)

// Value is a BoxedValue: any value of unknown static type passing between
// host and script.
type Value struct {
	tag     types.Tag
	storage Storage
	ptr     interface{} // always a Go pointer to the payload, or nil for StorageEmpty

	isReturnValue bool
	isConst       bool
	isReference   bool

	attrs map[string]*Value
}

// Empty is the zero Value: no payload, undefined type. Callers that only
// ever read it (a default statement result, a sentinel "nothing produced"
// return) may share this instance; anything that might later become the
// target of Assign (a declared variable slot, an attribute default) must
// call NewEmpty instead so each slot owns its own storage.
var Empty = &Value{storage: StorageEmpty}

// NewEmpty returns a fresh, independently-owned empty Value: unlike the
// shared Empty sentinel, it is safe to Assign into.
func NewEmpty() *Value {
	return &Value{storage: StorageEmpty}
}

// FromValue takes ownership of a freshly-boxed copy of v (spec §4.2
// from_value). is_const=false, is_reference=false.
func FromValue(v interface{}) *Value {
	p := newPtr(v)
	return &Value{tag: types.Of(v), storage: StorageShared, ptr: p}
}

// FromValueWithTag behaves like FromValue but overrides the derived tag,
// for callers that mint an identity independent of the payload's own Go
// type — classobj uses this to give each script class a distinct nominal
// Tag even though every instance's payload is the same underlying shape.
func FromValueWithTag(v interface{}, tag types.Tag) *Value {
	val := FromValue(v)
	val.tag = tag
	return val
}

// FromConstValue owns a const copy of v.
func FromConstValue(v interface{}) *Value {
	val := FromValue(v)
	val.isConst = true
	return val
}

// FromShared shares ownership of an existing pointer handle.
func FromShared(ptr interface{}) *Value {
	elemType := reflect.TypeOf(ptr).Elem()
	return &Value{tag: types.OfType(elemType), storage: StorageShared, ptr: ptr}
}

// FromSharedConst shares ownership of an existing pointer handle, const-qualified.
func FromSharedConst(ptr interface{}) *Value {
	v := FromShared(ptr)
	v.isConst = true
	return v
}

// FromRef wraps a non-owning mutable reference. The caller is responsible
// for ensuring ptr outlives every copy of the returned Value (spec §3
// invariant, enforced here only by API contract as the spec allows).
func FromRef(ptr interface{}) *Value {
	elemType := reflect.TypeOf(ptr).Elem()
	return &Value{tag: types.OfType(elemType), storage: StorageRef, ptr: ptr, isReference: true}
}

// FromConstRef wraps a non-owning const reference.
func FromConstRef(ptr interface{}) *Value {
	v := FromRef(ptr)
	v.isConst = true
	return v
}

func newPtr(v interface{}) interface{} {
	rv := reflect.ValueOf(v)
	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	return p.Interface()
}

// AsReturnValue marks v as the result of a function call, which governs
// whether assignment clones it (spec §4.7 Assignment).
func (v *Value) AsReturnValue() *Value {
	v.isReturnValue = true
	return v
}

func (v *Value) IsReturnValue() bool { return v.isReturnValue }
func (v *Value) IsConst() bool       { return v.isConst }
func (v *Value) IsReference() bool   { return v.isReference }
func (v *Value) IsEmpty() bool       { return v.storage == StorageEmpty }
func (v *Value) GetType() types.Tag  { return v.tag }

// GetPtrMut returns the mutable pointer, or (nil,false) if v is const or empty.
func (v *Value) GetPtrMut() (interface{}, bool) {
	if v.isConst || v.storage == StorageEmpty {
		return nil, false
	}
	return v.ptr, true
}

// GetPtrConst returns the const-view pointer, valid for any non-empty Value.
func (v *Value) GetPtrConst() interface{} {
	return v.ptr
}

// Interface returns the dereferenced payload as interface{}.
func (v *Value) Interface() interface{} {
	if v.ptr == nil {
		return nil
	}
	return reflect.ValueOf(v.ptr).Elem().Interface()
}

// Assign performs a shallow assignment into v's storage, preserving v's
// storage kind (spec §4.2 assign): RHS's payload is copied into v's slot.
func (v *Value) Assign(other *Value) error {
	if v.isConst {
		return fmt.Errorf("cannot assign to const value")
	}
	if v.ptr == nil {
		v.tag = other.tag
		v.ptr = newPtr(other.Interface())
		v.storage = StorageShared
		return nil
	}
	dst := reflect.ValueOf(v.ptr).Elem()
	srcVal := reflect.ValueOf(other.Interface())
	if !srcVal.Type().AssignableTo(dst.Type()) {
		if srcVal.Type().ConvertibleTo(dst.Type()) {
			srcVal = srcVal.Convert(dst.Type())
		} else {
			return fmt.Errorf("cannot assign %s to %s", other.tag.Name(), v.tag.Name())
		}
	}
	dst.Set(srcVal)
	return nil
}

// Clone produces an independently-owned copy of v's payload.
func (v *Value) Clone() *Value {
	if v.storage == StorageEmpty {
		return NewEmpty()
	}
	c := FromValue(v.Interface())
	c.tag = v.tag // preserve an overridden tag (e.g. classobj's Named identity)
	c.isConst = v.isConst
	if v.attrs != nil {
		c.attrs = make(map[string]*Value, len(v.attrs))
		for k, a := range v.attrs {
			c.attrs[k] = a.Clone()
		}
	}
	return c
}

// GetAttr lazily creates and returns the named attribute slot (spec §4.2),
// used by dynamic-object (class) instances.
func (v *Value) GetAttr(name string) *Value {
	if v.attrs == nil {
		v.attrs = make(map[string]*Value)
	}
	if a, ok := v.attrs[name]; ok {
		return a
	}
	a := NewEmpty()
	v.attrs[name] = a
	return a
}

// SetAttr overwrites an attribute slot outright (used by the evaluator when
// assigning this.field = value rather than mutating in place).
func (v *Value) SetAttr(name string, val *Value) {
	if v.attrs == nil {
		v.attrs = make(map[string]*Value)
	}
	v.attrs[name] = val
}

// Attrs exposes the attribute map directly (read-only use expected).
func (v *Value) Attrs() map[string]*Value { return v.attrs }

// CopyAttrs copies every attribute from other into v.
func (v *Value) CopyAttrs(other *Value) {
	for k, a := range other.Attrs() {
		v.SetAttr(k, a)
	}
}

// TypeMatch reports whether a and b carry the same TypeTag (bare compare).
func TypeMatch(a, b *Value) bool {
	return a.GetType().BareEqual(b.GetType())
}
