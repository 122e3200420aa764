package classobj

import (
	"testing"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/dispatch"
)

func TestNewAssignsDistinctIdentity(t *testing.T) {
	e := dispatch.NewEngine()
	a := New(e, "Point")
	b := New(e, "Point")
	if !IsInstance(a) || !IsInstance(b) {
		t.Fatalf("expected both instances to report IsInstance")
	}
	if TypeName(a) != "Point" || TypeName(b) != "Point" {
		t.Fatalf("expected both instances typed Point, got %q and %q", TypeName(a), TypeName(b))
	}
	if ID(a) == "" || ID(b) == "" {
		t.Fatalf("expected non-empty identities")
	}
	if ID(a) == ID(b) {
		t.Errorf("expected distinct identities for separate New calls, got the same uuid %q", ID(a))
	}
}

// TestNewGivesEachClassItsOwnTag is the classobj-level regression for review
// item (a): two different class names must resolve to distinct, stable
// nominal Tags, so the evaluator can tag each class's methods with a
// dispatch-discriminating receiver type instead of types.Undef.
func TestNewGivesEachClassItsOwnTag(t *testing.T) {
	e := dispatch.NewEngine()
	dog := New(e, "Dog")
	cat := New(e, "Cat")
	dog2 := New(e, "Dog")

	if dog.GetType().BareEqual(cat.GetType()) {
		t.Errorf("Dog and Cat instances must not share a bare Tag")
	}
	if !dog.GetType().BareEqual(dog2.GetType()) {
		t.Errorf("two Dog instances must share the same bare Tag")
	}
}

func TestTypeTagIsIdempotentAcrossCalls(t *testing.T) {
	e := dispatch.NewEngine()
	first := TypeTag(e, "Widget")
	second := TypeTag(e, "Widget")
	if !first.BareEqual(second) {
		t.Errorf("TypeTag should return the same Tag for repeated lookups of the same class name")
	}
}

func TestIsInstanceFalseForPlainValue(t *testing.T) {
	if IsInstance(nil) {
		t.Errorf("nil should not report IsInstance")
	}
	if IsInstance(box.FromValue(int64(42))) {
		t.Errorf("a plain int value should not report IsInstance")
	}
}

func TestAttrsHidesBookkeepingSlots(t *testing.T) {
	e := dispatch.NewEngine()
	v := New(e, "Counter")
	v.SetAttr("count", nil)
	attrs := Attrs(v)
	if _, ok := attrs["count"]; !ok {
		t.Errorf("expected user attribute count to survive filtering")
	}
	if _, ok := attrs["__instance_id__"]; ok {
		t.Errorf("expected instance id attribute to be hidden")
	}
	if _, ok := attrs["get_type_name"]; ok {
		t.Errorf("expected get_type_name bookkeeping attribute to be hidden")
	}
}

func TestInspectFormatsClassAndShortID(t *testing.T) {
	e := dispatch.NewEngine()
	v := New(e, "Widget")
	s := Inspect(v)
	if len(s) < len("<Widget ") || s[:len("<Widget")] != "<Widget" {
		t.Errorf("expected Inspect to start with <Widget, got %q", s)
	}
}
