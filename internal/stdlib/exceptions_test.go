package stdlib

import (
	"testing"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/dispatch"
	"github.com/quill-lang/quill/internal/evaluator"
)

func newExceptionEngine(t *testing.T) *dispatch.Engine {
	t.Helper()
	e := dispatch.NewEngine()
	if err := registerExceptions(e); err != nil {
		t.Fatalf("registerExceptions: %v", err)
	}
	return e
}

func TestRuntimeErrorWhatReturnsMessage(t *testing.T) {
	e := newExceptionEngine(t)
	ctor := builtinFor(t, e, "runtime_error")

	exc, err := ctor.Fn([]*box.Value{box.FromValue("boom")})
	if err != nil {
		t.Fatalf("runtime_error: %v", err)
	}

	whatAttr := exc.GetAttr("what")
	what, ok := whatAttr.Interface().(dispatch.Function)
	if !ok {
		t.Fatalf("expected a callable what attribute, got %#v", whatAttr.Interface())
	}
	v, err := what.Call(nil, nil)
	if err != nil {
		t.Fatalf("what(): %v", err)
	}
	if v.Interface().(string) != "boom" {
		t.Errorf("what() = %q, want \"boom\"", v.Interface())
	}
}

func TestThrowReturnsThrownValue(t *testing.T) {
	e := newExceptionEngine(t)
	throw := builtinFor(t, e, "throw")

	payload := box.FromValue("stop")
	_, err := throw.Fn([]*box.Value{payload})
	if err == nil {
		t.Fatalf("expected throw to return a non-nil error")
	}
	tv, ok := err.(*evaluator.ThrownValue)
	if !ok {
		t.Fatalf("expected *evaluator.ThrownValue, got %T", err)
	}
	if tv.Value.Interface().(string) != "stop" {
		t.Errorf("thrown value = %v, want \"stop\"", tv.Value.Interface())
	}
}
