package stdlib

import (
	"fmt"
	"testing"
	"time"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/convert"
	"github.com/quill-lang/quill/internal/dispatch"
	"github.com/quill-lang/quill/internal/types"
)

// testFunction adapts a plain Go func into dispatch.Function for async() to call.
type testFunction struct {
	fn func(args []*box.Value) (*box.Value, error)
}

func (f *testFunction) Arity() int                  { return -1 }
func (f *testFunction) ParamTypes() []types.Tag      { return []types.Tag{types.Undef} }
func (f *testFunction) IsArithmeticParam(i int) bool { return false }
func (f *testFunction) CallMatch(args []*box.Value, conv *convert.Registry) bool {
	return true
}
func (f *testFunction) Call(args []*box.Value, conv *convert.Registry) (*box.Value, error) {
	return f.fn(args)
}

func newFutureEngine(t *testing.T) *dispatch.Engine {
	t.Helper()
	e := dispatch.NewEngine()
	if err := registerFuture(e); err != nil {
		t.Fatalf("registerFuture: %v", err)
	}
	return e
}

func TestAsyncGetReturnsResult(t *testing.T) {
	e := newFutureEngine(t)
	async := builtinFor(t, e, "async")
	get := builtinFor(t, e, "get")

	fn := &testFunction{fn: func(args []*box.Value) (*box.Value, error) {
		return box.FromValue(int64(7)).AsReturnValue(), nil
	}}

	fut, err := async.Fn([]*box.Value{box.FromValue(dispatch.Function(fn))})
	if err != nil {
		t.Fatalf("async: %v", err)
	}

	v, err := get.Fn([]*box.Value{fut})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.Interface().(int64) != 7 {
		t.Errorf("get result = %v, want 7", v.Interface())
	}
}

func TestAsyncGetPropagatesError(t *testing.T) {
	e := newFutureEngine(t)
	async := builtinFor(t, e, "async")
	get := builtinFor(t, e, "get")

	fn := &testFunction{fn: func(args []*box.Value) (*box.Value, error) {
		return nil, fmt.Errorf("boom")
	}}

	fut, err := async.Fn([]*box.Value{box.FromValue(dispatch.Function(fn))})
	if err != nil {
		t.Fatalf("async: %v", err)
	}

	if _, err := get.Fn([]*box.Value{fut}); err == nil {
		t.Errorf("expected get to propagate the goroutine's error")
	}
}

func TestFutureReadyBecomesTrueAfterCompletion(t *testing.T) {
	e := newFutureEngine(t)
	async := builtinFor(t, e, "async")
	ready := builtinFor(t, e, "ready")
	get := builtinFor(t, e, "get")

	fn := &testFunction{fn: func(args []*box.Value) (*box.Value, error) {
		return box.NewEmpty(), nil
	}}

	fut, err := async.Fn([]*box.Value{box.FromValue(dispatch.Function(fn))})
	if err != nil {
		t.Fatalf("async: %v", err)
	}
	if _, err := get.Fn([]*box.Value{fut}); err != nil {
		t.Fatalf("get: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		v, err := ready.Fn([]*box.Value{fut})
		if err != nil {
			t.Fatalf("ready: %v", err)
		}
		if v.Interface().(bool) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("ready never became true after get completed")
		}
	}
}
