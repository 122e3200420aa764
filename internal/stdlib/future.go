package stdlib

import (
	"fmt"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/dispatch"
	"github.com/quill-lang/quill/internal/types"
	"golang.org/x/sync/errgroup"
)

// Future wraps the result of a function dispatched onto a goroutine via
// async(fn, ...args); internal/modules already pulls in errgroup for
// concurrent module preloading, so the future result is collected the same
// way rather than hand-rolling a second channel-and-waitgroup scheme.
type Future struct {
	group  *errgroup.Group
	done   chan struct{}
	result *box.Value
}

var futureTag = types.Of(&Future{})

func asFuture(v *box.Value) (*Future, bool) {
	f, ok := v.Interface().(*Future)
	return f, ok
}

// registerFuture installs async(fn, ...args), future.get() (blocks until
// the goroutine finishes, then returns or re-raises its result), and
// future.ready() (non-blocking completion check: a select on the future's
// done channel, which the goroutine closes when it returns).
func registerFuture(e *dispatch.Engine) error {
	if err := e.AddType(config.FutureTypeName, futureTag); err != nil {
		return err
	}

	async := &dispatch.Builtin{
		Name:    "async",
		NumArgs: -1,
		Fn: func(args []*box.Value) (*box.Value, error) {
			if len(args) == 0 {
				return nil, fmt.Errorf("async: expected a function argument")
			}
			fn, ok := args[0].Interface().(dispatch.Function)
			if !ok {
				return nil, fmt.Errorf("async: first argument is not callable")
			}
			callArgs := append([]*box.Value{}, args[1:]...)

			fut := &Future{group: &errgroup.Group{}, done: make(chan struct{})}
			fut.group.Go(func() error {
				defer close(fut.done)
				res, err := fn.Call(callArgs, e.Conversions.NewView())
				if err != nil {
					return err
				}
				fut.result = res
				return nil
			})
			return box.FromValue(fut).AsReturnValue(), nil
		},
	}

	get := &dispatch.Builtin{
		Name: "get", NumArgs: 1, ParamTags: []types.Tag{futureTag},
		Fn: func(args []*box.Value) (*box.Value, error) {
			fut, ok := asFuture(args[0])
			if !ok {
				return nil, fmt.Errorf("get: receiver is not a Future")
			}
			if err := fut.group.Wait(); err != nil {
				return nil, err
			}
			return fut.result, nil
		},
	}

	ready := &dispatch.Builtin{
		Name: "ready", NumArgs: 1, ParamTags: []types.Tag{futureTag},
		Fn: func(args []*box.Value) (*box.Value, error) {
			fut, ok := asFuture(args[0])
			if !ok {
				return nil, fmt.Errorf("ready: receiver is not a Future")
			}
			select {
			case <-fut.done:
				return box.FromValue(true).AsReturnValue(), nil
			default:
				return box.FromValue(false).AsReturnValue(), nil
			}
		},
	}

	return addAll(e, async, get, ready)
}
