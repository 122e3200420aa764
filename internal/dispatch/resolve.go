package dispatch

import (
	"fmt"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/convert"
	"github.com/quill-lang/quill/internal/diagnostics"
)

// scoredCandidate pairs a candidate with its arity score (spec §4.4 step 1).
type scoredCandidate struct {
	fn    Function
	score int
}

func arityCompatible(fn Function, nargs int) bool {
	a := fn.Arity()
	if a < 0 {
		return true // variadic
	}
	return a == nargs
}

func arityScore(fn Function, args []*box.Value) int {
	if fn.Arity() < 0 {
		return len(args)
	}
	params := fn.ParamTypes()
	score := 0
	for i, arg := range args {
		if i+1 >= len(params) {
			score++
			continue
		}
		if !params[i+1].BareEqual(arg.GetType()) {
			score++
		}
	}
	return score
}

// Resolve implements overload resolution (spec §4.4): partition by arity,
// try candidates in increasing score order (registration order within a
// score), then a widening pass for arithmetic-only mismatches, else raise a
// DispatchError.
func Resolve(name string, candidates []Function, args []*box.Value, conv *convert.Registry) (*box.Value, error) {
	conv.PushSaves()
	defer conv.PopSaves()

	var scored []scoredCandidate
	for _, c := range candidates {
		if !arityCompatible(c, len(args)) {
			continue
		}
		scored = append(scored, scoredCandidate{fn: c, score: arityScore(c, args)})
	}

	maxScore := len(args)
	for s := 0; s <= maxScore; s++ {
		for _, sc := range scored {
			if sc.score != s {
				continue
			}
			if !sc.fn.CallMatch(args, conv) {
				continue
			}
			result, err := sc.fn.Call(args, conv)
			if err == nil {
				return result, nil
			}
			// BadCast/ArityError/GuardError are caught here and the
			// candidate is rejected rather than propagated (spec §7).
		}
	}

	if widened, ok := tryArithmeticWidening(scored, args); ok {
		return widened.fn.Call(widenArgs(widened.fn, args), conv)
	}

	return nil, dispatchError(name, args, candidates)
}

// tryArithmeticWidening implements spec §4.4 step 3: candidates whose
// parameter types differ from the arguments only in that both sides are
// arithmetic. The const/non-const "this" tie-break is the only ambiguity
// resolution; any other ambiguity is a DispatchError (surfaced by the
// caller falling through to dispatchError when ok is false here and no
// other candidate matched).
func tryArithmeticWidening(scored []scoredCandidate, args []*box.Value) (scoredCandidate, bool) {
	var matches []scoredCandidate
	for _, sc := range scored {
		params := sc.fn.ParamTypes()
		if len(params)-1 != len(args) {
			continue
		}
		ok := true
		for i, arg := range args {
			pt := params[i+1]
			if pt.BareEqual(arg.GetType()) {
				continue
			}
			if pt.IsArithmetic() && arg.GetType().IsArithmetic() {
				continue
			}
			ok = false
			break
		}
		if ok {
			matches = append(matches, sc)
		}
	}
	if len(matches) == 0 {
		return scoredCandidate{}, false
	}
	if len(matches) == 1 {
		return matches[0], true
	}
	// Tie-break: prefer the candidate whose receiver const-ness matches the
	// first argument's, provided exactly one candidate does.
	if len(args) > 0 {
		var picked []scoredCandidate
		for _, m := range matches {
			params := m.fn.ParamTypes()
			if len(params) > 1 && params[1].IsConst() == args[0].IsConst() {
				picked = append(picked, m)
			}
		}
		if len(picked) == 1 {
			return picked[0], true
		}
	}
	return scoredCandidate{}, false
}

func widenArgs(fn Function, args []*box.Value) []*box.Value {
	// Arithmetic widening only changes the numeric runtime value, not the
	// BoxedValue identity used for dispatch bookkeeping here; the callee's
	// own numeric-fast-path conversion (spec §4.7) performs the actual
	// promotion on call. Dispatch simply forwards the original arguments.
	return args
}

func dispatchError(name string, args []*box.Value, candidates []Function) error {
	argTypes := make([]string, len(args))
	for i, a := range args {
		argTypes[i] = a.GetType().Name()
	}
	candStrs := make([]string, len(candidates))
	for i, c := range candidates {
		candStrs[i] = fmt.Sprintf("%s/%d", name, c.Arity())
	}
	return diagnostics.NewDispatchError(diagnostics.Position{}, name, argTypes, candStrs)
}
