package evaluator

import (
	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/diagnostics"
)

// numericFastPath implements spec §4.7's numeric fast-path: binary operators
// on two arithmetic BoxedValues bypass function dispatch entirely and apply
// the usual C-style promotions (mixed int/float promotes to float).
func numericFastPath(op string, left, right *box.Value, n ast.Node) (*box.Value, bool, error) {
	if !left.GetType().IsArithmetic() || !right.GetType().IsArithmetic() {
		return nil, false, nil
	}
	return arithOp(op, left, right, n)
}

// compoundArithmetic backs a compound-assignment Equation (`+=`, `&=`, ...)
// whose operands are both arithmetic, short-circuiting to the same matrix
// numericFastPath uses rather than dispatching the stripped operator's
// function (spec §4.7 Assignment: "compound operators with arithmetic
// operands short-circuit to numeric arithmetic").
func compoundArithmetic(op string, lhs, rhs *box.Value) (*box.Value, bool) {
	if !lhs.GetType().IsArithmetic() || !rhs.GetType().IsArithmetic() {
		return nil, false
	}
	v, ok, err := arithOp(compoundOpFunction(op), lhs, rhs, nil)
	if err != nil || !ok {
		return nil, false
	}
	return v, true
}

// numericOf extracts both an int64 and float64 projection of v's payload,
// plus whether the source was itself a floating type (so the caller knows
// which projection to trust for the result).
func numericOf(v *box.Value) (asFloat float64, asInt int64, isFloat bool) {
	switch n := v.Interface().(type) {
	case int:
		return float64(n), int64(n), false
	case int8:
		return float64(n), int64(n), false
	case int16:
		return float64(n), int64(n), false
	case int32:
		return float64(n), int64(n), false
	case int64:
		return float64(n), n, false
	case uint:
		return float64(n), int64(n), false
	case uint8:
		return float64(n), int64(n), false
	case uint16:
		return float64(n), int64(n), false
	case uint32:
		return float64(n), int64(n), false
	case uint64:
		return float64(n), int64(n), false
	case float32:
		return float64(n), int64(n), true
	case float64:
		return n, int64(n), true
	default:
		return 0, 0, false
	}
}

// arithOp is the numeric operator matrix: +, -, *, /, % (arithmetic, integer
// division/modulo raising ArithmeticError on a zero divisor); &, |, ^, <<, >>
// (integer-only bitwise); and the six comparisons, all promoting to float64
// when either operand is floating-point.
func arithOp(op string, left, right *box.Value, n ast.Node) (*box.Value, bool, error) {
	lf, li, lFloat := numericOf(left)
	rf, ri, rFloat := numericOf(right)
	useFloat := lFloat || rFloat

	switch op {
	case "+", "-", "*", "/", "%":
		if useFloat {
			var result float64
			switch op {
			case "+":
				result = lf + rf
			case "-":
				result = lf - rf
			case "*":
				result = lf * rf
			case "/":
				result = lf / rf
			case "%":
				return nil, true, diagnostics.ArithmeticError(posOf(n), "'%' requires integer operands")
			}
			return box.FromValue(result).AsReturnValue(), true, nil
		}
		var result int64
		switch op {
		case "+":
			result = li + ri
		case "-":
			result = li - ri
		case "*":
			result = li * ri
		case "/":
			if ri == 0 {
				return nil, true, diagnostics.ArithmeticError(posOf(n), "division by zero")
			}
			result = li / ri
		case "%":
			if ri == 0 {
				return nil, true, diagnostics.ArithmeticError(posOf(n), "division by zero")
			}
			result = li % ri
		}
		return box.FromValue(result).AsReturnValue(), true, nil

	case "&", "|", "^", "<<", ">>":
		if useFloat {
			return nil, true, diagnostics.ArithmeticError(posOf(n), "bitwise operator requires integer operands")
		}
		var result int64
		switch op {
		case "&":
			result = li & ri
		case "|":
			result = li | ri
		case "^":
			result = li ^ ri
		case "<<":
			result = li << uint64(ri)
		case ">>":
			result = li >> uint64(ri)
		}
		return box.FromValue(result).AsReturnValue(), true, nil

	case "<", "<=", ">", ">=", "==", "!=":
		var result bool
		if useFloat {
			switch op {
			case "<":
				result = lf < rf
			case "<=":
				result = lf <= rf
			case ">":
				result = lf > rf
			case ">=":
				result = lf >= rf
			case "==":
				result = lf == rf
			case "!=":
				result = lf != rf
			}
		} else {
			switch op {
			case "<":
				result = li < ri
			case "<=":
				result = li <= ri
			case ">":
				result = li > ri
			case ">=":
				result = li >= ri
			case "==":
				result = li == ri
			case "!=":
				result = li != ri
			}
		}
		return box.FromValue(result).AsReturnValue(), true, nil
	}
	return nil, false, nil
}

// numericPrefixFastPath implements the prefix half of the numeric fast-path:
// unary minus and bitwise-not on arithmetic operands, and logical not on bool.
func numericPrefixFastPath(op string, right *box.Value, n ast.Node) (*box.Value, bool, error) {
	switch op {
	case "-":
		if !right.GetType().IsArithmetic() {
			return nil, false, nil
		}
		rf, ri, isFloat := numericOf(right)
		if isFloat {
			return box.FromValue(-rf).AsReturnValue(), true, nil
		}
		return box.FromValue(-ri).AsReturnValue(), true, nil
	case "~":
		if !right.GetType().IsArithmetic() {
			return nil, false, nil
		}
		_, ri, isFloat := numericOf(right)
		if isFloat {
			return nil, true, diagnostics.ArithmeticError(posOf(n), "'~' requires an integer operand")
		}
		return box.FromValue(^ri).AsReturnValue(), true, nil
	case "!":
		b, ok := right.Interface().(bool)
		if !ok {
			return nil, false, nil
		}
		return box.FromValue(!b).AsReturnValue(), true, nil
	}
	return nil, false, nil
}
