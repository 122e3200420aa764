package optimizer

import (
	"strconv"

	"github.com/quill-lang/quill/internal/ast"
)

// constScalar extracts n's literal payload if n is a fully-resolved Constant,
// mirroring the evaluator's own Constant handling so folded results evaluate
// identically to their unfolded form.
func constScalar(n ast.Node) (interface{}, bool) {
	c, ok := n.(*ast.Constant)
	if !ok {
		return nil, false
	}
	switch c.ValueKind {
	case "int":
		v, err := strconv.ParseInt(c.Text, 10, 64)
		if err != nil {
			return nil, false
		}
		return v, true
	case "float":
		v, err := strconv.ParseFloat(c.Text, 64)
		if err != nil {
			return nil, false
		}
		return v, true
	case "string":
		return c.Text, true
	case "bool":
		return c.Text == "true", true
	}
	return nil, false
}

// newConstant rebuilds a Constant node from a folded Go value, reusing src's
// position for diagnostics.
func newConstant(src ast.Node, v interface{}) *ast.Constant {
	tok := synthToken(src)
	switch val := v.(type) {
	case int64:
		return ast.NewConstant(tok, "int", strconv.FormatInt(val, 10))
	case float64:
		return ast.NewConstant(tok, "float", strconv.FormatFloat(val, 'g', -1, 64))
	case bool:
		if val {
			return ast.NewConstant(tok, "bool", "true")
		}
		return ast.NewConstant(tok, "bool", "false")
	case string:
		return ast.NewConstant(tok, "string", val)
	}
	return nil
}

// foldArith evaluates op over two constant scalars using the same promotion
// rules as the evaluator's numeric fast-path (int unless either side floats).
// ok is false when op isn't numeric, for a floating "%", and for a
// divide/mod by a literal zero, which is left to the evaluator (an
// ArithmeticError for integers, the IEEE result for floats).
func foldArith(op string, l, r interface{}) (interface{}, bool) {
	if !isNumeric(l) || !isNumeric(r) {
		return nil, false
	}
	lf, li, lFloat := asNumeric(l)
	rf, ri, rFloat := asNumeric(r)
	useFloat := lFloat || rFloat
	switch op {
	case "+", "-", "*":
		if useFloat {
			switch op {
			case "+":
				return lf + rf, true
			case "-":
				return lf - rf, true
			case "*":
				return lf * rf, true
			}
		}
		switch op {
		case "+":
			return li + ri, true
		case "-":
			return li - ri, true
		case "*":
			return li * ri, true
		}
	case "/", "%":
		if useFloat {
			if op == "%" || rf == 0 {
				return nil, false
			}
			return lf / rf, true
		}
		if ri == 0 {
			return nil, false
		}
		if op == "/" {
			return li / ri, true
		}
		return li % ri, true
	case "<", "<=", ">", ">=", "==", "!=":
		if useFloat {
			return compareFloat(op, lf, rf), true
		}
		return compareInt(op, li, ri), true
	case "&", "|", "^", "<<", ">>":
		if useFloat {
			return nil, false
		}
		switch op {
		case "&":
			return li & ri, true
		case "|":
			return li | ri, true
		case "^":
			return li ^ ri, true
		case "<<":
			return li << uint64(ri), true
		case ">>":
			return li >> uint64(ri), true
		}
	}
	return nil, false
}

func asNumeric(v interface{}) (f float64, i int64, isFloat bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), n, false
	case float64:
		return n, int64(n), true
	default:
		return 0, 0, false
	}
}

func compareFloat(op string, l, r float64) bool {
	switch op {
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	case "==":
		return l == r
	case "!=":
		return l != r
	}
	return false
}

func compareInt(op string, l, r int64) bool {
	switch op {
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	case "==":
		return l == r
	case "!=":
		return l != r
	}
	return false
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int64, float64:
		return true
	}
	return false
}
