package optimizer

import (
	"github.com/quill-lang/quill/internal/ast"
)

// Optimize runs the spec §4.8 pass sequence over the tree exactly once, in
// order: each pass is purely local and sees the output of the previous one.
func Optimize(f *ast.File) *ast.File {
	tree := ast.Node(f)
	passes := []Rewrite{
		returnTailPass,
		blockFoldingPass,
		deadCodePass,
		unusedReturnPass,
		constantIfPass,
		partialFoldPass,
		constantFoldPass,
		forSpecializationPass,
	}
	for _, p := range passes {
		tree = apply(tree, p)
	}
	return tree.(*ast.File)
}

// --- Return-tail -------------------------------------------------------------

// returnTailPass unwraps `return <expr>;` at the tail of a function body
// into a bare expression: falling off the end of a Def/Method/Lambda body
// already yields the block's last value, so a trailing Return is redundant
// control flow.
func returnTailPass(n ast.Node) ast.Node {
	switch node := n.(type) {
	case *ast.Def:
		node.Body = unwrapTailReturn(node.Body)
	case *ast.Method:
		node.Body = unwrapTailReturn(node.Body)
	case *ast.Lambda:
		node.Body = unwrapTailReturn(node.Body)
	}
	return n
}

func unwrapTailReturn(body ast.Node) ast.Node {
	switch b := body.(type) {
	case *ast.Block:
		if last, ok := tailReturnValue(b.Statements); ok {
			b.Statements[len(b.Statements)-1] = last
		}
	case *ast.ScopelessBlock:
		if last, ok := tailReturnValue(b.Statements); ok {
			b.Statements[len(b.Statements)-1] = last
		}
	}
	return body
}

func tailReturnValue(stmts []ast.Node) (ast.Node, bool) {
	if len(stmts) == 0 {
		return nil, false
	}
	ret, ok := stmts[len(stmts)-1].(*ast.Return)
	if !ok {
		return nil, false
	}
	if ret.Value == nil {
		return ast.NewNoop(synthToken(ret)), true
	}
	return ret.Value, true
}

// --- Block-folding -----------------------------------------------------------

// blockFoldingPass turns a Block with no variable declarations into a
// ScopelessBlock (no scope push/pop needed), and unwraps a one-statement
// block into that statement directly.
func blockFoldingPass(n ast.Node) ast.Node {
	b, ok := n.(*ast.Block)
	if !ok {
		return n
	}
	if len(b.Statements) == 1 {
		return b.Statements[0]
	}
	if !declaresVariable(b.Statements) {
		return ast.NewScopelessBlock(synthToken(b), b.Statements)
	}
	return b
}

func declaresVariable(stmts []ast.Node) bool {
	for _, s := range stmts {
		switch s.(type) {
		case *ast.VarDecl, *ast.AssignDecl:
			return true
		}
	}
	return false
}

// --- Dead-code ----------------------------------------------------------------

// deadCodePass strips leading statements in a block that are bare
// identifier reads, constants, or no-ops with no side effect, except the
// block's final statement (its value is the block's result).
func deadCodePass(n ast.Node) ast.Node {
	switch b := n.(type) {
	case *ast.Block:
		b.Statements = stripDeadPrefix(b.Statements)
	case *ast.ScopelessBlock:
		b.Statements = stripDeadPrefix(b.Statements)
	}
	return n
}

func stripDeadPrefix(stmts []ast.Node) []ast.Node {
	if len(stmts) <= 1 {
		return stmts
	}
	out := make([]ast.Node, 0, len(stmts))
	for i, s := range stmts {
		if i == len(stmts)-1 {
			out = append(out, s)
			continue
		}
		if isDeadStatement(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func isDeadStatement(n ast.Node) bool {
	switch n.(type) {
	case *ast.Id, *ast.Constant, *ast.Noop:
		return true
	}
	return false
}

// --- Unused-return -------------------------------------------------------------

// unusedReturnPass marks a FunCall appearing directly in statement position
// (a Block/ScopelessBlock/File element whose value nothing reads) so the
// evaluator can discard its result without retaining it.
func unusedReturnPass(n ast.Node) ast.Node {
	switch node := n.(type) {
	case *ast.Block:
		markUnusedReturns(node.Statements)
	case *ast.ScopelessBlock:
		markUnusedReturns(node.Statements)
	case *ast.File:
		markUnusedReturns(node.Statements)
	}
	return n
}

func markUnusedReturns(stmts []ast.Node) {
	for i, s := range stmts {
		if i == len(stmts)-1 {
			continue // the last statement's value is the block's result
		}
		if call, ok := s.(*ast.FunCall); ok {
			stmts[i] = &ast.UnusedReturnFunCall{Call: call}
		}
	}
}

// --- Constant-if ---------------------------------------------------------------

// constantIfPass replaces `if(const)` arms and ternaries whose condition is
// a known boolean constant with the chosen arm directly.
func constantIfPass(n ast.Node) ast.Node {
	switch node := n.(type) {
	case *ast.If:
		for _, arm := range node.Arms {
			if arm.Cond == nil {
				// every earlier arm was known-false: the else arm is chosen.
				return arm.Body
			}
			b, ok := constScalar(arm.Cond)
			if !ok {
				return node
			}
			bv, ok := b.(bool)
			if !ok {
				return node
			}
			if bv {
				return arm.Body
			}
			continue
		}
		// every arm was a known-false condition and there was no else: the
		// statement evaluates to nothing.
		return ast.NewNoop(synthToken(node))
	case *ast.TernaryCond:
		b, ok := constScalar(node.Cond)
		if !ok {
			return node
		}
		bv, ok := b.(bool)
		if !ok {
			return node
		}
		if bv {
			return node.Then
		}
		return node.Else
	}
	return n
}

// --- Partial fold --------------------------------------------------------------

// partialFoldPass specializes a Binary node whose RHS is already a numeric
// constant into a BinaryFoldRight, carrying the constant directly instead of
// evaluating a child node for it on every iteration.
func partialFoldPass(n ast.Node) ast.Node {
	b, ok := n.(*ast.Binary)
	if !ok {
		return n
	}
	c, ok := b.Right.(*ast.Constant)
	if !ok || (c.ValueKind != "int" && c.ValueKind != "float") {
		return n
	}
	return &ast.BinaryFoldRight{Operator: b.Operator, Left: b.Left, Constant: c}
}

// --- Constant fold ---------------------------------------------------------

// constantFoldPass folds arithmetic/logical/prefix operations whose operands
// are both already Constant nodes. Conversion-function calls applied to a
// Constant are not folded; they are left for the evaluator.
func constantFoldPass(n ast.Node) ast.Node {
	switch node := n.(type) {
	case *ast.Binary:
		l, lok := constScalar(node.Left)
		r, rok := constScalar(node.Right)
		if !lok || !rok {
			return n
		}
		if v, ok := foldArith(node.Operator, l, r); ok {
			return newConstant(node, v)
		}
		return n
	case *ast.BinaryFoldRight:
		l, lok := constScalar(node.Left)
		r, rok := constScalar(node.Constant)
		if !lok || !rok {
			return n
		}
		if v, ok := foldArith(node.Operator, l, r); ok {
			return newConstant(node, v)
		}
		return n
	case *ast.Prefix:
		v, ok := constScalar(node.Right)
		if !ok {
			return n
		}
		switch node.Operator {
		case "-":
			if !isNumeric(v) {
				return n
			}
			if f, ok := v.(float64); ok {
				return newConstant(node, -f)
			}
			return newConstant(node, -(v.(int64)))
		case "!":
			if b, ok := v.(bool); ok {
				return newConstant(node, !b)
			}
		case "~":
			if i, ok := v.(int64); ok {
				return newConstant(node, ^i)
			}
		}
		return n
	case *ast.LogicalAnd:
		l, lok := constScalar(node.Left)
		r, rok := constScalar(node.Right)
		if lok && rok {
			if lb, ok := l.(bool); ok {
				if rb, ok := r.(bool); ok {
					return newConstant(node, lb && rb)
				}
			}
		}
		return n
	case *ast.LogicalOr:
		l, lok := constScalar(node.Left)
		r, rok := constScalar(node.Right)
		if lok && rok {
			if lb, ok := l.(bool); ok {
				if rb, ok := r.(bool); ok {
					return newConstant(node, lb || rb)
				}
			}
		}
		return n
	}
	return n
}

// --- For-loop specialization ------------------------------------------------

// forSpecializationPass recognizes the canonical `for(var i=const; i<const;
// i+=1)` shape (matching identifiers throughout) and replaces it with a
// ForSpecialized node the evaluator iterates natively, skipping the `<` and
// increment dispatch on every iteration.
func forSpecializationPass(n ast.Node) ast.Node {
	f, ok := n.(*ast.For)
	if !ok {
		return n
	}
	decl, ok := f.Init.(*ast.VarDecl)
	if !ok {
		return n
	}
	start, ok := constScalar(decl.Value)
	if !ok {
		return n
	}
	startInt, ok := start.(int64)
	if !ok {
		return n
	}
	condLeft, condOp, condRight, ok := asBinary(f.Cond)
	if !ok || condOp != "<" {
		return n
	}
	id, ok := condLeft.(*ast.Id)
	if !ok || id.Name != decl.Name {
		return n
	}
	end, ok := constScalar(condRight)
	if !ok {
		return n
	}
	endInt, ok := end.(int64)
	if !ok {
		return n
	}
	if !isIncrementOf(f.Step, decl.Name) {
		return n
	}
	return &ast.ForSpecialized{Var: decl.Name, Start: startInt, End: endInt, Body: f.Body}
}

// asBinary unifies *ast.Binary and its partial-fold-pass specialization
// *ast.BinaryFoldRight (a Binary whose RHS already collapsed into a bare
// Constant) behind one shape, since by the time forSpecializationPass runs,
// partialFoldPass has already rewritten the loop condition's "<" comparison.
func asBinary(n ast.Node) (left ast.Node, op string, right ast.Node, ok bool) {
	switch b := n.(type) {
	case *ast.Binary:
		return b.Left, b.Operator, b.Right, true
	case *ast.BinaryFoldRight:
		return b.Left, b.Operator, b.Constant, true
	}
	return nil, "", nil, false
}

// isIncrementOf reports whether step is `i += 1` or `i = i + 1` for the
// named loop variable.
func isIncrementOf(step ast.Node, name string) bool {
	eq, ok := step.(*ast.Equation)
	if !ok {
		return false
	}
	id, ok := eq.LHS.(*ast.Id)
	if !ok || id.Name != name {
		return false
	}
	switch eq.Operator {
	case "+=":
		v, ok := constScalar(eq.RHS)
		if !ok {
			return false
		}
		i, ok := v.(int64)
		return ok && i == 1
	case "=":
		binLeft, binOp, binRight, ok := asBinary(eq.RHS)
		if !ok || binOp != "+" {
			return false
		}
		lhsID, ok := binLeft.(*ast.Id)
		if !ok || lhsID.Name != name {
			return false
		}
		v, ok := constScalar(binRight)
		if !ok {
			return false
		}
		i, ok := v.(int64)
		return ok && i == 1
	}
	return false
}
