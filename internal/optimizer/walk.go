// Package optimizer implements the AST-to-AST rewrite passes of spec §4.8:
// a composable sequence of local transforms, each applied exactly once, in
// order, over the whole tree.
package optimizer

import "github.com/quill-lang/quill/internal/ast"

// Rewrite is one AST-to-AST pass. A pass only needs to handle the node
// shapes it actually rewrites; rewriteChildren has already walked n's
// children bottom-up by the time rewrite sees n.
type Rewrite func(n ast.Node) ast.Node

// apply runs rw over every node of n, bottom-up: children are rewritten
// first, then rw is given the chance to replace the node itself.
func apply(n ast.Node, rw Rewrite) ast.Node {
	if n == nil {
		return nil
	}
	n = rewriteChildren(n, rw)
	return rw(n)
}

func applyList(nodes []ast.Node, rw Rewrite) []ast.Node {
	if nodes == nil {
		return nil
	}
	out := make([]ast.Node, len(nodes))
	for i, s := range nodes {
		out[i] = apply(s, rw)
	}
	return out
}

// rewriteChildren walks n's immediate Node-typed fields, replacing each with
// apply(child, rw), and returns n (mutated in place — the parser's output is
// not shared with anything else once the optimizer owns it).
func rewriteChildren(n ast.Node, rw Rewrite) ast.Node {
	switch node := n.(type) {
	case *ast.File:
		node.Statements = applyList(node.Statements, rw)
	case *ast.Block:
		node.Statements = applyList(node.Statements, rw)
	case *ast.ScopelessBlock:
		node.Statements = applyList(node.Statements, rw)
	case *ast.VarDecl:
		node.Value = apply(node.Value, rw)
	case *ast.GlobalDecl:
		node.Value = apply(node.Value, rw)
	case *ast.Equation:
		node.LHS = apply(node.LHS, rw)
		node.RHS = apply(node.RHS, rw)
	case *ast.FunCall:
		node.Callee = apply(node.Callee, rw)
		node.Args = applyList(node.Args, rw)
	case *ast.UnusedReturnFunCall:
		if c := apply(node.Call, rw); c != nil {
			node.Call = c.(*ast.FunCall)
		}
	case *ast.ArrayCall:
		node.Target = apply(node.Target, rw)
		node.Index = apply(node.Index, rw)
	case *ast.DotAccess:
		node.Target = apply(node.Target, rw)
		node.Args = applyList(node.Args, rw)
	case *ast.Lambda:
		node.Guard = apply(node.Guard, rw)
		node.Body = apply(node.Body, rw)
	case *ast.Def:
		node.Guard = apply(node.Guard, rw)
		node.Body = apply(node.Body, rw)
	case *ast.Method:
		node.Guard = apply(node.Guard, rw)
		node.Body = apply(node.Body, rw)
	case *ast.Class:
		node.Members = applyList(node.Members, rw)
	case *ast.While:
		node.Cond = apply(node.Cond, rw)
		node.Body = apply(node.Body, rw)
	case *ast.For:
		node.Init = apply(node.Init, rw)
		node.Cond = apply(node.Cond, rw)
		node.Step = apply(node.Step, rw)
		node.Body = apply(node.Body, rw)
	case *ast.ForSpecialized:
		node.Body = apply(node.Body, rw)
	case *ast.RangedFor:
		node.Expr = apply(node.Expr, rw)
		node.Body = apply(node.Body, rw)
	case *ast.If:
		for i := range node.Arms {
			node.Arms[i].Cond = apply(node.Arms[i].Cond, rw)
			node.Arms[i].Body = apply(node.Arms[i].Body, rw)
		}
	case *ast.TernaryCond:
		node.Cond = apply(node.Cond, rw)
		node.Then = apply(node.Then, rw)
		node.Else = apply(node.Else, rw)
	case *ast.Switch:
		node.Discriminant = apply(node.Discriminant, rw)
		for _, c := range node.Cases {
			c.Value = apply(c.Value, rw)
			c.Body = applyList(c.Body, rw)
		}
		if node.Default != nil {
			node.Default.Body = applyList(node.Default.Body, rw)
		}
	case *ast.InlineArray:
		node.Elements = applyList(node.Elements, rw)
	case *ast.InlineMap:
		for _, p := range node.Pairs {
			p.Key = apply(p.Key, rw)
			p.Value = apply(p.Value, rw)
		}
	case *ast.InlineRange:
		if node.Range != nil {
			node.Range.From = apply(node.Range.From, rw)
			node.Range.To = apply(node.Range.To, rw)
		}
	case *ast.Return:
		node.Value = apply(node.Value, rw)
	case *ast.Try:
		node.Body = apply(node.Body, rw)
		for _, c := range node.Catches {
			c.Guard = apply(c.Guard, rw)
			c.Body = apply(c.Body, rw)
		}
		if node.Finally != nil {
			node.Finally.Body = apply(node.Finally.Body, rw)
		}
	case *ast.Binary:
		node.Left = apply(node.Left, rw)
		node.Right = apply(node.Right, rw)
	case *ast.BinaryFoldRight:
		node.Left = apply(node.Left, rw)
	case *ast.Prefix:
		node.Right = apply(node.Right, rw)
	case *ast.LogicalAnd:
		node.Left = apply(node.Left, rw)
		node.Right = apply(node.Right, rw)
	case *ast.LogicalOr:
		node.Left = apply(node.Left, rw)
		node.Right = apply(node.Right, rw)
	case *ast.Reference:
		node.Target = apply(node.Target, rw)
	}
	return n
}
