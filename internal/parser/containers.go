package parser

import (
	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/token"
)

// parseInlineContainer parses the three `[...]` literal forms (spec §4.6):
// InlineArray, InlineMap (distinguished by a ":" after the first element),
// and InlineRange (distinguished by "..").
func (p *Parser) parseInlineContainer() ast.Node {
	startTok := p.curToken // "["
	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return ast.NewInlineArray(startTok, nil)
	}
	p.nextToken() // move onto the first element's first token
	first := p.parseExpression(LOWEST)

	if p.peekTokenIs(token.DOTDOT) {
		p.nextToken() // at '..'
		p.nextToken() // at upper-bound's first token
		to := p.parseExpression(LOWEST)
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		rng := ast.NewValueRange(startTok, first, to)
		return ast.NewInlineRange(startTok, rng)
	}

	if p.peekTokenIs(token.COLON) {
		p.nextToken() // at ':'
		p.nextToken() // at value's first token
		value := p.parseExpression(LOWEST)
		pairs := []*ast.MapPair{ast.NewMapPair(startTok, first, value)}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken() // at ','
			if p.peekTokenIs(token.RBRACKET) {
				p.nextToken()
				return ast.NewInlineMap(startTok, pairs)
			}
			p.nextToken() // at next key's first token
			keyTok := p.curToken
			key := p.parseExpression(LOWEST)
			if !p.expectPeek(token.COLON) {
				return nil
			}
			p.nextToken() // at value's first token
			val := p.parseExpression(LOWEST)
			pairs = append(pairs, ast.NewMapPair(keyTok, key, val))
		}
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		return ast.NewInlineMap(startTok, pairs)
	}

	elems := []ast.Node{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken() // at ','
		if p.peekTokenIs(token.RBRACKET) {
			p.nextToken()
			return ast.NewInlineArray(startTok, elems)
		}
		p.nextToken() // at next element's first token
		elem := p.parseExpression(LOWEST)
		elems = append(elems, elem)
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return ast.NewInlineArray(startTok, elems)
}

// parseLambda parses `fun(params) { body }` and `fun(params) : guard { body }`
// anonymous functions, inferring captures as every free identifier read
// inside the body that is not one of its own parameters (spec §4.7: "capture
// listed free variables by value at construction time").
func (p *Parser) parseLambda() ast.Node {
	startTok := p.curToken // "fun"
	params := p.parseParamList()
	p.nextToken() // consume ')'
	guard := p.parseGuard()
	if guard != nil {
		p.nextToken()
	}
	if !p.curTokenIs(token.LBRACE) {
		p.errorf("expected '{' to begin lambda body, got %s", p.curToken.Type)
		return nil
	}
	body := p.parseBlock()

	bound := make(map[string]bool, len(params))
	for _, prm := range params {
		bound[prm.Name] = true
	}
	captures := freeIdentifiers(body, bound, nil)
	return ast.NewLambda(startTok, captures, params, guard, body)
}

// freeIdentifiers walks n collecting every *ast.Id reference not shadowed by
// bound (lambda/def parameters) or locally declared via VarDecl within the
// same walk, in first-seen order.
func freeIdentifiers(n ast.Node, bound map[string]bool, seen []string) []string {
	if n == nil {
		return seen
	}
	contains := func(name string) bool {
		for _, s := range seen {
			if s == name {
				return true
			}
		}
		return false
	}
	switch node := n.(type) {
	case *ast.Id:
		if !bound[node.Name] && !contains(node.Name) {
			seen = append(seen, node.Name)
		}
	case *ast.Block:
		local := cloneBoundSet(bound)
		for _, s := range node.Statements {
			if vd, ok := s.(*ast.VarDecl); ok {
				seen = freeIdentifiers(vd.Value, local, seen)
				local[vd.Name] = true
				continue
			}
			seen = freeIdentifiers(s, local, seen)
		}
	case *ast.VarDecl:
		seen = freeIdentifiers(node.Value, bound, seen)
	case *ast.AssignDecl:
		// declares node.Name; nothing free here
	case *ast.GlobalDecl:
		seen = freeIdentifiers(node.Value, bound, seen)
	case *ast.Equation:
		seen = freeIdentifiers(node.LHS, bound, seen)
		seen = freeIdentifiers(node.RHS, bound, seen)
	case *ast.FunCall:
		seen = freeIdentifiers(node.Callee, bound, seen)
		for _, a := range node.Args {
			seen = freeIdentifiers(a, bound, seen)
		}
	case *ast.Arg:
		seen = freeIdentifiers(node.Value, bound, seen)
	case *ast.ArrayCall:
		seen = freeIdentifiers(node.Target, bound, seen)
		seen = freeIdentifiers(node.Index, bound, seen)
	case *ast.DotAccess:
		seen = freeIdentifiers(node.Target, bound, seen)
		for _, a := range node.Args {
			seen = freeIdentifiers(a, bound, seen)
		}
	case *ast.Binary:
		seen = freeIdentifiers(node.Left, bound, seen)
		seen = freeIdentifiers(node.Right, bound, seen)
	case *ast.LogicalAnd:
		seen = freeIdentifiers(node.Left, bound, seen)
		seen = freeIdentifiers(node.Right, bound, seen)
	case *ast.LogicalOr:
		seen = freeIdentifiers(node.Left, bound, seen)
		seen = freeIdentifiers(node.Right, bound, seen)
	case *ast.Prefix:
		seen = freeIdentifiers(node.Right, bound, seen)
	case *ast.Reference:
		seen = freeIdentifiers(node.Target, bound, seen)
	case *ast.TernaryCond:
		seen = freeIdentifiers(node.Cond, bound, seen)
		seen = freeIdentifiers(node.Then, bound, seen)
		seen = freeIdentifiers(node.Else, bound, seen)
	case *ast.If:
		for _, arm := range node.Arms {
			seen = freeIdentifiers(arm.Cond, bound, seen)
			seen = freeIdentifiers(arm.Body, bound, seen)
		}
	case *ast.While:
		seen = freeIdentifiers(node.Cond, bound, seen)
		seen = freeIdentifiers(node.Body, bound, seen)
	case *ast.For:
		local := cloneBoundSet(bound)
		seen = freeIdentifiers(node.Init, local, seen)
		seen = freeIdentifiers(node.Cond, local, seen)
		seen = freeIdentifiers(node.Step, local, seen)
		seen = freeIdentifiers(node.Body, local, seen)
	case *ast.RangedFor:
		local := cloneBoundSet(bound)
		local[node.Var] = true
		seen = freeIdentifiers(node.Expr, bound, seen)
		seen = freeIdentifiers(node.Body, local, seen)
	case *ast.Return:
		seen = freeIdentifiers(node.Value, bound, seen)
	case *ast.InlineArray:
		for _, e := range node.Elements {
			seen = freeIdentifiers(e, bound, seen)
		}
	case *ast.InlineMap:
		for _, pr := range node.Pairs {
			seen = freeIdentifiers(pr.Key, bound, seen)
			seen = freeIdentifiers(pr.Value, bound, seen)
		}
	case *ast.InlineRange:
		seen = freeIdentifiers(node.Range.From, bound, seen)
		seen = freeIdentifiers(node.Range.To, bound, seen)
	case *ast.Lambda:
		// Nested lambdas capture independently; still scan for outer frees.
		inner := cloneBoundSet(bound)
		for _, prm := range node.Params {
			inner[prm.Name] = true
		}
		seen = freeIdentifiers(node.Body, inner, seen)
	case *ast.Try:
		seen = freeIdentifiers(node.Body, bound, seen)
		for _, c := range node.Catches {
			seen = freeIdentifiers(c.Body, bound, seen)
		}
		if node.Finally != nil {
			seen = freeIdentifiers(node.Finally.Body, bound, seen)
		}
	case *ast.Switch:
		seen = freeIdentifiers(node.Discriminant, bound, seen)
		for _, c := range node.Cases {
			seen = freeIdentifiers(c.Value, bound, seen)
			for _, s := range c.Body {
				seen = freeIdentifiers(s, bound, seen)
			}
		}
		if node.Default != nil {
			for _, s := range node.Default.Body {
				seen = freeIdentifiers(s, bound, seen)
			}
		}
	}
	return seen
}

func cloneBoundSet(bound map[string]bool) map[string]bool {
	out := make(map[string]bool, len(bound)+1)
	for k, v := range bound {
		out[k] = v
	}
	return out
}
