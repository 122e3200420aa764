package parser

import (
	"strings"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/token"
)

// parseExpression is the Pratt-parser core (spec §4.6 precedence table),
// grounded on the teacher's own parseExpression loop: apply the prefix
// parser for the current token, then repeatedly fold in infix operators
// whose precedence exceeds the caller's floor.
func (p *Parser) parseExpression(precedence int) ast.Node {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxRecursionDepth {
		p.errorf("expression too deeply nested")
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.errorf("unexpected token %q: no expression can start here", p.curToken.Lexeme)
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
		if left == nil {
			return nil
		}
	}
	return left
}

// Leaf expression parsers leave curToken sitting on their own (only) token,
// per the Pratt convention used throughout this file: every parse*Expr
// function returns with curToken on the last token it consumed, so the loop
// in parseExpression can read the operator that follows from peekToken.

func (p *Parser) parseIdentifier() ast.Node {
	return ast.NewId(p.curToken, p.curToken.Lexeme)
}

func (p *Parser) parseIntLiteral() ast.Node {
	return ast.NewConstant(p.curToken, "int", p.curToken.Literal)
}

func (p *Parser) parseFloatLiteral() ast.Node {
	return ast.NewConstant(p.curToken, "float", p.curToken.Literal)
}

func (p *Parser) parseCharLiteral() ast.Node {
	return ast.NewConstant(p.curToken, "char", p.curToken.Literal)
}

func (p *Parser) parseBoolLiteral() ast.Node {
	return ast.NewConstant(p.curToken, "bool", p.curToken.Lexeme)
}

// parseStringLiteral expands a ${...} interpolated literal (marked by the
// lexer with \x00-delimited fragments) into a chain of "+" Binary nodes
// whose interpolated operands are wrapped in to_string FunCalls, per spec
// §4.6.
func (p *Parser) parseStringLiteral() ast.Node {
	tok := p.curToken
	raw := p.curToken.Literal

	if !strings.ContainsRune(raw, '\x00') {
		return ast.NewConstant(tok, "string", raw)
	}

	parts := strings.Split(raw, "\x00")
	var result ast.Node
	appendPart := func(n ast.Node) {
		if result == nil {
			result = n
			return
		}
		result = ast.NewBinary(tok, "+", result, n)
	}
	for i, part := range parts {
		if i%2 == 0 {
			if part == "" {
				continue
			}
			appendPart(ast.NewConstant(tok, "string", part))
			continue
		}
		sub := New(part, tok.File)
		exprTok := sub.curToken
		expr := sub.parseExpression(LOWEST)
		p.Errors = append(p.Errors, sub.Errors...)
		if expr == nil {
			continue
		}
		call := ast.NewFunCall(exprTok, ast.NewId(exprTok, "to_string"), []ast.Node{expr})
		appendPart(call)
	}
	if result == nil {
		return ast.NewConstant(tok, "string", "")
	}
	return result
}

func (p *Parser) parsePrefixExpr() ast.Node {
	tok := p.curToken
	op := p.curToken.Lexeme
	p.nextToken()
	right := p.parseExpression(PREFIX)
	if right == nil {
		return nil
	}
	return ast.NewPrefix(tok, op, right)
}

// parseIncDecExpr rewrites the prefix-only `++operand`/`--operand` (spec
// §4.6; ChaiScript likewise only defines the prefix forms, never postfix)
// into the equivalent compound-assignment Equation, so it both evaluates
// correctly through the existing "+="/"-=" machinery and is recognized by
// the for-loop specialization pass's isIncrementOf without that pass
// needing to know about "++" at all.
func (p *Parser) parseIncDecExpr() ast.Node {
	tok := p.curToken // "++" or "--"
	op := "+="
	if tok.Type == token.DECREMENT {
		op = "-="
	}
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if operand == nil {
		return nil
	}
	one := ast.NewConstant(tok, "int", "1")
	return ast.NewEquation(tok, op, operand, one)
}

// parseReferenceExpr disambiguates prefix "&" (spec's `&x` reference decl)
// from the bitwise-and infix use, which never reaches a prefix position.
func (p *Parser) parseReferenceExpr() ast.Node {
	tok := p.curToken
	p.nextToken()
	target := p.parseExpression(PREFIX)
	if target == nil {
		return nil
	}
	if id, ok := target.(*ast.Id); ok {
		return ast.NewAssignDecl(tok, id.Name)
	}
	return ast.NewReference(tok, target)
}

func (p *Parser) parseBinaryExpr(left ast.Node) ast.Node {
	tok := p.curToken
	op := p.curToken.Lexeme
	precedence := p.curPrecedence()
	p.nextToken()
	p.skipNewlines()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return ast.NewBinary(tok, op, left, right)
}

func (p *Parser) parseLogicalAnd(left ast.Node) ast.Node {
	tok := p.curToken
	precedence := p.curPrecedence()
	p.nextToken()
	p.skipNewlines()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return ast.NewLogicalAnd(tok, left, right)
}

func (p *Parser) parseLogicalOr(left ast.Node) ast.Node {
	tok := p.curToken
	precedence := p.curPrecedence()
	p.nextToken()
	p.skipNewlines()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return ast.NewLogicalOr(tok, left, right)
}

func (p *Parser) parseTernary(cond ast.Node) ast.Node {
	tok := p.curToken // "?"
	p.nextToken()
	thenExpr := p.parseExpression(TERNARY)
	if !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	elseExpr := p.parseExpression(TERNARY)
	if thenExpr == nil || elseExpr == nil {
		return nil
	}
	return ast.NewTernaryCond(tok, cond, thenExpr, elseExpr)
}

func (p *Parser) parseGroupedExpr() ast.Node {
	p.nextToken() // consume '('
	expr := p.parseAssignment()
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseCallExpr(callee ast.Node) ast.Node {
	tok := p.curToken // "("
	args := p.parseCallArgs()
	if dot, ok := callee.(*ast.DotAccess); ok {
		// Method call: `recv.method(args)` keeps the DotAccess node (rather
		// than rewriting to a bare FunCall) so evaluation still dispatches
		// through call_member — the attribute-map-function fallback and
		// method_missing only trigger from there (spec §4.5/§4.7).
		return ast.NewMethodCall(tok, dot.Target, dot.Member, args)
	}
	return ast.NewFunCall(tok, callee, args)
}

// parseCallArgs parses a parenthesized argument list and leaves curToken on
// the closing ')', matching every other postfix parser's convention.
func (p *Parser) parseCallArgs() []ast.Node {
	var args []ast.Node
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args
	}
	p.nextToken() // move onto the first argument's first token
	tok := p.curToken
	if expr := p.parseAssignment(); expr != nil {
		args = append(args, ast.NewArg(tok, expr))
	}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken() // at ','
		p.nextToken() // at next argument's first token
		tok = p.curToken
		if expr := p.parseAssignment(); expr != nil {
			args = append(args, ast.NewArg(tok, expr))
		}
	}
	if !p.expectPeek(token.RPAREN) {
		return args
	}
	return args
}

func (p *Parser) parseIndexExpr(target ast.Node) ast.Node {
	tok := p.curToken // "["
	p.nextToken()
	index := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return ast.NewArrayCall(tok, target, index)
}

func (p *Parser) parseDotExpr(target ast.Node) ast.Node {
	tok := p.curToken // "."
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	member := p.curToken.Lexeme
	return ast.NewDotAccess(tok, target, member)
}
