package parser

import (
	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/token"
)

// parseStatement dispatches on the current token to one of the statement
// forms in spec §4.6, falling back to an expression statement.
func (p *Parser) parseStatement() ast.Node {
	switch p.curToken.Type {
	case token.DEF:
		return p.parseDef()
	case token.CLASS:
		return p.parseClass()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.IF:
		return p.parseIf()
	case token.SWITCH:
		return p.parseSwitch()
	case token.TRY:
		return p.parseTry()
	case token.RETURN:
		return p.parseReturn()
	case token.BREAK:
		n := ast.NewBreak(p.curToken)
		p.nextToken()
		return n
	case token.CONTINUE:
		n := ast.NewContinue(p.curToken)
		p.nextToken()
		return n
	case token.GLOBAL:
		return p.parseGlobalDecl()
	case token.ATTR:
		return p.parseAttrDecl("")
	case token.LBRACE:
		return p.parseBlock()
	default:
		return p.parseExpressionStatement()
	}
}

// parseExpressionStatement parses a bare expression statement. Unlike the
// block-bodied statement forms (def/while/for/if/...), which inherit their
// trailing position from parseBlock, an expression statement must advance
// one token past its own last token here so the caller's separator check
// (NEWLINE/SEMICOLON/'}') sees the right token.
func (p *Parser) parseExpressionStatement() ast.Node {
	expr := p.parseAssignment()
	if expr == nil {
		return nil
	}
	p.nextToken()
	return expr
}

// parseAssignment parses the outermost "Equation" level (spec §4.6):
// assignment operators are right-associative and sit below every other
// operator, so the LHS is parsed at TERNARY-and-up before checking for an
// assignment operator.
func (p *Parser) parseAssignment() ast.Node {
	startTok := p.curToken
	lhs := p.parseExpression(TERNARY)
	if lhs == nil {
		return nil
	}
	if !assignOps[p.peekToken.Type] {
		return lhs
	}
	p.nextToken()
	op := p.curToken.Lexeme
	p.nextToken()
	p.skipNewlines()
	rhs := p.parseAssignment()
	if rhs == nil {
		return nil
	}
	return ast.NewEquation(startTok, op, lhs, rhs)
}

func (p *Parser) parseBlock() *ast.Block {
	startTok := p.curToken // "{"
	p.nextToken()
	p.skipStatementSeparators()
	var stmts []ast.Node
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.skipStatementSeparators()
			continue
		}
		if stmt == nil && !p.curTokenIs(token.RBRACE) {
			p.nextToken()
		}
	}
	if !p.curTokenIs(token.RBRACE) {
		p.errorf("expected '}' to close block, got %s", p.curToken.Type)
	} else {
		p.nextToken()
	}
	return ast.NewBlock(startTok, stmts)
}

func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	p.skipNewlines()
	for !p.curTokenIs(token.RPAREN) && !p.curTokenIs(token.EOF) {
		param := ast.Param{Name: p.curToken.Lexeme}
		if param.Name == "" {
			param.Name = p.curToken.Literal
		}
		p.nextToken()
		if p.curTokenIs(token.COLON) {
			p.nextToken()
			param.TypeName = p.curToken.Lexeme
			p.nextToken()
		}
		params = append(params, param)
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			p.skipNewlines()
		}
	}
	return params
}

// parseGuard parses an optional ": expr" guard clause following a parameter
// list, as used by Def/Method/Lambda.
func (p *Parser) parseGuard() ast.Node {
	if !p.curTokenIs(token.COLON) {
		return nil
	}
	p.nextToken()
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseDef() ast.Node {
	startTok := p.curToken // "def"
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	params := p.parseParamList()
	p.nextToken() // consume ')'
	guard := p.parseGuard()
	if guard != nil {
		p.nextToken()
	}
	if !p.curTokenIs(token.LBRACE) {
		p.errorf("expected '{' to begin function body, got %s", p.curToken.Type)
		return nil
	}
	body := p.parseBlock()
	return ast.NewDef(startTok, name, params, guard, body)
}

func (p *Parser) parseClass() ast.Node {
	startTok := p.curToken // "class"
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	p.skipStatementSeparators()
	var members []ast.Node
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		switch p.curToken.Type {
		case token.ATTR:
			members = append(members, p.parseAttrDecl(name))
		case token.DEF:
			members = append(members, p.parseMethod(name))
		default:
			p.errorf("unexpected token %q in class body: expected 'attr' or 'def'", p.curToken.Lexeme)
			p.nextToken()
			continue
		}
		p.skipStatementSeparators()
	}
	if p.curTokenIs(token.RBRACE) {
		p.nextToken()
	}
	return ast.NewClass(startTok, name, members)
}

func (p *Parser) parseAttrDecl(className string) ast.Node {
	startTok := p.curToken // "attr"
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	n := ast.NewAttrDecl(startTok, className, p.curToken.Lexeme)
	p.nextToken()
	return n
}

func (p *Parser) parseMethod(className string) ast.Node {
	startTok := p.curToken // "def"
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	params := p.parseParamList()
	p.nextToken() // consume ')'
	guard := p.parseGuard()
	if guard != nil {
		p.nextToken()
	}
	if !p.curTokenIs(token.LBRACE) {
		p.errorf("expected '{' to begin method body, got %s", p.curToken.Type)
		return nil
	}
	body := p.parseBlock()
	return ast.NewMethod(startTok, className, name, params, guard, body)
}

func (p *Parser) parseWhile() ast.Node {
	startTok := p.curToken // "while"
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	p.nextToken()
	if !p.curTokenIs(token.LBRACE) {
		p.errorf("expected '{' to begin while body, got %s", p.curToken.Type)
		return nil
	}
	body := p.parseBlock()
	return ast.NewWhile(startTok, cond, body)
}

func (p *Parser) parseFor() ast.Node {
	startTok := p.curToken // "for"
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()

	// Ranged form: for (x in expr) body
	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.IDENT) && p.peekToken.Lexeme == "in" {
		varName := p.curToken.Lexeme
		p.nextToken() // consume ident
		p.nextToken() // consume "in"
		expr := p.parseExpression(LOWEST)
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		p.nextToken()
		if !p.curTokenIs(token.LBRACE) {
			p.errorf("expected '{' to begin for body, got %s", p.curToken.Type)
			return nil
		}
		body := p.parseBlock()
		return ast.NewRangedFor(startTok, varName, expr, body)
	}

	var init ast.Node
	if !p.curTokenIs(token.SEMICOLON) {
		init = p.parseAssignment()
	}
	if !p.curTokenIs(token.SEMICOLON) && !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.nextToken()
	var cond ast.Node
	if !p.curTokenIs(token.SEMICOLON) {
		cond = p.parseExpression(LOWEST)
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.nextToken()
	var step ast.Node
	if !p.curTokenIs(token.RPAREN) {
		step = p.parseAssignment()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	p.nextToken()
	if !p.curTokenIs(token.LBRACE) {
		p.errorf("expected '{' to begin for body, got %s", p.curToken.Type)
		return nil
	}
	body := p.parseBlock()
	return ast.NewFor(startTok, init, cond, step, body)
}

func (p *Parser) parseIf() ast.Node {
	startTok := p.curToken
	var arms []ast.IfArm
	for {
		if !p.expectPeek(token.LPAREN) {
			return nil
		}
		p.nextToken()
		cond := p.parseExpression(LOWEST)
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		p.nextToken()
		if !p.curTokenIs(token.LBRACE) {
			p.errorf("expected '{' to begin if body, got %s", p.curToken.Type)
			return nil
		}
		body := p.parseBlock()
		arms = append(arms, ast.IfArm{Cond: cond, Body: body})
		if p.curTokenIs(token.ELSE) {
			if p.peekTokenIs(token.IF) {
				p.nextToken() // consume "else"
				p.nextToken() // consume "if"
				continue
			}
			p.nextToken() // consume "else"
			if !p.curTokenIs(token.LBRACE) {
				p.errorf("expected '{' to begin else body, got %s", p.curToken.Type)
				return nil
			}
			elseBody := p.parseBlock()
			arms = append(arms, ast.IfArm{Cond: nil, Body: elseBody})
		}
		break
	}
	return ast.NewIf(startTok, arms)
}

func (p *Parser) parseSwitch() ast.Node {
	startTok := p.curToken // "switch"
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	discriminant := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	p.skipStatementSeparators()

	var cases []*ast.Case
	var def *ast.Default
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		switch p.curToken.Type {
		case token.CASE:
			caseTok := p.curToken
			p.nextToken()
			value := p.parseExpression(LOWEST)
			if !p.expectPeek(token.COLON) {
				return nil
			}
			p.nextToken()
			body := p.parseCaseBody()
			cases = append(cases, ast.NewCase(caseTok, value, body))
		case token.DEFAULT:
			defTok := p.curToken
			if !p.expectPeek(token.COLON) {
				return nil
			}
			p.nextToken()
			body := p.parseCaseBody()
			def = ast.NewDefault(defTok, body)
		default:
			p.errorf("unexpected token %q in switch body: expected 'case' or 'default'", p.curToken.Lexeme)
			p.nextToken()
		}
		p.skipStatementSeparators()
	}
	if p.curTokenIs(token.RBRACE) {
		p.nextToken()
	}
	return ast.NewSwitch(startTok, discriminant, cases, def)
}

func (p *Parser) parseCaseBody() []ast.Node {
	var body []ast.Node
	p.skipStatementSeparators()
	for !p.curTokenIs(token.CASE) && !p.curTokenIs(token.DEFAULT) &&
		!p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			body = append(body, stmt)
		}
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.skipStatementSeparators()
		}
	}
	return body
}

func (p *Parser) parseTry() ast.Node {
	startTok := p.curToken // "try"
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlock()

	var catches []*ast.Catch
	for p.curTokenIs(token.CATCH) {
		catchTok := p.curToken
		var excName, typeName string
		var guard ast.Node
		if p.peekTokenIs(token.LPAREN) {
			p.nextToken() // consume "catch"
			p.nextToken() // consume "("
			if p.curTokenIs(token.IDENT) {
				first := p.curToken.Lexeme
				if p.peekTokenIs(token.IDENT) {
					typeName = first
					p.nextToken()
					excName = p.curToken.Lexeme
				} else {
					excName = first
				}
				p.nextToken()
			}
			if p.curTokenIs(token.COLON) {
				p.nextToken()
				guard = p.parseExpression(LOWEST)
				p.nextToken()
			}
			if !p.curTokenIs(token.RPAREN) {
				p.errorf("expected ')' to close catch clause, got %s", p.curToken.Type)
				return nil
			}
			p.nextToken()
		} else {
			p.nextToken() // consume "catch" with no parenthesized clause
		}
		if !p.curTokenIs(token.LBRACE) {
			p.errorf("expected '{' to begin catch body, got %s", p.curToken.Type)
			return nil
		}
		catchBody := p.parseBlock()
		catches = append(catches, ast.NewCatch(catchTok, excName, typeName, guard, catchBody))
	}

	var fin *ast.Finally
	if p.curTokenIs(token.FINALLY) {
		finTok := p.curToken
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		finBody := p.parseBlock()
		fin = ast.NewFinally(finTok, finBody)
	}
	return ast.NewTry(startTok, body, catches, fin)
}

func (p *Parser) parseReturn() ast.Node {
	startTok := p.curToken
	p.nextToken()
	if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) || p.curTokenIs(token.RBRACE) || p.curTokenIs(token.EOF) {
		return ast.NewReturn(startTok, nil)
	}
	value := p.parseExpression(LOWEST)
	p.nextToken()
	return ast.NewReturn(startTok, value)
}

func (p *Parser) parseGlobalDecl() ast.Node {
	startTok := p.curToken // "global"/"GLOBAL"
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	var value ast.Node
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken() // consume ident
		p.nextToken() // consume "="
		value = p.parseExpression(LOWEST)
	}
	p.nextToken()
	return ast.NewGlobalDecl(startTok, name, value)
}

// parseVarDeclExpr handles `var x` / `var x = expr` as a prefix expression
// form, so it composes with the rest of the Pratt parser (e.g. as a for-loop
// initializer).
func (p *Parser) parseVarDeclExpr() ast.Node {
	startTok := p.curToken // "var"
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	var value ast.Node
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken() // consume ident
		p.nextToken() // consume "="
		value = p.parseExpression(LOWEST)
	}
	return ast.NewVarDecl(startTok, name, value)
}
