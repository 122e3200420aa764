// Package parser implements the recursive-descent parser described in spec
// §4.6: a Pratt expression parser (prefix/infix function tables keyed by
// token type) layered under a classical statement-level dispatcher, grounded
// on this codebase's own tree-walking-fork parser style (curToken/peekToken,
// expectPeek, collected *diagnostics.DiagnosticError values rather than
// panics).
package parser

import (
	"fmt"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/diagnostics"
	"github.com/quill-lang/quill/internal/lexer"
	"github.com/quill-lang/quill/internal/token"
)

// Operator precedence levels, lowest to highest (spec §4.6). Assignment
// binds lower than every other operator ("below comparison"); it is handled
// structurally as the outermost expression level rather than via the
// infix-precedence table, since its LHS must be an lvalue.
const (
	_ int = iota
	LOWEST
	TERNARY
	LOGIC_OR
	LOGIC_AND
	BIT_OR
	BIT_XOR
	BIT_AND
	EQUALITY
	RELATIONAL
	SHIFT
	SUM
	PRODUCT
	PREFIX
	CALL
)

var precedences = map[token.Type]int{
	token.QUESTION: TERNARY,
	token.LOR:      LOGIC_OR,
	token.LAND:     LOGIC_AND,
	token.PIPE:     BIT_OR,
	token.CARET:    BIT_XOR,
	token.AMP:      BIT_AND,
	token.EQ:       EQUALITY,
	token.NOT_EQ:   EQUALITY,
	token.LT:       RELATIONAL,
	token.LTE:      RELATIONAL,
	token.GT:       RELATIONAL,
	token.GTE:      RELATIONAL,
	token.SHL:      SHIFT,
	token.SHR:      SHIFT,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.LPAREN:   CALL,
	token.LBRACKET: CALL,
	token.DOT:      CALL,
}

var assignOps = map[token.Type]bool{
	token.ASSIGN: true, token.WALRUS: true,
	token.PLUS_ASSIGN: true, token.MINUS_ASSIGN: true, token.STAR_ASSIGN: true,
	token.SLASH_ASSIGN: true, token.PERCENT_ASSIGN: true,
	token.SHL_ASSIGN: true, token.SHR_ASSIGN: true,
	token.AND_ASSIGN: true, token.XOR_ASSIGN: true, token.OR_ASSIGN: true,
}

type (
	prefixParseFn func() ast.Node
	infixParseFn  func(ast.Node) ast.Node
)

// Parser is a single-file recursive-descent parser instance.
type Parser struct {
	lex *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	Errors []*diagnostics.DiagnosticError

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn

	// depth guards against runaway recursion on malformed/adversarial input.
	depth int
}

const maxRecursionDepth = 250

// New creates a Parser over src, identified by file for diagnostics.
func New(src, file string) *Parser {
	p := &Parser{lex: lexer.New(src, file)}
	p.prefixParseFns = map[token.Type]prefixParseFn{
		token.IDENT:     p.parseIdentifier,
		token.INT:       p.parseIntLiteral,
		token.FLOAT:     p.parseFloatLiteral,
		token.STRING:    p.parseStringLiteral,
		token.CHAR:      p.parseCharLiteral,
		token.TRUE:      p.parseBoolLiteral,
		token.FALSE:     p.parseBoolLiteral,
		token.BANG:      p.parsePrefixExpr,
		token.MINUS:     p.parsePrefixExpr,
		token.TILDE:     p.parsePrefixExpr,
		token.INCREMENT: p.parseIncDecExpr,
		token.DECREMENT: p.parseIncDecExpr,
		token.AMP:       p.parseReferenceExpr,
		token.LPAREN:    p.parseGroupedExpr,
		token.LBRACKET:  p.parseInlineContainer,
		token.FUN:       p.parseLambda,
		token.VAR:       p.parseVarDeclExpr,
	}
	p.infixParseFns = map[token.Type]infixParseFn{
		token.PLUS:     p.parseBinaryExpr,
		token.MINUS:    p.parseBinaryExpr,
		token.ASTERISK: p.parseBinaryExpr,
		token.SLASH:    p.parseBinaryExpr,
		token.PERCENT:  p.parseBinaryExpr,
		token.PIPE:     p.parseBinaryExpr,
		token.CARET:    p.parseBinaryExpr,
		token.AMP:      p.parseBinaryExpr,
		token.SHL:      p.parseBinaryExpr,
		token.SHR:      p.parseBinaryExpr,
		token.EQ:       p.parseBinaryExpr,
		token.NOT_EQ:   p.parseBinaryExpr,
		token.LT:       p.parseBinaryExpr,
		token.LTE:      p.parseBinaryExpr,
		token.GT:       p.parseBinaryExpr,
		token.GTE:      p.parseBinaryExpr,
		token.LAND:     p.parseLogicalAnd,
		token.LOR:      p.parseLogicalOr,
		token.QUESTION: p.parseTernary,
		token.LPAREN:   p.parseCallExpr,
		token.LBRACKET: p.parseIndexExpr,
		token.DOT:      p.parseDotExpr,
	}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lex.NextToken()
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(want token.Type) {
	p.errorf("expected next token to be %s, got %s (%q) instead", want, p.peekToken.Type, p.peekToken.Lexeme)
}

func (p *Parser) errorf(format string, args ...interface{}) {
	pos := diagnostics.Position{File: p.curToken.File, Line: p.curToken.Line, Column: p.curToken.Column}
	p.Errors = append(p.Errors, diagnostics.ParseError(pos, fmt.Sprintf(format, args...)))
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

// skipNewlines consumes any run of NEWLINE tokens at the current position
// (statement separators are insignificant where the grammar allows it, e.g.
// immediately after "{", "(", a binary operator, or before "}").
func (p *Parser) skipNewlines() {
	for p.curTokenIs(token.NEWLINE) {
		p.nextToken()
	}
}

func (p *Parser) skipStatementSeparators() {
	for p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
}

// ParseProgram parses the whole token stream into a *ast.File.
func (p *Parser) ParseProgram(name string) (*ast.File, []*diagnostics.DiagnosticError) {
	startTok := p.curToken
	var statements []ast.Node
	p.skipStatementSeparators()
	for !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			statements = append(statements, stmt)
		}
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.skipStatementSeparators()
			continue
		}
		if p.curTokenIs(token.EOF) {
			break
		}
		if stmt == nil {
			// Recovery: no statement parsed and no separator consumed — force
			// progress so a malformed token can't loop the parser forever.
			p.nextToken()
			continue
		}
		if !p.curTokenIs(token.RBRACE) {
			p.errorf("unexpected token %q: statements must be separated by ';' or a newline", p.curToken.Lexeme)
			p.nextToken()
		}
	}
	return ast.NewFile(startTok, name, statements), p.Errors
}

// Parse is the convenience entry point used by internal/pipeline.
func Parse(src, file string) (*ast.File, []*diagnostics.DiagnosticError) {
	return New(src, file).ParseProgram(file)
}
