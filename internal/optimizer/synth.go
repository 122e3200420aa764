package optimizer

import (
	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/token"
)

// synthToken builds a token.Token carrying n's own source position, for
// constructing replacement nodes that still report sensible diagnostics.
func synthToken(n ast.Node) token.Token {
	sp := n.Pos()
	return token.Token{Type: token.IDENT, Lexeme: n.TokenLiteral(), File: sp.File, Line: sp.StartLine, Column: sp.StartCol}
}
