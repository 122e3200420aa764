package parser

import (
	"testing"

	"github.com/quill-lang/quill/internal/ast"
)

func parseExprString(t *testing.T, src string) ast.Node {
	t.Helper()
	p := New(src, "test.ch")
	expr := p.parseAssignment()
	if len(p.Errors) > 0 {
		t.Fatalf("parse %q: %v", src, p.Errors)
	}
	return expr
}

// TestIncrementRewritesToCompoundAssign covers spec scenario 7's "++i": the
// lexer/parser previously had no "++"/"--" tokens at all, so this literal
// couldn't even be lexed. Prefix "++"/"--" now rewrite at parse time into the
// equivalent "+="/"-=" Equation, reusing the compound-assignment evaluator
// and the for-loop optimizer's isIncrementOf recognizer unchanged.
func TestIncrementRewritesToCompoundAssign(t *testing.T) {
	expr := parseExprString(t, "++i")
	eq, ok := expr.(*ast.Equation)
	if !ok {
		t.Fatalf("++i parsed as %T, want *ast.Equation", expr)
	}
	if eq.Operator != "+=" {
		t.Errorf("Operator = %q, want \"+=\"", eq.Operator)
	}
	id, ok := eq.LHS.(*ast.Id)
	if !ok || id.Name != "i" {
		t.Errorf("LHS = %#v, want Id(i)", eq.LHS)
	}
	rhs, ok := eq.RHS.(*ast.Constant)
	if !ok || rhs.Text != "1" {
		t.Errorf("RHS = %#v, want Constant(1)", eq.RHS)
	}
}

func TestDecrementRewritesToCompoundAssign(t *testing.T) {
	expr := parseExprString(t, "--count")
	eq, ok := expr.(*ast.Equation)
	if !ok {
		t.Fatalf("--count parsed as %T, want *ast.Equation", expr)
	}
	if eq.Operator != "-=" {
		t.Errorf("Operator = %q, want \"-=\"", eq.Operator)
	}
}

// TestForLoopStepParsesIncrement exercises the exact shape of spec scenario
// 7: "for(var i=0; i<10; ++i)". The step slot goes through parseAssignment,
// same as any other expression statement, so "++i" must parse there too.
func TestForLoopStepParsesIncrement(t *testing.T) {
	p := New("for (var i = 0; i < 10; ++i) { s += i }", "test.ch")
	file, errs := p.ParseProgram("test")
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	if len(file.Statements) != 1 {
		t.Fatalf("expected 1 top-level statement, got %d", len(file.Statements))
	}
	forStmt, ok := file.Statements[0].(*ast.For)
	if !ok {
		t.Fatalf("statement is %T, want *ast.For", file.Statements[0])
	}
	step, ok := forStmt.Step.(*ast.Equation)
	if !ok {
		t.Fatalf("for-step is %T, want *ast.Equation", forStmt.Step)
	}
	if step.Operator != "+=" {
		t.Errorf("for-step Operator = %q, want \"+=\"", step.Operator)
	}
}

// TestMethodCallParsesAsDotAccess covers review item (b): a parenthesized
// method call must keep the DotAccess node (receiver-aware) rather than
// being rewritten into a disjoint FunCall, so evaluation can still route
// through call_member.
func TestMethodCallParsesAsDotAccess(t *testing.T) {
	expr := parseExprString(t, "dog.speak(1, 2)")
	dot, ok := expr.(*ast.DotAccess)
	if !ok {
		t.Fatalf("dog.speak(1, 2) parsed as %T, want *ast.DotAccess", expr)
	}
	if !dot.IsCall {
		t.Errorf("IsCall = false, want true for a parenthesized call")
	}
	if dot.Member != "speak" {
		t.Errorf("Member = %q, want \"speak\"", dot.Member)
	}
	target, ok := dot.Target.(*ast.Id)
	if !ok || target.Name != "dog" {
		t.Errorf("Target = %#v, want Id(dog)", dot.Target)
	}
	if len(dot.Args) != 2 {
		t.Fatalf("len(Args) = %d, want 2", len(dot.Args))
	}
}

// TestBareMemberAccessIsNotACall ensures a plain attribute read ("dog.name",
// no parens) keeps IsCall false so evalDotAccess takes the bare-read branch.
func TestBareMemberAccessIsNotACall(t *testing.T) {
	expr := parseExprString(t, "dog.name")
	dot, ok := expr.(*ast.DotAccess)
	if !ok {
		t.Fatalf("dog.name parsed as %T, want *ast.DotAccess", expr)
	}
	if dot.IsCall {
		t.Errorf("IsCall = true, want false for a bare attribute read")
	}
	if dot.Args != nil {
		t.Errorf("Args = %v, want nil", dot.Args)
	}
}

// TestPlainCallIsStillFunCall guards against over-correcting: calling a bare
// identifier (no receiver) must still produce a FunCall, not a DotAccess.
func TestPlainCallIsStillFunCall(t *testing.T) {
	expr := parseExprString(t, "greet(1)")
	call, ok := expr.(*ast.FunCall)
	if !ok {
		t.Fatalf("greet(1) parsed as %T, want *ast.FunCall", expr)
	}
	id, ok := call.Callee.(*ast.Id)
	if !ok || id.Name != "greet" {
		t.Errorf("Callee = %#v, want Id(greet)", call.Callee)
	}
}
