// Package ast defines the syntax tree produced by the parser (spec §4.6)
// and walked by the evaluator (spec §4.7) and optimizer (spec §4.8).
//
// Each node carries its source Span so errors and the optimizer's rewrites
// can report accurate positions. Nodes are evaluated via a type switch in
// the evaluator rather than a Visitor interface — grounded on the
// tree-walking fork of this codebase's own evaluator, which dispatches on
// concrete *ast.X types directly.
package ast

import "github.com/quill-lang/quill/internal/token"

// Span is a source range with start and end positions (spec §4.6).
type Span struct {
	File       string
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
}

func SpanOf(tok token.Token) Span {
	return Span{File: tok.File, StartLine: tok.Line, StartCol: tok.Column, EndLine: tok.Line, EndCol: tok.Column}
}

// Node is the common interface for every AST node kind.
type Node interface {
	TokenLiteral() string
	Pos() Span
}

// Kind names every node variant listed in spec §4.6, used for diagnostics
// and by the optimizer's pass dispatch.
type Kind string

const (
	KindID           Kind = "Id"
	KindFunCall      Kind = "FunCall"
	KindArgList      Kind = "ArgList"
	KindArg          Kind = "Arg"
	KindEquation     Kind = "Equation"
	KindVarDecl      Kind = "VarDecl"
	KindAssignDecl   Kind = "AssignDecl"
	KindGlobalDecl   Kind = "GlobalDecl"
	KindArrayCall    Kind = "ArrayCall"
	KindDotAccess    Kind = "DotAccess"
	KindLambda       Kind = "Lambda"
	KindBlock        Kind = "Block"
	KindScopelessBlk Kind = "ScopelessBlock"
	KindDef          Kind = "Def"
	KindMethod       Kind = "Method"
	KindAttrDecl     Kind = "AttrDecl"
	KindWhile        Kind = "While"
	KindIf           Kind = "If"
	KindTernaryCond  Kind = "TernaryCond"
	KindFor          Kind = "For"
	KindRangedFor    Kind = "RangedFor"
	KindSwitch       Kind = "Switch"
	KindCase         Kind = "Case"
	KindDefault      Kind = "Default"
	KindInlineArray  Kind = "InlineArray"
	KindInlineMap    Kind = "InlineMap"
	KindInlineRange  Kind = "InlineRange"
	KindMapPair      Kind = "MapPair"
	KindValueRange   Kind = "ValueRange"
	KindReturn       Kind = "Return"
	KindBreak        Kind = "Break"
	KindContinue     Kind = "Continue"
	KindTry          Kind = "Try"
	KindCatch        Kind = "Catch"
	KindFinally      Kind = "Finally"
	KindClass        Kind = "Class"
	KindBinary       Kind = "Binary"
	KindPrefix       Kind = "Prefix"
	KindLogicalAnd   Kind = "LogicalAnd"
	KindLogicalOr    Kind = "LogicalOr"
	KindReference    Kind = "Reference"
	KindConstant     Kind = "Constant"
	KindFile         Kind = "File"
	KindNoop         Kind = "Noop"
	KindUnusedRetFun Kind = "UnusedReturnFunCall"
	KindForSpecial   Kind = "ForSpecialized"
)

type base struct {
	Tok  token.Token
	Span Span
}

func (b *base) TokenLiteral() string { return b.Tok.Lexeme }
func (b *base) Pos() Span            { return b.Span }

func mk(tok token.Token) base { return base{Tok: tok, Span: SpanOf(tok)} }

// File is the root node of a compiled program (one source file).
type File struct {
	base
	Name       string
	Statements []Node
}

func (n *File) Kind() Kind { return KindFile }
func NewFile(tok token.Token, name string, stmts []Node) *File {
	return &File{base: mk(tok), Name: name, Statements: stmts}
}

// Noop evaluates to an undefined BoxedValue and does nothing else.
type Noop struct{ base }

func (n *Noop) Kind() Kind { return KindNoop }
func NewNoop(tok token.Token) *Noop { return &Noop{base: mk(tok)} }

// Id is a bare identifier reference.
type Id struct {
	base
	Name string
}

func (n *Id) Kind() Kind { return KindID }
func NewId(tok token.Token, name string) *Id { return &Id{base: mk(tok), Name: name} }

// Constant is a literal whose value the lexer/parser already resolved
// (int, float, string, char, bool literals all collapse to this node).
type Constant struct {
	base
	ValueKind string // "int", "float", "string", "char", "bool"
	Text      string
}

func (n *Constant) Kind() Kind { return KindConstant }
func NewConstant(tok token.Token, valueKind, text string) *Constant {
	return &Constant{base: mk(tok), ValueKind: valueKind, Text: text}
}

// Arg is a single call argument (ArgList holds zero or more of these).
type Arg struct {
	base
	Value Node
}

func (n *Arg) Kind() Kind { return KindArg }
func NewArg(tok token.Token, value Node) *Arg { return &Arg{base: mk(tok), Value: value} }

// ArgList groups the evaluated arguments of a FunCall.
type ArgList struct {
	base
	Args []Node
}

func (n *ArgList) Kind() Kind { return KindArgList }
func NewArgList(tok token.Token, args []Node) *ArgList { return &ArgList{base: mk(tok), Args: args} }

// FunCall calls Callee (an Id or any other expression yielding a
// ProxyFunction) with Args. A `recv.method(args)` call is a DotAccess with
// IsCall set, not a FunCall.
type FunCall struct {
	base
	Callee Node
	Args   []Node
}

func (n *FunCall) Kind() Kind { return KindFunCall }
func NewFunCall(tok token.Token, callee Node, args []Node) *FunCall {
	return &FunCall{base: mk(tok), Callee: callee, Args: args}
}

// UnusedReturnFunCall marks a FunCall in statement position whose result is
// discarded — an optimizer annotation (spec §4.8).
type UnusedReturnFunCall struct {
	base
	Call *FunCall
}

func (n *UnusedReturnFunCall) Kind() Kind { return KindUnusedRetFun }

// Equation is an assignment expression: LHS <op> RHS.
type Equation struct {
	base
	Operator string
	LHS      Node
	RHS      Node
}

func (n *Equation) Kind() Kind { return KindEquation }
func NewEquation(tok token.Token, op string, lhs, rhs Node) *Equation {
	return &Equation{base: mk(tok), Operator: op, LHS: lhs, RHS: rhs}
}

// VarDecl: `var x` or `var x = expr`.
type VarDecl struct {
	base
	Name  string
	Value Node // nil if undeclared
}

func (n *VarDecl) Kind() Kind { return KindVarDecl }
func NewVarDecl(tok token.Token, name string, value Node) *VarDecl {
	return &VarDecl{base: mk(tok), Name: name, Value: value}
}

// AssignDecl: `&x` — declares x as a reference slot filled by the next assignment.
type AssignDecl struct {
	base
	Name string
}

func (n *AssignDecl) Kind() Kind { return KindAssignDecl }
func NewAssignDecl(tok token.Token, name string) *AssignDecl {
	return &AssignDecl{base: mk(tok), Name: name}
}

// GlobalDecl: `global x` / `GLOBAL x` — adds a fresh mutable global.
type GlobalDecl struct {
	base
	Name  string
	Value Node
}

func (n *GlobalDecl) Kind() Kind { return KindGlobalDecl }
func NewGlobalDecl(tok token.Token, name string, value Node) *GlobalDecl {
	return &GlobalDecl{base: mk(tok), Name: name, Value: value}
}

// ArrayCall: `expr[index]`.
type ArrayCall struct {
	base
	Target Node
	Index  Node
}

func (n *ArrayCall) Kind() Kind { return KindArrayCall }
func NewArrayCall(tok token.Token, target, index Node) *ArrayCall {
	return &ArrayCall{base: mk(tok), Target: target, Index: index}
}

// DotAccess: `expr.member` — a bare attribute read when IsCall is false, or
// `expr.member(args)` when true, with Args holding the (possibly empty)
// parenthesized argument list. Both forms evaluate through call_member (spec
// §4.7), matching ChaiScript's Dot_Access_AST_Node which always routes
// through call_member and varies only whether call arguments are attached.
type DotAccess struct {
	base
	Target Node
	Member string
	Args   []Node
	IsCall bool
}

func (n *DotAccess) Kind() Kind { return KindDotAccess }
func NewDotAccess(tok token.Token, target Node, member string) *DotAccess {
	return &DotAccess{base: mk(tok), Target: target, Member: member}
}

// NewMethodCall builds a DotAccess for `target.member(args)`.
func NewMethodCall(tok token.Token, target Node, member string, args []Node) *DotAccess {
	return &DotAccess{base: mk(tok), Target: target, Member: member, Args: args, IsCall: true}
}

// Lambda is an anonymous function capturing free variables by value.
type Lambda struct {
	base
	Captures []string
	Params   []Param
	Guard    Node // optional guard expression, nil if absent
	Body     Node
}

func (n *Lambda) Kind() Kind { return KindLambda }
func NewLambda(tok token.Token, captures []string, params []Param, guard, body Node) *Lambda {
	return &Lambda{base: mk(tok), Captures: captures, Params: params, Guard: guard, Body: body}
}

// Param is one formal parameter, optionally typed by name (dynamic typing
// only validates the name exists; true type filtering happens via ParamTypes
// resolved at registration time in the dispatch engine).
type Param struct {
	Name     string
	TypeName string // "" if untyped
}

// Block pushes a scope, evaluates children in order, pops on every exit path.
type Block struct {
	base
	Statements []Node
}

func (n *Block) Kind() Kind { return KindBlock }
func NewBlock(tok token.Token, stmts []Node) *Block { return &Block{base: mk(tok), Statements: stmts} }

// ScopelessBlock is optimizer-produced: same as Block but does not push/pop
// a scope (spec §4.8 Block-folding).
type ScopelessBlock struct {
	base
	Statements []Node
}

func (n *ScopelessBlock) Kind() Kind { return KindScopelessBlk }
func NewScopelessBlock(tok token.Token, stmts []Node) *ScopelessBlock {
	return &ScopelessBlock{base: mk(tok), Statements: stmts}
}

// Def declares a (possibly guarded) free function.
type Def struct {
	base
	Name   string
	Params []Param
	Guard  Node
	Body   Node
}

func (n *Def) Kind() Kind { return KindDef }
func NewDef(tok token.Token, name string, params []Param, guard, body Node) *Def {
	return &Def{base: mk(tok), Name: name, Params: params, Guard: guard, Body: body}
}

// Method declares a function inside a Class body; ClassName is filled by the
// evaluator from the enclosing Class sentinel (spec §4.7).
type Method struct {
	base
	ClassName string
	Name      string
	Params    []Param
	Guard     Node
	Body      Node
}

func (n *Method) Kind() Kind { return KindMethod }
func NewMethod(tok token.Token, className, name string, params []Param, guard, body Node) *Method {
	return &Method{base: mk(tok), ClassName: className, Name: name, Params: params, Guard: guard, Body: body}
}

// AttrDecl: `attr x;` inside a Class body.
type AttrDecl struct {
	base
	ClassName string
	Name      string
}

func (n *AttrDecl) Kind() Kind { return KindAttrDecl }
func NewAttrDecl(tok token.Token, className, name string) *AttrDecl {
	return &AttrDecl{base: mk(tok), ClassName: className, Name: name}
}

// Class defines a dynamic-object type: a named sequence of Method and
// AttrDecl statements.
type Class struct {
	base
	Name    string
	Members []Node // *Method and *AttrDecl
}

func (n *Class) Kind() Kind { return KindClass }
func NewClass(tok token.Token, name string, members []Node) *Class {
	return &Class{base: mk(tok), Name: name, Members: members}
}

// While loop.
type While struct {
	base
	Cond Node
	Body Node
}

func (n *While) Kind() Kind { return KindWhile }
func NewWhile(tok token.Token, cond, body Node) *While {
	return &While{base: mk(tok), Cond: cond, Body: body}
}

// For loop: classical init; cond; step; body.
type For struct {
	base
	Init Node
	Cond Node
	Step Node
	Body Node
}

func (n *For) Kind() Kind { return KindFor }
func NewFor(tok token.Token, init, cond, step, body Node) *For {
	return &For{base: mk(tok), Init: init, Cond: cond, Step: step, Body: body}
}

// ForSpecialized is an optimizer-produced replacement for the canonical
// `for(var i=const; i<const; ++i)` shape (spec §4.8).
type ForSpecialized struct {
	base
	Var   string
	Start int64
	End   int64
	Body  Node
}

func (n *ForSpecialized) Kind() Kind { return KindForSpecial }

// RangedFor: `for (x in expr) body`.
type RangedFor struct {
	base
	Var  string
	Expr Node
	Body Node
}

func (n *RangedFor) Kind() Kind { return KindRangedFor }
func NewRangedFor(tok token.Token, v string, expr, body Node) *RangedFor {
	return &RangedFor{base: mk(tok), Var: v, Expr: expr, Body: body}
}

// If/ElseIf/Else chain. Arms[i] has no Cond for the trailing else, if present.
type IfArm struct {
	Cond Node // nil for the trailing else
	Body Node
}

type If struct {
	base
	Arms []IfArm
}

func (n *If) Kind() Kind { return KindIf }
func NewIf(tok token.Token, arms []IfArm) *If { return &If{base: mk(tok), Arms: arms} }

// TernaryCond: `cond ? then : else`.
type TernaryCond struct {
	base
	Cond Node
	Then Node
	Else Node
}

func (n *TernaryCond) Kind() Kind { return KindTernaryCond }
func NewTernaryCond(tok token.Token, cond, then, els Node) *TernaryCond {
	return &TernaryCond{base: mk(tok), Cond: cond, Then: then, Else: els}
}

// Switch/Case/Default.
type Case struct {
	base
	Value Node
	Body  []Node
}

func (n *Case) Kind() Kind { return KindCase }
func NewCase(tok token.Token, value Node, body []Node) *Case {
	return &Case{base: mk(tok), Value: value, Body: body}
}

type Default struct {
	base
	Body []Node
}

func (n *Default) Kind() Kind { return KindDefault }
func NewDefault(tok token.Token, body []Node) *Default { return &Default{base: mk(tok), Body: body} }

type Switch struct {
	base
	Discriminant Node
	Cases        []*Case
	Default      *Default
}

func (n *Switch) Kind() Kind { return KindSwitch }
func NewSwitch(tok token.Token, discriminant Node, cases []*Case, def *Default) *Switch {
	return &Switch{base: mk(tok), Discriminant: discriminant, Cases: cases, Default: def}
}

// InlineArray: `[a, b, c]`.
type InlineArray struct {
	base
	Elements []Node
}

func (n *InlineArray) Kind() Kind { return KindInlineArray }
func NewInlineArray(tok token.Token, elems []Node) *InlineArray {
	return &InlineArray{base: mk(tok), Elements: elems}
}

// MapPair: `k: v` inside an InlineMap.
type MapPair struct {
	base
	Key   Node
	Value Node
}

func (n *MapPair) Kind() Kind { return KindMapPair }
func NewMapPair(tok token.Token, key, value Node) *MapPair {
	return &MapPair{base: mk(tok), Key: key, Value: value}
}

// InlineMap: `["a":1, "b":2]`.
type InlineMap struct {
	base
	Pairs []*MapPair
}

func (n *InlineMap) Kind() Kind { return KindInlineMap }
func NewInlineMap(tok token.Token, pairs []*MapPair) *InlineMap {
	return &InlineMap{base: mk(tok), Pairs: pairs}
}

// ValueRange / InlineRange: `[a..b]`, lowered to a call of generate_range.
type ValueRange struct {
	base
	From Node
	To   Node
}

func (n *ValueRange) Kind() Kind { return KindValueRange }
func NewValueRange(tok token.Token, from, to Node) *ValueRange {
	return &ValueRange{base: mk(tok), From: from, To: to}
}

type InlineRange struct {
	base
	Range *ValueRange
}

func (n *InlineRange) Kind() Kind { return KindInlineRange }
func NewInlineRange(tok token.Token, r *ValueRange) *InlineRange {
	return &InlineRange{base: mk(tok), Range: r}
}

// Return/Break/Continue unwind control flow (spec §4.7).
type Return struct {
	base
	Value Node // nil => undefined
}

func (n *Return) Kind() Kind { return KindReturn }
func NewReturn(tok token.Token, value Node) *Return { return &Return{base: mk(tok), Value: value} }

type Break struct{ base }

func (n *Break) Kind() Kind { return KindBreak }
func NewBreak(tok token.Token) *Break { return &Break{base: mk(tok)} }

type Continue struct{ base }

func (n *Continue) Kind() Kind { return KindContinue }
func NewContinue(tok token.Token) *Continue { return &Continue{base: mk(tok)} }

// Try/Catch/Finally.
type Catch struct {
	base
	ExcName  string // "" if unnamed
	TypeName string // "" if untyped (catches anything)
	Guard    Node
	Body     Node
}

func (n *Catch) Kind() Kind { return KindCatch }
func NewCatch(tok token.Token, excName, typeName string, guard, body Node) *Catch {
	return &Catch{base: mk(tok), ExcName: excName, TypeName: typeName, Guard: guard, Body: body}
}

type Finally struct {
	base
	Body Node
}

func (n *Finally) Kind() Kind { return KindFinally }
func NewFinally(tok token.Token, body Node) *Finally { return &Finally{base: mk(tok), Body: body} }

type Try struct {
	base
	Body    Node
	Catches []*Catch
	Finally *Finally // nil if absent
}

func (n *Try) Kind() Kind { return KindTry }
func NewTry(tok token.Token, body Node, catches []*Catch, fin *Finally) *Try {
	return &Try{base: mk(tok), Body: body, Catches: catches, Finally: fin}
}

// Binary is a non-short-circuiting infix operator application.
type Binary struct {
	base
	Operator string
	Left     Node
	Right    Node
}

func (n *Binary) Kind() Kind { return KindBinary }
func NewBinary(tok token.Token, op string, left, right Node) *Binary {
	return &Binary{base: mk(tok), Operator: op, Left: left, Right: right}
}

// BinaryFoldRight is produced by the optimizer's partial-fold pass: a
// binary operator specialized against a known constant RHS (spec §4.8).
type BinaryFoldRight struct {
	base
	Operator string
	Left     Node
	Constant *Constant
}

func (n *BinaryFoldRight) Kind() Kind { return KindBinary }

// Prefix is a prefix unary operator application: `-x`, `!x`, `~x`. (`++x`
// and `--x` are parsed as `+=`/`-=` Equations, not as Prefix nodes.)
type Prefix struct {
	base
	Operator string
	Right    Node
}

func (n *Prefix) Kind() Kind { return KindPrefix }
func NewPrefix(tok token.Token, op string, right Node) *Prefix {
	return &Prefix{base: mk(tok), Operator: op, Right: right}
}

// LogicalAnd / LogicalOr short-circuit and never dispatch through the
// function registry (spec §4.7).
type LogicalAnd struct {
	base
	Left  Node
	Right Node
}

func (n *LogicalAnd) Kind() Kind { return KindLogicalAnd }
func NewLogicalAnd(tok token.Token, left, right Node) *LogicalAnd {
	return &LogicalAnd{base: mk(tok), Left: left, Right: right}
}

type LogicalOr struct {
	base
	Left  Node
	Right Node
}

func (n *LogicalOr) Kind() Kind { return KindLogicalOr }
func NewLogicalOr(tok token.Token, left, right Node) *LogicalOr {
	return &LogicalOr{base: mk(tok), Left: left, Right: right}
}

// Reference wraps an expression whose evaluated BoxedValue must remain a
// live reference rather than be copied (used by `&x` targets and reference
// parameters).
type Reference struct {
	base
	Target Node
}

func (n *Reference) Kind() Kind { return KindReference }
func NewReference(tok token.Token, target Node) *Reference {
	return &Reference{base: mk(tok), Target: target}
}
