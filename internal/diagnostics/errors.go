// Package diagnostics defines the engine's error taxonomy (spec §7): a small
// set of typed errors carrying enough context (file/line/column, candidate
// sets, attempted arguments) for a host to print a useful message.
package diagnostics

import (
	"fmt"
	"strings"
)

// ErrorCode identifies the class of a diagnostic, independent of its message.
type ErrorCode string

const (
	ErrParse        ErrorCode = "E_PARSE"
	ErrDispatch     ErrorCode = "E_DISPATCH"
	ErrArity        ErrorCode = "E_ARITY"
	ErrBadCast      ErrorCode = "E_BAD_CAST"
	ErrArithmetic   ErrorCode = "E_ARITHMETIC"
	ErrGuard        ErrorCode = "E_GUARD"
	ErrReservedWord ErrorCode = "E_RESERVED_WORD"
	ErrIllegalName  ErrorCode = "E_ILLEGAL_NAME"
	ErrNameConflict ErrorCode = "E_NAME_CONFLICT"
	ErrEval         ErrorCode = "E_EVAL"
	ErrLoadModule   ErrorCode = "E_LOAD_MODULE"
	ErrFileNotFound ErrorCode = "E_FILE_NOT_FOUND"
	ErrNameNotFound ErrorCode = "E_NAME_NOT_FOUND"
)

// Position is a single point in source text.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// DiagnosticError is the common shape for every error kind in §7's taxonomy.
type DiagnosticError struct {
	Code   ErrorCode
	Pos    Position
	Reason string
	// Wrapped is the underlying cause, if any (e.g. an EvalError wrapping a
	// DispatchError per the propagation policy in §7).
	Wrapped error
}

func (e *DiagnosticError) Error() string {
	if e.Pos.Line == 0 && e.Pos.File == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Reason)
}

func (e *DiagnosticError) Unwrap() error { return e.Wrapped }

func New(code ErrorCode, pos Position, reason string) *DiagnosticError {
	return &DiagnosticError{Code: code, Pos: pos, Reason: reason}
}

func Wrap(code ErrorCode, pos Position, reason string, cause error) *DiagnosticError {
	return &DiagnosticError{Code: code, Pos: pos, Reason: reason, Wrapped: cause}
}

// ParseError — malformed source; carries filename, line, column, explanation.
func ParseError(pos Position, explanation string) *DiagnosticError {
	return New(ErrParse, pos, explanation)
}

// DispatchError — no candidate matched; carries the attempted argument list
// and the candidate set for diagnostics.
type DispatchError struct {
	*DiagnosticError
	FunctionName string
	ArgTypes     []string
	Candidates   []string
}

func NewDispatchError(pos Position, name string, argTypes, candidates []string) *DispatchError {
	reason := fmt.Sprintf("no matching overload for %s(%s); candidates:\n  %s",
		name, strings.Join(argTypes, ", "), strings.Join(candidates, "\n  "))
	return &DispatchError{
		DiagnosticError: New(ErrDispatch, pos, reason),
		FunctionName:    name,
		ArgTypes:        argTypes,
		Candidates:      candidates,
	}
}

// ArityError — expected vs. got, a specific DispatchError sub-case.
func ArityError(pos Position, name string, expected, got int) *DiagnosticError {
	return New(ErrArity, pos, fmt.Sprintf("%s: expected %d argument(s), got %d", name, expected, got))
}

// BadCastError — a requested type projection is impossible.
func BadCastError(from, to string) *DiagnosticError {
	return New(ErrBadCast, Position{}, fmt.Sprintf("cannot cast %s to %s", from, to))
}

// ArithmeticError — division by zero or analogous numeric misuse.
func ArithmeticError(pos Position, reason string) *DiagnosticError {
	return New(ErrArithmetic, pos, reason)
}

// GuardError — a script function's guard clause evaluated false.
func GuardError(name string) *DiagnosticError {
	return New(ErrGuard, Position{}, fmt.Sprintf("guard clause failed for %s", name))
}

func ReservedWordError(name string) *DiagnosticError {
	return New(ErrReservedWord, Position{}, fmt.Sprintf("%q is a reserved word", name))
}

func IllegalNameError(name string) *DiagnosticError {
	return New(ErrIllegalName, Position{}, fmt.Sprintf("%q is not a legal identifier", name))
}

func NameConflictError(name string) *DiagnosticError {
	return New(ErrNameConflict, Position{}, fmt.Sprintf("%q is already registered with an incompatible signature", name))
}

// CallFrame is one entry in the call stack attached to an EvalError.
type CallFrame struct {
	FuncName string
	Pos      Position
}

// EvalError — top-level script error; wraps one of the above with a call
// stack of AST nodes and a textual reason.
type EvalError struct {
	*DiagnosticError
	Stack []CallFrame
}

func NewEvalError(pos Position, reason string, cause error, stack []CallFrame) *EvalError {
	return &EvalError{
		DiagnosticError: Wrap(ErrEval, pos, reason, cause),
		Stack:           stack,
	}
}

func (e *EvalError) Error() string {
	var b strings.Builder
	b.WriteString(e.DiagnosticError.Error())
	for _, f := range e.Stack {
		fmt.Fprintf(&b, "\n  at %s (%s)", f.FuncName, f.Pos)
	}
	return b.String()
}

func LoadModuleError(name string, cause error) *DiagnosticError {
	return Wrap(ErrLoadModule, Position{}, fmt.Sprintf("failed to load module %q", name), cause)
}

func FileNotFoundError(path string, searchPaths []string) *DiagnosticError {
	return New(ErrFileNotFound, Position{}, fmt.Sprintf("file %q not found in search paths: %s", path, strings.Join(searchPaths, ", ")))
}

// NameNotFoundError — get_object/assign could not resolve name in any scope,
// the globals table, or the function registry.
func NameNotFoundError(name string) *DiagnosticError {
	return New(ErrNameNotFound, Position{}, fmt.Sprintf("name not found: %s", name))
}
