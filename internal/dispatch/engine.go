package dispatch

import (
	"fmt"
	"strings"
	"sync"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/convert"
	"github.com/quill-lang/quill/internal/diagnostics"
	"github.com/quill-lang/quill/internal/types"
)

// ClassSentinel is the well-known scope key the evaluator uses to record
// "we are currently inside this class body" (spec §4.7 Class definition).
const ClassSentinel = "__current_class__"

// Engine is the DispatchEngine (spec §4.5): the shared, engine-wide symbol
// table. Its registries (globals, types, functions, modules) are guarded by
// a single RWMutex, since every thread sharing the engine reads them
// constantly and writes rarely (spec §5). Per-thread state — scope stack,
// call-frame stack — lives in DispatchState, one per concurrent call chain,
// never in Engine itself.
type Engine struct {
	mu sync.RWMutex

	globals    map[string]*box.Value // const globals only, per spec §4.5
	mutGlobal  map[string]*box.Value // opt-in mutable globals (GLOBAL decl)
	namedTypes map[string]types.Tag
	functions  map[string][]Function // insertion order preserved
	modules    map[string]bool

	allowMutableGlobals bool

	Conversions *convert.Shared
}

// NewEngine creates an Engine with empty registries over a fresh shared
// conversion table.
func NewEngine() *Engine {
	return &Engine{
		globals:    make(map[string]*box.Value),
		mutGlobal:  make(map[string]*box.Value),
		namedTypes: make(map[string]types.Tag),
		functions:  make(map[string][]Function),
		modules:    make(map[string]bool),
		Conversions: convert.NewShared(),
	}
}

// AllowMutableGlobals toggles the mutable-GLOBAL opt-in (spec §4.5: "mutable
// globals are a configuration opt-in").
func (e *Engine) AllowMutableGlobals(allow bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.allowMutableGlobals = allow
}

func validateName(name string) error {
	if config.IsReservedWord(name) {
		return diagnostics.ReservedWordError(name)
	}
	if strings.Contains(name, "::") {
		return diagnostics.IllegalNameError(name)
	}
	return nil
}

// AddType registers a named type (spec §4.5 add_type).
func (e *Engine) AddType(name string, tag types.Tag) error {
	if err := validateName(name); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.namedTypes[name]; exists {
		return diagnostics.NameConflictError(name)
	}
	e.namedTypes[name] = tag
	return nil
}

// LookupType returns the TypeTag registered under name.
func (e *Engine) LookupType(name string) (types.Tag, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.namedTypes[name]
	return t, ok
}

// AddConversion registers a TypeConversion on the engine's shared table
// (spec §6 add_conversion).
func (e *Engine) AddConversion(c *convert.Conversion) error {
	return e.Conversions.NewView().Add(c)
}

// AddBaseClass registers an upcast from derived to base (spec §6
// add_base_class), so a Catch clause or dispatch parameter declared against
// base also accepts a derived-typed value.
func (e *Engine) AddBaseClass(base, derived types.Tag, project func(*box.Value) (*box.Value, error)) error {
	return e.Conversions.NewView().AddBaseClass(base, derived, project)
}

func signatureEqual(a, b Function) bool {
	if a.Arity() != b.Arity() {
		return false
	}
	ap, bp := a.ParamTypes(), b.ParamTypes()
	if len(ap) != len(bp) {
		return false
	}
	for i := range ap {
		if !ap[i].Equal(bp[i]) {
			return false
		}
	}
	return true
}

// AddFunction registers pf under name, appending to the ordered overload
// list; a signature identical to an existing entry is rejected (spec §4.5).
func (e *Engine) AddFunction(name string, pf Function) error {
	if err := validateName(name); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.functions[name] {
		if signatureEqual(existing, pf) {
			return diagnostics.NameConflictError(name)
		}
	}
	e.functions[name] = append(e.functions[name], pf)
	return nil
}

// Functions returns the ordered overload set registered under name.
func (e *Engine) Functions(name string) []Function {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Function(nil), e.functions[name]...)
}

// HasFunction reports whether any overload is registered under name.
func (e *Engine) HasFunction(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.functions[name]) > 0
}

// AddGlobalConst registers an immutable global (spec §4.5 add_global_const).
func (e *Engine) AddGlobalConst(name string, bv *box.Value) error {
	if err := validateName(name); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.globals[name]; exists {
		return diagnostics.NameConflictError(name)
	}
	e.globals[name] = bv
	return nil
}

// AddMutableGlobal installs or overwrites a mutable global (GLOBAL decl);
// the name must be fresh or previously declared global, and the opt-in must
// be enabled.
func (e *Engine) AddMutableGlobal(name string, bv *box.Value) error {
	if err := validateName(name); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.allowMutableGlobals {
		return fmt.Errorf("mutable globals are disabled for this engine")
	}
	if _, isConst := e.globals[name]; isConst {
		return diagnostics.NameConflictError(name)
	}
	e.mutGlobal[name] = bv
	return nil
}

func (e *Engine) lookupGlobal(name string) (*box.Value, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if v, ok := e.globals[name]; ok {
		return v, true
	}
	if v, ok := e.mutGlobal[name]; ok {
		return v, true
	}
	return nil, false
}

// MarkModuleLoaded records name as loaded (spec §4.5 loaded module set).
func (e *Engine) MarkModuleLoaded(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modules[name] = true
}

// IsModuleLoaded reports whether name has already been loaded.
func (e *Engine) IsModuleLoaded(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.modules[name]
}

// LoadedModules lists every module name marked loaded so far, for
// get_state()'s "active-modules" component (spec §6).
func (e *Engine) LoadedModules() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.modules))
	for name := range e.modules {
		out = append(out, name)
	}
	return out
}

// CallFrame is one entry of the per-thread call-frame stack (spec §4.5),
// used for diagnostics (stack traces) and Return-unwind targeting.
type CallFrame struct {
	FunctionName string
	Args         []*box.Value
	Pos          diagnostics.Position
}

// State is per-thread DispatchEngine state (spec §4.5 "Per-thread scope
// stack", "Per-thread call-frame stack"): one State per concurrent call
// chain sharing the same Engine, carrying its own scopes, call frames, and
// conversion-saves view — nothing here is synchronized because nothing here
// is shared.
type State struct {
	Engine *Engine
	Conv   *convert.Registry // per-call-chain view over Engine.Conversions

	scopes []map[string]*box.Value
	frames []*CallFrame
}

// NewState creates a fresh per-thread dispatch state over engine, with one
// initial (outermost) scope.
func NewState(engine *Engine) *State {
	return &State{
		Engine: engine,
		Conv:   engine.Conversions.NewView(),
		scopes: []map[string]*box.Value{make(map[string]*box.Value)},
	}
}

// NewScope pushes a fresh lexical scope (spec §4.5 new_scope).
func (s *State) NewScope() {
	s.scopes = append(s.scopes, make(map[string]*box.Value))
}

// PopScope pops the innermost lexical scope (spec §4.5 pop_scope).
func (s *State) PopScope() {
	if len(s.scopes) <= 1 {
		return
	}
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// ScopeDepth reports how many scopes are currently on the stack (outermost
// counted), used by the evaluator to detect class-body nesting via
// ClassSentinel lookups.
func (s *State) ScopeDepth() int { return len(s.scopes) }

// Declare creates a new slot in the current (innermost) scope.
func (s *State) Declare(name string, bv *box.Value) error {
	top := s.scopes[len(s.scopes)-1]
	if _, exists := top[name]; exists {
		return diagnostics.NameConflictError(name)
	}
	top[name] = bv
	return nil
}

// DeclareGlobal installs a mutable global via the owning Engine.
func (s *State) DeclareGlobal(name string, bv *box.Value) error {
	return s.Engine.AddMutableGlobal(name, bv)
}

// GetObject implements spec §4.5 get_object: local scopes (innermost
// first), then globals, then the function registry (as a DispatchFunction,
// so a bare function name used as a value works).
func (s *State) GetObject(name string) (*box.Value, error) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v, ok := s.scopes[i][name]; ok {
			return v, nil
		}
	}
	if v, ok := s.Engine.lookupGlobal(name); ok {
		return v, nil
	}
	if s.Engine.HasFunction(name) {
		fn := &DispatchFunction{Name: name, Candidates: s.Engine.Functions(name)}
		return box.FromValue(Function(fn)), nil
	}
	return nil, diagnostics.NameNotFoundError(name)
}

// Assign finds name in the nearest enclosing scope (or globals, if mutable)
// and assigns into it in place; it does not create a new binding.
func (s *State) Assign(name string, bv *box.Value) error {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if existing, ok := s.scopes[i][name]; ok {
			return existing.Assign(bv)
		}
	}
	if existing, ok := s.Engine.lookupGlobal(name); ok {
		return existing.Assign(bv)
	}
	return diagnostics.NameNotFoundError(name)
}

// NewCallFrame pushes a call frame (spec §4.5 new_call_frame).
func (s *State) NewCallFrame(name string, args []*box.Value, pos diagnostics.Position) {
	s.frames = append(s.frames, &CallFrame{FunctionName: name, Args: args, Pos: pos})
}

// PopCallFrame pops the innermost call frame (spec §4.5 pop_call_frame).
func (s *State) PopCallFrame() {
	if len(s.frames) == 0 {
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// Stack returns a snapshot of the current call-frame stack, outermost
// first, for diagnostics (spec §7 stack traces on EvalError).
func (s *State) Stack() []diagnostics.CallFrame {
	out := make([]diagnostics.CallFrame, len(s.frames))
	for i, f := range s.frames {
		out[i] = diagnostics.CallFrame{FuncName: f.FunctionName, Pos: f.Pos}
	}
	return out
}

// CallFunction resolves and invokes name against the engine's function
// registry (spec §4.5 call_function).
func (s *State) CallFunction(name string, args []*box.Value) (*box.Value, error) {
	candidates := s.Engine.Functions(name)
	if len(candidates) == 0 {
		return nil, diagnostics.NameNotFoundError(name)
	}
	return Resolve(name, candidates, args, s.Conv)
}

// CallMember implements spec §4.5 call_member: method dispatch against the
// global function registry (receiver as first argument), falling back to
// the receiver's own attribute map for a function-valued member (so
// instance-bound callbacks and method_missing both work).
func (s *State) CallMember(name string, receiver *box.Value, rest []*box.Value) (*box.Value, error) {
	args := append([]*box.Value{receiver}, rest...)
	if len(rest) == 0 {
		for _, fn := range s.Engine.Functions(name) {
			if aa, ok := fn.(*AttributeAccessFunction); ok && aa.CallMatch(args, s.Conv) {
				return aa.Call(args, s.Conv)
			}
		}
	}
	if s.Engine.HasFunction(name) {
		result, err := s.CallFunction(name, args)
		if err == nil {
			return result, nil
		}
		if attrFn, ok := lookupAttrFunction(receiver, name); ok {
			return attrFn.Call(rest, s.Conv)
		}
		return nil, err
	}
	if attrFn, ok := lookupAttrFunction(receiver, name); ok {
		return attrFn.Call(rest, s.Conv)
	}
	if s.Engine.HasFunction(config.MethodMissingName) {
		mmArgs := append([]*box.Value{receiver, box.FromValue(name)}, rest...)
		return s.CallFunction(config.MethodMissingName, mmArgs)
	}
	return nil, diagnostics.NameNotFoundError(name)
}

func lookupAttrFunction(receiver *box.Value, name string) (Function, bool) {
	attrs := receiver.Attrs()
	if attrs == nil {
		return nil, false
	}
	v, ok := attrs[name]
	if !ok || v.IsEmpty() {
		return nil, false
	}
	fn, ok := v.Interface().(Function)
	return fn, ok
}
