// Package engine is the embeddable facade (spec §2 C9, §6 "External
// Interfaces"): host programs construct an Engine, register whatever
// host-side types/functions/conversions they need, then call Eval/EvalFile
// to run script source. Grounded on funvibe-funxy/pkg/embed.VM's shape
// (a thin wrapper gluing the pipeline to a persistent runtime state), with
// bindings replaced by Quill's own AddFunction/AddGlobal/... registration
// surface instead of reflection-based Go-func binding.
package engine

import (
	"fmt"
	"os"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/convert"
	"github.com/quill-lang/quill/internal/dispatch"
	"github.com/quill-lang/quill/internal/evaluator"
	"github.com/quill-lang/quill/internal/modules"
	"github.com/quill-lang/quill/internal/pipeline"
	"github.com/quill-lang/quill/internal/stdlib"
	"github.com/quill-lang/quill/internal/types"
)

// Engine is the host-facing embeddable Quill interpreter.
type Engine struct {
	dispatch *dispatch.Engine
	state    *dispatch.State
	eval     *evaluator.Evaluator
	loader   modules.Loader
	native   *modules.NativeLoader
	used     []string // resolved paths already pulled in via use(), in order
}

// New builds an Engine with the standard library registered and a
// filesystem module loader rooted at the current directory.
func New() (*Engine, error) {
	return NewWithLoader(modules.NewFileLoader())
}

// NewWithLoader is New with an explicit use()-resolution Loader, for hosts
// embedding Quill with a non-filesystem script source (an archive, a
// virtual fs, a network fetch).
func NewWithLoader(loader modules.Loader) (*Engine, error) {
	de := dispatch.NewEngine()
	if err := stdlib.Register(de); err != nil {
		return nil, fmt.Errorf("registering standard library: %w", err)
	}
	st := dispatch.NewState(de)
	ev := evaluator.New(st)

	e := &Engine{
		dispatch: de,
		state:    st,
		eval:     ev,
		loader:   loader,
		native:   modules.NewNativeLoader(),
	}
	if err := e.registerSelfPrimitives(); err != nil {
		return nil, err
	}
	return e, nil
}

// run parses, optimizes, and evaluates source through the shared pipeline
// (spec §4.6-§4.8), against this Engine's persistent evaluator state so
// globals/functions/classes a script defines stay visible to later Eval
// calls (spec §8 scenario: REPL session continuity).
func (e *Engine) run(source, file string) (*box.Value, error) {
	ctx := pipeline.NewPipelineContext(source)
	ctx.File = file
	p := pipeline.New(pipeline.LexerProcessor{}, pipeline.ParserProcessor{}, pipeline.OptimizerProcessor{})
	ctx = p.Run(ctx)
	if !ctx.OK() {
		return nil, ctx.Diagnostics[0]
	}
	if ctx.AST == nil {
		return box.NewEmpty(), nil
	}
	return e.eval.EvalProgram(ctx.AST)
}

// Eval executes source in the engine's persistent top-level scope and
// returns its final expression's value (spec §6 "eval (self)").
func (e *Engine) Eval(source string) (*box.Value, error) {
	return e.run(source, "<eval>")
}

// EvalFile reads path and evaluates it the same way Eval does (spec §6
// "eval_file"), recording path so a later use(path) is recognized as
// already loaded.
func (e *Engine) EvalFile(path string) (*box.Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := e.run(string(src), path)
	if err == nil {
		e.used = append(e.used, path)
		if resolved, rerr := e.loader.Resolve(path); rerr == nil {
			e.dispatch.MarkModuleLoaded(resolved)
		}
	}
	return v, err
}

// Use loads and evaluates path exactly once: a second Use call for a path
// already resolved to the same canonical form is a no-op that returns the
// empty value, per spec §8 scenario 7 ("two calls with the same resolved
// path produce the same side-effect set as one").
func (e *Engine) Use(path string) (*box.Value, error) {
	resolved, err := e.loader.Resolve(path)
	if err != nil {
		return nil, err
	}
	if e.dispatch.IsModuleLoaded(resolved) {
		return box.NewEmpty(), nil
	}
	src, err := e.loader.Load(resolved)
	if err != nil {
		return nil, err
	}
	v, err := e.run(src, resolved)
	if err != nil {
		return nil, err
	}
	e.dispatch.MarkModuleLoaded(resolved)
	e.used = append(e.used, resolved)
	return v, nil
}

// LoadModule installs a native (compiled-in) module by name, the in-process
// substitute for OS-level dynamic library loading (spec §9; see
// internal/modules.NativeLoader's doc comment for the scope boundary).
func (e *Engine) LoadModule(name, filename string) error {
	if e.dispatch.IsModuleLoaded(name) {
		return nil
	}
	m, err := e.native.Load(name, filename)
	if err != nil {
		return err
	}
	if err := m.Register(e.dispatch); err != nil {
		return err
	}
	e.dispatch.MarkModuleLoaded(name)
	return nil
}

// RegisterNativeModule makes m available to a later LoadModule(name, "")
// call, for host programs that compile their own modules directly into
// the binary instead of loading them dynamically.
func (e *Engine) RegisterNativeModule(name string, m modules.NativeModule) {
	e.native.Register(name, m)
}

// AddType registers a host TypeTag under name (spec §6 add_type-equivalent
// host registration surface).
func (e *Engine) AddType(name string, tag types.Tag) error {
	return e.dispatch.AddType(name, tag)
}

// AddFunction registers a ProxyFunction under name (spec §6 add_function).
func (e *Engine) AddFunction(name string, fn dispatch.Function) error {
	return e.dispatch.AddFunction(name, fn)
}

// AddGlobal registers a mutable global (spec §6 add_global); the engine
// must have mutable globals enabled (spec §4.5) or this returns an error.
func (e *Engine) AddGlobal(name string, v *box.Value) error {
	return e.dispatch.AddMutableGlobal(name, v)
}

// AddGlobalConst registers an immutable global (spec §6 add_global_const).
func (e *Engine) AddGlobalConst(name string, v *box.Value) error {
	return e.dispatch.AddGlobalConst(name, v)
}

// AllowMutableGlobals toggles whether AddGlobal/the GLOBAL script keyword
// may create mutable globals (spec §4.5 "mutable globals are a
// configuration opt-in").
func (e *Engine) AllowMutableGlobals(allow bool) {
	e.dispatch.AllowMutableGlobals(allow)
}

// AddConversion registers a host type conversion (spec §6 add_conversion).
func (e *Engine) AddConversion(c *convert.Conversion) error {
	return e.dispatch.AddConversion(c)
}

// AddBaseClass registers a derived-to-base upcast (spec §6 add_base_class).
func (e *Engine) AddBaseClass(base, derived types.Tag, project func(*box.Value) (*box.Value, error)) error {
	return e.dispatch.AddBaseClass(base, derived, project)
}

// GetState snapshots the used-files and active-modules components of
// get_state() (spec §6); engineState carries whatever a host program wants
// preserved in the third component.
func (e *Engine) GetState(engineState map[string]interface{}) *config.State {
	return &config.State{
		UsedFiles:     append([]string{}, e.used...),
		ActiveModules: e.dispatch.LoadedModules(),
		EngineState:   engineState,
	}
}

// SetState restores the used-files and active-modules bookkeeping from a
// prior GetState snapshot (spec §6 set_state), marking every listed file
// and module as already loaded so a subsequent use()/load_module() for the
// same name is a no-op. It does not re-run the files' side effects.
func (e *Engine) SetState(s *config.State) {
	e.used = append([]string{}, s.UsedFiles...)
	for _, f := range s.UsedFiles {
		e.dispatch.MarkModuleLoaded(f)
	}
	for _, m := range s.ActiveModules {
		e.dispatch.MarkModuleLoaded(m)
	}
}
