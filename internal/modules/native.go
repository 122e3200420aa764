package modules

import (
	"github.com/quill-lang/quill/internal/diagnostics"
	"github.com/quill-lang/quill/internal/dispatch"
)

// NativeModule is the entry-point contract a `load_module(name[, filename])`
// target must satisfy: an opaque container of TypeTag/ProxyFunction/
// conversion registrations that installs itself into the engine (spec §9:
// "a module is a function returning an opaque container of (name →
// ProxyFunction / TypeTag / conversion) registrations").
type NativeModule interface {
	Register(e *dispatch.Engine) error
}

// NativeLoader resolves a module name (optionally with an explicit
// filename) to a NativeModule. Actual OS-specific dynamic linking
// (dlopen/LoadLibrary) is out of core scope per spec §9; this package
// specifies only the contract above plus a registry a host program can
// populate with modules compiled directly into the binary.
type NativeLoader struct {
	registered map[string]NativeModule
}

// NewNativeLoader returns a loader with no modules registered.
func NewNativeLoader() *NativeLoader {
	return &NativeLoader{registered: make(map[string]NativeModule)}
}

// Register makes m available under name for a later Load call — the
// in-process equivalent of a host program linking a module statically
// instead of loading it from a shared object at runtime.
func (l *NativeLoader) Register(name string, m NativeModule) {
	l.registered[name] = m
}

// Load returns the module registered under name, or a LoadModuleError if
// none was registered (dynamic-library loading by filename is not
// implemented; see NativeLoader).
func (l *NativeLoader) Load(name, filename string) (NativeModule, error) {
	if m, ok := l.registered[name]; ok {
		return m, nil
	}
	return nil, diagnostics.LoadModuleError(name, errNotRegistered(name, filename))
}

type notRegisteredError struct {
	name     string
	filename string
}

func (e notRegisteredError) Error() string {
	if e.filename != "" {
		return "native module " + e.name + " (" + e.filename + ") is not registered; dynamic library loading is out of core scope"
	}
	return "native module " + e.name + " is not registered; dynamic library loading is out of core scope"
}

func errNotRegistered(name, filename string) error {
	return notRegisteredError{name: name, filename: filename}
}
