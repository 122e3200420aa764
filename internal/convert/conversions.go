// Package convert implements TypeConversions (spec §3, §4.3): registered
// conversions between related types, plus the per-call-chain "save" buffer
// that keeps conversion temporaries alive for the life of a top-level call.
package convert

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/types"
)

// Conversion is a directed edge from one type to another (spec §3).
type Conversion struct {
	From        types.Tag
	To          types.Tag
	Convert     func(*box.Value) (*box.Value, error)
	ConvertDown func(*box.Value) (*box.Value, error) // nil if not bidirectional
	Bidir       bool
}

type edgeKey struct {
	from types.Tag
	to   types.Tag
}

// Shared is the engine-wide conversion table: one instance per engine,
// guarded by a reader/writer lock since every thread sharing the engine
// reads and (rarely) writes it (spec §4.3, §5). A version counter lets a
// Registry view skip re-scanning when nothing has changed since its last
// lookup.
type Shared struct {
	mu      sync.RWMutex
	edges   map[edgeKey]*Conversion
	version int64
}

func NewShared() *Shared {
	return &Shared{edges: make(map[edgeKey]*Conversion)}
}

// Registry is a per-call-chain view over a Shared conversion table: lookups
// go to the shared, lock-protected table, but the "saves" buffer (spec
// §4.3 push_saves/pop_saves) is private to this view. Go has no
// thread-local storage, so instead of one implicit per-OS-thread cache
// (as the original design used), each DispatchState explicitly owns one
// Registry view — see DESIGN.md.
type Registry struct {
	shared *Shared
	saves  [][]*box.Value
}

// New creates a Shared table plus one default view over it — convenient for
// single-threaded callers (tests, the REPL). Concurrent callers should call
// shared.NewView() per call-chain instead.
func New() *Registry {
	return NewShared().NewView()
}

// NewView creates an independent per-call-chain Registry over this Shared table.
func (s *Shared) NewView() *Registry {
	return &Registry{shared: s}
}

// Shared exposes the underlying shared table, e.g. to hand to another view.
func (r *Registry) Shared() *Shared { return r.shared }

// Add inserts a conversion; a duplicate (from,to) pair is an error (spec §4.3).
func (r *Registry) Add(c *Conversion) error {
	s := r.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	k := edgeKey{from: c.From.Bare(), to: c.To.Bare()}
	if _, exists := s.edges[k]; exists {
		return fmt.Errorf("conversion %s -> %s already registered", c.From.Name(), c.To.Name())
	}
	s.edges[k] = c
	atomic.AddInt64(&s.version, 1)
	return nil
}

// Version returns the current registry version, for caller-side caching.
func (r *Registry) Version() int64 { return atomic.LoadInt64(&r.shared.version) }

func (r *Registry) lookup(from, to types.Tag) *Conversion {
	s := r.shared
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edges[edgeKey{from: from.Bare(), to: to.Bare()}]
}

func (r *Registry) lookupReverse(from, to types.Tag) *Conversion {
	s := r.shared
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.edges[edgeKey{from: to.Bare(), to: from.Bare()}]
	if c != nil && c.Bidir {
		return c
	}
	return nil
}

// Converts reports whether a path exists from `from` to `to`, bidirectionally.
func (r *Registry) Converts(to, from types.Tag) bool {
	if r.lookup(from, to) != nil {
		return true
	}
	return r.lookupReverse(from, to) != nil
}

// ConvertTo finds and applies an upcast conversion from bv's type to Target.
func (r *Registry) ConvertTo(target types.Tag, bv *box.Value) (*box.Value, error) {
	if c := r.lookup(bv.GetType(), target); c != nil {
		return c.Convert(bv)
	}
	if c := r.lookupReverse(bv.GetType(), target); c != nil && c.ConvertDown != nil {
		return c.ConvertDown(bv)
	}
	return nil, fmt.Errorf("no conversion from %s to %s", bv.GetType().Name(), target.Name())
}

// ConvertDown finds and applies the reverse (downcast) direction.
func (r *Registry) ConvertDown(derived types.Tag, bv *box.Value) (*box.Value, error) {
	if c := r.lookup(derived, bv.GetType()); c != nil && c.Bidir && c.ConvertDown != nil {
		return c.ConvertDown(bv)
	}
	if c := r.lookup(bv.GetType(), derived); c != nil && c.ConvertDown != nil {
		return c.ConvertDown(bv)
	}
	return nil, fmt.Errorf("no downcast conversion from %s to %s", bv.GetType().Name(), derived.Name())
}

// PushSaves opens a new per-call-chain save buffer on this view.
func (r *Registry) PushSaves() {
	r.saves = append(r.saves, nil)
}

// Save retains bv for the life of the current (innermost) call chain.
func (r *Registry) Save(bv *box.Value) {
	if len(r.saves) == 0 {
		return
	}
	top := len(r.saves) - 1
	r.saves[top] = append(r.saves[top], bv)
}

// PopSaves closes the innermost save buffer and returns everything retained in it.
func (r *Registry) PopSaves() []*box.Value {
	if len(r.saves) == 0 {
		return nil
	}
	top := len(r.saves) - 1
	saved := r.saves[top]
	r.saves = r.saves[:top]
	return saved
}

// AddBaseClass registers an upcast conversion from Derived to Base via the
// caller-supplied project function, the dynamic-dispatch analog of spec §6's
// add_base_class.
func (r *Registry) AddBaseClass(base, derived types.Tag, project func(*box.Value) (*box.Value, error)) error {
	return r.Add(&Conversion{
		From:    derived,
		To:      base,
		Convert: project,
		Bidir:   false,
	})
}
