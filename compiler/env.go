package compiler

import (
	"errors"

	"github.com/chazu/laml/asm"
)

// Default names of the two values the machine passes to main.
const (
	GlobalWorldState = "WORLD-STATE"
	GlobalGhostCode  = "GHOST-CODE"
)

// ErrDefinitionPending is returned when a binding's definition is read
// before it has been attached.
var ErrDefinitionPending = errors.New("definition pending")

// Binding is a named slot in a frame.
type Binding struct {
	Name  string
	Type  Type
	Index int

	def      asm.Code
	attached bool
}

// Attach sets the code that computes the binding's value. The code is
// copied.
func (b *Binding) Attach(code asm.Code) {
	b.def = code.Clone()
	if b.def == nil {
		b.def = asm.Code{}
	}
	b.attached = true
}

// Attached reports whether Attach has been called.
func (b *Binding) Attached() bool { return b.attached }

// Definition returns a copy of the attached code.
func (b *Binding) Definition() (asm.Code, error) {
	if !b.attached {
		return nil, ErrDefinitionPending
	}
	return b.def.Clone(), nil
}

// Frame is one level of the lexical environment. Frames point at their
// parent only; the chain ends at a root frame.
type Frame struct {
	parent   *Frame
	bindings []*Binding
	byName   map[string]*Binding
	closed   bool
}

// NewFrame creates an empty frame chained to parent.
func NewFrame(parent *Frame) *Frame {
	return &Frame{parent: parent, byName: make(map[string]*Binding)}
}

// NewRootFrame creates the outermost frame holding the two values passed to
// main, at indices 0 and 1. With no names given the defaults are used. The
// root frame rejects further insertions.
func NewRootFrame(globals ...string) *Frame {
	if len(globals) == 0 {
		globals = []string{GlobalWorldState, GlobalGhostCode}
	}
	f := NewFrame(nil)
	for _, name := range globals {
		b := &Binding{Name: name, Type: TypeInteger, Index: len(f.bindings)}
		f.bindings = append(f.bindings, b)
		f.byName[name] = b
	}
	f.closed = true
	return f
}

// Parent returns the enclosing frame, or nil for the root.
func (f *Frame) Parent() *Frame { return f.parent }

// IsRoot reports whether f has no parent.
func (f *Frame) IsRoot() bool { return f.parent == nil }

// Len returns the number of bindings in f.
func (f *Frame) Len() int { return len(f.bindings) }

// Bindings returns the bindings of f in slot order.
func (f *Frame) Bindings() []*Binding {
	return append([]*Binding(nil), f.bindings...)
}

// Lookup finds name in f only.
func (f *Frame) Lookup(name string) (*Binding, bool) {
	b, ok := f.byName[name]
	return b, ok
}

// Insert adds a code-less binding named name to f at the next slot index.
// Shadowing a name bound in an outer frame is allowed; rebinding within the
// same frame is not.
func (f *Frame) Insert(name string, t Type) (*Binding, error) {
	if f.closed {
		return nil, errorf(DuplicateBinding, 0, "cannot bind %s in the root frame", name)
	}
	if _, exists := f.byName[name]; exists {
		return nil, errorf(DuplicateBinding, 0, "%s is already bound in this scope", name)
	}
	b := &Binding{Name: name, Type: t, Index: len(f.bindings)}
	f.bindings = append(f.bindings, b)
	f.byName[name] = b
	return b, nil
}

// Resolve walks outward from f and returns the number of frames crossed
// and the binding of name in the first frame that has one.
func (f *Frame) Resolve(name string) (int, *Binding, error) {
	depth := 0
	for fr := f; fr != nil; fr = fr.parent {
		if b, ok := fr.byName[name]; ok {
			return depth, b, nil
		}
		depth++
	}
	return 0, nil, errorf(UnresolvedSymbol, 0, "%s is not bound", name)
}

// ResolveDepth returns how many frames outward name is bound.
func (f *Frame) ResolveDepth(name string) (int, error) {
	depth, _, err := f.Resolve(name)
	return depth, err
}

// ResolveIndex returns the slot index of name in the frame that binds it.
func (f *Frame) ResolveIndex(name string) (int, error) {
	_, b, err := f.Resolve(name)
	if err != nil {
		return 0, err
	}
	return b.Index, nil
}
