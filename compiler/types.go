package compiler

import "fmt"

// TypeKind is the tag of a shallow static type.
type TypeKind uint8

const (
	KindUnknown TypeKind = iota
	KindInteger
	KindClosure
)

// Type is the static type of an expression. Only closures carry extra
// information, their arity.
type Type struct {
	Kind  TypeKind
	Arity int
}

var (
	TypeUnknown = Type{Kind: KindUnknown}
	TypeInteger = Type{Kind: KindInteger}
)

// ClosureType returns the type of a closure taking n arguments.
func ClosureType(n int) Type { return Type{Kind: KindClosure, Arity: n} }

// Known reports whether t carries any information.
func (t Type) Known() bool { return t.Kind != KindUnknown }

// IsClosure reports whether t is a closure type of any arity.
func (t Type) IsClosure() bool { return t.Kind == KindClosure }

// Compatible reports whether a value of type t may stand where o is
// expected. Unknown is compatible with everything.
func (t Type) Compatible(o Type) bool {
	if !t.Known() || !o.Known() {
		return true
	}
	return t == o
}

// Join returns the type shared by t and o, or Unknown when either is
// unknown or they differ.
func (t Type) Join(o Type) Type {
	if t.Known() && t == o {
		return t
	}
	return TypeUnknown
}

func (t Type) String() string {
	switch t.Kind {
	case KindInteger:
		return "Integer"
	case KindClosure:
		return fmt.Sprintf("Closure(%d)", t.Arity)
	default:
		return "Unknown"
	}
}
