package compiler

import (
	"errors"
	"fmt"
)

// ErrorKind classifies compile errors.
type ErrorKind int

const (
	LexError ErrorKind = iota + 1
	UnresolvedSymbol
	DuplicateBinding
	ArityError
	TypeError
	SyntaxError
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrLex        = errors.New("lex error")
	ErrUnresolved = errors.New("unresolved symbol")
	ErrDuplicate  = errors.New("duplicate binding")
	ErrArity      = errors.New("arity error")
	ErrType       = errors.New("type error")
	ErrSyntax     = errors.New("syntax error")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case LexError:
		return ErrLex
	case UnresolvedSymbol:
		return ErrUnresolved
	case DuplicateBinding:
		return ErrDuplicate
	case ArityError:
		return ErrArity
	case TypeError:
		return ErrType
	case SyntaxError:
		return ErrSyntax
	}
	return nil
}

func (k ErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a compile error tied to a source line. Line is 0 when the error
// was raised outside any node, for example by a frame operation that codegen
// has not yet annotated.
type Error struct {
	Kind ErrorKind
	Line int
	Msg  string

	incomplete bool
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind.sentinel() }

func errorf(kind ErrorKind, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// IsIncomplete reports whether err was caused by input that ended inside an
// open form. More input could make it valid.
func IsIncomplete(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.incomplete
}

// atNode fills in the line of a compile error raised without one.
func atNode(err error, n Node) error {
	var e *Error
	if errors.As(err, &e) && e.Line == 0 {
		e.Line = n.Line()
	}
	return err
}
