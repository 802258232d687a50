package asm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrCommentNewline is returned when an instruction comment spans lines.
var ErrCommentNewline = errors.New("comment may not contain a line break")

// OperandKind distinguishes the three operand forms.
type OperandKind uint8

const (
	// KindConst is an integer constant.
	KindConst OperandKind = iota
	// KindLabel is a reference to a block, resolved to an address at link time.
	KindLabel
	// KindLabelDef names the block an instruction starts. Only the label
	// marker of a block carries one.
	KindLabelDef
)

// Operand is a single instruction argument.
type Operand struct {
	Kind  OperandKind
	Value int
	Label string
}

// Const returns an integer constant operand.
func Const(n int) Operand { return Operand{Kind: KindConst, Value: n} }

// Label returns a label reference operand.
func Label(name string) Operand { return Operand{Kind: KindLabel, Label: name} }

// LabelDef returns a label definition operand.
func LabelDef(name string) Operand { return Operand{Kind: KindLabelDef, Label: name} }

func (o Operand) String() string {
	switch o.Kind {
	case KindConst:
		return strconv.Itoa(o.Value)
	case KindLabelDef:
		return o.Label + ":"
	default:
		return o.Label
	}
}

// Instruction is one line of GCC assembly: an opcode, its operands and a
// trailing comment.
type Instruction struct {
	Op       Opcode
	Operands []Operand
	Comment  string
}

// New builds an instruction from an opcode and operands.
func New(op Opcode, comment string, operands ...Operand) Instruction {
	return Instruction{Op: op, Operands: operands, Comment: comment}
}

// Marker returns the label-marker instruction that opens block name.
func Marker(name string) Instruction {
	return Instruction{Op: OpLabel, Operands: []Operand{LabelDef(name)}, Comment: name}
}

func Ldc(n int, comment string) Instruction { return New(OpLDC, comment, Const(n)) }

func Ld(depth, index int, comment string) Instruction {
	return New(OpLD, comment, Const(depth), Const(index))
}

func St(depth, index int, comment string) Instruction {
	return New(OpST, comment, Const(depth), Const(index))
}

func Ldf(label, comment string) Instruction { return New(OpLDF, comment, Label(label)) }

func Sel(whenTrue, whenFalse, comment string) Instruction {
	return New(OpSEL, comment, Label(whenTrue), Label(whenFalse))
}

func Ap(n int, comment string) Instruction  { return New(OpAP, comment, Const(n)) }
func Dum(n int, comment string) Instruction { return New(OpDUM, comment, Const(n)) }
func Rap(n int, comment string) Instruction { return New(OpRAP, comment, Const(n)) }
func Rtn(comment string) Instruction        { return New(OpRTN, comment) }
func Join(comment string) Instruction       { return New(OpJOIN, comment) }
func Cons(comment string) Instruction       { return New(OpCONS, comment) }

// Nil pushes the list terminator. The machine has no distinct nil value;
// zero is used by convention.
func Nil(comment string) Instruction { return Ldc(0, comment) }

// IsLive reports whether the instruction occupies an address.
func (in Instruction) IsLive() bool { return in.Op.IsLive() }

// Clone returns a copy that shares no operand storage with in.
func (in Instruction) Clone() Instruction {
	out := in
	out.Operands = append([]Operand(nil), in.Operands...)
	return out
}

// Validate checks operand arity and comment shape.
func (in Instruction) Validate() error {
	if strings.ContainsAny(in.Comment, "\r\n") {
		return fmt.Errorf("%s: %w", in.Op, ErrCommentNewline)
	}
	if want := in.Op.Operands(); len(in.Operands) != want {
		return fmt.Errorf("%s expects %d operands, got %d", in.Op, want, len(in.Operands))
	}
	for _, o := range in.Operands {
		if (o.Kind == KindLabelDef) != (in.Op == OpLabel) {
			return fmt.Errorf("%s: label definition only allowed on a block marker", in.Op)
		}
	}
	return nil
}

// Label returns the block name of a marker instruction.
func (in Instruction) Label() (string, bool) {
	if in.Op != OpLabel || len(in.Operands) == 0 {
		return "", false
	}
	return in.Operands[0].Label, true
}

// String renders the instruction as "OP a b ; comment". Markers render as
// "name:".
func (in Instruction) String() string {
	if in.Op == OpLabel {
		name, _ := in.Label()
		return name + ":"
	}
	var sb strings.Builder
	sb.WriteString(in.Op.String())
	for _, o := range in.Operands {
		sb.WriteByte(' ')
		sb.WriteString(o.String())
	}
	if in.Comment != "" {
		sb.WriteString(" ; ")
		sb.WriteString(in.Comment)
	}
	return sb.String()
}

// Code is an append-only sequence of instructions produced during code
// generation.
type Code []Instruction

// Live returns the number of live instructions in c.
func (c Code) Live() int {
	n := 0
	for _, in := range c {
		if in.IsLive() {
			n++
		}
	}
	return n
}

// Clone deep-copies c.
func (c Code) Clone() Code {
	if c == nil {
		return nil
	}
	out := make(Code, len(c))
	for i, in := range c {
		out[i] = in.Clone()
	}
	return out
}
