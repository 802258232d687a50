// Package asmtest executes linked GCC programs so that tests can check what
// compiled code does rather than only what it looks like.
package asmtest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/laml/asm"
)

// DefaultMaxSteps bounds execution so that a looping program fails a test
// instead of hanging it.
const DefaultMaxSteps = 1_000_000

var (
	// ErrFault is returned when the machine hits a runtime fault.
	ErrFault = errors.New("machine fault")
	// ErrStepLimit is returned when execution exceeds MaxSteps.
	ErrStepLimit = errors.New("step limit exceeded")
)

// Value is a machine value: Int, *Pair or *Closure.
type Value interface {
	String() string
}

// Int is a 32-bit machine integer.
type Int int32

func (i Int) String() string { return strconv.Itoa(int(i)) }

// Pair is a cons cell.
type Pair struct {
	Car, Cdr Value
}

func (p *Pair) String() string { return "(" + p.Car.String() + ", " + p.Cdr.String() + ")" }

// Closure is a code address together with the frame it captured.
type Closure struct {
	Addr int
	env  *frame
}

func (c *Closure) String() string { return fmt.Sprintf("<closure %d>", c.Addr) }

// List builds a nil-terminated list from vs.
func List(vs ...Value) Value {
	var out Value = Int(0)
	for i := len(vs) - 1; i >= 0; i-- {
		out = &Pair{Car: vs[i], Cdr: out}
	}
	return out
}

type frame struct {
	parent *frame
	values []Value
	dummy  bool
}

type controlKind uint8

const (
	ctlStop controlKind = iota
	ctlJoin
	ctlReturn
)

type control struct {
	kind controlKind
	pc   int
	env  *frame
}

// Machine is a GCC interpreter.
type Machine struct {
	// MaxSteps bounds the number of executed instructions. Zero means
	// DefaultMaxSteps.
	MaxSteps int
	// Trace collects every value popped by DBUG, in order.
	Trace []Value
	// Breaks counts executed BRK instructions.
	Breaks int
	// Steps is the number of instructions executed by the last Run.
	Steps int

	code []asm.Instruction
	data []Value
	ctl  []control
	env  *frame
	pc   int
}

// Run executes prog with a machine using default settings.
func Run(prog *asm.Absolute, args ...Value) (Value, error) {
	m := &Machine{}
	return m.Run(prog, args...)
}

// Run starts prog at address 0 with args as the initial frame and returns
// the value on top of the data stack when the program halts.
func (m *Machine) Run(prog *asm.Absolute, args ...Value) (Value, error) {
	m.code = prog.Instructions()
	m.data = nil
	m.ctl = []control{{kind: ctlStop}}
	m.env = &frame{values: append([]Value(nil), args...)}
	m.pc = 0
	m.Steps = 0

	limit := m.MaxSteps
	if limit <= 0 {
		limit = DefaultMaxSteps
	}

	for {
		if m.Steps >= limit {
			return nil, ErrStepLimit
		}
		if m.pc < 0 || m.pc >= len(m.code) {
			return nil, m.fault("pc %d out of range", m.pc)
		}
		m.Steps++
		halted, err := m.step(m.code[m.pc])
		if err != nil {
			return nil, err
		}
		if halted {
			if len(m.data) == 0 {
				return nil, nil
			}
			return m.data[len(m.data)-1], nil
		}
	}
}

func (m *Machine) fault(format string, args ...any) error {
	return fmt.Errorf("%w at %d: %s", ErrFault, m.pc, fmt.Sprintf(format, args...))
}

func (m *Machine) push(v Value) { m.data = append(m.data, v) }

func (m *Machine) pop() (Value, error) {
	if len(m.data) == 0 {
		return nil, m.fault("data stack underflow")
	}
	v := m.data[len(m.data)-1]
	m.data = m.data[:len(m.data)-1]
	return v, nil
}

func (m *Machine) popInt() (Int, error) {
	v, err := m.pop()
	if err != nil {
		return 0, err
	}
	i, ok := v.(Int)
	if !ok {
		return 0, m.fault("expected integer, got %s", v)
	}
	return i, nil
}

func (m *Machine) popPair() (*Pair, error) {
	v, err := m.pop()
	if err != nil {
		return nil, err
	}
	p, ok := v.(*Pair)
	if !ok {
		return nil, m.fault("expected pair, got %s", v)
	}
	return p, nil
}

func (m *Machine) popClosure() (*Closure, error) {
	v, err := m.pop()
	if err != nil {
		return nil, err
	}
	c, ok := v.(*Closure)
	if !ok {
		return nil, m.fault("expected closure, got %s", v)
	}
	return c, nil
}

func (m *Machine) popControl() (control, error) {
	if len(m.ctl) == 0 {
		return control{}, m.fault("control stack underflow")
	}
	c := m.ctl[len(m.ctl)-1]
	m.ctl = m.ctl[:len(m.ctl)-1]
	return c, nil
}

func (m *Machine) lookup(depth int) (*frame, error) {
	f := m.env
	for ; depth > 0 && f != nil; depth-- {
		f = f.parent
	}
	if f == nil {
		return nil, m.fault("frame depth out of range")
	}
	return f, nil
}

func arg(in asm.Instruction, i int) int { return in.Operands[i].Value }

func (m *Machine) step(in asm.Instruction) (bool, error) {
	switch in.Op {
	case asm.OpLDC:
		m.push(Int(arg(in, 0)))
		m.pc++

	case asm.OpLD, asm.OpST:
		f, err := m.lookup(arg(in, 0))
		if err != nil {
			return false, err
		}
		if f.dummy {
			return false, m.fault("access to dummy frame")
		}
		idx := arg(in, 1)
		if idx < 0 || idx >= len(f.values) {
			return false, m.fault("slot %d out of range", idx)
		}
		if in.Op == asm.OpLD {
			m.push(f.values[idx])
		} else {
			v, err := m.pop()
			if err != nil {
				return false, err
			}
			f.values[idx] = v
		}
		m.pc++

	case asm.OpLDF:
		m.push(&Closure{Addr: arg(in, 0), env: m.env})
		m.pc++

	case asm.OpADD, asm.OpSUB, asm.OpMUL, asm.OpDIV, asm.OpCEQ, asm.OpCGT, asm.OpCGTE:
		y, err := m.popInt()
		if err != nil {
			return false, err
		}
		x, err := m.popInt()
		if err != nil {
			return false, err
		}
		r, err := m.arith(in.Op, x, y)
		if err != nil {
			return false, err
		}
		m.push(r)
		m.pc++

	case asm.OpATOM:
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		if _, ok := v.(Int); ok {
			m.push(Int(1))
		} else {
			m.push(Int(0))
		}
		m.pc++

	case asm.OpCONS:
		y, err := m.pop()
		if err != nil {
			return false, err
		}
		x, err := m.pop()
		if err != nil {
			return false, err
		}
		m.push(&Pair{Car: x, Cdr: y})
		m.pc++

	case asm.OpCAR, asm.OpCDR:
		p, err := m.popPair()
		if err != nil {
			return false, err
		}
		if in.Op == asm.OpCAR {
			m.push(p.Car)
		} else {
			m.push(p.Cdr)
		}
		m.pc++

	case asm.OpSEL, asm.OpTSEL:
		x, err := m.popInt()
		if err != nil {
			return false, err
		}
		if in.Op == asm.OpSEL {
			m.ctl = append(m.ctl, control{kind: ctlJoin, pc: m.pc + 1})
		}
		if x == 0 {
			m.pc = arg(in, 1)
		} else {
			m.pc = arg(in, 0)
		}

	case asm.OpJOIN:
		c, err := m.popControl()
		if err != nil {
			return false, err
		}
		if c.kind != ctlJoin {
			return false, m.fault("JOIN without matching SEL")
		}
		m.pc = c.pc

	case asm.OpAP, asm.OpTAP:
		c, err := m.popClosure()
		if err != nil {
			return false, err
		}
		f := &frame{parent: c.env, values: make([]Value, arg(in, 0))}
		for i := len(f.values) - 1; i >= 0; i-- {
			if f.values[i], err = m.pop(); err != nil {
				return false, err
			}
		}
		if in.Op == asm.OpAP {
			m.ctl = append(m.ctl, control{kind: ctlReturn, pc: m.pc + 1, env: m.env})
		}
		m.env = f
		m.pc = c.Addr

	case asm.OpRTN:
		c, err := m.popControl()
		if err != nil {
			return false, err
		}
		switch c.kind {
		case ctlStop:
			return true, nil
		case ctlReturn:
			m.env = c.env
			m.pc = c.pc
		default:
			return false, m.fault("RTN inside a SEL branch")
		}

	case asm.OpDUM:
		m.env = &frame{parent: m.env, values: make([]Value, arg(in, 0)), dummy: true}
		m.pc++

	case asm.OpRAP, asm.OpTRAP:
		c, err := m.popClosure()
		if err != nil {
			return false, err
		}
		f := m.env
		n := arg(in, 0)
		if !f.dummy || len(f.values) != n || c.env != f {
			return false, m.fault("RAP frame mismatch")
		}
		for i := n - 1; i >= 0; i-- {
			if f.values[i], err = m.pop(); err != nil {
				return false, err
			}
		}
		if in.Op == asm.OpRAP {
			m.ctl = append(m.ctl, control{kind: ctlReturn, pc: m.pc + 1, env: f.parent})
		}
		f.dummy = false
		m.pc = c.Addr

	case asm.OpSTOP:
		return true, nil

	case asm.OpDBUG:
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		m.Trace = append(m.Trace, v)
		m.pc++

	case asm.OpBRK:
		m.Breaks++
		m.pc++

	default:
		return false, m.fault("unknown opcode %s", in.Op)
	}
	return false, nil
}

func (m *Machine) arith(op asm.Opcode, x, y Int) (Int, error) {
	b := func(ok bool) Int {
		if ok {
			return 1
		}
		return 0
	}
	switch op {
	case asm.OpADD:
		return x + y, nil
	case asm.OpSUB:
		return x - y, nil
	case asm.OpMUL:
		return x * y, nil
	case asm.OpDIV:
		if y == 0 {
			return 0, m.fault("division by zero")
		}
		return x / y, nil
	case asm.OpCEQ:
		return b(x == y), nil
	case asm.OpCGT:
		return b(x > y), nil
	default:
		return b(x >= y), nil
	}
}

// TraceString renders the DBUG trace, one value per line.
func (m *Machine) TraceString() string {
	parts := make([]string, len(m.Trace))
	for i, v := range m.Trace {
		parts[i] = v.String()
	}
	return strings.Join(parts, "\n")
}
