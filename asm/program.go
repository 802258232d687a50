package asm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateLabel is returned when a block name is added twice.
	ErrDuplicateLabel = errors.New("duplicate label")
	// ErrUnresolvedLabel is returned when a label has no address.
	ErrUnresolvedLabel = errors.New("unresolved label")
)

// Relative is a linked-but-unresolved program: blocks in declaration order
// plus the address each block starts at. Addresses are assigned as blocks
// are added, by accumulating live-instruction counts.
type Relative struct {
	blocks []*Block
	addrs  map[string]int
	next   int
}

// NewRelative creates an empty program.
func NewRelative() *Relative {
	return &Relative{addrs: make(map[string]int)}
}

// AddBlock appends a block named name holding code, assigning it the
// current running address.
func (p *Relative) AddBlock(name string, code Code) error {
	if _, exists := p.addrs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateLabel, name)
	}
	b := NewBlock(name)
	b.AddCode(code)
	p.addrs[name] = p.next
	p.blocks = append(p.blocks, b)
	p.next += b.Live()
	return nil
}

// Blocks returns the blocks in declaration order.
func (p *Relative) Blocks() []*Block { return p.blocks }

// Address returns the start address of block name.
func (p *Relative) Address(name string) (int, bool) {
	addr, ok := p.addrs[name]
	return addr, ok
}

// Addresses returns a copy of the label → address map.
func (p *Relative) Addresses() map[string]int {
	out := make(map[string]int, len(p.addrs))
	for k, v := range p.addrs {
		out[k] = v
	}
	return out
}

// Len returns the number of live instructions in the program.
func (p *Relative) Len() int { return p.next }

// Translate resolves every label operand to its block address and returns
// the flat program. The receiver is not modified, so repeated calls yield
// identical results.
func (p *Relative) Translate() (*Absolute, error) {
	out := &Absolute{}
	for _, b := range p.blocks {
		for _, in := range b.code {
			resolved := in.Clone()
			if in.Op != OpLabel {
				for i, o := range resolved.Operands {
					if o.Kind != KindLabel {
						continue
					}
					addr, ok := p.addrs[o.Label]
					if !ok {
						return nil, fmt.Errorf("%w: %s (in block %s)", ErrUnresolvedLabel, o.Label, b.Name)
					}
					resolved.Operands[i] = Const(addr)
				}
			}
			out.Code = append(out.Code, resolved)
		}
	}
	return out, nil
}

// Labeled renders the program in the debug labeled form: each block as a
// "name:" line followed by its instructions.
func (p *Relative) Labeled() string {
	var sb strings.Builder
	for _, b := range p.blocks {
		sb.WriteString(b.Name)
		sb.WriteString(":\n")
		for _, in := range b.Body() {
			sb.WriteString("  ")
			sb.WriteString(in.String())
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
