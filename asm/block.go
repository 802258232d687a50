package asm

// Block is a named, independently addressable instruction sequence. Its
// first instruction is always the label marker for Name.
type Block struct {
	Name string
	code Code
	live int
}

// NewBlock creates an empty block holding only its label marker.
func NewBlock(name string) *Block {
	return &Block{Name: name, code: Code{Marker(name)}}
}

// Add appends one instruction.
func (b *Block) Add(in Instruction) {
	b.code = append(b.code, in)
	if in.IsLive() {
		b.live++
	}
}

// AddCode appends every instruction of c.
func (b *Block) AddCode(c Code) {
	for _, in := range c {
		b.Add(in)
	}
}

// Live returns the number of instructions that occupy an address.
func (b *Block) Live() int { return b.live }

// Code returns the block's instructions including its marker. The slice
// must not be modified.
func (b *Block) Code() Code { return b.code }

// Body returns the block's instructions without its marker.
func (b *Block) Body() Code { return b.code[1:] }
