package asm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// ImageVersion is the current program image format version.
const ImageVersion = 1

// Image is the binary form of an absolute program.
type Image struct {
	Version      int          `cbor:"1,keyasint"`
	BuildID      string       `cbor:"2,keyasint"`
	Source       string       `cbor:"3,keyasint,omitempty"`
	Entry        int          `cbor:"4,keyasint"`
	Blocks       []ImageBlock `cbor:"5,keyasint,omitempty"`
	Instructions []ImageInstr `cbor:"6,keyasint"`
}

// ImageBlock records where a block started, so that the text rendering of a
// decoded image keeps its block boundaries.
type ImageBlock struct {
	Name    string `cbor:"1,keyasint"`
	Address int    `cbor:"2,keyasint"`
}

// ImageInstr is one resolved instruction.
type ImageInstr struct {
	Op      string `cbor:"1,keyasint"`
	Args    []int  `cbor:"2,keyasint,omitempty"`
	Comment string `cbor:"3,keyasint,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("asm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalImage serializes an Image to CBOR bytes.
func MarshalImage(img *Image) ([]byte, error) {
	return cborEncMode.Marshal(img)
}

// UnmarshalImage deserializes an Image from CBOR bytes.
func UnmarshalImage(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("asm: unmarshal image: %w", err)
	}
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("asm: unsupported image version %d", img.Version)
	}
	return &img, nil
}

// Image converts the program into its binary form, stamped with a fresh
// build id. source names the file the program was compiled from.
func (a *Absolute) Image(source string) (*Image, error) {
	img := &Image{
		Version: ImageVersion,
		BuildID: uuid.New().String(),
		Source:  source,
	}
	addr := 0
	for _, in := range a.Code {
		if !in.IsLive() {
			if name, ok := in.Label(); ok {
				img.Blocks = append(img.Blocks, ImageBlock{Name: name, Address: addr})
			}
			continue
		}
		ii := ImageInstr{Op: in.Op.String(), Comment: in.Comment}
		for _, o := range in.Operands {
			if o.Kind != KindConst {
				return nil, fmt.Errorf("%w: %s", ErrUnresolvedLabel, o.Label)
			}
			ii.Args = append(ii.Args, o.Value)
		}
		img.Instructions = append(img.Instructions, ii)
		addr++
	}
	return img, nil
}

// Absolute rebuilds the program an image was made from.
func (img *Image) Absolute() (*Absolute, error) {
	out := &Absolute{}
	bi := 0
	for addr, ii := range img.Instructions {
		for bi < len(img.Blocks) && img.Blocks[bi].Address == addr {
			out.Code = append(out.Code, Marker(img.Blocks[bi].Name))
			bi++
		}
		op, ok := LookupOpcode(ii.Op)
		if !ok {
			return nil, fmt.Errorf("asm: image instruction %d: unknown opcode %q", addr, ii.Op)
		}
		in := New(op, ii.Comment)
		for _, v := range ii.Args {
			in.Operands = append(in.Operands, Const(v))
		}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("asm: image instruction %d: %w", addr, err)
		}
		out.Code = append(out.Code, in)
	}
	for ; bi < len(img.Blocks); bi++ {
		out.Code = append(out.Code, Marker(img.Blocks[bi].Name))
	}
	return out, nil
}
