package asm

import (
	"fmt"
	"strings"
)

// Opcode identifies a GCC machine instruction.
// Opcodes are grouped by category; the numeric values are internal and never
// appear in rendered output.
type Opcode uint8

const (
	// OpLabel is the label-marker pseudo-op carried by the first instruction
	// of a block. It is not a live instruction and occupies no address.
	OpLabel Opcode = 0x00

	// ========================================================================
	// Loads and stores (0x10-0x1F)
	// ========================================================================

	OpLDC Opcode = 0x10 // Push constant: LDC n
	OpLD  Opcode = 0x11 // Push env slot: LD depth index
	OpST  Opcode = 0x12 // Pop into env slot: ST depth index
	OpLDF Opcode = 0x13 // Push closure of code address and current env: LDF addr

	// ========================================================================
	// Arithmetic and comparison (0x20-0x2F)
	// ========================================================================

	OpADD  Opcode = 0x20 // Pop two, push sum
	OpSUB  Opcode = 0x21 // Pop two, push difference
	OpMUL  Opcode = 0x22 // Pop two, push product
	OpDIV  Opcode = 0x23 // Pop two, push quotient
	OpCEQ  Opcode = 0x24 // Pop two, push 1 if equal else 0
	OpCGT  Opcode = 0x25 // Pop two, push 1 if greater else 0
	OpCGTE Opcode = 0x26 // Pop two, push 1 if greater or equal else 0

	// ========================================================================
	// Pairs (0x30-0x3F)
	// ========================================================================

	OpATOM Opcode = 0x30 // Pop one, push 1 if integer else 0
	OpCONS Opcode = 0x31 // Pop two, push pair
	OpCAR  Opcode = 0x32 // Pop pair, push first
	OpCDR  Opcode = 0x33 // Pop pair, push second

	// ========================================================================
	// Control flow (0x40-0x4F)
	// ========================================================================

	OpSEL  Opcode = 0x40 // Pop int, branch to true/false address: SEL t f
	OpJOIN Opcode = 0x41 // Return from a SEL branch
	OpAP   Opcode = 0x42 // Apply closure to n args: AP n
	OpRTN  Opcode = 0x43 // Return from function
	OpDUM  Opcode = 0x44 // Push empty frame of n slots: DUM n
	OpRAP  Opcode = 0x45 // Recursive apply into the dummy frame: RAP n
	OpSTOP Opcode = 0x46 // Halt the machine
	OpTSEL Opcode = 0x47 // Tail select: TSEL t f
	OpTAP  Opcode = 0x48 // Tail apply: TAP n
	OpTRAP Opcode = 0x49 // Tail recursive apply: TRAP n

	// ========================================================================
	// Debugging (0x50-0x5F)
	// ========================================================================

	OpDBUG Opcode = 0x50 // Pop one value and print it
	OpBRK  Opcode = 0x51 // Breakpoint
)

// OpcodeInfo provides metadata about each opcode for rendering and validation.
type OpcodeInfo struct {
	Name      string // Mnemonic as written in assembly
	Operands  int    // Number of operands following the mnemonic
	StackPop  int    // Values popped from the data stack (-1 = variable)
	StackPush int    // Values pushed to the data stack
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpLabel: {"", 1, 0, 0},

	OpLDC: {"LDC", 1, 0, 1},
	OpLD:  {"LD", 2, 0, 1},
	OpST:  {"ST", 2, 1, 0},
	OpLDF: {"LDF", 1, 0, 1},

	OpADD:  {"ADD", 0, 2, 1},
	OpSUB:  {"SUB", 0, 2, 1},
	OpMUL:  {"MUL", 0, 2, 1},
	OpDIV:  {"DIV", 0, 2, 1},
	OpCEQ:  {"CEQ", 0, 2, 1},
	OpCGT:  {"CGT", 0, 2, 1},
	OpCGTE: {"CGTE", 0, 2, 1},

	OpATOM: {"ATOM", 0, 1, 1},
	OpCONS: {"CONS", 0, 2, 1},
	OpCAR:  {"CAR", 0, 1, 1},
	OpCDR:  {"CDR", 0, 1, 1},

	OpSEL:  {"SEL", 2, 1, 0},
	OpJOIN: {"JOIN", 0, 0, 0},
	OpAP:   {"AP", 1, -1, 1},
	OpRTN:  {"RTN", 0, 1, 0},
	OpDUM:  {"DUM", 1, 0, 0},
	OpRAP:  {"RAP", 1, -1, 1},
	OpSTOP: {"STOP", 0, 0, 0},
	OpTSEL: {"TSEL", 2, 1, 0},
	OpTAP:  {"TAP", 1, -1, 0},
	OpTRAP: {"TRAP", 1, -1, 0},

	OpDBUG: {"DBUG", 0, 1, 0},
	OpBRK:  {"BRK", 0, 0, 0},
}

var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeInfoTable))
	for op, info := range opcodeInfoTable {
		if op == OpLabel {
			continue
		}
		m[info.Name] = op
	}
	return m
}()

// GetOpcodeInfo returns metadata for an opcode.
// Returns an OpcodeInfo named "UNKNOWN(..)" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// LookupOpcode finds an opcode by mnemonic, case-insensitively.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opcodeByName[strings.ToUpper(name)]
	return op, ok
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	if op == OpLabel {
		return "LABEL"
	}
	return GetOpcodeInfo(op).Name
}

// Operands returns the number of operands the opcode takes.
func (op Opcode) Operands() int {
	return GetOpcodeInfo(op).Operands
}

// IsLive reports whether the opcode occupies an address in the final program.
func (op Opcode) IsLive() bool {
	return op != OpLabel
}

// IsBranch reports whether the opcode's operands are code addresses.
func (op Opcode) IsBranch() bool {
	switch op {
	case OpSEL, OpTSEL, OpLDF:
		return true
	}
	return false
}

// AllOpcodes returns every opcode with metadata, excluding the label pseudo-op.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		if op != OpLabel {
			opcodes = append(opcodes, op)
		}
	}
	return opcodes
}
