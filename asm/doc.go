// Package asm models programs for the ICFP 2014 "GCC" stack machine and
// links them.
//
// A program is built as a sequence of named blocks (Relative). Each block
// starts with a label marker that occupies no address; every other
// instruction is live and takes exactly one. Blocks are laid out in the
// order they are added, so a block's address is the sum of the live counts
// of the blocks before it.
//
// # Operands
//
// An operand is an integer constant, a reference to a block (resolved to
// the block's address at link time) or, on a block's marker only, the
// block's own name:
//
//	LDF lambda_3       ; label reference
//	LD 1 0             ; two constants
//
// # Linking
//
// Relative.Translate replaces every label reference with an address and
// returns a flat Absolute program. The relative program is left untouched,
// so Translate may be called repeatedly.
//
// # Output forms
//
//   - Text: Absolute.Render, one instruction per line, blank lines between
//     blocks.
//   - Labeled: Relative.Labeled and ParseLabeled, a debugging form that
//     keeps block names and unresolved references.
//   - Image: a CBOR encoding of an Absolute program (MarshalImage).
package asm
