package asm

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ParseLabeled reads the debug labeled form produced by Relative.Labeled and
// rebuilds the relative program. A line ending in ':' starts a block; every
// other non-blank line is an instruction whose first field is the mnemonic.
// Integer fields become constants and all other fields become label
// references. Text after ';' is the comment.
func ParseLabeled(text string) (*Relative, error) {
	prog := NewRelative()
	var (
		name    string
		code    Code
		started bool
	)
	flush := func() error {
		if !started {
			return nil
		}
		return prog.AddBlock(name, code)
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		body, comment, _ := strings.Cut(line, ";")
		body = strings.TrimSpace(body)
		comment = strings.TrimSpace(comment)

		if strings.HasSuffix(body, ":") && !strings.ContainsAny(body, " \t") {
			if err := flush(); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			name = strings.TrimSuffix(body, ":")
			if name == "" {
				return nil, fmt.Errorf("line %d: empty label", lineNo)
			}
			code = nil
			started = true
			continue
		}

		if !started {
			return nil, fmt.Errorf("line %d: instruction before first label", lineNo)
		}
		in, err := parseInstruction(body, comment)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		code = append(code, in)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return prog, nil
}

func parseInstruction(body, comment string) (Instruction, error) {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return Instruction{}, fmt.Errorf("missing opcode")
	}
	op, ok := LookupOpcode(fields[0])
	if !ok {
		return Instruction{}, fmt.Errorf("unknown opcode %q", fields[0])
	}
	operands := make([]Operand, 0, len(fields)-1)
	for _, f := range fields[1:] {
		if n, err := strconv.Atoi(f); err == nil {
			operands = append(operands, Const(n))
		} else {
			operands = append(operands, Label(f))
		}
	}
	in := New(op, comment, operands...)
	if want := op.Operands(); len(operands) != want {
		return Instruction{}, fmt.Errorf("%s expects %d operands, got %d", op, want, len(operands))
	}
	return in, nil
}
