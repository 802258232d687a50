package asm

import (
	"fmt"
	"io"
	"strings"
)

// Absolute is the final program: a flat instruction list in which every
// label has been replaced by an address. Block markers are kept so that the
// rendered text shows block boundaries as blank lines.
type Absolute struct {
	Code Code
}

// Len returns the number of live instructions.
func (a *Absolute) Len() int { return a.Code.Live() }

// Instructions returns the live instructions in address order.
func (a *Absolute) Instructions() Code {
	out := make(Code, 0, len(a.Code))
	for _, in := range a.Code {
		if in.IsLive() {
			out = append(out, in)
		}
	}
	return out
}

// Render returns the program text: one instruction per line, block markers
// as blank lines, runs of blank lines collapsed, and exactly one trailing
// newline.
func (a *Absolute) Render() (string, error) {
	lines := make([]string, 0, len(a.Code))
	for _, in := range a.Code {
		if err := in.Validate(); err != nil {
			return "", err
		}
		if !in.IsLive() {
			if len(lines) > 0 && lines[len(lines)-1] != "" {
				lines = append(lines, "")
			}
			continue
		}
		for _, o := range in.Operands {
			if o.Kind == KindLabel {
				return "", fmt.Errorf("%w: %s", ErrUnresolvedLabel, o.Label)
			}
		}
		lines = append(lines, in.String())
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n", nil
}

// WriteTo writes the rendered program to w.
func (a *Absolute) WriteTo(w io.Writer) (int64, error) {
	text, err := a.Render()
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, text)
	return int64(n), err
}
