package asm

import (
	"strings"
	"testing"
)

func TestLabeledRoundTrip(t *testing.T) {
	p := sampleProgram(t)
	text := p.Labeled()
	back, err := ParseLabeled(text)
	if err != nil {
		t.Fatalf("ParseLabeled: %v\n%s", err, text)
	}
	if got := back.Labeled(); got != text {
		t.Errorf("round trip =\n%s\nwant:\n%s", got, text)
	}
	want, _ := p.Translate()
	got, err := back.Translate()
	if err != nil {
		t.Fatal(err)
	}
	ws, _ := want.Render()
	gs, _ := got.Render()
	if gs != ws {
		t.Errorf("translated round trip =\n%s\nwant:\n%s", gs, ws)
	}
}

func TestParseLabeledWhitespace(t *testing.T) {
	text := `
main:
	LDC   1   ; one

	ldf helper
    AP 0
  RTN
helper:
  LDC 2
  RTN
`
	p, err := ParseLabeled(text)
	if err != nil {
		t.Fatal(err)
	}
	if addr, _ := p.Address("helper"); addr != 4 {
		t.Errorf("address of helper = %d, want 4", addr)
	}
	first := p.Blocks()[0].Body()[0]
	if first.Comment != "one" {
		t.Errorf("comment = %q, want %q", first.Comment, "one")
	}
}

func TestParseLabeledErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"before label", "LDC 1\n", "before first label"},
		{"unknown opcode", "main:\n  FROB 1\n", "unknown opcode"},
		{"operand count", "main:\n  LD 1\n", "expects 2 operands"},
		{"duplicate", "a:\n RTN\na:\n RTN\n", "duplicate label"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLabeled(tc.text)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}
