package asm

import (
	"errors"
	"strings"
	"testing"
)

func sampleProgram(t *testing.T) *Relative {
	t.Helper()
	p := NewRelative()
	blocks := []struct {
		name string
		code Code
	}{
		{"main", Code{Ldc(1, ""), Ldf("f", "closure"), Ap(1, ""), Rtn("")}},
		{"f", Code{Ld(0, 0, "x"), Ldc(0, ""), New(OpCGT, ""), Sel("then_1", "else_2", ""), Rtn("")}},
		{"then_1", Code{Ldc(10, ""), Join("")}},
		{"else_2", Code{Ldc(20, ""), Join("")}},
	}
	for _, b := range blocks {
		if err := p.AddBlock(b.name, b.code); err != nil {
			t.Fatalf("AddBlock(%s): %v", b.name, err)
		}
	}
	return p
}

func TestAddBlockAddresses(t *testing.T) {
	p := sampleProgram(t)
	want := map[string]int{"main": 0, "f": 4, "then_1": 9, "else_2": 11}
	got := p.Addresses()
	if len(got) != len(want) {
		t.Fatalf("len(Addresses) = %d, want %d", len(got), len(want))
	}
	for name, addr := range want {
		if got[name] != addr {
			t.Errorf("address of %s = %d, want %d", name, got[name], addr)
		}
	}
	if p.Len() != 13 {
		t.Errorf("Len = %d, want 13", p.Len())
	}
}

func TestAddressesFollowLiveCounts(t *testing.T) {
	p := sampleProgram(t)
	blocks := p.Blocks()
	for i := 1; i < len(blocks); i++ {
		prev, _ := p.Address(blocks[i-1].Name)
		cur, _ := p.Address(blocks[i].Name)
		if cur-prev != blocks[i-1].Live() {
			t.Errorf("gap %s→%s = %d, want %d", blocks[i-1].Name, blocks[i].Name, cur-prev, blocks[i-1].Live())
		}
		if cur <= prev {
			t.Errorf("address of %s = %d, not after %d", blocks[i].Name, cur, prev)
		}
	}
}

func TestAddBlockDuplicate(t *testing.T) {
	p := NewRelative()
	if err := p.AddBlock("main", Code{Rtn("")}); err != nil {
		t.Fatal(err)
	}
	err := p.AddBlock("main", Code{Rtn("")})
	if !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("err = %v, want ErrDuplicateLabel", err)
	}
}

func TestTranslateResolvesLabels(t *testing.T) {
	abs, err := sampleProgram(t).Translate()
	if err != nil {
		t.Fatal(err)
	}
	for _, in := range abs.Code {
		for _, o := range in.Operands {
			if o.Kind == KindLabel {
				t.Errorf("%s still has label operand %s", in, o.Label)
			}
		}
	}
	live := abs.Instructions()
	if got := live[1].String(); got != "LDF 4 ; closure" {
		t.Errorf("live[1] = %q, want %q", got, "LDF 4 ; closure")
	}
	if got := live[7].String(); got != "SEL 9 11" {
		t.Errorf("live[7] = %q, want %q", got, "SEL 9 11")
	}
}

func TestTranslateUnresolved(t *testing.T) {
	p := NewRelative()
	if err := p.AddBlock("main", Code{Ldf("missing", ""), Rtn("")}); err != nil {
		t.Fatal(err)
	}
	_, err := p.Translate()
	if !errors.Is(err, ErrUnresolvedLabel) {
		t.Errorf("err = %v, want ErrUnresolvedLabel", err)
	}
}

func TestTranslateDoesNotMutate(t *testing.T) {
	p := sampleProgram(t)
	before := p.Labeled()
	first, err := p.Translate()
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Translate()
	if err != nil {
		t.Fatal(err)
	}
	if p.Labeled() != before {
		t.Errorf("Translate modified the relative program:\n%s\nwant:\n%s", p.Labeled(), before)
	}
	a, _ := first.Render()
	b, _ := second.Render()
	if a != b {
		t.Errorf("Translate not repeatable:\n%s\nvs\n%s", a, b)
	}
}

func TestRender(t *testing.T) {
	abs, err := sampleProgram(t).Translate()
	if err != nil {
		t.Fatal(err)
	}
	got, err := abs.Render()
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"LDC 1",
		"LDF 4 ; closure",
		"AP 1",
		"RTN",
		"",
		"LD 0 0 ; x",
		"LDC 0",
		"CGT",
		"SEL 9 11",
		"RTN",
		"",
		"LDC 10",
		"JOIN",
		"",
		"LDC 20",
		"JOIN",
	}, "\n") + "\n"
	if got != want {
		t.Errorf("Render =\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderCollapsesEmptyBlocks(t *testing.T) {
	p := NewRelative()
	for _, name := range []string{"a", "b", "c"} {
		var code Code
		if name == "b" {
			code = Code{New(OpSTOP, "")}
		}
		if err := p.AddBlock(name, code); err != nil {
			t.Fatal(err)
		}
	}
	abs, err := p.Translate()
	if err != nil {
		t.Fatal(err)
	}
	got, _ := abs.Render()
	if got != "STOP\n" {
		t.Errorf("Render = %q, want %q", got, "STOP\n")
	}
}

func TestRenderRejectsMultilineComment(t *testing.T) {
	abs := &Absolute{Code: Code{Ldc(1, "one\ntwo")}}
	_, err := abs.Render()
	if !errors.Is(err, ErrCommentNewline) {
		t.Errorf("err = %v, want ErrCommentNewline", err)
	}
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		in   Instruction
		want string
	}{
		{Ldc(-3, ""), "LDC -3"},
		{Ld(1, 2, "y"), "LD 1 2 ; y"},
		{Sel("t", "f", ""), "SEL t f"},
		{Marker("main"), "main:"},
		{Nil("nil"), "LDC 0 ; nil"},
	}
	for _, tc := range tests {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestInstructionValidate(t *testing.T) {
	if err := Ld(0, 1, "").Validate(); err != nil {
		t.Errorf("Validate(LD 0 1) = %v", err)
	}
	if err := New(OpLD, "", Const(0)).Validate(); err == nil {
		t.Error("Validate(LD 0) = nil, want operand count error")
	}
	if err := New(OpLDF, "", LabelDef("x")).Validate(); err == nil {
		t.Error("Validate(LDF x:) = nil, want label definition error")
	}
}

func TestCodeCloneIsDeep(t *testing.T) {
	orig := Code{Ld(0, 0, "")}
	cp := orig.Clone()
	cp[0].Operands[1] = Const(7)
	cp[0].Comment = "changed"
	if orig[0].Operands[1].Value != 0 || orig[0].Comment != "" {
		t.Errorf("Clone shares storage: %s", orig[0])
	}
}

func TestLookupOpcode(t *testing.T) {
	for _, op := range AllOpcodes() {
		got, ok := LookupOpcode(op.String())
		if !ok || got != op {
			t.Errorf("LookupOpcode(%q) = %v, %v", op.String(), got, ok)
		}
	}
	if _, ok := LookupOpcode("LABEL"); ok {
		t.Error("LookupOpcode(LABEL) found the marker pseudo-op")
	}
	if op, ok := LookupOpcode("cgte"); !ok || op != OpCGTE {
		t.Errorf("LookupOpcode(cgte) = %v, %v", op, ok)
	}
}
