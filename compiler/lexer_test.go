package compiler

import (
	"errors"
	"testing"
)

func TestParseWrapsInBegin(t *testing.T) {
	root, err := Parse("1 (f 2)")
	if err != nil {
		t.Fatal(err)
	}
	if name, _ := root.OperatorName(); name != "begin" {
		t.Errorf("root operator = %q, want begin", name)
	}
	if root.Line() != 1 {
		t.Errorf("root line = %d, want 1", root.Line())
	}
	if got := root.String(); got != "(begin 1 (f 2))" {
		t.Errorf("root = %s, want (begin 1 (f 2))", got)
	}
}

func TestParseStructure(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"x", "(begin x)"},
		{"(a b c)", "(begin (a b c))"},
		{"((f 1) 2)", "(begin ((f 1) 2))"},
		{"(a (b (c d)) e)", "(begin (a (b (c d)) e))"},
		{"  (a\tb)\n\n(c)  ", "(begin (a b) (c))"},
		{"(a b) ; trailing comment", "(begin (a b))"},
		{"; only a comment", "(begin)"},
		{"(a;comment)\n)", "(begin (a))"},
		{"(>= -1 +2)", "(begin (>= -1 +2))"},
		{"", "(begin)"},
	}
	for _, tc := range tests {
		root, err := Parse(tc.input)
		if err != nil {
			t.Errorf("Parse(%q): %v", tc.input, err)
			continue
		}
		if got := root.String(); got != tc.want {
			t.Errorf("Parse(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestParseLines(t *testing.T) {
	src := "(a\n  b\n  (c ; note (\n   d))\ne"
	root, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	a := root.Args[0].(*Application)
	if a.Line() != 1 {
		t.Errorf("a line = %d, want 1", a.Line())
	}
	if got := a.Args[0].Line(); got != 2 {
		t.Errorf("b line = %d, want 2", got)
	}
	c := a.Args[1].(*Application)
	if c.Line() != 3 {
		t.Errorf("c line = %d, want 3", c.Line())
	}
	if got := c.Args[0].Line(); got != 4 {
		t.Errorf("d line = %d, want 4", got)
	}
	if got := root.Args[1].Line(); got != 5 {
		t.Errorf("e line = %d, want 5", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input      string
		line       int
		incomplete bool
	}{
		{"(+ 1 2", 1, true},
		{"(a\n(b c)\n", 1, true},
		{"(a)\n\n  (b", 3, true},
		{"(", 1, true},
		{")", 1, false},
		{"(a))", 1, false},
		{"()", 1, false},
		{"\n(a ())", 2, false},
		{"(a(b))", 1, false},
		{"x(y", 1, false},
	}
	for _, tc := range tests {
		_, err := Parse(tc.input)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error", tc.input)
			continue
		}
		if !errors.Is(err, ErrLex) {
			t.Errorf("Parse(%q) error = %v, want lex error", tc.input, err)
		}
		var e *Error
		if errors.As(err, &e) && e.Line != tc.line {
			t.Errorf("Parse(%q) line = %d, want %d", tc.input, e.Line, tc.line)
		}
		if got := IsIncomplete(err); got != tc.incomplete {
			t.Errorf("IsIncomplete(Parse(%q)) = %v, want %v", tc.input, got, tc.incomplete)
		}
	}
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		tok string
		ok  bool
	}{
		{"abc", true},
		{"+", true},
		{"a-b?", true},
		{"", false},
		{"a(b", false},
		{"a)b", false},
		{"a b", false},
	}
	for _, tc := range tests {
		err := validateToken(tc.tok)
		if (err == nil) != tc.ok {
			t.Errorf("validateToken(%q) = %v, want ok=%v", tc.tok, err, tc.ok)
		}
	}
}

func TestStripComments(t *testing.T) {
	got := stripComments("a ; one\nb;two\n;three")
	if got != "a \nb\n" {
		t.Errorf("stripComments = %q, want %q", got, "a \nb\n")
	}
}

// ---------------------------------------------------------------------------
// FuzzParse: ensure the lexer never panics on arbitrary input.
// ---------------------------------------------------------------------------

func FuzzParse(f *testing.F) {
	seeds := []string{
		"", "x", "42", "-7", "(+ 1 2)", "(+ 1 2", ")", "()", "(a(b))",
		"(define f (lambda (x) (+ x 1)))\n(f 2)",
		"; comment\n(list 1 2 3)",
		"(if (= 1 1) (tuple 1 2) (tuple 3 4))",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, src string) {
		root, err := Parse(src)
		if err != nil {
			var e *Error
			if !errors.As(err, &e) || e.Kind != LexError {
				t.Errorf("Parse(%q) error = %v, want *Error of kind LexError", src, err)
			}
			return
		}
		if root == nil {
			t.Errorf("Parse(%q) returned nil root without error", src)
		}
	})
}
