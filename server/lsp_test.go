package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ---------------------------------------------------------------------------
// LSP text extraction helpers
// ---------------------------------------------------------------------------

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  protocol.Position
		want string
	}{
		{"simple", "(def", protocol.Position{Line: 0, Character: 4}, "def"},
		{"operator chars", "(>", protocol.Position{Line: 0, Character: 2}, ">"},
		{"hyphenated", "(make-ad", protocol.Position{Line: 0, Character: 8}, "make-ad"},
		{"after paren", "(", protocol.Position{Line: 0, Character: 1}, ""},
		{"empty", "", protocol.Position{Line: 0, Character: 0}, ""},
		{"multi line", "(a)\n(b\n  WOR", protocol.Position{Line: 2, Character: 5}, "WOR"},
		{"beyond document", "x", protocol.Position{Line: 5, Character: 0}, ""},
		{"cursor past end", "abc", protocol.Position{Line: 0, Character: 10}, "abc"},
	}
	for _, tc := range tests {
		if got := extractPrefix(tc.text, tc.pos); got != tc.want {
			t.Errorf("%s: extractPrefix = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExtractWord(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  protocol.Position
		want string
	}{
		{"middle", "(make-adder 3)", protocol.Position{Line: 0, Character: 4}, "make-adder"},
		{"at end", "(car x)", protocol.Position{Line: 0, Character: 6}, "x"},
		{"on paren", "(car x)", protocol.Position{Line: 0, Character: 0}, ""},
		{"before comment", "x;note", protocol.Position{Line: 0, Character: 1}, "x"},
		{"second line", "(a)\n(>= b c)", protocol.Position{Line: 1, Character: 2}, ">="},
		{"beyond document", "x", protocol.Position{Line: 3, Character: 0}, ""},
	}
	for _, tc := range tests {
		if got := extractWord(tc.text, tc.pos); got != tc.want {
			t.Errorf("%s: extractWord = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestBoolPtr(t *testing.T) {
	if p := boolPtr(true); p == nil || !*p {
		t.Error("boolPtr(true) should return pointer to true")
	}
}

// ---------------------------------------------------------------------------
// Analysis-backed features
// ---------------------------------------------------------------------------

const sample = `(define make-adder (lambda (n)
  (lambda (x) (+ x n))))
(define add3 (make-adder 3))
(add3 WORLD-STATE)
`

func TestAnalyzeDefinitions(t *testing.T) {
	a := Analyze(sample, nil)
	if a.Err != nil {
		t.Fatalf("Analyze: %v", a.Err)
	}
	if a.Program == nil {
		t.Fatal("Analyze: no program")
	}
	want := map[string]Definition{
		"make-adder": {"make-adder", 1, "define"},
		"n":          {"n", 1, "parameter"},
		"x":          {"x", 2, "parameter"},
		"add3":       {"add3", 3, "define"},
	}
	for name, def := range want {
		if got := a.Defs[name]; got != def {
			t.Errorf("Defs[%s] = %+v, want %+v", name, got, def)
		}
	}
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		text string
		line protocol.UInteger
		msg  string
	}{
		{"unbound", "(define x 1)\n  (+ y 1)\n", 1, "y is not bound"},
		{"unterminated", "(a)\n(b\n", 1, "unterminated"},
		{"arity", "(+ 1)", 0, "+ expects 2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			diags := diagnostics(Analyze(tc.text, nil))
			if len(diags) != 1 {
				t.Fatalf("got %d diagnostics, want 1", len(diags))
			}
			d := diags[0]
			if d.Range.Start.Line != tc.line {
				t.Errorf("line = %d, want %d", d.Range.Start.Line, tc.line)
			}
			if !strings.Contains(d.Message, tc.msg) {
				t.Errorf("message %q does not contain %q", d.Message, tc.msg)
			}
			if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
				t.Errorf("severity = %v, want error", d.Severity)
			}
		})
	}

	if diags := diagnostics(Analyze(sample, nil)); len(diags) != 0 {
		t.Errorf("clean document has diagnostics: %v", diags)
	}
}

func TestLineRange(t *testing.T) {
	r := lineRange("ab\ncdef\n", 2)
	if r.Start.Line != 1 || r.Start.Character != 0 || r.End.Character != 4 {
		t.Errorf("lineRange = %+v, want line 1, chars 0-4", r)
	}
	if r := lineRange("ab", 0); r != (protocol.Range{}) {
		t.Errorf("lineRange(0) = %+v, want zero range", r)
	}
}

func TestComplete(t *testing.T) {
	a := Analyze(sample, nil)
	globals := NewWorkspace(nil).Globals()

	labels := func(items []protocol.CompletionItem) []string {
		var out []string
		for _, it := range items {
			out = append(out, it.Label)
		}
		return out
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{"la", []string{"lambda"}},
		{"ca", []string{"car"}},
		{"WOR", []string{"WORLD-STATE"}},
		{"make", []string{"make-adder"}},
		{">", []string{">", ">="}},
		{"zzz", nil},
	}
	for _, tc := range tests {
		got := labels(complete(a, globals, tc.prefix))
		if strings.Join(got, ",") != strings.Join(tc.want, ",") {
			t.Errorf("complete(%q) = %v, want %v", tc.prefix, got, tc.want)
		}
	}
}

func TestHover(t *testing.T) {
	a := Analyze(sample, nil)
	globals := []string{"WORLD-STATE", "GHOST-CODE"}

	tests := []struct {
		word string
		want string
	}{
		{"lambda", "special form"},
		{"+", "compiles to `ADD`"},
		{"GHOST-CODE", "Slot 1"},
		{"add3", "Bound at line 3"},
	}
	for _, tc := range tests {
		h := hover(a, globals, tc.word)
		if h == nil {
			t.Errorf("hover(%q) = nil", tc.word)
			continue
		}
		content := h.Contents.(protocol.MarkupContent)
		if !strings.Contains(content.Value, tc.want) {
			t.Errorf("hover(%q) = %q, want containing %q", tc.word, content.Value, tc.want)
		}
	}
	if h := hover(a, globals, "unknown"); h != nil {
		t.Errorf("hover(unknown) = %v, want nil", h)
	}
}

func TestWorkerSerializesWorkspace(t *testing.T) {
	w := NewWorker(NewWorkspace(nil))
	defer w.Stop()

	const uri = "file:///a.laml"
	for i := 0; i < 10; i++ {
		text := strings.Repeat("(+ 1 1)\n", i+1)
		if _, err := w.Do(func(ws *Workspace) any { return ws.Update(uri, text) }); err != nil {
			t.Fatal(err)
		}
	}
	res, err := w.Do(func(ws *Workspace) any {
		a, _ := ws.Get(uri)
		return a
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(res.(*Analysis).Text, "\n"); got != 10 {
		t.Errorf("latest text has %d lines, want 10", got)
	}

	if _, err := w.Do(func(ws *Workspace) any { panic("boom") }); err == nil {
		t.Error("panic inside Do was not reported")
	}

	w.Do(func(ws *Workspace) any { ws.Close(uri); return nil })
	res, _ = w.Do(func(ws *Workspace) any { _, ok := ws.Get(uri); return ok })
	if res.(bool) {
		t.Error("document still present after Close")
	}
}
