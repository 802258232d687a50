package compiler

import (
	"io"
	"strings"
	"unicode"
)

// ---------------------------------------------------------------------------
// Lexer: source text to expression tree
// ---------------------------------------------------------------------------

// Lexer reads LaML source into an expression tree. Comments run from ';' to
// the end of the line and are removed before tokenizing; line breaks are
// kept so that every node records the line it started on.
type Lexer struct {
	input []rune
	pos   int
	line  int
}

// NewLexer creates a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{input: []rune(stripComments(src)), line: 1}
}

// Parse reads every top-level form of src and wraps them in a synthetic
// begin application at line 1, so the program's value is that of its last
// form.
func Parse(src string) (*Application, error) {
	return NewLexer(src).ParseProgram()
}

// ParseReader is Parse over the contents of r.
func ParseReader(r io.Reader) (*Application, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(src))
}

// ParseProgram reads all remaining forms.
func (l *Lexer) ParseProgram() (*Application, error) {
	root := &Application{
		Operator: &Variable{Token: "begin", LineVal: 1},
		LineVal:  1,
	}
	for {
		l.skipWhitespace()
		if l.atEOF() {
			return root, nil
		}
		if l.peek() == ')' {
			return nil, errorf(LexError, l.line, "unexpected ')'")
		}
		n, err := l.parseNode()
		if err != nil {
			return nil, err
		}
		root.Args = append(root.Args, n)
	}
}

func (l *Lexer) parseNode() (Node, error) {
	l.skipWhitespace()
	if l.atEOF() {
		return nil, l.incomplete(l.line, "unexpected end of input")
	}
	switch l.peek() {
	case ')':
		return nil, errorf(LexError, l.line, "unexpected ')'")
	case '(':
		return l.parseApplication()
	}
	return l.parseToken()
}

func (l *Lexer) parseApplication() (Node, error) {
	open := l.line
	l.pos++ // consume '('

	l.skipWhitespace()
	if l.atEOF() {
		return nil, l.incomplete(open, "unterminated '('")
	}
	if l.peek() == ')' {
		return nil, errorf(LexError, open, "empty application '()'")
	}
	op, err := l.parseNode()
	if err != nil {
		return nil, err
	}
	app := &Application{Operator: op, LineVal: open}

	for {
		l.skipWhitespace()
		if l.atEOF() {
			return nil, l.incomplete(open, "unterminated '('")
		}
		if l.peek() == ')' {
			l.pos++
			return app, nil
		}
		arg, err := l.parseNode()
		if err != nil {
			return nil, err
		}
		app.Args = append(app.Args, arg)
	}
}

func (l *Lexer) parseToken() (Node, error) {
	start := l.pos
	for !l.atEOF() {
		r := l.peek()
		if unicode.IsSpace(r) || r == ')' {
			break
		}
		l.pos++
	}
	tok := string(l.input[start:l.pos])
	if err := validateToken(tok); err != nil {
		err.Line = l.line
		return nil, err
	}
	return &Variable{Token: tok, LineVal: l.line}, nil
}

func validateToken(tok string) *Error {
	switch {
	case tok == "":
		return errorf(LexError, 0, "empty token")
	case strings.ContainsAny(tok, "()"):
		return errorf(LexError, 0, "invalid token %q: contains a parenthesis", tok)
	case strings.IndexFunc(tok, unicode.IsSpace) >= 0:
		return errorf(LexError, 0, "invalid token %q: contains whitespace", tok)
	}
	return nil
}

func (l *Lexer) skipWhitespace() {
	for !l.atEOF() && unicode.IsSpace(l.peek()) {
		if l.peek() == '\n' {
			l.line++
		}
		l.pos++
	}
}

func (l *Lexer) peek() rune  { return l.input[l.pos] }
func (l *Lexer) atEOF() bool { return l.pos >= len(l.input) }

func (l *Lexer) incomplete(line int, msg string) *Error {
	e := errorf(LexError, line, "%s", msg)
	e.incomplete = true
	return e
}

// stripComments removes every ';' comment, keeping the line breaks.
func stripComments(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))
	inComment := false
	for _, r := range src {
		switch {
		case r == '\n':
			inComment = false
			sb.WriteRune(r)
		case inComment:
		case r == ';':
			inComment = true
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
