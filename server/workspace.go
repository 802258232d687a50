package server

import (
	"errors"

	"github.com/chazu/laml/asm"
	"github.com/chazu/laml/compiler"
)

// Definition is a place where a name is bound in a document.
type Definition struct {
	Name string
	Line int    // 1-based
	Kind string // "define" or "parameter"
}

// Analysis is what the server knows about one version of a document.
type Analysis struct {
	Text string
	// Root is nil when the text does not lex.
	Root *compiler.Application
	// Defs maps each bound name to its first binding site.
	Defs map[string]Definition
	// Err is the first compile error, nil when the document compiles.
	Err error
	// Program is the compiled program, nil when Err is set.
	Program *asm.Relative
}

// Analyze lexes and compiles text. globals names the root frame; empty
// means the compiler defaults.
func Analyze(text string, globals []string) *Analysis {
	a := &Analysis{Text: text, Defs: make(map[string]Definition)}
	root, err := compiler.Parse(text)
	if err != nil {
		a.Err = err
		return a
	}
	a.Root = root
	collectDefinitions(root, a.Defs)

	a.Program, a.Err = compiler.CompileAST(root, compiler.Options{Globals: globals})
	return a
}

// ErrorLine returns the 1-based line of the analysis error, or 0.
func (a *Analysis) ErrorLine() int {
	var e *compiler.Error
	if errors.As(a.Err, &e) {
		return e.Line
	}
	return 0
}

func collectDefinitions(n compiler.Node, defs map[string]Definition) {
	app, ok := n.(*compiler.Application)
	if !ok {
		return
	}
	add := func(v *compiler.Variable, kind string) {
		if _, seen := defs[v.Token]; !seen {
			defs[v.Token] = Definition{Name: v.Token, Line: v.Line(), Kind: kind}
		}
	}
	switch name, _ := app.OperatorName(); name {
	case "define":
		if len(app.Args) > 0 {
			if v, ok := app.Args[0].(*compiler.Variable); ok {
				add(v, "define")
			}
		}
	case "lambda":
		if len(app.Args) > 0 {
			if params, ok := app.Args[0].(*compiler.Application); ok {
				for _, p := range append([]compiler.Node{params.Operator}, params.Args...) {
					if v, ok := p.(*compiler.Variable); ok && v.Token != "_" {
						add(v, "parameter")
					}
				}
			}
		}
	}
	collectDefinitions(app.Operator, defs)
	for _, arg := range app.Args {
		collectDefinitions(arg, defs)
	}
}

// Workspace holds the analyses of all open documents. It is not safe for
// concurrent use; the server only touches it from its Worker.
type Workspace struct {
	globals []string
	docs    map[string]*Analysis
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(globals []string) *Workspace {
	return &Workspace{globals: globals, docs: make(map[string]*Analysis)}
}

// Update replaces the text of uri and re-analyzes it.
func (w *Workspace) Update(uri, text string) *Analysis {
	a := Analyze(text, w.globals)
	w.docs[uri] = a
	return a
}

// Get returns the latest analysis of uri.
func (w *Workspace) Get(uri string) (*Analysis, bool) {
	a, ok := w.docs[uri]
	return a, ok
}

// Close forgets uri.
func (w *Workspace) Close(uri string) {
	delete(w.docs, uri)
}

// Globals returns the root frame names in slot order.
func (w *Workspace) Globals() []string {
	if len(w.globals) == 0 {
		return []string{compiler.GlobalWorldState, compiler.GlobalGhostCode}
	}
	return w.globals
}
