package compiler

import (
	"fmt"
	"io"

	"github.com/tliron/commonlog"

	"github.com/chazu/laml/asm"
)

// MainName is the label of the program's entry function. It is always the
// first block, so it links at address 0.
const MainName = "main"

// Options configures a compilation.
type Options struct {
	// Globals names the two values the machine passes to main. Empty means
	// WORLD-STATE and GHOST-CODE.
	Globals []string
	// Logger receives debug output. Nil means the "laml.compiler" logger.
	Logger commonlog.Logger
}

func (o Options) logger() commonlog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return commonlog.GetLogger("laml.compiler")
}

// Compile compiles LaML source into a relative program with default
// options.
func Compile(src string) (*asm.Relative, error) {
	return CompileWith(src, Options{})
}

// CompileWith compiles LaML source into a relative program.
func CompileWith(src string, opts Options) (*asm.Relative, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return CompileAST(root, opts)
}

// CompileReader compiles the LaML source read from r.
func CompileReader(r io.Reader, opts Options) (*asm.Relative, error) {
	root, err := ParseReader(r)
	if err != nil {
		return nil, err
	}
	return CompileAST(root, opts)
}

// CompileAST compiles a parsed program. root is compiled as the body of
// main, whose arguments are the root frame's globals.
func CompileAST(root Node, opts Options) (*asm.Relative, error) {
	if len(opts.Globals) != 0 && len(opts.Globals) != 2 {
		return nil, fmt.Errorf("compiler: expected 2 globals, got %d", len(opts.Globals))
	}
	c := newContext(opts.logger())
	if err := c.reserve(MainName); err != nil {
		return nil, err
	}
	if err := c.compileFunction(MainName, root, NewRootFrame(opts.Globals...)); err != nil {
		return nil, err
	}
	return c.link()
}

// Assemble compiles src and resolves every label, producing the final
// program.
func Assemble(src string, opts Options) (*asm.Absolute, error) {
	prog, err := CompileWith(src, opts)
	if err != nil {
		return nil, err
	}
	return prog.Translate()
}
