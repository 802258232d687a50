package compiler

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/laml/asm"
)

// context holds the state of one compilation: the table of generated
// blocks and the counter used to name them. Block names are reserved when a
// construct starts compiling and filled in when it finishes, so blocks are
// laid out in the order their constructs appear in the source.
type context struct {
	log commonlog.Logger

	counter  int
	order    []string
	reserved map[string]bool
	blocks   map[string]asm.Code
}

func newContext(log commonlog.Logger) *context {
	return &context{
		log:      log,
		reserved: make(map[string]bool),
		blocks:   make(map[string]asm.Code),
	}
}

// reserve claims name for a block. Its code is supplied later by emit.
func (c *context) reserve(name string) error {
	if c.reserved[name] {
		return fmt.Errorf("%w: %s", asm.ErrDuplicateLabel, name)
	}
	c.reserved[name] = true
	c.order = append(c.order, name)
	return nil
}

// fresh reserves and returns a block name of the form prefix_N that has not
// been used in this compilation.
func (c *context) fresh(prefix string) string {
	for {
		c.counter++
		name := fmt.Sprintf("%s_%d", prefix, c.counter)
		if !c.reserved[name] {
			c.reserved[name] = true
			c.order = append(c.order, name)
			return name
		}
	}
}

func (c *context) emit(name string, code asm.Code) {
	c.blocks[name] = code
	c.log.Debugf("block %s: %d instructions", name, code.Live())
}

// link lays the blocks out in reservation order.
func (c *context) link() (*asm.Relative, error) {
	prog := asm.NewRelative()
	for _, name := range c.order {
		code, ok := c.blocks[name]
		if !ok {
			return nil, fmt.Errorf("%w: block %s was reserved but never generated", asm.ErrUnresolvedLabel, name)
		}
		if err := prog.AddBlock(name, code); err != nil {
			return nil, err
		}
	}
	c.log.Debugf("linked %d blocks, %d instructions", len(c.order), prog.Len())
	return prog, nil
}

// bodyName is the label of the block that runs a function's body once its
// frame is in place.
func bodyName(fn string) string { return fn + "_body" }

// compileFunction compiles body as the function fn whose arguments live in
// args. It produces two blocks. The entry block allocates the local frame,
// evaluates each local definition in slot order and enters the body block
// with RAP; the body block stores those values into their slots and runs
// the body.
func (c *context) compileFunction(fn string, body Node, args *Frame) error {
	if err := c.reserve(bodyName(fn)); err != nil {
		return err
	}
	local := NewFrame(args)
	bodyCode, _, err := c.compile(body, local, false)
	if err != nil {
		return err
	}

	defs := local.Bindings()
	n := len(defs)

	entry := asm.Code{asm.Dum(n, "")}
	for _, b := range defs {
		def, err := b.Definition()
		if err != nil {
			return errorf(SyntaxError, body.Line(), "%s has no definition", b.Name)
		}
		if len(def) > 0 {
			def[0].Comment = "define " + b.Name
		}
		entry = append(entry, def...)
	}
	for range defs {
		entry = append(entry, asm.Ldc(0, ""))
	}
	entry = append(entry,
		asm.Ldf(bodyName(fn), ""),
		asm.Rap(n, ""),
		asm.Rtn(""),
	)

	code := make(asm.Code, 0, n+len(bodyCode)+1)
	for i := n - 1; i >= 0; i-- {
		code = append(code, asm.St(0, i, defs[i].Name))
	}
	code = append(code, bodyCode...)
	code = append(code, asm.Rtn(""))

	c.emit(fn, entry)
	c.emit(bodyName(fn), code)
	return nil
}

// compileBranch compiles one arm of an if into its own block ending in
// JOIN.
func (c *context) compileBranch(name string, n Node, env *Frame, header bool) (Type, error) {
	code, typ, err := c.compile(n, env, header)
	if err != nil {
		return TypeUnknown, err
	}
	c.emit(name, append(code, asm.Join("")))
	return typ, nil
}
