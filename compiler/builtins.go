package compiler

import (
	"sort"

	"github.com/chazu/laml/asm"
)

// Builtin is an operator compiled to a single machine instruction.
type Builtin struct {
	Name   string
	Arity  int
	Op     asm.Opcode
	Result Type
	Doc    string
}

var builtins = map[string]Builtin{
	"+":  {"+", 2, asm.OpADD, TypeInteger, "Integer addition."},
	"-":  {"-", 2, asm.OpSUB, TypeInteger, "Integer subtraction."},
	"*":  {"*", 2, asm.OpMUL, TypeInteger, "Integer multiplication."},
	"/":  {"/", 2, asm.OpDIV, TypeInteger, "Integer division."},
	"=":  {"=", 2, asm.OpCEQ, TypeInteger, "1 if both integers are equal, else 0."},
	">":  {">", 2, asm.OpCGT, TypeInteger, "1 if the first integer is greater, else 0."},
	">=": {">=", 2, asm.OpCGTE, TypeInteger, "1 if the first integer is greater or equal, else 0."},

	"cons": {"cons", 2, asm.OpCONS, TypeUnknown, "Builds a pair."},
	"car":  {"car", 1, asm.OpCAR, TypeUnknown, "First element of a pair."},
	"cdr":  {"cdr", 1, asm.OpCDR, TypeUnknown, "Second element of a pair."},
	"atom": {"atom", 1, asm.OpATOM, TypeInteger, "1 if the value is an integer, else 0."},

	"debug": {"debug", 1, asm.OpDBUG, TypeUnknown, "Sends the value to the debug trace."},
	"break": {"break", 0, asm.OpBRK, TypeUnknown, "Breakpoint."},
}

// LookupBuiltin returns the built-in named name.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

// BuiltinNames returns the names of all built-ins, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *context) compileBuiltin(b Builtin, app *Application, env *Frame, header bool) (asm.Code, Type, error) {
	if len(app.Args) != b.Arity {
		return nil, TypeUnknown, errorf(ArityError, app.Line(),
			"%s expects %d arguments, got %d", b.Name, b.Arity, len(app.Args))
	}
	code, err := c.compileSequence(app.Args, env, header)
	if err != nil {
		return nil, TypeUnknown, err
	}
	return append(code, asm.New(b.Op, "")), b.Result, nil
}
