package compiler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/chazu/laml/asm"
)

// ---------------------------------------------------------------------------
// Codegen: expression tree to GCC instructions
// ---------------------------------------------------------------------------

// compile generates code for n in env. In header mode, references to the
// innermost frame are replaced by a copy of the referenced definition
// because that frame does not exist yet at run time.
func (c *context) compile(n Node, env *Frame, header bool) (asm.Code, Type, error) {
	switch n := n.(type) {
	case *Variable:
		return c.compileVariable(n, env, header)
	case *Application:
		return c.compileApplication(n, env, header)
	}
	return nil, TypeUnknown, errorf(SyntaxError, n.Line(), "unexpected node %T", n)
}

func (c *context) compileVariable(v *Variable, env *Frame, header bool) (asm.Code, Type, error) {
	if n, ok := parseInteger(v.Token); ok {
		return asm.Code{asm.Ldc(n, "")}, TypeInteger, nil
	}
	if looksNumeric(v.Token) {
		return nil, TypeUnknown, errorf(SyntaxError, v.Line(), "integer literal %s out of range", v.Token)
	}
	if IsSpecialForm(v.Token) {
		return nil, TypeUnknown, errorf(SyntaxError, v.Line(), "%s is a special form, not a value", v.Token)
	}

	depth, b, err := env.Resolve(v.Token)
	if err != nil {
		return nil, TypeUnknown, atNode(err, v)
	}
	if header && depth == 0 {
		def, err := b.Definition()
		if errors.Is(err, ErrDefinitionPending) {
			return nil, TypeUnknown, errorf(SyntaxError, v.Line(),
				"%s is referenced inside its own definition", v.Token)
		}
		return def, b.Type, nil
	}
	return asm.Code{asm.Ld(depth, b.Index, v.Token)}, b.Type, nil
}

func (c *context) compileApplication(app *Application, env *Frame, header bool) (asm.Code, Type, error) {
	if name, ok := app.OperatorName(); ok {
		if form, ok := specialForms[name]; ok {
			return form.compile(c, app, env, header)
		}
		if b, ok := builtins[name]; ok {
			return c.compileBuiltin(b, app, env, header)
		}
	}
	return c.compileCall(app, env, header)
}

// compileCall applies a closure: arguments left to right, then the
// operator, then AP.
func (c *context) compileCall(app *Application, env *Frame, header bool) (asm.Code, Type, error) {
	code, err := c.compileSequence(app.Args, env, header)
	if err != nil {
		return nil, TypeUnknown, err
	}
	opCode, opType, err := c.compile(app.Operator, env, header)
	if err != nil {
		return nil, TypeUnknown, err
	}

	n := len(app.Args)
	switch {
	case opType.Kind == KindInteger:
		return nil, TypeUnknown, errorf(TypeError, app.Line(),
			"cannot apply %s: it is an integer", app.Operator)
	case opType.IsClosure() && opType.Arity != n:
		return nil, TypeUnknown, errorf(ArityError, app.Line(),
			"%s expects %d arguments, got %d", app.Operator, opType.Arity, n)
	}

	code = append(code, opCode...)
	comment := ""
	if name, ok := app.OperatorName(); ok {
		comment = name
	}
	code = append(code, asm.Ap(n, comment))
	return code, TypeUnknown, nil
}

// compileSequence compiles nodes in order and concatenates their code.
func (c *context) compileSequence(nodes []Node, env *Frame, header bool) (asm.Code, error) {
	var code asm.Code
	for _, n := range nodes {
		cc, _, err := c.compile(n, env, header)
		if err != nil {
			return nil, err
		}
		code = append(code, cc...)
	}
	return code, nil
}

// parseInteger parses a base-10 32-bit integer literal.
func parseInteger(tok string) (int, bool) {
	n, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func looksNumeric(tok string) bool {
	digits := strings.TrimLeft(tok, "+-")
	if digits == "" || len(tok)-len(digits) > 1 {
		return false
	}
	return strings.Trim(digits, "0123456789") == ""
}
