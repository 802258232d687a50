package compiler

import (
	"sort"

	"github.com/chazu/laml/asm"
)

// ---------------------------------------------------------------------------
// Special forms
// ---------------------------------------------------------------------------

type formCompiler func(c *context, app *Application, env *Frame, header bool) (asm.Code, Type, error)

type specialForm struct {
	name    string
	usage   string
	doc     string
	compile formCompiler
}

// specialForms is filled in init because the form compilers call back into
// compile, which reads this table.
var specialForms map[string]specialForm

func init() {
	specialForms = map[string]specialForm{
		"begin": {"begin", "(begin expr...)",
			"Evaluates each expression in order. The value is that of the last one.",
			compileBegin},
		"if": {"if", "(if pred then else)",
			"Evaluates then when pred is non-zero, else otherwise.",
			compileIf},
		"define": {"define", "(define name expr)",
			"Binds name in the enclosing function's frame.",
			compileDefine},
		"lambda": {"lambda", "(lambda (params...) body)",
			"Creates a closure. Write (_) for a closure without parameters.",
			compileLambda},
		"list": {"list", "(list expr...)",
			"Builds a nil-terminated list.",
			compileList},
		"tuple": {"tuple", "(tuple expr expr...)",
			"Builds a right-nested chain of pairs without a terminator.",
			compileTuple},
	}
}

// IsSpecialForm reports whether name is a special form.
func IsSpecialForm(name string) bool {
	_, ok := specialForms[name]
	return ok
}

// SpecialFormNames returns the names of all special forms, sorted.
func SpecialFormNames() []string {
	names := make([]string, 0, len(specialForms))
	for name := range specialForms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SpecialFormDoc returns a usage line and description for a special form.
func SpecialFormDoc(name string) (usage, doc string, ok bool) {
	f, ok := specialForms[name]
	return f.usage, f.doc, ok
}

func compileBegin(c *context, app *Application, env *Frame, header bool) (asm.Code, Type, error) {
	var code asm.Code
	typ := TypeUnknown
	for _, child := range app.Args {
		cc, t, err := c.compile(child, env, header)
		if err != nil {
			return nil, TypeUnknown, err
		}
		code = append(code, cc...)
		typ = t
	}
	return code, typ, nil
}

func compileIf(c *context, app *Application, env *Frame, header bool) (asm.Code, Type, error) {
	if len(app.Args) != 3 {
		return nil, TypeUnknown, errorf(ArityError, app.Line(),
			"if expects 3 arguments, got %d", len(app.Args))
	}
	code, predType, err := c.compile(app.Args[0], env, header)
	if err != nil {
		return nil, TypeUnknown, err
	}
	if predType.IsClosure() {
		return nil, TypeUnknown, errorf(TypeError, app.Args[0].Line(),
			"if predicate must be an integer, got %s", predType)
	}

	thenName := c.fresh("then")
	elseName := c.fresh("else")
	thenType, err := c.compileBranch(thenName, app.Args[1], env, header)
	if err != nil {
		return nil, TypeUnknown, err
	}
	elseType, err := c.compileBranch(elseName, app.Args[2], env, header)
	if err != nil {
		return nil, TypeUnknown, err
	}
	if !thenType.Compatible(elseType) {
		return nil, TypeUnknown, errorf(TypeError, app.Line(),
			"if branches disagree: %s and %s", thenType, elseType)
	}

	code = append(code, asm.Sel(thenName, elseName, ""))
	return code, thenType.Join(elseType), nil
}

func compileDefine(c *context, app *Application, env *Frame, header bool) (asm.Code, Type, error) {
	if len(app.Args) != 2 {
		return nil, TypeUnknown, errorf(ArityError, app.Line(),
			"define expects 2 arguments, got %d", len(app.Args))
	}
	name, ok := app.Args[0].(*Variable)
	if !ok {
		return nil, TypeUnknown, errorf(SyntaxError, app.Args[0].Line(),
			"define expects a name, got %s", app.Args[0])
	}
	if err := checkBindable(name); err != nil {
		return nil, TypeUnknown, err
	}

	b, err := env.Insert(name.Token, TypeUnknown)
	if err != nil {
		return nil, TypeUnknown, atNode(err, name)
	}
	code, typ, err := c.compile(app.Args[1], env, true)
	if err != nil {
		return nil, TypeUnknown, err
	}
	if len(code) == 0 {
		return nil, TypeUnknown, errorf(SyntaxError, app.Line(),
			"definition of %s produces no value", name.Token)
	}
	b.Attach(code)
	b.Type = typ
	c.log.Debugf("define %s : %s (%d instructions)", name.Token, typ, len(code))
	return nil, TypeUnknown, nil
}

func compileLambda(c *context, app *Application, env *Frame, header bool) (asm.Code, Type, error) {
	if len(app.Args) != 2 {
		return nil, TypeUnknown, errorf(ArityError, app.Line(),
			"lambda expects 2 arguments, got %d", len(app.Args))
	}
	params, err := lambdaParams(app.Args[0])
	if err != nil {
		return nil, TypeUnknown, err
	}

	args := NewFrame(env)
	for _, p := range params {
		if _, err := args.Insert(p.Token, TypeUnknown); err != nil {
			return nil, TypeUnknown, atNode(err, p)
		}
	}

	name := c.fresh("lambda")
	if err := c.compileFunction(name, app.Args[1], args); err != nil {
		return nil, TypeUnknown, err
	}
	return asm.Code{asm.Ldf(name, "lambda")}, ClosureType(len(params)), nil
}

// lambdaParams reads a parameter list. (_) declares no parameters.
func lambdaParams(n Node) ([]*Variable, error) {
	list, ok := n.(*Application)
	if !ok {
		return nil, errorf(SyntaxError, n.Line(),
			"lambda parameters must be a list, got %s", n)
	}
	nodes := append([]Node{list.Operator}, list.Args...)
	params := make([]*Variable, 0, len(nodes))
	for _, pn := range nodes {
		p, ok := pn.(*Variable)
		if !ok {
			return nil, errorf(SyntaxError, pn.Line(),
				"lambda parameter must be a name, got %s", pn)
		}
		params = append(params, p)
	}
	if len(params) == 1 && params[0].Token == "_" {
		return nil, nil
	}
	for _, p := range params {
		if p.Token == "_" {
			return nil, errorf(SyntaxError, p.Line(),
				"_ must be the only entry of a parameter list")
		}
		if err := checkBindable(p); err != nil {
			return nil, err
		}
	}
	return params, nil
}

func compileList(c *context, app *Application, env *Frame, header bool) (asm.Code, Type, error) {
	code, err := c.compileSequence(app.Args, env, header)
	if err != nil {
		return nil, TypeUnknown, err
	}
	code = append(code, asm.Nil("nil"))
	for range app.Args {
		code = append(code, asm.Cons(""))
	}
	return code, TypeUnknown, nil
}

func compileTuple(c *context, app *Application, env *Frame, header bool) (asm.Code, Type, error) {
	switch len(app.Args) {
	case 0:
		return nil, TypeUnknown, errorf(ArityError, app.Line(),
			"tuple expects at least 1 argument")
	case 1:
		return c.compile(app.Args[0], env, header)
	}
	code, err := c.compileSequence(app.Args, env, header)
	if err != nil {
		return nil, TypeUnknown, err
	}
	for i := 1; i < len(app.Args); i++ {
		code = append(code, asm.Cons(""))
	}
	return code, TypeUnknown, nil
}

// checkBindable rejects names that can never be referenced as variables.
func checkBindable(v *Variable) error {
	if _, ok := parseInteger(v.Token); ok {
		return errorf(SyntaxError, v.Line(), "cannot bind integer literal %s", v.Token)
	}
	if IsSpecialForm(v.Token) {
		return errorf(SyntaxError, v.Line(), "cannot bind special form name %s", v.Token)
	}
	return nil
}
