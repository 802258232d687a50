package compiler

import "strings"

// ---------------------------------------------------------------------------
// AST: expression tree for LaML
// ---------------------------------------------------------------------------

// Node is the interface implemented by all AST nodes. The set of node types
// is closed: a node is either a Variable or an Application.
type Node interface {
	Line() int
	String() string
	node() // marker method
}

// Variable is a leaf token: a name or an integer literal.
type Variable struct {
	Token   string
	LineVal int
}

func (n *Variable) Line() int      { return n.LineVal }
func (n *Variable) String() string { return n.Token }
func (n *Variable) node()          {}

// Application is a parenthesized form. The operator is itself a node, so
// ((f 1) 2) is representable.
type Application struct {
	Operator Node
	Args     []Node
	LineVal  int
}

func (n *Application) Line() int { return n.LineVal }
func (n *Application) node()     {}

func (n *Application) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(n.Operator.String())
	for _, a := range n.Args {
		sb.WriteByte(' ')
		sb.WriteString(a.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// OperatorName returns the operator token when the operator is a bare
// variable.
func (n *Application) OperatorName() (string, bool) {
	v, ok := n.Operator.(*Variable)
	if !ok {
		return "", false
	}
	return v.Token, true
}
