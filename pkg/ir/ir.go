// Package ir is a small statement and expression tree for the code written
// into synthesized header cells.
//
// Trees are built with the node types below and rendered with [Render].
// The rendering uses the Java-like syntax of decision table cells: member
// selections, method calls, object construction, local declarations and a
// trailing return.
package ir

import (
	"strings"
)

// Node is an expression or a statement.
type Node interface {
	render(b *strings.Builder)
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

type (
	// Ident is a variable or parameter reference.
	Ident string

	// Select is a member selection, X.Field.
	Select struct {
		X     Expr
		Field string
	}

	// Call is a function call.
	Call struct {
		Func string
		Args []Expr
	}

	// MethodCall is a method invocation, Recv.Method(Args).
	MethodCall struct {
		Recv   Expr
		Method string
		Args   []Expr
	}

	// New constructs an instance of Type with its no-argument constructor.
	New struct {
		Type string
	}
)

type (
	// Decl declares a local variable.
	Decl struct {
		Value Expr
		Type  string
		Name  string
	}

	// ExprStmt evaluates an expression for its side effects.
	ExprStmt struct {
		X Expr
	}

	// Return returns X.
	Return struct {
		X Expr
	}

	// Block is a statement sequence.
	Block []Stmt
)

func (Ident) expr()      {}
func (Select) expr()     {}
func (Call) expr()       {}
func (MethodCall) expr() {}
func (New) expr()        {}

func (Decl) stmt()     {}
func (ExprStmt) stmt() {}
func (Return) stmt()   {}
func (Block) stmt()    {}

func (i Ident) render(b *strings.Builder) {
	b.WriteString(string(i))
}

func (s Select) render(b *strings.Builder) {
	s.X.render(b)
	b.WriteByte('.')
	b.WriteString(s.Field)
}

func (c Call) render(b *strings.Builder) {
	b.WriteString(c.Func)
	renderArgs(b, c.Args)
}

func (c MethodCall) render(b *strings.Builder) {
	c.Recv.render(b)
	b.WriteByte('.')
	b.WriteString(c.Method)
	renderArgs(b, c.Args)
}

func (n New) render(b *strings.Builder) {
	b.WriteString("new ")
	b.WriteString(n.Type)
	b.WriteString("()")
}

func (d Decl) render(b *strings.Builder) {
	b.WriteString(d.Type)
	b.WriteByte(' ')
	b.WriteString(d.Name)

	if d.Value != nil {
		b.WriteString(" = ")
		d.Value.render(b)
	}

	b.WriteByte(';')
}

func (s ExprStmt) render(b *strings.Builder) {
	s.X.render(b)
	b.WriteByte(';')
}

func (r Return) render(b *strings.Builder) {
	b.WriteString("return ")
	r.X.render(b)
	b.WriteByte(';')
}

// Statements are separated by a single space so that a block fits in one
// cell.
func (bl Block) render(b *strings.Builder) {
	for i, s := range bl {
		if i > 0 {
			b.WriteByte(' ')
		}

		s.render(b)
	}
}

func renderArgs(b *strings.Builder, args []Expr) {
	b.WriteByte('(')

	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}

		a.render(b)
	}

	b.WriteByte(')')
}

// Render returns the source text of n.
func Render(n Node) string {
	var b strings.Builder

	n.render(&b)

	return b.String()
}

func (bl Block) String() string {
	return Render(bl)
}

// Path builds the member selection root.f1.f2...
func Path(root string, fields ...string) Expr {
	var x Expr = Ident(root)

	for _, f := range fields {
		x = Select{X: x, Field: f}
	}

	return x
}

// Idents returns every identifier referenced by n, in rendering order,
// including repeats. Declared names are not included.
func Idents(n Node) []string {
	var out []string

	var walk func(n Node)

	walk = func(n Node) {
		switch n := n.(type) {
		case Ident:
			out = append(out, string(n))
		case Select:
			walk(n.X)
		case Call:
			for _, a := range n.Args {
				walk(a)
			}
		case MethodCall:
			walk(n.Recv)

			for _, a := range n.Args {
				walk(a)
			}
		case Decl:
			if n.Value != nil {
				walk(n.Value)
			}
		case ExprStmt:
			walk(n.X)
		case Return:
			walk(n.X)
		case Block:
			for _, s := range n {
				walk(s)
			}
		}
	}

	walk(n)

	return out
}
