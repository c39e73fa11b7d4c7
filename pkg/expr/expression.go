package expr

import (
	"log/slog"
	"slices"
	"strings"

	celast "github.com/google/cel-go/common/ast"
)

// Ident is an identifier occurrence in an expression's source.
// Start and Stop are rune offsets.
type Ident struct {
	Name  string
	Start int
	Stop  int
}

// Expression is a parsed CEL expression.
type Expression struct {
	source string
	idents []Ident
}

func newExpression(source string, ast *celast.AST, constants map[string]bool) *Expression {
	bound := map[string]bool{}

	var found []Ident

	celast.PreOrderVisit(ast.Expr(), celast.NewExprVisitor(func(e celast.Expr) {
		//nolint:exhaustive // Only identifiers and comprehensions are relevant.
		switch e.Kind() {
		case celast.ComprehensionKind:
			c := e.AsComprehension()
			bound[c.IterVar()] = true
			bound[c.AccuVar()] = true

			if c.HasIterVar2() {
				bound[c.IterVar2()] = true
			}

		case celast.IdentKind:
			off, ok := ast.SourceInfo().GetOffsetRange(e.ID())
			if !ok {
				return
			}

			found = append(found, Ident{
				Name:  e.AsIdent(),
				Start: int(off.Start),
				Stop:  int(off.Stop),
			})
		}
	}))

	src := []rune(source)

	idents := make([]Ident, 0, len(found))

	for _, id := range found {
		switch {
		case bound[id.Name], constants[id.Name], strings.HasPrefix(id.Name, "@"):
			continue
		case id.Start < 0 || id.Stop > len(src) || string(src[id.Start:id.Stop]) != id.Name:
			// Identifiers synthesized by macros have no source text.
			continue
		}

		if slices.ContainsFunc(idents, func(o Ident) bool { return o.Start == id.Start }) {
			continue
		}

		idents = append(idents, id)
	}

	slices.SortFunc(idents, func(a, b Ident) int { return a.Start - b.Start })

	return &Expression{source: source, idents: idents}
}

// Source returns the original expression text.
func (x *Expression) Source() string {
	return x.source
}

// Identifiers returns the free identifiers of the expression in order of
// first appearance. Comprehension variables and declared constants are
// excluded.
func (x *Expression) Identifiers() []string {
	var names []string

	for _, id := range x.idents {
		if !slices.Contains(names, id.Name) {
			names = append(names, id.Name)
		}
	}

	return names
}

// Occurrences returns every free identifier occurrence in source order.
func (x *Expression) Occurrences() []Ident {
	return slices.Clone(x.idents)
}

// Rewrite returns the source with every occurrence of each identifier in
// repl replaced by its replacement text. Other text is left untouched.
func (x *Expression) Rewrite(repl map[string]string) string {
	if len(repl) == 0 {
		return x.source
	}

	src := []rune(x.source)

	var (
		b    strings.Builder
		last int
	)

	for _, id := range x.idents {
		r, ok := repl[id.Name]
		if !ok {
			continue
		}

		b.WriteString(string(src[last:id.Start]))
		b.WriteString(r)
		last = id.Stop
	}

	b.WriteString(string(src[last:]))

	out := b.String()
	slog.Debug("rewrite expression",
		slog.String("source", x.source),
		slog.String("result", out),
	)

	return out
}
