// Package header defines decision table header candidates and the
// pairwise compatibility between them.
package header

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/openltablets/dtinfer/pkg/definition"
	"github.com/openltablets/dtinfer/pkg/role"
	"github.com/openltablets/dtinfer/pkg/token"
)

// Kind is the way a header candidate was derived.
type Kind int

const (
	// KindPositional binds a column to a parameter by position only.
	KindPositional Kind = iota + 1
	// KindFuzzy binds a column by matching its title against a vocabulary.
	KindFuzzy
	// KindDeclared binds a column group through a reusable definition.
	KindDeclared
	// KindSimpleReturn is a trailing return column without a recognized
	// title.
	KindSimpleReturn
)

func (k Kind) String() string {
	switch k {
	case KindPositional:
		return "positional"
	case KindFuzzy:
		return "fuzzy"
	case KindDeclared:
		return "declared"
	case KindSimpleReturn:
		return "simple-return"
	}

	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Header is a candidate interpretation of one or more adjacent columns.
// Headers are immutable once constructed.
type Header struct {
	// Matched is set for declared headers.
	Matched *definition.Matched
	// Title is the column title text that produced the header.
	Title string
	// Token is the vocabulary token a fuzzy header matched.
	Token string
	// Binding is the parameter or return member chain of fuzzy headers,
	// and the parameter of positional headers.
	Binding token.Binding
	// Params are the method parameter indexes consumed, ascending.
	Params []int
	// Order maps each column title of a declared header to the
	// definition title it carries.
	Order  []int
	Column int
	Width  int
	// Titles is the number of title cells covered.
	Titles int
	Score  float64
	Kind   Kind
	Role   role.Role
}

// Positional creates a condition bound to parameter param by position.
func Positional(column, width, param int, title string) *Header {
	return &Header{
		Kind:    KindPositional,
		Role:    role.Condition,
		Column:  column,
		Width:   width,
		Titles:  1,
		Title:   title,
		Params:  []int{param},
		Binding: token.Binding{Param: param},
	}
}

// Fuzzy creates a header from a vocabulary match. Matches bound to the
// method result become [role.Return] headers, others conditions.
func Fuzzy(column, width int, title string, m token.Match) *Header {
	h := &Header{
		Kind:    KindFuzzy,
		Role:    role.Condition,
		Column:  column,
		Width:   width,
		Titles:  1,
		Title:   title,
		Token:   m.Token,
		Binding: m.Binding,
		Score:   m.Score,
	}

	if m.Binding.Param == token.ReturnParam {
		h.Role = role.Return
	} else {
		h.Params = []int{m.Binding.Param}
	}

	return h
}

// Declared creates a header spanning the title cells matched by a
// definition.
func Declared(column, width int, titles []string, order []int, m *definition.Matched) *Header {
	return &Header{
		Kind:    KindDeclared,
		Role:    m.Definition.Role,
		Column:  column,
		Width:   width,
		Titles:  len(titles),
		Title:   strings.Join(titles, " | "),
		Order:   slices.Clone(order),
		Params:  m.ParamIndexes(),
		Matched: m,
	}
}

// SimpleReturn creates a return header without a title binding.
func SimpleReturn(column, width int, title string) *Header {
	return &Header{
		Kind:    KindSimpleReturn,
		Role:    role.Return,
		Column:  column,
		Width:   width,
		Titles:  1,
		Title:   title,
		Binding: token.Binding{Param: token.ReturnParam},
	}
}

// End returns the column after the last column of the header.
func (h *Header) End() int {
	return h.Column + h.Width
}

// Overlaps reports whether h and o share a column.
func (h *Header) Overlaps(o *Header) bool {
	return h.Column < o.End() && o.Column < h.End()
}

// IsReturn reports whether the header has the return role.
func (h *Header) IsReturn() bool {
	return h.Role == role.Return
}

// Quality returns the match quality of a declared header, or 0.
func (h *Header) Quality() definition.Quality {
	if h.Matched == nil {
		return 0
	}

	return h.Matched.Quality
}

// Key identifies what the header binds, independently of how it was
// derived. Fits that agree on every key for a role agree on that role.
func (h *Header) Key() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s@%d+%d:", h.Role, h.Column, h.Width)

	switch h.Kind {
	case KindDeclared:
		b.WriteString("def:")
		b.WriteString(h.Matched.Definition.Name)
	case KindSimpleReturn:
		b.WriteString("ret")
	case KindPositional, KindFuzzy:
		b.WriteString(h.Binding.Key())
	}

	return b.String()
}

func (h *Header) String() string {
	return fmt.Sprintf("%s %s [%d,%d) %q", h.Kind, h.Role, h.Column, h.End(), h.Title)
}

// Compatible reports whether a and b may be selected together: their
// columns must not overlap and the one further left must not have a role
// that comes after the other's.
func Compatible(a, b *Header) bool {
	if a.Overlaps(b) {
		return false
	}

	if a.Column > b.Column {
		a, b = b, a
	}

	return a.Role.Before(b.Role)
}

// Matrix holds pairwise compatibility of a list of headers.
type Matrix struct {
	ok [][]bool
}

// NewMatrix computes the compatibility matrix of hs.
func NewMatrix(hs []*Header) *Matrix {
	ok := make([][]bool, len(hs))
	for i := range hs {
		ok[i] = make([]bool, len(hs))
	}

	for i := range hs {
		for j := i + 1; j < len(hs); j++ {
			c := Compatible(hs[i], hs[j])
			ok[i][j] = c
			ok[j][i] = c
		}
	}

	return &Matrix{ok: ok}
}

// Compatible reports whether headers i and j are compatible.
// A header is never compatible with itself.
func (m *Matrix) Compatible(i, j int) bool {
	return m.ok[i][j]
}

// CompatibleWithAll reports whether header i is compatible with every
// header in sel.
func (m *Matrix) CompatibleWithAll(i int, sel []int) bool {
	for _, j := range sel {
		if !m.ok[i][j] {
			return false
		}
	}

	return true
}

// Len returns the number of headers.
func (m *Matrix) Len() int {
	return len(m.ok)
}
