// Package definition holds reusable column-group definitions.
//
// A definition names a group of consecutive column titles, the local
// parameters read from those columns, the external inputs its expression
// refers to, and the expression itself. Decision tables whose titles match
// a definition's title set reuse it after reconciling the inputs against
// their own method parameters (see [Reconciler]).
package definition

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/openltablets/dtinfer/pkg/expr"
	"github.com/openltablets/dtinfer/pkg/role"
	"github.com/openltablets/dtinfer/pkg/token"
	"github.com/openltablets/dtinfer/pkg/typesys"
)

var (
	// ErrInvalidDefinition is returned when a definition is malformed.
	ErrInvalidDefinition = errors.New("invalid definition")
	// ErrDuplicateDefinition is returned when a name is registered twice.
	ErrDuplicateDefinition = errors.New("duplicate definition")
)

// Definition is a reusable column group.
type Definition struct {
	Expression *expr.Expression
	Name       string
	// Titles has one entry per column of the group.
	Titles []string
	// Params are the local parameters, one per title.
	Params []typesys.Param
	// Inputs declare the types of the external identifiers of the
	// expression.
	Inputs []typesys.Param
	tokens []string
	Role   role.Role
}

// New creates a [Definition], parsing expression in env.
func New(
	env *expr.Environment,
	name string,
	r role.Role,
	titles []string,
	params, inputs []typesys.Param,
	expression string,
) (*Definition, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, name, role.ErrUnknownRole)
	}

	if len(titles) == 0 {
		return nil, fmt.Errorf("%w: %s: no titles", ErrInvalidDefinition, name)
	}

	if len(params) != len(titles) {
		return nil, fmt.Errorf("%w: %s: %d titles but %d parameters", ErrInvalidDefinition, name, len(titles), len(params))
	}

	d := &Definition{
		Name:   name,
		Role:   r,
		Titles: slices.Clone(titles),
		Params: slices.Clone(params),
		Inputs: slices.Clone(inputs),
	}

	for _, t := range titles {
		tok := token.Tokenize(t)
		if tok == "" {
			return nil, fmt.Errorf("%w: %s: empty title", ErrInvalidDefinition, name)
		}

		if slices.Contains(d.tokens, tok) {
			return nil, fmt.Errorf("%w: %s: title %q is repeated", ErrInvalidDefinition, name, t)
		}

		d.tokens = append(d.tokens, tok)
	}

	seen := map[string]bool{}
	for _, p := range slices.Concat(params, inputs) {
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: %s: %q is declared twice", ErrInvalidDefinition, name, p.Name)
		}

		seen[p.Name] = true
	}

	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("%w: %s: empty expression", ErrInvalidDefinition, name)
	}

	x, err := env.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, name, err)
	}

	d.Expression = x

	for _, id := range x.Identifiers() {
		if !seen[id] {
			return nil, fmt.Errorf("%w: %s: identifier %q is neither a parameter nor an input", ErrInvalidDefinition, name, id)
		}
	}

	return d, nil
}

// Width returns the number of titles.
func (d *Definition) Width() int {
	return len(d.Titles)
}

// External returns the expression identifiers that are not local
// parameters, in order of first appearance.
func (d *Definition) External() []string {
	var ids []string

	for _, id := range d.Expression.Identifiers() {
		if !d.isLocal(id) {
			ids = append(ids, id)
		}
	}

	return ids
}

// Input returns the declared input with the given name.
func (d *Definition) Input(name string) (typesys.Param, bool) {
	i := slices.IndexFunc(d.Inputs, func(p typesys.Param) bool { return p.Name == name })
	if i < 0 {
		return typesys.Param{}, false
	}

	return d.Inputs[i], true
}

func (d *Definition) isLocal(name string) bool {
	return slices.ContainsFunc(d.Params, func(p typesys.Param) bool { return p.Name == name })
}

// MatchTitles compares the given column titles with the definition's title
// set. Titles are compared after tokenizing and order does not matter. On a
// match it returns, for each column, the index of the definition title it
// carries.
func (d *Definition) MatchTitles(titles []string) ([]int, bool) {
	if len(titles) != len(d.tokens) {
		return nil, false
	}

	order := make([]int, len(titles))
	used := make([]bool, len(d.tokens))

	for i, t := range titles {
		j := slices.Index(d.tokens, token.Tokenize(t))
		if j < 0 || used[j] {
			return nil, false
		}

		used[j] = true
		order[i] = j
	}

	return order, true
}

func (d *Definition) String() string {
	return fmt.Sprintf("%s %s [%s]", d.Role, d.Name, strings.Join(d.Titles, ", "))
}

// Registry is an ordered set of definitions. It must not be modified once
// it is shared between bindings.
type Registry struct {
	byName map[string]*Definition
	defs   []*Definition
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Definition{}}
}

// Add registers d.
func (r *Registry) Add(d *Definition) error {
	if _, ok := r.byName[d.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDefinition, d.Name)
	}

	r.byName[d.Name] = d
	r.defs = append(r.defs, d)

	return nil
}

// Get returns the definition with the given name.
func (r *Registry) Get(name string) (*Definition, bool) {
	d, ok := r.byName[name]

	return d, ok
}

// All returns the definitions in registration order.
func (r *Registry) All() []*Definition {
	if r == nil {
		return nil
	}

	return slices.Clone(r.defs)
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}

	return len(r.defs)
}
