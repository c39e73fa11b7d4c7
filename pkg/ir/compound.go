package ir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openltablets/dtinfer/pkg/typesys"
)

// ResultVar is the local variable holding a compound result.
const ResultVar = "_ret"

var (
	// ErrNotCompound is returned when a type on an assignment path cannot
	// be constructed and populated through setters.
	ErrNotCompound = errors.New("type is not compound")
	// ErrEmptyChain is returned for an assignment without members.
	ErrEmptyChain = errors.New("empty member chain")
)

// Assignment sets the member at the end of Chain to Value.
type Assignment struct {
	Value Expr
	Chain []typesys.Member
}

// Compound builds the statements that construct a value of type t and
// apply the assignments through setters. Intermediate beans on a chain are
// constructed once, on first use, and attached to their parent.
//
// For a Policy with a nested Person holder the result renders as:
//
//	Policy _ret = new Policy(); Person _ret_holder = new Person();
//	_ret.setHolder(_ret_holder); _ret_holder.setName(_r1); return _ret;
func Compound(t *typesys.Type, as []Assignment) (Block, error) {
	if !t.IsCompound() {
		return nil, fmt.Errorf("%w: %s", ErrNotCompound, t.Name())
	}

	block := Block{Decl{Type: t.Name(), Name: ResultVar, Value: New{Type: t.Name()}}}
	holders := map[string]bool{ResultVar: true}

	for _, a := range as {
		if len(a.Chain) == 0 {
			return nil, ErrEmptyChain
		}

		parent := ResultVar

		for i, m := range a.Chain[:len(a.Chain)-1] {
			name := holderName(a.Chain[:i+1])

			if !holders[name] {
				if !m.Type.IsCompound() {
					return nil, fmt.Errorf("%w: %s of %s", ErrNotCompound, m.Type.Name(), holderPath(a.Chain[:i+1]))
				}

				block = append(block,
					Decl{Type: m.Type.Name(), Name: name, Value: New{Type: m.Type.Name()}},
					ExprStmt{X: MethodCall{Recv: Ident(parent), Method: m.Setter(), Args: []Expr{Ident(name)}}},
				)
				holders[name] = true
			}

			parent = name
		}

		leaf := a.Chain[len(a.Chain)-1]
		block = append(block, ExprStmt{X: MethodCall{Recv: Ident(parent), Method: leaf.Setter(), Args: []Expr{a.Value}}})
	}

	return append(block, Return{X: Ident(ResultVar)}), nil
}

func holderName(chain []typesys.Member) string {
	return ResultVar + "_" + strings.ReplaceAll(holderPath(chain), ".", "_")
}

func holderPath(chain []typesys.Member) string {
	names := make([]string, len(chain))
	for i, m := range chain {
		names[i] = m.Name
	}

	return strings.Join(names, ".")
}
