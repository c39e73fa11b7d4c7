package header_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openltablets/dtinfer/pkg/header"
	"github.com/openltablets/dtinfer/pkg/role"
	"github.com/openltablets/dtinfer/pkg/token"
	"github.com/openltablets/dtinfer/pkg/typesys"
)

func withRole(h *header.Header, r role.Role) *header.Header {
	c := *h
	c.Role = r

	return &c
}

func TestCompatible(t *testing.T) {
	t.Parallel()

	cond := func(col, width int) *header.Header { return header.Positional(col, width, 0, "") }
	ret := func(col, width int) *header.Header { return header.SimpleReturn(col, width, "") }

	tcs := map[string]struct {
		a, b *header.Header
		want bool
	}{
		"adjacent conditions":   {a: cond(0, 1), b: cond(1, 1), want: true},
		"overlap":               {a: cond(0, 2), b: cond(1, 1), want: false},
		"same column":           {a: cond(2, 1), b: ret(2, 1), want: false},
		"condition then return": {a: cond(0, 1), b: ret(1, 1), want: true},
		"return then condition": {a: ret(0, 1), b: cond(1, 1), want: false},
		"reversed arguments":    {a: ret(3, 1), b: cond(0, 2), want: true},
		"action after return":   {a: ret(0, 1), b: withRole(cond(2, 1), role.Action), want: false},
		"returns side by side":  {a: ret(0, 1), b: ret(1, 1), want: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, header.Compatible(tc.a, tc.b))
			assert.Equal(t, tc.want, header.Compatible(tc.b, tc.a))
		})
	}
}

func TestMatrixProperties(t *testing.T) {
	t.Parallel()

	// Every header of width 1 or 2 over 5 columns, in every role.
	var hs []*header.Header
	for col := range 5 {
		for width := 1; width <= 2 && col+width <= 5; width++ {
			for _, r := range role.All {
				hs = append(hs, withRole(header.Positional(col, width, 0, ""), r))
			}
		}
	}

	m := header.NewMatrix(hs)
	require.Equal(t, len(hs), m.Len())

	for i, a := range hs {
		assert.False(t, m.Compatible(i, i))

		for j, b := range hs {
			if i == j {
				continue
			}

			assert.Equal(t, m.Compatible(i, j), m.Compatible(j, i))

			if a.Overlaps(b) {
				assert.False(t, m.Compatible(i, j), "%s / %s", a, b)

				continue
			}

			left, right := a, b
			if left.Column > right.Column {
				left, right = right, left
			}

			assert.Equal(t, left.Role <= right.Role, m.Compatible(i, j), "%s / %s", a, b)
		}
	}

	// A non-overlapping, role-ordered selection is mutually compatible.
	sel := []*header.Header{
		header.Positional(0, 1, 0, ""),
		header.Positional(1, 2, 1, ""),
		withRole(header.Positional(3, 1, 2, ""), role.Action),
		header.SimpleReturn(4, 1, ""),
	}

	sm := header.NewMatrix(sel)
	for i := range sel {
		others := []int{}
		for j := range sel {
			if j != i {
				others = append(others, j)
			}
		}

		assert.True(t, sm.CompatibleWithAll(i, others))
	}
}

func TestConstructors(t *testing.T) {
	t.Parallel()

	reg := typesys.NewRegistry()
	age := typesys.Member{Name: "age", Type: reg.MustLookup("int"), Readable: true}

	f := header.Fuzzy(1, 2, "Driver Age", token.Match{
		Token:   "driver age",
		Binding: token.Binding{Param: 1, Chain: []typesys.Member{age}},
		Score:   1,
	})
	assert.Equal(t, role.Condition, f.Role)
	assert.Equal(t, []int{1}, f.Params)
	assert.Equal(t, 3, f.End())
	assert.Equal(t, "condition@1+2:1.age", f.Key())

	r := header.Fuzzy(3, 1, "Age", token.Match{Binding: token.Binding{Param: token.ReturnParam, Chain: []typesys.Member{age}}})
	assert.True(t, r.IsReturn())
	assert.Empty(t, r.Params)

	p := header.Positional(0, 1, 0, "X")
	assert.Equal(t, header.KindPositional, p.Kind)
	assert.Equal(t, "condition@0+1:0", p.Key())
	assert.Zero(t, p.Quality())

	s := header.SimpleReturn(4, 2, "Result")
	assert.Equal(t, "return@4+2:ret", s.Key())
	assert.Equal(t, `simple-return return [4,6) "Result"`, s.String())
}
