package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openltablets/dtinfer/pkg/ir"
	"github.com/openltablets/dtinfer/pkg/typesys"
)

func TestRender(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		node ir.Node
		want string
	}{
		"ident":       {node: ir.Ident("_c1"), want: "_c1"},
		"path":        {node: ir.Path("driver", "address", "city"), want: "driver.address.city"},
		"call":        {node: ir.Call{Func: "double", Args: []ir.Expr{ir.Ident("age")}}, want: "double(age)"},
		"method call": {node: ir.MethodCall{Recv: ir.Ident("p"), Method: "setA", Args: []ir.Expr{ir.Ident("x"), ir.Ident("y")}}, want: "p.setA(x, y)"},
		"new":         {node: ir.New{Type: "Policy"}, want: "new Policy()"},
		"declaration": {node: ir.Decl{Type: "int", Name: "x"}, want: "int x;"},
		"return":      {node: ir.Return{X: ir.Ident("x")}, want: "return x;"},
		"block": {
			node: ir.Block{ir.Decl{Type: "Policy", Name: "p", Value: ir.New{Type: "Policy"}}, ir.Return{X: ir.Ident("p")}},
			want: "Policy p = new Policy(); return p;",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, ir.Render(tc.node))
		})
	}
}

type beans struct {
	policy *typesys.Type
	person *typesys.Type
	frozen *typesys.Type
}

func newBeans(t *testing.T) (*typesys.Registry, beans) {
	t.Helper()

	reg := typesys.NewRegistry()

	person, err := reg.DefineBean("Person")
	require.NoError(t, err)
	require.NoError(t, reg.AddMember(person, typesys.Member{Name: "name", Type: reg.MustLookup("String"), Writable: true}))
	require.NoError(t, reg.AddMember(person, typesys.Member{Name: "age", Type: reg.MustLookup("int"), Writable: true}))

	frozen, err := reg.DefineBean("Frozen")
	require.NoError(t, err)
	require.NoError(t, reg.AddMember(frozen, typesys.Member{Name: "id", Type: reg.MustLookup("int"), Writable: true}))
	reg.SetConstructible(frozen, false)

	policy, err := reg.DefineBean("Policy")
	require.NoError(t, err)
	require.NoError(t, reg.AddMember(policy, typesys.Member{Name: "a", Type: reg.MustLookup("int"), Writable: true}))
	require.NoError(t, reg.AddMember(policy, typesys.Member{Name: "b", Type: reg.MustLookup("String"), Writable: true}))
	require.NoError(t, reg.AddMember(policy, typesys.Member{Name: "holder", Type: person, Writable: true}))
	require.NoError(t, reg.AddMember(policy, typesys.Member{Name: "frozen", Type: frozen, Writable: true}))

	return reg, beans{policy: policy, person: person, frozen: frozen}
}

func member(reg *typesys.Registry, t *typesys.Type, name string) typesys.Member {
	for _, m := range reg.Members(t) {
		if m.Name == name {
			return m
		}
	}

	panic("no member " + name)
}

func TestCompound(t *testing.T) {
	t.Parallel()

	reg, b := newBeans(t)

	a := member(reg, b.policy, "a")
	bm := member(reg, b.policy, "b")
	holder := member(reg, b.policy, "holder")

	tcs := map[string]struct {
		as   []ir.Assignment
		want string
	}{
		"two setters": {
			as: []ir.Assignment{
				{Chain: []typesys.Member{a}, Value: ir.Ident("_r1")},
				{Chain: []typesys.Member{bm}, Value: ir.Ident("_r2")},
			},
			want: "Policy _ret = new Policy(); _ret.setA(_r1); _ret.setB(_r2); return _ret;",
		},
		"nested holder created once": {
			as: []ir.Assignment{
				{Chain: []typesys.Member{holder, member(reg, b.person, "name")}, Value: ir.Ident("_r1")},
				{Chain: []typesys.Member{holder, member(reg, b.person, "age")}, Value: ir.Ident("_r2")},
			},
			want: "Policy _ret = new Policy(); Person _ret_holder = new Person(); _ret.setHolder(_ret_holder); " +
				"_ret_holder.setName(_r1); _ret_holder.setAge(_r2); return _ret;",
		},
		"no assignments": {
			want: "Policy _ret = new Policy(); return _ret;",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			block, err := ir.Compound(b.policy, tc.as)
			require.NoError(t, err)
			assert.Equal(t, tc.want, block.String())
		})
	}
}

func TestCompoundReferencesEachValueOnce(t *testing.T) {
	t.Parallel()

	reg, b := newBeans(t)

	block, err := ir.Compound(b.policy, []ir.Assignment{
		{Chain: []typesys.Member{member(reg, b.policy, "a")}, Value: ir.Ident("_r1")},
		{Chain: []typesys.Member{member(reg, b.policy, "b")}, Value: ir.Ident("_r2")},
	})
	require.NoError(t, err)

	counts := map[string]int{}
	for _, id := range ir.Idents(block) {
		counts[id]++
	}

	assert.Equal(t, 1, counts["_r1"])
	assert.Equal(t, 1, counts["_r2"])
}

func TestCompoundErrors(t *testing.T) {
	t.Parallel()

	reg, b := newBeans(t)

	_, err := ir.Compound(reg.MustLookup("int"), nil)
	require.ErrorIs(t, err, ir.ErrNotCompound)

	_, err = ir.Compound(b.policy, []ir.Assignment{{Value: ir.Ident("_r1")}})
	require.ErrorIs(t, err, ir.ErrEmptyChain)

	_, err = ir.Compound(b.policy, []ir.Assignment{
		{Chain: []typesys.Member{member(reg, b.policy, "frozen"), member(reg, b.frozen, "id")}, Value: ir.Ident("_r1")},
	})
	require.ErrorIs(t, err, ir.ErrNotCompound)
	assert.ErrorContains(t, err, "frozen")
}
