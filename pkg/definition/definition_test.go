package definition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openltablets/dtinfer/pkg/definition"
	"github.com/openltablets/dtinfer/pkg/diag"
	"github.com/openltablets/dtinfer/pkg/expr"
	"github.com/openltablets/dtinfer/pkg/role"
	"github.com/openltablets/dtinfer/pkg/token"
	"github.com/openltablets/dtinfer/pkg/typesys"
)

type fixture struct {
	reg *typesys.Registry
	env *expr.Environment
	rec *definition.Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg := typesys.NewRegistry()

	driver, err := reg.DefineBean("Driver")
	require.NoError(t, err)
	require.NoError(t, reg.AddMember(driver, typesys.Member{Name: "age", Type: reg.MustLookup("int"), Readable: true}))
	require.NoError(t, reg.AddMember(driver, typesys.Member{Name: "name", Type: reg.MustLookup("String"), Readable: true}))

	env := expr.MustNewEnvironment()

	return &fixture{
		reg: reg,
		env: env,
		rec: &definition.Reconciler{
			Caster:       typesys.Widening{},
			Introspector: reg,
			Matcher:      token.NewMatcher(nil),
			Cache:        token.NewCache(),
			Env:          env,
			Depth:        3,
		},
	}
}

func (f *fixture) params(t *testing.T, decls string) []typesys.Param {
	t.Helper()

	ps, err := f.reg.ParseParams(decls)
	require.NoError(t, err)

	return ps
}

func (f *fixture) define(t *testing.T, titles []string, params, inputs, expression string) *definition.Definition {
	t.Helper()

	d, err := definition.New(f.env, "def", role.Condition, titles, f.params(t, params), f.params(t, inputs), expression)
	require.NoError(t, err)

	return d
}

func (f *fixture) method(t *testing.T, decls string) typesys.Method {
	t.Helper()

	return typesys.Method{Name: "rule", Return: f.reg.MustLookup("double"), Params: f.params(t, decls)}
}

func TestNew(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	tcs := map[string]struct {
		titles     []string
		params     string
		inputs     string
		expression string
	}{
		"no titles":      {params: "", expression: "true"},
		"param mismatch": {titles: []string{"A", "B"}, params: "int a", expression: "a > 0"},
		"repeated title": {titles: []string{"Age", "age"}, params: "int a, int b", expression: "a < b"},
		"undeclared":     {titles: []string{"A"}, params: "int a", expression: "a < limit"},
		"syntax":         {titles: []string{"A"}, params: "int a", expression: "a <"},
		"empty":          {titles: []string{"A"}, params: "int a", expression: " "},
		"duplicate name": {titles: []string{"A"}, params: "int a", inputs: "int a", expression: "a > 0"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := definition.New(f.env, "bad", role.Condition, tc.titles,
				f.params(t, tc.params), f.params(t, tc.inputs), tc.expression)
			require.ErrorIs(t, err, definition.ErrInvalidDefinition)
		})
	}

	_, err := definition.New(f.env, "bad", role.Role(0), []string{"A"}, f.params(t, "int a"), nil, "a > 0")
	require.ErrorIs(t, err, definition.ErrInvalidDefinition)
}

func TestMatchTitles(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	d := f.define(t, []string{"Min Age", "Max Age"}, "int minAge, int maxAge", "int age", "between(age, minAge, maxAge)")

	assert.Equal(t, []string{"age"}, d.External())
	assert.Equal(t, 2, d.Width())

	order, ok := d.MatchTitles([]string{"min age", "MAX-AGE"})
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, order)

	order, ok = d.MatchTitles([]string{"Max Age", "Min Age"})
	require.True(t, ok)
	assert.Equal(t, []int{1, 0}, order)

	_, ok = d.MatchTitles([]string{"Min Age"})
	assert.False(t, ok)

	_, ok = d.MatchTitles([]string{"Min Age", "Min Age"})
	assert.False(t, ok)
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	tcs := map[string]struct {
		params     string
		inputs     string
		expression string
		method     string
		want       string
		indexes    []int
		renames    map[string]string
		quality    definition.Quality
	}{
		"exact": {
			params: "int minAge", inputs: "int driverAge", expression: "driverAge >= minAge",
			method: "int driverAge, String state",
			want:   "driverAge >= minAge", indexes: []int{0}, quality: definition.QualityExact,
		},
		"cast": {
			params: "double minAge", inputs: "double driverAge", expression: "driverAge >= minAge",
			method: "int driverAge",
			want:   "double(driverAge) >= minAge", indexes: []int{0}, quality: definition.QualityCast,
		},
		"rename": {
			params: "int minAge", inputs: "int age", expression: "age >= minAge",
			method: "String state, int driverAge",
			want:   "driverAge >= minAge", indexes: []int{1}, quality: definition.QualityRename,
		},
		"rename and cast": {
			params: "double minAge", inputs: "double age", expression: "age >= minAge",
			method: "int driverAge",
			want:   "double(driverAge) >= minAge", indexes: []int{0}, quality: definition.QualityRenameCast,
		},
		"name wins over rename": {
			params: "int limit", inputs: "int a, int b", expression: "a + b < limit",
			method: "int b, int a",
			want:   "a + b < limit", indexes: []int{0, 1}, quality: definition.QualityExact,
		},
		"nested field": {
			params: "int minAge", inputs: "int driverAge", expression: "driverAge >= minAge",
			method: "Driver driver",
			want:   "driver.age >= minAge", indexes: []int{0}, quality: definition.QualityField,
		},
		"local collision": {
			params: "String state", inputs: "String region", expression: "region == state",
			method: "String state, String region",
			want:   "region == _state", indexes: []int{1}, quality: definition.QualityExact,
			renames: map[string]string{"state": "_state"},
		},
		"local collision counter": {
			params: "String state", inputs: "String region", expression: "region == state",
			method: "String state, String region, String _state",
			want:   "region == _state1", indexes: []int{1}, quality: definition.QualityExact,
			renames: map[string]string{"state": "_state1"},
		},
		"locals only": {
			params: "boolean flag", expression: "flag",
			method: "int x",
			want:   "flag", quality: definition.QualityExact,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			d := f.define(t, []string{"Title"}, tc.params, tc.inputs, tc.expression)
			m := f.method(t, tc.method)

			all := make([]int, len(m.Params))
			for i := range all {
				all[i] = i
			}

			got, err := f.rec.Reconcile(d, m, all)
			require.NoError(t, err)

			assert.Equal(t, tc.want, got.Expression)
			assert.Equal(t, tc.indexes, got.ParamIndexes())
			assert.Equal(t, tc.quality, got.Quality)

			if tc.renames != nil {
				assert.Equal(t, tc.renames, got.Renames)
			} else {
				assert.Empty(t, got.Renames)
			}
		})
	}
}

func TestReconcileFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	t.Run("no candidate", func(t *testing.T) {
		t.Parallel()

		d := f.define(t, []string{"Code"}, "String c", "String code", "code == c")
		_, err := f.rec.Reconcile(d, f.method(t, "int driverAge"), []int{0})
		require.ErrorIs(t, err, definition.ErrNotReconcilable)
	})

	t.Run("parameter used once", func(t *testing.T) {
		t.Parallel()

		d := f.define(t, []string{"Limit"}, "int limit", "int a, int b", "a + b < limit")
		_, err := f.rec.Reconcile(d, f.method(t, "int x"), []int{0})
		require.ErrorIs(t, err, definition.ErrNotReconcilable)
	})

	t.Run("outside indexes", func(t *testing.T) {
		t.Parallel()

		d := f.define(t, []string{"Age"}, "int minAge", "int age", "age >= minAge")
		_, err := f.rec.Reconcile(d, f.method(t, "String state, int age"), []int{0})
		require.ErrorIs(t, err, definition.ErrNotReconcilable)
	})

	t.Run("type check", func(t *testing.T) {
		t.Parallel()

		d := f.define(t, []string{"Age"}, "String label", "int age", "age + label")
		_, err := f.rec.Reconcile(d, f.method(t, "int age"), []int{0})
		require.ErrorIs(t, err, definition.ErrNotReconcilable)
	})

	t.Run("ambiguous field", func(t *testing.T) {
		t.Parallel()

		d := f.define(t, []string{"Age"}, "int minAge", "int age", "age >= minAge")
		_, err := f.rec.Reconcile(d, f.method(t, "Driver first, Driver second"), []int{0, 1})

		var amb *definition.AmbiguityError
		require.ErrorAs(t, err, &amb)
		assert.Equal(t, "age", amb.Input)
		assert.Equal(t, []string{"first.age", "second.age"}, amb.Candidates)
		assert.Equal(t, diag.CodeAmbiguousMatch, diag.Classify(err))
		require.NotErrorIs(t, err, definition.ErrNotReconcilable)
	})
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	reg := definition.NewRegistry()

	d := f.define(t, []string{"A"}, "int a", "", "a > 0")
	require.NoError(t, reg.Add(d))
	require.ErrorIs(t, reg.Add(d), definition.ErrDuplicateDefinition)

	got, ok := reg.Get("def")
	require.True(t, ok)
	assert.Same(t, d, got)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, []*definition.Definition{d}, reg.All())
	assert.Equal(t, "condition def [A]", d.String())

	var empty *definition.Registry
	assert.Zero(t, empty.Len())
	assert.Nil(t, empty.All())
}

func TestQuality(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rename+cast", definition.QualityRenameCast.String())
	assert.Less(t, definition.QualityExact, definition.QualityField)
	assert.Len(t, definition.AllQualities, 5)
}
