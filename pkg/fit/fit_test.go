package fit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openltablets/dtinfer/pkg/diag"
	"github.com/openltablets/dtinfer/pkg/fit"
	"github.com/openltablets/dtinfer/pkg/header"
	"github.com/openltablets/dtinfer/pkg/role"
	"github.com/openltablets/dtinfer/pkg/token"
	"github.com/openltablets/dtinfer/pkg/typesys"
)

func pos(col, param int) *header.Header {
	return header.Positional(col, 1, param, "")
}

func fuzzy(col, param int, title string) *header.Header {
	return header.Fuzzy(col, 1, title, token.Match{Token: title, Binding: token.Binding{Param: param}, Score: 1})
}

func member(col int, name string) *header.Header {
	b := token.Binding{Param: token.ReturnParam, Chain: []typesys.Member{{Name: name}}}

	return header.Fuzzy(col, 1, name, token.Match{Token: name, Binding: b, Score: 1})
}

func ret(col, width int) *header.Header {
	return header.SimpleReturn(col, width, "")
}

func TestSolveAmbiguousFits(t *testing.T) {
	t.Parallel()

	hs := []*header.Header{
		fuzzy(0, 0, "Age"), fuzzy(0, 1, "Age"),
		fuzzy(1, 0, "Age"), fuzzy(1, 1, "Age"),
		ret(2, 1),
	}

	sink := diag.NewCollector()

	sol, err := fit.NewSolver(nil).Solve(t.Context(), fit.Problem{
		Headers:  hs,
		Location: diag.TableLocation("Rules"),
		Boundary: 3,
		Params:   2,
	}, sink)
	require.NoError(t, err)

	assert.Equal(t, fit.Fit{hs[0], hs[3], hs[4]}, sol.Fit)
	assert.Equal(t, []role.Role{role.Condition}, sol.Ambiguous)
	assert.Equal(t, 2, sol.Survivors)
	assert.False(t, sol.Fallback)

	warnings := sink.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, diag.CodeAmbiguousFit, warnings[0].Code)
	assert.Equal(t, "Rules", warnings[0].Location.Table)
}

func TestSolveDeterministic(t *testing.T) {
	t.Parallel()

	hs := []*header.Header{fuzzy(0, 0, "Age"), fuzzy(0, 1, "Age"), fuzzy(1, 0, "Age"), fuzzy(1, 1, "Age"), ret(2, 1)}
	p := fit.Problem{Headers: hs, Boundary: 3, Params: 2}

	first, err := fit.NewSolver(nil).Solve(t.Context(), p, nil)
	require.NoError(t, err)

	for range 5 {
		sol, err := fit.NewSolver(nil).Solve(t.Context(), p, nil)
		require.NoError(t, err)
		assert.Equal(t, first.Fit, sol.Fit)
	}
}

func TestSolveFailures(t *testing.T) {
	t.Parallel()

	fallback := fit.Fit{pos(0, 0), ret(1, 2)}

	tcs := map[string]struct {
		p            fit.Problem
		wantCode     diag.Code
		wantFallback bool
	}{
		"lookup without fit": {
			p:        fit.Problem{Boundary: 2, Params: 1, Horizontal: 1},
			wantCode: diag.CodeNoFit,
		},
		"fallback": {
			p:            fit.Problem{Headers: []*header.Header{pos(0, 0)}, Fallback: fallback, Boundary: 3, Params: 1},
			wantFallback: true,
		},
		"no fallback": {
			p:        fit.Problem{Headers: []*header.Header{pos(0, 0)}, Boundary: 3, Params: 1},
			wantCode: diag.CodeInsufficientColumns,
		},
		"unbound parameter": {
			p:        fit.Problem{Headers: []*header.Header{pos(0, 0), ret(1, 1)}, Boundary: 2, Params: 2, ParamNames: []string{"a", "b"}},
			wantCode: diag.CodeUnboundParameter,
		},
		"no return": {
			p:        fit.Problem{Headers: []*header.Header{pos(0, 0), pos(1, 1)}, Boundary: 2, Params: 2},
			wantCode: diag.CodeNoReturn,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			sol, err := fit.NewSolver(nil).Solve(t.Context(), tc.p, nil)
			if tc.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tc.wantCode, diag.Classify(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantFallback, sol.Fallback)
			assert.Equal(t, fallback, sol.Fit)
		})
	}
}

func TestEnumerate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		p    fit.Problem
		want []fit.Fit
	}{
		"positional binds lowest parameter": {
			p: fit.Problem{
				Headers:  []*header.Header{pos(0, 0), pos(0, 1), pos(1, 0), pos(1, 1), ret(2, 1)},
				Boundary: 3,
				Params:   2,
			},
			want: []fit.Fit{{pos(0, 0), pos(1, 1), ret(2, 1)}},
		},
		"bound parameters stop parameter headers": {
			p: fit.Problem{
				Headers:  []*header.Header{fuzzy(0, 0, "a"), fuzzy(1, 0, "a"), ret(1, 1)},
				Boundary: 2,
				Params:   1,
			},
			want: []fit.Fit{{fuzzy(0, 0, "a"), ret(1, 1)}},
		},
		"return before condition": {
			p: fit.Problem{
				Headers:  []*header.Header{ret(0, 1), pos(1, 0)},
				Boundary: 2,
				Params:   1,
			},
			want: []fit.Fit{{ret(0, 1)}},
		},
		"gap ends fit": {
			p: fit.Problem{
				Headers:  []*header.Header{pos(0, 0), ret(2, 1)},
				Boundary: 3,
				Params:   1,
			},
			want: []fit.Fit{{pos(0, 0)}},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fits, truncated := fit.NewSolver(nil).Enumerate(tc.p)
			assert.False(t, truncated)
			assert.Equal(t, tc.want, fits)
		})
	}
}

func TestEnumerateLimits(t *testing.T) {
	t.Parallel()

	one := 1
	hs := []*header.Header{fuzzy(0, 0, "a"), fuzzy(0, 1, "a"), ret(1, 1)}

	fits, truncated := fit.NewSolver(&fit.Config{MaxFits: &one}).Enumerate(fit.Problem{Headers: hs, Boundary: 2, Params: 2})
	assert.True(t, truncated)
	assert.Len(t, fits, 1)

	fits, truncated = fit.NewSolver(&fit.Config{MaxDepth: &one}).Enumerate(fit.Problem{Headers: hs, Boundary: 2, Params: 2})
	assert.True(t, truncated)
	assert.Equal(t, []fit.Fit{{hs[0]}, {hs[1]}}, fits)
}

func TestRank(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		p    fit.Problem
		fits []fit.Fit
		want []fit.Fit
	}{
		"one simple return": {
			p:    fit.Problem{Boundary: 3, Params: 1},
			fits: []fit.Fit{{pos(0, 0), ret(1, 1), ret(2, 1)}, {pos(0, 0), ret(1, 2)}},
			want: []fit.Fit{{pos(0, 0), ret(1, 2)}},
		},
		"reach boundary": {
			p:    fit.Problem{Boundary: 2, Params: 1},
			fits: []fit.Fit{{pos(0, 0)}, {pos(0, 0), ret(1, 1)}},
			want: []fit.Fit{{pos(0, 0), ret(1, 1)}},
		},
		"member assigned once": {
			p:    fit.Problem{Boundary: 3},
			fits: []fit.Fit{{member(0, "a"), member(1, "a"), member(2, "b")}, {member(0, "a"), member(1, "b"), member(2, "c")}},
			want: []fit.Fit{{member(0, "a"), member(1, "b"), member(2, "c")}},
		},
		"prefer conditions": {
			p:    fit.Problem{Boundary: 2, Params: 1},
			fits: []fit.Fit{{ret(0, 2)}, {pos(0, 0), ret(1, 1)}},
			want: []fit.Fit{{pos(0, 0), ret(1, 1)}},
		},
		"prefer return": {
			p:    fit.Problem{Boundary: 2, Params: 2},
			fits: []fit.Fit{{pos(0, 0), pos(1, 1)}, {pos(0, 0), ret(1, 1)}},
			want: []fit.Fit{{pos(0, 0), ret(1, 1)}},
		},
		"lookup drops returns": {
			p:    fit.Problem{Boundary: 2, Params: 2, Horizontal: 1},
			fits: []fit.Fit{{pos(0, 0), ret(1, 1)}, {pos(0, 0), pos(1, 1)}},
			want: []fit.Fit{{pos(0, 0), pos(1, 1)}},
		},
		"more parameters": {
			p:    fit.Problem{Boundary: 3, Params: 2},
			fits: []fit.Fit{{fuzzy(0, 0, "a"), fuzzy(1, 0, "a"), ret(2, 1)}, {fuzzy(0, 0, "a"), fuzzy(1, 1, "a"), ret(2, 1)}},
			want: []fit.Fit{{fuzzy(0, 0, "a"), fuzzy(1, 1, "a"), ret(2, 1)}},
		},
		"compound over simple return": {
			p:    fit.Problem{Boundary: 3, Params: 1},
			fits: []fit.Fit{{pos(0, 0), ret(1, 2)}, {pos(0, 0), member(1, "a"), member(2, "b")}},
			want: []fit.Fit{{pos(0, 0), member(1, "a"), member(2, "b")}},
		},
		"titles over positions": {
			p: fit.Problem{Boundary: 3, Params: 2},
			fits: []fit.Fit{
				{header.Positional(0, 1, 0, "Age"), header.Positional(1, 1, 1, "Limit"), ret(2, 1)},
				{fuzzy(0, 0, "Age"), header.Positional(1, 1, 1, "Limit"), ret(2, 1)},
			},
			want: []fit.Fit{{fuzzy(0, 0, "Age"), header.Positional(1, 1, 1, "Limit"), ret(2, 1)}},
		},
		"nothing survives": {
			p:    fit.Problem{Boundary: 3, Params: 1},
			fits: []fit.Fit{{pos(0, 0)}},
			want: nil,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, fit.Rank(tc.p, tc.fits))
		})
	}
}

func TestFitHelpers(t *testing.T) {
	t.Parallel()

	f := fit.Fit{fuzzy(0, 1, "b"), pos(1, 0), fuzzy(2, 1, "b"), ret(3, 2)}

	assert.Equal(t, []int{0, 1}, f.Params())
	assert.Equal(t, 5, f.End())
	assert.True(t, f.Has(role.Return))
	assert.False(t, f.Has(role.Action))
	assert.Len(t, f.ByRole(role.Condition), 3)
	assert.Equal(t, []string{"return@3+2:ret"}, f.Keys(role.Return))
	assert.Zero(t, f.DeclaredTitles(0))
	assert.Zero(t, fit.Fit{}.End())
}

func TestConfig(t *testing.T) {
	t.Parallel()

	zero := 0

	require.NoError(t, fit.NewConfig().Validate())
	require.ErrorIs(t, (&fit.Config{MaxFits: &zero}).Validate(), fit.ErrInvalidConfig)
	require.ErrorIs(t, (&fit.Config{MaxDepth: &zero}).Validate(), fit.ErrInvalidConfig)
}
