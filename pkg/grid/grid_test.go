package grid_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openltablets/dtinfer/pkg/grid"
)

func TestCellName(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		want string
		col  int
		row  int
	}{
		"origin":      {col: 0, row: 0, want: "A1"},
		"last letter": {col: 25, row: 9, want: "Z10"},
		"two letters": {col: 26, row: 0, want: "AA1"},
		"AZ":          {col: 51, row: 1, want: "AZ2"},
		"BA":          {col: 52, row: 2, want: "BA3"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, grid.CellName(tc.col, tc.row))
		})
	}
}

func TestTableMerges(t *testing.T) {
	t.Parallel()

	tbl, err := grid.NewTable([][]string{
		{"Driver", "", "Premium"},
		{"Age", "Gender", ""},
		{"18", "M", "100"},
	},
		grid.NewRegion(0, 0, 2, 1),
		grid.NewRegion(2, 0, 1, 2),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Width())
	assert.Equal(t, 3, tbl.Height())
	assert.Equal(t, "Driver", tbl.Cell(0, 0))
	assert.Empty(t, tbl.Cell(1, 0))
	assert.Equal(t, 2, tbl.CellWidth(0, 0))
	assert.Equal(t, 1, tbl.CellWidth(1, 0))
	assert.Equal(t, 2, tbl.CellHeight(2, 0))
	assert.Equal(t, 1, tbl.CellHeight(2, 1))
	assert.Empty(t, tbl.Cell(2, 1))
	assert.Empty(t, tbl.Cell(9, 9))

	_, err = grid.NewTable([][]string{{"a", "b"}}, grid.NewRegion(0, 0, 2, 1), grid.NewRegion(1, 0, 1, 1))
	require.NoError(t, err, "single-cell regions are ignored")

	_, err = grid.NewTable([][]string{{"a", "b", "c"}}, grid.NewRegion(0, 0, 2, 1), grid.NewRegion(1, 0, 2, 1))
	require.ErrorIs(t, err, grid.ErrMergeOverlap)

	_, err = grid.NewTable([][]string{{"a"}}, grid.NewRegion(0, 0, 2, 1))
	require.ErrorIs(t, err, grid.ErrInvalidRegion)
}

func TestSub(t *testing.T) {
	t.Parallel()

	tbl := grid.MustNewTable([][]string{
		{"x", "x", "x", "x"},
		{"x", "A", "", "B"},
		{"x", "1", "2", "3"},
	}, grid.NewRegion(1, 1, 2, 1))

	sub, err := tbl.Sub(grid.Region{Left: 1, Top: 1, Right: 3, Bottom: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, sub.Width())
	assert.Equal(t, 2, sub.Height())
	assert.Equal(t, "A", sub.Cell(0, 0))
	assert.Equal(t, 2, sub.CellWidth(0, 0))
	assert.Equal(t, "B", sub.Cell(2, 0))
	assert.Equal(t, "3", sub.Cell(2, 1))

	m, ok := sub.(grid.Merger)
	require.True(t, ok)
	assert.Equal(t, []grid.Region{grid.NewRegion(0, 0, 2, 1)}, m.Merges())

	_, err = tbl.Sub(grid.Region{Left: 0, Top: 0, Right: 4, Bottom: 0})
	require.ErrorIs(t, err, grid.ErrOutOfBounds)
}

func TestVirtualAndStack(t *testing.T) {
	t.Parallel()

	v := grid.NewVirtual(3, 2)
	require.NoError(t, v.SetCell(0, 0, "C1"))
	require.NoError(t, v.SetCell(2, 0, "RET1"))
	require.NoError(t, v.Merge(grid.NewRegion(0, 0, 2, 1)))
	require.ErrorIs(t, v.Merge(grid.NewRegion(1, 0, 2, 1)), grid.ErrMergeOverlap)
	require.ErrorIs(t, v.SetCell(3, 0, "x"), grid.ErrOutOfBounds)

	body := grid.MustNewTable([][]string{
		{"Age", "", "Premium"},
		{"18", "25", "100"},
	}, grid.NewRegion(0, 0, 2, 1))

	s := grid.Stack(v, body)
	assert.Equal(t, 3, s.Width())
	assert.Equal(t, 4, s.Height())
	assert.Equal(t, "C1", s.Cell(0, 0))
	assert.Equal(t, "RET1", s.Cell(2, 0))
	assert.Equal(t, "Age", s.Cell(0, 2))
	assert.Equal(t, 2, s.CellWidth(0, 2))
	assert.Equal(t, "100", s.Cell(2, 3))

	m, ok := s.(grid.Merger)
	require.True(t, ok)
	assert.ElementsMatch(t, []grid.Region{
		grid.NewRegion(0, 0, 2, 1),
		grid.NewRegion(0, 2, 2, 1),
	}, m.Merges())
}

func TestColumn(t *testing.T) {
	t.Parallel()

	tbl := grid.MustNewTable([][]string{
		{"Age"},
		{" 18 "},
		{""},
		{"25"},
	})

	assert.Equal(t, []string{"18", "25"}, grid.Column(tbl, 0, 1, tbl.Height()))
}

func TestParseArea(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err  error
		in   string
		want grid.Region
	}{
		"range":    {in: "B2:D5", want: grid.Region{Left: 1, Top: 1, Right: 3, Bottom: 4}},
		"absolute": {in: "$A$1:$B$2", want: grid.Region{Left: 0, Top: 0, Right: 1, Bottom: 1}},
		"single":   {in: "C3", want: grid.Region{Left: 2, Top: 2, Right: 2, Bottom: 2}},
		"reversed": {in: "D5:B2", want: grid.Region{Left: 1, Top: 1, Right: 3, Bottom: 4}},
		"invalid":  {in: "nope", err: grid.ErrInvalidRegion},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := grid.ParseArea(tc.in)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestXLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.xlsx")

	src := grid.MustNewTable([][]string{
		{"Rules", "", ""},
		{"Driver", "", "Premium"},
		{"Age", "Gender", ""},
		{"18", "M", "100"},
	},
		grid.NewRegion(0, 1, 2, 1),
		grid.NewRegion(2, 1, 1, 2),
	)

	require.NoError(t, grid.WriteXLSX(path, "Rules", src))

	got, err := grid.ReadXLSX(path, "Rules", "A2:C4")
	require.NoError(t, err)

	assert.Equal(t, 3, got.Width())
	assert.Equal(t, 3, got.Height())
	assert.Equal(t, "Driver", got.Cell(0, 0))
	assert.Equal(t, 2, got.CellWidth(0, 0))
	assert.Equal(t, "Premium", got.Cell(2, 0))
	assert.Equal(t, 2, got.CellHeight(2, 0))
	assert.Equal(t, "100", got.Cell(2, 2))

	_, err = grid.ReadXLSX(path, "Missing", "")
	require.ErrorIs(t, err, grid.ErrSheetNotFound)
}
