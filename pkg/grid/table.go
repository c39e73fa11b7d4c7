package grid

import (
	"fmt"
	"slices"
)

// Table is an in-memory [Grid].
type Table struct {
	cells  [][]string
	merges []Region
	width  int
}

// NewTable creates a [Table] from row-major cell text and merged regions.
// Rows shorter than the widest row are padded with empty cells.
func NewTable(rows [][]string, merges ...Region) (*Table, error) {
	t := &Table{}

	for _, r := range rows {
		t.width = max(t.width, len(r))
	}

	t.cells = make([][]string, len(rows))
	for i, r := range rows {
		t.cells[i] = make([]string, t.width)
		copy(t.cells[i], r)
	}

	for _, m := range merges {
		err := t.addMerge(m)
		if err != nil {
			return nil, err
		}
	}

	return t, nil
}

// MustNewTable is like [NewTable] but panics on error.
func MustNewTable(rows [][]string, merges ...Region) *Table {
	t, err := NewTable(rows, merges...)
	if err != nil {
		panic(err)
	}

	return t
}

func (t *Table) addMerge(m Region) error {
	if !m.Valid() || m.Right >= t.width || m.Bottom >= len(t.cells) {
		return fmt.Errorf("%w: %s", ErrInvalidRegion, m)
	}

	// Single cells are not merges.
	if m.Width() == 1 && m.Height() == 1 {
		return nil
	}

	for _, o := range t.merges {
		if o.Overlaps(m) {
			return fmt.Errorf("%w: %s and %s", ErrMergeOverlap, m, o)
		}
	}

	t.merges = append(t.merges, m)

	return nil
}

func (t *Table) Width() int  { return t.width }
func (t *Table) Height() int { return len(t.cells) }

func (t *Table) Cell(col, row int) string {
	if !inBounds(t, col, row) || coveredByMerge(t.merges, col, row) {
		return ""
	}

	return t.cells[row][col]
}

func (t *Table) CellWidth(col, row int) int {
	return spanWidth(t.merges, col, row)
}

func (t *Table) CellHeight(col, row int) int {
	return spanHeight(t.merges, col, row)
}

// Merges returns a copy of the merged regions.
func (t *Table) Merges() []Region {
	return slices.Clone(t.merges)
}

// Sub returns a read-only view of a region of the table.
func (t *Table) Sub(r Region) (Grid, error) {
	return Sub(t, r)
}

// Sub returns a read-only view of a region of g. Merged regions are clipped
// to the view.
func Sub(g Grid, r Region) (Grid, error) {
	if !r.Valid() || r.Right >= g.Width() || r.Bottom >= g.Height() {
		return nil, fmt.Errorf("%w: %s", ErrOutOfBounds, r)
	}

	return &view{g: g, r: r}, nil
}

type view struct {
	g Grid
	r Region
}

func (v *view) Width() int  { return v.r.Width() }
func (v *view) Height() int { return v.r.Height() }

func (v *view) Cell(col, row int) string {
	if !inBounds(v, col, row) {
		return ""
	}

	return v.g.Cell(col+v.r.Left, row+v.r.Top)
}

func (v *view) CellWidth(col, row int) int {
	if !inBounds(v, col, row) {
		return 1
	}

	return min(v.g.CellWidth(col+v.r.Left, row+v.r.Top), v.r.Right-(col+v.r.Left)+1)
}

func (v *view) CellHeight(col, row int) int {
	if !inBounds(v, col, row) {
		return 1
	}

	return min(v.g.CellHeight(col+v.r.Left, row+v.r.Top), v.r.Bottom-(row+v.r.Top)+1)
}

func (v *view) Merges() []Region {
	m, ok := v.g.(Merger)
	if !ok {
		return nil
	}

	var out []Region

	for _, reg := range m.Merges() {
		if !reg.Overlaps(v.r) {
			continue
		}

		clipped := Region{
			Left:   max(reg.Left, v.r.Left),
			Top:    max(reg.Top, v.r.Top),
			Right:  min(reg.Right, v.r.Right),
			Bottom: min(reg.Bottom, v.r.Bottom),
		}
		out = append(out, clipped.Shift(-v.r.Left, -v.r.Top))
	}

	return out
}
