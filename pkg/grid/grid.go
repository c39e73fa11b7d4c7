// Package grid provides the tabular cell model used by header inference.
//
// A [Grid] is a read-only rectangle of string cells addressed by
// (column, row), with merged regions reported through [Grid.CellWidth] and
// [Grid.CellHeight]. [Table] is the in-memory implementation, [Virtual] is a
// writable grid used for synthesized headers, and [Stack] composes grids
// vertically without copying.
package grid

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOutOfBounds is returned when a coordinate lies outside a grid.
	ErrOutOfBounds = errors.New("cell out of bounds")
	// ErrMergeOverlap is returned when a merged region overlaps another one.
	ErrMergeOverlap = errors.New("merged region overlaps an existing region")
	// ErrInvalidRegion is returned for empty or inverted regions.
	ErrInvalidRegion = errors.New("invalid region")
)

// Grid is a read-only view of spreadsheet-like cells.
// Reads must be idempotent.
type Grid interface {
	Width() int
	Height() int
	// Cell returns the text of the cell. Cells covered by a merged region,
	// other than its top-left cell, are empty.
	Cell(col, row int) string
	// CellWidth returns the number of columns from col to the right edge of
	// the merged region containing the cell, or 1 if the cell is not merged.
	CellWidth(col, row int) int
	// CellHeight returns the number of rows from row to the bottom edge of
	// the merged region containing the cell, or 1 if the cell is not merged.
	CellHeight(col, row int) int
}

// Merger is implemented by grids that can list their merged regions.
type Merger interface {
	Merges() []Region
}

// Region is an inclusive rectangle of cells.
type Region struct {
	Left   int `json:"left"   yaml:"left"`
	Top    int `json:"top"    yaml:"top"`
	Right  int `json:"right"  yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// NewRegion creates a [Region] from a top-left corner and a size.
func NewRegion(col, row, width, height int) Region {
	return Region{Left: col, Top: row, Right: col + width - 1, Bottom: row + height - 1}
}

// Width returns the number of columns in the region.
func (r Region) Width() int { return r.Right - r.Left + 1 }

// Height returns the number of rows in the region.
func (r Region) Height() int { return r.Bottom - r.Top + 1 }

// Contains reports whether the cell lies inside the region.
func (r Region) Contains(col, row int) bool {
	return col >= r.Left && col <= r.Right && row >= r.Top && row <= r.Bottom
}

// Overlaps reports whether the two regions share any cell.
func (r Region) Overlaps(o Region) bool {
	return r.Left <= o.Right && o.Left <= r.Right && r.Top <= o.Bottom && o.Top <= r.Bottom
}

// Shift returns the region moved by the given offsets.
func (r Region) Shift(dCol, dRow int) Region {
	return Region{Left: r.Left + dCol, Top: r.Top + dRow, Right: r.Right + dCol, Bottom: r.Bottom + dRow}
}

// Valid reports whether the region is non-empty and non-negative.
func (r Region) Valid() bool {
	return r.Left >= 0 && r.Top >= 0 && r.Right >= r.Left && r.Bottom >= r.Top
}

func (r Region) String() string {
	return CellName(r.Left, r.Top) + ":" + CellName(r.Right, r.Bottom)
}

// CellName returns the A1-style name of a zero-based cell coordinate.
func CellName(col, row int) string {
	return ColumnName(col) + fmt.Sprint(row+1)
}

// ColumnName returns the spreadsheet column letters for a zero-based column.
func ColumnName(col int) string {
	if col < 0 {
		return "?"
	}

	var b []byte
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		b = append(b, byte('A'+(n-1)%26))
	}

	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}

	return string(b)
}

// Column returns the text of all non-empty cells of a column in rows
// [from, to), top to bottom.
func Column(g Grid, col, from, to int) []string {
	var values []string

	for row := from; row < to && row < g.Height(); row++ {
		v := strings.TrimSpace(g.Cell(col, row))
		if v != "" {
			values = append(values, v)
		}
	}

	return values
}

// Rows returns the cell text of g as a row-major slice.
func Rows(g Grid) [][]string {
	rows := make([][]string, g.Height())
	for row := range rows {
		rows[row] = make([]string, g.Width())
		for col := range rows[row] {
			rows[row][col] = g.Cell(col, row)
		}
	}

	return rows
}

func inBounds(g Grid, col, row int) bool {
	return col >= 0 && row >= 0 && col < g.Width() && row < g.Height()
}

func spanWidth(merges []Region, col, row int) int {
	for _, m := range merges {
		if m.Contains(col, row) {
			return m.Right - col + 1
		}
	}

	return 1
}

func spanHeight(merges []Region, col, row int) int {
	for _, m := range merges {
		if m.Contains(col, row) {
			return m.Bottom - row + 1
		}
	}

	return 1
}

func coveredByMerge(merges []Region, col, row int) bool {
	for _, m := range merges {
		if m.Contains(col, row) && (m.Left != col || m.Top != row) {
			return true
		}
	}

	return false
}
