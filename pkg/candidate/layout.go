// Package candidate analyzes the title area of a decision table and
// generates the header candidates for each of its columns.
package candidate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openltablets/dtinfer/pkg/grid"
)

var (
	// ErrEmptyTable is returned for tables without cells.
	ErrEmptyTable = errors.New("empty table")
	// ErrNoLookupRegion is returned when a table with horizontal
	// conditions has no column with a split title area.
	ErrNoLookupRegion = errors.New("no lookup region")
)

// Title is a column title. Titles of vertically stacked cells are joined
// top-down, so that "Driver" above "Age" reads "Driver Age".
type Title struct {
	Text   string
	Parts  []string
	Column int
	Width  int
}

// End returns the column after the title.
func (t Title) End() int {
	return t.Column + t.Width
}

// Layout describes the title area of a table.
type Layout struct {
	Titles []Title
	// Boundary is the first column of the lookup region of tables with
	// horizontal conditions, and the table width otherwise.
	Boundary    int
	Width       int
	Height      int
	TitleHeight int
	Horizontal  int
}

// Analyze computes the [Layout] of g. The title height is the height of
// the first title cell. With horizontal conditions, the vertical region
// ends at the first column whose title cell is shorter than that.
func Analyze(g grid.Grid, horizontal int) (*Layout, error) {
	if g.Width() == 0 || g.Height() == 0 {
		return nil, ErrEmptyTable
	}

	l := &Layout{
		Width:       g.Width(),
		Height:      g.Height(),
		TitleHeight: max(1, g.CellHeight(0, 0)),
		Boundary:    g.Width(),
		Horizontal:  horizontal,
	}

	if horizontal == 0 {
		l.collect(g, 0, l.Width, 0, nil)

		return l, nil
	}

	if l.TitleHeight < horizontal {
		return nil, fmt.Errorf("%w: title area has %d rows for %d horizontal conditions",
			ErrNoLookupRegion, l.TitleHeight, horizontal)
	}

	for col := 0; col < l.Width; {
		w := max(1, g.CellWidth(col, 0))
		if g.CellHeight(col, 0) < l.TitleHeight {
			l.Boundary = col

			break
		}

		text := strings.TrimSpace(g.Cell(col, 0))
		l.Titles = append(l.Titles, Title{Column: col, Width: min(w, l.Width-col), Text: text, Parts: parts(nil, text)})
		col += w
	}

	if l.Boundary == l.Width {
		return nil, ErrNoLookupRegion
	}

	return l, nil
}

func (l *Layout) collect(g grid.Grid, from, to, row int, prefix []string) {
	for col := from; col < to; {
		w := min(max(1, g.CellWidth(col, row)), to-col)
		h := max(1, g.CellHeight(col, row))
		p := parts(prefix, strings.TrimSpace(g.Cell(col, row)))

		if row+h < l.TitleHeight {
			l.collect(g, col, col+w, row+h, p)
		} else {
			l.Titles = append(l.Titles, Title{Column: col, Width: w, Text: strings.Join(p, " "), Parts: p})
		}

		col += w
	}
}

func parts(prefix []string, text string) []string {
	p := append([]string{}, prefix...)
	if text != "" {
		p = append(p, text)
	}

	return p
}

// Values returns the non-empty body values of a column.
func (l *Layout) Values(g grid.Grid, col int) []string {
	return grid.Column(g, col, l.TitleHeight, l.Height)
}

// LookupValues returns the non-empty values of a title row across the
// lookup region.
func (l *Layout) LookupValues(g grid.Grid, row int) []string {
	var values []string

	for col := l.Boundary; col < l.Width; col++ {
		if v := strings.TrimSpace(g.Cell(col, row)); v != "" {
			values = append(values, v)
		}
	}

	return values
}

// TitlesIn returns the titles that start within [from, to).
func (l *Layout) TitlesIn(from, to int) []Title {
	var ts []Title

	for _, t := range l.Titles {
		if t.Column >= from && t.Column < to {
			ts = append(ts, t)
		}
	}

	return ts
}

// Body returns the rows of g below the title area, or nil when there are
// none.
func (l *Layout) Body(g grid.Grid) (grid.Grid, error) {
	if l.Height <= l.TitleHeight {
		return nil, nil //nolint:nilnil // A table without rules has no body.
	}

	body, err := grid.Sub(g, grid.Region{Left: 0, Top: l.TitleHeight, Right: l.Width - 1, Bottom: l.Height - 1})
	if err != nil {
		return nil, fmt.Errorf("table body: %w", err)
	}

	return body, nil
}
