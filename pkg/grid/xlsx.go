package grid

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when a workbook has no sheet with the
// requested name.
var ErrSheetNotFound = errors.New("sheet not found")

// ReadXLSX reads a rectangular area of a worksheet into a [Table].
// The area uses A1 notation ("B2:F9"); an empty area reads the whole used
// range of the sheet. Merged regions are clipped to the area.
func ReadXLSX(path, sheet, area string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	defer func() {
		err := f.Close()
		if err != nil {
			slog.Error("close workbook", slog.String("path", path), slog.Any("error", err))
		}
	}()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	full, err := NewTable(rows)
	if err != nil {
		return nil, err
	}

	bounds := NewRegion(0, 0, full.Width(), full.Height())
	if area != "" {
		bounds, err = ParseArea(area)
		if err != nil {
			return nil, err
		}
	}

	cells := make([][]string, bounds.Height())
	for r := range cells {
		cells[r] = make([]string, bounds.Width())
		for c := range cells[r] {
			col, row := bounds.Left+c, bounds.Top+r
			if row < len(rows) && col < len(rows[row]) {
				cells[r][c] = rows[row][col]
			}
		}
	}

	mergeCells, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("read merged cells: %w", err)
	}

	var merges []Region

	for _, mc := range mergeCells {
		reg, err := ParseArea(mc.GetStartAxis() + ":" + mc.GetEndAxis())
		if err != nil {
			return nil, err
		}

		if !reg.Overlaps(bounds) {
			continue
		}

		// Merged cells keep their value in the top-left cell only.
		if bounds.Contains(reg.Left, reg.Top) {
			cells[reg.Top-bounds.Top][reg.Left-bounds.Left] = mc.GetCellValue()
		}

		clipped := Region{
			Left:   max(reg.Left, bounds.Left),
			Top:    max(reg.Top, bounds.Top),
			Right:  min(reg.Right, bounds.Right),
			Bottom: min(reg.Bottom, bounds.Bottom),
		}
		merges = append(merges, clipped.Shift(-bounds.Left, -bounds.Top))
	}

	return NewTable(cells, merges...)
}

// WriteXLSX writes g to a new workbook at path. Merged regions are written
// when g implements [Merger].
func WriteXLSX(path, sheet string, g Grid) error {
	f := excelize.NewFile()

	defer func() {
		err := f.Close()
		if err != nil {
			slog.Error("close workbook", slog.String("path", path), slog.Any("error", err))
		}
	}()

	if sheet == "" {
		sheet = "Sheet1"
	}

	err := f.SetSheetName(f.GetSheetName(0), sheet)
	if err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for row := range g.Height() {
		for col := range g.Width() {
			v := g.Cell(col, row)
			if v == "" {
				continue
			}

			err := f.SetCellStr(sheet, CellName(col, row), v)
			if err != nil {
				return fmt.Errorf("set cell %s: %w", CellName(col, row), err)
			}
		}
	}

	if m, ok := g.(Merger); ok {
		for _, r := range m.Merges() {
			err := f.MergeCell(sheet, CellName(r.Left, r.Top), CellName(r.Right, r.Bottom))
			if err != nil {
				return fmt.Errorf("merge %s: %w", r, err)
			}
		}
	}

	err = f.SaveAs(path)
	if err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	return nil
}

// ParseArea parses an A1-style area such as "B2:F9" or a single cell "C3".
func ParseArea(area string) (Region, error) {
	from, to, found := strings.Cut(strings.ReplaceAll(area, "$", ""), ":")
	if !found {
		to = from
	}

	c1, r1, err := excelize.CellNameToCoordinates(strings.TrimSpace(from))
	if err != nil {
		return Region{}, fmt.Errorf("%w: %q: %w", ErrInvalidRegion, area, err)
	}

	c2, r2, err := excelize.CellNameToCoordinates(strings.TrimSpace(to))
	if err != nil {
		return Region{}, fmt.Errorf("%w: %q: %w", ErrInvalidRegion, area, err)
	}

	r := Region{
		Left:   min(c1, c2) - 1,
		Top:    min(r1, r2) - 1,
		Right:  max(c1, c2) - 1,
		Bottom: max(r1, r2) - 1,
	}

	return r, nil
}
