package grid

import (
	"fmt"
	"slices"
	"sync"
)

// Virtual is a writable, fixed-size [Grid].
// It is used to synthesize header rows that do not exist in the source.
type Virtual struct {
	cells  map[[2]int]string
	merges []Region
	width  int
	height int
	mu     sync.RWMutex
}

// NewVirtual creates an empty [Virtual] grid.
func NewVirtual(width, height int) *Virtual {
	return &Virtual{
		width:  width,
		height: height,
		cells:  map[[2]int]string{},
	}
}

// SetCell sets the text of a cell.
func (v *Virtual) SetCell(col, row int, value string) error {
	if !inBounds(v, col, row) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, CellName(col, row))
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.cells[[2]int{col, row}] = value

	return nil
}

// Merge adds a merged region. Single-cell regions are accepted and ignored.
func (v *Virtual) Merge(r Region) error {
	if !r.Valid() || r.Right >= v.width || r.Bottom >= v.height {
		return fmt.Errorf("%w: %s", ErrInvalidRegion, r)
	}

	if r.Width() == 1 && r.Height() == 1 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	for _, o := range v.merges {
		if o.Overlaps(r) {
			return fmt.Errorf("%w: %s and %s", ErrMergeOverlap, r, o)
		}
	}

	v.merges = append(v.merges, r)

	return nil
}

func (v *Virtual) Width() int  { return v.width }
func (v *Virtual) Height() int { return v.height }

func (v *Virtual) Cell(col, row int) string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if coveredByMerge(v.merges, col, row) {
		return ""
	}

	return v.cells[[2]int{col, row}]
}

func (v *Virtual) CellWidth(col, row int) int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return spanWidth(v.merges, col, row)
}

func (v *Virtual) CellHeight(col, row int) int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return spanHeight(v.merges, col, row)
}

// Merges returns a copy of the merged regions.
func (v *Virtual) Merges() []Region {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return slices.Clone(v.merges)
}

// Stack composes grids vertically: each grid's rows follow the previous
// grid's rows. The composite is read-only and as wide as its widest part.
func Stack(parts ...Grid) Grid {
	s := &stack{parts: parts}
	for _, p := range parts {
		s.width = max(s.width, p.Width())
		s.offsets = append(s.offsets, s.height)
		s.height += p.Height()
	}

	return s
}

type stack struct {
	parts   []Grid
	offsets []int
	width   int
	height  int
}

func (s *stack) Width() int  { return s.width }
func (s *stack) Height() int { return s.height }

func (s *stack) locate(row int) (Grid, int) {
	for i := len(s.parts) - 1; i >= 0; i-- {
		if row >= s.offsets[i] {
			return s.parts[i], row - s.offsets[i]
		}
	}

	return nil, 0
}

func (s *stack) Cell(col, row int) string {
	if !inBounds(s, col, row) {
		return ""
	}

	g, r := s.locate(row)
	if col >= g.Width() {
		return ""
	}

	return g.Cell(col, r)
}

func (s *stack) CellWidth(col, row int) int {
	if !inBounds(s, col, row) {
		return 1
	}

	g, r := s.locate(row)
	if col >= g.Width() {
		return 1
	}

	return g.CellWidth(col, r)
}

func (s *stack) CellHeight(col, row int) int {
	if !inBounds(s, col, row) {
		return 1
	}

	g, r := s.locate(row)
	if col >= g.Width() {
		return 1
	}

	return g.CellHeight(col, r)
}

func (s *stack) Merges() []Region {
	var out []Region

	for i, p := range s.parts {
		m, ok := p.(Merger)
		if !ok {
			continue
		}

		for _, r := range m.Merges() {
			out = append(out, r.Shift(0, s.offsets[i]))
		}
	}

	return out
}
