// Package materialize writes the virtual header of a decision table from
// the selected fit.
//
// The header has three rows: the block label ("C1", "A1", "HC1", "KEY1",
// "RET1"), the statement or expression of the block, and the typed
// parameter declarations of its columns. Labels and statements are merged
// across the block; each declaration is merged across its own columns.
package materialize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openltablets/dtinfer/pkg/candidate"
	"github.com/openltablets/dtinfer/pkg/diag"
	"github.com/openltablets/dtinfer/pkg/fit"
	"github.com/openltablets/dtinfer/pkg/grid"
	"github.com/openltablets/dtinfer/pkg/header"
	"github.com/openltablets/dtinfer/pkg/ir"
	"github.com/openltablets/dtinfer/pkg/ranges"
	"github.com/openltablets/dtinfer/pkg/role"
	"github.com/openltablets/dtinfer/pkg/typesys"
)

// Rows is the height of the virtual header.
const Rows = 3

// Header rows.
const (
	RowLabel = iota
	RowStatement
	RowParams
)

// Request is the input of [Materializer.Materialize].
type Request struct {
	// Grid is the original table, titles included.
	Grid   grid.Grid
	Layout *candidate.Layout
	// KeyType is the key type of two-column returns, or nil.
	KeyType *typesys.Type
	Method  typesys.Method
	Table   string
	Fit     fit.Fit
}

// Block is one labeled group of columns of the virtual header.
type Block struct {
	// Header is the candidate the block was written for. It is nil for
	// horizontal condition and key blocks.
	Header    *header.Header
	Label     string
	Statement string
	// Params are the declarations of the block's columns, left to right.
	Params []typesys.Param
	Column int
	Width  int
	Role   role.Role
}

// End returns the column after the block.
func (b Block) End() int {
	return b.Column + b.Width
}

// Hint is hover text for a cell of the original table.
type Hint struct {
	Cell   string
	Text   string
	Column int
	Row    int
}

// Result is a materialized table.
type Result struct {
	// Header is the virtual header.
	Header *grid.Virtual
	// Table is the virtual header stacked on top of the rule rows.
	Table  grid.Grid
	Blocks []Block
	Hints  []Hint
}

// Materializer writes virtual headers. It keeps no per-table state.
type Materializer struct {
	Registry  *typesys.Registry
	Constants typesys.ConstantResolver
}

// Materialize writes the virtual header for req.Fit.
func (m *Materializer) Materialize(req Request) (*Result, error) {
	l := req.Layout

	w := &writer{
		Materializer: m,
		req:          req,
		loc:          diag.TableLocation(req.Table),
		v:            grid.NewVirtual(l.Width, Rows),
		counts:       map[string]int{},
	}

	var returns []*header.Header

	for _, h := range req.Fit {
		if h.IsReturn() {
			returns = append(returns, h)

			continue
		}

		if err := w.header(h); err != nil {
			return nil, err
		}
	}

	if len(returns) > 0 {
		if err := w.returns(returns); err != nil {
			return nil, err
		}
	}

	if l.Horizontal > 0 {
		if err := w.lookup(); err != nil {
			return nil, err
		}
	}

	body, err := w.body()
	if err != nil {
		return nil, err
	}

	res := &Result{Header: w.v, Table: w.v, Blocks: w.blocks, Hints: w.hints}
	if body != nil {
		res.Table = grid.Stack(w.v, body)
	}

	return res, nil
}

type writer struct {
	*Materializer

	v      *grid.Virtual
	counts map[string]int
	loc    diag.Location
	blocks []Block
	hints  []Hint
	req    Request
}

func (w *writer) next(prefix string) int {
	w.counts[prefix]++

	return w.counts[prefix]
}

func (w *writer) constants() typesys.ConstantResolver {
	if w.Constants == nil {
		return typesys.NoConstants{}
	}

	return w.Constants
}

func (w *writer) header(h *header.Header) error {
	prefix, name := "C", "_c"
	if h.Role == role.Action {
		prefix, name = "A", "_a"
	}

	n := w.next(prefix)
	label := prefix + strconv.Itoa(n)

	if h.Kind == header.KindDeclared {
		return w.declared(h, label)
	}

	p := w.req.Method.Params[h.Params[0]]
	valueType := ranges.InferConditionType(w.Registry, h.Binding.Type(p.Type), w.req.Layout.Values(w.req.Grid, h.Column), w.constants())

	b := Block{
		Header:    h,
		Label:     label,
		Statement: ir.Render(ir.Path(p.Name, chainNames(h)...)),
		Params:    []typesys.Param{{Name: name + strconv.Itoa(n), Type: valueType}},
		Column:    h.Column,
		Width:     h.Width,
		Role:      h.Role,
	}

	if err := w.write(b, nil); err != nil {
		return err
	}

	w.hint(h.Column, 0, "%s %s: %s compared with %s values", h.Role, label, b.Statement, valueType)

	return nil
}

func (w *writer) declared(h *header.Header, label string) error {
	titles := w.req.Layout.TitlesIn(h.Column, h.End())
	if len(titles) != len(h.Order) {
		return fmt.Errorf("%s: %d titles for %d parameters", h, len(titles), len(h.Order))
	}

	spans := make([]span, len(titles))
	params := make([]typesys.Param, len(titles))

	for i, t := range titles {
		spans[i] = span{column: t.Column, width: t.Width}
		params[i] = h.Matched.Params[h.Order[i]]
	}

	b := Block{
		Header:    h,
		Label:     label,
		Statement: h.Matched.Expression,
		Params:    params,
		Column:    h.Column,
		Width:     h.Width,
		Role:      h.Role,
	}

	if err := w.write(b, spans); err != nil {
		return err
	}

	w.hint(h.Column, 0, "%s %s: %s (%s, %s match)", h.Role, label, h.Matched.Definition.Name,
		h.Matched.Expression, h.Matched.Quality)

	return nil
}

// returns writes the return blocks. Member columns of a compound result
// become one block constructing the result. When they cannot, the return
// columns are written as one plain return block.
func (w *writer) returns(hs []*header.Header) error {
	if len(hs) == 1 && hs[0].Kind == header.KindSimpleReturn {
		return w.simpleReturn(hs[0].Column, hs[0].End(), hs[0])
	}

	if allKind(hs, header.KindDeclared) {
		for _, h := range hs {
			label := "RET" + strconv.Itoa(w.next("RET"))
			if err := w.declared(h, label); err != nil {
				return err
			}
		}

		return nil
	}

	if allKind(hs, header.KindFuzzy) && contiguous(hs) {
		ok, err := w.compound(hs)
		if ok || err != nil {
			return err
		}
	}

	return w.simpleReturn(hs[0].Column, hs[len(hs)-1].End(), nil)
}

func (w *writer) compound(hs []*header.Header) (bool, error) {
	as := make([]ir.Assignment, len(hs))
	params := make([]typesys.Param, len(hs))
	spans := make([]span, len(hs))
	members := make([]string, len(hs))

	for i, h := range hs {
		name := "_r" + strconv.Itoa(i+1)
		as[i] = ir.Assignment{Chain: h.Binding.Chain, Value: ir.Ident(name)}
		params[i] = typesys.Param{Name: name, Type: h.Binding.Type(w.req.Method.Return)}
		spans[i] = span{column: h.Column, width: h.Width}
		members[i] = strings.Join(chainNames(h), ".")
	}

	block, err := ir.Compound(w.req.Method.Return, as)
	if err != nil {
		return false, nil //nolint:nilerr // Falls back to a plain return.
	}

	first, last := hs[0], hs[len(hs)-1]

	b := Block{
		Label:     "RET" + strconv.Itoa(w.next("RET")),
		Statement: block.String(),
		Params:    params,
		Column:    first.Column,
		Width:     last.End() - first.Column,
		Role:      role.Return,
	}

	if err := w.write(b, spans); err != nil {
		return false, err
	}

	for i, h := range hs {
		w.hint(h.Column, 0, "%s.%s = %s", w.req.Method.Return, members[i], params[i].Name)
	}

	return true, nil
}

// simpleReturn writes a plain return over [from, to). With a key type,
// the last column holds the value and the columns before it the key.
func (w *writer) simpleReturn(from, to int, h *header.Header) error {
	ret := w.req.Method.Return

	if w.req.KeyType != nil && to-from >= 2 {
		key := Block{
			Header:    h,
			Label:     "KEY1",
			Statement: "_k1",
			Params:    []typesys.Param{{Name: "_k1", Type: w.req.KeyType}},
			Column:    from,
			Width:     to - 1 - from,
			Role:      role.Return,
		}

		if err := w.write(key, nil); err != nil {
			return err
		}

		w.hint(from, 0, "key of the %s result", ret)

		from = to - 1

		if ret.IsArray() {
			ret = ret.Elem()
		}
	}

	name := "_r" + strconv.Itoa(w.next("RET"))

	b := Block{
		Header:    h,
		Label:     "RET" + name[2:],
		Statement: name,
		Params:    []typesys.Param{{Name: name, Type: ret}},
		Column:    from,
		Width:     to - from,
		Role:      role.Return,
	}

	if err := w.write(b, nil); err != nil {
		return err
	}

	w.hint(from, 0, "result of type %s", ret)

	return nil
}

// lookup writes one horizontal condition block per horizontal parameter at
// the start of the lookup region and a return block over the rest.
func (w *writer) lookup() error {
	l := w.req.Layout
	m := w.req.Method
	k := l.Horizontal
	first := len(m.Params) - k

	if l.Width-l.Boundary < k+1 {
		return diag.Errorf(diag.CodeInsufficientColumns, w.loc.At(l.Boundary, 0),
			"lookup region has %d columns for %d horizontal conditions and a return", l.Width-l.Boundary, k)
	}

	for i := range k {
		p := m.Params[first+i]
		row := l.TitleHeight - k + i
		valueType := ranges.InferConditionType(w.Registry, p.Type, l.LookupValues(w.req.Grid, row), w.constants())
		name := "_hc" + strconv.Itoa(i+1)

		b := Block{
			Label:     "HC" + strconv.Itoa(i+1),
			Statement: p.Name,
			Params:    []typesys.Param{{Name: name, Type: valueType}},
			Column:    l.Boundary + i,
			Width:     1,
			Role:      role.Condition,
		}

		if err := w.write(b, nil); err != nil {
			return err
		}

		w.hint(l.Boundary+i, row, "horizontal condition HC%d: %s compared with %s values", i+1, p.Name, valueType)
	}

	return w.simpleReturn(l.Boundary+k, l.Width, nil)
}

func (w *writer) body() (grid.Grid, error) {
	l := w.req.Layout
	top := l.TitleHeight - l.Horizontal

	if l.Horizontal == 0 || top >= l.Height {
		body, err := l.Body(w.req.Grid)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", w.loc, err)
		}

		return body, nil
	}

	body, err := grid.Sub(w.req.Grid, grid.Region{Left: 0, Top: top, Right: l.Width - 1, Bottom: l.Height - 1})
	if err != nil {
		return nil, fmt.Errorf("%s: lookup body: %w", w.loc, err)
	}

	return body, nil
}

type span struct {
	column int
	width  int
}

type cell struct {
	text string
	r    grid.Region
}

// write writes b. Declarations go to spans, one per parameter, or to the
// whole block when spans is nil.
func (w *writer) write(b Block, spans []span) error {
	if spans == nil {
		spans = []span{{column: b.Column, width: b.Width}}
	}

	cells := []cell{
		{text: b.Label, r: grid.NewRegion(b.Column, RowLabel, b.Width, 1)},
		{text: b.Statement, r: grid.NewRegion(b.Column, RowStatement, b.Width, 1)},
	}

	for i, s := range spans {
		cells = append(cells, cell{text: declaration(b.Params[i]), r: grid.NewRegion(s.column, RowParams, s.width, 1)})
	}

	for _, c := range cells {
		if err := w.v.SetCell(c.r.Left, c.r.Top, c.text); err != nil {
			return fmt.Errorf("%s: write %s: %w", w.loc, b.Label, err)
		}

		if err := w.v.Merge(c.r); err != nil {
			return fmt.Errorf("%s: merge %s: %w", w.loc, b.Label, err)
		}
	}

	w.blocks = append(w.blocks, b)

	return nil
}

// hint records hover text. Hints are best effort: cells outside the
// original table are skipped.
func (w *writer) hint(col, row int, format string, args ...any) {
	g := w.req.Grid
	if g == nil || col >= g.Width() || row >= g.Height() {
		return
	}

	w.hints = append(w.hints, Hint{
		Cell:   grid.CellName(col, row),
		Text:   fmt.Sprintf(format, args...),
		Column: col,
		Row:    row,
	})
}

func declaration(p typesys.Param) string {
	return p.Type.Name() + " " + p.Name
}

func chainNames(h *header.Header) []string {
	names := make([]string, len(h.Binding.Chain))
	for i, m := range h.Binding.Chain {
		names[i] = m.Name
	}

	return names
}

func allKind(hs []*header.Header, k header.Kind) bool {
	for _, h := range hs {
		if h.Kind != k {
			return false
		}
	}

	return true
}

func contiguous(hs []*header.Header) bool {
	for i := 1; i < len(hs); i++ {
		if hs[i].Column != hs[i-1].End() {
			return false
		}
	}

	return true
}
