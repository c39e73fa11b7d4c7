package candidate

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/openltablets/dtinfer/pkg/definition"
	"github.com/openltablets/dtinfer/pkg/diag"
	"github.com/openltablets/dtinfer/pkg/header"
	"github.com/openltablets/dtinfer/pkg/token"
	"github.com/openltablets/dtinfer/pkg/typesys"
)

// Request describes the table to generate candidates for.
type Request struct {
	Layout *Layout
	Method typesys.Method
	// Table names the table in diagnostics.
	Table string
	// ReturnWidth is the number of columns of a simple return: 1, or 2 for
	// keyed results.
	ReturnWidth int
	// PositionalOnly skips declared and fuzzy matching.
	PositionalOnly bool
}

// Suggestion is the closest vocabulary token for a title that matched
// nothing.
type Suggestion struct {
	Title Title
	Token string
}

// Result holds the generated candidates.
type Result struct {
	// Headers are ordered by column. Within a column, declared headers
	// come first, then fuzzy, positional and simple return headers.
	Headers []*header.Header
	// Positional is the all-positional interpretation used when no fit
	// survives ranking, or nil when the table is too narrow for one.
	Positional  []*header.Header
	Suggestions []Suggestion
}

// Generator produces header candidates. It keeps no per-table state.
type Generator struct {
	Introspector typesys.Introspector
	Definitions  *definition.Registry
	Reconciler   *definition.Reconciler
	Matcher      *token.Matcher
	Cache        *token.Cache
	Depth        int
}

// Generate runs the declared, fuzzy and positional strategies over every
// title of the vertical region and unions their candidates.
func (g *Generator) Generate(req Request) (*Result, error) {
	l := req.Layout
	m := req.Method

	nVertical := len(m.Params) - l.Horizontal
	if nVertical < 0 {
		return nil, diag.Errorf(diag.CodeInsufficientColumns, diag.TableLocation(req.Table),
			"%d horizontal conditions but only %d parameters", l.Horizontal, len(m.Params))
	}

	vertical := make([]int, nVertical)
	for i := range vertical {
		vertical[i] = i
	}

	params := g.vocabulary(token.ParamKey(m.Params, vertical, g.Depth), func() *token.Vocabulary {
		return token.ParamVocabulary(g.Introspector, m.Params, vertical, g.Depth)
	})

	var setters *token.Vocabulary
	if !req.PositionalOnly && l.Horizontal == 0 && req.ReturnWidth <= 1 && m.Return.IsCompound() {
		setters = g.vocabulary(token.SetterKey(m.Return, g.Depth), func() *token.Vocabulary {
			return token.SetterVocabulary(g.Introspector, m.Return, g.Depth)
		})
	}

	res := &Result{}
	loc := diag.TableLocation(req.Table)

	// Compound return members are only matched after the last title a
	// parameter matched.
	setterFrom := 1

	for i, t := range l.Titles {
		if req.PositionalOnly {
			for _, p := range vertical {
				res.Headers = append(res.Headers, header.Positional(t.Column, t.Width, p, t.Text))
			}

			continue
		}

		declared, err := g.declared(l.Titles[i:], m, vertical, loc.At(t.Column, 0).WithTitle(t.Text))
		if err != nil {
			return nil, err
		}

		res.Headers = append(res.Headers, declared...)

		matched := len(declared) > 0

		if t.Text != "" {
			for _, match := range token.Distinct(g.Matcher.BestMatches(t.Text, params)) {
				res.Headers = append(res.Headers, header.Fuzzy(t.Column, t.Width, t.Text, match))
				matched = true
			}
		}

		if matched {
			setterFrom = max(setterFrom, i+1)
		}

		for _, p := range vertical {
			res.Headers = append(res.Headers, header.Positional(t.Column, t.Width, p, t.Text))
		}

		if !matched && t.Text != "" {
			if tok, ok := token.Suggest(t.Text, params); ok {
				res.Suggestions = append(res.Suggestions, Suggestion{Title: t, Token: tok})
			}
		}
	}

	if setters != nil {
		for _, t := range l.Titles[min(setterFrom, len(l.Titles)):] {
			if t.Text == "" {
				continue
			}

			for _, match := range token.Distinct(g.Matcher.BestMatches(t.Text, setters)) {
				res.Headers = append(res.Headers, header.Fuzzy(t.Column, t.Width, t.Text, match))
			}
		}
	}

	if l.Horizontal == 0 {
		if ret, ok := simpleReturn(l, req.ReturnWidth); ok {
			res.Headers = append(res.Headers, ret)
		}

		res.Positional = positional(l, nVertical, req.ReturnWidth)
	}

	slices.SortStableFunc(res.Headers, func(a, b *header.Header) int {
		return cmp.Or(cmp.Compare(a.Column, b.Column), cmp.Compare(kindOrder(a.Kind), kindOrder(b.Kind)))
	})

	return res, nil
}

func (g *Generator) vocabulary(key string, build func() *token.Vocabulary) *token.Vocabulary {
	if g.Cache == nil {
		return build()
	}

	return g.Cache.Get(key, build)
}

// declared returns the declared headers starting at the first of titles.
func (g *Generator) declared(titles []Title, m typesys.Method, vertical []int, loc diag.Location) ([]*header.Header, error) {
	var hs []*header.Header

	for _, d := range g.Definitions.All() {
		if d.Width() > len(titles) {
			continue
		}

		group := titles[:d.Width()]

		texts := make([]string, len(group))
		for i, t := range group {
			texts[i] = t.Text
		}

		order, ok := d.MatchTitles(texts)
		if !ok {
			continue
		}

		matched, err := g.Reconciler.Reconcile(d, m, vertical)

		var amb *definition.AmbiguityError

		switch {
		case errors.As(err, &amb):
			return nil, diag.Errorf(diag.CodeAmbiguousMatch, loc, "%w", err)
		case errors.Is(err, definition.ErrNotReconcilable):
			continue
		case err != nil:
			return nil, fmt.Errorf("reconcile %s: %w", d.Name, err)
		}

		last := group[len(group)-1]
		hs = append(hs, header.Declared(group[0].Column, last.End()-group[0].Column, texts, order, matched))
	}

	return hs, nil
}

// simpleReturn returns a return header covering the last titles, at least
// width columns wide.
func simpleReturn(l *Layout, width int) (*header.Header, bool) {
	for i := len(l.Titles) - 1; i >= 0; i-- {
		if l.Width-l.Titles[i].Column >= max(1, width) {
			return header.SimpleReturn(l.Titles[i].Column, l.Width-l.Titles[i].Column, joinTitles(l.Titles[i:])), true
		}
	}

	return nil, false
}

// positional binds the first n titles to the vertical parameters in order
// and the remaining titles to the return.
func positional(l *Layout, n, returnWidth int) []*header.Header {
	if len(l.Titles) <= n {
		return nil
	}

	rest := l.Titles[n:]
	if l.Width-rest[0].Column < max(1, returnWidth) {
		return nil
	}

	hs := make([]*header.Header, 0, n+1)
	for p, t := range l.Titles[:n] {
		hs = append(hs, header.Positional(t.Column, t.Width, p, t.Text))
	}

	return append(hs, header.SimpleReturn(rest[0].Column, l.Width-rest[0].Column, joinTitles(rest)))
}

func joinTitles(ts []Title) string {
	texts := make([]string, 0, len(ts))
	for _, t := range ts {
		if t.Text != "" {
			texts = append(texts, t.Text)
		}
	}

	return strings.Join(texts, " | ")
}

func kindOrder(k header.Kind) int {
	switch k {
	case header.KindDeclared:
		return 0
	case header.KindFuzzy:
		return 1
	case header.KindPositional:
		return 2
	case header.KindSimpleReturn:
		return 3
	}

	return 4
}
