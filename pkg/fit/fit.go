// Package fit selects one interpretation of a decision table's columns
// from the header candidates.
//
// Candidate combinations ("fits") are enumerated depth-first from the first
// column, then ranked by a fixed sequence of filters. Each filter keeps the
// fits tied for best under its criterion. The first surviving fit, in
// enumeration order, wins.
package fit

import (
	"slices"

	"github.com/openltablets/dtinfer/pkg/definition"
	"github.com/openltablets/dtinfer/pkg/header"
	"github.com/openltablets/dtinfer/pkg/role"
)

// Fit is a non-overlapping, left-to-right selection of headers.
type Fit []*header.Header

// End returns the column after the last header.
func (f Fit) End() int {
	if len(f) == 0 {
		return 0
	}

	return f[len(f)-1].End()
}

// Params returns the distinct parameter indexes consumed, ascending.
func (f Fit) Params() []int {
	var idx []int

	for _, h := range f {
		for _, p := range h.Params {
			if !slices.Contains(idx, p) {
				idx = append(idx, p)
			}
		}
	}

	slices.Sort(idx)

	return idx
}

// Has reports whether the fit contains a header with role r.
func (f Fit) Has(r role.Role) bool {
	return slices.ContainsFunc(f, func(h *header.Header) bool { return h.Role == r })
}

// Count returns the number of headers for which pred holds.
func (f Fit) Count(pred func(*header.Header) bool) int {
	n := 0

	for _, h := range f {
		if pred(h) {
			n++
		}
	}

	return n
}

// DeclaredTitles returns the number of titles covered by declared headers
// of the given quality, or of any quality when q is 0.
func (f Fit) DeclaredTitles(q definition.Quality) int {
	n := 0

	for _, h := range f {
		if h.Kind == header.KindDeclared && (q == 0 || h.Quality() == q) {
			n += h.Titles
		}
	}

	return n
}

// Keys returns the keys of the headers with role r, in column order.
func (f Fit) Keys(r role.Role) []string {
	var keys []string

	for _, h := range f {
		if h.Role == r {
			keys = append(keys, h.Key())
		}
	}

	return keys
}

// ByRole returns the headers with role r, in column order.
func (f Fit) ByRole(r role.Role) []*header.Header {
	var hs []*header.Header

	for _, h := range f {
		if h.Role == r {
			hs = append(hs, h)
		}
	}

	return hs
}
