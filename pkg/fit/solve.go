package fit

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/openltablets/dtinfer/pkg/definition"
	"github.com/openltablets/dtinfer/pkg/diag"
	"github.com/openltablets/dtinfer/pkg/header"
	"github.com/openltablets/dtinfer/pkg/log"
	"github.com/openltablets/dtinfer/pkg/role"
)

// Problem is the input of [Solver.Solve].
type Problem struct {
	// Headers are the candidates, ordered by column.
	Headers []*header.Header
	// Fallback is used when no enumerated fit survives ranking in a table
	// without horizontal conditions.
	Fallback Fit
	Location diag.Location
	// Boundary is the column every fit must reach.
	Boundary int
	// Params is the number of parameters bound by vertical headers.
	Params int
	// ParamNames names the vertical parameters in diagnostics.
	ParamNames []string
	// Horizontal is the number of horizontal condition parameters.
	Horizontal int
}

// Solution is the selected fit.
type Solution struct {
	Fit Fit
	// Ambiguous lists the roles on which the best fits disagreed.
	Ambiguous []role.Role
	// Enumerated is the number of fits enumerated.
	Enumerated int
	// Survivors is the number of fits left after ranking.
	Survivors int
	// Fallback is set when the positional fallback was used.
	Fallback bool
	// Truncated is set when enumeration hit a configured limit.
	Truncated bool
}

// Solver enumerates and ranks fits. It holds no per-table state and is
// safe for concurrent use.
type Solver struct {
	maxFits  int
	maxDepth int
}

// NewSolver creates a [Solver] from cfg. A nil cfg uses the defaults.
func NewSolver(cfg *Config) *Solver {
	if cfg == nil {
		cfg = NewConfig()
	}

	cfg.EnsureDefaults()

	return &Solver{maxFits: *cfg.MaxFits, maxDepth: *cfg.MaxDepth}
}

// Solve selects a fit for p. Ambiguity warnings are reported to sink.
// When no fit can be selected, a structural [*diag.Error] is returned.
func (s *Solver) Solve(ctx context.Context, p Problem, sink diag.Sink) (*Solution, error) {
	logger := log.WithContext(ctx).With(slog.String("table", p.Location.Table))

	fits, truncated := s.Enumerate(p)
	if truncated {
		logger.WarnContext(ctx, "fit enumeration truncated",
			slog.Int("fits", len(fits)),
			slog.Int("max_fits", s.maxFits),
			slog.Int("max_depth", s.maxDepth),
		)
	}

	best := Rank(p, fits)

	logger.DebugContext(ctx, "ranked fits",
		slog.Int("candidates", len(p.Headers)),
		slog.Int("enumerated", len(fits)),
		slog.Int("survivors", len(best)),
	)

	sol := &Solution{Enumerated: len(fits), Survivors: len(best), Truncated: truncated}

	if len(best) == 0 {
		if p.Horizontal > 0 {
			return nil, diag.Errorf(diag.CodeNoFit, p.Location,
				"no interpretation of the columns binds the %d vertical parameters", p.Params)
		}

		if p.Fallback == nil {
			return nil, diag.Errorf(diag.CodeInsufficientColumns, p.Location,
				"%d columns cannot hold %d parameters and a return column", p.Boundary, p.Params)
		}

		if err := p.check(p.Fallback); err != nil {
			return nil, err
		}

		sol.Fit = p.Fallback
		sol.Fallback = true

		logger.DebugContext(ctx, "using positional fallback")

		return sol, nil
	}

	sol.Fit = best[0]

	if err := p.check(sol.Fit); err != nil {
		return nil, err
	}

	for _, r := range role.All {
		keys := best[0].Keys(r)

		for _, f := range best[1:] {
			if !slices.Equal(keys, f.Keys(r)) {
				sol.Ambiguous = append(sol.Ambiguous, r)

				diag.Warn(sink, diag.CodeAmbiguousFit, p.Location,
					"%d interpretations are equally good and disagree on the %s columns; using the first",
					len(best), r)

				break
			}
		}
	}

	return sol, nil
}

// check reports the mandatory coverage a selected fit lacks.
func (p Problem) check(f Fit) error {
	bound := f.Params()

	var missing []string

	for i := range p.Params {
		if !slices.Contains(bound, i) {
			missing = append(missing, p.paramName(i))
		}
	}

	if len(missing) > 0 {
		return diag.Errorf(diag.CodeUnboundParameter, p.Location,
			"no column binds parameter %s", strings.Join(missing, ", "))
	}

	if p.Horizontal == 0 && !f.Has(role.Return) {
		return diag.Errorf(diag.CodeNoReturn, p.Location, "no return column found")
	}

	return nil
}

func (p Problem) paramName(i int) string {
	if i < len(p.ParamNames) {
		return p.ParamNames[i]
	}

	return "#" + strconv.Itoa(i)
}

// Enumerate lists fits depth-first from column 0. A fit ends when no
// compatible candidate starts at the next free column. Once every vertical
// parameter is bound, only headers without parameters extend a fit.
// Positional headers bind the lowest unbound parameter only.
func (s *Solver) Enumerate(p Problem) ([]Fit, bool) {
	matrix := header.NewMatrix(p.Headers)

	byColumn := map[int][]int{}
	for i, h := range p.Headers {
		byColumn[h.Column] = append(byColumn[h.Column], i)
	}

	var (
		fits      []Fit
		sel       []int
		bound     = map[int]int{}
		truncated bool
		walk      func(col int)
	)

	emit := func() {
		f := make(Fit, len(sel))
		for i, j := range sel {
			f[i] = p.Headers[j]
		}

		fits = append(fits, f)
	}

	lowestUnbound := func() int {
		for i := range p.Params {
			if bound[i] == 0 {
				return i
			}
		}

		return -1
	}

	walk = func(col int) {
		if len(fits) >= s.maxFits {
			truncated = true

			return
		}

		if len(sel) >= s.maxDepth {
			truncated = true

			emit()

			return
		}

		extended := false
		full := len(bound) >= p.Params

		for _, i := range byColumn[col] {
			h := p.Headers[i]

			switch {
			case !matrix.CompatibleWithAll(i, sel):
				continue
			case len(h.Params) > 0 && full:
				continue
			case h.Kind == header.KindPositional && h.Params[0] != lowestUnbound():
				continue
			}

			sel = append(sel, i)
			for _, pi := range h.Params {
				bound[pi]++
			}

			walk(h.End())

			for _, pi := range h.Params {
				bound[pi]--
				if bound[pi] == 0 {
					delete(bound, pi)
				}
			}

			sel = sel[:len(sel)-1]
			extended = true

			if len(fits) >= s.maxFits {
				truncated = true

				return
			}
		}

		if !extended {
			emit()
		}
	}

	walk(0)

	return fits, truncated
}

// Rank applies the ranking filters to fits in their fixed order and
// returns the survivors in enumeration order.
func Rank(p Problem, fits []Fit) []Fit {
	isSimpleReturn := func(h *header.Header) bool { return h.Kind == header.KindSimpleReturn }

	// At most one return column that is not a compound member.
	fits = keep(fits, func(f Fit) bool {
		return f.Count(func(h *header.Header) bool { return h.IsReturn() && h.Kind != header.KindFuzzy }) <= 1
	})

	// Reach the table boundary.
	fits = keep(fits, func(f Fit) bool { return f.End() == p.Boundary })

	// No member of a compound result is assigned twice.
	fits = keep(fits, func(f Fit) bool {
		seen := map[string]bool{}

		for _, h := range f {
			if h.Kind != header.KindFuzzy || !h.IsReturn() {
				continue
			}

			k := h.Binding.Key()
			if seen[k] {
				return false
			}

			seen[k] = true
		}

		return true
	})

	fits = maxBy(fits, func(f Fit) int { return f.DeclaredTitles(0) })

	for _, q := range definition.AllQualities {
		fits = maxBy(fits, func(f Fit) int { return f.DeclaredTitles(q) })
	}

	if p.Params > 0 {
		fits = prefer(fits, func(f Fit) bool { return f.Has(role.Condition) })
	}

	if p.Horizontal == 0 {
		fits = prefer(fits, func(f Fit) bool { return f.Has(role.Return) })
	} else {
		fits = keep(fits, func(f Fit) bool { return !f.Has(role.Return) })
	}

	fits = maxBy(fits, func(f Fit) int { return len(f.Params()) })

	fits = maxBy(fits, func(f Fit) int { return -f.Count(isSimpleReturn) })

	// Titled columns read by title rather than position.
	return maxBy(fits, func(f Fit) int { return -f.Count(isTitledPositional) })
}

func isTitledPositional(h *header.Header) bool {
	return h.Kind == header.KindPositional && h.Title != ""
}

func keep(fits []Fit, pred func(Fit) bool) []Fit {
	var out []Fit

	for _, f := range fits {
		if pred(f) {
			out = append(out, f)
		}
	}

	return out
}

// prefer keeps the fits satisfying pred when there are any.
func prefer(fits []Fit, pred func(Fit) bool) []Fit {
	if out := keep(fits, pred); len(out) > 0 {
		return out
	}

	return fits
}

func maxBy(fits []Fit, score func(Fit) int) []Fit {
	if len(fits) == 0 {
		return fits
	}

	best := score(fits[0])
	for _, f := range fits[1:] {
		best = max(best, score(f))
	}

	return keep(fits, func(f Fit) bool { return score(f) == best })
}
