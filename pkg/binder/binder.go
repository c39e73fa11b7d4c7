// Package binder runs header inference for the tables of a compilation
// unit: candidate generation, fit selection and header materialization.
package binder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/openltablets/dtinfer/pkg/candidate"
	"github.com/openltablets/dtinfer/pkg/definition"
	"github.com/openltablets/dtinfer/pkg/diag"
	"github.com/openltablets/dtinfer/pkg/expr"
	"github.com/openltablets/dtinfer/pkg/fit"
	"github.com/openltablets/dtinfer/pkg/grid"
	"github.com/openltablets/dtinfer/pkg/log"
	"github.com/openltablets/dtinfer/pkg/materialize"
	"github.com/openltablets/dtinfer/pkg/token"
	"github.com/openltablets/dtinfer/pkg/typesys"
)

// ErrUnknownMode is returned for tables with an unsupported [Mode].
var ErrUnknownMode = errors.New("unknown mode")

// Mode selects how headers are inferred.
type Mode string

const (
	// ModeSmart uses declared, fuzzy and positional candidates.
	ModeSmart Mode = "smart"
	// ModeSimple binds columns to parameters by position only.
	ModeSimple Mode = "simple"
)

// AllModes lists the supported modes.
var AllModes = []string{string(ModeSmart), string(ModeSimple)}

// Table is a decision table without a header.
type Table struct {
	// Grid holds the title rows followed by the rule rows.
	Grid grid.Grid
	// KeyType is the key type of two-column returns, or nil.
	KeyType *typesys.Type
	Name    string
	Mode    Mode
	Method  typesys.Method
	// Horizontal is the number of trailing parameters bound by
	// horizontal conditions.
	Horizontal int
}

// Result is a bound table.
type Result struct {
	Source      *Table
	Layout      *candidate.Layout
	Solution    *fit.Solution
	Candidates  int
	Suggestions []candidate.Suggestion
	*materialize.Result
}

// Session binds the tables of one compilation unit. Its vocabulary cache
// is shared by all tables and cleared by [Session.BindAll] when the pass
// ends.
type Session struct {
	registry     *typesys.Registry
	definitions  *definition.Registry
	constants    *expr.Constants
	env          *expr.Environment
	caster       typesys.Caster
	matching     *token.Config
	solver       *fit.Solver
	sink         diag.Sink
	tracer       trace.Tracer
	cache        *token.Cache
	generator    *candidate.Generator
	materializer *materialize.Materializer
	workers      int
}

// SessionOpt configures a [Session].
type SessionOpt func(*Session)

// WithRegistry sets the type registry.
func WithRegistry(reg *typesys.Registry) SessionOpt {
	return func(s *Session) {
		s.registry = reg
	}
}

// WithDefinitions sets the declared definitions.
func WithDefinitions(defs *definition.Registry) SessionOpt {
	return func(s *Session) {
		s.definitions = defs
	}
}

// WithConstants sets the project constants.
func WithConstants(c *expr.Constants) SessionOpt {
	return func(s *Session) {
		s.constants = c
	}
}

// WithEnvironment sets the expression environment definitions were
// parsed in.
func WithEnvironment(env *expr.Environment) SessionOpt {
	return func(s *Session) {
		s.env = env
	}
}

// WithCaster sets the implicit cast rules.
func WithCaster(c typesys.Caster) SessionOpt {
	return func(s *Session) {
		s.caster = c
	}
}

// WithMatching sets the fuzzy matching configuration.
func WithMatching(cfg *token.Config) SessionOpt {
	return func(s *Session) {
		s.matching = cfg
	}
}

// WithSolver sets the fit solver.
func WithSolver(solver *fit.Solver) SessionOpt {
	return func(s *Session) {
		s.solver = solver
	}
}

// WithSink sets the diagnostics sink.
func WithSink(sink diag.Sink) SessionOpt {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) SessionOpt {
	return func(s *Session) {
		s.tracer = t
	}
}

// WithWorkers bounds the number of tables bound concurrently.
func WithWorkers(n int) SessionOpt {
	return func(s *Session) {
		s.workers = n
	}
}

// NewSession creates a new [Session].
func NewSession(opts ...SessionOpt) (*Session, error) {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = typesys.NewRegistry()
	}

	if s.definitions == nil {
		s.definitions = definition.NewRegistry()
	}

	if s.constants == nil {
		s.constants = expr.NewConstants(s.registry)
	}

	if s.env == nil {
		env, err := expr.NewEnvironment()
		if err != nil {
			return nil, err
		}

		s.env, err = env.WithConstants(s.constants)
		if err != nil {
			return nil, err
		}
	}

	if s.caster == nil {
		s.caster = typesys.Widening{}
	}

	if s.matching == nil {
		s.matching = token.NewConfig()
	}

	if err := s.matching.Validate(); err != nil {
		return nil, err
	}

	if s.solver == nil {
		s.solver = fit.NewSolver(nil)
	}

	if s.tracer == nil {
		s.tracer = otel.Tracer("binder")
	}

	if s.workers < 1 {
		s.workers = runtime.GOMAXPROCS(0)
	}

	matcher := token.NewMatcher(s.matching)
	depth := s.matching.Depth()

	s.cache = token.NewCache()
	s.generator = &candidate.Generator{
		Introspector: s.registry,
		Definitions:  s.definitions,
		Matcher:      matcher,
		Cache:        s.cache,
		Depth:        depth,
		Reconciler: &definition.Reconciler{
			Caster:       s.caster,
			Introspector: s.registry,
			Matcher:      matcher,
			Cache:        s.cache,
			Env:          s.env,
			Depth:        depth,
		},
	}
	s.materializer = &materialize.Materializer{Registry: s.registry, Constants: s.constants}

	return s, nil
}

// Registry returns the session's type registry.
func (s *Session) Registry() *typesys.Registry {
	return s.registry
}

// Cache returns the session's vocabulary cache.
func (s *Session) Cache() *token.Cache {
	return s.cache
}

// Bind infers the header of t. Structural errors are reported to the
// session's sink and returned.
func (s *Session) Bind(ctx context.Context, t *Table) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "bind", trace.WithAttributes(
		attribute.String("table", t.Name),
		attribute.String("method", t.Method.Name),
		attribute.String("mode", string(t.Mode)),
	))
	defer span.End()

	ctx = log.NewContext(ctx, log.WithContext(ctx).With(slog.String("table", t.Name)))

	res, err := s.bind(ctx, t)
	if err != nil {
		span.RecordError(err)

		log.FromContext(ctx).ErrorContext(ctx, "bind table",
			slog.String("code", string(diag.Classify(err))),
			slog.Any("err", err),
		)

		return nil, diag.Report(s.sink, err)
	}

	return res, nil
}

func (s *Session) bind(ctx context.Context, t *Table) (*Result, error) {
	logger := log.FromContext(ctx)
	loc := diag.TableLocation(t.Name)

	mode := t.Mode
	if mode == "" {
		mode = ModeSmart
	}

	if mode != ModeSmart && mode != ModeSimple {
		return nil, diag.Errorf(diag.CodeInvalidDefinition, loc, "%w: %q", ErrUnknownMode, mode)
	}

	if err := ctx.Err(); err != nil {
		return nil, diag.Errorf(diag.CodeCancel, loc, "%w", err)
	}

	layout, err := candidate.Analyze(t.Grid, t.Horizontal)
	if err != nil {
		return nil, diag.Errorf(diag.CodeInsufficientColumns, loc, "%w", err)
	}

	returnWidth := 1
	if t.KeyType != nil {
		returnWidth = 2
	}

	cands, err := s.generate(ctx, candidate.Request{
		Layout:         layout,
		Method:         t.Method,
		Table:          t.Name,
		ReturnWidth:    returnWidth,
		PositionalOnly: mode == ModeSimple,
	})
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "generated candidates",
		slog.Int("headers", len(cands.Headers)),
		slog.Int("titles", len(layout.Titles)),
	)

	for _, sg := range cands.Suggestions {
		diag.Warn(s.sink, diag.CodeSuggestion, loc.At(sg.Title.Column, 0).WithTitle(sg.Title.Text),
			"title %q matches no parameter, did you mean %q?", sg.Title.Text, sg.Token)
	}

	vertical := len(t.Method.Params) - t.Horizontal
	names := make([]string, vertical)

	for i := range names {
		names[i] = t.Method.Params[i].Name
	}

	sol, err := s.solve(ctx, fit.Problem{
		Headers:    cands.Headers,
		Fallback:   cands.Positional,
		Location:   loc,
		Boundary:   layout.Boundary,
		Params:     vertical,
		ParamNames: names,
		Horizontal: t.Horizontal,
	})
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "selected fit",
		slog.Int("enumerated", sol.Enumerated),
		slog.Int("survivors", sol.Survivors),
		slog.Bool("fallback", sol.Fallback),
	)

	mat, err := s.materialize(ctx, materialize.Request{
		Grid:    t.Grid,
		Layout:  layout,
		KeyType: t.KeyType,
		Method:  t.Method,
		Table:   t.Name,
		Fit:     sol.Fit,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Source:      t,
		Layout:      layout,
		Solution:    sol,
		Candidates:  len(cands.Headers),
		Suggestions: cands.Suggestions,
		Result:      mat,
	}, nil
}

func (s *Session) generate(ctx context.Context, req candidate.Request) (*candidate.Result, error) {
	_, span := s.tracer.Start(ctx, "generate")
	defer span.End()

	res, err := s.generator.Generate(req)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("candidates", len(res.Headers)))

	return res, nil
}

func (s *Session) solve(ctx context.Context, p fit.Problem) (*fit.Solution, error) {
	ctx, span := s.tracer.Start(ctx, "solve")
	defer span.End()

	sol, err := s.solver.Solve(ctx, p, s.sink)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("enumerated", sol.Enumerated),
		attribute.Int("survivors", sol.Survivors),
		attribute.Bool("fallback", sol.Fallback),
	)

	return sol, nil
}

func (s *Session) materialize(ctx context.Context, req materialize.Request) (*materialize.Result, error) {
	_, span := s.tracer.Start(ctx, "materialize")
	defer span.End()

	return s.materializer.Materialize(req)
}

// BindAll binds tables concurrently and returns their results in input
// order. A table that fails to bind leaves a nil result and does not stop
// the others; the failures are joined in the returned error. The
// vocabulary cache is cleared when all tables are done.
func (s *Session) BindAll(ctx context.Context, tables []*Table) ([]*Result, error) {
	defer s.cache.Clear()

	ctx, span := s.tracer.Start(ctx, "bind-all", trace.WithAttributes(
		attribute.Int("tables", len(tables)),
	))
	defer span.End()

	results := make([]*Result, len(tables))
	errs := make([]error, len(tables))

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, t := range tables {
		g.Go(func() error {
			res, err := s.Bind(ctx, t)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", t.Name, err)

				return nil
			}

			results[i] = res

			return nil
		})
	}

	//nolint:errcheck // Failures are collected per table.
	g.Wait()

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
	}

	return results, err
}
