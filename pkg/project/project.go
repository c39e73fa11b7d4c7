// Package project turns a Project document into a binder session and the
// tables to bind.
package project

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/openltablets/dtinfer/api/v1beta1/projects"
	"github.com/openltablets/dtinfer/pkg/binder"
	"github.com/openltablets/dtinfer/pkg/config"
	"github.com/openltablets/dtinfer/pkg/definition"
	"github.com/openltablets/dtinfer/pkg/diag"
	"github.com/openltablets/dtinfer/pkg/expr"
	"github.com/openltablets/dtinfer/pkg/grid"
	"github.com/openltablets/dtinfer/pkg/role"
	"github.com/openltablets/dtinfer/pkg/typesys"
)

var (
	// ErrTableNotFound is returned when a requested table is not declared.
	ErrTableNotFound = errors.New("table not found")
	// ErrInvalidProject is returned for declarations that cannot be built.
	ErrInvalidProject = errors.New("invalid project")
)

// Project is a loaded compilation unit.
type Project struct {
	Session *binder.Session
	Name    string
	Tables  []*binder.Table
}

// Opt configures [Load].
type Opt func(*options)

type options struct {
	dir     string
	session []binder.SessionOpt
	loader  []config.LoaderOpt
}

// WithDir sets the directory workbook paths are resolved against.
func WithDir(dir string) Opt {
	return func(o *options) {
		o.dir = dir
	}
}

// WithSessionOpts passes options through to [binder.NewSession].
func WithSessionOpts(opts ...binder.SessionOpt) Opt {
	return func(o *options) {
		o.session = append(o.session, opts...)
	}
}

// WithLoaderOpts passes options through to the document loader used by
// [LoadFile].
func WithLoaderOpts(opts ...config.LoaderOpt) Opt {
	return func(o *options) {
		o.loader = append(o.loader, opts...)
	}
}

// Load builds the types, constants, definitions and tables of doc.
// Declaration errors are collected and returned together.
func Load(doc *projects.Project, opts ...Opt) (*Project, error) {
	o := &options{dir: "."}
	for _, opt := range opts {
		opt(o)
	}

	doc.EnsureDefaults()

	reg, err := buildTypes(doc.Types)
	if err != nil {
		return nil, err
	}

	env, err := expr.NewEnvironment()
	if err != nil {
		return nil, fmt.Errorf("create environment: %w", err)
	}

	constants, env, err := buildConstants(reg, env, doc.Constants)
	if err != nil {
		return nil, err
	}

	defs, err := buildDefinitions(reg, env, doc.Definitions)
	if err != nil {
		return nil, err
	}

	session, err := binder.NewSession(append([]binder.SessionOpt{
		binder.WithRegistry(reg),
		binder.WithDefinitions(defs),
		binder.WithConstants(constants),
		binder.WithEnvironment(env),
	}, o.session...)...)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	p := &Project{Name: doc.Name, Session: session}

	var errs []error

	for _, t := range doc.Tables {
		bt, err := buildTable(reg, o.dir, t)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		p.Tables = append(p.Tables, bt)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return p, nil
}

// Select returns the named tables in the given order, or all tables when
// no names are given.
func (p *Project) Select(names ...string) ([]*binder.Table, error) {
	if len(names) == 0 {
		return p.Tables, nil
	}

	byName := make(map[string]*binder.Table, len(p.Tables))
	for _, t := range p.Tables {
		byName[t.Name] = t
	}

	tables := make([]*binder.Table, 0, len(names))

	for _, name := range names {
		t, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
		}

		tables = append(tables, t)
	}

	return tables, nil
}

// Bind binds the named tables, or all tables when no names are given.
func (p *Project) Bind(ctx context.Context, names ...string) ([]*binder.Result, error) {
	tables, err := p.Select(names...)
	if err != nil {
		return nil, err
	}

	return p.Session.BindAll(ctx, tables)
}

func buildTypes(decls []*projects.Type) (*typesys.Registry, error) {
	reg := typesys.NewRegistry()
	beans := make([]*typesys.Type, len(decls))

	// Beans are defined before members so that they can refer to each other.
	for i, d := range decls {
		t, err := reg.DefineBean(d.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: type %s: %w", ErrInvalidProject, d.Name, err)
		}

		if d.Constructible != nil {
			reg.SetConstructible(t, *d.Constructible)
		}

		beans[i] = t
	}

	var errs []error

	for i, d := range decls {
		for _, m := range d.Members {
			mt, err := reg.Lookup(m.Type)
			if err != nil {
				errs = append(errs, diag.Errorf(diag.CodeUnknownType, diag.TableLocation(d.Name),
					"member %s: %w", m.Name, err))

				continue
			}

			err = reg.AddMember(beans[i], typesys.Member{
				Name:     m.Name,
				Type:     mt,
				Readable: m.Readable(),
				Writable: m.Writable(),
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: type %s: %w", ErrInvalidProject, d.Name, err))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return reg, nil
}

// buildConstants declares constants in order. Expression constants may
// refer to the constants declared before them.
func buildConstants(
	reg *typesys.Registry,
	env *expr.Environment,
	decls []*projects.Constant,
) (*expr.Constants, *expr.Environment, error) {
	constants := expr.NewConstants(reg)

	for _, d := range decls {
		var t *typesys.Type

		if d.Type != "" {
			var err error

			t, err = reg.Lookup(d.Type)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: constant %s: %w", ErrInvalidProject, d.Name, err)
			}
		}

		switch {
		case d.Expression != "" && d.Value != nil:
			return nil, nil, fmt.Errorf("%w: constant %s: both value and expression are set", ErrInvalidProject, d.Name)
		case d.Expression != "":
			scope, err := env.WithConstants(constants)
			if err != nil {
				return nil, nil, fmt.Errorf("constant %s: %w", d.Name, err)
			}

			if err := constants.AddExpression(scope, d.Name, t, d.Expression); err != nil {
				return nil, nil, fmt.Errorf("%w: %w", ErrInvalidProject, err)
			}
		default:
			if err := constants.Add(d.Name, t, d.Value); err != nil {
				return nil, nil, fmt.Errorf("%w: %w", ErrInvalidProject, err)
			}
		}
	}

	env, err := env.WithConstants(constants)
	if err != nil {
		return nil, nil, fmt.Errorf("declare constants: %w", err)
	}

	return constants, env, nil
}

func buildDefinitions(
	reg *typesys.Registry,
	env *expr.Environment,
	decls []*projects.Definition,
) (*definition.Registry, error) {
	defs := definition.NewRegistry()

	var errs []error

	for _, d := range decls {
		def, err := buildDefinition(reg, env, d)
		if err == nil {
			err = defs.Add(def)
		}

		if err != nil {
			errs = append(errs, diag.Errorf(diag.CodeInvalidDefinition, diag.TableLocation(d.Name), "%w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return defs, nil
}

func buildDefinition(reg *typesys.Registry, env *expr.Environment, d *projects.Definition) (*definition.Definition, error) {
	r, err := role.Parse(d.Role)
	if err != nil {
		return nil, err //nolint:wrapcheck // Wrapped with the definition location.
	}

	params, err := parseParams(reg, d.Parameters)
	if err != nil {
		return nil, err
	}

	inputs, err := parseParams(reg, d.Inputs)
	if err != nil {
		return nil, err
	}

	return definition.New(env, d.Name, r, d.Titles, params, inputs, d.Expression) //nolint:wrapcheck // Wrapped with the definition location.
}

func parseParams(reg *typesys.Registry, decls []string) ([]typesys.Param, error) {
	params := make([]typesys.Param, 0, len(decls))

	for _, decl := range decls {
		p, err := reg.ParseParam(decl)
		if err != nil {
			return nil, err //nolint:wrapcheck // Already names the declaration.
		}

		params = append(params, p)
	}

	return params, nil
}

func buildTable(reg *typesys.Registry, dir string, t *projects.Table) (*binder.Table, error) {
	loc := diag.TableLocation(t.Name)

	m, err := reg.ParseMethod(t.Method)
	if err != nil {
		return nil, diag.Errorf(diag.CodeUnknownType, loc, "%w", err)
	}

	if t.Horizontal > len(m.Params) {
		return nil, diag.Errorf(diag.CodeInsufficientColumns, loc,
			"%w: %d horizontal conditions but %d parameters", ErrInvalidProject, t.Horizontal, len(m.Params))
	}

	bt := &binder.Table{
		Name:       t.Name,
		Mode:       t.BinderMode(),
		Method:     m,
		Horizontal: t.Horizontal,
	}

	if t.KeyType != "" {
		bt.KeyType, err = reg.Lookup(t.KeyType)
		if err != nil {
			return nil, diag.Errorf(diag.CodeUnknownType, loc, "key type: %w", err)
		}
	}

	bt.Grid, err = tableGrid(dir, t)
	if err != nil {
		return nil, diag.Errorf(diag.CodeInsufficientColumns, loc, "%w", err)
	}

	return bt, nil
}

func tableGrid(dir string, t *projects.Table) (grid.Grid, error) {
	if t.XLSX != nil {
		if len(t.Rows) > 0 {
			return nil, fmt.Errorf("%w: both rows and xlsx are set", ErrInvalidProject)
		}

		path := t.XLSX.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}

		g, err := grid.ReadXLSX(path, t.XLSX.Sheet, t.XLSX.Area)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", t.XLSX.Path, err)
		}

		return g, nil
	}

	merges := make([]grid.Region, 0, len(t.Merges))

	for _, area := range t.Merges {
		r, err := grid.ParseArea(area)
		if err != nil {
			return nil, err //nolint:wrapcheck // Already names the area.
		}

		merges = append(merges, r)
	}

	g, err := grid.NewTable(t.Strings(), merges...)
	if err != nil {
		return nil, fmt.Errorf("build table: %w", err)
	}

	return g, nil
}
