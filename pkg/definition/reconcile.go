package definition

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/openltablets/dtinfer/pkg/diag"
	"github.com/openltablets/dtinfer/pkg/expr"
	"github.com/openltablets/dtinfer/pkg/token"
	"github.com/openltablets/dtinfer/pkg/typesys"
)

// ErrNotReconcilable is returned when a definition's inputs cannot be bound
// to the parameters of a method. It is not a structural error: the
// definition is simply not a candidate for that table.
var ErrNotReconcilable = errors.New("definition not reconcilable")

// Quality ranks how an input was bound. Lower is better.
type Quality int

const (
	// QualityExact binds an input to a parameter of the same name and type.
	QualityExact Quality = iota + 1
	// QualityCast binds an input to a parameter of the same name whose type
	// converts implicitly.
	QualityCast
	// QualityRename binds an input to a differently named parameter of the
	// same type.
	QualityRename
	// QualityRenameCast binds an input to a differently named parameter
	// whose type converts implicitly.
	QualityRenameCast
	// QualityField binds an input to a nested field of a parameter.
	QualityField
)

// AllQualities lists every [Quality] from best to worst.
var AllQualities = []Quality{QualityExact, QualityCast, QualityRename, QualityRenameCast, QualityField}

func (q Quality) String() string {
	switch q {
	case QualityExact:
		return "exact"
	case QualityCast:
		return "cast"
	case QualityRename:
		return "rename"
	case QualityRenameCast:
		return "rename+cast"
	case QualityField:
		return "field"
	}

	return "quality(" + strconv.Itoa(int(q)) + ")"
}

// AmbiguityError is returned when an input matches several nested fields
// equally well. Unlike [ErrNotReconcilable] it is a structural error.
type AmbiguityError struct {
	Definition string
	Input      string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("definition %s: input %q matches %s ambiguously",
		e.Definition, e.Input, strings.Join(e.Candidates, ", "))
}

// DiagCode implements [diag.Coder].
func (e *AmbiguityError) DiagCode() diag.Code {
	return diag.CodeAmbiguousMatch
}

// Binding records how an expression input was bound.
type Binding struct {
	Input   string
	Cast    string
	Chain   []typesys.Member
	Param   int
	Quality Quality
}

// Matched is a definition reconciled against a method signature.
type Matched struct {
	Definition *Definition
	Renames    map[string]string
	// Expression is the definition's expression with inputs replaced by
	// parameter references and local parameters renamed.
	Expression string
	Bindings   []Binding
	// Params are the local parameters after renaming.
	Params  []typesys.Param
	Quality Quality
}

// ParamIndexes returns the distinct method parameter indexes consumed,
// in ascending order.
func (m *Matched) ParamIndexes() []int {
	var idx []int

	for _, b := range m.Bindings {
		if !slices.Contains(idx, b.Param) {
			idx = append(idx, b.Param)
		}
	}

	slices.Sort(idx)

	return idx
}

// Reconciler binds definition inputs to method parameters.
// It holds no per-table state and is safe for concurrent use.
type Reconciler struct {
	Caster       typesys.Caster
	Introspector typesys.Introspector
	Matcher      *token.Matcher
	Cache        *token.Cache
	Env          *expr.Environment
	Depth        int
}

// Reconcile binds the inputs of d to the parameters of m at the given
// indexes. Inputs are bound level by level: exact name and type, name with
// cast, rename, rename with cast, and finally a unique nested field. Each
// parameter satisfies at most one input as a whole.
//
// Local parameters whose names collide with method parameters are renamed
// to "_name", then "_name1", "_name2" and so on.
func (r *Reconciler) Reconcile(d *Definition, m typesys.Method, indexes []int) (*Matched, error) {
	inputs := d.External()
	bound := make(map[string]Binding, len(inputs))
	used := map[int]bool{}

	for _, q := range AllQualities[:4] {
		for _, id := range inputs {
			if _, ok := bound[id]; ok {
				continue
			}

			in, _ := d.Input(id)

			for _, i := range indexes {
				if used[i] {
					continue
				}

				if b, ok := r.bindParam(q, in, m.Params[i], i); ok {
					bound[id] = b
					used[i] = true

					break
				}
			}
		}
	}

	fields := map[string]bool{}

	for _, id := range inputs {
		if _, ok := bound[id]; ok {
			continue
		}

		in, _ := d.Input(id)

		b, err := r.bindField(d, in, m, indexes, fields)
		if err != nil {
			return nil, err
		}

		bound[id] = b
		fields[token.Binding{Param: b.Param, Chain: b.Chain}.Key()] = true
	}

	matched := &Matched{
		Definition: d,
		Quality:    QualityExact,
		Renames:    map[string]string{},
	}

	repl := map[string]string{}

	for _, id := range inputs {
		b := bound[id]
		matched.Bindings = append(matched.Bindings, b)
		matched.Quality = max(matched.Quality, b.Quality)

		ref := token.Binding{Param: b.Param, Chain: b.Chain}.Path(m.Params[b.Param].Name)
		if b.Cast != "" {
			ref = b.Cast + "(" + ref + ")"
		}

		if ref != id {
			repl[id] = ref
		}
	}

	taken := map[string]bool{}
	for _, p := range m.Params {
		taken[p.Name] = true
	}

	for _, id := range d.Expression.Identifiers() {
		taken[id] = true
	}

	for _, p := range d.Params {
		if m.ParamIndex(p.Name) >= 0 {
			name := uniqueName("_"+p.Name, taken)
			taken[name] = true
			matched.Renames[p.Name] = name
			repl[p.Name] = name
			p.Name = name
		}

		matched.Params = append(matched.Params, p)
	}

	matched.Expression = d.Expression.Rewrite(repl)

	if err := r.check(matched, m); err != nil {
		return nil, err
	}

	return matched, nil
}

func (r *Reconciler) bindParam(q Quality, in, p typesys.Param, i int) (Binding, bool) {
	sameName := in.Name == p.Name
	sameType := in.Type == p.Type

	ok := false

	//nolint:exhaustive // Field bindings are handled separately.
	switch q {
	case QualityExact:
		ok = sameName && sameType
	case QualityCast:
		ok = sameName && !sameType && r.Caster.CanCast(p.Type, in.Type)
	case QualityRename:
		ok = !sameName && sameType
	case QualityRenameCast:
		ok = !sameName && !sameType && r.Caster.CanCast(p.Type, in.Type)
	}

	if !ok {
		return Binding{}, false
	}

	b := Binding{Input: in.Name, Param: i, Quality: q}
	if !sameType {
		b.Cast = Conversion(in.Type)
	}

	return b, true
}

func (r *Reconciler) bindField(
	d *Definition,
	in typesys.Param,
	m typesys.Method,
	indexes []int,
	fields map[string]bool,
) (Binding, error) {
	if r.Matcher == nil || r.Introspector == nil {
		return Binding{}, fmt.Errorf("%w: %s: input %q has no matching parameter", ErrNotReconcilable, d.Name, in.Name)
	}

	build := func() *token.Vocabulary {
		return token.ParamVocabulary(r.Introspector, m.Params, indexes, r.Depth)
	}

	var vocab *token.Vocabulary
	if r.Cache != nil {
		vocab = r.Cache.Get(token.ParamKey(m.Params, indexes, r.Depth), build)
	} else {
		vocab = build()
	}

	var found []token.Match

	for _, match := range token.Distinct(r.Matcher.BestMatches(in.Name, vocab)) {
		b := match.Binding
		if len(b.Chain) == 0 || fields[b.Key()] {
			continue
		}

		t := b.Type(m.Params[b.Param].Type)
		if t != in.Type && !r.Caster.CanCast(t, in.Type) {
			continue
		}

		found = append(found, match)
	}

	switch len(found) {
	case 0:
		return Binding{}, fmt.Errorf("%w: %s: input %q has no matching parameter", ErrNotReconcilable, d.Name, in.Name)
	case 1:
	default:
		cands := make([]string, len(found))
		for i, f := range found {
			cands[i] = f.Binding.Path(m.Params[f.Binding.Param].Name)
		}

		return Binding{}, &AmbiguityError{Definition: d.Name, Input: in.Name, Candidates: cands}
	}

	fb := found[0].Binding
	b := Binding{Input: in.Name, Param: fb.Param, Chain: fb.Chain, Quality: QualityField}

	if fb.Type(m.Params[fb.Param].Type) != in.Type {
		b.Cast = Conversion(in.Type)
	}

	return b, nil
}

// check type-checks the rewritten expression against the method parameters
// and the renamed local parameters.
func (r *Reconciler) check(matched *Matched, m typesys.Method) error {
	if r.Env == nil {
		return nil
	}

	vars := map[string]*cel.Type{}
	for _, p := range slices.Concat(m.Params, matched.Params) {
		vars[p.Name] = expr.CELType(p.Type)
	}

	if err := r.Env.Check(matched.Expression, vars); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotReconcilable, matched.Definition.Name, err)
	}

	return nil
}

// Conversion returns the expression function converting a value to t, or
// "" when values of any type are accepted.
func Conversion(t *typesys.Type) string {
	//nolint:exhaustive // Other kinds need no conversion.
	switch t.Kind() {
	case typesys.KindByte, typesys.KindShort, typesys.KindInt, typesys.KindLong,
		typesys.KindChar, typesys.KindBigInteger:
		return "int"
	case typesys.KindFloat, typesys.KindDouble, typesys.KindBigDecimal:
		return "double"
	case typesys.KindString:
		return "string"
	}

	return ""
}

func uniqueName(base string, taken map[string]bool) string {
	if !taken[base] {
		return base
	}

	for i := 1; ; i++ {
		name := base + strconv.Itoa(i)
		if !taken[name] {
			return name
		}
	}
}
