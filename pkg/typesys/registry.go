package typesys

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrUnknownType is returned when a type name cannot be resolved.
	ErrUnknownType = errors.New("unknown type")
	// ErrDuplicateType is returned when a bean name is already defined.
	ErrDuplicateType = errors.New("duplicate type")
	// ErrDuplicateMember is returned when a bean member is already defined.
	ErrDuplicateMember = errors.New("duplicate member")
)

// Names of the range types.
const (
	IntRange    = "IntRange"
	DoubleRange = "DoubleRange"
	DateRange   = "DateRange"
	StringRange = "StringRange"
	CharRange   = "CharRange"
)

var builtins = []struct {
	name    string
	aliases []string
	kind    Kind
}{
	{name: "boolean", kind: KindBool, aliases: []string{"bool", "Boolean"}},
	{name: "char", kind: KindChar, aliases: []string{"Character"}},
	{name: "byte", kind: KindByte, aliases: []string{"Byte"}},
	{name: "short", kind: KindShort, aliases: []string{"Short"}},
	{name: "int", kind: KindInt, aliases: []string{"Integer"}},
	{name: "long", kind: KindLong, aliases: []string{"Long"}},
	{name: "float", kind: KindFloat, aliases: []string{"Float"}},
	{name: "double", kind: KindDouble, aliases: []string{"Double"}},
	{name: "BigInteger", kind: KindBigInteger},
	{name: "BigDecimal", kind: KindBigDecimal},
	{name: "String", kind: KindString, aliases: []string{"string"}},
	{name: "Date", kind: KindDate, aliases: []string{"date", "LocalDate"}},
	{name: "Object", kind: KindObject},
	{name: IntRange, kind: KindRange},
	{name: DoubleRange, kind: KindRange},
	{name: DateRange, kind: KindRange},
	{name: StringRange, kind: KindRange},
	{name: CharRange, kind: KindRange},
}

// Registry owns a set of types and resolves them by name.
// It is safe for concurrent use.
type Registry struct {
	types map[string]*Type
	order []*Type
	mu    sync.RWMutex
}

// NewRegistry creates a [Registry] pre-populated with the built-in types.
func NewRegistry() *Registry {
	r := &Registry{types: map[string]*Type{}}

	for _, b := range builtins {
		t := &Type{name: b.name, kind: b.kind}
		r.types[b.name] = t
		r.order = append(r.order, t)

		for _, a := range b.aliases {
			r.types[a] = t
		}
	}

	return r
}

// Lookup returns the type with the given name. Array names ("int[]") are
// resolved through their component type.
func (r *Registry) Lookup(name string) (*Type, error) {
	name = strings.TrimSpace(name)

	if base, ok := strings.CutSuffix(name, "[]"); ok {
		elem, err := r.Lookup(base)
		if err != nil {
			return nil, err
		}

		return r.ArrayOf(elem), nil
	}

	r.mu.RLock()
	t, ok := r.types[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}

	return t, nil
}

// MustLookup is like [Registry.Lookup] but panics on error.
func (r *Registry) MustLookup(name string) *Type {
	t, err := r.Lookup(name)
	if err != nil {
		panic(err)
	}

	return t
}

// ArrayOf returns the array type with the given component type.
func (r *Registry) ArrayOf(elem *Type) *Type {
	name := elem.Name() + "[]"

	r.mu.RLock()
	t, ok := r.types[name]
	r.mu.RUnlock()

	if ok {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.types[name]; ok {
		return t
	}

	t = &Type{name: name, kind: KindArray, elem: elem}
	r.types[name] = t

	return t
}

// DefineBean declares a new, initially empty, constructible bean type.
// Members are added with [Registry.AddMember], which allows beans to refer
// to each other.
func (r *Registry) DefineBean(name string) (*Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateType, name)
	}

	t := &Type{name: name, kind: KindBean, constructible: true}
	r.types[name] = t
	r.order = append(r.order, t)

	return t, nil
}

// SetConstructible marks whether a bean can be instantiated.
func (r *Registry) SetConstructible(t *Type, constructible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t.constructible = constructible
}

// AddMember appends a member to a bean type.
func (r *Registry) AddMember(t *Type, m Member) error {
	if !t.IsBean() {
		return fmt.Errorf("add member %q: %s is not a bean", m.Name, t.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.ContainsFunc(t.members, func(o Member) bool { return o.Name == m.Name }) {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateMember, t.Name(), m.Name)
	}

	t.members = append(t.members, m)

	return nil
}

// Members returns the members of a bean type in declaration order.
func (r *Registry) Members(t *Type) []Member {
	if !t.IsBean() {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(t.members)
}

// Beans returns all bean types in definition order.
func (r *Registry) Beans() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var beans []*Type

	for _, t := range r.order {
		if t.IsBean() {
			beans = append(beans, t)
		}
	}

	return beans
}
