// Package typesys models the types that decision-table parameters, bean
// members and generated header columns refer to.
//
// Types are identified by pointer: every [Type] is created and owned by a
// [Registry]. Bean members are discovered through the [Introspector]
// capability so that callers can plug in their own reflection.
package typesys

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a [Type].
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindChar
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBigInteger
	KindBigDecimal
	KindString
	KindDate
	KindObject
	KindBean
	KindArray
	KindRange
)

var kindNames = map[Kind]string{
	KindInvalid:    "invalid",
	KindBool:       "bool",
	KindChar:       "char",
	KindByte:       "byte",
	KindShort:      "short",
	KindInt:        "int",
	KindLong:       "long",
	KindFloat:      "float",
	KindDouble:     "double",
	KindBigInteger: "bigInteger",
	KindBigDecimal: "bigDecimal",
	KindString:     "string",
	KindDate:       "date",
	KindObject:     "object",
	KindBean:       "bean",
	KindArray:      "array",
	KindRange:      "range",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return "invalid"
}

// IsNumeric reports whether the kind is a number.
func (k Kind) IsNumeric() bool {
	return k >= KindByte && k <= KindBigDecimal
}

// IsIntegral reports whether the kind is a whole number.
func (k Kind) IsIntegral() bool {
	switch k {
	case KindByte, KindShort, KindInt, KindLong, KindBigInteger:
		return true
	default:
		return false
	}
}

// Type describes a value type.
type Type struct {
	elem          *Type
	name          string
	members       []Member
	kind          Kind
	constructible bool
}

// Name returns the display name of the type, e.g. "int", "Driver", "int[]".
func (t *Type) Name() string {
	if t == nil {
		return "<nil>"
	}

	return t.name
}

func (t *Type) String() string { return t.Name() }

// Kind returns the kind of the type.
func (t *Type) Kind() Kind {
	if t == nil {
		return KindInvalid
	}

	return t.kind
}

// Elem returns the component type of an array type, or nil.
func (t *Type) Elem() *Type {
	if t == nil {
		return nil
	}

	return t.elem
}

// IsArray reports whether the type is an array.
func (t *Type) IsArray() bool { return t.Kind() == KindArray }

// IsBean reports whether the type has members.
func (t *Type) IsBean() bool { return t.Kind() == KindBean }

// Constructible reports whether a new instance can be created with a
// no-argument constructor.
func (t *Type) Constructible() bool {
	return t != nil && t.constructible
}

// IsCompound reports whether values of the type can be assembled from
// several columns, i.e. the type is a constructible bean with at least one
// writable member.
func (t *Type) IsCompound() bool {
	if !t.IsBean() || !t.constructible {
		return false
	}

	for _, m := range t.members {
		if m.Writable {
			return true
		}
	}

	return false
}

// Member is a named property of a bean type.
type Member struct {
	Type *Type
	// Get reads the member from a value. Optional.
	Get func(obj any) (any, error)
	// Set writes the member of a value. Optional.
	Set      func(obj, value any) error
	Name     string
	Readable bool
	Writable bool
}

// Getter returns the accessor method name, e.g. "getAge" or "isActive".
func (m Member) Getter() string {
	if m.Type.Kind() == KindBool {
		return "is" + capitalize(m.Name)
	}

	return "get" + capitalize(m.Name)
}

// Setter returns the mutator method name, e.g. "setAge".
func (m Member) Setter() string {
	return "set" + capitalize(m.Name)
}

// Introspector lists the accessible members of a type.
type Introspector interface {
	Members(t *Type) []Member
}

// Param is a formal parameter of a method.
type Param struct {
	Type *Type
	Name string
}

// Method is a compiled method signature.
type Method struct {
	Return *Type
	Name   string
	Params []Param
}

// ParamIndex returns the index of the parameter with the given name, or -1.
func (m Method) ParamIndex(name string) int {
	for i, p := range m.Params {
		if p.Name == name {
			return i
		}
	}

	return -1
}

func (m Method) String() string {
	var b strings.Builder

	b.WriteString(m.Return.Name())
	b.WriteByte(' ')
	b.WriteString(m.Name)
	b.WriteByte('(')

	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(p.Type.Name())
		b.WriteByte(' ')
		b.WriteString(p.Name)
	}

	b.WriteByte(')')

	return b.String()
}

// Constant is a named value that may appear in place of a literal.
type Constant struct {
	Value any
	Type  *Type
	Name  string
}

// ConstantResolver looks up named constants.
type ConstantResolver interface {
	Constant(name string) (Constant, bool)
}

// NoConstants is a [ConstantResolver] without any constants.
type NoConstants struct{}

func (NoConstants) Constant(string) (Constant, bool) { return Constant{}, false }

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}
