// Package schema generates JSON schemas for the versioned YAML documents.
package schema

import (
	"encoding/json"
	"fmt"
	"path"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/invopop/jsonschema"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Generator reflects a JSON schema from a Go document type.
type Generator struct {
	r          *jsonschema.Reflector
	v          any
	extensions []func(*jsonschema.Schema)
}

// GeneratorOpt configures a [Generator].
type GeneratorOpt func(*Generator)

// WithExtension registers a function that edits the root schema after
// reflection.
func WithExtension(fn func(*jsonschema.Schema)) GeneratorOpt {
	return func(g *Generator) {
		g.extensions = append(g.extensions, fn)
	}
}

// NewGenerator creates a [Generator] for the type of v. The root type is
// expanded in place, so extensions see its properties directly.
func NewGenerator(v any, opts ...GeneratorOpt) *Generator {
	g := &Generator{
		v: v,
		r: &jsonschema.Reflector{
			ExpandedStruct: true,
			Namer:          qualifiedName,
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate returns the indented JSON schema.
func (g *Generator) Generate() ([]byte, error) {
	jss := g.r.Reflect(g.v)

	for _, ext := range g.extensions {
		ext(jss)
	}

	b, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return b, nil
}

// MustGenerate is like [Generator.Generate] but panics on error.
func MustGenerate(v any, opts ...GeneratorOpt) []byte {
	b, err := NewGenerator(v, opts...).Generate()
	if err != nil {
		panic(err)
	}

	return b
}

// qualifiedName prefixes definition names with their package, since
// several packages export a type called Config. Test packages are named
// after the package they test.
func qualifiedName(t reflect.Type) string {
	name := t.Name()
	if r, size := utf8.DecodeRuneInString(name); r != utf8.RuneError {
		name = string(unicode.ToUpper(r)) + name[size:]
	}

	pkg := strings.TrimSuffix(path.Base(t.PkgPath()), "_test")
	if pkg == "." || pkg == "" {
		return name
	}

	title := cases.Title(language.English)

	var b strings.Builder

	for _, part := range strings.FieldsFunc(pkg, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		b.WriteString(title.String(part))
	}

	return b.String() + name
}
