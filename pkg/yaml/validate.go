package yaml

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator validates decoded documents against a JSON schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the JSON schema in schemaData, registered under url.
func NewValidator(url string, schemaData []byte) (*Validator, error) {
	var schema any

	err := json.Unmarshal(schemaData, &schema)
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()

	err = compiler.AddResource(url, schema)
	if err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	jss, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Validator{schema: jss}, nil
}

// MustNewValidator is like [NewValidator] but panics on error.
func MustNewValidator(url string, schemaData []byte) *Validator {
	v, err := NewValidator(url, schemaData)
	if err != nil {
		panic(err)
	}

	return v
}

// Validate checks data against the schema. Violations are returned as an
// [*Error] whose Path points at the most specific offending node, so that
// the wrapper can annotate the source document.
func (s *Validator) Validate(data any) error {
	err := s.schema.Validate(data)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return fmt.Errorf("schema validation: %w", err)
	}

	return &Error{
		Err:  validationErr,
		Path: pathOf(deepestLocation(validationErr)),
	}
}

// deepestLocation returns the longest instance location among err and its
// causes.
func deepestLocation(err *jsonschema.ValidationError) []string {
	longest := err.InstanceLocation

	for _, cause := range err.Causes {
		if loc := deepestLocation(cause); len(loc) > len(longest) {
			longest = loc
		}
	}

	return longest
}

func pathOf(location []string) *yaml.Path {
	b := NewPathBuilder().Root()

	for _, part := range location {
		if i, err := strconv.ParseUint(part, 10, 32); err == nil {
			b = b.Index(uint(i))

			continue
		}

		b = b.Child(part)
	}

	return b.Build()
}
