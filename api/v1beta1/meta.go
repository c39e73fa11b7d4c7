// Package v1beta1 contains the v1beta1 document types of dtinfer.
package v1beta1

import (
	"errors"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

// APIVersion is the API version of all v1beta1 kinds.
const APIVersion = "dtinfer.openl-tablets.org/v1beta1"

var (
	// ValidAPIVersions contains all valid API versions.
	ValidAPIVersions = []string{APIVersion}

	// ErrUnknownAPIVersion is returned for documents of another API version.
	ErrUnknownAPIVersion = errors.New("unknown apiVersion")
	// ErrUnknownKind is returned for documents of an unexpected kind.
	ErrUnknownKind = errors.New("unknown kind")
)

// TypeMeta identifies the API version and kind of a document.
type TypeMeta struct {
	APIVersion string `json:"apiVersion" jsonschema:"title=API Version"`
	Kind       string `json:"kind"       jsonschema:"title=Kind"`
}

// GetAPIVersion returns the API version.
func (tm TypeMeta) GetAPIVersion() string {
	return tm.APIVersion
}

// GetKind returns the kind.
func (tm TypeMeta) GetKind() string {
	return tm.Kind
}

// Check verifies that the document has a valid API version and one of
// the given kinds.
func (tm TypeMeta) Check(kinds ...string) error {
	if !slices.Contains(ValidAPIVersions, tm.APIVersion) {
		return fmt.Errorf("%w: %q", ErrUnknownAPIVersion, tm.APIVersion)
	}

	if !slices.Contains(kinds, tm.Kind) {
		return fmt.Errorf("%w: %q, want one of %v", ErrUnknownKind, tm.Kind, kinds)
	}

	return nil
}

// Object is implemented by all document types.
type Object interface {
	GetAPIVersion() string
	GetKind() string
	EnsureDefaults()
}

// ExtendSchemaWithEnums restricts the apiVersion and kind properties of a
// document schema to the given values. It panics when the schema lacks
// either property.
func ExtendSchemaWithEnums(jss *jsonschema.Schema, apiVersions, kinds []string) {
	for prop, values := range map[string][]string{"apiVersion": apiVersions, "kind": kinds} {
		s, ok := jss.Properties.Get(prop)
		if !ok {
			panic(prop + " property not found in schema")
		}

		for _, v := range values {
			s.Enum = append(s.Enum, v)
		}
	}
}
