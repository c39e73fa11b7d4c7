// Package projects provides the Project document: the types, constants,
// definitions and decision tables of one compilation unit.
package projects

import (
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/openltablets/dtinfer/api/v1beta1"
	"github.com/openltablets/dtinfer/pkg/binder"
	"github.com/openltablets/dtinfer/pkg/schema"
	"github.com/openltablets/dtinfer/pkg/yaml"
)

// Kind is the document kind.
const Kind = "Project"

// Member access levels.
const (
	AccessRead      = "read"
	AccessWrite     = "write"
	AccessReadWrite = "readWrite"
)

// FileNames are the names searched for when a directory is given instead
// of a project file.
var FileNames = []string{"dtinfer.yaml", "dtinfer.yml"}

var (
	// ValidKinds contains the valid kind values for projects.
	ValidKinds = []string{Kind}

	// AllAccess lists the member access levels.
	AllAccess = []string{AccessRead, AccessWrite, AccessReadWrite}

	// SchemaJSON is the JSON schema of the document.
	SchemaJSON = schema.MustGenerate(&Project{}, schema.WithExtension(func(jss *jsonschema.Schema) {
		v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
	}))

	// DefaultValidator validates projects against [SchemaJSON].
	DefaultValidator = yaml.MustNewValidator("/projects.v1beta1.json", SchemaJSON)

	_ v1beta1.Object = (*Project)(nil)
)

// Project is the Project document.
type Project struct {
	Name             string        `json:"name"                  jsonschema:"title=Name"`
	Types            []*Type       `json:"types,omitempty"       jsonschema:"title=Types"`
	Constants        []*Constant   `json:"constants,omitempty"   jsonschema:"title=Constants"`
	Definitions      []*Definition `json:"definitions,omitempty" jsonschema:"title=Definitions"`
	Tables           []*Table      `json:"tables,omitempty"      jsonschema:"title=Tables"`
	v1beta1.TypeMeta `json:",inline"`
}

// Type declares a bean type.
type Type struct {
	// Constructible defaults to true.
	Constructible *bool     `json:"constructible,omitempty" jsonschema:"title=Constructible"`
	Name          string    `json:"name"                    jsonschema:"title=Name"`
	Members       []*Member `json:"members,omitempty"       jsonschema:"title=Members"`
}

// Member declares a property of a bean type.
type Member struct {
	Name string `json:"name" jsonschema:"title=Name"`
	// Type is a type name such as "int", "Driver" or "String[]".
	Type   string `json:"type"             jsonschema:"title=Type"`
	Access string `json:"access,omitempty" jsonschema:"title=Access,enum=read,enum=write,enum=readWrite"`
}

// Readable reports whether the member has a getter.
func (m *Member) Readable() bool {
	return m.Access != AccessWrite
}

// Writable reports whether the member has a setter.
func (m *Member) Writable() bool {
	return m.Access != AccessRead
}

// Constant declares a named constant. Exactly one of Value and Expression
// is set.
type Constant struct {
	Value      any    `json:"value,omitempty"      jsonschema:"title=Value"`
	Name       string `json:"name"                 jsonschema:"title=Name"`
	Type       string `json:"type,omitempty"       jsonschema:"title=Type"`
	Expression string `json:"expression,omitempty" jsonschema:"title=Expression"`
}

// Definition declares a reusable column group.
type Definition struct {
	Name string `json:"name" jsonschema:"title=Name"`
	Role string `json:"role" jsonschema:"title=Role,enum=condition,enum=action,enum=return"`
	// Titles has one entry per column.
	Titles []string `json:"titles" jsonschema:"title=Titles,minItems=1"`
	// Parameters declare the local parameters, one per title, e.g. "int min".
	Parameters []string `json:"parameters"       jsonschema:"title=Parameters,minItems=1"`
	Inputs     []string `json:"inputs,omitempty" jsonschema:"title=Inputs"`
	// Expression is a CEL expression over parameters, inputs and constants.
	Expression string `json:"expression" jsonschema:"title=Expression"`
}

// Table declares a decision table without a header. Cells come from Rows
// or from an xlsx sheet area.
type Table struct {
	XLSX *XLSX  `json:"xlsx,omitempty" jsonschema:"title=Workbook"`
	Name string `json:"name"           jsonschema:"title=Name"`
	// Method is the table signature, e.g. "double premium(Driver driver)".
	Method string `json:"method"            jsonschema:"title=Method"`
	Mode   string `json:"mode,omitempty"    jsonschema:"title=Mode,enum=smart,enum=simple"`
	// KeyType is the key type of tables returning a map from two columns.
	KeyType string   `json:"keyType,omitempty" jsonschema:"title=Key Type"`
	Rows    [][]Cell `json:"rows,omitempty"    jsonschema:"title=Rows"`
	// Merges are A1 areas of merged cells, relative to Rows.
	Merges     []string `json:"merges,omitempty"     jsonschema:"title=Merges"`
	Horizontal int      `json:"horizontal,omitempty" jsonschema:"title=Horizontal Conditions,minimum=0"`
}

// BinderMode returns the inference mode of the table.
func (t *Table) BinderMode() binder.Mode {
	return binder.Mode(t.Mode)
}

// Strings returns the rows as plain strings.
func (t *Table) Strings() [][]string {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]string, len(row))
		for j, c := range row {
			rows[i][j] = string(c)
		}
	}

	return rows
}

// XLSX locates a table in a workbook.
type XLSX struct {
	// Path is relative to the project file.
	Path  string `json:"path"            jsonschema:"title=Path"`
	Sheet string `json:"sheet,omitempty" jsonschema:"title=Sheet"`
	// Area is an A1 area such as "B2:F9"; empty reads the used range.
	Area string `json:"area,omitempty" jsonschema:"title=Area"`
}

// Cell is a table cell. Numbers and booleans are kept in their YAML
// spelling.
type Cell string

// UnmarshalYAML accepts any scalar.
func (c *Cell) UnmarshalYAML(unmarshal func(any) error) error {
	var v any

	if err := unmarshal(&v); err != nil {
		return err
	}

	switch s := v.(type) {
	case nil:
		*c = ""
	case string:
		*c = Cell(s)
	default:
		*c = Cell(fmt.Sprint(s))
	}

	return nil
}

// JSONSchema describes a scalar cell.
func (Cell) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		AnyOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "number"},
			{Type: "boolean"},
			{Type: "null"},
		},
	}
}

// New creates an empty [Project].
func New() *Project {
	return &Project{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       Kind,
		},
	}
}

// EnsureDefaults fills in defaults of tables and members.
func (p *Project) EnsureDefaults() {
	for _, t := range p.Types {
		if t.Constructible == nil {
			v := true
			t.Constructible = &v
		}

		for _, m := range t.Members {
			if m.Access == "" {
				m.Access = AccessReadWrite
			}
		}
	}

	for _, t := range p.Tables {
		if t.Mode == "" {
			t.Mode = string(binder.ModeSmart)
		}
	}
}

// Table returns the table with the given name.
func (p *Project) Table(name string) (*Table, bool) {
	for _, t := range p.Tables {
		if t.Name == name {
			return t, true
		}
	}

	return nil, false
}
