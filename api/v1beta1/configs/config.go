// Package configs provides the Configuration document, which tunes
// matching, fit enumeration and compilation.
package configs

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/openltablets/dtinfer/api"
	"github.com/openltablets/dtinfer/api/v1beta1"
	"github.com/openltablets/dtinfer/pkg/binder"
	"github.com/openltablets/dtinfer/pkg/fit"
	"github.com/openltablets/dtinfer/pkg/schema"
	"github.com/openltablets/dtinfer/pkg/token"
	"github.com/openltablets/dtinfer/pkg/yaml"
)

// Kind is the document kind.
const Kind = "Configuration"

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	// ValidKinds contains the valid kind values for configurations.
	ValidKinds = []string{Kind}

	// SchemaJSON is the JSON schema of the document.
	SchemaJSON = schema.MustGenerate(&Config{}, schema.WithExtension(func(jss *jsonschema.Schema) {
		v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
	}))

	// DefaultValidator validates configurations against [SchemaJSON].
	DefaultValidator = yaml.MustNewValidator("/configs.v1beta1.json", SchemaJSON)

	_ v1beta1.Object = (*Config)(nil)
)

// Config is the Configuration document.
type Config struct {
	Matching         *token.Config  `json:"matching,omitempty" jsonschema:"title=Matching"`
	Solver           *fit.Config    `json:"solver,omitempty"   jsonschema:"title=Solver"`
	Compile          *binder.Config `json:"compile,omitempty"  jsonschema:"title=Compile"`
	v1beta1.TypeMeta `json:",inline"`
}

// New creates a [Config] with default values.
func New() *Config {
	c := &Config{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       Kind,
		},
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes nil sections to their default values.
func (c *Config) EnsureDefaults() {
	if c.Matching == nil {
		c.Matching = token.NewConfig()
	} else {
		c.Matching.EnsureDefaults()
	}

	if c.Solver == nil {
		c.Solver = fit.NewConfig()
	} else {
		c.Solver.EnsureDefaults()
	}

	if c.Compile == nil {
		c.Compile = binder.NewConfig()
	} else {
		c.Compile.EnsureDefaults()
	}
}

// Validate validates all sections.
func (c *Config) Validate() error {
	var errs []error

	if c.Matching != nil {
		if err := c.Matching.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("matching: %w", err))
		}
	}

	if c.Solver != nil {
		if err := c.Solver.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("solver: %w", err))
		}
	}

	if c.Compile != nil {
		if err := c.Compile.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("compile: %w", err))
		}
	}

	return errors.Join(errs...)
}

// SessionOpts returns the binder options for this configuration.
func (c *Config) SessionOpts() []binder.SessionOpt {
	c.EnsureDefaults()

	return []binder.SessionOpt{
		binder.WithMatching(c.Matching),
		binder.WithSolver(fit.NewSolver(c.Solver)),
		binder.WithWorkers(*c.Compile.Workers),
	}
}

// WriteDefault writes the embedded default config.yaml to path.
// With force, an existing file is backed up and replaced.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultConfigYAML, force, "configuration")
	if err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}

// GetPath returns the path of the user configuration file.
func GetPath() string {
	return api.GetConfigPath("config.yaml")
}
