package fit

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by [Config.Validate].
var ErrInvalidConfig = errors.New("invalid solver config")

// Config bounds the enumeration of fits.
type Config struct {
	// MaxFits stops enumeration after this many fits.
	MaxFits *int `json:"maxFits,omitempty" jsonschema:"title=Maximum Fits,minimum=1" yaml:"maxFits,omitempty"`
	// MaxDepth caps the number of headers in a fit.
	MaxDepth *int `json:"maxDepth,omitempty" jsonschema:"title=Maximum Depth,minimum=1" yaml:"maxDepth,omitempty"`
}

// NewConfig creates a [Config] with default values.
func NewConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults sets unset fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.MaxFits == nil {
		v := 10000
		c.MaxFits = &v
	}

	if c.MaxDepth == nil {
		v := 256
		c.MaxDepth = &v
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.MaxFits != nil && *c.MaxFits < 1 {
		return fmt.Errorf("%w: maxFits must be at least 1", ErrInvalidConfig)
	}

	if c.MaxDepth != nil && *c.MaxDepth < 1 {
		return fmt.Errorf("%w: maxDepth must be at least 1", ErrInvalidConfig)
	}

	return nil
}
