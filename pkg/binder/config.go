package binder

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by [Config.Validate].
var ErrInvalidConfig = errors.New("invalid compile config")

// Config controls a compilation pass.
type Config struct {
	// Workers bounds the number of tables bound concurrently. Zero uses
	// GOMAXPROCS.
	Workers *int `json:"workers,omitempty" jsonschema:"title=Workers,minimum=0" yaml:"workers,omitempty"`
}

// NewConfig creates a [Config] with default values.
func NewConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults sets unset fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.Workers == nil {
		v := 0
		c.Workers = &v
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}

	return nil
}
