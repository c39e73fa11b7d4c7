package token

import (
	"errors"
	"fmt"
	"slices"
)

// Metric selects the word similarity function.
type Metric string

const (
	// MetricLevenshtein compares words by Levenshtein ratio.
	MetricLevenshtein Metric = "levenshtein"
	// MetricJaroWinkler compares words by Jaro-Winkler similarity.
	MetricJaroWinkler Metric = "jaroWinkler"
)

var (
	// ErrInvalidConfig is returned by [Config.Validate].
	ErrInvalidConfig = errors.New("invalid matching config")

	// AllMetrics lists the supported metrics.
	AllMetrics = []string{string(MetricLevenshtein), string(MetricJaroWinkler)}
)

// Config controls fuzzy title matching.
type Config struct {
	// MinScore is the lowest Dice score a match may have.
	MinScore *float64 `json:"minScore,omitempty" jsonschema:"title=Minimum Score,minimum=0,maximum=1" yaml:"minScore,omitempty"`
	// WordSimilarity is the lowest similarity at which two words are
	// considered the same word.
	WordSimilarity *float64 `json:"wordSimilarity,omitempty" jsonschema:"title=Word Similarity,minimum=0,maximum=1" yaml:"wordSimilarity,omitempty"`
	// WordMetric is the word similarity function.
	WordMetric *string `json:"wordMetric,omitempty" jsonschema:"title=Word Metric,enum=levenshtein,enum=jaroWinkler" yaml:"wordMetric,omitempty"`
	// MaxDepth bounds the length of member chains in vocabularies.
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
	if c.MinScore == nil {
		v := 0.5
		c.MinScore = &v
	}

	if c.WordSimilarity == nil {
		v := 0.8
		c.WordSimilarity = &v
	}

	if c.WordMetric == nil {
		v := string(MetricLevenshtein)
		c.WordMetric = &v
	}

	if c.MaxDepth == nil {
		v := 3
		c.MaxDepth = &v
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.MinScore != nil && (*c.MinScore < 0 || *c.MinScore > 1) {
		return fmt.Errorf("%w: minScore %v is outside [0, 1]", ErrInvalidConfig, *c.MinScore)
	}

	if c.WordSimilarity != nil && (*c.WordSimilarity <= 0 || *c.WordSimilarity > 1) {
		return fmt.Errorf("%w: wordSimilarity %v is outside (0, 1]", ErrInvalidConfig, *c.WordSimilarity)
	}

	if c.WordMetric != nil && !slices.Contains(AllMetrics, *c.WordMetric) {
		return fmt.Errorf("%w: unknown wordMetric %q", ErrInvalidConfig, *c.WordMetric)
	}

	if c.MaxDepth != nil && *c.MaxDepth < 1 {
		return fmt.Errorf("%w: maxDepth must be at least 1", ErrInvalidConfig)
	}

	return nil
}

// Depth returns the configured maximum chain depth.
func (c *Config) Depth() int {
	if c == nil || c.MaxDepth == nil {
		return 3
	}

	return *c.MaxDepth
}
