// Package config loads versioned YAML documents: the user Configuration
// and dtinfer projects.
package config

import (
	"bytes"
	"fmt"

	"github.com/openltablets/dtinfer/api"
	"github.com/openltablets/dtinfer/api/v1beta1"
	"github.com/openltablets/dtinfer/pkg/yaml"
)

// Validator validates decoded document data against a schema.
type Validator interface {
	Validate(data any) error
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*loaderOptions)

type loaderOptions struct {
	validator Validator
	colored   bool
}

// WithValidator replaces the default validator. A nil validator disables
// schema validation.
func WithValidator(v Validator) LoaderOpt {
	return func(o *loaderOptions) {
		o.validator = v
	}
}

// WithColor enables colored source annotations in errors.
func WithColor(colored bool) LoaderOpt {
	return func(o *loaderOptions) {
		o.colored = colored
	}
}

// Loader decodes and validates documents of type T. Errors carry the
// offending source lines.
type Loader[T v1beta1.Object] struct {
	validator Validator
	newFunc   func() T
	yamlError *yaml.ErrorWrapper
	data      []byte
}

// NewLoaderFromBytes creates a [Loader] for data. newFunc constructs an
// empty document, e.g. configs.New.
func NewLoaderFromBytes[T v1beta1.Object](
	data []byte,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) *Loader[T] {
	options := &loaderOptions{validator: defaultValidator}
	for _, opt := range opts {
		opt(options)
	}

	return &Loader[T]{
		data:      data,
		newFunc:   newFunc,
		validator: options.validator,
		yamlError: yaml.NewErrorWrapper(
			yaml.WithSource(data),
			yaml.WithColor(options.colored),
		),
	}
}

// NewLoaderFromFile creates a [Loader] for the file at path.
func NewLoaderFromFile[T v1beta1.Object](
	path string,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) (*Loader[T], error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already descriptive.
	}

	return NewLoaderFromBytes(data, newFunc, defaultValidator, opts...), nil
}

// Validate checks the raw document against the schema.
func (l *Loader[T]) Validate() error {
	var doc any

	if err := yaml.NewDecoder(bytes.NewReader(l.data)).Decode(&doc); err != nil {
		return l.yamlError.Wrap(err)
	}

	if l.validator == nil {
		return nil
	}

	return l.yamlError.Wrap(l.validator.Validate(doc))
}

// Load decodes the document and fills in defaults.
//
//nolint:ireturn // Generic type parameter.
func (l *Loader[T]) Load() (T, error) {
	doc := l.newFunc()

	if err := yaml.NewDecoder(bytes.NewReader(l.data), yaml.WithStrict(true)).Decode(doc); err != nil {
		var zero T

		return zero, l.yamlError.Wrap(err)
	}

	doc.EnsureDefaults()

	return doc, nil
}

// ValidateAndLoad runs [Loader.Validate] then [Loader.Load].
//
//nolint:ireturn // Generic type parameter.
func (l *Loader[T]) ValidateAndLoad() (T, error) {
	if err := l.Validate(); err != nil {
		var zero T

		return zero, fmt.Errorf("validate: %w", err)
	}

	return l.Load()
}
