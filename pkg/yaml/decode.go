// Package yaml wraps [github.com/goccy/go-yaml] with source-annotated errors
// and JSON schema validation of decoded documents.
package yaml

import (
	"errors"
	"io"

	"github.com/goccy/go-yaml"
)

// Decoder reads YAML documents.
type Decoder struct {
	d *yaml.Decoder
}

// DecoderOpt configures a [Decoder].
type DecoderOpt func(*decoderOptions)

type decoderOptions struct {
	strict bool
}

// WithStrict rejects mapping keys that do not correspond to a field of the
// target struct.
func WithStrict(strict bool) DecoderOpt {
	return func(o *decoderOptions) {
		o.strict = strict
	}
}

// NewDecoder creates a [Decoder] reading from r.
func NewDecoder(r io.Reader, opts ...DecoderOpt) *Decoder {
	options := &decoderOptions{}
	for _, opt := range opts {
		opt(options)
	}

	yamlOpts := []yaml.DecodeOption{yaml.AllowDuplicateMapKey()}
	if options.strict {
		yamlOpts = append(yamlOpts, yaml.DisallowUnknownField())
	}

	return &Decoder{d: yaml.NewDecoder(r, yamlOpts...)}
}

// Decode decodes the next document into v. Syntax and type errors are
// returned as an [*Error] carrying the offending token.
func (d *Decoder) Decode(v any) error {
	err := d.d.Decode(v)
	if err == nil {
		return nil
	}

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return &Error{
			Err:   errors.New(yamlErr.GetMessage()),
			Token: yamlErr.GetToken(),
		}
	}

	//nolint:wrapcheck // Return the original error if it's not a [yaml.Error].
	return err
}
