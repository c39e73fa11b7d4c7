package yaml

import (
	"io"

	"github.com/goccy/go-yaml"
)

// Encoder writes YAML documents with two-space indentation. Multiline
// strings, such as cell hints, are written as literal blocks.
type Encoder struct {
	e *yaml.Encoder
}

// NewEncoder creates an [Encoder] writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		e: yaml.NewEncoder(w,
			yaml.Indent(2),
			yaml.IndentSequence(true),
			yaml.UseLiteralStyleIfMultiline(true),
		),
	}
}

// Encode writes v as a YAML document.
func (e *Encoder) Encode(v any) error {
	return e.e.Encode(v) //nolint:wrapcheck // Return the original error.
}

// Close flushes the encoder.
func (e *Encoder) Close() error {
	return e.e.Close() //nolint:wrapcheck // Return the original error.
}
