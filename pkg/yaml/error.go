package yaml

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/printer"
	"github.com/goccy/go-yaml/token"
)

// NewPathBuilder returns a builder for YAML paths.
func NewPathBuilder() *yaml.PathBuilder {
	return &yaml.PathBuilder{}
}

// ErrorWrapper applies a fixed set of options to every [*Error] it wraps.
type ErrorWrapper struct {
	Opts []ErrorOpt
}

// NewErrorWrapper creates a new [ErrorWrapper].
func NewErrorWrapper(opts ...ErrorOpt) *ErrorWrapper {
	return &ErrorWrapper{
		Opts: opts,
	}
}

// Wrap wraps an error with additional context for [Error]s.
// If the error isn't an [Error], it returns the original error unmodified.
func (ew *ErrorWrapper) Wrap(err error, opts ...ErrorOpt) error {
	if err == nil {
		return nil
	}

	var yamlErr *Error
	if errors.As(err, &yamlErr) {
		for _, opt := range ew.Opts {
			opt(yamlErr)
		}

		for _, opt := range opts {
			opt(yamlErr)
		}

		return yamlErr
	}

	return err
}

// Error represents a YAML error. It includes the original error, and the
// [*token.Token] or [*yaml.Path] where the error occurred.
type Error struct {
	Err    error
	Path   *yaml.Path
	Token  *token.Token
	Source []byte
	// Colored enables ANSI colors in the annotated source.
	Colored bool
}

// NewError creates a new [*Error].
func NewError(err error, opts ...ErrorOpt) *Error {
	e := &Error{Err: err}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ErrorOpt configures an [*Error].
type ErrorOpt func(e *Error)

// WithPath sets the path of the offending node.
func WithPath(path *yaml.Path) ErrorOpt {
	return func(e *Error) {
		e.Path = path
	}
}

// WithToken sets the offending token.
func WithToken(tk *token.Token) ErrorOpt {
	return func(e *Error) {
		e.Token = tk
	}
}

// WithSource sets the document the error refers to.
func WithSource(source []byte) ErrorOpt {
	return func(e *Error) {
		e.Source = source
	}
}

// WithColor enables or disables colored source annotations.
func WithColor(colored bool) ErrorOpt {
	return func(e *Error) {
		e.Colored = colored
	}
}

func (e Error) Error() string {
	if e.Err == nil {
		return ""
	}

	if e.Path == nil && e.Token == nil {
		return e.Err.Error()
	}

	errMsg, srcErr := e.annotateSource()
	if srcErr != nil {
		if e.Path == nil {
			return e.Err.Error()
		}

		slog.Debug("annotate source with error",
			slog.String("path", e.Path.String()),
			slog.Any("error", srcErr),
		)

		return fmt.Sprintf("error at %s: %v", e.Path.String(), e.Err)
	}

	return errMsg
}

func (e Error) Unwrap() error {
	return e.Err
}

func (e Error) annotateSource() (string, error) {
	tk := e.Token
	if tk == nil {
		if len(e.Source) == 0 {
			return "", errors.New("no source")
		}

		var err error

		tk, err = getTokenFromPath(e.Source, e.Path)
		if err != nil {
			return "", fmt.Errorf("get token from path: %w", err)
		}
	}

	var pp printer.Printer

	src := pp.PrintErrorToken(tk, e.Colored)
	msg := fmt.Sprintf("[%d:%d] %v:", tk.Position.Line, tk.Position.Column, e.Err)

	return msg + "\n" + lipgloss.NewStyle().PaddingTop(1).Render(src), nil
}

func getTokenFromPath(source []byte, path *yaml.Path) (*token.Token, error) {
	file, err := parser.ParseBytes(source, 0)
	if err != nil {
		return nil, fmt.Errorf("parse source bytes into ast.File: %w", err)
	}

	node, err := path.FilterFile(file)
	if err != nil {
		return nil, fmt.Errorf("filter from ast.File by YAMLPath: %w", err)
	}

	// FilterFile returns the value node; point at the key when there is one.
	if keyToken := findKeyToken(file, path); keyToken != nil {
		return keyToken, nil
	}

	return node.GetToken(), nil
}

func findKeyToken(file *ast.File, path *yaml.Path) *token.Token {
	pathStr := path.String()

	lastDot := strings.LastIndex(pathStr, ".")
	if lastDot == -1 || lastDot <= strings.LastIndex(pathStr, "[") {
		return nil
	}

	parentPath, err := yaml.PathString(pathStr[:lastDot])
	if err != nil {
		return nil
	}

	parentNode, err := parentPath.FilterFile(file)
	if err != nil {
		return nil
	}

	mapping, ok := parentNode.(*ast.MappingNode)
	if !ok {
		return nil
	}

	for _, val := range mapping.Values {
		if val.Key.String() == pathStr[lastDot+1:] {
			return val.Key.GetToken()
		}
	}

	return nil
}
