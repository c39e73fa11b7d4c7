// Package diag reports structural errors and ambiguity warnings raised
// while inferring decision table headers.
//
// Fatal errors are collected rather than thrown, so that a single pass can
// report every failed table. A [Sink] receives each [Event]; the
// [Collector] keeps them for later inspection.
package diag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/openltablets/dtinfer/pkg/grid"
)

// Severity of an [Event].
type Severity int

const (
	SeverityWarning Severity = iota + 1
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}

	return "unknown"
}

// Code classifies an [Event].
type Code string

const (
	CodeUnknown             Code = "unknown"
	CodeInsufficientColumns Code = "insufficient-columns"
	CodeNoReturn            Code = "no-return"
	CodeNoFit               Code = "no-fit"
	CodeAmbiguousMatch      Code = "ambiguous-match"
	CodeAmbiguousFit        Code = "ambiguous-fit"
	CodeUnknownType         Code = "unknown-type"
	CodeInvalidDefinition   Code = "invalid-definition"
	CodeInvalidExpression   Code = "invalid-expression"
	CodeUnboundParameter    Code = "unbound-parameter"
	CodeSuggestion          Code = "suggestion"
	CodeCancel              Code = "cancel"
)

// Location identifies a table and, optionally, a cell within it.
// A negative Column or Row means the location covers the whole table
// or the whole column.
type Location struct {
	Table  string
	Title  string
	Column int
	Row    int
}

// TableLocation returns a [Location] covering the whole table.
func TableLocation(table string) Location {
	return Location{Table: table, Column: -1, Row: -1}
}

// At returns a copy of l pointing at the given cell.
func (l Location) At(col, row int) Location {
	l.Column = col
	l.Row = row

	return l
}

// WithTitle returns a copy of l carrying a column title.
func (l Location) WithTitle(title string) Location {
	l.Title = title

	return l
}

// Cell returns the A1-style name of the cell, or "" when the location
// does not point at a single cell.
func (l Location) Cell() string {
	if l.Column < 0 || l.Row < 0 {
		return ""
	}

	return grid.CellName(l.Column, l.Row)
}

func (l Location) String() string {
	parts := []string{}
	if l.Table != "" {
		parts = append(parts, "table "+l.Table)
	}

	switch {
	case l.Cell() != "":
		parts = append(parts, "cell "+l.Cell())
	case l.Column >= 0:
		parts = append(parts, "column "+grid.ColumnName(l.Column))
	}

	if l.Title != "" {
		parts = append(parts, fmt.Sprintf("title %q", l.Title))
	}

	return strings.Join(parts, ", ")
}

// Event is a single diagnostic.
type Event struct {
	Err      error
	Code     Code
	Message  string
	Location Location
	Severity Severity
}

func (e Event) String() string {
	loc := e.Location.String()
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Severity, e.Message)
	}

	return fmt.Sprintf("%s: %s: %s", e.Severity, loc, e.Message)
}

// Error is a structural error with a source location.
type Error struct {
	Err      error
	Code     Code
	Location Location
}

// Errorf creates an [*Error] wrapping err. The message is formatted with
// fmt.Errorf semantics, so %w verbs are kept in the chain.
func Errorf(code Code, loc Location, format string, args ...any) *Error {
	return &Error{Code: code, Location: loc, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	loc := e.Location.String()
	if loc == "" {
		return e.Err.Error()
	}

	return loc + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Coder is implemented by errors that carry their own [Code].
type Coder interface {
	DiagCode() Code
}

// Classify returns the [Code] for an error, relying only on typed errors
// and sentinels in its chain.
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}

	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code
	}

	var coder Coder
	if errors.As(err, &coder) {
		return coder.DiagCode()
	}

	return CodeUnknown
}

// Sink receives diagnostics. Implementations must be safe for concurrent
// use, since tables may be bound in parallel.
type Sink interface {
	Report(ev Event)
}

// Report sends a structural error to the sink and returns it unchanged.
func Report(s Sink, err error) error {
	if s == nil || err == nil {
		return err
	}

	ev := Event{Severity: SeverityError, Code: Classify(err), Message: err.Error(), Err: err}

	var derr *Error
	if errors.As(err, &derr) {
		ev.Location = derr.Location
		ev.Message = derr.Err.Error()
	}

	s.Report(ev)

	return err
}

// Warn sends a warning to the sink.
func Warn(s Sink, code Code, loc Location, format string, args ...any) {
	if s == nil {
		return
	}

	s.Report(Event{
		Severity: SeverityWarning,
		Code:     code,
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Collector is a [Sink] that stores events in report order.
type Collector struct {
	events []Event
	mu     sync.Mutex
}

// NewCollector creates an empty [Collector].
func NewCollector() *Collector {
	return &Collector{}
}

// Report implements [Sink].
func (c *Collector) Report(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, ev)
}

// Events returns every event reported so far.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.events)
}

// Warnings returns the warning events.
func (c *Collector) Warnings() []Event {
	return c.filter(SeverityWarning)
}

// Errors returns the error events.
func (c *Collector) Errors() []Event {
	return c.filter(SeverityError)
}

// HasErrors reports whether any error event was reported.
func (c *Collector) HasErrors() bool {
	return len(c.Errors()) > 0
}

// Err joins all reported errors, or returns nil when there are none.
func (c *Collector) Err() error {
	var errs []error
	for _, ev := range c.Errors() {
		if ev.Err != nil {
			errs = append(errs, ev.Err)
		} else {
			errs = append(errs, errors.New(ev.String()))
		}
	}

	return errors.Join(errs...)
}

func (c *Collector) filter(sev Severity) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Event
	for _, ev := range c.events {
		if ev.Severity == sev {
			out = append(out, ev)
		}
	}

	return out
}

// LogSink is a [Sink] that writes events to a [*slog.Logger].
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a [LogSink]. A nil logger uses [slog.Default].
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogSink{logger: logger}
}

// Report implements [Sink].
func (l *LogSink) Report(ev Event) {
	level := slog.LevelWarn
	if ev.Severity == SeverityError {
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.String("code", string(ev.Code)),
	}
	if ev.Location.Table != "" {
		attrs = append(attrs, slog.String("table", ev.Location.Table))
	}
	if cell := ev.Location.Cell(); cell != "" {
		attrs = append(attrs, slog.String("cell", cell))
	}
	if ev.Location.Title != "" {
		attrs = append(attrs, slog.String("title", ev.Location.Title))
	}

	l.logger.LogAttrs(context.Background(), level, ev.Message, attrs...)
}

type multi []Sink

// Multi returns a [Sink] that forwards every event to each non-nil sink.
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}

	return m
}

func (m multi) Report(ev Event) {
	for _, s := range m {
		s.Report(ev)
	}
}
