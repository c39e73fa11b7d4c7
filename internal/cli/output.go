package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/openltablets/dtinfer/api"
	"github.com/openltablets/dtinfer/pkg/binder"
	"github.com/openltablets/dtinfer/pkg/diag"
	"github.com/openltablets/dtinfer/pkg/grid"
	"github.com/openltablets/dtinfer/pkg/materialize"
)

// Report is the machine-readable output of the infer command.
type Report struct {
	Tables      []TableReport `json:"tables"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
}

// TableReport describes one bound table.
type TableReport struct {
	Name      string        `json:"name"`
	Method    string        `json:"method"`
	Header    [][]string    `json:"header"`
	Blocks    []BlockReport `json:"blocks"`
	Hints     []HintReport  `json:"hints,omitempty"`
	Ambiguous []string      `json:"ambiguous,omitempty"`
	Fits      int           `json:"fits"`
	Fallback  bool          `json:"fallback,omitempty"`
	Truncated bool          `json:"truncated,omitempty"`
}

// BlockReport describes one header block.
type BlockReport struct {
	Label     string   `json:"label"`
	Role      string   `json:"role"`
	Statement string   `json:"statement"`
	Columns   string   `json:"columns"`
	Params    []string `json:"params"`
}

// HintReport is hover text for a cell.
type HintReport struct {
	Cell string `json:"cell"`
	Text string `json:"text"`
}

// Diagnostic is a reported event.
type Diagnostic struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
}

func newReport(results []*binder.Result, events []diag.Event) *Report {
	rep := &Report{Tables: make([]TableReport, 0, len(results))}

	for _, r := range results {
		tr := TableReport{
			Name:      r.Source.Name,
			Method:    r.Source.Method.String(),
			Header:    grid.Rows(r.Header),
			Fits:      r.Solution.Enumerated,
			Fallback:  r.Solution.Fallback,
			Truncated: r.Solution.Truncated,
		}

		for _, a := range r.Solution.Ambiguous {
			tr.Ambiguous = append(tr.Ambiguous, a.String())
		}

		for _, b := range r.Blocks {
			tr.Blocks = append(tr.Blocks, blockReport(b))
		}

		for _, h := range r.Hints {
			tr.Hints = append(tr.Hints, HintReport{Cell: h.Cell, Text: h.Text})
		}

		rep.Tables = append(rep.Tables, tr)
	}

	for _, ev := range events {
		rep.Diagnostics = append(rep.Diagnostics, Diagnostic{
			Severity: ev.Severity.String(),
			Code:     string(ev.Code),
			Location: ev.Location.String(),
			Message:  ev.Message,
		})
	}

	return rep
}

func blockReport(b materialize.Block) BlockReport {
	params := make([]string, len(b.Params))
	for i, p := range b.Params {
		params[i] = p.String()
	}

	cols := grid.ColumnName(b.Column)
	if b.Width > 1 {
		cols += ":" + grid.ColumnName(b.End()-1)
	}

	return BlockReport{
		Label:     b.Label,
		Role:      b.Role.String(),
		Statement: b.Statement,
		Columns:   cols,
		Params:    params,
	}
}

func writeYAML(w io.Writer, rep *Report) error {
	b, err := api.MarshalYAML(rep)
	if err != nil {
		return err //nolint:wrapcheck // Already descriptive.
	}

	_, err = w.Write(b)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

func writeJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

var titleStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)

// writeText renders each table with its virtual header as a bordered
// grid. Header rows are separated from the rule rows.
func writeText(w io.Writer, results []*binder.Result) error {
	var b strings.Builder

	for _, r := range results {
		rows := grid.Rows(r.Table)

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderRow(false).
			Rows(rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row < materialize.Rows {
					return lipgloss.NewStyle().Bold(true).Padding(0, 1)
				}

				return lipgloss.NewStyle().Padding(0, 1)
			})

		b.WriteString(titleStyle.Render(r.Source.Method.String() + "  [" + r.Source.Name + "]"))
		b.WriteString("\n")
		b.WriteString(t.String())
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}
