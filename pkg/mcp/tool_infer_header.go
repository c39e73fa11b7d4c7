package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openltablets/dtinfer/pkg/binder"
	"github.com/openltablets/dtinfer/pkg/diag"
	"github.com/openltablets/dtinfer/pkg/grid"
	"github.com/openltablets/dtinfer/pkg/project"
)

// InferHeaderParams are the arguments of the infer_header tool.
type InferHeaderParams struct {
	Project string `json:"project"`
	Table   string `json:"table"`
}

// BlockSummary describes one block of an inferred header.
type BlockSummary struct {
	Label     string   `json:"label"`
	Role      string   `json:"role"`
	Statement string   `json:"statement"`
	Params    []string `json:"params"`
	Column    string   `json:"column"`
	Width     int      `json:"width"`
}

// InferHeaderResult is the structured output of the infer_header tool.
type InferHeaderResult struct {
	Error       string         `json:"error,omitempty"`
	Message     string         `json:"message"`
	Table       string         `json:"table"`
	Method      string         `json:"method,omitempty"`
	Header      [][]string     `json:"header,omitempty"`
	Blocks      []BlockSummary `json:"blocks,omitempty"`
	Ambiguous   []string       `json:"ambiguous,omitempty"`
	Diagnostics []string       `json:"diagnostics,omitempty"`
	Fallback    bool           `json:"fallback,omitempty"`
}

func (s *Server) handleInferHeader(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[InferHeaderParams],
) (*mcp.CallToolResultFor[InferHeaderResult], error) {
	result := InferHeaderResult{Table: params.Arguments.Table}
	sink := diag.NewCollector()

	opts := append([]project.Opt{project.WithSessionOpts(binder.WithSink(sink))}, s.opts...)

	p, err := s.load(s.projectPath(params.Arguments.Project), opts...)
	if err != nil {
		result.Error = err.Error()
		result.Message = "INVALID PROJECT: the project could not be loaded. Fix the error and retry."

		return toolResult(result, result.Message, true), nil
	}

	results, err := p.Bind(ctx, params.Arguments.Table)

	for _, ev := range sink.Events() {
		result.Diagnostics = append(result.Diagnostics, ev.String())
	}

	if err != nil {
		result.Error = err.Error()
		result.Message = fmt.Sprintf("INFERENCE FAILED (%s): %v", diag.Classify(err), err)

		return toolResult(result, result.Message, true), nil
	}

	summarize(&result, results[0])
	result.Message = fmt.Sprintf("Inferred %d header blocks for table %q.", len(result.Blocks), result.Table)

	return toolResult(result, result.Message+"\n\n"+renderHeader(result.Header), false), nil
}

func summarize(out *InferHeaderResult, res *binder.Result) {
	out.Method = res.Source.Method.String()
	out.Header = grid.Rows(res.Header)
	out.Fallback = res.Solution.Fallback

	for _, r := range res.Solution.Ambiguous {
		out.Ambiguous = append(out.Ambiguous, r.String())
	}

	for _, b := range res.Blocks {
		ps := make([]string, len(b.Params))
		for i, p := range b.Params {
			ps[i] = p.String()
		}

		out.Blocks = append(out.Blocks, BlockSummary{
			Label:     b.Label,
			Role:      b.Role.String(),
			Statement: b.Statement,
			Params:    ps,
			Column:    grid.ColumnName(b.Column),
			Width:     b.Width,
		})
	}
}

func renderHeader(rows [][]string) string {
	b := &strings.Builder{}

	for _, row := range rows {
		b.WriteString("| ")
		b.WriteString(strings.Join(row, " | "))
		b.WriteString(" |\n")
	}

	return b.String()
}
