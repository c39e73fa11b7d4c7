package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListTablesParams are the arguments of the list_tables tool.
type ListTablesParams struct {
	Project string `json:"project"`
}

// TableSummary describes one table of a project.
type TableSummary struct {
	Name       string `json:"name"`
	Method     string `json:"method"`
	Mode       string `json:"mode"`
	Horizontal int    `json:"horizontal,omitempty"`
	Rows       int    `json:"rows"`
	Columns    int    `json:"columns"`
}

// ListTablesResult is the structured output of the list_tables tool.
type ListTablesResult struct {
	Error   string         `json:"error,omitempty"`
	Message string         `json:"message"`
	Project string         `json:"project,omitempty"`
	Tables  []TableSummary `json:"tables"`
}

func (s *Server) handleListTables(
	_ context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[ListTablesParams],
) (*mcp.CallToolResultFor[ListTablesResult], error) {
	result := ListTablesResult{Tables: []TableSummary{}}

	p, err := s.load(s.projectPath(params.Arguments.Project), s.opts...)
	if err != nil {
		result.Error = err.Error()
		result.Message = "INVALID PROJECT: the project could not be loaded. Fix the error and retry."

		return toolResult(result, result.Message, true), nil
	}

	result.Project = p.Name

	for _, t := range p.Tables {
		result.Tables = append(result.Tables, TableSummary{
			Name:       t.Name,
			Method:     t.Method.String(),
			Mode:       string(t.Mode),
			Horizontal: t.Horizontal,
			Rows:       t.Grid.Height(),
			Columns:    t.Grid.Width(),
		})
	}

	result.Message = fmt.Sprintf("Found %d tables in project %q.", len(result.Tables), p.Name)

	return toolResult(result, result.Message, false), nil
}

func toolResult[Out any](out Out, text string, isError bool) *mcp.CallToolResultFor[Out] {
	return &mcp.CallToolResultFor[Out]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		StructuredContent: out,
		IsError:           isError,
	}
}
