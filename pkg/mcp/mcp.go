// Package mcp serves header inference over the Model Context Protocol.
package mcp

import "github.com/modelcontextprotocol/go-sdk/jsonschema"

const (
	name         = "dtinfer"
	instructions = `MCP Server 'dtinfer' infers the headers of OpenL Tablets decision tables.

A project is a dtinfer.yaml file declaring bean types, constants, reusable column definitions and decision tables whose header rows are missing.
Each table has a method signature and rule rows headed by free-form column titles. Inference decides, per column, which parameter or result member it binds to, and writes the virtual header: block labels (C1, A1, HC1, KEY1, RET1), statements and typed parameter declarations.

Workflow:
1. Call 'list_tables' with the project path (a dtinfer.yaml file or a directory containing one).
2. Call 'infer_header' with the same project path and an EXACT table name from the 'list_tables' output.
3. Read the diagnostics. Suggestions name the closest parameter member for titles that matched nothing; renaming the title usually fixes the table.
`
)

func projectProperty() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "Path to a dtinfer.yaml project file, or a directory containing one. Relative paths resolve against the server's root.",
	}
}
