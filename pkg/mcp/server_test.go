package mcp_test

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/openltablets/dtinfer/pkg/mcp"
)

const projectYAML = `apiVersion: dtinfer.openl-tablets.org/v1beta1
kind: Project
name: rates
types:
  - name: Driver
    members:
      - name: age
        type: int
tables:
  - name: Premiums
    method: double premium(Driver driver)
    rows:
      - [Driver Age, Premium]
      - [18-25, 120]
  - name: Broken
    method: double broken(int age, String name)
    rows:
      - [Premium]
      - [10]
`

func connect(t *testing.T, opts ...mcp.ServerOpt) *sdk.ClientSession {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "dtinfer.yaml"), []byte(projectYAML), 0o600))

	s := mcp.NewServer(append([]mcp.ServerOpt{mcp.WithRoot(root)}, opts...)...)

	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	serverSession, err := s.Server().Connect(t.Context(), serverTransport)
	require.NoError(t, err)

	client := sdk.NewClient(&sdk.Implementation{Name: "client"}, nil)
	clientSession, err := client.Connect(t.Context(), clientTransport)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, clientSession.Close())
		assert.NoError(t, serverSession.Wait())
	})

	return clientSession
}

func TestListTables(t *testing.T) {
	t.Parallel()

	session := connect(t)

	tcs := map[string]struct {
		project     string
		wantError   bool
		wantMessage string
	}{
		"directory": {project: ".", wantMessage: `Found 2 tables in project "rates".`},
		"file":      {project: "dtinfer.yaml", wantMessage: `Found 2 tables in project "rates".`},
		"missing":   {project: "missing.yaml", wantError: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r, err := session.CallTool(t.Context(), &sdk.CallToolParams{
				Name:      "list_tables",
				Arguments: map[string]any{"project": tc.project},
			})
			require.NoError(t, err)

			assert.Equal(t, tc.wantError, r.IsError)

			out, ok := r.StructuredContent.(map[string]any)
			require.True(t, ok)

			if tc.wantError {
				assert.NotEmpty(t, out["error"])

				return
			}

			assert.Equal(t, tc.wantMessage, out["message"])

			tables, ok := out["tables"].([]any)
			require.True(t, ok)
			require.Len(t, tables, 2)
			assert.Equal(t, map[string]any{
				"name":    "Premiums",
				"method":  "double premium(Driver driver)",
				"mode":    "smart",
				"rows":    float64(2),
				"columns": float64(2),
			}, tables[0])
		})
	}
}

func TestInferHeader(t *testing.T) {
	t.Parallel()

	session := connect(t)

	tcs := map[string]struct {
		table      string
		wantError  bool
		wantHeader []any
		wantDiag   string
	}{
		"premiums": {
			table: "Premiums",
			wantHeader: []any{
				[]any{"C1", "RET1"},
				[]any{"driver.age", "_r1"},
				[]any{"IntRange _c1", "double _r1"},
			},
		},
		"unbound parameter": {
			table:     "Broken",
			wantError: true,
			wantDiag:  "no column binds parameter",
		},
		"unknown table": {
			table:     "Discounts",
			wantError: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r, err := session.CallTool(t.Context(), &sdk.CallToolParams{
				Name:      "infer_header",
				Arguments: map[string]any{"project": ".", "table": tc.table},
			})
			require.NoError(t, err)
			assert.Equal(t, tc.wantError, r.IsError)

			out, ok := r.StructuredContent.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tc.table, out["table"])

			if tc.wantDiag != "" {
				diags, ok := out["diagnostics"].([]any)
				require.True(t, ok)
				assert.True(t, slices.ContainsFunc(diags, func(d any) bool {
					s, ok := d.(string)

					return ok && strings.Contains(s, tc.wantDiag)
				}), diags)
			}

			if tc.wantError {
				assert.NotEmpty(t, out["error"])

				return
			}

			assert.Equal(t, tc.wantHeader, out["header"])

			blocks, ok := out["blocks"].([]any)
			require.True(t, ok)
			require.Len(t, blocks, 2)
			assert.Equal(t, "condition", blocks[0].(map[string]any)["role"])
		})
	}
}

func TestToolTracing(t *testing.T) {
	t.Parallel()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	session := connect(t, mcp.WithTracer(tp.Tracer("test")))

	_, err := session.CallTool(t.Context(), &sdk.CallToolParams{
		Name:      "list_tables",
		Arguments: map[string]any{"project": "."},
	})
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "list_tables", spans[0].Name())
}
