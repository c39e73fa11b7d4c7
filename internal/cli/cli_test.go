package cli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/fang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openltablets/dtinfer/internal/cli"
	"github.com/openltablets/dtinfer/pkg/diag"
	"github.com/openltablets/dtinfer/pkg/grid"
	"github.com/openltablets/dtinfer/pkg/project"
)

const configYAML = `apiVersion: dtinfer.openl-tablets.org/v1beta1
kind: Configuration
`

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

func writeProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dtinfer.yaml"), []byte(projectYAML), 0o600))

	return dir
}

func writeConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--config", writeConfig(t), "--log-level", "error"))

	err := cmd.ExecuteContext(t.Context())

	return out.String(), err
}

func TestInferJSON(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "infer", writeProject(t), "Premiums", "--output", "json")
	require.NoError(t, err)

	var rep cli.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Tables, 1)

	tbl := rep.Tables[0]
	assert.Equal(t, "Premiums", tbl.Name)
	assert.Equal(t, "double premium(Driver driver)", tbl.Method)
	assert.Equal(t, [][]string{
		{"C1", "RET1"},
		{"driver.age", "_r1"},
		{"IntRange _c1", "double _r1"},
	}, tbl.Header)
	require.Len(t, tbl.Blocks, 2)
	assert.Equal(t, "A", tbl.Blocks[0].Columns)
	assert.Equal(t, []string{"IntRange _c1"}, tbl.Blocks[0].Params)
}

func TestMissingConfig(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"infer", writeProject(t), "--config", filepath.Join(t.TempDir(), "none.yaml")})

	require.ErrorContains(t, cmd.ExecuteContext(t.Context()), "read configuration")
}

func TestInferOutputs(t *testing.T) {
	t.Parallel()

	dir := writeProject(t)

	tcs := map[string]struct {
		output       string
		wantContains []string
	}{
		"text": {output: "text", wantContains: []string{"double premium(Driver driver)", "driver.age", "18-25"}},
		"yaml": {output: "yaml", wantContains: []string{"tables:", "name: Premiums", "- driver.age"}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, err := execute(t, "infer", dir, "Premiums", "--output", tc.output)
			require.NoError(t, err)

			for _, want := range tc.wantContains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestInferErrors(t *testing.T) {
	t.Parallel()

	dir := writeProject(t)

	tcs := map[string]struct {
		args    []string
		wantErr string
	}{
		"unbound parameter": {args: []string{"infer", dir, "Broken"}, wantErr: "Broken: "},
		"unknown table":     {args: []string{"infer", dir, "Discounts"}, wantErr: "table not found"},
		"unknown output":    {args: []string{"infer", dir, "--output", "csv"}, wantErr: "unknown output format"},
		"missing project":   {args: []string{"infer", filepath.Join(dir, "missing.yaml")}, wantErr: "stat project"},
		"no args":           {args: []string{"infer"}, wantErr: "requires at least 1 arg"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := execute(t, tc.args...)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestInferPartialFailure(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "infer", writeProject(t), "--output", "json")
	require.Error(t, err)

	var rep cli.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Tables, 1)
	assert.Equal(t, "Premiums", rep.Tables[0].Name)
	assert.NotEmpty(t, rep.Diagnostics)
}

func TestInferWorkbook(t *testing.T) {
	t.Parallel()

	dir := writeProject(t)
	path := filepath.Join(t.TempDir(), "premiums.xlsx")

	_, err := execute(t, "infer", dir, "Premiums", "--out", path)
	require.NoError(t, err)

	g, err := grid.ReadXLSX(path, "Premiums", "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"C1", "RET1"},
		{"driver.age", "_r1"},
		{"IntRange _c1", "double _r1"},
		{"18-25", "120"},
	}, grid.Rows(g))
}

func TestSchema(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		arg      string
		wantKind string
		wantErr  bool
	}{
		"configuration": {arg: "configuration", wantKind: `"Configuration"`},
		"project":       {arg: "project", wantKind: `"Project"`},
		"unknown":       {arg: "policy", wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, err := execute(t, "schema", tc.arg)
			if tc.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.True(t, json.Valid([]byte(out)))
			assert.Contains(t, out, tc.wantKind)
		})
	}
}

func TestInit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dtinfer", "config.yaml")

	cmd := cli.NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"init", "--config", path, "--log-level", "error"})
	require.NoError(t, cmd.ExecuteContext(t.Context()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: Configuration")
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err     error
		want    string
		wantNot string
	}{
		"usage": {
			err:  errors.New("unknown flag: --nope"),
			want: "--help",
		},
		"table not found": {
			err:     fmt.Errorf("%w: %q", project.ErrTableNotFound, "Discounts"),
			want:    "dtinfer infer PROJECT",
			wantNot: "--help",
		},
		"diagnostic": {
			err:     diag.Errorf(diag.CodeNoReturn, diag.TableLocation("Premiums"), "no return column found"),
			want:    "code: no-return",
			wantNot: "--help",
		},
		"other": {
			err:     errors.New("boom"),
			wantNot: "code:",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			b := &bytes.Buffer{}
			cli.ErrorHandler(b, fang.Styles{}, tc.err)

			assert.Contains(t, b.String(), tc.err.Error())

			if tc.want != "" {
				assert.Contains(t, b.String(), tc.want)
			}

			if tc.wantNot != "" {
				assert.NotContains(t, b.String(), tc.wantNot)
			}
		})
	}
}
