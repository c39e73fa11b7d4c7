package api_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openltablets/dtinfer/api"
)

//nolint:paralleltest // Sets environment variables.
func TestGetConfigPath(t *testing.T) {
	tcs := map[string]struct {
		xdg  string
		home string
		want string
	}{
		"xdg":     {xdg: "/custom/config", home: "/test/home", want: "/custom/config/dtinfer/config.yaml"},
		"home":    {home: "/test/home", want: "/test/home/.config/dtinfer/config.yaml"},
		"neither": {want: filepath.Join(os.TempDir(), "dtinfer", "config.yaml")}, //nolint:usetesting // Must equal host.
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", tc.xdg)
			t.Setenv("HOME", tc.home)

			assert.Equal(t, tc.want, api.GetConfigPath("config.yaml"))
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "project.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: rates\n"), 0o600))

	tcs := map[string]struct {
		path    string
		wantErr error
	}{
		"file":      {path: file},
		"missing":   {path: filepath.Join(dir, "missing.yaml"), wantErr: fs.ErrNotExist},
		"directory": {path: dir, wantErr: api.ErrIsDirectory},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := api.ReadFile(tc.path)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "name: rates\n", string(got))
		})
	}
}

func TestMarshalYAML(t *testing.T) {
	t.Parallel()

	data, err := api.MarshalYAML(struct {
		Name   string `json:"name"`
		Tables int    `json:"tables"`
	}{Name: "rates", Tables: 2})
	require.NoError(t, err)
	assert.Equal(t, "name: rates\ntables: 2\n", string(data))
}

func TestWriteDefaultFile(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		existing    string
		force       bool
		want        string
		wantBackups int
	}{
		"new file":        {want: "default"},
		"keeps existing":  {existing: "custom", want: "custom"},
		"force overwrite": {existing: "custom", force: true, want: "default", wantBackups: 1},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := filepath.Join(t.TempDir(), "nested")
			path := filepath.Join(dir, "config.yaml")

			if tc.existing != "" {
				require.NoError(t, os.MkdirAll(dir, 0o700))
				require.NoError(t, os.WriteFile(path, []byte(tc.existing), 0o600))
			}

			require.NoError(t, api.WriteDefaultFile(path, []byte("default"), tc.force, "configuration"))

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))

			backups, err := filepath.Glob(path + ".*.old")
			require.NoError(t, err)
			assert.Len(t, backups, tc.wantBackups)
		})
	}
}

func TestWriteDefaultFileDirectory(t *testing.T) {
	t.Parallel()

	err := api.WriteDefaultFile(t.TempDir(), []byte("default"), false, "configuration")
	require.ErrorIs(t, err, api.ErrIsDirectory)
}

func TestFindFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	deep := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(deep, 0o700))

	want := filepath.Join(root, "a", "dtinfer.yaml")
	require.NoError(t, os.WriteFile(want, []byte("{}"), 0o600))

	got, err := api.FindFile(deep, "dtinfer.yml", "dtinfer.yaml")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = api.FindFile(root, "missing.yaml")
	require.NoError(t, err)
	assert.Empty(t, got)
}
