package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openltablets/dtinfer/api/v1beta1/configs"
	"github.com/openltablets/dtinfer/pkg/config"
)

func TestNewLoaderFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiVersion: dtinfer.openl-tablets.org/v1beta1\nkind: Configuration\n"), 0o600))

	tcs := map[string]struct {
		path    string
		wantErr bool
	}{
		"file":      {path: path},
		"missing":   {path: filepath.Join(dir, "missing.yaml"), wantErr: true},
		"directory": {path: dir, wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l, err := config.NewLoaderFromFile(tc.path, configs.New, configs.DefaultValidator)
			if tc.wantErr {
				require.Error(t, err)
				assert.Nil(t, l)

				return
			}

			require.NoError(t, err)

			cfg, err := l.ValidateAndLoad()
			require.NoError(t, err)
			assert.Equal(t, "Configuration", cfg.GetKind())
		})
	}
}

func TestLoaderLoad(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input        string
		wantErr      string
		wantMinScore float64
		wantMaxFits  int
	}{
		"defaults": {
			input:        "apiVersion: dtinfer.openl-tablets.org/v1beta1\nkind: Configuration\n",
			wantMinScore: 0.5,
			wantMaxFits:  10000,
		},
		"overrides": {
			input: `apiVersion: dtinfer.openl-tablets.org/v1beta1
kind: Configuration
matching:
  minScore: 0.7
solver:
  maxFits: 50
`,
			wantMinScore: 0.7,
			wantMaxFits:  50,
		},
		"wrong kind": {
			input:   "apiVersion: dtinfer.openl-tablets.org/v1beta1\nkind: Project\n",
			wantErr: "kind",
		},
		"bad type": {
			input:   "apiVersion: dtinfer.openl-tablets.org/v1beta1\nkind: Configuration\nsolver:\n  maxFits: many\n",
			wantErr: "maxFits",
		},
		"bad yaml": {
			input:   "kind: [Configuration\n",
			wantErr: "validate",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.NewLoaderFromBytes([]byte(tc.input), configs.New, configs.DefaultValidator).ValidateAndLoad()
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tc.wantMinScore, *cfg.Matching.MinScore, 1e-9)
			assert.Equal(t, tc.wantMaxFits, *cfg.Solver.MaxFits)
			assert.NotNil(t, cfg.Compile.Workers)
		})
	}
}

func TestLoaderWithoutValidator(t *testing.T) {
	t.Parallel()

	l := config.NewLoaderFromBytes(
		[]byte("apiVersion: other/v1\nkind: Configuration\n"),
		configs.New, configs.DefaultValidator,
		config.WithValidator(nil),
	)

	require.NoError(t, l.Validate())

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "other/v1", cfg.GetAPIVersion())
}

func TestLoaderUnknownField(t *testing.T) {
	t.Parallel()

	l := config.NewLoaderFromBytes(
		[]byte("apiVersion: dtinfer.openl-tablets.org/v1beta1\nkind: Configuration\nmatchng:\n  minScore: 0.7\n"),
		configs.New, configs.DefaultValidator,
		config.WithValidator(nil),
	)

	_, err := l.Load()
	require.Error(t, err)
}
