package projects_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openltablets/dtinfer/api/v1beta1"
	"github.com/openltablets/dtinfer/api/v1beta1/projects"
	"github.com/openltablets/dtinfer/pkg/binder"
	"github.com/openltablets/dtinfer/pkg/config"
)

const doc = `apiVersion: dtinfer.openl-tablets.org/v1beta1
kind: Project
name: rates
types:
  - name: Driver
    members:
      - name: age
        type: int
      - name: id
        type: long
        access: read
tables:
  - name: Premiums
    method: double premium(Driver driver)
    rows:
      - [Driver Age, Premium, Active]
      - [18-25, 120.5, true]
      - [26-99, 80, ~]
`

func TestLoad(t *testing.T) {
	t.Parallel()

	p, err := config.NewLoaderFromBytes([]byte(doc), projects.New, projects.DefaultValidator).ValidateAndLoad()
	require.NoError(t, err)

	assert.Equal(t, v1beta1.APIVersion, p.GetAPIVersion())
	assert.Equal(t, "rates", p.Name)

	require.Len(t, p.Types, 1)
	assert.True(t, *p.Types[0].Constructible)
	assert.Equal(t, projects.AccessReadWrite, p.Types[0].Members[0].Access)
	assert.True(t, p.Types[0].Members[0].Writable())
	assert.False(t, p.Types[0].Members[1].Writable())
	assert.True(t, p.Types[0].Members[1].Readable())

	tbl, ok := p.Table("Premiums")
	require.True(t, ok)
	assert.Equal(t, binder.ModeSmart, tbl.BinderMode())
	assert.Equal(t, [][]string{
		{"Driver Age", "Premium", "Active"},
		{"18-25", "120.5", "true"},
		{"26-99", "80", ""},
	}, tbl.Strings())

	_, ok = p.Table("Discounts")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		doc     string
		wantErr string
	}{
		"valid": {doc: doc},
		"wrong kind": {
			doc:     "apiVersion: dtinfer.openl-tablets.org/v1beta1\nkind: Configuration\nname: rates\n",
			wantErr: "kind",
		},
		"missing name": {
			doc:     "apiVersion: dtinfer.openl-tablets.org/v1beta1\nkind: Project\n",
			wantErr: "name",
		},
		"bad mode": {
			doc:     "apiVersion: dtinfer.openl-tablets.org/v1beta1\nkind: Project\nname: r\ntables:\n  - name: T\n    method: int f()\n    mode: clever\n",
			wantErr: "mode",
		},
		"bad access": {
			doc:     "apiVersion: dtinfer.openl-tablets.org/v1beta1\nkind: Project\nname: r\ntypes:\n  - name: T\n    members:\n      - name: a\n        type: int\n        access: hidden\n",
			wantErr: "access",
		},
		"nested cell": {
			doc:     "apiVersion: dtinfer.openl-tablets.org/v1beta1\nkind: Project\nname: r\ntables:\n  - name: T\n    method: int f()\n    rows: [[[a]]]\n",
			wantErr: "rows",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := config.NewLoaderFromBytes([]byte(tc.doc), projects.New, projects.DefaultValidator).Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}
