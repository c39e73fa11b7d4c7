package version_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openltablets/dtinfer/pkg/version"
)

func TestGetInfo(t *testing.T) {
	t.Parallel()

	info := version.GetInfo()

	assert.Equal(t, version.GetVersion(), info.Version)
	assert.NotEmpty(t, info.Revision)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}
