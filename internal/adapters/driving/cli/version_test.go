package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Short(t *testing.T) {
	assert.Equal(t, "Print the version number", versionCmd.Short)
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	original := version
	version = "test-version-1.0.0"
	defer func() { version = original }()

	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "glance version test-version-1.0.0")
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersionCmd_DisplaysDevByDefault(t *testing.T) {
	original := version
	version = "dev"
	defer func() { version = original }()

	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "glance version dev")
}
