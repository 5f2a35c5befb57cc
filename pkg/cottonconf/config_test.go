package cottonconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAppliesTags(t *testing.T) {
	c := Default()
	assert.Equal(t, "unix", c.DefaultBackend)
	assert.Equal(t, uint(1), c.MaxProcessLimit)
	assert.True(t, c.AllowNamespaceBox)
}

func TestParseOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cotton.conf")
	content := "# comment\nspool dir = /tmp/cotton\ndefault backend = namespace\nmax process limit = 4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cotton", c.SpoolDir)
	assert.Equal(t, "namespace", c.DefaultBackend)
	assert.Equal(t, uint(4), c.MaxProcessLimit)
	assert.Equal(t, "warn", c.LogLevel, "untouched directive should keep its default")
}

func TestCurrentConfigDefaultsWhenUnset(t *testing.T) {
	SetCurrentConfig(nil)
	assert.Equal(t, "unix", GetCurrentConfig().DefaultBackend)
}
