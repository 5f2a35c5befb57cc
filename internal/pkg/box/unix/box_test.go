//go:build linux

package unix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sylabs/cotton/internal/pkg/box"
	"github.com/sylabs/cotton/pkg/units"
)

func TestSetProcessLimitTruncatesAndWarns(t *testing.T) {
	var warned bool
	b := NewWithName("unix", t.TempDir(), nil, func(code int, format string, args ...interface{}) {
		warned = true
	})

	assert.True(t, b.SetProcessLimit(5), "SetProcessLimit should report success even when truncating")
	assert.Equal(t, 1, b.ProcessLimit())
	assert.True(t, warned, "expected a warning when process limit > 1")
}

func TestSetProcessLimitZero(t *testing.T) {
	b := NewWithName("unix", t.TempDir(), nil, nil)
	assert.True(t, b.SetProcessLimit(0))
	assert.Equal(t, 0, b.ProcessLimit())
}

func TestGetFeaturesExcludesMountAndIsolation(t *testing.T) {
	b := NewWithName("unix", t.TempDir(), nil, nil)
	f := b.GetFeatures()
	assert.False(t, f.Has(box.FeatureFolderMount))
	assert.False(t, f.Has(box.FeatureProcessIsolation))
	assert.False(t, f.Has(box.FeatureNetworkIsolation))
	assert.True(t, f.Has(box.FeatureMemoryLimit))
	assert.True(t, f.Has(box.FeatureIORedirection))
}

func TestBindIDAndRoot(t *testing.T) {
	base := t.TempDir()
	b := NewWithName("unix", base, nil, nil)
	b.BindID(7)
	want := filepath.Join(base, "box_7", "file_root") + string(os.PathSeparator)
	assert.Equal(t, want, b.Root())
}

func TestRedirectStdoutRejectsUnreadableFile(t *testing.T) {
	base := t.TempDir()
	b := NewWithName("unix", base, func(code int, format string, args ...interface{}) {}, nil)
	b.BindID(1)
	require.NoError(t, os.MkdirAll(b.Root(), 0o755))
	// A directory can't be opened as a regular redirect target.
	if b.RedirectStdout(".") {
		t.Skip("OpenFile on a directory succeeded on this platform; skipping")
	}
}

func TestDeleteBoxRemovesTree(t *testing.T) {
	base := t.TempDir()
	b := NewWithName("unix", base, func(code int, format string, args ...interface{}) {
		t.Fatalf("unexpected error: "+format, args...)
	}, nil)
	b.BindID(3)
	require.NoError(t, os.MkdirAll(b.Root(), 0o755))
	assert.True(t, b.DeleteBox())
	_, err := os.Stat(filepath.Join(base, "box_3"))
	assert.True(t, os.IsNotExist(err), "expected box directory to be removed")
}

func TestMemoryLimitRoundtrip(t *testing.T) {
	b := NewWithName("unix", t.TempDir(), nil, nil)
	b.SetMemoryLimit(units.SpaceFromBytes(64 * 1024 * 1024))
	assert.Equal(t, int64(64*1024*1024), b.MemoryLimit().Bytes())
}
