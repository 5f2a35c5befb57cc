//go:build linux

package namespace

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sylabs/cotton/internal/pkg/box"
)

func TestGetFeaturesAddsIsolation(t *testing.T) {
	b := New(t.TempDir(), nil, nil)
	f := b.GetFeatures()
	assert.True(t, f.Has(box.FeatureFolderMount))
	assert.True(t, f.Has(box.FeatureProcessIsolation))
	assert.True(t, f.Has(box.FeatureNetworkIsolation))
	assert.True(t, f.Has(box.FeatureMemoryLimit), "namespace backend should still advertise the base unix features")
}

func TestIsAvailableMatchesEffectiveUID(t *testing.T) {
	b := New(t.TempDir(), nil, nil)
	assert.Equal(t, os.Geteuid() == 0, b.IsAvailable())
}

func TestMountUmountBookkeeping(t *testing.T) {
	dir := t.TempDir()
	b := New(t.TempDir(), nil, nil)

	assert.True(t, b.Mount("/bin", dir, false), "Mount should succeed for an existing outer path")
	mounts := b.Mounts()
	m, ok := mounts["bin"]
	assert.True(t, ok, "expected a mount entry at key \"bin\"")
	assert.Equal(t, dir, m.Outer)
	assert.False(t, m.RW)
	assert.Equal(t, dir, b.MountPath("bin"))

	assert.True(t, b.Umount("/bin"), "Umount should succeed for a configured mount")
	assert.False(t, b.Umount("/bin"), "Umount should fail the second time")
}

func TestMountRejectsMissingSource(t *testing.T) {
	b := New(t.TempDir(), nil, nil)
	assert.False(t, b.Mount("/nope", "/does/not/exist/at/all", false))
}
