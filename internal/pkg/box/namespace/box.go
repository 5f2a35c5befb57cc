//go:build linux

// Package namespace implements the isolating backend (spec §4.4's
// "[NSBOX]" component): the same fork/exec/rlimit machinery as the plain
// Unix backend, with added PID/network/IPC/mount namespace isolation and
// bind-mount support. It embeds a *unix.Box and only overrides the parts
// that differ.
package namespace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sylabs/cotton/internal/pkg/box"
	"github.com/sylabs/cotton/internal/pkg/box/unix"
	"github.com/sylabs/cotton/internal/pkg/fsutil"
)

// mountDirMode is the permission mode mount destinations are created with,
// matching the original's box_mode for mkdirs(get_root()+box_path, ...).
const mountDirMode = 0o754

const backendName = "namespace"

// Box wraps a *unix.Box, adding bind-mount bookkeeping and overriding the
// capability/availability/mount methods the isolating backend handles
// differently.
type Box struct {
	*unix.Box
	mounts map[string]box.Mount
}

// New constructs a namespace-isolating backend bound to basePath.
func New(basePath string, errFn box.ErrorFunc, warnFn box.WarnFunc) box.Box {
	return &Box{
		Box:    unix.NewWithName(backendName, basePath, errFn, warnFn),
		mounts: map[string]box.Mount{},
	}
}

func init() {
	box.Register(backendName, New)
	box.RegisterHooks(backendName, parentHooks{}, childHooks{})
}

// IsAvailable reports whether the calling process can create the
// namespaces this backend needs: it requires an effective uid of 0 (an
// unprivileged user namespace, which cotton does not set up, is not
// considered).
func (b *Box) IsAvailable() bool {
	return os.Geteuid() == 0
}

func (b *Box) GetOverhead() int { return 1 } // namespace setup costs a bit more than plain fork/exec

func (b *Box) GetFeatures() box.Feature {
	return b.Box.GetFeatures() | box.FeatureFolderMount |
		box.FeatureProcessIsolation | box.FeatureNetworkIsolation
}

func (b *Box) Mounts() map[string]box.Mount {
	out := make(map[string]box.Mount, len(b.mounts))
	for k, v := range b.mounts {
		out[k] = v
	}
	return out
}

func (b *Box) MountPath(inner string) string {
	m, ok := b.mounts[inner]
	if !ok {
		return ""
	}
	return m.Outer
}

// Mount records a bind mount from outer (a host path) to inner (a path
// relative to file_root), creating the destination directory tree
// file_root/inner with mkdir -p semantics. The actual bind mount happens
// inside the child's own mount namespace at PreExec time (see
// hooks_linux.go); this only has to prepare the mount point on the host.
func (b *Box) Mount(inner, outer string, rw bool) bool {
	inner = strings.TrimPrefix(filepath.Clean("/"+inner), "/")
	if _, err := os.Stat(outer); err != nil {
		b.Box.ReportError(4, "cannot stat mount source %s: %s", outer, err)
		return false
	}
	if err := fsutil.MkdirAll(filepath.Join(b.Root(), inner), mountDirMode); err != nil {
		b.Box.ReportError(4, "cannot create mount point %s: %s", inner, err)
		return false
	}
	b.mounts[inner] = box.Mount{Outer: outer, RW: rw}
	b.syncMounts()
	return true
}

// Umount removes a previously configured bind mount from the bookkeeping
// map. It is a configuration-time operation, not a host mount(2) syscall:
// nothing is mounted outside the sandboxed child's own namespace.
func (b *Box) Umount(inner string) bool {
	inner = strings.TrimPrefix(filepath.Clean("/"+inner), "/")
	if _, ok := b.mounts[inner]; !ok {
		return false
	}
	delete(b.mounts, inner)
	b.syncMounts()
	return true
}

// syncMounts pushes the bookkeeping map into the embedded *unix.Box so
// Run includes it in the next BootstrapConfig.
func (b *Box) syncMounts() {
	specs := make([]unix.MountSpec, 0, len(b.mounts))
	for inner, m := range b.mounts {
		specs = append(specs, unix.MountSpec{Inner: inner, Outer: m.Outer, RW: m.RW})
	}
	b.Box.SetMounts(specs)
}
