//go:build linux

// Package unix implements the default, portable Unix backend (spec §4.4-
// §4.6, the "[UNIXBOX]" component): fork/exec via a re-exec'd child,
// rlimit application, the parent/child error pipe protocol, the wall-time
// supervisor, rusage-based statistics collection, and I/O redirection.
package unix

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sylabs/cotton/internal/pkg/box"
	"github.com/sylabs/cotton/internal/pkg/fsutil"
	"github.com/sylabs/cotton/pkg/units"
)

// Box is the Unix backend's concrete state (spec §3's Box data model).
// Field names mirror the original DummyUnixSandbox's persistent fields.
type Box struct {
	name     string
	basePath string
	errFn    box.ErrorFunc
	warnFn   box.WarnFunc

	id int

	memoryLimit   units.Space
	cpuLimit      units.Time
	wallTimeLimit units.Time
	processLimit  int
	diskLimit     units.Space

	stdin  string
	stdout string
	stderr string

	// mounts is only ever populated by the namespace backend, which embeds
	// Box and syncs its own bookkeeping map into this slice on every
	// Mount/Umount call so that Run can hand it to the child across the
	// bootstrap pipe without the hooks needing a reference back to a
	// specific Box instance.
	mounts []MountSpec

	stats box.Stats
}

// SetMounts replaces the bind mounts Run will include in the next
// BootstrapConfig. Called by the namespace backend; a no-op for plain
// Unix boxes, which never call it.
func (b *Box) SetMounts(m []MountSpec) { b.mounts = m }

// New constructs a Unix backend bound to basePath, registered under name
// "unix". Namespace backend reuses NewWithName to construct the embedded
// Box under its own name.
func New(basePath string, errFn box.ErrorFunc, warnFn box.WarnFunc) box.Box {
	return NewWithName("unix", basePath, errFn, warnFn)
}

// NewWithName builds a *Box registered under a name other than "unix",
// used by the namespace backend to embed the same fork/exec/rlimit
// machinery under its own registry entry.
func NewWithName(name, basePath string, errFn box.ErrorFunc, warnFn box.WarnFunc) *Box {
	if errFn == nil {
		errFn = func(int, string, ...interface{}) {}
	}
	if warnFn == nil {
		warnFn = func(int, string, ...interface{}) {}
	}
	return &Box{name: name, basePath: basePath, errFn: errFn, warnFn: warnFn}
}

func init() {
	box.Register("unix", New)
}

func (b *Box) IsAvailable() bool { return true } // If it compiles, it should work.

func (b *Box) GetOverhead() int { return 0 } // no noticeable performance hit

func (b *Box) GetFeatures() box.Feature {
	return box.FeatureMemoryLimit | box.FeatureCPULimit | box.FeatureWallTimeLimit |
		box.FeatureProcessLimit | box.FeatureDiskLimit | box.FeatureMemoryUsage |
		box.FeatureRunningTime | box.FeatureWallTime | box.FeatureIORedirection |
		box.FeatureReturnCode | box.FeatureSignal
}

func (b *Box) BackendName() string { return b.name }

// ReportError forwards to the injected ErrorFunc. Exported so the
// namespace backend, which embeds *Box, can report through the same
// callback from the methods it overrides.
func (b *Box) ReportError(code int, format string, args ...interface{}) {
	b.errFn(code, format, args...)
}

func (b *Box) ID() int { return b.id }

func (b *Box) BindID(id int) { b.id = id }

func (b *Box) BasePath() string { return b.basePath }

// Root returns <base>/box_<id>/file_root/.
func (b *Box) Root() string {
	return filepath.Join(b.basePath, fmt.Sprintf("box_%d", b.id), "file_root") + string(os.PathSeparator)
}

func (b *Box) SetMemoryLimit(v units.Space) bool { b.memoryLimit = v; return true }
func (b *Box) SetCPULimit(v units.Time) bool     { b.cpuLimit = v; return true }
func (b *Box) SetWallTimeLimit(v units.Time) bool { b.wallTimeLimit = v; return true }

func (b *Box) SetProcessLimit(v int) bool {
	if v > 1 {
		b.warnFn(4, "this sandbox has partial support for process limits")
	}
	if v > 0 {
		b.processLimit = 1
	} else {
		b.processLimit = 0
	}
	return true
}

func (b *Box) SetDiskLimit(v units.Space) bool { b.diskLimit = v; return true }

func (b *Box) MemoryLimit() units.Space   { return b.memoryLimit }
func (b *Box) CPULimit() units.Time       { return b.cpuLimit }
func (b *Box) WallTimeLimit() units.Time  { return b.wallTimeLimit }
func (b *Box) ProcessLimit() int          { return b.processLimit }
func (b *Box) DiskLimit() units.Space     { return b.diskLimit }

// prepareRedirect validates that file, relative to Root(), can be opened
// with the given flags, and if so records it (spec §4.4's
// prepare_io_redirect). An empty file means "inherit".
func (b *Box) prepareRedirect(file string, flag int) (string, bool) {
	if file == "" {
		return "", true
	}
	path := filepath.Join(b.Root(), file)
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		b.errFn(4, "cannot open file %s: %s", file, err)
		return "", false
	}
	f.Close()
	return file, true
}

func (b *Box) RedirectStdin(file string) bool {
	v, ok := b.prepareRedirect(file, os.O_RDONLY)
	if ok {
		b.stdin = v
	}
	return ok
}

func (b *Box) RedirectStdout(file string) bool {
	v, ok := b.prepareRedirect(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC)
	if ok {
		b.stdout = v
	}
	return ok
}

func (b *Box) RedirectStderr(file string) bool {
	v, ok := b.prepareRedirect(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC)
	if ok {
		b.stderr = v
	}
	return ok
}

func (b *Box) Stdin() string  { return b.stdin }
func (b *Box) Stdout() string { return b.stdout }
func (b *Box) Stderr() string { return b.stderr }

// Mounts, MountPath, Mount and Umount are not supported by the plain Unix
// backend (spec §4.1's reserved not-implemented code).
func (b *Box) Mounts() map[string]box.Mount {
	b.errFn(box.ErrNotImplemented, "mount is not supported by this backend")
	return nil
}

func (b *Box) MountPath(string) string {
	b.errFn(box.ErrNotImplemented, "mount is not supported by this backend")
	return ""
}

func (b *Box) Mount(string, string, bool) bool {
	b.errFn(box.ErrNotImplemented, "mount is not supported by this backend")
	return false
}

func (b *Box) Umount(string) bool {
	b.errFn(box.ErrNotImplemented, "umount is not supported by this backend")
	return false
}

// Check is unimplemented by default (spec §6).
func (b *Box) Check() bool {
	b.errFn(box.ErrNotImplemented, "check is not implemented by this backend")
	return false
}

// Clear is unimplemented by default (spec §6).
func (b *Box) Clear() bool {
	b.errFn(box.ErrNotImplemented, "clear is not implemented by this backend")
	return false
}

func (b *Box) LastStats() box.Stats { return b.stats }

// DeleteBox removes the entire box_<id>/ tree (spec §4.3's delete_box),
// freeing the id for reuse.
func (b *Box) DeleteBox() bool {
	dir := filepath.Join(b.basePath, fmt.Sprintf("box_%d", b.id))
	if err := fsutil.RemoveAll(dir); err != nil {
		b.errFn(4, "error deleting sandbox: %s", err)
		return false
	}
	return true
}
