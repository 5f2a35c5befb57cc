package boxstore

import (
	"github.com/sylabs/cotton/internal/pkg/box"
	"github.com/sylabs/cotton/pkg/units"
)

// ToPersisted snapshots b's current configuration and last-run statistics
// into a Persisted archive, going entirely through the Box interface so
// this package never needs to know about a specific backend's internals.
func ToPersisted(b box.Box, basePath string) *Persisted {
	stats := b.LastStats()

	// Only backends advertising folder mounts are asked for them; the others
	// report Mounts as not implemented through their error callback.
	var mounts []MountSpec
	if b.GetFeatures().Has(box.FeatureFolderMount) {
		for inner, m := range b.Mounts() {
			mounts = append(mounts, MountSpec{Inner: inner, Outer: m.Outer, RW: m.RW})
		}
	}

	return &Persisted{
		Backend:  b.BackendName(),
		ID:       b.ID(),
		BasePath: basePath,

		MemoryLimit:   b.MemoryLimit().Bytes(),
		CPULimit:      b.CPULimit().Microseconds(),
		WallTimeLimit: b.WallTimeLimit().Microseconds(),
		ProcessLimit:  b.ProcessLimit(),
		DiskLimit:     b.DiskLimit().Bytes(),

		Stdin:  b.Stdin(),
		Stdout: b.Stdout(),
		Stderr: b.Stderr(),

		MemoryUsage: stats.MemoryUsage.Bytes(),
		RunningTime: stats.RunningTime.Microseconds(),
		WallTime:    stats.WallTime.Microseconds(),
		ExitStatus:  stats.ExitStatus,
		ReturnCode:  stats.ReturnCode,
		Signal:      stats.Signal,

		Mounts: mounts,
	}
}

// ApplyPersisted restores a Box's configuration (not its last-run
// statistics, which are informational only) from a loaded archive. It is
// the caller's responsibility to have constructed b under the backend
// named by p.Backend and bound p's id to it beforehand.
func ApplyPersisted(b box.Box, p *Persisted) {
	b.SetMemoryLimit(units.SpaceFromBytes(p.MemoryLimit))
	b.SetCPULimit(units.Time(p.CPULimit))
	b.SetWallTimeLimit(units.Time(p.WallTimeLimit))
	b.SetProcessLimit(p.ProcessLimit)
	b.SetDiskLimit(units.SpaceFromBytes(p.DiskLimit))

	b.RedirectStdin(p.Stdin)
	b.RedirectStdout(p.Stdout)
	b.RedirectStderr(p.Stderr)

	for _, m := range p.Mounts {
		b.Mount(m.Inner, m.Outer, m.RW)
	}
}
