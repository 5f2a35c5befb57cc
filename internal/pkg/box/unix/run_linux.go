//go:build linux

package unix

import (
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/sylabs/cotton/internal/pkg/box"
	"github.com/sylabs/cotton/internal/pkg/boxstore"
	"github.com/sylabs/cotton/internal/pkg/sylog"
	"github.com/sylabs/cotton/pkg/units"
	"golang.org/x/sys/unix"
)

// ReexecSentinel is the hidden cobra subcommand cmd/cotton wires to Init.
// It must never appear in any user-facing help text.
const ReexecSentinel = "__cotton_init__"

// pollInterval is how often the wall-time supervisor polls the child with
// waitpid(WNOHANG) before it has exceeded its wall time limit.
const pollInterval = time.Millisecond

// Run implements spec §4.4-§4.6: acquire the run lock, let the backend's
// parent hooks run in a privileged bracket, re-exec the cotton binary as
// the child, hand it a BootstrapConfig across a pipe, supervise it for at
// most WallTimeLimit, and collect rusage-based statistics.
func (b *Box) Run(command string, args []string) bool {
	store := boxstore.New(b.basePath)
	lock, err := store.Acquire(b.id)
	if err != nil {
		b.errFn(4, "cannot start box %d: %s", b.id, err)
		return false
	}
	defer lock.Release()

	runID := uuid.NewString()
	sylog.Debugf("run %s: starting box %d on backend %s", runID, b.id, b.name)

	cfg := &BootstrapConfig{
		RunID:                 runID,
		Backend:               b.name,
		Root:                  b.Root(),
		Command:               command,
		Args:                  args,
		Stdin:                 b.stdin,
		Stdout:                b.stdout,
		Stderr:                b.stderr,
		MemoryLimitRlimitUnit: b.memoryLimit.RlimitUnit(),
		CPULimitSeconds:       b.cpuLimit.CeilSeconds(),
		ProcessLimit:          b.processLimit,
		DiskLimitBytes:        b.diskLimit.Bytes(),
		Mounts:                b.mounts,
	}

	if hooks, ok := box.ParentHooksFor(b.name); ok {
		if err := hooks.PreFork(cfg); err != nil {
			b.errFn(4, "pre-fork hook failed: %s", err)
			return false
		}
	}

	ok := b.runChild(cfg)

	if hooks, ok2 := box.ParentHooksFor(b.name); ok2 {
		if err := hooks.Cleanup(cfg); err != nil {
			sylog.Warningf("cleanup hook failed: %s", err)
		}
	}

	return ok
}

func (b *Box) runChild(cfg *BootstrapConfig) bool {
	exe, err := os.Executable()
	if err != nil {
		b.errFn(4, "cannot resolve own executable path: %s", err)
		return false
	}

	cfgR, cfgW, err := os.Pipe()
	if err != nil {
		b.errFn(4, "cannot create bootstrap pipe: %s", err)
		return false
	}
	defer cfgW.Close()

	errR, errW, err := os.Pipe()
	if err != nil {
		b.errFn(4, "cannot create error pipe: %s", err)
		return false
	}

	cmd := exec.Command(exe, ReexecSentinel)
	cmd.ExtraFiles = []*os.File{cfgR, errW}
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr

	if err := cmd.Start(); err != nil {
		cfgR.Close()
		errR.Close()
		errW.Close()
		b.errFn(4, "cannot start sandboxed process: %s", err)
		return false
	}
	cfgR.Close()
	errW.Close()
	defer errR.Close()

	data, err := json.Marshal(cfg)
	if err != nil {
		cfgW.Close()
		b.errFn(4, "cannot marshal bootstrap config: %s", err)
		return false
	}
	if _, err := cfgW.Write(data); err != nil {
		sylog.Warningf("writing bootstrap config: %s", err)
	}
	cfgW.Close()

	// A fatal record means the child has exited without exec'ing: return
	// failure at once. The child is not reaped on this path and stays a
	// zombie until the cotton process itself exits.
	if b.drainErrorPipe(errR) {
		return false
	}

	status, rusage, killed, wallTime := b.supervise(cmd.Process.Pid)

	b.stats = computeStats(status, rusage, killed, wallTime)
	sylog.Debugf("run %s: finished with exit status %v", cfg.RunID, b.stats.ExitStatus)
	return true
}

// drainErrorPipe reads error records until EOF (successful exec) or a
// fatal record arrives. Warnings are logged and reading continues.
func (b *Box) drainErrorPipe(r io.Reader) bool {
	for {
		rec, err := readError(r)
		if err == io.EOF {
			return false
		}
		if err != nil {
			sylog.Warningf("reading error pipe: %s", err)
			return false
		}
		msg := childErrString(rec.ErrorID)
		if rec.ErrorID < 0 {
			b.warnFn(int(-rec.ErrorID), "%s: %s", msg, unix.Errno(rec.Errno))
			continue
		}
		b.errFn(int(rec.ErrorID), "%s: %s", msg, unix.Errno(rec.Errno))
		return true
	}
}

// supervise polls the child with waitpid(WNOHANG) every pollInterval until
// it exits, or WallTimeLimit elapses, in which case it is SIGKILLed and
// reaped with a blocking wait (spec §4.5). It also measures the wall clock
// time elapsed from just before the wait loop starts to the moment the
// child is reaped, the wall_time statistic spec §4.5/§8 requires.
func (b *Box) supervise(pid int) (unix.WaitStatus, unix.Rusage, bool, units.Time) {
	start := time.Now()

	var status unix.WaitStatus
	var rusage unix.Rusage

	if b.wallTimeLimit <= 0 {
		// No wall time limit: a blocking waitpid avoids polling entirely.
		for {
			_, err := unix.Wait4(pid, &status, 0, &rusage)
			if err == unix.EINTR {
				continue
			}
			if err != nil {
				sylog.Warningf("wait4: %s", err)
			}
			return status, rusage, false, units.Time(time.Since(start).Microseconds())
		}
	}

	deadline := start.Add(time.Duration(b.wallTimeLimit.Microseconds()) * time.Microsecond)

	for {
		wpid, err := unix.Wait4(pid, &status, unix.WNOHANG, &rusage)
		if err != nil && err != unix.EINTR {
			sylog.Warningf("wait4: %s", err)
			return status, rusage, false, units.Time(time.Since(start).Microseconds())
		}
		if wpid == pid {
			return status, rusage, false, units.Time(time.Since(start).Microseconds())
		}

		if time.Now().After(deadline) {
			if err := unix.Kill(pid, unix.SIGKILL); err != nil {
				sylog.Warningf("killing timed-out process: %s", err)
			}
			if _, err := unix.Wait4(pid, &status, 0, &rusage); err != nil {
				sylog.Warningf("wait4 after kill: %s", err)
			}
			return status, rusage, true, units.Time(time.Since(start).Microseconds())
		}

		time.Sleep(pollInterval)
	}
}

func computeStats(status unix.WaitStatus, rusage unix.Rusage, killed bool, wallTime units.Time) box.Stats {
	st := box.Stats{
		MemoryUsage: unitsSpaceFromRusage(rusage),
		RunningTime: unitsTimeFromTimeval(rusage.Utime) + unitsTimeFromTimeval(rusage.Stime),
		WallTime:    wallTime,
	}

	switch {
	case killed:
		st.ExitStatus = box.ExitStatusTimedOut
		st.Signal = int(unix.SIGKILL)
	case status.Signaled():
		st.ExitStatus = box.ExitStatusSignaled
		st.Signal = int(status.Signal())
	default:
		st.ExitStatus = box.ExitStatusNormal
		st.ReturnCode = status.ExitStatus()
	}
	return st
}

// unitsSpaceFromRusage converts ru_maxrss, which the kernel reports in the
// same platform-dependent unit as RLIMIT_AS (spec §5's units note), to a
// byte-accurate units.Space.
func unitsSpaceFromRusage(rusage unix.Rusage) units.Space {
	return units.FromRlimitUnit(int64(rusage.Maxrss))
}

func unitsTimeFromTimeval(tv unix.Timeval) units.Time {
	return units.Time(tv.Sec*1_000_000 + int64(tv.Usec))
}
