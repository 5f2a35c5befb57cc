package priv

import (
	"runtime"
	"sync"

	"github.com/sylabs/cotton/internal/pkg/sylog"
	"golang.org/x/sys/unix"
)

var (
	mu       sync.Mutex
	nesting  int
	savedUID int
)

// Enter escalates the real and effective uid of the calling OS thread to
// root (spec §4.7's "Privileged" bracket) if this is the outermost nested
// call, locking the goroutine to its OS thread for the duration, and bumps
// the nesting counter. It must be paired with a call to Exit on every
// return path, including error paths.
func Enter() error {
	mu.Lock()
	defer mu.Unlock()

	if nesting == 0 {
		runtime.LockOSThread()
		uid, _, _ := unix.Getresuid()
		sylog.Debugf("Escalate r/e/s: %d/%d/%d", 0, 0, uid)
		// unix.Setresuid makes a direct syscall which performs a single
		// thread escalation; syscall.Setresuid would escalate all threads.
		if err := unix.Setresuid(0, 0, uid); err != nil {
			runtime.UnlockOSThread()
			return err
		}
		savedUID = uid
	}
	nesting++
	return nil
}

// Exit decrements the nesting counter and, once it reaches zero, drops
// privileges by setting the real and effective uid back to the real uid
// recorded by the outermost Enter call (keeping root as the saved uid)
// and unlocks the goroutine from its OS thread.
func Exit() error {
	mu.Lock()
	defer mu.Unlock()

	if nesting == 0 {
		return nil
	}
	nesting--
	if nesting > 0 {
		return nil
	}
	defer runtime.UnlockOSThread()
	sylog.Debugf("Drop r/e/s: %d/%d/%d", savedUID, savedUID, 0)
	return unix.Setresuid(savedUID, savedUID, 0)
}

// Region runs fn within a privileged bracket, guaranteeing a balanced
// Enter/Exit pair regardless of how fn returns. This is the shape the
// namespace backend's pre_fork_hook/post_fork_hook/pre_exec_hook/
// cleanup_hook use around unshare/mount/chroot/umount.
func Region(fn func() error) error {
	if err := Enter(); err != nil {
		return err
	}
	defer Exit()
	return fn()
}
