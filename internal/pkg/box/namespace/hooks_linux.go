//go:build linux

package namespace

import (
	"path/filepath"

	"github.com/pkg/errors"
	boxunix "github.com/sylabs/cotton/internal/pkg/box/unix"
	"github.com/sylabs/cotton/internal/pkg/util/priv"
	"golang.org/x/sys/unix"
)

// parentHooks runs in the cotton process before the child is forked, and
// after it has been reaped.
type parentHooks struct{}

// PreFork unshares PID namespace in the parent (spec §4.4's isolation
// step): CLONE_NEWPID only takes effect for children created after the
// call, so it must happen before the re-exec, not inside the child.
func (parentHooks) PreFork(cfg interface{}) error {
	return priv.Region(func() error {
		if err := unix.Unshare(unix.CLONE_NEWPID); err != nil {
			return errors.Wrap(err, "unshare CLONE_NEWPID")
		}
		return nil
	})
}

// Cleanup is a no-op: every namespace this backend creates is scoped to
// the child's own process tree and is torn down by the kernel once the
// child exits, with nothing left behind on the host to unmount.
func (parentHooks) Cleanup(cfg interface{}) error { return nil }

// childHooks runs inside the re-exec'd child.
type childHooks struct{}

// PostFork unshares the remaining namespaces (spec §4.4): network, IPC
// and mount. PID namespace entry already happened as a side effect of
// being forked after the parent's CLONE_NEWPID unshare.
func (childHooks) PostFork(cfg interface{}) error {
	return priv.Region(func() error {
		if err := unix.Unshare(unix.CLONE_NEWNET | unix.CLONE_NEWIPC | unix.CLONE_NEWNS); err != nil {
			return errors.Wrap(err, "unshare CLONE_NEWNET|CLONE_NEWIPC|CLONE_NEWNS")
		}
		return nil
	})
}

// PreExec performs the configured bind mounts and chroots into file_root
// (spec §4.4). It runs after chdir(file_root) and rlimit application, so
// "." always refers to the sandbox root at this point.
func (childHooks) PreExec(cfgIface interface{}) error {
	bc, ok := cfgIface.(*boxunix.BootstrapConfig)
	if !ok {
		return errors.New("namespace PreExec: unexpected config type")
	}

	return priv.Region(func() error {
		for _, m := range bc.Mounts {
			if err := bindMount(bc.Root, m); err != nil {
				return err
			}
		}
		if err := unix.Chroot("."); err != nil {
			return errors.Wrap(err, "chroot")
		}
		return nil
	})
}

func bindMount(root string, m boxunix.MountSpec) error {
	target := filepath.Join(root, m.Inner)
	flags := uintptr(unix.MS_BIND | unix.MS_NODEV | unix.MS_NOSUID)
	if err := unix.Mount(m.Outer, target, "", flags, ""); err != nil {
		return errors.Wrapf(err, "bind mounting %s", m.Inner)
	}
	if !m.RW {
		roFlags := flags | unix.MS_REMOUNT | unix.MS_RDONLY
		if err := unix.Mount(m.Outer, target, "", roFlags, ""); err != nil {
			return errors.Wrapf(err, "remounting %s read-only", m.Inner)
		}
	}
	return nil
}
