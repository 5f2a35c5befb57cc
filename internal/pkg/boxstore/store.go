// Package boxstore implements the per-box directory layout, O_EXCL
// allocation, advisory locking and boxinfo persistence described in spec
// §3-§4.3 and §4.8 — the "[STORE]" component. It has no notion of what a
// backend actually does; it only manages the filesystem shape every
// backend shares.
package boxstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/sylabs/cotton/internal/pkg/fsutil"
	"github.com/sylabs/cotton/internal/pkg/sylog"
)

const (
	// DirMode is the mode new box/file_root directories are created with
	// (spec §3: "mkdir ... with mode 0754").
	DirMode = 0o754
	// FileMode is the mode lock files are created with (spec §3: "0644").
	FileMode = 0o644

	// maxBoxID bounds the O_EXCL allocation loop (spec §4.3 "up to a
	// large limit").
	maxBoxID = 1 << 20
)

// Store manages the box directories rooted at BasePath.
type Store struct {
	BasePath string
}

// New returns a Store rooted at basePath.
func New(basePath string) *Store {
	return &Store{BasePath: basePath}
}

// BoxDir returns <base>/box_<id>/.
func (s *Store) BoxDir(id int) string {
	return filepath.Join(s.BasePath, fmt.Sprintf("box_%d", id))
}

// LockPath returns the long-lived existence marker for id.
func (s *Store) LockPath(id int) string {
	return filepath.Join(s.BoxDir(id), "lock")
}

// RunLockPath returns the per-execution lock file for id.
func (s *Store) RunLockPath(id int) string {
	return filepath.Join(s.BoxDir(id), "run_lock")
}

// BoxInfoPath returns the persisted box state archive path for id.
func (s *Store) BoxInfoPath(id int) string {
	return filepath.Join(s.BoxDir(id), "boxinfo")
}

// FileRoot returns the guest-visible filesystem root for id.
func (s *Store) FileRoot(id int) string {
	return filepath.Join(s.BoxDir(id), "file_root")
}

// Allocate claims the lowest free box id under BasePath (spec §4.3):
// mkdir the box directory (ignoring EEXIST), then claim it by creating
// "lock" with O_EXCL. The first id for which both succeed and file_root
// can be (re)created fresh is returned.
func (s *Store) Allocate() (int, error) {
	for id := 1; id < maxBoxID; id++ {
		dir := s.BoxDir(id)

		if err := os.Mkdir(dir, DirMode); err != nil && !os.IsExist(err) {
			return 0, errors.Wrapf(err, "creating box directory %s", dir)
		}

		fi, err := os.Stat(dir)
		if err != nil {
			return 0, errors.Wrapf(err, "statting box directory %s", dir)
		}
		if !fi.IsDir() {
			continue
		}

		f, err := os.OpenFile(s.LockPath(id), os.O_RDWR|os.O_CREATE|os.O_EXCL, FileMode)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			sylog.Warningf("unexpected error claiming box %d: %s", id, err)
			continue
		}
		f.Close()

		fileRoot := s.FileRoot(id)
		if err := fsutil.RemoveAll(fileRoot); err != nil {
			return 0, errors.Wrapf(err, "clearing stale file_root for box %d", id)
		}
		if err := os.Mkdir(fileRoot, DirMode); err != nil {
			return 0, errors.Wrapf(err, "creating file_root for box %d", id)
		}

		return id, nil
	}
	return 0, errors.New("could not find a free box id")
}

// Delete removes the entire box_<id>/ tree, freeing id for reuse.
func (s *Store) Delete(id int) error {
	return fsutil.RemoveAll(s.BoxDir(id))
}

// Exists reports whether id's lock marker is present.
func (s *Store) Exists(id int) bool {
	_, err := os.Stat(s.LockPath(id))
	return err == nil
}

// RunLock acquires the per-execution critical section lock for id (spec
// §4.4 step 1). It layers an advisory flock.Flock on top of the primary
// O_EXCL discipline for filesystems (notably NFS) where bare O_EXCL is
// unreliable; the O_EXCL result is what correctness depends on (spec §8's
// "at most one proceeds" invariant), the flock layer is purely additive.
type RunLock struct {
	path string
	fl   *flock.Flock
}

// Acquire creates run_lock for id, failing if it already exists.
func (s *Store) Acquire(id int) (*RunLock, error) {
	path := s.RunLockPath(id)

	fl := flock.New(path + ".adv")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "acquiring advisory lock for box %d", id)
	}
	if !locked {
		return nil, errors.Errorf("box %d is already running", id)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, FileMode)
	if err != nil {
		fl.Unlock()
		if os.IsExist(err) {
			return nil, errors.Errorf("box %d is already running", id)
		}
		return nil, errors.Wrapf(err, "acquiring run lock for box %d", id)
	}
	f.Close()

	return &RunLock{path: path, fl: fl}, nil
}

// Release removes run_lock, ending the critical section.
func (l *RunLock) Release() error {
	defer l.fl.Unlock()
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing run lock %s", l.path)
	}
	return nil
}
