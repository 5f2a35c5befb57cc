// Package fsutil provides the recursive-delete and mkdir-p helpers the box
// store and namespace backend use. These are deliberately thin collaborators
// (spec §1 "OUT OF SCOPE"): the core only needs stdlib semantics here,
// grounded on the original rm_rf/mkdirs shape in util.cpp.
package fsutil

import (
	"os"

	"github.com/pkg/errors"
)

// RemoveAll recursively removes path, treating "does not exist" as success
// the way the original rm_rf tolerates ENOENT.
func RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", path)
	}
	return nil
}

// MkdirAll creates path and any missing parents with the given mode,
// tolerating "already exists" the way mkdirs does.
func MkdirAll(path string, mode os.FileMode) error {
	if err := os.MkdirAll(path, mode); err != nil && !os.IsExist(err) {
		return errors.Wrapf(err, "creating %s", path)
	}
	return nil
}
