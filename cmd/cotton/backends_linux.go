//go:build linux

package main

// Blank-imported so their init() functions register with the box
// registry; cotton has no backends to offer on a non-Linux build.
import (
	_ "github.com/sylabs/cotton/internal/pkg/box/namespace"
	_ "github.com/sylabs/cotton/internal/pkg/box/unix"
)
