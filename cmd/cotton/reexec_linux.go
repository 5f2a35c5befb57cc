//go:build linux

package main

import (
	"github.com/spf13/cobra"
	"github.com/sylabs/cotton/internal/pkg/box/unix"
)

// reexecCmd is the hidden second life of the cotton binary: run_linux.go
// re-execs the process with this as argv[1], then hands it a
// BootstrapConfig across a pipe (see internal/pkg/box/unix/init_linux.go).
// It must never be documented or discoverable through `cotton help`.
var reexecCmd = &cobra.Command{
	Use:    unix.ReexecSentinel,
	Hidden: true,
	Run: func(cmd *cobra.Command, args []string) {
		unix.Init()
	},
}

func init() {
	rootCmd.AddCommand(reexecCmd)
}
