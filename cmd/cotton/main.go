// Command cotton is a CLI sandbox execution supervisor: it allocates
// persistent "boxes", configures resource limits and I/O redirection on
// them, runs one command inside a box at a time, and reports statistics
// and exit status from the last run.
package main

import (
	"os"

	"github.com/sylabs/cotton/internal/pkg/sylog"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		sylog.Fatalf("%s", err)
	}
	os.Exit(exitCode)
}
