package main

import (
	"github.com/spf13/cobra"
	"github.com/sylabs/cotton/internal/pkg/result"
)

func init() {
	rootCmd.AddCommand(redirectCmd, mountCmd, umountCmd)
}

var redirectCmd = &cobra.Command{
	Use:   "redirect <id> <stdin|stdout|stderr> <path>",
	Short: "Redirect one of a box's standard streams to a file inside file_root",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := result.New()
		b, store, _, ok := loadBox(args[0], r)
		if !ok {
			emit(r)
			return nil
		}

		var setOK bool
		switch args[1] {
		case "stdin":
			setOK = b.RedirectStdin(args[2])
		case "stdout":
			setOK = b.RedirectStdout(args[2])
		case "stderr":
			setOK = b.RedirectStderr(args[2])
		default:
			r.Fail(1, "unknown stream %q", args[1])
			emit(r)
			return nil
		}

		if setOK {
			saveBox(store, b, r)
			r.Succeed(nil)
		}
		emit(r)
		return nil
	},
}

var mountRW bool

var mountCmd = &cobra.Command{
	Use:   "mount <id> <inner> <outer>",
	Short: "Bind mount a host path into a box's file_root (namespace backend only)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := result.New()
		b, store, _, ok := loadBox(args[0], r)
		if !ok {
			emit(r)
			return nil
		}
		if b.Mount(args[1], args[2], mountRW) {
			saveBox(store, b, r)
			r.Succeed(nil)
		}
		emit(r)
		return nil
	},
}

var umountCmd = &cobra.Command{
	Use:   "umount <id> <inner>",
	Short: "Remove a previously configured bind mount",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := result.New()
		b, store, _, ok := loadBox(args[0], r)
		if !ok {
			emit(r)
			return nil
		}
		if b.Umount(args[1]) {
			saveBox(store, b, r)
			r.Succeed(nil)
		} else {
			r.Fail(1, "no mount at %q", args[1])
		}
		emit(r)
		return nil
	},
}

func init() {
	mountCmd.Flags().BoolVar(&mountRW, "rw", false, "mount read-write instead of read-only")
}
