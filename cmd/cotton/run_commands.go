package main

import (
	"github.com/spf13/cobra"
	"github.com/sylabs/cotton/internal/pkg/box"
	"github.com/sylabs/cotton/internal/pkg/result"
)

func init() {
	rootCmd.AddCommand(runCmd,
		statCommand("running-time", "Print the CPU time the last run used, in seconds",
			func(s box.Stats) interface{} { return s.RunningTime }),
		statCommand("wall-time", "Print the wall clock time the last run took, in seconds",
			func(s box.Stats) interface{} { return s.WallTime }),
		statCommand("memory-usage", "Print the peak memory usage of the last run, in bytes",
			func(s box.Stats) interface{} { return s.MemoryUsage.Bytes() }),
		statCommand("status", "Print the exit status of the last run",
			func(s box.Stats) interface{} { return s.ExitStatus }),
		statCommand("return-code", "Print the return code of the last run",
			func(s box.Stats) interface{} { return s.ReturnCode }),
		statCommand("signal", "Print the signal that terminated the last run, if any",
			func(s box.Stats) interface{} { return s.Signal }),
	)
}

var runCmd = &cobra.Command{
	Use:   "run <id> <command> [args...]",
	Short: "Run a command inside a box, blocking until it exits or is killed",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := result.New()
		b, store, _, ok := loadBox(args[0], r)
		if !ok {
			emit(r)
			return nil
		}

		succeeded := b.Run(args[1], args[2:])
		saveBox(store, b, r)
		if succeeded {
			r.Succeed(b.LastStats().ExitStatus)
		}
		emit(r)
		return nil
	},
}

func statCommand(use, short string, get func(box.Stats) interface{}) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := result.New()
			b, _, _, ok := loadBox(args[0], r)
			if !ok {
				emit(r)
				return nil
			}
			r.Succeed(get(b.LastStats()))
			emit(r)
			return nil
		},
	}
}
