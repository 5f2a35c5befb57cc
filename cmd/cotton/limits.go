package main

import (
	"strconv"
	"time"

	goUnits "github.com/docker/go-units"
	"github.com/spf13/cobra"
	"github.com/sylabs/cotton/internal/pkg/box"
	"github.com/sylabs/cotton/internal/pkg/result"
	"github.com/sylabs/cotton/pkg/units"
)

func init() {
	rootCmd.AddCommand(
		limitCommand("memory-limit", "Get or set a box's memory limit (accepts a byte count or a size like 256MiB)",
			func(b box.Box) int64 { return b.MemoryLimit().Bytes() },
			func(b box.Box, v int64) bool { return b.SetMemoryLimit(units.SpaceFromBytes(v)) },
			goUnits.RAMInBytes),
		limitCommand("disk-limit", "Get or set a box's disk usage limit (accepts a byte count or a size like 1GiB)",
			func(b box.Box) int64 { return b.DiskLimit().Bytes() },
			func(b box.Box, v int64) bool { return b.SetDiskLimit(units.SpaceFromBytes(v)) },
			goUnits.RAMInBytes),
		limitCommand("cpu-limit", "Get or set a box's CPU time limit (accepts a microsecond count or a duration like 30s)",
			func(b box.Box) int64 { return b.CPULimit().Microseconds() },
			func(b box.Box, v int64) bool { return b.SetCPULimit(units.Time(v)) },
			parseDurationMicros),
		limitCommand("wall-limit", "Get or set a box's wall clock time limit (accepts a microsecond count or a duration like 500ms)",
			func(b box.Box) int64 { return b.WallTimeLimit().Microseconds() },
			func(b box.Box, v int64) bool { return b.SetWallTimeLimit(units.Time(v)) },
			parseDurationMicros),
		processLimitCmd,
	)
}

// parseDurationMicros accepts either a bare microsecond count or a Go
// duration string (e.g. "30s", "500ms"), so cpu-limit and wall-limit take
// the same kind of human-friendly value docker/go-units gives the byte
// limits below.
func parseDurationMicros(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d.Microseconds(), nil
}

// limitCommand builds the shared shape of the four scalar limit commands:
// called with no argument it reports the current value, called with one
// it sets and persists it. parse turns the command-line string into the
// raw integer unit set expects (bytes or microseconds).
func limitCommand(use, short string, get func(box.Box) int64, set func(box.Box, int64) bool, parse func(string) (int64, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id> [value]",
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := result.New()
			b, store, _, ok := loadBox(args[0], r)
			if !ok {
				emit(r)
				return nil
			}

			if len(args) == 1 {
				r.Succeed(get(b))
				emit(r)
				return nil
			}

			v, err := parse(args[1])
			if err != nil {
				r.Fail(1, "invalid value %q", args[1])
				emit(r)
				return nil
			}
			if set(b, v) {
				saveBox(store, b, r)
				r.Succeed(nil)
			}
			emit(r)
			return nil
		},
	}
}

var processLimitCmd = &cobra.Command{
	Use:   "process-limit <id> [value]",
	Short: "Get or set a box's process count limit",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := result.New()
		b, store, _, ok := loadBox(args[0], r)
		if !ok {
			emit(r)
			return nil
		}

		if len(args) == 1 {
			r.Succeed(b.ProcessLimit())
			emit(r)
			return nil
		}

		v, err := strconv.Atoi(args[1])
		if err != nil {
			r.Fail(1, "invalid value %q", args[1])
			emit(r)
			return nil
		}
		if b.SetProcessLimit(v) {
			saveBox(store, b, r)
			r.Succeed(nil)
		}
		emit(r)
		return nil
	},
}
