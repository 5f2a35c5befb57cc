// Package sylog provides cotton's process-wide leveled logger, along with
// the ErrorFunc/WarnFunc callback types the box contract uses to report
// fatal errors and non-fatal warnings without owning a logger itself.
package sylog

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var std = logrus.New()

func init() {
	std.SetOutput(os.Stderr)
	std.SetLevel(logrus.InfoLevel)
	std.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    color.NoColor,
	})
}

// SetLevel adjusts the logger's verbosity. debug enables Debugf output,
// silent suppresses everything below Errorf.
func SetLevel(debug, verbose, silent bool) {
	switch {
	case silent:
		std.SetLevel(logrus.ErrorLevel)
	case debug:
		std.SetLevel(logrus.DebugLevel)
	case verbose:
		std.SetLevel(logrus.InfoLevel)
	default:
		std.SetLevel(logrus.WarnLevel)
	}
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func Debugf(format string, args ...interface{}) {
	std.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	std.Infof(format, args...)
}

func Warningf(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

// Fatalf logs at error level and terminates the process, matching the
// teacher's sylog.Fatalf calling convention used at unrecoverable points in
// the starter/master lifecycle.
func Fatalf(format string, args ...interface{}) {
	std.Errorf(format, args...)
	os.Exit(255)
}

// ErrorFunc and WarnFunc are the injected callbacks the box contract reports
// through (spec §4.1, §7). They are not owned by any Box implementation and
// must remain valid for the lifetime of the call that receives them.
type ErrorFunc func(code int, format string, args ...interface{})

type WarnFunc func(code int, format string, args ...interface{})

// DefaultError is an ErrorFunc that logs through the package logger,
// suitable for callers that don't need to collect errors into a result
// envelope (see internal/pkg/result for the CLI's collecting variant).
func DefaultError(code int, format string, args ...interface{}) {
	Errorf("[%d] %s", code, fmt.Sprintf(format, args...))
}

// DefaultWarn is the warning analogue of DefaultError.
func DefaultWarn(code int, format string, args ...interface{}) {
	Warningf("[%d] %s", code, fmt.Sprintf(format, args...))
}
