// Package result implements the CLI's output envelope (spec §6): every
// subcommand reports a single success/failure result plus any warnings
// collected along the way, rendered either as human-readable lines or as
// one JSON object, selected by the top-level -j/--json flag.
package result

import (
	"encoding/json"
	"fmt"
	"io"
)

// Message is one error or warning, carrying the code a Box reported it
// under (spec §7's error code catalog) alongside its human text.
type Message struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Result collects everything one CLI invocation has to report: whether
// the operation succeeded, any return value it produced, and every
// warning/error raised along the way through a Box's injected callbacks.
// The JSON form is exactly spec §6's envelope: { "result": <value>,
// "errors": [{"code":N,"message":S}], "warnings": […] }; OK is kept only
// to pick the process exit code and is not part of the wire format.
type Result struct {
	OK       bool        `json:"-"`
	Value    interface{} `json:"result,omitempty"`
	Warnings []Message   `json:"warnings,omitempty"`
	Errors   []Message   `json:"errors,omitempty"`
}

// New starts a Result, defaulting to success; call Fail or let a
// collected Error flip OK to false.
func New() *Result {
	return &Result{OK: true}
}

// Collector adapts a *Result into the box.ErrorFunc/box.WarnFunc shape so
// it can be handed directly to box.New/box.Register factories.
type Collector struct {
	r *Result
}

// NewCollector returns a Collector writing into r.
func NewCollector(r *Result) *Collector {
	return &Collector{r: r}
}

// Error implements box.ErrorFunc: records the error and marks the overall
// result as failed.
func (c *Collector) Error(code int, format string, args ...interface{}) {
	c.r.OK = false
	c.r.Errors = append(c.r.Errors, Message{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Warn implements box.WarnFunc: records the warning without affecting OK.
func (c *Collector) Warn(code int, format string, args ...interface{}) {
	c.r.Warnings = append(c.r.Warnings, Message{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Succeed sets the result's value and leaves OK as-is (false if any
// Error call already happened).
func (r *Result) Succeed(value interface{}) *Result {
	r.Value = value
	return r
}

// Fail marks the result as failed with one top-level error message, for
// failures that aren't routed through a Box's ErrorFunc (argument
// parsing, box-not-found, and the like).
func (r *Result) Fail(code int, format string, args ...interface{}) *Result {
	r.OK = false
	r.Errors = append(r.Errors, Message{Code: code, Message: fmt.Sprintf(format, args...)})
	return r
}

// WriteJSON renders r as a single JSON object.
func (r *Result) WriteJSON(w io.Writer) error {
	return json.NewEncoder(w).Encode(r)
}

// WriteHuman renders r the way a TTY reads it: warnings and errors one
// per line prefixed by their code, then the value if the operation
// succeeded and produced one.
func (r *Result) WriteHuman(w io.Writer) error {
	for _, m := range r.Warnings {
		if _, err := fmt.Fprintf(w, "warning[%d]: %s\n", m.Code, m.Message); err != nil {
			return err
		}
	}
	for _, m := range r.Errors {
		if _, err := fmt.Fprintf(w, "error[%d]: %s\n", m.Code, m.Message); err != nil {
			return err
		}
	}
	if r.OK && r.Value != nil {
		if _, err := fmt.Fprintf(w, "%v\n", r.Value); err != nil {
			return err
		}
	}
	return nil
}
