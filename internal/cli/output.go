package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/possync/internal/pos"
)

// Process exit statuses. A rejected sale or a failed sync exits 1; a
// command that never reached the engine (bad flags, unreadable store) exits 2.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// ExitError carries the status main should exit with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to an exit status; plain errors exit 1.
func GetExitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitFailure
}

// OutputFormatter prints command results as text or as one JSON envelope
// per call. Diagnostics go to ErrWriter when it is set.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// Envelope is the --format json shape. Status is "ok" or "error".
type Envelope struct {
	Status string   `json:"status"`
	Data   any      `json:"data,omitempty"`
	Error  *Problem `json:"error,omitempty"`
}

// Problem describes a failed command. Code is a pos error code such as
// VALIDATION, or ERROR when the cause carries none.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

func (f *OutputFormatter) emit(env Envelope) error {
	return json.NewEncoder(f.Writer).Encode(env)
}

// Success prints text, or data inside an "ok" envelope.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.isJSON() {
		return f.emit(Envelope{Status: "ok", Data: data})
	}
	if text != "" {
		fmt.Fprintln(f.Writer, text)
	}
	return nil
}

func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return f.emit(Envelope{Status: "error", Error: &Problem{Code: code, Message: message, Details: details}})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports a domain error and returns the matching ExitError.
func (f *OutputFormatter) Fail(message string, err error) error {
	code := string(pos.CodeOf(err))
	if code == "" {
		code = "ERROR"
	}
	_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(ExitFailure, message, err)
}

func (f *OutputFormatter) diag() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// VerboseLog prints a diagnostic line when --verbose is set. It never
// writes into a JSON stream that has an ErrWriter to go to.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.diag(), format+"\n", args...)
	}
}
