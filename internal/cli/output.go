package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation findings or failed rules
	ExitCommandError = 2 // Command error (bad input, config, model or store failure)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitCommandError (2) if the error is not an ExitError: those come
// from argument and flag parsing.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// JSON reports whether output is machine-readable.
func (f *OutputFormatter) JSON() bool { return f.Format == "json" }

// Success writes data in the JSON envelope. In text mode it does nothing:
// text rendering is command-specific.
func (f *OutputFormatter) Success(data interface{}) error {
	if !f.JSON() {
		return nil
	}
	return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
}

// Fail reports err in the configured format and returns it for the caller
// to propagate.
func (f *OutputFormatter) Fail(err error) error {
	if f.JSON() {
		json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: err.Error()})
		return err
	}
	fmt.Fprintf(f.errWriter(), "Error: %v\n", err)
	return err
}

// Printf writes text-mode output.
func (f *OutputFormatter) Printf(format string, args ...interface{}) {
	if f.JSON() {
		return
	}
	fmt.Fprintf(f.Writer, format, args...)
}

// Warnf writes a diagnostic line to the error writer in either format.
func (f *OutputFormatter) Warnf(format string, args ...interface{}) {
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
