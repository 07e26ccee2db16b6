package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Exit codes returned by the bundlekeys binary.
const (
	ExitSuccess      = 0 // every command succeeded
	ExitFailure      = 1 // session rejected, run aborted, scenario failed
	ExitCommandError = 2 // bad flags, missing credentials, unreadable journal

	// ExitInterrupted is 128+SIGINT. Settled entries are already in the
	// ledger, so the next run picks up where this one stopped.
	ExitInterrupted = 130
)

// ExitError carries the process exit code alongside the message shown to
// the user.
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

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError that unwraps to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode reports the exit code carried anywhere in err's chain, or
// ExitFailure when there is none.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		return ExitFailure
	}
	return exitErr.Code
}

// ErrorCode maps an exit code to the code field of a JSON error response.
func ErrorCode(exitCode int) string {
	switch exitCode {
	case ExitCommandError:
		return "E_COMMAND"
	case ExitInterrupted:
		return "E_INTERRUPTED"
	default:
		return "E_RUN"
	}
}

// CLIResponse is the envelope every --format json command writes.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	RunID  string    `json:"run_id,omitempty"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failed command in a JSON response.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results in the format picked by --format.
// Text rendering stays with each command; the formatter owns the JSON
// envelope and the shape of error reports.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
}

// JSON reports whether results should be written as a CLIResponse.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Respond writes data inside an indented CLIResponse. A failed result
// still carries its data so callers can inspect what went wrong.
func (f *OutputFormatter) Respond(ok bool, runID string, data any) error {
	resp := CLIResponse{Status: "ok", RunID: runID, Data: data}
	if !ok {
		resp.Status = "error"
	}
	return f.encode(resp)
}

// Error reports a failed command. In text mode details are shown only
// with --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if f.Verbose && details != nil {
		_, err := fmt.Fprintf(f.Writer, "Details: %v\n", details)
		return err
	}
	return nil
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
