package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/roach88/casebook/internal/firmlock"
	"github.com/roach88/casebook/internal/store"
	"github.com/roach88/casebook/internal/validate"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Data rejected: validation failures, missing edit reason
	ExitCommandError = 2 // Command error (unknown firm, missing dataset, lock timeout, bad config, etc.)
)

// Error codes reported by the CLI in addition to store codes.
const (
	ErrCodeConfig      = "CONFIG_INVALID"
	ErrCodeLockTimeout = "LOCK_TIMEOUT"
	ErrCodeUsage       = "USAGE"
	ErrCodeGeneric     = "ERROR"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // store code or one of the ErrCode constants
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Marks honor color.NoColor at print time.
var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

func okMark() string   { return green("✓") }
func failMark() string { return red("✗") }
func warnMark() string { return yellow("!") }

// JSON reports whether output is machine-readable.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.JSON() {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Printf writes text output. It is a no-op in JSON mode.
func (f *OutputFormatter) Printf(format string, args ...interface{}) {
	if f.JSON() {
		return
	}
	fmt.Fprintf(f.Writer, format, args...)
}

// OK prints a green check line in text mode.
func (f *OutputFormatter) OK(format string, args ...interface{}) {
	f.Printf("%s %s\n", okMark(), fmt.Sprintf(format, args...))
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.JSON() {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "%s Error [%s]: %s\n", failMark(), code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %+v\n", details)
	}
	return nil
}

// Fail reports err in the configured format and returns the ExitError the
// command should return.
func (f *OutputFormatter) Fail(err error) error {
	code, exit := classify(err)
	return f.FailCode(code, exit, err)
}

// FailCode is Fail with an explicit code and exit status.
func (f *OutputFormatter) FailCode(code string, exit int, err error) error {
	message := strings.TrimPrefix(err.Error(), code+": ")
	_ = f.Error(code, message, details(err))
	return WrapExitError(exit, code, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// classify maps an error to its reported code and exit status.
func classify(err error) (string, int) {
	var usage *flagError
	if errors.As(err, &usage) {
		return ErrCodeUsage, ExitCommandError
	}
	var timeout *firmlock.TimeoutError
	if errors.As(err, &timeout) {
		return ErrCodeLockTimeout, ExitCommandError
	}
	var invalid *validate.Error
	if errors.As(err, &invalid) && store.CodeOf(err) == "" {
		return string(store.CodeValidationFailed), ExitFailure
	}

	switch code := store.CodeOf(err); code {
	case "":
		return ErrCodeGeneric, ExitCommandError
	case store.CodeValidationFailed, store.CodeReasonRequired:
		return string(code), ExitFailure
	default:
		return string(code), ExitCommandError
	}
}

// details extracts the structured context of known error types.
func details(err error) interface{} {
	var se *store.Error
	if errors.As(err, &se) {
		d := map[string]string{}
		for k, v := range map[string]string{"firm": se.Firm, "key": se.Key, "field": se.Field, "rule": se.Rule} {
			if v != "" {
				d[k] = v
			}
		}
		if len(d) == 0 {
			return nil
		}
		return d
	}
	var timeout *firmlock.TimeoutError
	if errors.As(err, &timeout) {
		return map[string]string{
			"firm":   timeout.Firm,
			"path":   timeout.Path,
			"waited": timeout.Waited.String(),
			"holder": timeout.Holder,
		}
	}
	var invalid *validate.Error
	if errors.As(err, &invalid) {
		return invalid.Violations
	}
	return nil
}
