package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // A generation, check, scenario or replay did not pass
	ExitCommandError = 2 // Command error (invalid paths, unreadable store, etc.)
)

// ExitError carries the process exit code for an error returned by a
// command.
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
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the JSON envelope for every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error codes used in JSON responses.
const (
	CodeGenerationFailed = "E_GENERATION"
	CodeInvalidIntents   = "E_INTENTS"
	CodeDeterminism      = "E_DETERMINISM"
	CodeScenarios        = "E_SCENARIOS"
)

// writeJSON encodes resp indented, without HTML escaping so generated
// source such as "a < b" stays readable.
func writeJSON(w io.Writer, resp CLIResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}

// respond writes data as an ok envelope, or as an error envelope carrying
// data when failure is non-nil. The returned error is the exit status.
func respond(w io.Writer, data any, failure *CLIError) error {
	resp := CLIResponse{Status: "ok", Data: data}
	if failure != nil {
		resp.Status = "error"
		resp.Error = failure
	}
	if err := writeJSON(w, resp); err != nil {
		return err
	}
	if failure != nil {
		return NewExitError(ExitFailure, failure.Message)
	}
	return nil
}

var (
	okMark   = color.New(color.FgGreen, color.Bold)
	failMark = color.New(color.FgRed, color.Bold)
	warnText = color.New(color.FgYellow)
	dimText  = color.New(color.Faint)
)

func mark(ok bool) string {
	if ok {
		return okMark.Sprint("✓")
	}
	return failMark.Sprint("✗")
}

// applyColorMode sets the global color switch. In auto mode color is only
// used when w is a terminal and NO_COLOR is unset.
func applyColorMode(mode string, w io.Writer) {
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		f, ok := w.(*os.File)
		color.NoColor = !ok || !term.IsTerminal(int(f.Fd())) || os.Getenv("NO_COLOR") != ""
	}
}

// padRight pads s with spaces to width display columns.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// columnWidth returns the widest display width among values.
func columnWidth(values []string) int {
	w := 0
	for _, v := range values {
		w = max(w, runewidth.StringWidth(v))
	}
	return w
}
