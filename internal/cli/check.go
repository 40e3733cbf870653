package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/dcge/internal/target"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
}

// CheckEntry is one loaded intent and whether its target implements it.
type CheckEntry struct {
	Intent    string `json:"intent"`
	Supported bool   `json:"supported"`
	Reason    string `json:"reason,omitempty"`
}

// CheckResult holds the check command's output.
type CheckResult struct {
	Intents     []CheckEntry `json:"intents"`
	Errors      []string     `json:"errors,omitempty"`
	Valid       int          `json:"valid"`
	Unsupported int          `json:"unsupported"`
	Invalid     int          `json:"invalid"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <intent-file|intent-dir>",
		Short: "Validate intent files without generating",
		Long: `Load and validate intents, and report which (language, kind)
combinations are implemented. Nothing is generated or stored.

Exit codes:
  0 - Every intent is well formed and implemented
  1 - At least one intent is malformed or unsupported
  2 - Command error (missing path, no intent files)

Examples:
  dcge check intents.yaml
  dcge check ./intents --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	specs, loadErrs, err := loadIntents(path)
	if err != nil {
		return err
	}

	result := CheckResult{
		Intents: make([]CheckEntry, 0, len(specs)),
		Errors:  errorStrings(loadErrs),
		Invalid: len(loadErrs),
	}
	for _, spec := range specs {
		entry := CheckEntry{Intent: spec.Label(), Supported: true}
		prof, err := target.Lookup(spec.Language)
		switch {
		case err != nil:
			entry.Supported = false
			entry.Reason = err.Error()
		case !prof.Supports(spec.Kind):
			entry.Supported = false
			entry.Reason = fmt.Sprintf("%s does not implement %s intents", spec.Language, spec.Kind)
		}
		if entry.Supported {
			result.Valid++
		} else {
			result.Unsupported++
		}
		result.Intents = append(result.Intents, entry)
	}

	if len(loadErrs) > 0 && len(specs) == 0 {
		return reportLoadErrors(cmd, opts.Format, path, loadErrs)
	}

	var failure *CLIError
	if result.Invalid+result.Unsupported > 0 {
		failure = &CLIError{
			Code:    CodeInvalidIntents,
			Message: fmt.Sprintf("%d invalid and %d unsupported intent(s)", result.Invalid, result.Unsupported),
		}
	}

	if opts.Format == "json" {
		return respond(cmd.OutOrStdout(), result, failure)
	}

	w := cmd.OutOrStdout()
	for _, msg := range result.Errors {
		fmt.Fprintf(w, "%s %s\n", mark(false), msg)
	}
	for _, e := range result.Intents {
		if e.Supported {
			fmt.Fprintf(w, "%s %s\n", mark(true), e.Intent)
			continue
		}
		fmt.Fprintf(w, "%s %s: %s\n", mark(false), e.Intent, e.Reason)
	}
	fmt.Fprintf(w, "\n%d valid, %d unsupported, %d invalid\n", result.Valid, result.Unsupported, result.Invalid)

	if failure != nil {
		return NewExitError(ExitFailure, failure.Message)
	}
	return nil
}
