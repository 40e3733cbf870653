package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/dcge/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario-file|scenario-dir>",
		Short: "Run scenario conformance tests",
		Long: `Run scenario files through a fresh in-memory engine and check each
case's expectations and the scenario's assertions.

When a golden/ directory sits next to a scenario file, the scenario's
trace is also compared with golden/<name>.golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, bad filter, etc.)

Examples:
  dcge test ./scenarios
  dcge test ./scenarios --filter "repair*"
  dcge test ./scenarios --update
  dcge test ./scenarios/mixed.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, path string, cmd *cobra.Command) error {
	suite, err := harness.RunSuite(cmdContext(cmd), path, opts.Filter, harness.WithGolden(opts.Update))
	var nf *harness.ScenarioNotFoundError
	if errors.As(err, &nf) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios not found: %s", path))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenarios", err)
	}

	var failure *CLIError
	if suite.Failed > 0 {
		failure = &CLIError{
			Code:    CodeScenarios,
			Message: fmt.Sprintf("%d scenario(s) failed", suite.Failed),
		}
	}

	if opts.Format == "json" {
		return respond(cmd.OutOrStdout(), suite, failure)
	}
	outputTestText(cmd.OutOrStdout(), suite, opts.Update)
	if failure != nil {
		return NewExitError(ExitFailure, failure.Message)
	}
	return nil
}

func outputTestText(w io.Writer, suite *harness.SuiteResult, updated bool) {
	if suite.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}

	for _, s := range suite.Scenarios {
		suffix := ""
		if updated && s.Pass {
			suffix = dimText.Sprint(" (golden updated)")
		}
		fmt.Fprintf(w, "%s %s%s\n", mark(s.Pass), s.Name, suffix)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", suite.Passed, suite.Failed, suite.Total)
	if suite.Failed == 0 {
		fmt.Fprintln(w, okMark.Sprint("✓")+" All scenarios passed")
	}
}
