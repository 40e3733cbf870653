package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/dcge/internal/engine"
	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	StoreFlags
	NoStore    bool
	Jobs       int
	Policy     string
	OutDir     string
	ShowSource bool
}

// GenerateEntry is one intent's outcome in command output.
type GenerateEntry struct {
	Index      int      `json:"index"`
	Intent     string   `json:"intent"`
	ID         string   `json:"id,omitempty"`
	Seq        int64    `json:"seq,omitempty"`
	Success    bool     `json:"success"`
	Attempts   int      `json:"attempts,omitempty"`
	Source     string   `json:"source,omitempty"`
	SourceHash string   `json:"source_hash,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	ErrorCode  string   `json:"error_code,omitempty"`
	File       string   `json:"file,omitempty"`
}

// GenerateResult holds the overall generate result.
type GenerateResult struct {
	Results []GenerateEntry     `json:"results"`
	Summary engine.BatchSummary `json:"summary"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <intent-file|intent-dir>",
		Short: "Generate source code from intents",
		Long: `Generate source code for every intent in a YAML or CUE file, or in
every intent file of a directory.

Intents run concurrently (see --jobs) but results are reported and stored
in input order, and each one is byte-identical to a sequential run.

Exit codes:
  0 - Every intent produced source that passed validation
  1 - At least one intent failed validation or could not be generated
  2 - Command error (missing path, unreadable store, etc.)

Examples:
  dcge generate intents.yaml
  dcge generate ./intents --jobs 8 --out ./generated
  dcge generate intents.cue --no-store --show-source
  dcge generate intents.yaml --policy strict --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "store", "", "path to SQLite store (default from dcge.toml)")
	cmd.Flags().BoolVar(&opts.NoStore, "no-store", false, "do not persist artifacts")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", -1, "concurrent generations (default from dcge.toml; 0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "node policy override (degrade|strict)")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "write each generated source to this directory")
	cmd.Flags().BoolVar(&opts.ShowSource, "show-source", false, "print generated source (text format)")

	return cmd
}

func runGenerate(opts *GenerateOptions, path string, cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())

	specs, loadErrs, err := loadIntents(path)
	if err != nil {
		return err
	}
	if len(loadErrs) > 0 {
		return reportLoadErrors(cmd, opts.Format, path, loadErrs)
	}

	var st *store.Store
	if !opts.NoStore {
		st, err = openStore(storePath(cfg, opts.StoreFlags))
		if err != nil {
			return err
		}
		defer st.Close()
	}

	gen, err := newGenerator(ctx, cfg, st, logger, generatorSettings{Policy: opts.Policy})
	if err != nil {
		return err
	}

	jobs := cfg.Engine.Jobs
	if opts.Jobs >= 0 {
		jobs = opts.Jobs
	}
	logger.Info("generating", "intents", len(specs), "jobs", jobs, "path", path)

	results := gen.GenerateBatch(ctx, specs, jobs)
	out := GenerateResult{
		Results: make([]GenerateEntry, len(results)),
		Summary: engine.Summarize(results),
	}
	for i, r := range results {
		out.Results[i] = toEntry(r)
	}

	if opts.OutDir != "" {
		if err := writeSources(opts.OutDir, results, out.Results); err != nil {
			return WrapExitError(ExitCommandError, "failed to write sources", err)
		}
	}

	if opts.Format == "json" {
		var failure *CLIError
		if out.Summary.Failed+out.Summary.Errored > 0 {
			failure = &CLIError{Code: CodeGenerationFailed, Message: generateFailureMessage(out.Summary)}
		}
		return respond(cmd.OutOrStdout(), out, failure)
	}
	return outputGenerateText(cmd.OutOrStdout(), out, opts.ShowSource)
}

func toEntry(r engine.BatchResult) GenerateEntry {
	e := GenerateEntry{Index: r.Index, Intent: r.Intent.Label()}
	if r.Err != nil {
		e.Errors = []string{r.Err.Error()}
		var ge *engine.GenerateError
		if errors.As(r.Err, &ge) {
			e.ErrorCode = string(ge.Code)
		}
		return e
	}
	c := r.Code
	e.ID = c.ID
	e.Seq = c.Seq
	e.Success = c.Success()
	e.Attempts = c.Attempts
	e.Source = c.Source
	e.SourceHash = c.SourceHash
	e.Errors = c.Validation.Messages()
	e.Warnings = c.Validation.Warnings
	return e
}

// sourceExt maps a target to the file extension used by --out.
var sourceExt = map[intent.Language]string{
	intent.Rust:       ".rs",
	intent.Python:     ".py",
	intent.TypeScript: ".ts",
	intent.Go:         ".go",
}

// writeSources writes every produced source, successful or not, as
// {seq}_{name}{ext} so file order follows generation order.
func writeSources(dir string, results []engine.BatchResult, entries []GenerateEntry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, r := range results {
		if r.Code == nil {
			continue
		}
		name := r.Intent.Name
		if name == "" {
			name = string(r.Intent.Kind) + "_" + r.Intent.Operation
		}
		ext, ok := sourceExt[r.Intent.Language]
		if !ok {
			ext = ".txt"
		}
		file := filepath.Join(dir, fmt.Sprintf("%04d_%s%s", r.Code.Seq, name, ext))
		if err := os.WriteFile(file, []byte(r.Code.Source), 0o644); err != nil {
			return err
		}
		entries[i].File = file
	}
	return nil
}

func generateFailureMessage(s engine.BatchSummary) string {
	return fmt.Sprintf("%d of %d intents did not produce valid source", s.Failed+s.Errored, s.Total)
}

func outputGenerateText(w io.Writer, out GenerateResult, showSource bool) error {
	labels := make([]string, len(out.Results))
	for i, e := range out.Results {
		labels[i] = e.Intent
	}
	width := columnWidth(labels)

	for _, e := range out.Results {
		ok := e.Success && e.ErrorCode == ""
		fmt.Fprintf(w, "%s %s", mark(ok), padRight(e.Intent, width))
		switch {
		case e.ErrorCode != "":
			fmt.Fprintf(w, "  %s\n", failMark.Sprint(e.ErrorCode))
		default:
			fmt.Fprintf(w, "  seq=%d attempts=%d %s\n", e.Seq, e.Attempts, dimText.Sprint(e.ID))
		}
		for _, msg := range e.Errors {
			fmt.Fprintf(w, "    %s\n", failMark.Sprint(msg))
		}
		for _, msg := range e.Warnings {
			fmt.Fprintf(w, "    %s\n", warnText.Sprint("warning: "+msg))
		}
		if e.File != "" {
			fmt.Fprintf(w, "    → %s\n", e.File)
		}
		if showSource && e.Source != "" {
			fmt.Fprintln(w)
			for _, line := range strings.SplitAfter(strings.TrimSuffix(e.Source, "\n"), "\n") {
				fmt.Fprintf(w, "    %s", line)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w)
		}
	}

	s := out.Summary
	fmt.Fprintf(w, "\n%d intents: %d succeeded, %d failed, %d errored (%d repaired)\n",
		s.Total, s.Succeeded, s.Failed, s.Errored, s.Repaired)

	if s.Failed+s.Errored > 0 {
		return NewExitError(ExitFailure, generateFailureMessage(s))
	}
	return nil
}

// reportLoadErrors prints intent load errors and returns exit code 1, or 2
// when the path held no intents at all.
func reportLoadErrors(cmd *cobra.Command, format, path string, errs []error) error {
	code := ExitFailure
	for _, err := range errs {
		var le *intent.LoadError
		if errors.As(err, &le) && (le.Code == intent.ErrCodeNotFound || le.Code == intent.ErrCodeNoFiles) {
			code = ExitCommandError
		}
	}

	msg := fmt.Sprintf("%d intent error(s) in %s", len(errs), path)
	if format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: CodeInvalidIntents, Message: msg, Details: errorStrings(errs)},
		}); err != nil {
			return err
		}
		return NewExitError(code, msg)
	}

	w := cmd.OutOrStdout()
	for _, err := range errs {
		fmt.Fprintf(w, "%s %v\n", mark(false), err)
	}
	return NewExitError(code, msg)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
