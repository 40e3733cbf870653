package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	StoreFlags
	Language   string
	IntentHash string
	Failed     bool
	Limit      int
}

// HistoryEntry is one stored generation in a listing.
type HistoryEntry struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Intent     string `json:"intent"`
	Success    bool   `json:"success"`
	Attempts   int    `json:"attempts"`
	IntentHash string `json:"intent_hash"`
	SourceHash string `json:"source_hash"`
	Errors     int    `json:"errors"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored generations",
		Long: `List stored generations in log order (seq, then id).

Examples:
  dcge history
  dcge history --language rust --failed
  dcge history --limit 20 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "store", "", "path to SQLite store (default from dcge.toml)")
	cmd.Flags().StringVar(&opts.Language, "language", "", "only this target language")
	cmd.Flags().StringVar(&opts.IntentHash, "intent-hash", "", "only generations of this intent")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only generations that failed validation")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "only the last N generations (0 = all)")

	return cmd
}

func (o *HistoryOptions) filter() store.Filter {
	return store.Filter{
		Language:   intent.Language(o.Language),
		IntentHash: o.IntentHash,
		FailedOnly: o.Failed,
		Limit:      o.Limit,
	}
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must be non-negative")
	}
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	st, err := openExistingStore(storePath(cfg, opts.StoreFlags))
	if err != nil {
		return err
	}
	defer st.Close()

	gens, err := st.ListGenerations(cmdContext(cmd), opts.filter())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list generations", err)
	}

	entries := make([]HistoryEntry, len(gens))
	for i, g := range gens {
		entries[i] = HistoryEntry{
			ID:         g.ID,
			Seq:        g.Seq,
			Intent:     g.Intent.Label(),
			Success:    g.Success,
			Attempts:   g.Attempts,
			IntentHash: g.IntentHash,
			SourceHash: g.SourceHash,
			Errors:     len(g.Errors),
		}
	}

	if opts.Format == "json" {
		return respond(cmd.OutOrStdout(), entries, nil)
	}
	outputHistoryText(cmd.OutOrStdout(), entries)
	return nil
}

func outputHistoryText(w io.Writer, entries []HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No generations found.")
		return
	}

	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = e.Intent
	}
	width := columnWidth(labels)

	for _, e := range entries {
		fmt.Fprintf(w, "%6d %s %s  attempts=%d  %s\n",
			e.Seq, mark(e.Success), padRight(e.Intent, width), e.Attempts, dimText.Sprint(e.ID))
	}
}

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	StoreFlags
}

// ShowResult is a single stored generation in full.
type ShowResult struct {
	ID         string      `json:"id"`
	Seq        int64       `json:"seq"`
	Intent     intent.Spec `json:"intent"`
	Success    bool        `json:"success"`
	Attempts   int         `json:"attempts"`
	IntentHash string      `json:"intent_hash"`
	TreeHash   string      `json:"tree_hash"`
	SourceHash string      `json:"source_hash"`
	Errors     []string    `json:"errors"`
	Warnings   []string    `json:"warnings"`
	DurationNS int64       `json:"duration_ns"`
	Source     string      `json:"source"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one stored generation and its source",
		Long: `Print a stored generation: its intent, hashes, validation errors and
the generated source.

Examples:
  dcge show 0192f3c4-7d2e-7c1a-9b1e-3f6a2d8c4e10
  dcge show gen-0001 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "store", "", "path to SQLite store (default from dcge.toml)")

	return cmd
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	st, err := openExistingStore(storePath(cfg, opts.StoreFlags))
	if err != nil {
		return err
	}
	defer st.Close()

	g, err := st.ReadGeneration(cmdContext(cmd), id)
	if errors.Is(err, store.ErrNotFound) {
		return WrapExitError(ExitFailure, "unknown generation", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read generation", err)
	}

	res := ShowResult{
		ID:         g.ID,
		Seq:        g.Seq,
		Intent:     g.Intent,
		Success:    g.Success,
		Attempts:   g.Attempts,
		IntentHash: g.IntentHash,
		TreeHash:   g.TreeHash,
		SourceHash: g.SourceHash,
		Errors:     make([]string, len(g.Errors)),
		Warnings:   g.Warnings,
		DurationNS: g.Duration.Nanoseconds(),
		Source:     g.Source,
	}
	for i, is := range g.Errors {
		res.Errors[i] = is.String()
	}

	if opts.Format == "json" {
		return respond(cmd.OutOrStdout(), res, nil)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s\n", mark(res.Success), res.Intent.Label())
	fmt.Fprintf(w, "  id:          %s\n", res.ID)
	fmt.Fprintf(w, "  seq:         %d\n", res.Seq)
	fmt.Fprintf(w, "  attempts:    %d\n", res.Attempts)
	fmt.Fprintf(w, "  intent hash: %s\n", res.IntentHash)
	fmt.Fprintf(w, "  tree hash:   %s\n", res.TreeHash)
	fmt.Fprintf(w, "  source hash: %s\n", res.SourceHash)
	if len(res.Intent.Constraints) > 0 {
		fmt.Fprintf(w, "  constraints: %s\n", strings.Join(res.Intent.Constraints, "; "))
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  %s\n", failMark.Sprint(e))
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  %s\n", warnText.Sprint("warning: "+warn))
	}
	fmt.Fprintf(w, "\n%s", res.Source)
	return nil
}
