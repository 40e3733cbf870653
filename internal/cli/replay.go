package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/dcge/internal/engine"
	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	StoreFlags
	Language  string
	Limit     int
	Divergent bool
}

// ReplayEntry is the replay outcome of one stored generation.
type ReplayEntry struct {
	ID             string `json:"id"`
	Seq            int64  `json:"seq"`
	Intent         string `json:"intent"`
	Match          bool   `json:"match"`
	StoredSource   string `json:"stored_source_hash"`
	ReplayedSource string `json:"replayed_source_hash,omitempty"`
	Error          string `json:"error,omitempty"`
}

// DivergentIntent is an intent whose stored generations disagree.
type DivergentIntent struct {
	IntentHash   string   `json:"intent_hash"`
	Generations  int      `json:"generations"`
	SourceHashes []string `json:"source_hashes"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Entries       []ReplayEntry     `json:"entries"`
	Divergent     []DivergentIntent `json:"divergent,omitempty"`
	Total         int               `json:"total"`
	Mismatched    int               `json:"mismatched"`
	Deterministic bool              `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [id]",
		Short: "Regenerate stored intents and verify determinism",
		Long: `Regenerate stored generations under their original id and seq and
compare tree and source hashes with what was stored. Nothing is written.

With --divergent the store is also searched for intents whose stored
generations disagree with each other.

Exit codes:
  0 - Every replay reproduced the stored generation
  1 - At least one replay diverged
  2 - Command error (store not found, unknown id, etc.)

Examples:
  dcge replay
  dcge replay gen-0001
  dcge replay --language go --limit 50
  dcge replay --divergent --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runReplay(opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "store", "", "path to SQLite store (default from dcge.toml)")
	cmd.Flags().StringVar(&opts.Language, "language", "", "only this target language")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "only the last N generations (0 = all)")
	cmd.Flags().BoolVar(&opts.Divergent, "divergent", false, "also report intents with conflicting stored sources")

	return cmd
}

func runReplay(opts *ReplayOptions, id string, cmd *cobra.Command) error {
	ctx := cmdContext(cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	st, err := openExistingStore(storePath(cfg, opts.StoreFlags))
	if err != nil {
		return err
	}
	defer st.Close()

	gen, err := newGenerator(ctx, cfg, nil, newLogger(opts.Verbose, cmd.ErrOrStderr()), generatorSettings{})
	if err != nil {
		return err
	}

	var results []engine.ReplayResult
	if id != "" {
		r, err := gen.Replay(ctx, st, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown generation: %s", id))
		case engine.IsCancelled(err):
			return WrapExitError(ExitCommandError, "replay interrupted", err)
		case err != nil && r.Stored.ID == "":
			return WrapExitError(ExitCommandError, "replay failed", err)
		}
		results = []engine.ReplayResult{r}
	} else {
		results, err = gen.ReplayAll(ctx, st, store.Filter{
			Language: intent.Language(opts.Language),
			Limit:    opts.Limit,
		})
		if engine.IsCancelled(err) {
			return WrapExitError(ExitCommandError, "replay interrupted", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "replay failed", err)
		}
	}

	result := ReplayResult{Entries: make([]ReplayEntry, 0, len(results))}
	for _, r := range results {
		e := ReplayEntry{
			ID:           r.Stored.ID,
			Seq:          r.Stored.Seq,
			Intent:       r.Stored.Intent.Label(),
			Match:        r.Match(),
			StoredSource: r.Stored.SourceHash,
		}
		if r.Replayed != nil {
			e.ReplayedSource = r.Replayed.SourceHash
		} else {
			e.Error = "could not regenerate"
		}
		if !e.Match {
			result.Mismatched++
		}
		result.Entries = append(result.Entries, e)
	}
	result.Total = len(result.Entries)

	if opts.Divergent {
		div, err := st.FindDivergent(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to search for divergent intents", err)
		}
		for _, d := range div {
			result.Divergent = append(result.Divergent, DivergentIntent(d))
		}
	}
	result.Deterministic = result.Mismatched == 0 && len(result.Divergent) == 0

	var failure *CLIError
	if !result.Deterministic {
		failure = &CLIError{
			Code:    CodeDeterminism,
			Message: fmt.Sprintf("%d of %d replays diverged, %d divergent intents", result.Mismatched, result.Total, len(result.Divergent)),
		}
	}

	if opts.Format == "json" {
		return respond(cmd.OutOrStdout(), result, failure)
	}
	outputReplayText(cmd.OutOrStdout(), result)
	if failure != nil {
		return NewExitError(ExitFailure, failure.Message)
	}
	return nil
}

func outputReplayText(w io.Writer, result ReplayResult) {
	if result.Total == 0 && len(result.Divergent) == 0 {
		fmt.Fprintln(w, "No generations found.")
		return
	}

	labels := make([]string, len(result.Entries))
	for i, e := range result.Entries {
		labels[i] = e.Intent
	}
	width := columnWidth(labels)

	for _, e := range result.Entries {
		fmt.Fprintf(w, "%s %s  %s\n", mark(e.Match), padRight(e.Intent, width), dimText.Sprint(e.ID))
		if !e.Match {
			fmt.Fprintf(w, "    stored:   %s\n", e.StoredSource)
			if e.Error != "" {
				fmt.Fprintf(w, "    replayed: %s\n", failMark.Sprint(e.Error))
			} else {
				fmt.Fprintf(w, "    replayed: %s\n", e.ReplayedSource)
			}
		}
	}

	for _, d := range result.Divergent {
		fmt.Fprintf(w, "%s intent %s: %d generations, %d distinct sources\n",
			failMark.Sprint("✗"), d.IntentHash, d.Generations, len(d.SourceHashes))
	}

	fmt.Fprintln(w)
	if result.Deterministic {
		fmt.Fprintf(w, "%d replayed, all deterministic\n", result.Total)
	} else {
		fmt.Fprintf(w, "%d replayed, %d diverged, %d divergent intents\n",
			result.Total, result.Mismatched, len(result.Divergent))
	}
}
