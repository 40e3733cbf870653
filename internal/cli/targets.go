package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dcge/internal/grammar"
	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/target"
)

// TargetsOptions holds flags for the targets command.
type TargetsOptions struct {
	*RootOptions
	Grammar bool
}

// TargetInfo describes one target language.
type TargetInfo struct {
	Language        string   `json:"language"`
	Tier            int      `json:"tier"`
	Kinds           []string `json:"kinds"`
	EntryPoint      string   `json:"entry_point,omitempty"`
	ForbiddenTokens []string `json:"forbidden_tokens"`
	Checks          []string `json:"checks"`
	Productions     []string `json:"productions,omitempty"`
}

// NewTargetsCommand creates the targets command.
func NewTargetsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TargetsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "targets [language]",
		Short: "List target languages and what they support",
		Long: `List every target language with the intent kinds it implements and
the checks its validator runs. With a language and --grammar, also print
the outline grammar the validator parses declarations with.

Examples:
  dcge targets
  dcge targets rust --grammar`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargets(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Grammar, "grammar", false, "print the outline grammar productions")

	return cmd
}

func runTargets(opts *TargetsOptions, args []string, cmd *cobra.Command) error {
	langs := target.Languages()
	if len(args) == 1 {
		lang := intent.Language(strings.ToLower(args[0]))
		if _, err := target.Lookup(lang); err != nil {
			return WrapExitError(ExitCommandError, "unknown target", err)
		}
		langs = []intent.Language{lang}
	}

	infos := make([]TargetInfo, 0, len(langs))
	for _, lang := range langs {
		info, err := describeTarget(lang, opts.Grammar)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to describe target", err)
		}
		infos = append(infos, info)
	}

	if opts.Format == "json" {
		return respond(cmd.OutOrStdout(), infos, nil)
	}
	outputTargetsText(cmd.OutOrStdout(), infos)
	return nil
}

func describeTarget(lang intent.Language, withGrammar bool) (TargetInfo, error) {
	prof, err := target.Lookup(lang)
	if err != nil {
		return TargetInfo{}, err
	}
	info := TargetInfo{
		Language:        string(lang),
		Tier:            prof.Ordinal,
		Kinds:           []string{},
		EntryPoint:      strings.TrimSpace(prof.EntryPoint),
		ForbiddenTokens: prof.ForbiddenTokens,
		Checks:          make([]string, len(prof.Checks)),
	}
	for _, k := range intent.Kinds {
		if prof.Supports(k) {
			info.Kinds = append(info.Kinds, string(k))
		}
	}
	for i, c := range prof.Checks {
		info.Checks[i] = string(c)
	}
	if info.ForbiddenTokens == nil {
		info.ForbiddenTokens = []string{}
	}

	if withGrammar {
		g, err := grammar.For(lang)
		if err != nil {
			return TargetInfo{}, err
		}
		for _, p := range g.Productions {
			info.Productions = append(info.Productions, p.String())
		}
	}
	return info, nil
}

func outputTargetsText(w io.Writer, infos []TargetInfo) {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Language
	}
	width := columnWidth(names)

	for _, info := range infos {
		fmt.Fprintf(w, "T%d %s  %s\n", info.Tier, padRight(info.Language, width), strings.Join(info.Kinds, ", "))
		fmt.Fprintf(w, "   %s  checks: %s\n", padRight("", width), strings.Join(info.Checks, ", "))
		if len(info.Productions) > 0 {
			lhs := make([]string, len(info.Productions))
			for i, p := range info.Productions {
				lhs[i], _, _ = strings.Cut(p, " →")
			}
			lw := columnWidth(lhs)
			fmt.Fprintln(w)
			for i, p := range info.Productions {
				_, rhs, _ := strings.Cut(p, " →")
				fmt.Fprintf(w, "   %3d  %s →%s\n", i, padRight(lhs[i], lw), rhs)
			}
			fmt.Fprintln(w)
		}
	}
}
