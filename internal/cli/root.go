package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // explicit dcge.toml; empty means search upward from cwd
	Color   string // "auto" | "on" | "off"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidColorModes defines the allowed --color values.
var ValidColorModes = []string{"auto", "on", "off"}

// NewRootCommand creates the root command for the dcge CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dcge",
		Short: "DCGE - Deterministic Code Generation Engine",
		Long: `Turn structured intents into source code for Rust, Python, TypeScript and Go.

The same intent always yields byte-identical output. Every artifact is
validated, repaired at most once, and recorded in a local SQLite store
so it can be listed, replayed and checked for determinism later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !slices.Contains(ValidColorModes, opts.Color) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid color mode %q: must be one of %v", opts.Color, ValidColorModes))
			}
			applyColorMode(opts.Color, cmd.OutOrStdout())
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to dcge.toml (default: search upward)")
	cmd.PersistentFlags().StringVar(&opts.Color, "color", "auto", "colorize output (auto|on|off)")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTargetsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}
