package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/store"
)

// BundleOptions holds flags for the export and import commands.
type BundleOptions struct {
	*RootOptions
	StoreFlags
	Language string
	Failed   bool
}

// BundleResult reports how many generations moved.
type BundleResult struct {
	File        string `json:"file"`
	Generations int    `json:"generations"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BundleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <bundle-file>",
		Short: "Write stored generations to a portable bundle",
		Long: `Write stored generations, in log order, to a MessagePack bundle that
another store can import. Use "-" to write to stdout.

Examples:
  dcge export generations.dcgb
  dcge export failed.dcgb --failed --language rust`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "store", "", "path to SQLite store (default from dcge.toml)")
	cmd.Flags().StringVar(&opts.Language, "language", "", "only this target language")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only generations that failed validation")

	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BundleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <bundle-file>",
		Short: "Load a bundle into the store",
		Long: `Load a bundle written by "dcge export" into the store. Generations
already present are left as they are, so importing twice is harmless.
Use "-" to read from stdin.

Examples:
  dcge import generations.dcgb
  dcge import generations.dcgb --store ./other.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "store", "", "path to SQLite store (default from dcge.toml)")

	return cmd
}

func runExport(opts *BundleOptions, file string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	st, err := openExistingStore(storePath(cfg, opts.StoreFlags))
	if err != nil {
		return err
	}
	defer st.Close()

	var w io.Writer = cmd.OutOrStdout()
	if file != "-" {
		f, err := os.Create(file)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create bundle", err)
		}
		defer f.Close()
		w = f
	}

	n, err := st.Export(cmdContext(cmd), w, store.Filter{
		Language:   intent.Language(opts.Language),
		FailedOnly: opts.Failed,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}
	if file == "-" {
		return nil
	}
	return reportBundle(cmd, opts, BundleResult{File: file, Generations: n}, "exported")
}

func runImport(opts *BundleOptions, file string, cmd *cobra.Command) error {
	var r io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if errors.Is(err, os.ErrNotExist) {
			return NewExitError(ExitCommandError, fmt.Sprintf("bundle not found: %s", file))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open bundle", err)
		}
		defer f.Close()
		r = f
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	st, err := openStore(storePath(cfg, opts.StoreFlags))
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Import(cmdContext(cmd), r)
	if errors.Is(err, store.ErrBadBundle) {
		return WrapExitError(ExitFailure, "import failed", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "import failed", err)
	}
	return reportBundle(cmd, opts, BundleResult{File: file, Generations: n}, "imported")
}

func reportBundle(cmd *cobra.Command, opts *BundleOptions, res BundleResult, verb string) error {
	if opts.Format == "json" {
		return respond(cmd.OutOrStdout(), res, nil)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %d generations (%s)\n", mark(true), verb, res.Generations, res.File)
	return nil
}
