package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/dcge/internal/config"
	"github.com/roach88/dcge/internal/emit"
	"github.com/roach88/dcge/internal/engine"
	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/store"
)

// StoreFlags are shared by every command that reads or writes the store.
type StoreFlags struct {
	Path string
}

// loadConfig reads --config, or the nearest dcge.toml, or defaults.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.Config != "" {
		cfg, err = config.Load(opts.Config)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// newLogger writes structured logs to w. Without --verbose only warnings
// and errors are shown so they do not drown the command's own output.
func newLogger(verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// storePath picks the --store flag over the config.
func storePath(cfg *config.Config, flags StoreFlags) string {
	if flags.Path != "" {
		return flags.Path
	}
	return cfg.StorePath()
}

// openStore opens (creating if needed) the store for writing commands.
func openStore(path string) (*store.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to create store directory", err)
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return st, nil
}

// openExistingStore opens a store that must already exist, for read-only
// commands. A missing file is a command error rather than an empty store.
func openExistingStore(path string) (*store.Store, error) {
	if path != ":memory:" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("store not found: %s", path))
		}
	}
	return openStore(path)
}

// generatorSettings are the command-line overrides of the [engine] table.
type generatorSettings struct {
	Policy string
}

// newGenerator builds a Generator from config plus overrides. With a store
// the clock resumes after the last stored seq.
func newGenerator(ctx context.Context, cfg *config.Config, st *store.Store, logger *slog.Logger, s generatorSettings) (*engine.Generator, error) {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid engine config", err)
	}
	if s.Policy != "" {
		policy, err := emit.ParseNodePolicy(s.Policy)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --policy", err)
		}
		opts = append(opts, engine.WithNodePolicy(policy))
	}
	opts = append(opts, engine.WithLogger(logger))

	if st == nil {
		return engine.New(opts...), nil
	}
	gen, err := engine.NewWithStore(ctx, st, opts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read store", err)
	}
	return gen, nil
}

// loadIntents reads a single intent file or every intent file in a
// directory. Load errors are returned alongside whatever loaded cleanly.
func loadIntents(path string) ([]intent.Spec, []error, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("intent path not found: %s", path))
	}
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to read intent path", err)
	}

	var (
		specs []intent.Spec
		errs  []error
	)
	if info.IsDir() {
		specs, errs = intent.LoadDir(path, intent.LoadModeCollectAll)
	} else {
		specs, errs = intent.LoadFile(path)
	}
	return specs, errs, nil
}

func errorStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
