// Package config loads dcge.toml, the project file that sets generator
// and store defaults for the CLI.
//
//	[engine]
//	node_policy = "degrade"   # or "strict"
//	jobs = 4                  # batch workers; 0 means GOMAXPROCS
//	max_source_len = 100000
//	grammar_check = true
//
//	[store]
//	path = ".dcge/generations.db"
//
// Relative store paths are resolved against the directory holding the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/roach88/dcge/internal/emit"
	"github.com/roach88/dcge/internal/engine"
	"github.com/roach88/dcge/internal/validate"
)

// FileName is the project file searched for by Discover.
const FileName = "dcge.toml"

// DefaultStorePath is used when no store path is configured.
const DefaultStorePath = ".dcge/generations.db"

// Config is a loaded (or defaulted) project configuration.
type Config struct {
	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-"`
	// Root is the directory relative paths are resolved against.
	Root string `toml:"-"`

	Engine EngineConfig `toml:"engine"`
	Store  StoreConfig  `toml:"store"`
}

// EngineConfig holds generator settings.
type EngineConfig struct {
	NodePolicy   string `toml:"node_policy"`
	Jobs         int    `toml:"jobs"`
	MaxSourceLen int    `toml:"max_source_len"`
	GrammarCheck bool   `toml:"grammar_check"`
}

// StoreConfig holds artifact store settings.
type StoreConfig struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no dcge.toml exists.
func Default(root string) *Config {
	return &Config{
		Root: root,
		Engine: EngineConfig{
			NodePolicy:   string(emit.PolicyDegrade),
			MaxSourceLen: validate.DefaultMaxSourceLen,
			GrammarCheck: true,
		},
		Store: StoreConfig{Path: DefaultStorePath},
	}
}

// Find walks up from startDir looking for dcge.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest dcge.toml at or above startDir, or returns
// defaults rooted at startDir when there is none.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		root, err := filepath.Abs(startDirOrDot(startDir))
		if err != nil {
			return nil, err
		}
		return Default(root), nil
	}
	return Load(path)
}

// Load reads the config at path. Keys absent from the file keep their
// defaults; unknown keys are an error.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg := Default(filepath.Dir(abs))
	cfg.Path = abs

	meta, err := toml.DecodeFile(abs, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("store", "path") && strings.TrimSpace(cfg.Store.Path) == "" {
		return nil, fmt.Errorf("%s: [store].path must not be empty", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := emit.ParseNodePolicy(c.Engine.NodePolicy); err != nil {
		return fmt.Errorf("[engine].node_policy: %w", err)
	}
	if c.Engine.Jobs < 0 {
		return fmt.Errorf("[engine].jobs must be non-negative, got %d", c.Engine.Jobs)
	}
	if c.Engine.MaxSourceLen <= 0 {
		return fmt.Errorf("[engine].max_source_len must be positive, got %d", c.Engine.MaxSourceLen)
	}
	return nil
}

// StorePath returns the store path resolved against Root.
func (c *Config) StorePath() string {
	if filepath.IsAbs(c.Store.Path) || c.Store.Path == ":memory:" {
		return c.Store.Path
	}
	return filepath.Join(c.Root, filepath.FromSlash(c.Store.Path))
}

// EngineOptions converts the engine section into generator options.
func (c *Config) EngineOptions() ([]engine.Option, error) {
	policy, err := emit.ParseNodePolicy(c.Engine.NodePolicy)
	if err != nil {
		return nil, err
	}
	return []engine.Option{
		engine.WithNodePolicy(policy),
		engine.WithMaxSourceLen(c.Engine.MaxSourceLen),
		engine.WithGrammarCheck(c.Engine.GrammarCheck),
	}, nil
}

func startDirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
