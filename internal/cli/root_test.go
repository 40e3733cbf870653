package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// project is a temporary directory with a dcge.toml whose store lives
// beside it.
type project struct {
	dir    string
	config string
}

func newProject(t *testing.T) *project {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "dcge.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
[engine]
jobs = 2

[store]
path = "gen.db"
`), 0o644))
	return &project{dir: dir, config: cfg}
}

func (p *project) storePath() string {
	return filepath.Join(p.dir, "gen.db")
}

// write creates a file in the project and returns its path.
func (p *project) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(p.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the root command against the project with color off.
func (p *project) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--color", "off", "--config", p.config}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "dcge", cmd.Use)
	assert.Contains(t, cmd.Short, "Deterministic Code Generation Engine")
	assert.Contains(t, cmd.Long, "byte-identical")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"generate", "check", "targets", "history", "show", "replay", "test", "export", "import"}

	for _, name := range commands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "command %s should exist", name)
			assert.Equal(t, name, sub.Name())
			assert.True(t, sub.SilenceUsage)
			assert.NotNil(t, sub.RunE)
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	colorFlag := cmd.PersistentFlags().Lookup("color")
	require.NotNil(t, colorFlag)
	assert.Equal(t, "auto", colorFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestStoreFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"generate", "history", "show", "replay", "export", "import"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.NotNil(t, sub.Flags().Lookup("store"), name)
	}
}

func TestFormatValidation(t *testing.T) {
	p := newProject(t)

	_, err := p.run(t, "--format", "xml", "targets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestColorValidation(t *testing.T) {
	p := newProject(t)

	_, err := p.run(t, "--color", "sometimes", "targets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid color mode")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBadConfig(t *testing.T) {
	p := newProject(t)
	p.write(t, "dcge.toml", "[engine]\njobz = 2\n")

	_, err := p.run(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown keys: engine.jobz")
}
