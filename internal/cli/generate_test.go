package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validIntents = `intents:
  - language: rust
    kind: function
    name: compute
    purpose: adds
  - language: python
    kind: function
    name: add
    purpose: takes a and b
    constraints: ["return a + b"]
  - language: go
    kind: module
    name: util
`

const failingIntents = `intents:
  - language: rust
    kind: function
    name: f
    purpose: takes a
    constraints: ["call transmute(a)"]
  - language: cobol
    kind: struct
    name: Point
`

type generateResponse struct {
	Status string         `json:"status"`
	Data   GenerateResult `json:"data"`
	Error  *CLIError      `json:"error"`
}

func TestGenerate_Text(t *testing.T) {
	p := newProject(t)
	path := p.write(t, "intents.yaml", validIntents)

	out, err := p.run(t, "generate", path)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ rust/function:compute")
	assert.Contains(t, out, "seq=2 attempts=2")
	assert.Contains(t, out, "3 intents: 3 succeeded, 0 failed, 0 errored (1 repaired)")
	assert.FileExists(t, p.storePath())
}

func TestGenerate_JSON(t *testing.T) {
	p := newProject(t)
	path := p.write(t, "intents.yaml", validIntents)

	out, err := p.run(t, "--format", "json", "generate", path)
	require.NoError(t, err)

	var resp generateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Results, 3)

	for i, e := range resp.Data.Results {
		assert.Equal(t, i, e.Index)
		assert.Equal(t, int64(i+1), e.Seq, "seqs follow input order")
		assert.True(t, e.Success)
		assert.NotEmpty(t, e.SourceHash)
	}
	assert.Contains(t, resp.Data.Results[1].Source, "def add(a: int, b: int) -> int:")
	assert.Equal(t, 3, resp.Data.Summary.Succeeded)
}

func TestGenerate_SeqResumesAcrossRuns(t *testing.T) {
	p := newProject(t)
	path := p.write(t, "intents.yaml", validIntents)

	_, err := p.run(t, "generate", path)
	require.NoError(t, err)

	out, err := p.run(t, "--format", "json", "generate", path)
	require.NoError(t, err)

	var resp generateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(4), resp.Data.Results[0].Seq)
}

func TestGenerate_Failures(t *testing.T) {
	p := newProject(t)
	path := p.write(t, "intents.yaml", failingIntents)

	out, err := p.run(t, "--format", "json", "generate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp generateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeGenerationFailed, resp.Error.Code)

	require.Len(t, resp.Data.Results, 2)
	assert.False(t, resp.Data.Results[0].Success)
	assert.Equal(t, 1, resp.Data.Results[0].Attempts, "forbidden tokens are not repaired")
	assert.NotEmpty(t, resp.Data.Results[0].Errors)
	assert.Equal(t, "UNSUPPORTED", resp.Data.Results[1].ErrorCode)
	assert.Equal(t, 1, resp.Data.Summary.Failed)
	assert.Equal(t, 1, resp.Data.Summary.Errored)
}

func TestGenerate_NoStore(t *testing.T) {
	p := newProject(t)
	path := p.write(t, "intents.yaml", validIntents)

	_, err := p.run(t, "generate", path, "--no-store")
	require.NoError(t, err)
	assert.NoFileExists(t, p.storePath())
}

func TestGenerate_OutDir(t *testing.T) {
	p := newProject(t)
	path := p.write(t, "intents.yaml", validIntents)
	outDir := filepath.Join(p.dir, "generated")

	_, err := p.run(t, "generate", path, "--out", outDir, "--jobs", "1")
	require.NoError(t, err)

	for _, name := range []string{"0001_compute.rs", "0002_add.py", "0003_util.go"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
	data, err := os.ReadFile(filepath.Join(outDir, "0001_compute.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "pub fn compute() -> ()")
}

func TestGenerate_ShowSource(t *testing.T) {
	p := newProject(t)
	path := p.write(t, "intents.yaml", validIntents)

	out, err := p.run(t, "generate", path, "--no-store", "--show-source")
	require.NoError(t, err)
	assert.Contains(t, out, "    def add(a: int, b: int) -> int:")
}

func TestGenerate_MissingPath(t *testing.T) {
	p := newProject(t)

	_, err := p.run(t, "generate", filepath.Join(p.dir, "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "intent path not found")
}

func TestGenerate_LoadErrors(t *testing.T) {
	p := newProject(t)
	path := p.write(t, "intents.yaml", "intents:\n  - language: rust\n    kind: function\n")

	out, err := p.run(t, "generate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "function intent requires a name")
	assert.NoFileExists(t, p.storePath(), "nothing is generated when intents do not load")
}

func TestGenerate_EmptyDir(t *testing.T) {
	p := newProject(t)
	dir := filepath.Join(p.dir, "intents")
	require.NoError(t, os.Mkdir(dir, 0o755))

	_, err := p.run(t, "generate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGenerate_BadPolicy(t *testing.T) {
	p := newProject(t)
	path := p.write(t, "intents.yaml", validIntents)

	_, err := p.run(t, "generate", path, "--policy", "lenient", "--no-store")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid --policy")
}
