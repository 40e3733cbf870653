package cli

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_AllSupported(t *testing.T) {
	p := newProject(t)
	path := p.write(t, "intents.yaml", validIntents)

	out, err := p.run(t, "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ python/function:add")
	assert.Contains(t, out, "3 valid, 0 unsupported, 0 invalid")
	assert.NoFileExists(t, p.storePath(), "check never opens the store")
}

func TestCheck_Unsupported(t *testing.T) {
	p := newProject(t)
	path := p.write(t, "intents.yaml", `intents:
  - {language: go, kind: struct, name: Point}
  - {language: cobol, kind: module, name: util}
  - {language: rust, kind: threading, operation: spawn}
`)

	out, err := p.run(t, "--format", "json", "check", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
		Error  *CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, CodeInvalidIntents, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Unsupported)

	require.Len(t, resp.Data.Intents, 3)
	assert.Equal(t, "go does not implement struct intents", resp.Data.Intents[0].Reason)
	assert.Equal(t, "Unsupported language: cobol", resp.Data.Intents[1].Reason)
	assert.True(t, resp.Data.Intents[2].Supported)
}

func TestCheck_InvalidIntents(t *testing.T) {
	p := newProject(t)
	p.write(t, "intents/a.yaml", validIntents)
	p.write(t, "intents/b.yaml", "intents:\n  - {language: rust, kind: function, name: 9lives}\n")

	out, err := p.run(t, "check", p.dir+"/intents")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `name "9lives" is not a valid identifier`)
	assert.Contains(t, out, "3 valid, 0 unsupported, 1 invalid")
}

func TestCheck_MissingPath(t *testing.T) {
	p := newProject(t)

	_, err := p.run(t, "check", "does-not-exist.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
