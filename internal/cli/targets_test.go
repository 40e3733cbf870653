package cli

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargets_Text(t *testing.T) {
	p := newProject(t)

	out, err := p.run(t, "targets")
	require.NoError(t, err)
	assert.Contains(t, out, "T1 rust        function, struct, module, file_io, threading")
	assert.Contains(t, out, "T4 go          function, module")
	assert.Contains(t, out, "checks: braces, entry_point")
}

func TestTargets_JSON(t *testing.T) {
	p := newProject(t)

	out, err := p.run(t, "--format", "json", "targets")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   []TargetInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 4)

	names := make([]string, len(resp.Data))
	for i, info := range resp.Data {
		names[i] = info.Language
		assert.Equal(t, i+1, info.Tier)
		assert.Empty(t, info.Productions)
	}
	assert.Equal(t, []string{"rust", "python", "typescript", "go"}, names)
	assert.Equal(t, "package", resp.Data[3].EntryPoint)
	assert.Contains(t, resp.Data[1].ForbiddenTokens, "eval(")
}

func TestTargets_Grammar(t *testing.T) {
	p := newProject(t)

	out, err := p.run(t, "targets", "Python", "--grammar")
	require.NoError(t, err)
	assert.Contains(t, out, "T2 python")
	assert.NotContains(t, out, "rust")
	assert.Regexp(t, `Program +→ Stmts \$`, out)
	assert.Contains(t, out, "→ ε")
}

func TestTargets_Unknown(t *testing.T) {
	p := newProject(t)

	_, err := p.run(t, "targets", "cobol")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "Unsupported language: cobol")
}
