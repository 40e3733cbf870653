package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitSuccess, "nothing"))
	assert.Equal(t, ExitSuccess, GetExitCode(wrapped))
}

func TestWrapExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to open store", cause)

	assert.Equal(t, "failed to open store: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestRespond_OK(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, respond(buf, map[string]string{"source": "a < b"}, nil))

	assert.Contains(t, buf.String(), `"a < b"`, "HTML is not escaped")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestRespond_Failure(t *testing.T) {
	buf := &bytes.Buffer{}
	err := respond(buf, []int{1}, &CLIError{Code: CodeDeterminism, Message: "1 of 1 replays diverged"})
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeDeterminism, resp.Error.Code)
	assert.NotNil(t, resp.Data, "data is kept alongside the error")
}

func TestMark(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	assert.Equal(t, "✓", mark(true))
	assert.Equal(t, "✗", mark(false))
}

func TestApplyColorMode(t *testing.T) {
	prev := color.NoColor
	t.Cleanup(func() { color.NoColor = prev })

	applyColorMode("on", &bytes.Buffer{})
	assert.False(t, color.NoColor)
	applyColorMode("off", &bytes.Buffer{})
	assert.True(t, color.NoColor)

	applyColorMode("on", &bytes.Buffer{})
	applyColorMode("auto", &bytes.Buffer{})
	assert.True(t, color.NoColor, "a buffer is not a terminal")
}

func TestColumns(t *testing.T) {
	assert.Equal(t, 0, columnWidth(nil))
	assert.Equal(t, 6, columnWidth([]string{"go", "python"}))
	assert.Equal(t, 4, columnWidth([]string{"名前"}), "wide runes take two columns")

	assert.Equal(t, "go    ", padRight("go", 6))
	assert.Equal(t, "名前  ", padRight("名前", 6))
}
