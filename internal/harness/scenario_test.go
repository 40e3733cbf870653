package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dcge/internal/intent"
)

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/repair.yaml")
	require.NoError(t, err)

	assert.Equal(t, "repair", s.Name)
	assert.Equal(t, "repair", s.IDPrefix)
	require.Len(t, s.Cases, 3)
	assert.Equal(t, intent.Rust, s.Cases[0].Intent.Language)
	assert.Equal(t, []string{"return a + b"}, s.Cases[0].Intent.Constraints)
	require.NotNil(t, s.Cases[1].Expect)
	assert.Equal(t, OutcomeFailed, s.Cases[1].Expect.Outcome)
	assert.Equal(t, []string{"forbidden_token"}, s.Cases[1].Expect.Categories)
	require.Len(t, s.Assertions, 3)
	assert.True(t, s.Assertions[1].FailedOnly)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: x
description: y
cases:
  - intent: {language: rust, kind: function, name: f}
assertion:
  - type: deterministic
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_UnknownIntentField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: x
description: y
cases:
  - intent: {language: rust, kind: function, nmae: f}
`))
	require.Error(t, err)
}

func TestParseScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\ncases:\n  - intent: {language: rust, kind: function, name: f}\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\ncases:\n  - intent: {language: rust, kind: function, name: f}\n",
			want: "description is required",
		},
		{
			name: "no cases",
			yaml: "name: n\ndescription: d\ncases: []\n",
			want: "cases list is required",
		},
		{
			name: "bad node policy",
			yaml: "name: n\ndescription: d\nnode_policy: lenient\ncases:\n  - intent: {language: rust, kind: function, name: f}\n",
			want: "node_policy",
		},
		{
			name: "missing outcome",
			yaml: "name: n\ndescription: d\ncases:\n  - intent: {language: rust, kind: function, name: f}\n    expect: {attempts: 1}\n",
			want: "cases[0].expect: outcome is required",
		},
		{
			name: "unknown outcome",
			yaml: "name: n\ndescription: d\ncases:\n  - intent: {language: rust, kind: function, name: f}\n    expect: {outcome: maybe}\n",
			want: `unknown outcome "maybe"`,
		},
		{
			name: "error with attempts",
			yaml: "name: n\ndescription: d\ncases:\n  - intent: {language: rust, kind: function, name: f}\n    expect: {outcome: error, attempts: 1}\n",
			want: "outcome error produces no source",
		},
		{
			name: "error code on success",
			yaml: "name: n\ndescription: d\ncases:\n  - intent: {language: rust, kind: function, name: f}\n    expect: {outcome: success, error_code: UNSUPPORTED}\n",
			want: "error_code requires outcome error",
		},
		{
			name: "three attempts",
			yaml: "name: n\ndescription: d\ncases:\n  - intent: {language: rust, kind: function, name: f}\n    expect: {outcome: success, attempts: 3}\n",
			want: "attempts must be 1 or 2",
		},
		{
			name: "unknown assertion",
			yaml: "name: n\ndescription: d\ncases:\n  - intent: {language: rust, kind: function, name: f}\nassertions:\n  - type: trace_order\n",
			want: `assertions[0]: unknown assertion type "trace_order"`,
		},
		{
			name: "outcome_count without outcome",
			yaml: "name: n\ndescription: d\ncases:\n  - intent: {language: rust, kind: function, name: f}\nassertions:\n  - type: outcome_count\n    count: 1\n",
			want: "assertions[0]: outcome_count needs outcome",
		},
		{
			name: "assertion without type",
			yaml: "name: n\ndescription: d\ncases:\n  - intent: {language: rust, kind: function, name: f}\nassertions:\n  - count: 1\n",
			want: "assertions[0]: type is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenario_InvalidIntentIsACase(t *testing.T) {
	s, err := ParseScenario([]byte("name: n\ndescription: d\ncases:\n  - intent: {language: rust, kind: function}\n    expect: {outcome: error}\n"))
	require.NoError(t, err)
	assert.Error(t, s.Cases[0].Intent.Validate())
}

func TestLoadScenario_FromTempDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: n\ndescription: d\ncases:\n  - intent: {language: go, kind: module, name: util}\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Nil(t, s.Cases[0].Expect)
	assert.Empty(t, s.Assertions)
}
