package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dcge/internal/intent"
)

func TestLookup(t *testing.T) {
	p, err := Lookup(intent.Go)
	require.NoError(t, err)
	assert.Equal(t, intent.Go, p.Language)
	assert.Equal(t, "package ", p.EntryPoint)

	_, err = Lookup("cobol")
	var ue *UnsupportedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Unsupported language: cobol", err.Error())
}

func TestLanguagesOrderedByTier(t *testing.T) {
	assert.Equal(t, []intent.Language{intent.Rust, intent.Python, intent.TypeScript, intent.Go}, Languages())
}

func TestSupports(t *testing.T) {
	tests := []struct {
		lang intent.Language
		kind intent.Kind
		want bool
	}{
		{intent.Rust, intent.KindStruct, true},
		{intent.Rust, intent.KindFileIO, true},
		{intent.Rust, intent.KindThreading, true},
		{intent.Python, intent.KindFileIO, false},
		{intent.Python, intent.KindThreading, true},
		{intent.TypeScript, intent.KindStruct, true},
		{intent.TypeScript, intent.KindThreading, false},
		{intent.Go, intent.KindStruct, false},
		{intent.Go, intent.KindModule, true},
		{intent.Go, "lambda", false},
	}
	for _, tt := range tests {
		p, err := Lookup(tt.lang)
		require.NoError(t, err)
		assert.Equal(t, tt.want, p.Supports(tt.kind), "%s/%s", tt.lang, tt.kind)
	}
}

func TestEveryTargetHasChecksAndForbiddenTokens(t *testing.T) {
	for _, lang := range Languages() {
		p, _ := Lookup(lang)
		assert.NotEmpty(t, p.Checks, lang)
		assert.NotEmpty(t, p.ForbiddenTokens, lang)
		assert.True(t, p.Supports(intent.KindFunction), lang)
	}
}
