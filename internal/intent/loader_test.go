package intent

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYAML(t *testing.T) {
	specs, err := ParseYAML([]byte(`
intents:
  - language: rust
    kind: struct
    name: Point
    docstring: A point.
`))
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, Spec{Language: Rust, Kind: KindStruct, Name: "Point", Docstring: "A point."}, specs[0])
}

func TestParseYAML_RejectsUnknownFields(t *testing.T) {
	_, err := ParseYAML([]byte("intents:\n  - language: rust\n    knd: struct\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "knd")
}

func TestParseYAML_Empty(t *testing.T) {
	_, err := ParseYAML([]byte("intents: []\n"))
	require.EqualError(t, err, "no intents found")
}

func TestLoadFile_YAML(t *testing.T) {
	specs, errs := LoadFile("testdata/yaml/a_functions.yaml")
	require.Empty(t, errs)
	require.Len(t, specs, 2)
	assert.Equal(t, "rust/function:compute", specs[0].Label())
	assert.Equal(t, []string{"return type is int"}, specs[1].Constraints)
}

func TestLoadFile_CUE(t *testing.T) {
	specs, errs := LoadFile("testdata/cue/intents.cue")
	require.Empty(t, errs)
	require.Len(t, specs, 3)

	assert.Equal(t, Spec{Language: Rust, Kind: KindFunction, Name: "compute", Purpose: "takes a and b"}, specs[0])
	assert.Equal(t, Spec{Language: TypeScript, Kind: KindStruct, Name: "Point", Docstring: "A point in the plane."}, specs[1])
	assert.Equal(t, Spec{Language: Python, Kind: KindThreading, Operation: "spawn"}, specs[2], "label is not a name for threading")
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing", "testdata/nope.yaml", ErrCodeNotFound},
		{"bad extension", "testdata/empty/README.md", ErrCodeLoadFailed},
		{"unknown field", "testdata/mixed/bad.yaml", ErrCodeParseFailed},
		{"invalid spec", "testdata/mixed/invalid.yaml", ErrCodeInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, errs := LoadFile(tt.path)
			assert.Empty(t, specs)
			require.Len(t, errs, 1)

			var le *LoadError
			require.True(t, errors.As(errs[0], &le))
			assert.Equal(t, tt.code, le.Code)
			assert.Equal(t, tt.path, le.Path)
		})
	}
}

func TestLoadDir_YAMLInLexicalOrder(t *testing.T) {
	specs, errs := LoadDir("testdata/yaml", LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, specs, 3)
	assert.Equal(t, "go/file_io:read", specs[2].Label())
}

func TestLoadDir_CUEPackage(t *testing.T) {
	specs, errs := LoadDir("testdata/cue", LoadModeCollectAll)
	require.Empty(t, errs)
	require.Len(t, specs, 3)
	assert.Equal(t, "typescript/struct:Point", specs[1].Label())
}

func TestLoadDir_Modes(t *testing.T) {
	specs, errs := LoadDir("testdata/mixed", LoadModeCollectAll)
	require.Len(t, errs, 2)
	require.Len(t, specs, 1)
	assert.Equal(t, "go/module:util", specs[0].Label())

	specs, errs = LoadDir("testdata/mixed", LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Empty(t, specs)
	assert.Contains(t, errs[0].Error(), "bad.yaml")
}

func TestLoadDir_NoFiles(t *testing.T) {
	_, errs := LoadDir("testdata/empty", LoadModeCollectAll)
	require.Len(t, errs, 1)

	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}

func TestLoadDir_NotADirectory(t *testing.T) {
	_, errs := LoadDir("testdata/mixed/good.yaml", LoadModeCollectAll)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "not a directory")
}

func TestLoadDir_SkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.yaml"), []byte("intents:\n  - {language: go, kind: module, name: top}\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "deep.yaml"), []byte("intents:\n  - {language: go, kind: module, name: deep}\n"), 0o644))

	specs, errs := LoadDir(dir, LoadModeCollectAll)
	require.Empty(t, errs)
	require.Len(t, specs, 1)
	assert.Equal(t, "top", specs[0].Name)
}
