package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/dcge/internal/intent"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestGeneration creates a successful generation with minimal fields.
func createTestGeneration(id string, seq int64, intentHash, sourceHash string) Generation {
	return Generation{
		ID:         id,
		Seq:        seq,
		IntentHash: intentHash,
		TreeHash:   "tree-" + intentHash,
		SourceHash: sourceHash,
		Intent: intent.Spec{
			Language: intent.Rust,
			Kind:     intent.KindFunction,
			Name:     "add",
			Purpose:  "takes a and b",
		},
		Source:   "pub fn add(a: i64, b: i64) -> () {\n    return;\n}\n",
		Success:  true,
		Attempts: 1,
	}
}
