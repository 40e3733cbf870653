package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dcge/internal/intent"
)

func ids(gens []Generation) []string {
	out := make([]string, len(gens))
	for i, g := range gens {
		out[i] = g.ID
	}
	return out
}

func TestReadGeneration_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadGeneration(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListGenerations_DeterministicOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Written out of order; ties on seq break by id.
	for _, g := range []Generation{
		createTestGeneration("c", 2, "i1", "s1"),
		createTestGeneration("b", 1, "i1", "s1"),
		createTestGeneration("a", 2, "i2", "s2"),
	} {
		require.NoError(t, s.WriteGeneration(ctx, g))
	}

	gens, err := s.ListGenerations(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, ids(gens))
}

func TestListGenerations_Filters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	py := createTestGeneration("py", 1, "i-py", "s-py")
	py.Intent.Language = intent.Python
	failed := createTestGeneration("failed", 2, "i-f", "s-f")
	failed.Success = false
	failed.Attempts = 2
	ok := createTestGeneration("ok", 3, "i-ok", "s-ok")

	for _, g := range []Generation{py, failed, ok} {
		require.NoError(t, s.WriteGeneration(ctx, g))
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"py", "failed", "ok"}},
		{"language", Filter{Language: intent.Rust}, []string{"failed", "ok"}},
		{"intent", Filter{IntentHash: "i-py"}, []string{"py"}},
		{"failed", Filter{FailedOnly: true}, []string{"failed"}},
		{"limit keeps newest", Filter{Limit: 2}, []string{"failed", "ok"}},
		{"combined", Filter{Language: intent.Rust, Limit: 1}, []string{"ok"}},
		{"no match", Filter{IntentHash: "nope"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gens, err := s.ListGenerations(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(gens))
		})
	}
}

func TestLatestSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LatestSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.WriteGeneration(ctx, createTestGeneration("a", 4, "i", "s")))
	require.NoError(t, s.WriteGeneration(ctx, createTestGeneration("b", 9, "i", "s")))

	seq, err = s.LatestSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), seq)
}
