package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/store"
)

func TestReplay_ReproducesStoredGeneration(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	g, err := NewWithStore(ctx, s, WithLogger(discardLogger()), WithIDGenerator(NewFixedGenerator("gen-1")))
	require.NoError(t, err)
	_, err = g.Generate(ctx, addIntent(intent.Rust))
	require.NoError(t, err)

	r, err := g.Replay(ctx, s, "gen-1")
	require.NoError(t, err)
	assert.True(t, r.Match())
	assert.Equal(t, "gen-1", r.Replayed.ID)
	assert.Equal(t, r.Stored.Seq, r.Replayed.Seq)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "replay writes nothing")
}

func TestReplay_DetectsDivergence(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	stored := store.Generation{
		ID:         "tampered",
		Seq:        1,
		IntentHash: "i",
		TreeHash:   "t",
		SourceHash: "not-the-real-hash",
		Intent:     computeIntent(),
		Source:     "pub fn compute() {}\n",
		Success:    true,
		Attempts:   1,
	}
	require.NoError(t, s.WriteGeneration(ctx, stored))

	r, err := newTestGenerator().Replay(ctx, s, "tampered")
	require.NoError(t, err)
	assert.False(t, r.Match())
}

func TestReplay_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := newTestGenerator().Replay(context.Background(), s, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestReplayAll(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	g, err := NewWithStore(ctx, s, WithLogger(discardLogger()))
	require.NoError(t, err)
	g.GenerateBatch(ctx, []intent.Spec{computeIntent(), addIntent(intent.Python), addIntent(intent.TypeScript)}, 2)

	results, err := g.ReplayAll(ctx, s, store.Filter{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.Match(), r.Stored.Intent.Label())
	}
	assert.Equal(t, intent.Rust, results[0].Stored.Intent.Language, "log order")
}
