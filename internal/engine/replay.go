package engine

import (
	"context"
	"fmt"

	"github.com/roach88/dcge/internal/store"
)

// Replay and determinism
//
// Generation is a pure function of the intent: the same intent always
// yields the same tree and the same source. Replay checks this against the
// generation log by regenerating a stored intent under its original id and
// seq and comparing content hashes. Nothing is written during a replay.

// ReplayResult pairs a stored generation with a fresh run of its intent.
type ReplayResult struct {
	Stored   store.Generation
	Replayed *GeneratedCode
}

// Match reports whether the replay reproduced the stored tree and source.
func (r ReplayResult) Match() bool {
	return r.Replayed != nil &&
		r.Stored.TreeHash == r.Replayed.TreeHash &&
		r.Stored.SourceHash == r.Replayed.SourceHash
}

// Replay regenerates the stored generation id.
func (g *Generator) Replay(ctx context.Context, s *store.Store, id string) (ReplayResult, error) {
	stored, err := s.ReadGeneration(ctx, id)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	return g.replay(ctx, stored)
}

// ReplayAll regenerates every stored generation matching f, in log order.
// A stored intent that no longer generates is reported as a result with a
// nil Replayed; only cancellation stops the walk.
func (g *Generator) ReplayAll(ctx context.Context, s *store.Store, f store.Filter) ([]ReplayResult, error) {
	gens, err := s.ListGenerations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	out := make([]ReplayResult, 0, len(gens))
	for _, stored := range gens {
		r, err := g.replay(ctx, stored)
		if IsCancelled(err) {
			return out, err
		}
		if err != nil {
			g.logger.Warn("replay failed", "id", stored.ID, "error", err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (g *Generator) replay(ctx context.Context, stored store.Generation) (ReplayResult, error) {
	readOnly := *g
	readOnly.store = nil

	code, err := readOnly.generate(ctx, stored.Intent, stored.Seq, stored.ID)
	if err != nil {
		return ReplayResult{Stored: stored}, fmt.Errorf("replay %s: %w", stored.ID, err)
	}
	r := ReplayResult{Stored: stored, Replayed: code}
	if !r.Match() {
		g.logger.Warn("replay diverged",
			"id", stored.ID,
			"intent", stored.Intent.Label(),
			"stored_source", stored.SourceHash,
			"replayed_source", code.SourceHash,
		)
	}
	return r, nil
}
