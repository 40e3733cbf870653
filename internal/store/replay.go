package store

import (
	"context"
	"fmt"
)

// Divergence is an intent whose stored generations did not all produce the
// same source. A deterministic engine never produces one.
type Divergence struct {
	IntentHash   string
	Generations  int
	SourceHashes []string
}

// FindDivergent returns every intent hash with more than one distinct
// source hash, ordered by intent hash.
func (s *Store) FindDivergent(ctx context.Context) ([]Divergence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT intent_hash, COUNT(*)
		FROM generations
		GROUP BY intent_hash
		HAVING COUNT(DISTINCT source_hash) > 1
		ORDER BY intent_hash COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("find divergent: %w", err)
	}

	var out []Divergence
	for rows.Next() {
		var d Divergence
		if err := rows.Scan(&d.IntentHash, &d.Generations); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan divergence: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate divergences: %w", err)
	}
	// The single connection must be released before the follow-up queries.
	rows.Close()

	for i := range out {
		hashes, err := s.sourceHashes(ctx, out[i].IntentHash)
		if err != nil {
			return nil, err
		}
		out[i].SourceHashes = hashes
	}

	if out == nil {
		out = []Divergence{}
	}
	return out, nil
}

// sourceHashes lists the distinct source hashes of an intent in order of
// first appearance.
func (s *Store) sourceHashes(ctx context.Context, intentHash string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_hash, MIN(seq) AS first_seq
		FROM generations
		WHERE intent_hash = ?
		GROUP BY source_hash
		ORDER BY first_seq ASC, source_hash COLLATE BINARY ASC
	`, intentHash)
	if err != nil {
		return nil, fmt.Errorf("query source hashes: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		var first int64
		if err := rows.Scan(&h, &first); err != nil {
			return nil, fmt.Errorf("scan source hash: %w", err)
		}
		hashes = append(hashes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source hashes: %w", err)
	}
	return hashes, nil
}
