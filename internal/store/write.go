package store

import (
	"context"
	"fmt"
)

// WriteGeneration inserts a generation record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// Other constraint violations (e.g. attempts outside 1..2) still return errors.
func (s *Store) WriteGeneration(ctx context.Context, g Generation) error {
	intentJSON, err := marshalIntent(g.Intent)
	if err != nil {
		return fmt.Errorf("write generation: %w", err)
	}
	errorsJSON, err := marshalIssues(g.Errors)
	if err != nil {
		return fmt.Errorf("write generation: %w", err)
	}
	warningsJSON, err := marshalWarnings(g.Warnings)
	if err != nil {
		return fmt.Errorf("write generation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO generations
		(id, seq, intent_hash, tree_hash, source_hash, language, kind, intent,
		 source, success, attempts, errors, warnings, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		g.ID,
		g.Seq,
		g.IntentHash,
		g.TreeHash,
		g.SourceHash,
		string(g.Intent.Language),
		string(g.Intent.Kind),
		intentJSON,
		g.Source,
		boolToInt(g.Success),
		g.Attempts,
		errorsJSON,
		warningsJSON,
		g.Duration.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("write generation: %w", err)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
