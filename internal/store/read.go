package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const generationColumns = `id, seq, intent_hash, tree_hash, source_hash, intent,
	source, success, attempts, errors, warnings, duration_ns`

// ReadGeneration returns the generation with the given id, or ErrNotFound.
func (s *Store) ReadGeneration(ctx context.Context, id string) (Generation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+generationColumns+" FROM generations WHERE id = ?", id)
	g, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Generation{}, fmt.Errorf("read generation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Generation{}, fmt.Errorf("read generation %s: %w", id, err)
	}
	return g, nil
}

// ListGenerations returns generations matching f, ordered by
// seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListGenerations(ctx context.Context, f Filter) ([]Generation, error) {
	var (
		where []string
		args  []any
	)
	if f.Language != "" {
		where = append(where, "language = ?")
		args = append(args, string(f.Language))
	}
	if f.IntentHash != "" {
		where = append(where, "intent_hash = ?")
		args = append(args, f.IntentHash)
	}
	if f.FailedOnly {
		where = append(where, "success = 0")
	}

	query := "SELECT " + generationColumns + " FROM generations"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Limit > 0 {
		// Keep the newest rows but still return them oldest first.
		query = "SELECT * FROM (" + query +
			" ORDER BY seq DESC, id COLLATE BINARY DESC LIMIT ?)"
		args = append(args, f.Limit)
	}
	query += " ORDER BY seq ASC, id COLLATE BINARY ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	gens := []Generation{}
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}
	return gens, nil
}

// LatestSeq returns the highest stored seq, or 0 for an empty store.
// The generator resumes its logical clock from here.
func (s *Store) LatestSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM generations").Scan(&seq); err != nil {
		return 0, fmt.Errorf("latest seq: %w", err)
	}
	return seq.Int64, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row scanner) (Generation, error) {
	var (
		g            Generation
		intentJSON   string
		success      int
		errorsJSON   string
		warningsJSON string
		durationNS   int64
	)
	err := row.Scan(
		&g.ID,
		&g.Seq,
		&g.IntentHash,
		&g.TreeHash,
		&g.SourceHash,
		&intentJSON,
		&g.Source,
		&success,
		&g.Attempts,
		&errorsJSON,
		&warningsJSON,
		&durationNS,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Generation{}, err
		}
		return Generation{}, fmt.Errorf("scan generation: %w", err)
	}

	if g.Intent, err = unmarshalIntent(intentJSON); err != nil {
		return Generation{}, err
	}
	if g.Errors, err = unmarshalIssues(errorsJSON); err != nil {
		return Generation{}, err
	}
	if g.Warnings, err = unmarshalWarnings(warningsJSON); err != nil {
		return Generation{}, err
	}
	g.Success = success == 1
	g.Duration = time.Duration(durationNS)
	return g, nil
}
