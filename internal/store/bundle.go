package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/roach88/dcge/internal/validate"
)

// bundleMagic and bundleVersion head every bundle. Bump the version when
// bundleRecord changes shape.
const (
	bundleMagic   = "dcge-bundle"
	bundleVersion uint16 = 1
)

// ErrBadBundle is returned when a bundle header is missing or from an
// unknown version.
var ErrBadBundle = errors.New("not a dcge bundle")

type bundleHeader struct {
	Magic   string `msgpack:"magic"`
	Version uint16 `msgpack:"version"`
	Count   uint32 `msgpack:"count"`
}

type bundleIssue struct {
	Category string `msgpack:"category"`
	Message  string `msgpack:"message"`
}

// bundleRecord is the wire form of a Generation. The intent travels as the
// same JSON text the store keeps, so field order inside it is preserved.
type bundleRecord struct {
	ID         string        `msgpack:"id"`
	Seq        int64         `msgpack:"seq"`
	IntentHash string        `msgpack:"intent_hash"`
	TreeHash   string        `msgpack:"tree_hash"`
	SourceHash string        `msgpack:"source_hash"`
	Intent     string        `msgpack:"intent"`
	Source     string        `msgpack:"source"`
	Success    bool          `msgpack:"success"`
	Attempts   uint8         `msgpack:"attempts"`
	Errors     []bundleIssue `msgpack:"errors"`
	Warnings   []string      `msgpack:"warnings"`
	DurationNS int64         `msgpack:"duration_ns"`
}

// Export writes the generations matching f to w as a msgpack bundle, in
// seq order, and returns how many were written.
func (s *Store) Export(ctx context.Context, w io.Writer, f Filter) (int, error) {
	gens, err := s.ListGenerations(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	count, err := safecast.Conv[uint32](len(gens))
	if err != nil {
		return 0, fmt.Errorf("export: too many generations: %w", err)
	}

	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(bundleHeader{Magic: bundleMagic, Version: bundleVersion, Count: count}); err != nil {
		return 0, fmt.Errorf("export: write header: %w", err)
	}
	for i, g := range gens {
		rec, err := toBundleRecord(g)
		if err != nil {
			return i, fmt.Errorf("export %s: %w", g.ID, err)
		}
		if err := enc.Encode(rec); err != nil {
			return i, fmt.Errorf("export %s: %w", g.ID, err)
		}
	}
	return len(gens), nil
}

// Import reads a bundle written by Export and stores every record. Records
// whose id already exists are skipped, so importing twice is harmless.
// It returns the number of records read.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	dec := msgpack.NewDecoder(r)

	var hdr bundleHeader
	if err := dec.Decode(&hdr); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadBundle, err)
	}
	if hdr.Magic != bundleMagic {
		return 0, fmt.Errorf("%w: bad magic %q", ErrBadBundle, hdr.Magic)
	}
	if hdr.Version != bundleVersion {
		return 0, fmt.Errorf("%w: unsupported version %d", ErrBadBundle, hdr.Version)
	}

	n := 0
	for i := uint32(0); i < hdr.Count; i++ {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		var rec bundleRecord
		if err := dec.Decode(&rec); err != nil {
			return n, fmt.Errorf("import record %d: %w", i, err)
		}
		g, err := fromBundleRecord(rec)
		if err != nil {
			return n, fmt.Errorf("import record %d: %w", i, err)
		}
		if err := s.WriteGeneration(ctx, g); err != nil {
			return n, fmt.Errorf("import record %d: %w", i, err)
		}
		n++
	}
	return n, nil
}

func toBundleRecord(g Generation) (bundleRecord, error) {
	intentJSON, err := marshalIntent(g.Intent)
	if err != nil {
		return bundleRecord{}, err
	}
	attempts, err := safecast.Conv[uint8](g.Attempts)
	if err != nil {
		return bundleRecord{}, fmt.Errorf("attempts: %w", err)
	}
	issues := make([]bundleIssue, len(g.Errors))
	for i, is := range g.Errors {
		issues[i] = bundleIssue{Category: string(is.Category), Message: is.Message}
	}
	warnings := g.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return bundleRecord{
		ID:         g.ID,
		Seq:        g.Seq,
		IntentHash: g.IntentHash,
		TreeHash:   g.TreeHash,
		SourceHash: g.SourceHash,
		Intent:     intentJSON,
		Source:     g.Source,
		Success:    g.Success,
		Attempts:   attempts,
		Errors:     issues,
		Warnings:   warnings,
		DurationNS: g.Duration.Nanoseconds(),
	}, nil
}

func fromBundleRecord(rec bundleRecord) (Generation, error) {
	spec, err := unmarshalIntent(rec.Intent)
	if err != nil {
		return Generation{}, err
	}
	issues := make([]validate.Issue, len(rec.Errors))
	for i, is := range rec.Errors {
		issues[i] = validate.Issue{Category: validate.Category(is.Category), Message: is.Message}
	}
	warnings := rec.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return Generation{
		ID:         rec.ID,
		Seq:        rec.Seq,
		IntentHash: rec.IntentHash,
		TreeHash:   rec.TreeHash,
		SourceHash: rec.SourceHash,
		Intent:     spec,
		Source:     rec.Source,
		Success:    rec.Success,
		Attempts:   int(rec.Attempts),
		Errors:     issues,
		Warnings:   warnings,
		Duration:   time.Duration(rec.DurationNS),
	}, nil
}
