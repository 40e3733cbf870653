package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/dcge/internal/intent"
)

// BatchResult is the outcome of one intent in a batch. Exactly one of
// Code and Err is set.
type BatchResult struct {
	Index  int
	Intent intent.Spec
	Code   *GeneratedCode
	Err    error
}

// GenerateBatch generates every spec with at most jobs concurrent
// generations (jobs <= 0 means GOMAXPROCS). Results are returned in input
// order. A failing intent never aborts the others.
//
// The batch takes one contiguous seq range up front and assigns ids in
// input order, so its artifacts are stamped the same way however the
// workers are scheduled, even with other Generate calls in flight.
func (g *Generator) GenerateBatch(ctx context.Context, specs []intent.Spec, jobs int) []BatchResult {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]BatchResult, len(specs))
	seqs := make([]int64, len(specs))
	ids := make([]string, len(specs))
	first := g.clock.Reserve(len(specs))
	for i, spec := range specs {
		results[i] = BatchResult{Index: i, Intent: spec}
		seqs[i] = first + int64(i)
		ids[i] = g.ids.Generate()
	}

	var eg errgroup.Group
	eg.SetLimit(jobs)
	for i := range specs {
		eg.Go(func() error {
			code, err := g.generate(ctx, specs[i], seqs[i], ids[i])
			results[i].Code = code
			results[i].Err = err
			return nil
		})
	}
	_ = eg.Wait()

	g.logger.Info("batch complete", "intents", len(specs), "jobs", jobs)
	return results
}

// BatchSummary counts the outcomes of a batch.
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`   // validation failed after repair
	Errored   int `json:"errored"`  // no artifact
	Repaired  int `json:"repaired"` // succeeded on the second pass
}

// Summarize counts results.
func Summarize(results []BatchResult) BatchSummary {
	s := BatchSummary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Errored++
		case r.Code.Success():
			s.Succeeded++
			if r.Code.Attempts > 1 {
				s.Repaired++
			}
		default:
			s.Failed++
		}
	}
	return s
}
