package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/dcge/internal/engine"
	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s", ev.Index, ev.Label, ev.Outcome)
		if ev.ErrorCode != "" {
			fmt.Fprintf(&buf, " %s", ev.ErrorCode)
		}
		if ev.Attempts > 0 {
			fmt.Fprintf(&buf, " attempts=%d", ev.Attempts)
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

// AssertionContext gives assertions access to the scenario's store and
// generator.
type AssertionContext struct {
	Store     *store.Store
	Generator *engine.Generator
	Ctx       context.Context
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertOutcomeCount:
			err = assertOutcomeCount(result, a)
		case AssertStoredCount:
			err = assertStoredCount(result, a, actx)
		case AssertDeterministic:
			err = assertDeterministic(result, actx)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertOutcomeCount(result *Result, a Assertion) error {
	got := result.Count(a.Outcome)
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutcomeCount,
		Expected: fmt.Sprintf("%d cases with outcome %s", a.Count, a.Outcome),
		Actual:   fmt.Sprintf("%d", got),
		Trace:    result.Trace,
	}
}

// assertStoredCount counts persisted generations matching the filter.
// Error outcomes are never persisted.
func assertStoredCount(result *Result, a Assertion, actx *AssertionContext) error {
	if actx == nil || actx.Store == nil {
		return fmt.Errorf("stored_count requires a store")
	}
	gens, err := actx.Store.ListGenerations(actx.Ctx, store.Filter{
		Language:   intent.Language(a.Language),
		FailedOnly: a.FailedOnly,
	})
	if err != nil {
		return fmt.Errorf("list generations: %w", err)
	}
	if len(gens) == a.Count {
		return nil
	}

	filter := "all"
	if a.Language != "" {
		filter = a.Language
	}
	if a.FailedOnly {
		filter += ", failed only"
	}
	return &AssertionError{
		Type:     AssertStoredCount,
		Expected: fmt.Sprintf("%d stored generations (%s)", a.Count, filter),
		Actual:   fmt.Sprintf("%d", len(gens)),
		Trace:    result.Trace,
	}
}

// assertDeterministic regenerates every stored artifact and requires
// byte-identical trees and sources.
func assertDeterministic(result *Result, actx *AssertionContext) error {
	if actx == nil || actx.Store == nil || actx.Generator == nil {
		return fmt.Errorf("deterministic requires a store and generator")
	}
	replays, err := actx.Generator.ReplayAll(actx.Ctx, actx.Store, store.Filter{})
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	var diverged []string
	for _, r := range replays {
		if !r.Match() {
			diverged = append(diverged, r.Stored.Intent.Label())
		}
	}
	if len(diverged) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertDeterministic,
		Expected: "every replay reproduces its stored tree and source",
		Actual:   "diverged: " + strings.Join(diverged, ", "),
		Trace:    result.Trace,
	}
}
