package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/dcge/internal/emit"
	"github.com/roach88/dcge/internal/engine"
	"github.com/roach88/dcge/internal/store"
	"github.com/roach88/dcge/internal/testutil"
)

// Harness runs one scenario against a real Generator.
type Harness struct {
	store  *store.Store
	gen    *engine.Generator
	logger *slog.Logger
}

// Run executes a scenario with a background context.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext executes a scenario and returns the result.
//
// Each scenario gets a fresh in-memory store, so stored_count and
// deterministic assertions only see this scenario's artifacts. An error is
// returned only when the harness itself cannot run; a case that misses its
// expectation is recorded in Result.Errors.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	policy, err := emit.ParseNodePolicy(scenario.NodePolicy)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []engine.Option{
		engine.WithStore(st),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithIDGenerator(testutil.NewCountingIDGenerator(scenario.IDPrefix)),
		engine.WithNodePolicy(policy),
		engine.WithLogger(logger),
	}
	if scenario.MaxSourceLen > 0 {
		opts = append(opts, engine.WithMaxSourceLen(scenario.MaxSourceLen))
	}

	h := &Harness{
		store:  st,
		gen:    engine.New(opts...),
		logger: logger,
	}

	result := NewResult()
	if err := h.executeCases(ctx, scenario.Cases, result); err != nil {
		return nil, err
	}

	actx := &AssertionContext{
		Store:     st,
		Generator: h.gen,
		Ctx:       ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// executeCases generates each case in order and checks its expect clause.
func (h *Harness) executeCases(ctx context.Context, cases []Case, result *Result) error {
	for i, c := range cases {
		code, genErr := h.gen.Generate(ctx, c.Intent)

		ev := TraceEvent{Index: i, Label: c.Intent.Label()}
		switch {
		case genErr != nil:
			var ge *engine.GenerateError
			if !errors.As(genErr, &ge) {
				return fmt.Errorf("case %d: %w", i, genErr)
			}
			if ge.Code == engine.ErrCodeCancelled {
				return fmt.Errorf("case %d: %w", i, genErr)
			}
			ev.Outcome = OutcomeError
			ev.ErrorCode = string(ge.Code)
		default:
			ev.Outcome = OutcomeFailed
			if code.Success() {
				ev.Outcome = OutcomeSuccess
			}
			ev.ID = code.ID
			ev.Seq = code.Seq
			ev.Attempts = code.Attempts
			ev.SourceHash = code.SourceHash
			for _, is := range code.Validation.Errors {
				ev.Categories = append(ev.Categories, string(is.Category))
			}
			result.Sources[i] = code.Source
		}
		result.AddTrace(ev)

		if c.Expect != nil {
			for _, msg := range checkExpect(ev, result.Sources[i], c.Expect) {
				result.AddError(fmt.Sprintf("cases[%d] %s: %s", i, ev.Label, msg))
			}
		}

		h.logger.Info("case completed",
			"case", i,
			"intent", ev.Label,
			"outcome", string(ev.Outcome),
			"attempts", ev.Attempts,
		)
	}
	return nil
}

// checkExpect compares one trace event and its source to an expect clause.
func checkExpect(ev TraceEvent, source string, want *Expect) []string {
	var problems []string
	if ev.Outcome != want.Outcome {
		detail := ""
		if ev.ErrorCode != "" {
			detail = " (" + ev.ErrorCode + ")"
		} else if len(ev.Categories) > 0 {
			detail = " (" + strings.Join(ev.Categories, ", ") + ")"
		}
		problems = append(problems, fmt.Sprintf("expected outcome %s, got %s%s", want.Outcome, ev.Outcome, detail))
		return problems
	}

	if want.ErrorCode != "" && ev.ErrorCode != want.ErrorCode {
		problems = append(problems, fmt.Sprintf("expected error code %s, got %s", want.ErrorCode, ev.ErrorCode))
	}
	if want.Attempts != 0 && ev.Attempts != want.Attempts {
		problems = append(problems, fmt.Sprintf("expected %d attempts, got %d", want.Attempts, ev.Attempts))
	}
	for _, s := range want.Contains {
		if !strings.Contains(source, s) {
			problems = append(problems, fmt.Sprintf("source does not contain %q", s))
		}
	}
	for _, s := range want.NotContains {
		if strings.Contains(source, s) {
			problems = append(problems, fmt.Sprintf("source contains %q", s))
		}
	}
	for _, cat := range want.Categories {
		if !slices.Contains(ev.Categories, cat) {
			problems = append(problems, fmt.Sprintf("expected error category %s, got %v", cat, ev.Categories))
		}
	}
	return problems
}
