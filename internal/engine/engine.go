package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/dcge/internal/ast"
	"github.com/roach88/dcge/internal/emit"
	"github.com/roach88/dcge/internal/fingerprint"
	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/ir"
	"github.com/roach88/dcge/internal/store"
	"github.com/roach88/dcge/internal/validate"
)

// GeneratedCode is the artifact of one generation. It is returned whether
// or not validation succeeded; Validation says which.
type GeneratedCode struct {
	ID     string
	Seq    int64
	Intent intent.Spec
	Source string

	// AST is the tree the returned source was emitted from. After a repair
	// it is the repaired tree.
	AST        ast.Node
	Validation validate.Result

	// Attempts is the number of emit+validate passes, 1 or 2.
	Attempts int
	Duration time.Duration

	IntentHash string
	TreeHash   string
	SourceHash string

	// Degraded lists node kinds the emitter replaced with a no-op.
	Degraded []ast.NodeKind
}

// Success reports whether the final validation pass succeeded.
func (c *GeneratedCode) Success() bool {
	return c.Validation.Success
}

// Generator runs intents through the pipeline
//
//	AST build -> IR build -> emit -> validate -> (on failure) repair once -> emit -> validate
//
// A Generator holds no per-call state besides its clock, so Generate may be
// called from many goroutines at once.
type Generator struct {
	validator *validate.Validator
	policy    emit.NodePolicy
	store     *store.Store
	ids       IDGenerator
	clock     Sequencer
	logger    *slog.Logger

	maxSourceLen int
	grammarCheck bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithNodePolicy selects how node kinds a target cannot render are
// handled. Default: emit.PolicyDegrade.
func WithNodePolicy(p emit.NodePolicy) Option {
	return func(g *Generator) {
		g.policy = p
	}
}

// WithStore persists every artifact to s.
func WithStore(s *store.Store) Option {
	return func(g *Generator) {
		g.store = s
	}
}

// WithIDGenerator overrides artifact id generation. Default: UUIDv7.
func WithIDGenerator(ids IDGenerator) Option {
	return func(g *Generator) {
		g.ids = ids
	}
}

// Sequencer hands out artifact seqs. Implemented by Clock and by the
// resettable test clock in testutil.
type Sequencer interface {
	Next() int64
	Reserve(n int) int64
	Current() int64
}

// WithClock sets the logical clock, e.g. one resumed with NewClockAt.
func WithClock(c Sequencer) Option {
	return func(g *Generator) {
		g.clock = c
	}
}

// WithMaxSourceLen sets the simulated compiler's source ceiling.
// Default: validate.DefaultMaxSourceLen.
func WithMaxSourceLen(n int) Option {
	return func(g *Generator) {
		g.maxSourceLen = n
	}
}

// WithGrammarCheck toggles the outline grammar check. Default: on.
func WithGrammarCheck(enabled bool) Option {
	return func(g *Generator) {
		g.grammarCheck = enabled
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		policy:       emit.PolicyDegrade,
		ids:          UUIDv7Generator{},
		clock:        NewClock(),
		logger:       slog.Default(),
		maxSourceLen: validate.DefaultMaxSourceLen,
		grammarCheck: true,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.validator = validate.New(
		validate.WithMaxSourceLen(g.maxSourceLen),
		validate.WithGrammarCheck(g.grammarCheck),
	)
	return g
}

// NewWithStore creates a Generator that persists to s and resumes its clock
// after the last stored seq.
func NewWithStore(ctx context.Context, s *store.Store, opts ...Option) (*Generator, error) {
	seq, err := s.LatestSeq(ctx)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithClock(NewClockAt(seq))}, opts...)
	opts = append(opts, WithStore(s))
	return New(opts...), nil
}

// Clock returns the generator's logical clock.
func (g *Generator) Clock() Sequencer {
	return g.clock
}

// Policy returns the node policy in effect.
func (g *Generator) Policy() emit.NodePolicy {
	return g.policy
}

// Generate turns spec into source.
//
// An error means no artifact: the intent is malformed, its combination is
// not implemented, an invariant broke, or ctx ended between stages. A
// failed validation is not an error; it is reported in the artifact after
// at most one repair.
func (g *Generator) Generate(ctx context.Context, spec intent.Spec) (*GeneratedCode, error) {
	return g.generate(ctx, spec, g.clock.Next(), g.ids.Generate())
}

// pass is one emit+validate round over a tree.
type pass struct {
	tree   ast.Node
	output *emit.Output
	result validate.Result
}

func (g *Generator) generate(ctx context.Context, spec intent.Spec, seq int64, id string) (*GeneratedCode, error) {
	start := time.Now()
	label := spec.Label()
	log := g.logger.With("intent", label, "language", string(spec.Language), "kind", string(spec.Kind))

	if err := spec.Validate(); err != nil {
		return nil, newGenerateError(ErrCodeInvalidIntent, StageIntent, label, err)
	}
	if err := checkContext(ctx, StageBuild, label); err != nil {
		return nil, err
	}

	tree, err := ast.Build(spec)
	if err != nil {
		code := ErrCodeInvalidIntent
		if ast.IsUnsupported(err) {
			code = ErrCodeUnsupported
		}
		log.Debug("ast build failed", "error", err)
		return nil, newGenerateError(code, StageBuild, label, err)
	}

	quota := newAttemptQuota(MaxAttempts)
	current, err := g.runPass(ctx, tree, spec.Language, label, quota)
	if err != nil {
		return nil, err
	}

	if !current.result.Success {
		log.Info("validation failed, attempting repair",
			"attempt", quota.used,
			"errors", len(current.result.Errors),
		)
		// Repair works on a copy so a failed repair leaves the first
		// pass's tree intact for the artifact.
		repaired, rerr := validate.Regenerate(ast.Clone(tree), current.result.Errors)
		switch {
		case rerr == nil:
			if err := checkContext(ctx, StageRepair, label); err != nil {
				return nil, err
			}
			current, err = g.runPass(ctx, repaired, spec.Language, label, quota)
			if err != nil {
				return nil, err
			}
		case errors.Is(rerr, validate.ErrUnrecoverable):
			log.Info("repair not possible", "reason", rerr)
		default:
			return nil, newGenerateError(ErrCodeInvariant, StageRepair, label, rerr)
		}
	}

	code, err := g.artifact(spec, id, seq, current, quota.used, time.Since(start))
	if err != nil {
		return nil, newGenerateError(ErrCodeInvariant, StagePersist, label, err)
	}

	if g.store != nil {
		if err := g.store.WriteGeneration(ctx, toGeneration(code)); err != nil {
			log.Error("persist generation failed", "id", code.ID, "error", err)
			return nil, newGenerateError(ErrCodeStoreFailed, StagePersist, label, err)
		}
	}

	log.Info("generation complete",
		"id", code.ID,
		"seq", code.Seq,
		"success", code.Success(),
		"attempt", code.Attempts,
		"errors", len(code.Validation.Errors),
	)
	return code, nil
}

// runPass builds the IR for tree, emits it and validates the output.
func (g *Generator) runPass(ctx context.Context, tree ast.Node, lang intent.Language, label string, quota *attemptQuota) (pass, error) {
	if err := quota.take(label); err != nil {
		return pass{}, newGenerateError(ErrCodeInvariant, StageEmit, label, err)
	}
	if err := checkContext(ctx, StageIR, label); err != nil {
		return pass{}, err
	}

	typed, err := ir.Build(tree)
	if err != nil {
		return pass{}, newGenerateError(ErrCodeInvariant, StageIR, label, err)
	}

	if err := checkContext(ctx, StageEmit, label); err != nil {
		return pass{}, err
	}
	out, err := emit.Emit(lang, tree, g.policy)
	if err != nil {
		var une *emit.UnsupportedNodeError
		if errors.As(err, &une) {
			return pass{}, newGenerateError(ErrCodeUnsupportedNode, StageEmit, label, err)
		}
		return pass{}, newGenerateError(ErrCodeUnsupported, StageEmit, label, err)
	}

	if err := checkContext(ctx, StageValidate, label); err != nil {
		return pass{}, err
	}
	res := g.validator.ValidateOutput(out, lang, tree, typed)
	g.logger.Debug("pass validated",
		"intent", label,
		"attempt", quota.used,
		"success", res.Success,
		"errors", len(res.Errors),
		"warnings", len(res.Warnings),
	)
	return pass{tree: tree, output: out, result: res}, nil
}

func (g *Generator) artifact(spec intent.Spec, id string, seq int64, p pass, attempts int, d time.Duration) (*GeneratedCode, error) {
	intentHash, err := fingerprint.IntentHash(spec)
	if err != nil {
		return nil, err
	}
	treeHash, err := fingerprint.TreeHash(p.tree)
	if err != nil {
		return nil, err
	}
	return &GeneratedCode{
		ID:         id,
		Seq:        seq,
		Intent:     spec,
		Source:     p.output.Source,
		AST:        p.tree,
		Validation: p.result,
		Attempts:   attempts,
		Duration:   d,
		IntentHash: intentHash,
		TreeHash:   treeHash,
		SourceHash: fingerprint.SourceHash(p.output.Source),
		Degraded:   p.output.Degraded,
	}, nil
}

func toGeneration(c *GeneratedCode) store.Generation {
	return store.Generation{
		ID:         c.ID,
		Seq:        c.Seq,
		IntentHash: c.IntentHash,
		TreeHash:   c.TreeHash,
		SourceHash: c.SourceHash,
		Intent:     c.Intent,
		Source:     c.Source,
		Success:    c.Success(),
		Attempts:   c.Attempts,
		Errors:     c.Validation.Errors,
		Warnings:   c.Validation.Warnings,
		Duration:   c.Duration,
	}
}

// checkContext is the only cancellation point: stages themselves never
// block, so the context is consulted between them.
func checkContext(ctx context.Context, next Stage, label string) error {
	if err := ctx.Err(); err != nil {
		return newGenerateError(ErrCodeCancelled, next, label, err)
	}
	return nil
}
