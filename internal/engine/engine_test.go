package engine

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dcge/internal/ast"
	"github.com/roach88/dcge/internal/emit"
	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/store"
	"github.com/roach88/dcge/internal/validate"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(dir + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestGenerator(opts ...Option) *Generator {
	return New(append([]Option{WithLogger(discardLogger())}, opts...)...)
}

func computeIntent() intent.Spec {
	return intent.Spec{Language: intent.Rust, Kind: intent.KindFunction, Name: "compute", Purpose: "adds"}
}

func addIntent(lang intent.Language) intent.Spec {
	return intent.Spec{
		Language:    lang,
		Kind:        intent.KindFunction,
		Name:        "add",
		Purpose:     "takes a and b",
		Constraints: []string{"return a + b"},
	}
}

func TestGenerate_EndToEndSuccess(t *testing.T) {
	g := newTestGenerator()

	code, err := g.Generate(context.Background(), computeIntent())
	require.NoError(t, err)

	assert.True(t, code.Success(), code.Validation.Messages())
	assert.Equal(t, 1, code.Attempts)
	assert.GreaterOrEqual(t, int64(code.Duration), int64(0))

	open := strings.Index(code.Source, "compute(")
	require.GreaterOrEqual(t, open, 0, code.Source)
	assert.Greater(t, strings.LastIndex(code.Source, "}"), open)
	assert.Equal(t, "pub fn compute() -> () {\n    return;\n}\n", code.Source)
}

func TestGenerate_UnsupportedLanguage(t *testing.T) {
	g := newTestGenerator()

	code, err := g.Generate(context.Background(), intent.Spec{
		Language:    "cobol",
		Kind:        intent.KindStruct,
		Name:        "Point",
		Constraints: []string{"field x: int"},
	})
	require.Error(t, err)
	assert.Nil(t, code)
	assert.Contains(t, err.Error(), "Unsupported language")
	assert.True(t, IsUnsupported(err))

	var ge *GenerateError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, StageBuild, ge.Stage)
}

func TestGenerate_UnimplementedCombinations(t *testing.T) {
	g := newTestGenerator()
	specs := []intent.Spec{
		{Language: intent.Go, Kind: intent.KindStruct, Name: "Point"},
		{Language: intent.Python, Kind: intent.KindFileIO, Operation: "read"},
		{Language: intent.TypeScript, Kind: intent.KindThreading, Operation: "worker"},
	}
	for _, spec := range specs {
		t.Run(spec.Label(), func(t *testing.T) {
			code, err := g.Generate(context.Background(), spec)
			require.Error(t, err)
			assert.Nil(t, code, "no partial artifact")
			assert.True(t, IsUnsupported(err), err)
		})
	}
}

func TestGenerate_InvalidIntent(t *testing.T) {
	g := newTestGenerator()

	_, err := g.Generate(context.Background(), intent.Spec{Language: intent.Rust, Kind: intent.KindFunction})
	require.Error(t, err)

	var ge *GenerateError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ErrCodeInvalidIntent, ge.Code)
	assert.False(t, IsUnsupported(err))
}

func TestGenerate_RepairSucceeds(t *testing.T) {
	gold := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, lang := range []intent.Language{intent.Rust, intent.Python} {
		t.Run(string(lang), func(t *testing.T) {
			code, err := newTestGenerator().Generate(context.Background(), addIntent(lang))
			require.NoError(t, err)

			assert.True(t, code.Success(), code.Validation.Messages())
			assert.Equal(t, 2, code.Attempts, "first pass fails on the missing return type")
			fn, ok := code.AST.(*ast.Function)
			require.True(t, ok)
			assert.Equal(t, ast.TypeInt, fn.ReturnType)
			gold.Assert(t, string(lang)+"_add", []byte(code.Source))
		})
	}
}

func TestGenerate_RepairStillFails(t *testing.T) {
	spec := addIntent(intent.Rust)
	spec.Constraints = []string{"call transmute(a)", "return a + b"}

	code, err := newTestGenerator().Generate(context.Background(), spec)
	require.NoError(t, err, "validation failure is an artifact, not an error")

	assert.False(t, code.Success())
	assert.Equal(t, 2, code.Attempts)
	assert.Equal(t, []validate.Category{validate.CategoryForbiddenToken}, categories(code.Validation))
	assert.Contains(t, code.Source, "-> i64", "the type repair is kept")
}

func TestGenerate_UnrecoverableKeepsFirstPass(t *testing.T) {
	spec := intent.Spec{
		Language:    intent.Rust,
		Kind:        intent.KindFunction,
		Name:        "f",
		Purpose:     "takes a",
		Constraints: []string{"call transmute(a)"},
	}

	code, err := newTestGenerator().Generate(context.Background(), spec)
	require.NoError(t, err)

	assert.False(t, code.Success())
	assert.Equal(t, 1, code.Attempts, "no rule matches so no second pass runs")
	assert.NotEmpty(t, code.Validation.Errors)
}

func TestGenerate_NeverEmptyOnBothSides(t *testing.T) {
	g := newTestGenerator()
	specs := []intent.Spec{
		computeIntent(),
		addIntent(intent.Python),
		addIntent(intent.TypeScript),
		addIntent(intent.Go),
		{Language: intent.Rust, Kind: intent.KindStruct, Name: "Point", Constraints: []string{"field x: int", "private field y: int"}},
		{Language: intent.Python, Kind: intent.KindStruct, Name: "Point", Constraints: []string{"field x: int", "method norm"}},
		{Language: intent.TypeScript, Kind: intent.KindStruct, Name: "Point", Constraints: []string{"field x: int"}},
		{Language: intent.Rust, Kind: intent.KindModule, Name: "util"},
		{Language: intent.Python, Kind: intent.KindModule, Name: "util", Docstring: "Helpers."},
		{Language: intent.TypeScript, Kind: intent.KindModule, Name: "util"},
		{Language: intent.Go, Kind: intent.KindModule, Name: "util"},
		{Language: intent.Rust, Kind: intent.KindFileIO, Operation: "read"},
		{Language: intent.Rust, Kind: intent.KindFileIO, Operation: "write"},
		{Language: intent.Rust, Kind: intent.KindThreading, Operation: "worker"},
		{Language: intent.Python, Kind: intent.KindThreading, Operation: "worker"},
	}
	for _, spec := range specs {
		t.Run(spec.Label(), func(t *testing.T) {
			code, err := g.Generate(context.Background(), spec)
			require.NoError(t, err)
			if code.Success() {
				assert.NotEmpty(t, strings.TrimSpace(code.Source))
			} else {
				assert.NotEmpty(t, code.Validation.Errors)
			}
			assert.GreaterOrEqual(t, code.Attempts, 1)
			assert.LessOrEqual(t, code.Attempts, MaxAttempts)
		})
	}
}

func TestGenerate_ImplementedCombinationsSucceed(t *testing.T) {
	g := newTestGenerator()
	specs := []intent.Spec{
		{Language: intent.Rust, Kind: intent.KindFileIO, Operation: "read"},
		{Language: intent.Rust, Kind: intent.KindFileIO, Operation: "write"},
		{Language: intent.Rust, Kind: intent.KindThreading, Operation: "worker"},
		{Language: intent.Go, Kind: intent.KindModule, Name: "util"},
	}
	for _, spec := range specs {
		t.Run(spec.Label(), func(t *testing.T) {
			code, err := g.Generate(context.Background(), spec)
			require.NoError(t, err)
			assert.True(t, code.Success(), code.Validation.Messages())
		})
	}
}

func TestGenerate_PythonDocstringWithColonLines(t *testing.T) {
	g := newTestGenerator()
	specs := []intent.Spec{
		{Language: intent.Python, Kind: intent.KindFunction, Name: "f", Docstring: "Compute.\nNote:\nsee docs"},
		{Language: intent.Python, Kind: intent.KindStruct, Name: "Point", Docstring: "Point.\nFields:"},
	}
	for _, spec := range specs {
		t.Run(spec.Label(), func(t *testing.T) {
			code, err := g.Generate(context.Background(), spec)
			require.NoError(t, err)
			assert.True(t, code.Success(), code.Validation.Messages())
			assert.Equal(t, 1, code.Attempts)
			for _, line := range strings.Split(spec.Docstring, "\n") {
				assert.Contains(t, code.Source, line)
			}
		})
	}
}

func TestGenerate_SignedAndDecimalReturns(t *testing.T) {
	g := newTestGenerator()
	tests := []struct {
		spec intent.Spec
		want string
	}{
		{intent.Spec{Language: intent.Rust, Kind: intent.KindFunction, Name: "neg", Constraints: []string{"return -1"}}, "return -1;"},
		{intent.Spec{Language: intent.Rust, Kind: intent.KindFunction, Name: "half", Constraints: []string{"return 1.5"}}, "-> f64"},
		{intent.Spec{Language: intent.Python, Kind: intent.KindFunction, Name: "half", Constraints: []string{"return -0.5"}}, "return -0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.spec.Label(), func(t *testing.T) {
			code, err := g.Generate(context.Background(), tt.spec)
			require.NoError(t, err)
			assert.True(t, code.Success(), code.Validation.Messages())
			assert.Contains(t, code.Source, tt.want)
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	specs := []intent.Spec{computeIntent(), addIntent(intent.Rust), addIntent(intent.Python)}
	for _, spec := range specs {
		t.Run(spec.Label(), func(t *testing.T) {
			a, err := newTestGenerator().Generate(context.Background(), spec)
			require.NoError(t, err)
			b, err := newTestGenerator().Generate(context.Background(), spec)
			require.NoError(t, err)

			assert.Equal(t, a.Source, b.Source)
			assert.Equal(t, a.TreeHash, b.TreeHash)
			assert.Equal(t, a.SourceHash, b.SourceHash)
			assert.Equal(t, a.IntentHash, b.IntentHash)
			assert.Equal(t, a.AST, b.AST)
		})
	}
}

func TestGenerate_DoesNotMutateIntent(t *testing.T) {
	spec := addIntent(intent.Rust)
	before := append([]string(nil), spec.Constraints...)

	code, err := newTestGenerator().Generate(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, before, spec.Constraints)
	assert.Equal(t, spec, code.Intent)
}

func TestGenerate_SeqIncreases(t *testing.T) {
	g := newTestGenerator(WithClock(NewClockAt(10)))

	a, err := g.Generate(context.Background(), computeIntent())
	require.NoError(t, err)
	b, err := g.Generate(context.Background(), computeIntent())
	require.NoError(t, err)

	assert.Equal(t, int64(11), a.Seq)
	assert.Equal(t, int64(12), b.Seq)
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, err := newTestGenerator().Generate(ctx, computeIntent())
	require.Error(t, err)
	assert.Nil(t, code)
	assert.True(t, IsCancelled(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_PersistsToStore(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	g, err := NewWithStore(ctx, s, WithLogger(discardLogger()), WithIDGenerator(NewFixedGenerator("gen-1", "gen-2")))
	require.NoError(t, err)

	code, err := g.Generate(ctx, addIntent(intent.Rust))
	require.NoError(t, err)

	stored, err := s.ReadGeneration(ctx, "gen-1")
	require.NoError(t, err)
	assert.Equal(t, code.Source, stored.Source)
	assert.Equal(t, code.IntentHash, stored.IntentHash)
	assert.Equal(t, code.TreeHash, stored.TreeHash)
	assert.Equal(t, 2, stored.Attempts)
	assert.True(t, stored.Success)
	assert.Equal(t, int64(1), stored.Seq)

	// A second generator over the same store resumes the clock.
	g2, err := NewWithStore(ctx, s, WithLogger(discardLogger()), WithIDGenerator(NewFixedGenerator("gen-3")))
	require.NoError(t, err)
	next, err := g2.Generate(ctx, computeIntent())
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.Seq)
}

func TestGenerate_ErrorsAreNotPersisted(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	g := newTestGenerator(WithStore(s))

	_, err := g.Generate(ctx, intent.Spec{Language: "cobol", Kind: intent.KindFunction, Name: "f"})
	require.Error(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNew_Defaults(t *testing.T) {
	g := New()
	assert.Equal(t, emit.PolicyDegrade, g.Policy())
	assert.Equal(t, int64(0), g.Clock().Current())

	strict := New(WithNodePolicy(emit.PolicyStrict))
	assert.Equal(t, emit.PolicyStrict, strict.Policy())
}

func TestGenerate_MaxSourceLen(t *testing.T) {
	g := newTestGenerator(WithMaxSourceLen(10))

	code, err := g.Generate(context.Background(), computeIntent())
	require.NoError(t, err)
	assert.False(t, code.Success())
	assert.Equal(t, 1, code.Attempts, "source_too_long has no repair")
	assert.True(t, code.Validation.Has(validate.CategorySourceTooLong))
}

func categories(r validate.Result) []validate.Category {
	out := make([]validate.Category, len(r.Errors))
	for i, is := range r.Errors {
		out[i] = is.Category
	}
	return out
}
