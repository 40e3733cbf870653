// Package validate checks emitted source in three fixed stages and repairs
// trees that fail in a known way.
//
// Stages run in order and never stop early:
//
//  1. parse shape: empty source, brace balance, indentation after a colon,
//     entry point, as the target profile requires
//  2. IR: every problem reported by ir.TypedIR.Validate, tagged "Type error: "
//  3. simulated compile: source length ceiling and forbidden tokens
//
// Every Issue carries a Category; repair dispatches on it, never on the
// message text.
package validate

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/roach88/dcge/internal/ast"
	"github.com/roach88/dcge/internal/emit"
	"github.com/roach88/dcge/internal/grammar"
	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/ir"
	"github.com/roach88/dcge/internal/target"
)

// DefaultMaxSourceLen is the simulated compiler's source ceiling in
// characters.
const DefaultMaxSourceLen = 100_000

// Category classifies an Issue.
type Category string

const (
	CategoryEmptySource     Category = "empty_source"
	CategoryUnmatchedBraces Category = "unmatched_braces"
	CategoryIndentation     Category = "indentation"
	CategoryEntryPoint      Category = "missing_entry_point"
	CategoryTypeError       Category = "type_error"
	CategorySourceTooLong   Category = "source_too_long"
	CategoryForbiddenToken  Category = "forbidden_token"
	CategoryUnsupported     Category = "unsupported_language"
)

// Issue is one validation failure.
type Issue struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return i.Message
}

// Result is the outcome of one validation pass.
type Result struct {
	Success  bool          `json:"success"`
	Errors   []Issue       `json:"errors"`
	Warnings []string      `json:"warnings"`
	Duration time.Duration `json:"duration_ns"`
}

// Messages returns the error messages in order.
func (r Result) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, is := range r.Errors {
		out[i] = is.Message
	}
	return out
}

// Has reports whether any error has category c.
func (r Result) Has(c Category) bool {
	for _, is := range r.Errors {
		if is.Category == c {
			return true
		}
	}
	return false
}

// Option configures a Validator.
type Option func(*Validator)

// WithMaxSourceLen overrides DefaultMaxSourceLen. Values <= 0 are ignored.
func WithMaxSourceLen(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.maxSourceLen = n
		}
	}
}

// WithGrammarCheck enables or disables the outline grammar check in
// ValidateOutput. It is enabled by default.
func WithGrammarCheck(enabled bool) Option {
	return func(v *Validator) {
		v.grammarCheck = enabled
	}
}

// Validator holds configuration only and is safe for concurrent use.
type Validator struct {
	maxSourceLen int
	grammarCheck bool
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{maxSourceLen: DefaultMaxSourceLen, grammarCheck: true}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MaxSourceLen returns the configured source ceiling.
func (v *Validator) MaxSourceLen() int {
	return v.maxSourceLen
}

// Validate runs all three stages over src. tree and typed may be nil, in
// which case the IR stage has nothing to check.
func (v *Validator) Validate(src string, lang intent.Language, tree ast.Node, typed *ir.TypedIR) Result {
	start := time.Now()
	var issues []Issue

	prof, err := target.Lookup(lang)
	if err != nil {
		issues = append(issues, Issue{Category: CategoryUnsupported, Message: err.Error()})
	}

	issues = append(issues, checkShape(src, prof)...)
	issues = append(issues, checkIR(tree, typed)...)
	issues = append(issues, v.checkCompile(src, prof)...)

	return Result{
		Success:  len(issues) == 0,
		Errors:   issues,
		Duration: time.Since(start),
	}
}

// ValidateOutput validates an emitter output. On top of Validate it runs
// the target grammar over the declaration outline and reports degraded
// nodes; both only produce warnings.
func (v *Validator) ValidateOutput(out *emit.Output, lang intent.Language, tree ast.Node, typed *ir.TypedIR) Result {
	start := time.Now()
	res := v.Validate(out.Source, lang, tree, typed)

	if v.grammarCheck {
		if g, err := grammar.For(lang); err == nil {
			if _, err := g.Parse(out.Outline); err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("grammar: %v", err))
			}
		}
	}
	for _, kind := range out.Degraded {
		res.Warnings = append(res.Warnings, fmt.Sprintf("degraded unsupported node: %s", kind))
	}

	res.Duration = time.Since(start)
	return res
}

func checkShape(src string, prof target.Profile) []Issue {
	var issues []Issue
	if strings.TrimSpace(src) == "" {
		issues = append(issues, Issue{Category: CategoryEmptySource, Message: "Empty source"})
	}
	for _, c := range prof.Checks {
		switch c {
		case target.CheckBraces:
			issues = append(issues, checkBraces(src)...)
		case target.CheckIndentation:
			issues = append(issues, checkIndentation(src)...)
		case target.CheckEntryPoint:
			if !hasEntryPoint(src, prof.EntryPoint) {
				issues = append(issues, Issue{
					Category: CategoryEntryPoint,
					Message:  fmt.Sprintf("Missing entry point: no line starts with %q", strings.TrimSpace(prof.EntryPoint)),
				})
			}
		}
	}
	return issues
}

func checkIR(tree ast.Node, typed *ir.TypedIR) []Issue {
	if tree == nil || typed == nil {
		return nil
	}
	var issues []Issue
	for _, err := range typed.Validate(tree) {
		issues = append(issues, Issue{Category: CategoryTypeError, Message: "Type error: " + err.Error()})
	}
	return issues
}

func (v *Validator) checkCompile(src string, prof target.Profile) []Issue {
	var issues []Issue
	if n := utf8.RuneCountInString(src); n > v.maxSourceLen {
		issues = append(issues, Issue{
			Category: CategorySourceTooLong,
			Message:  fmt.Sprintf("Source too long: %d characters exceeds the %d limit", n, v.maxSourceLen),
		})
	}
	for _, tok := range prof.ForbiddenTokens {
		if strings.Contains(src, tok) {
			issues = append(issues, Issue{
				Category: CategoryForbiddenToken,
				Message:  fmt.Sprintf("Forbidden token %q", strings.TrimSpace(tok)),
			})
		}
	}
	return issues
}
