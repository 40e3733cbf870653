package engine

import (
	"errors"
	"fmt"
)

// MaxAttempts bounds the emit+validate passes of one generation: the
// first pass plus at most one repaired pass.
const MaxAttempts = 2

// attemptQuota counts emit+validate passes for a single generation.
// Each generation owns its own quota; it is never shared.
type attemptQuota struct {
	limit int
	used  int
}

func newAttemptQuota(limit int) *attemptQuota {
	return &attemptQuota{limit: limit}
}

// take records one pass, failing once the limit would be exceeded.
func (q *attemptQuota) take(label string) error {
	if q.used >= q.limit {
		return &AttemptsExceededError{Intent: label, Attempts: q.used + 1, Limit: q.limit}
	}
	q.used++
	return nil
}

// AttemptsExceededError reports a generation that tried to run more passes
// than MaxAttempts.
type AttemptsExceededError struct {
	Intent   string
	Attempts int
	Limit    int
}

func (e *AttemptsExceededError) Error() string {
	return fmt.Sprintf("generation %s exceeded %d emit+validate passes (attempt %d)", e.Intent, e.Limit, e.Attempts)
}

// IsAttemptsExceeded reports whether err is an AttemptsExceededError.
func IsAttemptsExceeded(err error) bool {
	var ae *AttemptsExceededError
	return errors.As(err, &ae)
}
