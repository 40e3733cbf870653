package store

import (
	"errors"
	"time"

	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/validate"
)

// ErrNotFound is returned when a generation id has no row.
var ErrNotFound = errors.New("generation not found")

// Generation is one persisted artifact.
type Generation struct {
	ID         string
	Seq        int64
	IntentHash string
	TreeHash   string
	SourceHash string
	Intent     intent.Spec
	Source     string
	Success    bool
	Attempts   int
	Errors     []validate.Issue
	Warnings   []string
	Duration   time.Duration
}

// Filter narrows ListGenerations. Zero fields match everything.
type Filter struct {
	Language   intent.Language
	IntentHash string
	FailedOnly bool
	// Limit keeps the last N rows by seq; 0 means no limit.
	Limit int
}
