package harness

// Outcome is how a single case ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeError   Outcome = "error"
)

// TraceEvent records one case of a scenario run.
type TraceEvent struct {
	Index   int     `json:"index"`
	Label   string  `json:"label"`
	Outcome Outcome `json:"outcome"`

	// Set when an artifact was produced.
	ID         string   `json:"id,omitempty"`
	Seq        int64    `json:"seq,omitempty"`
	Attempts   int      `json:"attempts,omitempty"`
	Categories []string `json:"categories,omitempty"`
	SourceHash string   `json:"source_hash,omitempty"`

	// Set when the generator returned an error.
	ErrorCode string `json:"error_code,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per case, in case order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds the failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`

	// Sources maps case index to emitted source, for artifact cases only.
	Sources map[int]string `json:"-"`
}

// NewResult creates a passing result with no trace.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Sources: make(map[int]string),
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// Count returns how many cases ended with outcome o.
func (r *Result) Count(o Outcome) int {
	n := 0
	for _, ev := range r.Trace {
		if ev.Outcome == o {
			n++
		}
	}
	return n
}
