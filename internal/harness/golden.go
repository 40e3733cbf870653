package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dcge/internal/fingerprint"
)

// TraceSnapshot is what a golden file holds for one scenario run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot into the value set canonical JSON
// accepts. Zero-valued optional fields are left out.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"index":   ev.Index,
			"label":   ev.Label,
			"outcome": string(ev.Outcome),
		}
		if ev.ID != "" {
			m["id"] = ev.ID
		}
		if ev.Seq != 0 {
			m["seq"] = ev.Seq
		}
		if ev.Attempts != 0 {
			m["attempts"] = ev.Attempts
		}
		if len(ev.Categories) > 0 {
			m["categories"] = ev.Categories
		}
		if ev.SourceHash != "" {
			m["source_hash"] = ev.SourceHash
		}
		if ev.ErrorCode != "" {
			m["error_code"] = ev.ErrorCode
		}
		traceList[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// MarshalTrace returns the canonical JSON of a scenario's trace.
func MarshalTrace(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: name, Trace: result.Trace}
	return fingerprint.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden runs a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
