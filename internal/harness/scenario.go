package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dcge/internal/emit"
	"github.com/roach88/dcge/internal/intent"
)

// Scenario is a list of intents to generate in order, with expectations
// per case and assertions over the whole run.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// NodePolicy is "degrade" (default) or "strict".
	NodePolicy string `yaml:"node_policy,omitempty"`

	// MaxSourceLen overrides the simulated compiler's source ceiling.
	MaxSourceLen int `yaml:"max_source_len,omitempty"`

	// IDPrefix prefixes artifact ids: {prefix}-0001, ... Default "gen".
	IDPrefix string `yaml:"id_prefix,omitempty"`

	Cases      []Case      `yaml:"cases"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Case is one generation.
type Case struct {
	Intent intent.Spec `yaml:"intent"`

	// Expect is optional; without it the case is only traced.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes what a case should produce.
type Expect struct {
	// Outcome is success, failed or error.
	Outcome Outcome `yaml:"outcome"`

	// Attempts, if non-zero, is the expected number of passes.
	Attempts int `yaml:"attempts,omitempty"`

	// Contains and NotContains are substrings of the emitted source.
	Contains    []string `yaml:"contains,omitempty"`
	NotContains []string `yaml:"not_contains,omitempty"`

	// Categories must all appear among the final validation errors.
	Categories []string `yaml:"categories,omitempty"`

	// ErrorCode is the expected engine.GenerateErrorCode for error outcomes.
	ErrorCode string `yaml:"error_code,omitempty"`
}

// Assertion is evaluated after every case has run.
type Assertion struct {
	// Type is outcome_count, stored_count or deterministic.
	Type string `yaml:"type"`

	// Outcome and Count are used by outcome_count.
	Outcome Outcome `yaml:"outcome,omitempty"`
	Count   int     `yaml:"count,omitempty"`

	// Language and FailedOnly filter stored_count, which also uses Count.
	Language   string `yaml:"language,omitempty"`
	FailedOnly bool   `yaml:"failed_only,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcomeCount  = "outcome_count"
	AssertStoredCount   = "stored_count"
	AssertDeterministic = "deterministic"
)

// LoadScenario reads and parses a scenario file. Unknown fields are
// rejected so a typo like "assertion:" does not silently skip checks.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	if _, err := emit.ParseNodePolicy(s.NodePolicy); err != nil {
		return fmt.Errorf("node_policy: %w", err)
	}
	if s.MaxSourceLen < 0 {
		return fmt.Errorf("max_source_len must be non-negative")
	}

	// Intents are not validated here: an invalid intent is a legitimate
	// case whose expected outcome is error.
	for i, c := range s.Cases {
		if c.Expect == nil {
			continue
		}
		switch c.Expect.Outcome {
		case OutcomeSuccess, OutcomeFailed:
			if c.Expect.ErrorCode != "" {
				return fmt.Errorf("cases[%d].expect: error_code requires outcome error", i)
			}
		case OutcomeError:
			if c.Expect.Attempts != 0 || len(c.Expect.Contains) > 0 || len(c.Expect.NotContains) > 0 {
				return fmt.Errorf("cases[%d].expect: outcome error produces no source or attempts", i)
			}
		case "":
			return fmt.Errorf("cases[%d].expect: outcome is required", i)
		default:
			return fmt.Errorf("cases[%d].expect: unknown outcome %q", i, c.Expect.Outcome)
		}
		if c.Expect.Attempts < 0 || c.Expect.Attempts > 2 {
			return fmt.Errorf("cases[%d].expect: attempts must be 1 or 2", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutcomeCount:
		switch a.Outcome {
		case OutcomeSuccess, OutcomeFailed, OutcomeError:
		default:
			return fmt.Errorf("assertions[%d]: outcome_count needs outcome success, failed or error", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertStoredCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertDeterministic:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
