package store

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/roach88/dcge/internal/intent"
	"github.com/roach88/dcge/internal/validate"
)

// marshalIntent stores the intent as JSON. Constraint order is preserved
// because it is significant to the builder.
func marshalIntent(spec intent.Spec) (string, error) {
	data, err := json.MarshalNoEscape(spec)
	if err != nil {
		return "", fmt.Errorf("marshal intent: %w", err)
	}
	return string(data), nil
}

func unmarshalIntent(data string) (intent.Spec, error) {
	var spec intent.Spec
	if err := json.Unmarshal([]byte(data), &spec); err != nil {
		return intent.Spec{}, fmt.Errorf("unmarshal intent: %w", err)
	}
	return spec, nil
}

// marshalIssues converts an issue list to JSON TEXT. A nil list is stored
// as [] so the column never holds null.
func marshalIssues(issues []validate.Issue) (string, error) {
	if len(issues) == 0 {
		return "[]", nil
	}
	data, err := json.MarshalNoEscape(issues)
	if err != nil {
		return "", fmt.Errorf("marshal issues: %w", err)
	}
	return string(data), nil
}

func unmarshalIssues(data string) ([]validate.Issue, error) {
	issues := []validate.Issue{}
	if data == "" || data == "[]" {
		return issues, nil
	}
	if err := json.Unmarshal([]byte(data), &issues); err != nil {
		return nil, fmt.Errorf("unmarshal issues: %w", err)
	}
	return issues, nil
}

func marshalWarnings(warnings []string) (string, error) {
	if len(warnings) == 0 {
		return "[]", nil
	}
	data, err := json.MarshalNoEscape(warnings)
	if err != nil {
		return "", fmt.Errorf("marshal warnings: %w", err)
	}
	return string(data), nil
}

func unmarshalWarnings(data string) ([]string, error) {
	warnings := []string{}
	if data == "" || data == "[]" {
		return warnings, nil
	}
	if err := json.Unmarshal([]byte(data), &warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	return warnings, nil
}
