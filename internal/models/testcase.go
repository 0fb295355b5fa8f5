package models

import (
	"encoding/json"
	"fmt"
	"os"
)

// TestCase is a single dataset entry a model is asked to answer.
type TestCase struct {
	CaseID      string         `json:"case_id" yaml:"case_id"`
	Input       string         `json:"input" yaml:"input"`
	Expected    any            `json:"expected,omitempty" yaml:"expected,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Constraints []string       `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// ExpectedString returns Expected when it is a plain string.
func (tc *TestCase) ExpectedString() (string, bool) {
	s, ok := tc.Expected.(string)
	return s, ok
}

// ExpectedList returns Expected when it is a list of strings.
func (tc *TestCase) ExpectedList() ([]string, bool) {
	switch v := tc.Expected.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// HasExpected reports whether an expected value is present and non-empty.
func (tc *TestCase) HasExpected() bool {
	switch v := tc.Expected.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	return true
}

// LoadTestCases reads a JSON array of test cases.
func LoadTestCases(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTestCases(data, path)
}

// ParseTestCases decodes a JSON array of test cases. name is only used in
// error messages.
func ParseTestCases(data []byte, name string) ([]TestCase, error) {
	var cases []TestCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", name, err)
	}

	for i, tc := range cases {
		if tc.CaseID == "" {
			return nil, fmt.Errorf("dataset %s: case %d has no case_id", name, i)
		}
	}

	return cases, nil
}
