// Package eval replays fixed interpretation cases against a running
// instance and applies deterministic contract and safety checks to the
// responses.
package eval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

var requestRequiredFields = []string{
	"gene",
	"hgvs",
	"variant_type",
	"disease_context",
	"assay_context",
}

var requestOptionalFields = []string{"user_question"}

// Case is one evaluation case loaded from a JSONL dataset
type Case struct {
	CaseID          string
	Request         map[string]any
	ExpectedAbstain bool
}

// LoadCases reads a JSONL dataset from disk. Every line must be a JSON
// object with the request fields plus an expected.expected_abstain flag;
// malformed lines fail loading with a file:line error.
func LoadCases(path string) ([]Case, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset file not found: %s", path)
	}
	defer func() { _ = file.Close() }()

	var cases []Case
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			return nil, fmt.Errorf("%s:%d is not a valid JSON object: %w", path, lineNo, err)
		}

		c, err := buildCase(payload, path, lineNo)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	if len(cases) == 0 {
		return nil, fmt.Errorf("dataset is empty: %s", path)
	}
	return cases, nil
}

func buildCase(payload map[string]any, path string, lineNo int) (Case, error) {
	expected, ok := payload["expected"].(map[string]any)
	if !ok {
		return Case{}, fmt.Errorf("%s:%d must include object field 'expected'", path, lineNo)
	}
	expectedAbstain, ok := expected["expected_abstain"].(bool)
	if !ok {
		return Case{}, fmt.Errorf("%s:%d expected.expected_abstain must be boolean", path, lineNo)
	}

	caseID := fmt.Sprintf("line-%d", lineNo)
	if raw, present := payload["case_id"]; present {
		id, ok := raw.(string)
		if !ok || strings.TrimSpace(id) == "" {
			return Case{}, fmt.Errorf("%s:%d case_id must be a non-empty string", path, lineNo)
		}
		caseID = strings.TrimSpace(id)
	}

	request := map[string]any{}
	for _, field := range requestRequiredFields {
		value, ok := payload[field].(string)
		if !ok {
			return Case{}, fmt.Errorf("%s:%d missing string field %q", path, lineNo, field)
		}
		request[field] = value
	}
	for _, field := range requestOptionalFields {
		raw, present := payload[field]
		if !present || raw == nil {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			return Case{}, fmt.Errorf("%s:%d optional field %q must be string or null", path, lineNo, field)
		}
		request[field] = value
	}

	return Case{CaseID: caseID, Request: request, ExpectedAbstain: expectedAbstain}, nil
}
