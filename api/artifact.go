package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TestCase is one assertion unit inside a suite. Code holds the doctest
// transcript lines in execution order; the final element is always the
// expected output text, possibly empty.
type TestCase struct {
	Code           []string `json:"code"`
	Hidden         bool     `json:"hidden"`
	Points         *float64 `json:"points"`
	SuccessMessage *string  `json:"success_message"`
	FailureMessage *string  `json:"failure_message"`
	Locked         bool     `json:"locked"`
}

// TestSuite is an ordered collection of cases for one question. Case order
// determines execution order and must survive re-serialization unchanged.
type TestSuite struct {
	Cases    []TestCase `json:"cases"`
	Scored   bool       `json:"scored"`
	Setup    string     `json:"setup"`
	Teardown string     `json:"teardown"`
	Type     string     `json:"type"`
}

// SuiteTypeDoctest marks suites whose cases are interactive-session
// transcripts compared against captured output.
const SuiteTypeDoctest = "doctest"

// PointsValue is the point policy of a question: either a flat number or an
// explicit per-case list. The zero value marshals as the number 0.
type PointsValue struct {
	Flat float64
	List []float64
}

func FlatPoints(v float64) PointsValue   { return PointsValue{Flat: v} }
func ListPoints(v []float64) PointsValue { return PointsValue{List: v} }

func (p PointsValue) MarshalJSON() ([]byte, error) {
	if p.List != nil {
		return json.Marshal(p.List)
	}
	return json.Marshal(p.Flat)
}

func (p *PointsValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		p.Flat = 0
		return json.Unmarshal(data, &p.List)
	}
	p.List = nil
	return json.Unmarshal(data, &p.Flat)
}

// TestArtifact is the persisted form of a question's tests, consumed later
// by the grading entry point.
type TestArtifact struct {
	Name   string      `json:"name"`
	Points PointsValue `json:"points"`
	Suites []TestSuite `json:"suites"`
}

// Encode serializes the artifact with the canonical encoding used on disk.
// Re-encoding an unchanged artifact is byte-identical.
func (t *TestArtifact) Encode() ([]byte, error) {
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode test artifact %s: %w", t.Name, err)
	}
	return append(b, '\n'), nil
}

// DecodeArtifact parses a serialized test artifact.
func DecodeArtifact(data []byte) (*TestArtifact, error) {
	var t TestArtifact
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode test artifact: %w", err)
	}
	return &t, nil
}
