package assign

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/notebook-lv/autograder/api"
	"github.com/notebook-lv/autograder/internal/notebook"
)

// Question is the per-question metadata read from the notebook.
type Question struct {
	Name   string
	Points *QuestionPoints
	Manual bool
}

// QuestionPoints is a question's point policy: a flat total, a per-case
// value, or an explicit per-case list. Exactly one field is set.
type QuestionPoints struct {
	Flat *float64
	Each *float64
	List []float64
}

// Assembler builds suite artifacts for one compilation pass. It exclusively
// owns the artifact map being accumulated; construction is single-pass and
// single-threaded.
type Assembler struct {
	names     mapset.Set[string]
	artifacts []*api.TestArtifact
}

func NewAssembler() *Assembler {
	return &Assembler{names: mapset.NewThreadUnsafeSet[string]()}
}

// GenTestCell assembles a question's tests into a suite artifact, registers
// it under the question's name, and returns the locked check cell that
// remains in the student-facing notebook. A second question with the same
// name is a fatal authoring error.
func (a *Assembler) GenTestCell(question Question, tests []Test) (*notebook.Cell, error) {
	if !a.names.Add(question.Name) {
		return nil, fmt.Errorf("duplicate question name %q", question.Name)
	}

	suite := genSuite(tests)
	points, err := resolvePoints(question, len(tests))
	if err != nil {
		return nil, err
	}

	a.artifacts = append(a.artifacts, &api.TestArtifact{
		Name:   question.Name,
		Points: points,
		Suites: []api.TestSuite{suite},
	})

	cell := notebook.NewCodeCell(fmt.Sprintf("grader.check(%q)", question.Name))
	notebook.Lock(cell)
	return cell, nil
}

// Artifacts returns the assembled artifacts in question order.
func (a *Assembler) Artifacts() []*api.TestArtifact {
	return a.artifacts
}

func genSuite(tests []Test) api.TestSuite {
	cases := make([]api.TestCase, len(tests))
	for i, t := range tests {
		cases[i] = genCase(t)
	}
	return api.TestSuite{
		Cases:  cases,
		Scored: true,
		Type:   api.SuiteTypeDoctest,
	}
}

// genCase converts a test's input into transcript form: doctest-prefix the
// lines, strip everything up to and including the last inline metadata
// terminator, insert statement separators between adjacent non-continuation
// statements, and append the expected output as the final element.
func genCase(test Test) api.TestCase {
	codeLines := ToDoctest(strings.Split(test.Input, "\n"))

	newStart := -1
	for i := 0; i < len(codeLines)-1; i++ {
		if strings.HasSuffix(strings.TrimRight(codeLines[i], " \t"), endTestMarker) {
			newStart = i
		}
		trimmed := strings.TrimSpace(codeLines[i])
		if strings.HasPrefix(codeLines[i+1], promptPrefix) && len(trimmed) > 3 &&
			!strings.HasSuffix(trimmed, "\\") {
			codeLines[i] += ";"
		}
	}

	codeLines = codeLines[newStart+1:]
	codeLines = append(codeLines, test.Output)

	return api.TestCase{
		Code:           codeLines,
		Hidden:         test.Hidden,
		Points:         test.Points,
		SuccessMessage: test.SuccessMessage,
		FailureMessage: test.FailureMessage,
	}
}

// resolvePoints applies the question's point policy. A per-case "each" value
// multiplies out to a flat total; an explicit list must match the number of
// tests exactly; a missing policy defaults to a flat 1.
func resolvePoints(question Question, numTests int) (api.PointsValue, error) {
	p := question.Points
	switch {
	case p == nil:
		return api.FlatPoints(1), nil
	case p.Each != nil:
		return api.FlatPoints(*p.Each * float64(numTests)), nil
	case p.List != nil:
		if len(p.List) != numTests {
			return api.PointsValue{}, fmt.Errorf(
				"error in question %s: length of points is %d but there are %d tests",
				question.Name, len(p.List), numTests)
		}
		return api.ListPoints(p.List), nil
	case p.Flat != nil:
		return api.FlatPoints(*p.Flat), nil
	default:
		return api.FlatPoints(1), nil
	}
}
