// Package grade loads suite artifacts, executes their cases against a
// submission's runtime state, and aggregates the outcomes into a score.
package grade

import (
	"context"
	"fmt"
	"strings"

	"github.com/notebook-lv/autograder/api"
)

// Grade runs every artifact's suites against the submission bound to the
// runner and rolls the per-case outcomes into a GradingResults. Case and
// suite execution is strictly sequential; a case that errors is scored zero
// with the error recorded, and grading continues with the next case.
func Grade(ctx context.Context, runner Runner, artifacts []*api.TestArtifact, gath ResultGatherer, submission string) (*api.GradingResults, error) {
	gath.StartJob(submission)
	results := api.NewGradingResults(submission)

	for _, artifact := range artifacts {
		res, err := gradeArtifact(ctx, runner, artifact, gath)
		if err != nil {
			gath.FinishJob(err, results.Total(), results.Possible())
			return nil, err
		}
		results.Add(res)
	}

	gath.FinishJob(nil, results.Total(), results.Possible())
	return results, nil
}

func gradeArtifact(ctx context.Context, runner Runner, artifact *api.TestArtifact, gath ResultGatherer) (*api.TestResult, error) {
	result := &api.TestResult{Name: artifact.Name, Scored: true}

	for _, suite := range artifact.Suites {
		points, err := resolveCasePoints(artifact.Points, suite.Cases)
		if err != nil {
			return nil, fmt.Errorf("artifact %s: %w", artifact.Name, err)
		}
		if !suite.Scored {
			result.Scored = false
		}

		gath.StartSuite(artifact.Name, len(suite.Cases))

		if suite.Setup != "" {
			if _, err := runner.Exec(ctx, suite.Setup); err != nil {
				// setup failure fails every case in this suite but does
				// not stop grading of other suites
				for i, c := range suite.Cases {
					cr := api.CaseResult{
						Possible: points[i],
						Hidden:   c.Hidden,
						Message:  fmt.Sprintf("suite setup failed: %v", err),
						Feedback: c.FailureMessage,
					}
					result.Cases = append(result.Cases, cr)
					gath.FinishCase(artifact.Name, i, false, 0, points[i], cr.Message)
				}
				gath.FinishSuite(artifact.Name, result.Score(), result.PossibleScore())
				continue
			}
		}

		for i, c := range suite.Cases {
			cr := runCase(ctx, runner, c, points[i])
			result.Cases = append(result.Cases, cr)
			gath.FinishCase(artifact.Name, i, cr.Passed, cr.Points, cr.Possible, cr.Message)
		}

		if suite.Teardown != "" {
			// teardown errors are recorded nowhere case-visible; the suite
			// outcome is already final
			_, _ = runner.Exec(ctx, suite.Teardown)
		}

		gath.FinishSuite(artifact.Name, result.Score(), result.PossibleScore())
	}

	return result, nil
}

// runCase executes one case's transcript and compares the captured output
// against the expected text. The final element of the case body is always
// the expected output; everything before it is the transcript to execute.
func runCase(ctx context.Context, runner Runner, c api.TestCase, possible float64) api.CaseResult {
	result := api.CaseResult{Possible: possible, Hidden: c.Hidden}
	if len(c.Code) == 0 {
		result.Message = "empty test case"
		return result
	}

	expected := c.Code[len(c.Code)-1]
	transcript := strings.Join(c.Code[:len(c.Code)-1], "\n")

	actual, err := runner.Exec(ctx, transcript)
	if err != nil {
		result.Message = err.Error()
		result.Feedback = c.FailureMessage
		return result
	}

	if outputMatches(expected, actual) {
		result.Passed = true
		result.Points = possible
		result.Feedback = c.SuccessMessage
	} else {
		result.Message = fmt.Sprintf("expected:\n%s\ngot:\n%s", expected, actual)
		result.Feedback = c.FailureMessage
	}
	return result
}

// outputMatches compares expected and actual output exactly, modulo
// trailing newlines.
func outputMatches(expected, actual string) bool {
	return strings.TrimRight(expected, "\n") == strings.TrimRight(actual, "\n")
}

// resolveCasePoints determines the point value of each case from the
// artifact's point policy. An explicit list maps one-to-one onto cases.
// Otherwise, cases with their own point value keep it and the remainder of
// the flat total is split evenly among unspecified cases.
func resolveCasePoints(policy api.PointsValue, cases []api.TestCase) ([]float64, error) {
	if policy.List != nil {
		if len(policy.List) != len(cases) {
			return nil, fmt.Errorf("points list has length %d but there are %d cases", len(policy.List), len(cases))
		}
		return policy.List, nil
	}

	total := policy.Flat
	preSpecified := 0.0
	unspecified := 0
	for _, c := range cases {
		if c.Points != nil {
			preSpecified += *c.Points
		} else {
			unspecified++
		}
	}
	if preSpecified > total {
		return nil, fmt.Errorf("cases specify %g points but the question total is %g", preSpecified, total)
	}

	perRemaining := 0.0
	if unspecified > 0 {
		perRemaining = (total - preSpecified) / float64(unspecified)
	}

	points := make([]float64, len(cases))
	for i, c := range cases {
		if c.Points != nil {
			points[i] = *c.Points
		} else {
			points[i] = perRemaining
		}
	}
	return points, nil
}
