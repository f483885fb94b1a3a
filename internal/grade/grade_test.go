package grade

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notebook-lv/autograder/api"
)

// stubRunner answers transcripts from a fixed table and records every
// transcript it was asked to execute.
type stubRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (r *stubRunner) Exec(ctx context.Context, transcript string) (string, error) {
	r.calls = append(r.calls, transcript)
	if err, ok := r.errs[transcript]; ok {
		return "", err
	}
	return r.outputs[transcript], nil
}

type nopGatherer struct{}

func (nopGatherer) StartJob(submission string)            {}
func (nopGatherer) StartSuite(name string, caseCount int) {}
func (nopGatherer) FinishCase(name string, caseIdx int, passed bool, points, possible float64, output string) {
}
func (nopGatherer) FinishSuite(name string, score, possible float64)  {}
func (nopGatherer) FinishJob(errIfAny error, total, possible float64) {}

func doctestCase(transcript, expected string) api.TestCase {
	return api.TestCase{Code: []string{transcript, expected}}
}

func scoredSuite(cases ...api.TestCase) api.TestSuite {
	return api.TestSuite{Cases: cases, Scored: true, Type: api.SuiteTypeDoctest}
}

func TestGradeScoreAggregation(t *testing.T) {
	artifact := &api.TestArtifact{
		Name:   "q1",
		Points: api.ListPoints([]float64{2, 3}),
		Suites: []api.TestSuite{scoredSuite(
			doctestCase(">>> add(1, 1)", "2"),
			doctestCase(">>> add(2, 2)", "5"),
		)},
	}
	runner := &stubRunner{outputs: map[string]string{
		">>> add(1, 1)": "2",
		">>> add(2, 2)": "4",
	}}

	results, err := Grade(context.Background(), runner, []*api.TestArtifact{artifact}, nopGatherer{}, "hw1.ipynb")
	require.NoError(t, err)
	require.Equal(t, 2.0, results.Total())
	require.Equal(t, 5.0, results.Possible())

	q1 := results.Get("q1")
	require.NotNil(t, q1)
	require.True(t, q1.Cases[0].Passed)
	require.False(t, q1.Cases[1].Passed)
	require.Contains(t, q1.Cases[1].Message, "expected")
}

func TestGradeCaseErrorIsIsolated(t *testing.T) {
	artifact := &api.TestArtifact{
		Name:   "q1",
		Points: api.FlatPoints(2),
		Suites: []api.TestSuite{scoredSuite(
			doctestCase(">>> boom()", ""),
			doctestCase(">>> x", "1"),
		)},
	}
	runner := &stubRunner{
		outputs: map[string]string{">>> x": "1"},
		errs:    map[string]error{">>> boom()": errors.New("NameError: boom")},
	}

	results, err := Grade(context.Background(), runner, []*api.TestArtifact{artifact}, nopGatherer{}, "hw1.ipynb")
	require.NoError(t, err)

	q1 := results.Get("q1")
	require.False(t, q1.Cases[0].Passed)
	require.Contains(t, q1.Cases[0].Message, "NameError")
	require.True(t, q1.Cases[1].Passed)
	require.Equal(t, 1.0, results.Total())
	require.Equal(t, 2.0, results.Possible())
}

func TestGradeSetupFailureFailsSuiteOnly(t *testing.T) {
	broken := &api.TestArtifact{
		Name:   "q1",
		Points: api.FlatPoints(1),
		Suites: []api.TestSuite{{
			Cases:  []api.TestCase{doctestCase(">>> x", "1")},
			Scored: true,
			Setup:  ">>> setup()",
			Type:   api.SuiteTypeDoctest,
		}},
	}
	healthy := &api.TestArtifact{
		Name:   "q2",
		Points: api.FlatPoints(1),
		Suites: []api.TestSuite{scoredSuite(doctestCase(">>> y", "2"))},
	}
	runner := &stubRunner{
		outputs: map[string]string{">>> y": "2"},
		errs:    map[string]error{">>> setup()": errors.New("import failed")},
	}

	results, err := Grade(context.Background(), runner, []*api.TestArtifact{broken, healthy}, nopGatherer{}, "hw1.ipynb")
	require.NoError(t, err)

	q1 := results.Get("q1")
	require.False(t, q1.Cases[0].Passed)
	require.Contains(t, q1.Cases[0].Message, "suite setup failed")

	q2 := results.Get("q2")
	require.True(t, q2.Cases[0].Passed)
	require.Equal(t, 1.0, results.Total())
	require.Equal(t, 2.0, results.Possible())
}

func TestGradeUnscoredSuiteExecutesButDoesNotCount(t *testing.T) {
	unscored := &api.TestArtifact{
		Name:   "practice",
		Points: api.FlatPoints(5),
		Suites: []api.TestSuite{{
			Cases:  []api.TestCase{doctestCase(">>> warmup()", "ok")},
			Scored: false,
			Type:   api.SuiteTypeDoctest,
		}},
	}
	runner := &stubRunner{outputs: map[string]string{">>> warmup()": "ok"}}

	results, err := Grade(context.Background(), runner, []*api.TestArtifact{unscored}, nopGatherer{}, "hw1.ipynb")
	require.NoError(t, err)
	require.Contains(t, runner.calls, ">>> warmup()")
	require.Equal(t, 0.0, results.Total())
	require.Equal(t, 0.0, results.Possible())
	require.True(t, results.Get("practice").Cases[0].Passed)
}

func TestGradeTrailingNewlineTolerance(t *testing.T) {
	artifact := &api.TestArtifact{
		Name:   "q1",
		Points: api.FlatPoints(1),
		Suites: []api.TestSuite{scoredSuite(doctestCase(">>> x", "1\n"))},
	}
	runner := &stubRunner{outputs: map[string]string{">>> x": "1"}}

	results, err := Grade(context.Background(), runner, []*api.TestArtifact{artifact}, nopGatherer{}, "hw1.ipynb")
	require.NoError(t, err)
	require.Equal(t, 1.0, results.Total())
}

func TestGradeCasePointsSplitEvenly(t *testing.T) {
	pts := 2.0
	artifact := &api.TestArtifact{
		Name:   "q1",
		Points: api.FlatPoints(6),
		Suites: []api.TestSuite{scoredSuite(
			api.TestCase{Code: []string{">>> a", "1"}, Points: &pts},
			doctestCase(">>> b", "2"),
			doctestCase(">>> c", "3"),
		)},
	}
	runner := &stubRunner{outputs: map[string]string{">>> a": "1", ">>> b": "2", ">>> c": "3"}}

	results, err := Grade(context.Background(), runner, []*api.TestArtifact{artifact}, nopGatherer{}, "hw1.ipynb")
	require.NoError(t, err)

	q1 := results.Get("q1")
	require.Equal(t, 2.0, q1.Cases[0].Points)
	require.Equal(t, 2.0, q1.Cases[1].Points)
	require.Equal(t, 2.0, q1.Cases[2].Points)
	require.Equal(t, 6.0, results.Total())
}

func TestGradeOverspecifiedCasePointsFatal(t *testing.T) {
	pts := 9.0
	artifact := &api.TestArtifact{
		Name:   "q1",
		Points: api.FlatPoints(5),
		Suites: []api.TestSuite{scoredSuite(
			api.TestCase{Code: []string{">>> a", "1"}, Points: &pts},
		)},
	}
	runner := &stubRunner{outputs: map[string]string{">>> a": "1"}}

	_, err := Grade(context.Background(), runner, []*api.TestArtifact{artifact}, nopGatherer{}, "hw1.ipynb")
	require.Error(t, err)
	require.Contains(t, err.Error(), "q1")
}
