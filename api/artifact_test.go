package api_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notebook-lv/autograder/api"
)

func TestArtifactEncodeDecodeStable(t *testing.T) {
	pts := 2.0
	msg := "good"
	artifact := &api.TestArtifact{
		Name:   "q1",
		Points: api.ListPoints([]float64{2, 3}),
		Suites: []api.TestSuite{{
			Cases: []api.TestCase{
				{Code: []string{">>> x = 1;", ">>> x", "1"}, Points: &pts, SuccessMessage: &msg},
				{Code: []string{">>> y", "2"}, Hidden: true},
			},
			Scored: true,
			Type:   api.SuiteTypeDoctest,
		}},
	}

	first, err := artifact.Encode()
	require.NoError(t, err)

	decoded, err := api.DecodeArtifact(first)
	require.NoError(t, err)
	require.Equal(t, artifact, decoded)

	second, err := decoded.Encode()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestPointsValueFlatJSON(t *testing.T) {
	b, err := api.FlatPoints(2.5).MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, "2.5", string(b))

	var p api.PointsValue
	require.NoError(t, p.UnmarshalJSON([]byte("2.5")))
	require.Equal(t, api.FlatPoints(2.5), p)
}

func TestPointsValueListJSON(t *testing.T) {
	b, err := api.ListPoints([]float64{1, 2}).MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, "[1,2]", string(b))

	var p api.PointsValue
	require.NoError(t, p.UnmarshalJSON([]byte("[1, 2]")))
	require.Equal(t, api.ListPoints([]float64{1, 2}), p)
}

func TestCaseOrderSurvivesReserialization(t *testing.T) {
	artifact := &api.TestArtifact{
		Name:   "q1",
		Points: api.FlatPoints(3),
		Suites: []api.TestSuite{{
			Cases: []api.TestCase{
				{Code: []string{">>> first", "1"}},
				{Code: []string{">>> second", "2"}},
				{Code: []string{">>> third", "3"}},
			},
			Scored: true,
			Type:   api.SuiteTypeDoctest,
		}},
	}

	data, err := artifact.Encode()
	require.NoError(t, err)
	decoded, err := api.DecodeArtifact(data)
	require.NoError(t, err)

	var order []string
	for _, c := range decoded.Suites[0].Cases {
		order = append(order, c.Code[0])
	}
	require.Equal(t, []string{">>> first", ">>> second", ">>> third"}, order)
}
