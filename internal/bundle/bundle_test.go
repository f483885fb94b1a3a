package bundle_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notebook-lv/autograder/api"
	"github.com/notebook-lv/autograder/internal/bundle"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "tests"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "hw1.ipynb"), []byte(`{"cells": []}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "tests", "q1.json"), []byte(`{"name": "q1"}`), 0o644))

	outPath := filepath.Join(t.TempDir(), "hw1-autograder.tar.zst")
	require.NoError(t, bundle.Pack(src, outPath))

	dest := t.TempDir()
	require.NoError(t, bundle.Unpack(outPath, dest))

	nb, err := os.ReadFile(filepath.Join(dest, "hw1.ipynb"))
	require.NoError(t, err)
	require.Equal(t, `{"cells": []}`, string(nb))

	q1, err := os.ReadFile(filepath.Join(dest, "tests", "q1.json"))
	require.NoError(t, err)
	require.Equal(t, `{"name": "q1"}`, string(q1))
}

func TestWriteReadArtifact(t *testing.T) {
	dir := t.TempDir()
	artifact := &api.TestArtifact{
		Name:   "q2",
		Points: api.FlatPoints(4),
		Suites: []api.TestSuite{{
			Cases:  []api.TestCase{{Code: []string{">>> x", "1"}}},
			Scored: true,
			Type:   api.SuiteTypeDoctest,
		}},
	}
	require.NoError(t, bundle.WriteArtifact(dir, artifact))

	got, err := bundle.ReadArtifact(filepath.Join(dir, "q2.json"))
	require.NoError(t, err)
	require.Equal(t, artifact, got)
}

func TestReadDirSortsAndSkips(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"q2", "q10", "q1"} {
		require.NoError(t, bundle.WriteArtifact(dir, &api.TestArtifact{
			Name:   name,
			Points: api.FlatPoints(1),
		}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("docs"), 0o644))

	artifacts, err := bundle.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, artifacts, 3)
	// lexicographic by filename
	require.Equal(t, "q1", artifacts[0].Name)
	require.Equal(t, "q10", artifacts[1].Name)
	require.Equal(t, "q2", artifacts[2].Name)
}
