package assign

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAssignmentDefaults(t *testing.T) {
	dir := t.TempDir()
	master := filepath.Join(dir, "hw1.ipynb")

	a, err := LoadAssignment(master, filepath.Join(dir, "dist"))
	require.NoError(t, err)
	require.True(t, a.RunTests)
	require.Equal(t, "hw1", a.MasterStem())
	require.Equal(t, filepath.Join(dir, "dist", "autograder", "tests"), a.AgPath("tests"))
	require.Equal(t, filepath.Join(dir, "dist", "student", "tests"), a.StuPath("tests"))
}

func TestLoadAssignmentSidecar(t *testing.T) {
	dir := t.TempDir()
	master := filepath.Join(dir, "hw1.ipynb")
	sidecar := filepath.Join(dir, "hw1.toml")
	require.NoError(t, os.WriteFile(sidecar, []byte(`
name = "Homework 1"
run_tests = false
ignore_modules = ["matplotlib"]

[variables]
df = "pandas.DataFrame"
`), 0o644))

	a, err := LoadAssignment(master, filepath.Join(dir, "dist"))
	require.NoError(t, err)
	require.Equal(t, "Homework 1", a.Name)
	require.False(t, a.RunTests)
	require.Equal(t, []string{"matplotlib"}, a.IgnoreModules)
	require.Equal(t, map[string]string{"df": "pandas.DataFrame"}, a.Variables)
}

func TestLoadAssignmentBadSidecar(t *testing.T) {
	dir := t.TempDir()
	master := filepath.Join(dir, "hw1.ipynb")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hw1.toml"), []byte("not toml = = ="), 0o644))

	_, err := LoadAssignment(master, filepath.Join(dir, "dist"))
	require.Error(t, err)
}
