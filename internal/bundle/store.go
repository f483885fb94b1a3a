// Package bundle persists suite artifacts and packages them into grading
// bundles. Artifacts are a structured serialization (JSON), never executable
// code, so loading one cannot run arbitrary statements.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/notebook-lv/autograder/api"
)

// ArtifactExt is the file extension of serialized suite artifacts.
const ArtifactExt = ".json"

// WriteArtifact writes one suite artifact into dir as <name>.json.
func WriteArtifact(dir string, artifact *api.TestArtifact) error {
	data, err := artifact.Encode()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, artifact.Name+ArtifactExt)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write test artifact %s: %w", path, err)
	}
	return nil
}

// ReadArtifact loads a single suite artifact file.
func ReadArtifact(path string) (*api.TestArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test artifact %s: %w", path, err)
	}
	artifact, err := api.DecodeArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("test artifact %s: %w", path, err)
	}
	return artifact, nil
}

// ReadDir loads every suite artifact in a directory, sorted by filename.
// Entries without the artifact extension are skipped, not treated as fatal.
func ReadDir(dir string) ([]*api.TestArtifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read test directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ArtifactExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	artifacts := make([]*api.TestArtifact, 0, len(names))
	for _, name := range names {
		artifact, err := ReadArtifact(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}
