package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RemoveHiddenTests rewrites every suite artifact in dir with its hidden
// cases stripped. Cases are removed in reverse index order so earlier
// removal indices stay valid; a points list loses the matching index in
// lockstep. Idempotent: redacting an already-redacted directory rewrites
// each artifact byte-identically.
func RemoveHiddenTests(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read test directory %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ArtifactExt) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		artifact, err := ReadArtifact(path)
		if err != nil {
			return err
		}

		for si := range artifact.Suites {
			suite := &artifact.Suites[si]
			for i := len(suite.Cases) - 1; i >= 0; i-- {
				if !suite.Cases[i].Hidden {
					continue
				}
				suite.Cases = append(suite.Cases[:i], suite.Cases[i+1:]...)
				if artifact.Points.List != nil && i < len(artifact.Points.List) {
					artifact.Points.List = append(artifact.Points.List[:i], artifact.Points.List[i+1:]...)
				}
			}
		}

		data, err := artifact.Encode()
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to rewrite test artifact %s: %w", path, err)
		}
	}
	return nil
}
