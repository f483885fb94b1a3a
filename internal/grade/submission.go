package grade

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/notebook-lv/autograder/internal/assign"
	"github.com/notebook-lv/autograder/internal/notebook"
)

// SeedSubmission loads a submission and seeds its code into the runner so
// test transcripts later execute against the submission's bindings. Notebook
// test cells, ignored cells and locked check cells are not part of the
// submission's own code and are skipped.
func SeedSubmission(r *ScriptRunner, path string) error {
	switch filepath.Ext(path) {
	case ".ipynb":
		nb, err := notebook.Load(path)
		if err != nil {
			return fmt.Errorf("load submission notebook: %w", err)
		}
		for _, cell := range nb.Cells {
			if cell.CellType != notebook.CellTypeCode {
				continue
			}
			if assign.Classify(cell) != assign.CellNormal {
				continue
			}
			if editable, ok := cell.Metadata["editable"].(bool); ok && !editable {
				continue
			}
			r.Seed(cell.JoinedSource())
		}
		return nil
	case ".py":
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load submission script: %w", err)
		}
		r.Seed(string(b))
		return nil
	}
	return fmt.Errorf("unsupported submission type %q", filepath.Ext(path))
}
