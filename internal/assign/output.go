package assign

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/notebook-lv/autograder/internal/bundle"
	"github.com/notebook-lv/autograder/internal/notebook"
)

// QuestionMetadataKey is the cell-metadata key that opens a question block.
const QuestionMetadataKey = "question"

// Compile transforms the master notebook into the autograder and student
// output trees: the transformed notebook with locked check cells, one suite
// artifact per question, and the config artifact. The student tree's
// notebook has outputs stripped and its artifacts have hidden cases
// redacted. Fatal authoring errors abort with question and cell context.
func Compile(a *Assignment, logger *slog.Logger) error {
	nb, err := notebook.Load(a.Master)
	if err != nil {
		return err
	}

	for _, dir := range []string{a.AgPath("tests"), a.StuPath("tests")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	asm := NewAssembler()
	out := &notebook.Notebook{
		Metadata:      nb.Metadata,
		NBFormat:      nb.NBFormat,
		NBFormatMinor: nb.NBFormatMinor,
	}

	var current *Question
	var tests []Test
	flush := func(cellIdx int) error {
		if current == nil {
			return nil
		}
		if current.Manual {
			current, tests = nil, nil
			return nil
		}
		if len(tests) == 0 {
			return fmt.Errorf("no test cells found for question %s (cell number %d)", current.Name, cellIdx+1)
		}
		checkCell, err := asm.GenTestCell(*current, tests)
		if err != nil {
			return fmt.Errorf("%w (cell number %d)", err, cellIdx+1)
		}
		out.Cells = append(out.Cells, checkCell)
		current, tests = nil, nil
		return nil
	}

	for i, cell := range nb.Cells {
		switch Classify(cell) {
		case CellIgnore:
			continue
		case CellTest:
			if current == nil {
				return fmt.Errorf("test cell outside of a question block (cell number %d)", i+1)
			}
			t, err := ReadTest(cell, current.Name)
			if err != nil {
				return fmt.Errorf("%w (cell number %d)", err, i+1)
			}
			tests = append(tests, t)
		default:
			q, err := questionConfig(cell, i)
			if err != nil {
				return err
			}
			if q != nil {
				if err := flush(i); err != nil {
					return err
				}
				current = q
				logger.Debug("entering question block", "question", q.Name, "cell", i+1)
			}
			out.Cells = append(out.Cells, cell)
		}
	}
	if err := flush(len(nb.Cells)); err != nil {
		return err
	}

	logger.Info("assembled test suites", "questions", len(asm.Artifacts()))

	for _, artifact := range asm.Artifacts() {
		if err := bundle.WriteArtifact(a.AgPath("tests"), artifact); err != nil {
			return err
		}
		if err := bundle.WriteArtifact(a.StuPath("tests"), artifact); err != nil {
			return err
		}
	}
	if err := bundle.RemoveHiddenTests(a.StuPath("tests")); err != nil {
		return err
	}
	a.StudentTestDir = a.StuPath("tests")

	if err := notebook.Write(out, a.AgPath(a.MasterStem()+".ipynb")); err != nil {
		return err
	}

	student, err := cloneNotebook(out)
	if err != nil {
		return err
	}
	notebook.StripOutputs(student)
	if err := notebook.Write(student, a.StuPath(a.MasterStem()+".ipynb")); err != nil {
		return err
	}

	return a.WriteConfigArtifact()
}

// questionConfig reads a question block opener from cell metadata, or nil.
func questionConfig(cell *notebook.Cell, cellIdx int) (*Question, error) {
	raw, ok := cell.Metadata[QuestionMetadataKey]
	if !ok {
		return nil, nil
	}
	meta, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed question metadata (cell number %d)", cellIdx+1)
	}

	name, _ := meta["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("question name not specified (cell number %d)", cellIdx+1)
	}

	q := &Question{Name: name}
	if manual, ok := meta["manual"].(bool); ok {
		q.Manual = manual
	}

	points, err := parseQuestionPoints(meta["points"])
	if err != nil {
		return nil, fmt.Errorf("question %s: %w (cell number %d)", name, err, cellIdx+1)
	}
	q.Points = points
	return q, nil
}

func parseQuestionPoints(raw interface{}) (*QuestionPoints, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		return &QuestionPoints{Flat: &v}, nil
	case int:
		f := float64(v)
		return &QuestionPoints{Flat: &f}, nil
	case map[string]interface{}:
		each, ok := v["each"].(float64)
		if !ok {
			return nil, fmt.Errorf("points mapping must have a numeric 'each' key")
		}
		return &QuestionPoints{Each: &each}, nil
	case []interface{}:
		list := make([]float64, len(v))
		for i, e := range v {
			f, ok := e.(float64)
			if !ok {
				return nil, fmt.Errorf("points list must contain only numbers")
			}
			list[i] = f
		}
		return &QuestionPoints{List: list}, nil
	default:
		return nil, fmt.Errorf("unsupported points value %v", raw)
	}
}

func cloneNotebook(nb *notebook.Notebook) (*notebook.Notebook, error) {
	data, err := json.Marshal(nb)
	if err != nil {
		return nil, fmt.Errorf("failed to clone notebook: %w", err)
	}
	return notebook.Parse(data)
}
