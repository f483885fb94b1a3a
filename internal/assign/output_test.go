package assign

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notebook-lv/autograder/internal/bundle"
	"github.com/notebook-lv/autograder/internal/notebook"
)

func questionCell(source, name string, points interface{}) *notebook.Cell {
	cell := notebook.NewCodeCell(source)
	meta := map[string]interface{}{"name": name}
	if points != nil {
		meta["points"] = points
	}
	cell.Metadata[QuestionMetadataKey] = meta
	return cell
}

func masterFixture() *notebook.Notebook {
	count := 1
	visible := codeCell("# TEST\nf(1)")
	visible.Outputs = []notebook.Output{{OutputType: "stream", Text: "2\n"}}
	visible.ExecutionCount = &count

	hidden := codeCell("# HIDDEN TEST\nf(2)")
	hidden.Outputs = []notebook.Output{{OutputType: "stream", Text: "3\n"}}

	q2test := codeCell("# TEST\ng()")
	q2test.Outputs = []notebook.Output{{OutputType: "stream", Text: "ok\n"}}

	return &notebook.Notebook{
		Cells: []*notebook.Cell{
			{CellType: notebook.CellTypeMarkdown, Source: "# Homework 1", Metadata: map[string]interface{}{}},
			questionCell("def f(x):\n    return x + 1", "q1", 2.0),
			visible,
			hidden,
			questionCell("def g():\n    return 'ok'", "q2", nil),
			q2test,
			codeCell("# IGNORE\nscratch_work()"),
		},
		Metadata:      map[string]interface{}{},
		NBFormat:      4,
		NBFormatMinor: 5,
	}
}

func compileFixture(t *testing.T, nb *notebook.Notebook) (*Assignment, error) {
	t.Helper()
	dir := t.TempDir()
	master := filepath.Join(dir, "hw1.ipynb")
	require.NoError(t, notebook.Write(nb, master))

	a, err := LoadAssignment(master, filepath.Join(dir, "dist"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return a, Compile(a, logger)
}

func TestCompileProducesBothTrees(t *testing.T) {
	a, err := compileFixture(t, masterFixture())
	require.NoError(t, err)

	agArtifacts, err := bundle.ReadDir(a.AgPath("tests"))
	require.NoError(t, err)
	require.Len(t, agArtifacts, 2)
	require.Equal(t, "q1", agArtifacts[0].Name)
	require.Len(t, agArtifacts[0].Suites[0].Cases, 2)
	require.Equal(t, 2.0, agArtifacts[0].Points.Flat)

	stuArtifacts, err := bundle.ReadDir(a.StuPath("tests"))
	require.NoError(t, err)
	require.Len(t, stuArtifacts[0].Suites[0].Cases, 1)
	require.False(t, stuArtifacts[0].Suites[0].Cases[0].Hidden)
	require.Equal(t, a.StuPath("tests"), a.StudentTestDir)
}

func TestCompileNotebookTransformation(t *testing.T) {
	a, err := compileFixture(t, masterFixture())
	require.NoError(t, err)

	ag, err := notebook.Load(a.AgPath("hw1.ipynb"))
	require.NoError(t, err)

	var checks []string
	for _, cell := range ag.Cells {
		if cell.Metadata["editable"] == false {
			checks = append(checks, cell.JoinedSource())
		}
	}
	require.Equal(t, []string{`grader.check("q1")`, `grader.check("q2")`}, checks)

	// test and ignore cells are gone from the output
	for _, cell := range ag.Cells {
		require.NotEqual(t, CellTest, Classify(cell))
		require.NotEqual(t, CellIgnore, Classify(cell))
	}

	stu, err := notebook.Load(a.StuPath("hw1.ipynb"))
	require.NoError(t, err)
	for _, cell := range stu.Cells {
		require.Empty(t, cell.Outputs)
		require.Nil(t, cell.ExecutionCount)
	}
}

func TestCompileWritesConfigArtifacts(t *testing.T) {
	a, err := compileFixture(t, masterFixture())
	require.NoError(t, err)

	agCfg, err := os.ReadFile(a.AgPath("hw1.config.json"))
	require.NoError(t, err)
	stuCfg, err := os.ReadFile(a.StuPath("hw1.config.json"))
	require.NoError(t, err)
	require.Equal(t, agCfg, stuCfg)
	require.Contains(t, string(agCfg), `"notebook": "hw1.ipynb"`)
}

func TestCompileTestCellOutsideQuestion(t *testing.T) {
	nb := &notebook.Notebook{
		Cells: []*notebook.Cell{
			codeCell("# TEST\nassert True"),
		},
		Metadata: map[string]interface{}{},
		NBFormat: 4,
	}
	_, err := compileFixture(t, nb)
	require.Error(t, err)
	require.Contains(t, err.Error(), "outside of a question block")
}

func TestCompileDuplicateQuestionName(t *testing.T) {
	test1 := codeCell("# TEST\nf(1)")
	test2 := codeCell("# TEST\nf(2)")
	nb := &notebook.Notebook{
		Cells: []*notebook.Cell{
			questionCell("def f(x): return x", "q1", nil),
			test1,
			questionCell("def f2(x): return x", "q1", nil),
			test2,
		},
		Metadata: map[string]interface{}{},
		NBFormat: 4,
	}
	_, err := compileFixture(t, nb)
	require.Error(t, err)
	require.Contains(t, err.Error(), `duplicate question name "q1"`)
}

func TestCompileQuestionWithoutTests(t *testing.T) {
	nb := &notebook.Notebook{
		Cells: []*notebook.Cell{
			questionCell("def f(x): return x", "q1", nil),
		},
		Metadata: map[string]interface{}{},
		NBFormat: 4,
	}
	_, err := compileFixture(t, nb)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no test cells found for question q1")
}
