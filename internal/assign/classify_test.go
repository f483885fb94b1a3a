package assign

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notebook-lv/autograder/internal/notebook"
)

func codeCell(source string) *notebook.Cell {
	return &notebook.Cell{CellType: notebook.CellTypeCode, Source: notebook.SourceText(source)}
}

func TestClassifyTestMarkers(t *testing.T) {
	for _, source := range []string{
		"# TEST\nassert x == 1",
		"# test\nassert x == 1",
		"## Test ##\nassert x == 1",
		"## Hidden Test ##\nassert x == 1",
		"# HIDDEN TEST\nassert x == 1",
		"\"\"\" test\nassert x == 1",
		"''' Test\nassert x == 1",
	} {
		require.Equal(t, CellTest, Classify(codeCell(source)), "source: %q", source)
	}
}

func TestClassifyMetadataBlock(t *testing.T) {
	source := "# q1 check\n# BEGIN TEST\npoints: 2\n# END TEST\nassert x == 1"
	require.Equal(t, CellTest, Classify(codeCell(source)))
}

func TestClassifyIgnoreMarkers(t *testing.T) {
	require.Equal(t, CellIgnore, Classify(codeCell("# IGNORE\nprint('scratch')")))
	require.Equal(t, CellIgnore, Classify(codeCell("## Ignore ##\nprint('scratch')")))
}

func TestClassifyNormalCells(t *testing.T) {
	require.Equal(t, CellNormal, Classify(codeCell("x = 1")))
	require.Equal(t, CellNormal, Classify(codeCell("")))

	// a test marker needs a comment or docstring prefix; a bare identifier
	// that happens to start with "test" is ordinary code
	require.Equal(t, CellNormal, Classify(codeCell("test_scores = scores[:10]")))
	require.Equal(t, CellNormal, Classify(codeCell("testing = True")))

	// markdown cells are never test cells, whatever their text says
	md := &notebook.Cell{CellType: notebook.CellTypeMarkdown, Source: "# TEST"}
	require.Equal(t, CellNormal, Classify(md))
}

func TestClassifyDeterministic(t *testing.T) {
	cell := codeCell("# TEST\nassert x == 1")
	first := Classify(cell)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Classify(cell))
	}
}
