package grade

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranscriptStatements(t *testing.T) {
	transcript := ">>> if x:\n...     y = 1\n>>> x + 1"
	require.Equal(t, "if x:\n    y = 1\nx + 1", TranscriptStatements(transcript))
}

func TestTranscriptStatementsDropsBlankLines(t *testing.T) {
	transcript := ">>> x = 1\n\n>>> x"
	require.Equal(t, "x = 1\nx", TranscriptStatements(transcript))
}

func TestTranscriptStatementsPassesThroughBareLines(t *testing.T) {
	require.Equal(t, "x = 1", TranscriptStatements("x = 1"))
}
