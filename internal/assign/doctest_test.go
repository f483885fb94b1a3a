package assign

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToDoctestSimpleStatements(t *testing.T) {
	got := ToDoctest([]string{"x = 1", "y = 2"})
	require.Equal(t, []string{">>> x = 1", ">>> y = 2"}, got)
}

func TestToDoctestIndentedContinuation(t *testing.T) {
	got := ToDoctest([]string{"if x:", "    y = 1"})
	// the "... " prefix is prepended to the line as written, so the body's
	// own indentation survives after it
	require.Equal(t, []string{">>> if x:", "...     y = 1"}, got)
}

func TestToDoctestClauseOpeners(t *testing.T) {
	got := ToDoctest([]string{
		"try:",
		"    f()",
		"except ValueError:",
		"    pass",
		"finally:",
		"    g()",
	})
	require.Equal(t, []string{
		">>> try:",
		"...     f()",
		"... except ValueError:",
		"...     pass",
		"... finally:",
		"...     g()",
	}, got)
}

func TestToDoctestElifElse(t *testing.T) {
	got := ToDoctest([]string{
		"if x:",
		"    a()",
		"elif y:",
		"    b()",
		"else:",
		"    c()",
	})
	require.Equal(t, []string{
		">>> if x:",
		"...     a()",
		"... elif y:",
		"...     b()",
		"... else:",
		"...     c()",
	}, got)
}

func TestToDoctestBackslashContinuation(t *testing.T) {
	got := ToDoctest([]string{"x = 1 + \\", "2"})
	require.Equal(t, []string{">>> x = 1 + \\", "... 2"}, got)
}

func TestToDoctestOpenBracketSpansLines(t *testing.T) {
	got := ToDoctest([]string{"x = [1,", "2]", "y = 3"})
	require.Equal(t, []string{">>> x = [1,", "... 2]", ">>> y = 3"}, got)
}

func TestToDoctestNestedBrackets(t *testing.T) {
	got := ToDoctest([]string{
		"d = {'a': [1,",
		"2], 'b': (3,",
		"4)}",
		"len(d)",
	})
	require.Equal(t, []string{
		">>> d = {'a': [1,",
		"... 2], 'b': (3,",
		"... 4)}",
		">>> len(d)",
	}, got)
}

func TestToDoctestDeterministic(t *testing.T) {
	input := []string{"x = [1,", "2]", "if x:", "    pass"}
	first := ToDoctest(input)
	second := ToDoctest(input)
	require.Equal(t, first, second)
}
