package assign

import (
	"regexp"

	"github.com/notebook-lv/autograder/internal/notebook"
)

// CellKind is the role of a notebook cell in the compilation pipeline.
type CellKind int

const (
	CellNormal CellKind = iota
	CellTest
	CellIgnore
)

var (
	// first-line test marker, e.g. "# TEST", "## Hidden Test ##", '""" test'
	testRegex = regexp.MustCompile(`(?i)^(\s*##\s*(hidden\s*)?test\s*##\s*|\s*#\s*(hidden\s*)?test|\s*("""|''')\s*test)`)
	// whole-cell structured metadata trigger: a leading comment block that
	// opens an inline metadata section
	testMetaRegex = regexp.MustCompile(`(?is)^\s*#.*#\s*BEGIN\s+TEST`)
	// first-line ignore marker, e.g. "## Ignore ##" or "# IGNORE"
	ignoreRegex = regexp.MustCompile(`(?i)^(##\s*ignore\s*##\s*|#\s*ignore\s*)`)
)

// Classify decides a cell's role from its type and source alone. Pure; no
// side effects.
func Classify(cell *notebook.Cell) CellKind {
	lines := cell.SourceLines()
	if len(lines) > 0 && ignoreRegex.MatchString(lines[0]) {
		return CellIgnore
	}
	if isTestCell(cell, lines) {
		return CellTest
	}
	return CellNormal
}

// isTestCell checks both independent triggers: the first-line marker and the
// structured-metadata pattern over the whole source. Either is sufficient.
func isTestCell(cell *notebook.Cell, lines []string) bool {
	if cell.CellType != notebook.CellTypeCode {
		return false
	}
	if len(lines) == 0 || cell.JoinedSource() == "" {
		return false
	}
	if testRegex.MatchString(lines[0]) {
		return true
	}
	return testMetaRegex.MatchString(cell.JoinedSource())
}
