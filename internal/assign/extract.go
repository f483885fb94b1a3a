package assign

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/notebook-lv/autograder/internal/notebook"
)

// Inline metadata block markers. These are matched case-sensitively as the
// literal trailing substring of a line.
const (
	beginTestMarker = "# BEGIN TEST"
	endTestMarker   = "# END TEST"
)

var hiddenWordRegex = regexp.MustCompile(`(?i)hidden`)

// Test is the raw extraction of one test cell, before conversion into a
// suite case's transcript form.
type Test struct {
	Input          string
	Output         string
	Hidden         bool
	Points         *float64
	SuccessMessage *string
	FailureMessage *string
}

// ReadTest parses a test cell's source and captured output into a Test
// record. The first source line is the test-marker line and is discarded
// from the body; "hidden" anywhere in it (case-insensitive) makes the test
// hidden by default. An inline "# BEGIN TEST" block may override hidden and
// set points and feedback messages. Malformed metadata aborts extraction.
func ReadTest(cell *notebook.Cell, question string) (Test, error) {
	lines := cell.SourceLines()

	test := Test{
		Hidden: hiddenWordRegex.MatchString(lines[0]),
		Output: notebook.CapturedText(cell),
	}

	inBlock := false
	for _, line := range lines[1:] {
		trimmed := strings.TrimRight(line, " \t")
		switch {
		case strings.HasSuffix(trimmed, endTestMarker):
			return finishTest(test, lines), nil
		case strings.HasSuffix(trimmed, beginTestMarker):
			inBlock = true
		case !inBlock:
			// no metadata block; everything after the marker line is code
			return finishTest(test, lines), nil
		case strings.TrimSpace(trimmed) == "":
			continue
		case strings.HasPrefix(trimmed, "points"):
			value := metaValue(trimmed)
			pts, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Test{}, fmt.Errorf("error in test metadata for question %s: invalid points value %q", question, value)
			}
			test.Points = &pts
		case strings.HasPrefix(trimmed, "hidden"):
			test.Hidden = strings.Contains(strings.ToLower(metaValue(trimmed)), "true")
		case strings.HasPrefix(trimmed, "success_message"):
			msg := metaValue(trimmed)
			test.SuccessMessage = &msg
		case strings.HasPrefix(trimmed, "failure_message"):
			msg := metaValue(trimmed)
			test.FailureMessage = &msg
		case !strings.Contains(trimmed, ":"):
			return Test{}, fmt.Errorf("error in test metadata for question %s: line %q has no key", question, trimmed)
		}
	}

	return finishTest(test, lines), nil
}

// metaValue returns the trimmed text after the first colon of a key: value
// metadata line.
func metaValue(line string) string {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func finishTest(test Test, lines []string) Test {
	test.Input = strings.Join(lines[1:], "\n")
	return test
}
