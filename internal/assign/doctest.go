package assign

import (
	"regexp"
	"strings"
)

const (
	promptPrefix       = ">>> "
	continuationPrefix = "... "
)

var clauseOpenerRegex = regexp.MustCompile(`^except[\s\w]*:`)

// ToDoctest rewrites procedural statement lines into an interactive-session
// transcript: new statements get the primary prompt, continuations get the
// continuation marker. Implemented as a single loop with an explicit bracket
// stack so arbitrarily large cells convert without recursion depth limits.
//
// Bracket tracking pushes on any of ( [ { and pops on any of ) ] } without
// validating that the closer matches the opener; malformed bracket nesting
// leaves the stack in an undefined state. Known limitation.
func ToDoctest(codeLines []string) []string {
	lines := make([]string, 0, len(codeLines))
	var opens []rune
	for _, line := range codeLines {
		inStatement := len(opens) > 0
		for _, c := range line {
			switch c {
			case '(', '[', '{':
				opens = append(opens, c)
			case ')', ']', '}':
				if len(opens) > 0 {
					opens = opens[:len(opens)-1]
				}
			}
		}
		switch {
		case strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t"):
			lines = append(lines, continuationPrefix+line)
		case clauseOpenerRegex.MatchString(line) || strings.HasPrefix(line, "elif ") ||
			strings.HasPrefix(line, "else:") || strings.HasPrefix(line, "finally:"):
			lines = append(lines, continuationPrefix+line)
		case len(lines) > 0 && strings.HasSuffix(strings.TrimSpace(lines[len(lines)-1]), "\\"):
			lines = append(lines, continuationPrefix+line)
		case inStatement:
			lines = append(lines, continuationPrefix+line)
		default:
			lines = append(lines, promptPrefix+line)
		}
	}
	return lines
}
