package api

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// CaseResult is the outcome of running a single test case.
type CaseResult struct {
	Passed   bool    `json:"passed"`
	Points   float64 `json:"points"`
	Possible float64 `json:"possible"`
	Hidden   bool    `json:"hidden"`
	Message  string  `json:"message,omitempty"`
	Feedback *string `json:"feedback,omitempty"`
}

// TestResult is the outcome of one question's suites.
type TestResult struct {
	Name   string       `json:"name"`
	Scored bool         `json:"scored"`
	Cases  []CaseResult `json:"cases"`
}

// Score returns points earned for this question.
func (r *TestResult) Score() float64 {
	var sum float64
	for _, c := range r.Cases {
		if c.Passed {
			sum += c.Points
		}
	}
	return sum
}

// PossibleScore returns the point total of this question.
func (r *TestResult) PossibleScore() float64 {
	var sum float64
	for _, c := range r.Cases {
		sum += c.Possible
	}
	return sum
}

// PassedAll reports whether every case in this question passed.
func (r *TestResult) PassedAll() bool {
	for _, c := range r.Cases {
		if !c.Passed {
			return false
		}
	}
	return true
}

// GradingResults maps test names to per-test outcomes. Total and Possible are
// always recomputed from the per-case outcomes so the aggregate can never
// drift from the mapping.
type GradingResults struct {
	File    string        `json:"file,omitempty"`
	Results []*TestResult `json:"results"`

	byName map[string]*TestResult
}

// NewGradingResults returns an empty results collection.
func NewGradingResults(file string) *GradingResults {
	return &GradingResults{File: file, byName: map[string]*TestResult{}}
}

// Add appends a test result, preserving insertion order.
func (g *GradingResults) Add(r *TestResult) {
	if g.byName == nil {
		g.byName = map[string]*TestResult{}
	}
	g.Results = append(g.Results, r)
	g.byName[r.Name] = r
}

// Get returns the result for a test name, or nil.
func (g *GradingResults) Get(name string) *TestResult {
	if g.byName == nil {
		g.byName = map[string]*TestResult{}
		for _, r := range g.Results {
			g.byName[r.Name] = r
		}
	}
	return g.byName[name]
}

// Total returns the points earned across all scored tests.
func (g *GradingResults) Total() float64 {
	var sum float64
	for _, r := range g.Results {
		if r.Scored {
			sum += r.Score()
		}
	}
	return sum
}

// Possible returns the point total across all scored tests.
func (g *GradingResults) Possible() float64 {
	var sum float64
	for _, r := range g.Results {
		if r.Scored {
			sum += r.PossibleScore()
		}
	}
	return sum
}

// Summary renders a human-readable score report. The report always renders,
// including when some cases failed or errored.
func (g *GradingResults) Summary(colorize bool) string {
	pass := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()
	if !colorize {
		pass = fmt.Sprint
		fail = fmt.Sprint
	}

	var b strings.Builder
	if g.File != "" {
		fmt.Fprintf(&b, "%s\n", g.File)
	}
	for _, r := range g.Results {
		status := pass("passed")
		if !r.PassedAll() {
			status = fail("FAILED")
		}
		label := ""
		if !r.Scored {
			label = " (not scored)"
		}
		fmt.Fprintf(&b, "%s: %s (%g/%g)%s\n", r.Name, status, r.Score(), r.PossibleScore(), label)
		for i, c := range r.Cases {
			if c.Passed && c.Feedback != nil {
				fmt.Fprintf(&b, "    case %d: %s\n", i+1, *c.Feedback)
			}
			if !c.Passed {
				if c.Feedback != nil {
					fmt.Fprintf(&b, "    case %d: %s\n", i+1, *c.Feedback)
				}
				if c.Message != "" {
					fmt.Fprintf(&b, "    case %d:\n%s\n", i+1, indent(c.Message, "        "))
				}
			}
		}
	}
	fmt.Fprintf(&b, "total: %g / %g\n", g.Total(), g.Possible())
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
