package termgath

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

type TerminalGatherer struct {
	StartedAt time.Time
}

func New() *TerminalGatherer { return &TerminalGatherer{StartedAt: time.Now()} }

func (t *TerminalGatherer) StartJob(submission string) {
	fmt.Printf("== Grading %s ==\n", submission)
}

func (t *TerminalGatherer) StartSuite(name string, caseCount int) {
	fmt.Printf("-> %s (%d cases)\n", name, caseCount)
}

func (t *TerminalGatherer) FinishCase(name string, caseIdx int, passed bool, points, possible float64, output string) {
	status := color.GreenString("ok")
	if !passed {
		status = color.RedString("FAIL")
	}
	fmt.Printf("   case %d: %s (%g/%g)\n", caseIdx+1, status, points, possible)
	if !passed && output != "" {
		fmt.Printf("   %s\n", output)
	}
}

func (t *TerminalGatherer) FinishSuite(name string, score, possible float64) {
	fmt.Printf("<- %s: %g/%g\n", name, score, possible)
}

func (t *TerminalGatherer) FinishJob(errIfAny error, total, possible float64) {
	dur := time.Since(t.StartedAt).Round(time.Millisecond)
	if errIfAny != nil {
		fmt.Printf("== Grading failed after %s: %v ==\n", dur, errIfAny)
		return
	}
	fmt.Printf("== Graded %g/%g in %s ==\n", total, possible, dur)
}
