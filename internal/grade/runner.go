package grade

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner executes transcript code against one submission's bound runtime
// state and returns the captured textual output. Implementations own the
// isolation mechanism; the grading aggregator only prepares what to execute.
type Runner interface {
	Exec(ctx context.Context, transcript string) (string, error)
}

// ScriptRunner executes transcripts by replaying the session through an
// interpreter subprocess. Each Exec call appends the new statements to the
// session history, re-runs the whole script, and returns only the output
// produced beyond the previous run. Statements that fail are not added to
// the history, so a broken case does not poison later ones.
type ScriptRunner struct {
	interpreter []string
	workDir     string
	scriptName  string

	history []string
	prevOut string
}

// NewScriptRunner creates a runner that executes scripts with the given
// interpreter command (e.g. ["python3"]) in workDir. The submission source
// itself should be seeded into the session via Seed before grading.
func NewScriptRunner(interpreter []string, workDir string, scriptName string) *ScriptRunner {
	if scriptName == "" {
		scriptName = "session.py"
	}
	return &ScriptRunner{
		interpreter: interpreter,
		workDir:     workDir,
		scriptName:  scriptName,
	}
}

// Seed appends code to the session history without executing it on its own;
// the next Exec replays it. Used for the submission source and suite setup.
func (r *ScriptRunner) Seed(code string) {
	if strings.TrimSpace(code) == "" {
		return
	}
	r.history = append(r.history, code)
}

// Exec implements Runner.
func (r *ScriptRunner) Exec(ctx context.Context, transcript string) (string, error) {
	code := TranscriptStatements(transcript)
	script := strings.Join(append(append([]string{}, r.history...), code), "\n")

	out, err := r.run(ctx, script)
	if err != nil {
		return "", err
	}

	newOut := out
	if strings.HasPrefix(out, r.prevOut) {
		newOut = out[len(r.prevOut):]
	}
	r.history = append(r.history, code)
	r.prevOut = out
	return newOut, nil
}

func (r *ScriptRunner) run(ctx context.Context, script string) (string, error) {
	path := filepath.Join(r.workDir, r.scriptName)
	if err := os.WriteFile(path, []byte(script), 0644); err != nil {
		return "", fmt.Errorf("failed to write session script: %w", err)
	}

	args := append(append([]string{}, r.interpreter[1:]...), path)
	cmd := exec.CommandContext(ctx, r.interpreter[0], args...)
	cmd.Dir = r.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("execution failed: %s", msg)
	}
	return stdout.String(), nil
}

// TranscriptStatements strips the interactive-session prompts from a
// transcript, leaving plain statements.
func TranscriptStatements(transcript string) string {
	lines := strings.Split(transcript, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, ">>> "):
			out = append(out, line[4:])
		case strings.HasPrefix(line, "... "):
			out = append(out, line[4:])
		case strings.TrimSpace(line) == "":
			continue
		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
