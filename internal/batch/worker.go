package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"

	"github.com/notebook-lv/autograder/api"
)

// WorkerState tracks how far a worker has progressed through its lifecycle.
// Transitions are strictly forward: Provisioned -> Populated -> Executing ->
// Collected -> Released. Release runs on every exit path.
type WorkerState int

const (
	StateCreated WorkerState = iota
	StateProvisioned
	StatePopulated
	StateExecuting
	StateCollected
	StateReleased
)

func (s WorkerState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateProvisioned:
		return "provisioned"
	case StatePopulated:
		return "populated"
	case StateExecuting:
		return "executing"
	case StateCollected:
		return "collected"
	case StateReleased:
		return "released"
	}
	return "unknown"
}

const (
	workerMountDir = "/autograder"
	workerBundle   = "bundle.tar.zst"
	workerResults  = "results.json"
	removeDeadline = 5 * time.Second
	defaultTimeout = 10 * time.Minute
)

// Worker grades a single submission inside an isolated container.
type Worker struct {
	id         string
	cli        *client.Client
	image      string
	submission string
	bundle     string
	timeout    time.Duration
	logger     *slog.Logger

	state       WorkerState
	workDir     string
	containerID string
}

// Row is one worker's contribution to the batch score table.
type Row struct {
	Submission string
	Total      float64
	Possible   float64
	Percent    float64
}

// NewWorker prepares a worker for one submission. The worker is tagged with a
// fresh uuid so batch failures can name the container that caused them.
func NewWorker(cli *client.Client, image, submission, bundle string, timeout time.Duration, logger *slog.Logger) *Worker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	id := uuid.New().String()
	return &Worker{
		id:         id,
		cli:        cli,
		image:      image,
		submission: submission,
		bundle:     bundle,
		timeout:    timeout,
		logger:     logger.With("worker", id),
		state:      StateCreated,
	}
}

// ID returns the worker's uuid tag.
func (w *Worker) ID() string {
	return w.id
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() WorkerState {
	return w.state
}

// Run drives the worker through its full lifecycle and returns the score row
// for its submission. Provisioned resources are released on every exit path.
func (w *Worker) Run(ctx context.Context) (row Row, err error) {
	defer func() {
		if relErr := w.release(); relErr != nil && err == nil {
			err = relErr
		}
	}()

	if err = w.provision(ctx); err != nil {
		return row, fmt.Errorf("provision: %w", err)
	}
	if err = w.populate(); err != nil {
		return row, fmt.Errorf("populate: %w", err)
	}
	if err = w.execute(ctx); err != nil {
		return row, fmt.Errorf("execute: %w", err)
	}
	row, err = w.collect()
	if err != nil {
		return row, fmt.Errorf("collect: %w", err)
	}
	return row, nil
}

// provision creates the host workspace and the container. The container runs
// with networking disabled and sees the workspace bind-mounted read-write.
func (w *Worker) provision(ctx context.Context) error {
	workDir, err := os.MkdirTemp("", "autograder-worker-*")
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	w.workDir = workDir

	cfg := &container.Config{
		Image: w.image,
		Cmd: []string{
			"autograde", "run",
			"--submission", path(workerMountDir, filepath.Base(w.submission)),
			"--bundle", path(workerMountDir, workerBundle),
			"--output", path(workerMountDir, workerResults),
		},
		WorkingDir:   workerMountDir,
		AttachStdout: true,
		AttachStderr: true,
	}
	hostCfg := &container.HostConfig{
		NetworkMode: "none",
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: workDir,
			Target: workerMountDir,
		}},
	}

	resp, err := w.cli.ContainerCreate(ctx, cfg, hostCfg, &network.NetworkingConfig{}, nil, "autograder-"+w.id)
	if err != nil {
		return fmt.Errorf("container create: %w", err)
	}
	w.containerID = resp.ID
	w.state = StateProvisioned
	w.logger.Debug("worker provisioned", "container", shortID(resp.ID))
	return nil
}

// populate stages the submission and the autograder bundle into the
// workspace so the container sees them under the mount point.
func (w *Worker) populate() error {
	if w.state != StateProvisioned {
		return fmt.Errorf("populate from state %s", w.state)
	}
	if err := copyFile(w.submission, filepath.Join(w.workDir, filepath.Base(w.submission))); err != nil {
		return fmt.Errorf("stage submission: %w", err)
	}
	if err := copyFile(w.bundle, filepath.Join(w.workDir, workerBundle)); err != nil {
		return fmt.Errorf("stage bundle: %w", err)
	}
	w.state = StatePopulated
	return nil
}

// execute starts the container and waits for it under a hard wall-clock
// timeout so one hung submission cannot stall the rest of the batch.
func (w *Worker) execute(ctx context.Context) error {
	if w.state != StatePopulated {
		return fmt.Errorf("execute from state %s", w.state)
	}
	w.state = StateExecuting

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.cli.ContainerStart(ctx, w.containerID, container.StartOptions{}); err != nil {
		return fmt.Errorf("container start: %w", err)
	}

	statusCh, errCh := w.cli.ContainerWait(ctx, w.containerID, container.WaitConditionNextExit)

	var exitCode int
	select {
	case err := <-errCh:
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				w.kill()
				return fmt.Errorf("timed out after %s", w.timeout)
			}
			return fmt.Errorf("container wait: %w", err)
		}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			w.kill()
			return fmt.Errorf("timed out after %s", w.timeout)
		}
		return ctx.Err()
	}

	_, stderr, err := w.logs(context.Background())
	if err != nil {
		w.logger.Warn("failed to read container logs", "error", err)
	}

	if exitCode != 0 {
		return fmt.Errorf("exited with code %d: %s", exitCode, strings.TrimSpace(stderr))
	}
	if strings.TrimSpace(stderr) != "" {
		return fmt.Errorf("wrote to error stream: %s", strings.TrimSpace(stderr))
	}
	return nil
}

// collect reads the results file the container wrote into the workspace and
// rolls it into a score row.
func (w *Worker) collect() (Row, error) {
	if w.state != StateExecuting {
		return Row{}, fmt.Errorf("collect from state %s", w.state)
	}

	b, err := os.ReadFile(filepath.Join(w.workDir, workerResults))
	if err != nil {
		return Row{}, fmt.Errorf("read results: %w", err)
	}
	var results api.GradingResults
	if err := json.Unmarshal(b, &results); err != nil {
		return Row{}, fmt.Errorf("decode results: %w", err)
	}

	total := results.Total()
	possible := results.Possible()
	row := Row{
		Submission: w.submission,
		Total:      total,
		Possible:   possible,
	}
	if possible > 0 {
		row.Percent = total / possible
	}
	w.state = StateCollected
	return row, nil
}

// release removes the container and workspace. Safe to call from any state,
// including after partial provisioning, and is idempotent.
func (w *Worker) release() error {
	if w.state == StateReleased {
		return nil
	}

	var firstErr error
	if w.containerID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), removeDeadline)
		defer cancel()
		err := w.cli.ContainerRemove(ctx, w.containerID, container.RemoveOptions{Force: true})
		if err != nil {
			w.logger.Warn("failed to remove container", "container", shortID(w.containerID), "error", err)
			firstErr = err
		}
		w.containerID = ""
	}
	if w.workDir != "" {
		if err := os.RemoveAll(w.workDir); err != nil && firstErr == nil {
			firstErr = err
		}
		w.workDir = ""
	}
	w.state = StateReleased
	return firstErr
}

func (w *Worker) kill() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.cli.ContainerKill(ctx, w.containerID, "KILL"); err != nil {
		w.logger.Warn("failed to kill container", "container", shortID(w.containerID), "error", err)
	}
}

func (w *Worker) logs(ctx context.Context) (string, string, error) {
	reader, err := w.cli.ContainerLogs(ctx, w.containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", "", err
	}
	defer reader.Close()

	var stdout, stderr strings.Builder
	if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
		return "", "", err
	}
	return stdout.String(), stderr.String(), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// path joins with forward slashes regardless of host OS since the result is
// a path inside the container.
func path(parts ...string) string {
	return strings.Join(parts, "/")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
