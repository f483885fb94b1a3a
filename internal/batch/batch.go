package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/docker/docker/client"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
)

// GradesFileName is the batch score table written into the output directory.
const GradesFileName = "final_grades.csv"

// allowedExtensions lists the submission file types a batch will grade.
// Anything else in the path list is skipped with a warning.
var allowedExtensions = mapset.NewSet(".ipynb", ".py", ".zip")

// Engine grades one submission and returns its score row.
type Engine interface {
	Grade(ctx context.Context, submission string) (Row, error)
}

// DockerEngine grades each submission in its own container.
type DockerEngine struct {
	cli     *client.Client
	image   string
	bundle  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewDockerEngine returns an engine that provisions one container per
// submission from the given image, with the autograder bundle staged in.
func NewDockerEngine(cli *client.Client, image, bundle string, timeout time.Duration, logger *slog.Logger) *DockerEngine {
	return &DockerEngine{
		cli:     cli,
		image:   image,
		bundle:  bundle,
		timeout: timeout,
		logger:  logger,
	}
}

func (e *DockerEngine) Grade(ctx context.Context, submission string) (Row, error) {
	w := NewWorker(e.cli, e.image, submission, e.bundle, e.timeout, e.logger)
	row, err := w.Run(ctx)
	if err != nil {
		return row, fmt.Errorf("worker %s: %w", w.ID(), err)
	}
	return row, nil
}

// Options configure a batch run.
type Options struct {
	Paths     []string
	Parallel  int
	OutputDir string
}

// Run grades every allowed submission in opts.Paths through a fixed pool of
// workers and writes the score table to final_grades.csv in the output
// directory. A worker failure aborts the batch, but rows already collected
// are still written out for inspection.
func Run(ctx context.Context, eng Engine, opts Options, logger *slog.Logger) (string, error) {
	if opts.Parallel <= 0 {
		opts.Parallel = 1
	}

	submissions := make([]string, 0, len(opts.Paths))
	for _, p := range opts.Paths {
		ext := strings.ToLower(filepath.Ext(p))
		if !allowedExtensions.Contains(ext) {
			logger.Warn("skipping file with unsupported extension", "path", p)
			continue
		}
		submissions = append(submissions, p)
	}
	if len(submissions) == 0 {
		return "", fmt.Errorf("no gradable submissions among %d paths", len(opts.Paths))
	}

	logger.Info("starting batch", "submissions", len(submissions), "parallel", opts.Parallel)

	rows := xsync.NewMapOf[string, Row]()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallel)
	for _, submission := range submissions {
		g.Go(func() error {
			row, err := eng.Grade(ctx, submission)
			if err != nil {
				return fmt.Errorf("grading %s: %w", submission, err)
			}
			rows.Store(submission, row)
			logger.Info("submission graded", "path", submission,
				"total", row.Total, "possible", row.Possible)
			return nil
		})
	}

	runErr := g.Wait()

	csvPath := filepath.Join(opts.OutputDir, GradesFileName)
	if err := writeGrades(csvPath, submissions, rows); err != nil {
		if runErr != nil {
			return "", runErr
		}
		return "", err
	}
	if runErr != nil {
		return csvPath, runErr
	}
	return csvPath, nil
}

// writeGrades writes collected rows in the original submission order.
// Submissions without a row (worker failed or batch aborted early) are left
// out rather than written as zeros.
func writeGrades(path string, submissions []string, rows *xsync.MapOf[string, Row]) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create grades file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"file", "total", "possible", "percent"}); err != nil {
		return err
	}
	for _, submission := range submissions {
		row, ok := rows.Load(submission)
		if !ok {
			continue
		}
		record := []string{
			row.Submission,
			formatScore(row.Total),
			formatScore(row.Possible),
			formatScore(row.Percent),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
