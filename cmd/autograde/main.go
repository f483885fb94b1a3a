package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/client"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"

	"github.com/notebook-lv/autograder/internal/assign"
	"github.com/notebook-lv/autograder/internal/batch"
	"github.com/notebook-lv/autograder/internal/bundle"
	"github.com/notebook-lv/autograder/internal/gatherer/termgath"
	"github.com/notebook-lv/autograder/internal/grade"
)

func main() {
	cmd := &cli.Command{
		Name:  "autograde",
		Usage: "compile instructor notebooks into autograder bundles and grade submissions against them",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			assignCmd(),
			runCmd(),
			gradeCmd(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cmd *cli.Command) *slog.Logger {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
}

func assignCmd() *cli.Command {
	return &cli.Command{
		Name:  "assign",
		Usage: "compile an instructor notebook into student and autograder outputs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "master",
				Usage:    "path to the instructor notebook",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "result",
				Usage: "output directory for the student and autograder trees",
				Value: "dist",
			},
			&cli.BoolFlag{
				Name:  "no-run-tests",
				Usage: "skip self-grading the solutions notebook",
			},
			&cli.StringFlag{
				Name:  "interpreter",
				Usage: "interpreter used to self-grade the solutions notebook",
				Value: "python3",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := newLogger(cmd)

			a, err := assign.LoadAssignment(cmd.String("master"), cmd.String("result"))
			if err != nil {
				return err
			}
			if cmd.Bool("no-run-tests") {
				a.RunTests = false
			}

			if err := assign.Compile(a, logger); err != nil {
				return err
			}

			bundlePath := filepath.Join(cmd.String("result"), a.MasterStem()+"-autograder.tar.zst")
			if err := bundle.Pack(a.AgPath(), bundlePath); err != nil {
				return fmt.Errorf("pack autograder bundle: %w", err)
			}
			logger.Info("autograder bundle written", "path", bundlePath)

			if a.RunTests {
				solutions := a.AgPath(filepath.Base(a.Master))
				interpreter := strings.Fields(cmd.String("interpreter"))
				if err := selfGrade(ctx, solutions, a.AgPath("tests"), interpreter, logger); err != nil {
					return err
				}
				logger.Info("solutions notebook passes all tests")
			}
			return nil
		},
	}
}

// selfGrade runs the generated tests against the solutions notebook and
// fails unless every scored question earns full marks.
func selfGrade(ctx context.Context, solutions, testsDir string, interpreter []string, logger *slog.Logger) error {
	artifacts, err := bundle.ReadDir(testsDir)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "autograder-selfcheck-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	runner := grade.NewScriptRunner(interpreter, workDir, "")
	if err := grade.SeedSubmission(runner, solutions); err != nil {
		return err
	}

	results, err := grade.Grade(ctx, runner, artifacts, termgath.New(), solutions)
	if err != nil {
		return err
	}
	for _, r := range results.Results {
		if !r.PassedAll() {
			return fmt.Errorf("solutions notebook does not pass its own tests: question %s failed", r.Name)
		}
	}
	return nil
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "grade a single submission against an autograder bundle",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "submission",
				Usage:    "path to the submission notebook or script",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "bundle",
				Usage:    "path to the autograder bundle",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "write grading results as json to this path",
			},
			&cli.StringFlag{
				Name:  "interpreter",
				Usage: "interpreter used to replay the submission",
				Value: "python3",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := newLogger(cmd)
			submission := cmd.String("submission")

			workDir, err := os.MkdirTemp("", "autograder-run-*")
			if err != nil {
				return err
			}
			defer os.RemoveAll(workDir)

			bundleDir := filepath.Join(workDir, "bundle")
			if err := bundle.Unpack(cmd.String("bundle"), bundleDir); err != nil {
				return fmt.Errorf("unpack bundle: %w", err)
			}
			artifacts, err := bundle.ReadDir(filepath.Join(bundleDir, "tests"))
			if err != nil {
				return err
			}
			logger.Debug("bundle unpacked", "questions", len(artifacts))

			runner := grade.NewScriptRunner(strings.Fields(cmd.String("interpreter")), workDir, "")
			if err := grade.SeedSubmission(runner, submission); err != nil {
				return err
			}

			results, err := grade.Grade(ctx, runner, artifacts, termgath.New(), submission)
			if err != nil {
				return err
			}

			fmt.Println(results.Summary(true))

			if out := cmd.String("output"); out != "" {
				b, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, append(b, '\n'), 0o644); err != nil {
					return fmt.Errorf("write results: %w", err)
				}
			}
			return nil
		},
	}
}

func gradeCmd() *cli.Command {
	return &cli.Command{
		Name:      "grade",
		Usage:     "grade submissions in parallel containers",
		ArgsUsage: "[submission paths...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "bundle",
				Usage:    "path to the autograder bundle",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "containers",
				Usage: "number of containers to grade with in parallel",
				Value: 4,
			},
			&cli.StringFlag{
				Name:     "image",
				Usage:    "docker image with the autograder installed",
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "hard wall-clock limit per submission",
				Value: 10 * time.Minute,
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "directory for final_grades.csv",
				Value: ".",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := newLogger(cmd)

			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return fmt.Errorf("no submission paths given")
			}

			dockerCli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
			if err != nil {
				return fmt.Errorf("create docker client: %w", err)
			}
			defer dockerCli.Close()

			eng := batch.NewDockerEngine(dockerCli, cmd.String("image"), cmd.String("bundle"), cmd.Duration("timeout"), logger)
			csvPath, err := batch.Run(ctx, eng, batch.Options{
				Paths:     paths,
				Parallel:  cmd.Int("containers"),
				OutputDir: cmd.String("output-dir"),
			}, logger)
			if err != nil {
				return err
			}
			logger.Info("batch complete", "grades", csvPath)
			return nil
		},
	}
}
