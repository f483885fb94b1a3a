package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/lmittmann/tint"
	"github.com/nats-io/nats.go"

	"github.com/notebook-lv/autograder/api"
	"github.com/notebook-lv/autograder/internal/bundle"
	"github.com/notebook-lv/autograder/internal/environment"
	"github.com/notebook-lv/autograder/internal/filestore"
	"github.com/notebook-lv/autograder/internal/gatherer/natsgath"
	"github.com/notebook-lv/autograder/internal/grade"
	"github.com/notebook-lv/autograder/internal/s3downl"
	"github.com/notebook-lv/autograder/sqsgath"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{}))

	envCfg, err := environment.ReadEnvConfig()
	if err != nil {
		logger.Error("invalid environment", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(envCfg.AwsRegion))
	if err != nil {
		logger.Error("unable to load SDK config", "error", err)
		os.Exit(1)
	}

	fs := filestore.New(
		filepath.Join(envCfg.FileStoreDir, "files"),
		filepath.Join(envCfg.FileStoreDir, "tmp"),
		s3downl.GetS3DownloadFunc(envCfg.AwsRegion))
	fs.Start()

	var natsConn *nats.Conn
	if envCfg.NatsUrl != "" {
		natsConn, err = nats.Connect(envCfg.NatsUrl)
		if err != nil {
			logger.Error("failed to connect to nats", "url", envCfg.NatsUrl, "error", err)
			os.Exit(1)
		}
		defer natsConn.Close()
	}

	sqsClient := sqs.NewFromConfig(cfg)
	logger.Info("worker started", "queue", envCfg.GradingQueueUrl)

	for {
		output, err := sqsClient.ReceiveMessage(context.TODO(), &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(envCfg.GradingQueueUrl),
			MaxNumberOfMessages: 1,
			WaitTimeSeconds:     5,
		})
		if err != nil {
			logger.Error("failed to receive messages", "error", err)
			time.Sleep(1 * time.Second)
			continue
		}

		for _, message := range output.Messages {
			var req api.GradeReq
			if err := json.Unmarshal([]byte(*message.Body), &req); err != nil {
				logger.Error("failed to unmarshal message", "error", err)
				continue
			}
			logger.Info("received grading job", "job", req.JobUuid, "submission", req.SubmFname)

			var gath grade.ResultGatherer
			if natsConn != nil {
				gath = natsgath.New(natsConn, req.JobUuid, envCfg.NatsInbox)
			} else {
				resQueueUrl := req.ResSqsUrl
				if resQueueUrl == "" {
					resQueueUrl = envCfg.ResultsQueueUrl
				}
				gath = sqsgath.New(sqsClient, resQueueUrl, req.JobUuid)
			}

			if err := gradeRequest(context.TODO(), fs, gath, req); err != nil {
				logger.Error("grading job failed", "job", req.JobUuid, "error", err)
			}

			_, err = sqsClient.DeleteMessage(context.TODO(), &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(envCfg.GradingQueueUrl),
				ReceiptHandle: message.ReceiptHandle,
			})
			if err != nil {
				logger.Error("failed to delete message", "error", err)
			}
		}
	}
}

// gradeRequest materializes the submission and bundle from the file store,
// grades the submission, and streams progress through the gatherer. Failures
// before grading starts are still reported to the results queue.
func gradeRequest(ctx context.Context, fs *filestore.FileStore, gath grade.ResultGatherer, req api.GradeReq) error {
	workDir, err := os.MkdirTemp("", "autograder-job-*")
	if err != nil {
		gath.FinishJob(err, 0, 0)
		return err
	}
	defer os.RemoveAll(workDir)

	scheduleFiles(fs, req)

	submPath, err := materializeSubmission(fs, req, workDir)
	if err != nil {
		gath.FinishJob(err, 0, 0)
		return err
	}

	artifacts, err := materializeBundle(fs, req, workDir)
	if err != nil {
		gath.FinishJob(err, 0, 0)
		return err
	}

	interpreter := req.Interpreter
	if len(interpreter) == 0 {
		interpreter = []string{"python3"}
	}
	runner := grade.NewScriptRunner(interpreter, workDir, "")
	if err := grade.SeedSubmission(runner, submPath); err != nil {
		gath.FinishJob(err, 0, 0)
		return err
	}

	_, err = grade.Grade(ctx, runner, artifacts, gath, req.SubmFname)
	return err
}

func scheduleFiles(fs *filestore.FileStore, req api.GradeReq) {
	if req.SubmSha256 != nil && req.SubmUrl != nil {
		fs.Schedule(*req.SubmSha256, *req.SubmUrl)
	}
	if req.BundleSha256 != nil && req.BundleUrl != nil {
		fs.Schedule(*req.BundleSha256, *req.BundleUrl)
	}
}

func materializeSubmission(fs *filestore.FileStore, req api.GradeReq, workDir string) (string, error) {
	fname := req.SubmFname
	if fname == "" {
		fname = "submission.ipynb"
	}
	path := filepath.Join(workDir, fname)

	var body []byte
	switch {
	case req.SubmContent != nil:
		body = []byte(*req.SubmContent)
	case req.SubmSha256 != nil:
		var err error
		body, err = fs.Await(*req.SubmSha256)
		if err != nil {
			return "", fmt.Errorf("fetch submission: %w", err)
		}
	default:
		return "", fmt.Errorf("request carries neither submission content nor sha256")
	}

	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write submission: %w", err)
	}
	return path, nil
}

func materializeBundle(fs *filestore.FileStore, req api.GradeReq, workDir string) ([]*api.TestArtifact, error) {
	if req.BundleSha256 == nil {
		return nil, fmt.Errorf("request carries no bundle sha256")
	}
	body, err := fs.Await(*req.BundleSha256)
	if err != nil {
		return nil, fmt.Errorf("fetch bundle: %w", err)
	}

	bundlePath := filepath.Join(workDir, "bundle.tar.zst")
	if err := os.WriteFile(bundlePath, body, 0o644); err != nil {
		return nil, fmt.Errorf("write bundle: %w", err)
	}

	bundleDir := filepath.Join(workDir, "bundle")
	if err := bundle.Unpack(bundlePath, bundleDir); err != nil {
		return nil, fmt.Errorf("unpack bundle: %w", err)
	}
	return bundle.ReadDir(filepath.Join(bundleDir, "tests"))
}
