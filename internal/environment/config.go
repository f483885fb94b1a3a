package environment

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// EnvConfig holds the settings a grading worker reads from its environment.
type EnvConfig struct {
	AwsRegion       string
	GradingQueueUrl string
	ResultsQueueUrl string
	FileStoreDir    string

	// NatsUrl switches result streaming from SQS to a NATS inbox when set.
	NatsUrl   string
	NatsInbox string
}

// ReadEnvConfig loads configuration from the environment, with a .env file
// as an optional local override.
func ReadEnvConfig() (*EnvConfig, error) {
	// a missing .env file is fine, the real environment takes over
	_ = godotenv.Load()

	result := &EnvConfig{
		AwsRegion:       os.Getenv("AWS_REGION"),
		GradingQueueUrl: os.Getenv("GRADING_QUEUE_URL"),
		ResultsQueueUrl: os.Getenv("RESULTS_QUEUE_URL"),
		FileStoreDir:    os.Getenv("FILE_STORE_DIR"),
		NatsUrl:         os.Getenv("NATS_URL"),
		NatsInbox:       os.Getenv("NATS_INBOX"),
	}

	if result.AwsRegion == "" {
		result.AwsRegion = "eu-central-1"
	}
	if result.FileStoreDir == "" {
		result.FileStoreDir = "var/autograder"
	}
	if result.NatsUrl != "" && result.NatsInbox == "" {
		result.NatsInbox = "autograder.results"
	}
	if result.GradingQueueUrl == "" {
		return nil, fmt.Errorf("GRADING_QUEUE_URL is not set")
	}
	if result.ResultsQueueUrl == "" && result.NatsUrl == "" {
		return nil, fmt.Errorf("RESULTS_QUEUE_URL is not set")
	}

	return result, nil
}
