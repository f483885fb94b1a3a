package sqsgath

import (
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type sqsResQueueGatherer struct {
	sqsClient *sqs.Client
	queueUrl  string
	jobUuid   string
}

// New creates a gatherer that streams grading progress messages to an SQS
// results queue.
func New(sqsClient *sqs.Client, queueUrl string, jobUuid string) *sqsResQueueGatherer {
	return &sqsResQueueGatherer{
		sqsClient: sqsClient,
		queueUrl:  queueUrl,
		jobUuid:   jobUuid,
	}
}
