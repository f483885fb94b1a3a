package sqsgath

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// send marshals the message and pushes it to the results queue. Delivery is
// best-effort; a lost progress message must not abort the grading run.
func (s *sqsResQueueGatherer) send(msg interface{}) {
	body, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal result message", "job", s.jobUuid, "error", err)
		return
	}

	_, err = s.sqsClient.SendMessage(context.TODO(), &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueUrl),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		slog.Error("send result message", "job", s.jobUuid, "queue", s.queueUrl, "error", err)
	}
}
