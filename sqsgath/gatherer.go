package sqsgath

import (
	"github.com/notebook-lv/autograder/api"
)

func (s *sqsResQueueGatherer) StartJob(submission string) {
	s.send(api.NewStartJob(s.jobUuid, submission))
}

func (s *sqsResQueueGatherer) StartSuite(name string, caseCount int) {
	s.send(api.NewStartSuite(s.jobUuid, name, caseCount))
}

func (s *sqsResQueueGatherer) FinishCase(name string, caseIdx int, passed bool, points, possible float64, output string) {
	var trimmed *string
	if output != "" {
		t := trimStrToRect(output, api.MaxOutputHeight, api.MaxOutputWidth)
		trimmed = &t
	}
	s.send(api.NewFinishCase(s.jobUuid, name, caseIdx, passed, points, possible, trimmed))
}

func (s *sqsResQueueGatherer) FinishSuite(name string, score, possible float64) {
	s.send(api.NewFinishSuite(s.jobUuid, name, score, possible))
}

func (s *sqsResQueueGatherer) FinishJob(errIfAny error, total, possible float64) {
	var errMsg *string
	if errIfAny != nil {
		msg := errIfAny.Error()
		errMsg = &msg
	}
	s.send(api.NewFinishJob(s.jobUuid, errMsg, total, possible))
}
