package natsgath

import (
	"github.com/nats-io/nats.go"

	"github.com/notebook-lv/autograder/api"
)

type natsGatherer struct {
	nc      *nats.Conn
	inbox   string
	jobUuid string
}

func (s *natsGatherer) StartJob(submission string) {
	s.send(api.NewStartJob(s.jobUuid, submission))
}

func (s *natsGatherer) StartSuite(name string, caseCount int) {
	s.send(api.NewStartSuite(s.jobUuid, name, caseCount))
}

func (s *natsGatherer) FinishCase(name string, caseIdx int, passed bool, points, possible float64, output string) {
	var trimmed *string
	if output != "" {
		t := trimStrToRect(output, api.MaxOutputHeight, api.MaxOutputWidth)
		trimmed = &t
	}
	s.send(api.NewFinishCase(s.jobUuid, name, caseIdx, passed, points, possible, trimmed))
}

func (s *natsGatherer) FinishSuite(name string, score, possible float64) {
	s.send(api.NewFinishSuite(s.jobUuid, name, score, possible))
}

func (s *natsGatherer) FinishJob(errIfAny error, total, possible float64) {
	var errMsg *string
	if errIfAny != nil {
		msg := errIfAny.Error()
		errMsg = &msg
	}
	s.send(api.NewFinishJob(s.jobUuid, errMsg, total, possible))
}
