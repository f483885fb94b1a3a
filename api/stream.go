package api

import "time"

// MsgType is a message type for streaming grading progress
type MsgType string

// Streaming message type constants
const (
	StartJobMsg    MsgType = "job_start"
	StartSuiteMsg  MsgType = "suite_start"
	FinishCaseMsg  MsgType = "case_finish"
	FinishSuiteMsg MsgType = "suite_finish"
	FinishJobMsg   MsgType = "job_finish"
)

// Output size constraints for streamed case messages
const (
	MaxOutputHeight = 40
	MaxOutputWidth  = 80
)

// Header is the common header for all streaming progress messages
type Header struct {
	JobUuid string  `json:"job_uuid"`
	MsgType MsgType `json:"msg_type"`
}

// StartJob message sent when grading of a submission begins
type StartJob struct {
	Header
	Submission  string `json:"submission"`
	StartedTime string `json:"started_time"`
}

// StartSuite message sent when a question's suite is reached
type StartSuite struct {
	Header
	Name      string `json:"name"`
	CaseCount int    `json:"case_count"`
}

// FinishCase message sent when one case of a suite completes
type FinishCase struct {
	Header
	Name     string  `json:"name"`
	CaseIdx  int     `json:"case_idx"`
	Passed   bool    `json:"passed"`
	Points   float64 `json:"points"`
	Possible float64 `json:"possible"`
	Output   *string `json:"output,omitempty"`
}

// FinishSuite message sent when all cases of a question complete
type FinishSuite struct {
	Header
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Possible float64 `json:"possible"`
}

// FinishJob message sent when grading completes
type FinishJob struct {
	Header
	ErrorMessage *string `json:"error_message"`
	Total        float64 `json:"total"`
	Possible     float64 `json:"possible"`
}

// NewHeader creates a header for a streaming message
func NewHeader(jobUuid string, msgType MsgType) Header {
	return Header{
		JobUuid: jobUuid,
		MsgType: msgType,
	}
}

func NewStartJob(jobUuid, submission string) StartJob {
	return StartJob{
		Header:      NewHeader(jobUuid, StartJobMsg),
		Submission:  submission,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}

func NewStartSuite(jobUuid, name string, caseCount int) StartSuite {
	return StartSuite{
		Header:    NewHeader(jobUuid, StartSuiteMsg),
		Name:      name,
		CaseCount: caseCount,
	}
}

func NewFinishCase(jobUuid, name string, caseIdx int, passed bool, points, possible float64, output *string) FinishCase {
	return FinishCase{
		Header:   NewHeader(jobUuid, FinishCaseMsg),
		Name:     name,
		CaseIdx:  caseIdx,
		Passed:   passed,
		Points:   points,
		Possible: possible,
		Output:   output,
	}
}

func NewFinishSuite(jobUuid, name string, score, possible float64) FinishSuite {
	return FinishSuite{
		Header:   NewHeader(jobUuid, FinishSuiteMsg),
		Name:     name,
		Score:    score,
		Possible: possible,
	}
}

func NewFinishJob(jobUuid string, errorMessage *string, total, possible float64) FinishJob {
	return FinishJob{
		Header:       NewHeader(jobUuid, FinishJobMsg),
		ErrorMessage: errorMessage,
		Total:        total,
		Possible:     possible,
	}
}
