package grade

// ResultGatherer receives grading progress events. Implementations stream
// them to a terminal, NATS subject, or SQS queue.
type ResultGatherer interface {
	StartJob(submission string)

	StartSuite(name string, caseCount int)
	FinishCase(name string, caseIdx int, passed bool, points, possible float64, output string)
	FinishSuite(name string, score, possible float64)

	FinishJob(errIfAny error, total, possible float64)
}
