package natsgath

import (
	"github.com/nats-io/nats.go"
)

// New creates a new NATS gatherer that streams grading progress to the given
// inbox subject.
func New(nc *nats.Conn, jobUuid string, inbox string) *natsGatherer {
	return &natsGatherer{
		nc:      nc,
		inbox:   inbox,
		jobUuid: jobUuid,
	}
}
