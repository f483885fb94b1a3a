package natsgath

import (
	"encoding/json"
	"log/slog"
)

// send is best-effort; a dropped progress message must not abort grading.
func (s *natsGatherer) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal result message", "job", s.jobUuid, "error", err)
		return
	}

	if err := s.nc.Publish(s.inbox, b); err != nil {
		slog.Error("publish result message", "job", s.jobUuid, "inbox", s.inbox, "error", err)
	}
}
