package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const envelopeVersion = 1

// PayloadEnvelope is the versioned wrapper stored in outbox_events.payload.
// Consumers dedupe on EventID; Data carries the event body verbatim.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

func newEnvelope(data json.RawMessage) PayloadEnvelope {
	return PayloadEnvelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}
