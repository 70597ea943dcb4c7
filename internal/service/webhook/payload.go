package webhook

import (
	"encoding/json"
	"time"
)

// EventObjectUpdated is the only event type emitted today.
const EventObjectUpdated = "object.updated"

// updatedAtLayout renders UTC time with microseconds; the trailing Z is appended.
const updatedAtLayout = "2006-01-02T15:04:05.000000"

// Payload is the JSON body POSTed to recipients. Field order is part of the
// wire format.
type Payload struct {
	Event         string            `json:"event"`
	ObjectID      string            `json:"object_id"`
	ProjectID     string            `json:"project_id"`
	UpdatedFields map[string]string `json:"updated_fields"`
	UpdatedAt     string            `json:"updated_at"`
}

// NewPayload builds an object.updated payload.
func NewPayload(projectID, objectID string, updatedFields map[string]string, updatedAt time.Time) Payload {
	fields := make(map[string]string, len(updatedFields))
	for k, v := range updatedFields {
		fields[k] = v
	}
	return Payload{
		Event:         EventObjectUpdated,
		ObjectID:      objectID,
		ProjectID:     projectID,
		UpdatedFields: fields,
		UpdatedAt:     FormatUpdatedAt(updatedAt),
	}
}

// FormatUpdatedAt renders t as ISO 8601 UTC with a Z suffix.
func FormatUpdatedAt(t time.Time) string {
	return t.UTC().Format(updatedAtLayout) + "Z"
}

// Encode marshals the payload.
func (p Payload) Encode() ([]byte, error) {
	return json.Marshal(p)
}
