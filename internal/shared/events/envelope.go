package events

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical event shape carried between memberhub modules.
// Outbox rows persist the marshalled envelope; the worker relay publishes it
// to the message bus unchanged, so fields must stay backward compatible.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SourceService string          `json:"source_service"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	SchemaVersion int             `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}
