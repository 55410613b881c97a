package model

import "encoding/json"

// EventEnvelope is a verified shop event relayed through Kafka.
type EventEnvelope struct {
	ID      string          `json:"id"`
	Topic   string          `json:"topic"`
	Shop    string          `json:"shop"`
	Payload json.RawMessage `json:"payload"`
}
