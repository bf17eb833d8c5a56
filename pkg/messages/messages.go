package messages

import "encoding/json"

// Message represents a generic message for serialization/deserialization
// between the board server and its clients.
type Message struct {
	PlayerID string          `json:"playerID"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
}

// Message types
const (
	// MessageTypeServerSnapshot carries a board snapshot pushed to a
	// watching client.
	MessageTypeServerSnapshot = "snapshot"
	// MessageTypeServerError carries an operation failure.
	MessageTypeServerError = "error"
)

// ServerSnapshot is the payload of a snapshot push.
type ServerSnapshot struct {
	Board string `json:"board"`
}

// ServerError is the payload of an error push.
type ServerError struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}
