package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/store"
)

var ErrInvalidMessage = errors.New("invalid change message")

// ChangeMessage announces one completed change to the expense collection.
// Consumers get a summary, not the records themselves.
type ChangeMessage struct {
	Op        string      `json:"op"`
	Index     int         `json:"index"`
	Count     int         `json:"count"`
	Total     core.Amount `json:"total"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewChangeMessage summarizes a store change.
func NewChangeMessage(ch store.Change) *ChangeMessage {
	return &ChangeMessage{
		Op:        string(ch.Op),
		Index:     ch.Index,
		Count:     len(ch.Items),
		Total:     core.Amount(core.Total(ch.Items)),
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and validates a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	switch store.Op(msg.Op) {
	case store.OpLoad, store.OpAdd, store.OpDelete:
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidMessage, msg.Op)
	}
	if msg.Count < 0 {
		return nil, fmt.Errorf("%w: negative count", ErrInvalidMessage)
	}
	return &msg, nil
}
