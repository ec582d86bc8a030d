package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"personalbudget/internal/core"
)

// ErrUnprocessable marks a message that can never be handled. Consumers drop
// such messages instead of requeueing them.
var ErrUnprocessable = errors.New("unprocessable message")

// EntryCreatedMessage announces a newly persisted budget entry to downstream consumers.
type EntryCreatedMessage struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Budget    float64   `json:"budget"`
	ColorCode string    `json:"colorCode"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryCreatedMessage(e core.StoredEntry) *EntryCreatedMessage {
	return &EntryCreatedMessage{
		ID:        e.ID,
		Title:     e.Title,
		Budget:    e.Amount,
		ColorCode: e.ColorCode,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntryCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryCreatedMessageFromJSON decodes a message published by PublishEntryCreated.
func EntryCreatedMessageFromJSON(data []byte) (*EntryCreatedMessage, error) {
	var msg EntryCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnprocessable, err)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("%w: entry created message without id", ErrUnprocessable)
	}
	return &msg, nil
}
