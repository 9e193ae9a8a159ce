package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeEntryUpdate MessageType = "entry_update"
	TypeEntryDelete MessageType = "entry_delete"
	TypePing        MessageType = "ping"
	TypePong        MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// EntryUpdatePayload tells the owner's other tabs that the entry's version
// moved, so an open editor can warn before it submits a stale write.
type EntryUpdatePayload struct {
	EntryID   string    `json:"entry_id"`
	Version   int64     `json:"version"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	ClientID  string    `json:"client_id"`
}

type EntryDeletePayload struct {
	EntryID  string `json:"entry_id"`
	Version  int64  `json:"version"`
	ClientID string `json:"client_id"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}
