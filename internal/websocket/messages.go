package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeBatchBuildProgress  MessageType = "batch.build_progress"
	TypeSubmissionProgress  MessageType = "submission.progress"
	TypeSubmissionCompleted MessageType = "submission.completed"
	TypeNotification        MessageType = "notification"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// BatchBuildProgressPayload is the payload for batch.build_progress events,
// emitted once per (room type, date) rate lookup while a batch is assembled.
type BatchBuildProgressPayload struct {
	SessionID  string `json:"session_id"`
	RoomTypeID string `json:"room_type_id"`
	Date       string `json:"date"`
	Fetched    int    `json:"fetched"`
	Total      int    `json:"total"`
	RateFound  bool   `json:"rate_found"`
}

// SubmissionProgressPayload is the payload for submission.progress events,
// emitted after each copy operation completes.
type SubmissionProgressPayload struct {
	SessionID  string `json:"session_id"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	TargetDate string `json:"target_date"`
	TargetYear int    `json:"target_year"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// SubmissionCompletedPayload is the payload for submission.completed events.
type SubmissionCompletedPayload struct {
	SessionID  string `json:"session_id"`
	Total      int    `json:"total"`
	Successful int    `json:"successful"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
