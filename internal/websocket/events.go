package websocket

import "log"

// EventBroadcaster handles broadcasting WebSocket events.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastBatchBuildProgress sends a batch.build_progress event.
func (b *EventBroadcaster) BroadcastBatchBuildProgress(sessionID, roomTypeID, date string, fetched, total int, rateFound bool) {
	if b == nil {
		return
	}
	payload := BatchBuildProgressPayload{
		SessionID:  sessionID,
		RoomTypeID: roomTypeID,
		Date:       date,
		Fetched:    fetched,
		Total:      total,
		RateFound:  rateFound,
	}

	b.broadcast(NewMessage(TypeBatchBuildProgress, payload))
}

// BroadcastSubmissionProgress sends a submission.progress event.
func (b *EventBroadcaster) BroadcastSubmissionProgress(sessionID string, completed, total int, targetDate string, targetYear int, success bool, errMsg string) {
	if b == nil {
		return
	}
	payload := SubmissionProgressPayload{
		SessionID:  sessionID,
		Completed:  completed,
		Total:      total,
		TargetDate: targetDate,
		TargetYear: targetYear,
		Success:    success,
		Error:      errMsg,
	}

	b.broadcast(NewMessage(TypeSubmissionProgress, payload))
}

// BroadcastSubmissionCompleted sends a submission.completed event.
func (b *EventBroadcaster) BroadcastSubmissionCompleted(sessionID string, total, successful int) {
	if b == nil {
		return
	}
	payload := SubmissionCompletedPayload{
		SessionID:  sessionID,
		Total:      total,
		Successful: successful,
	}

	b.broadcast(NewMessage(TypeSubmissionCompleted, payload))
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	if b == nil {
		return
	}
	payload := NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}

	b.broadcast(NewMessage(TypeNotification, payload))
}

// broadcast sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(data)
}
