package notifications

import (
	"encoding/json"
	"time"
)

// Event types pushed to activity stream clients.
const (
	EventThreadCreated = "thread_created"
	EventReplyCreated  = "reply_created"
	EventThreadLiked   = "thread_liked"
	EventThreadDeleted = "thread_deleted"
	// EventDropped tells a slow client that messages were skipped and it should refetch.
	EventDropped = "messages_dropped"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps payload with the current time.
func NewEvent(eventType string, payload any) Event {
	return Event{Type: eventType, Payload: payload, Timestamp: time.Now().UTC()}
}

// Encode renders the event as JSON text.
func (e Event) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var droppedNotice = []byte(`{"type":"` + EventDropped + `","payload":{"reason":"buffer_full"}}`)
