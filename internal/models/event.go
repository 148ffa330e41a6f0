package models

import (
	"encoding/json"
	"fmt"
)

// EventType names an event kind on a user's event channel.
type EventType string

// Event type constants prevent typos in event names.
const (
	EventFriendRequestReceived EventType = "friend_request_received"
	EventFriendRequestAccepted EventType = "friend_request_accepted"
	EventFriendRemoved         EventType = "friend_removed"
	EventNewMessage            EventType = "new_message"
	// EventsDropped is sent by the hub itself when a session's buffer overflowed.
	EventsDropped EventType = "events_dropped"
)

// Event is the envelope published to user:{id}:events.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// FriendRequestReceived is delivered to the recipient of a new request.
type FriendRequestReceived struct {
	SenderID string       `json:"senderId"`
	Sender   *UserSummary `json:"sender,omitempty"`
}

// FriendRequestAccepted is delivered to the original sender.
type FriendRequestAccepted struct {
	RecipientID string `json:"recipientId"`
}

// FriendRemoved is delivered to the user who lost a friend.
type FriendRemoved struct {
	UserID string `json:"userId"`
}

// NewMessage is delivered to the participant who did not send the message.
type NewMessage struct {
	ConversationID ConversationID `json:"conversationId"`
	Message        Message        `json:"message"`
}

// EventsDroppedNotice tells a client it missed events and must re-fetch.
type EventsDroppedNotice struct {
	Reason string `json:"reason"`
}

// Encode marshals the event envelope.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses an envelope and resolves Payload to the concrete type of its kind.
func DecodeEvent(data []byte) (Event, error) {
	var raw struct {
		Type    EventType       `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}

	var payload any
	switch raw.Type {
	case EventFriendRequestReceived:
		payload = &FriendRequestReceived{}
	case EventFriendRequestAccepted:
		payload = &FriendRequestAccepted{}
	case EventFriendRemoved:
		payload = &FriendRemoved{}
	case EventNewMessage:
		payload = &NewMessage{}
	case EventsDropped:
		payload = &EventsDroppedNotice{}
	default:
		return Event{}, fmt.Errorf("decode event: unknown type %q", raw.Type)
	}
	if len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, payload); err != nil {
			return Event{}, fmt.Errorf("decode %s payload: %w", raw.Type, err)
		}
	}
	return Event{Type: raw.Type, Payload: payload}, nil
}
