package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_EncodeUsesTypeAndPayloadEnvelope(t *testing.T) {
	t.Parallel()
	data, err := Event{
		Type:    EventFriendRequestAccepted,
		Payload: FriendRequestAccepted{RecipientID: "bob"},
	}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"friend_request_accepted","payload":{"recipientId":"bob"}}`, string(data))
}

func TestDecodeEvent_NewMessage(t *testing.T) {
	t.Parallel()
	data, err := Event{
		Type: EventNewMessage,
		Payload: NewMessage{
			ConversationID: "alice--bob",
			Message:        Message{ID: "m1", SenderID: "alice", Text: "hi", Timestamp: 42, Seq: 1},
		},
	}.Encode()
	require.NoError(t, err)

	ev, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, EventNewMessage, ev.Type)
	payload, ok := ev.Payload.(*NewMessage)
	require.True(t, ok)
	assert.Equal(t, ConversationID("alice--bob"), payload.ConversationID)
	assert.Equal(t, "hi", payload.Message.Text)
}

func TestDecodeEvent_Errors(t *testing.T) {
	t.Parallel()
	_, err := DecodeEvent([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`{"type":"post_created","payload":{}}`))
	assert.ErrorContains(t, err, "unknown type")
}

func TestMessage_Before(t *testing.T) {
	t.Parallel()
	a := Message{Timestamp: 10, Seq: 5}
	b := Message{Timestamp: 10, Seq: 6}
	c := Message{Timestamp: 11, Seq: 1}
	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.False(t, c.Before(a))
}
