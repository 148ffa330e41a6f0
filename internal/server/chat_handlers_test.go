package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"hearth/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatHandlers_ConversationWith(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodGet, "/api/chats/with/alice", "bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"conversation_id": "alice--bob"}, decodeBody[map[string]string](t, resp))

	resp = ts.do(http.MethodGet, "/api/chats/with/bob", "bob", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatHandlers_SendAndRead(t *testing.T) {
	ts := newTestServer(t)

	// Strangers cannot write.
	resp := ts.do(http.MethodPost, "/api/chats/alice--bob/messages", "alice", SendMessageRequest{Text: "hi"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "not_friends", decodeBody[models.ErrorResponse](t, resp).Reason)

	ts.befriend("alice", "bob")

	for _, text := range []string{"one", "two", "three"} {
		resp = ts.do(http.MethodPost, "/api/chats/alice--bob/messages", "alice", SendMessageRequest{Text: text})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		msg := decodeBody[models.Message](t, resp)
		assert.Equal(t, "alice", msg.SenderID)
		assert.Equal(t, text, msg.Text)
		assert.NotEmpty(t, msg.ID)
	}

	resp = ts.do(http.MethodGet, "/api/chats/alice--bob/messages", "bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decodeBody[[]models.Message](t, resp)
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Text)
	assert.Equal(t, "three", history[2].Text)

	resp = ts.do(http.MethodGet, "/api/chats/alice--bob/messages?limit=2", "alice", nil)
	recent := decodeBody[[]models.Message](t, resp)
	require.Len(t, recent, 2)
	assert.Equal(t, "two", recent[0].Text)
	assert.Equal(t, "three", recent[1].Text)

	resp = ts.do(http.MethodGet, "/api/chats/alice--bob/messages?limit=-1", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatHandlers_HistoryLimitCap(t *testing.T) {
	ts := newTestServer(t)
	ts.befriend("alice", "bob")
	ctx := context.Background()
	id := models.ConversationID("alice--bob")

	total := maxHistoryLimit + 1
	for i := 0; i < total; i++ {
		msg := models.Message{ID: strconv.Itoa(i), SenderID: "alice", Text: "x", Timestamp: int64(1000 + i)}
		require.NoError(t, ts.srv.chatRepo.AppendMessage(ctx, id, &msg, nil))
	}

	resp := ts.do(http.MethodGet, "/api/chats/alice--bob/messages?limit=1000", "bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	capped := decodeBody[[]models.Message](t, resp)
	require.Len(t, capped, maxHistoryLimit)
	assert.Equal(t, "1", capped[0].ID)
	assert.Equal(t, strconv.Itoa(total-1), capped[maxHistoryLimit-1].ID)

	resp = ts.do(http.MethodGet, "/api/chats/alice--bob/messages", "bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]models.Message](t, resp), total)
}

func TestChatHandlers_Rejections(t *testing.T) {
	ts := newTestServer(t)
	ts.befriend("alice", "bob")

	tests := []struct {
		name   string
		user   string
		path   string
		text   string
		status int
		reason string
	}{
		{"outsider", "carol", "/api/chats/alice--bob/messages", "hi", http.StatusForbidden, "not_participant"},
		{"malformed id", "alice", "/api/chats/alice/messages", "hi", http.StatusBadRequest, "invalid_conversation_id"},
		{"empty text", "alice", "/api/chats/alice--bob/messages", "   ", http.StatusBadRequest, "empty_message"},
		{"too long", "alice", "/api/chats/alice--bob/messages", strings.Repeat("x", 201), http.StatusBadRequest, "message_too_long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(http.MethodPost, tt.path, tt.user, SendMessageRequest{Text: tt.text})
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.reason, decodeBody[models.ErrorResponse](t, resp).Reason)
		})
	}

	resp := ts.do(http.MethodGet, "/api/chats/alice--bob/messages", "carol", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestChatHandlers_HistoryClosedAfterUnfriend(t *testing.T) {
	ts := newTestServer(t)
	ts.befriend("alice", "bob")

	resp := ts.do(http.MethodPost, "/api/chats/alice--bob/messages", "alice", SendMessageRequest{Text: "hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Equal(t, http.StatusOK, ts.do(http.MethodDelete, "/api/friends/alice", "bob", nil).StatusCode)

	resp = ts.do(http.MethodGet, "/api/chats/alice--bob/messages", "alice", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.True(t, ts.mr.Exists("chat:alice--bob:messages"))
}
