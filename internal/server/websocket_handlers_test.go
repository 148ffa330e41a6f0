package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hearth/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves the app on a loopback port with workers running.
func (ts *testServer) listen() string {
	ts.t.Helper()
	require.NoError(ts.t, ts.srv.StartWorkers(context.Background()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(ts.t, err)
	go func() { _ = ts.app.Listener(ln) }()
	ts.t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ts.srv.Shutdown(ctx)
	})
	return "ws://" + ln.Addr().String()
}

func (ts *testServer) ticket(userID string) string {
	ts.t.Helper()
	resp := ts.do(http.MethodPost, "/api/ws/ticket", userID, nil)
	require.Equal(ts.t, http.StatusOK, resp.StatusCode)
	body := decodeBody[struct {
		Ticket string `json:"ticket"`
	}](ts.t, resp)
	require.NotEmpty(ts.t, body.Ticket)
	return body.Ticket
}

// readUntil reads frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want models.EventType) models.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		event, err := models.DecodeEvent(data)
		require.NoError(t, err)
		if event.Type == want {
			return event
		}
	}
}

func TestWebsocket_DeliversEventsToPeer(t *testing.T) {
	ts := newTestServer(t)
	base := ts.listen()
	ts.befriend("alice", "bob")

	conn, _, err := websocket.DefaultDialer.Dial(base+"/api/ws?ticket="+ts.ticket("alice"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return ts.srv.hub.IsSubscribed("alice") }, 2*time.Second, 10*time.Millisecond)

	resp := ts.do(http.MethodPost, "/api/chats/alice--bob/messages", "bob", SendMessageRequest{Text: "hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	event := readUntil(t, conn, models.EventNewMessage)
	payload, ok := event.Payload.(*models.NewMessage)
	require.True(t, ok)
	assert.Equal(t, models.ConversationID("alice--bob"), payload.ConversationID)
	assert.Equal(t, "bob", payload.Message.SenderID)
	assert.Equal(t, "hello", payload.Message.Text)
}

func TestWebsocket_NewSessionSupersedesOld(t *testing.T) {
	ts := newTestServer(t)
	base := ts.listen()

	header := http.Header{"Authorization": {"Bearer " + ts.token("alice")}}
	first, _, err := websocket.DefaultDialer.Dial(base+"/api/ws", header)
	require.NoError(t, err)
	defer first.Close()
	require.Eventually(t, func() bool { return ts.srv.hub.IsSubscribed("alice") }, 2*time.Second, 10*time.Millisecond)

	second, _, err := websocket.DefaultDialer.Dial(base+"/api/ws", header)
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, _, err = first.ReadMessage()
		if err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	assert.True(t, ts.srv.hub.IsSubscribed("alice"))
}

func TestWebsocket_TicketIsSingleUse(t *testing.T) {
	ts := newTestServer(t)
	base := ts.listen()
	ticket := ts.ticket("alice")

	conn, _, err := websocket.DefaultDialer.Dial(base+"/api/ws?ticket="+ticket, nil)
	require.NoError(t, err)
	conn.Close()

	_, resp, err := websocket.DefaultDialer.Dial(base+"/api/ws?ticket="+ticket, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebsocket_RejectsQueryTokenAndPlainRequests(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ws?token="+ts.token("alice"), nil)
	resp, err := ts.app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(http.MethodGet, "/api/ws", "alice", nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
