package notifications

import (
	"context"
	"testing"
	"time"

	"hearth/internal/models"
	"hearth/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func encode(t *testing.T, ev models.Event) []byte {
	t.Helper()
	b, err := ev.Encode()
	require.NoError(t, err)
	return b
}

func TestHub_DeliverToSubscriber(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	sub, err := hub.Subscribe(context.Background(), "bob")
	require.NoError(t, err)

	assert.False(t, hub.Deliver("alice", []byte(`{}`)), "no session for alice")
	assert.True(t, hub.Deliver("bob", encode(t, models.Event{
		Type:    models.EventFriendRequestAccepted,
		Payload: models.FriendRequestAccepted{RecipientID: "alice"},
	})))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.EventFriendRequestAccepted, ev.Type)
	assert.Equal(t, "alice", ev.Payload.(*models.FriendRequestAccepted).RecipientID)
}

func TestHub_NewSubscriptionSupersedesOld(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	first, err := hub.Subscribe(context.Background(), "bob")
	require.NoError(t, err)
	second, err := hub.Subscribe(context.Background(), "bob")
	require.NoError(t, err)

	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatal("first subscription was not closed")
	}
	assert.Equal(t, ReasonSuperseded, first.Reason())
	assert.True(t, hub.IsSubscribed("bob"))

	hub.Deliver("bob", []byte(`{"type":"friend_removed","payload":{"userId":"x"}}`))
	_, err = first.Next(context.Background())
	assert.ErrorIs(t, err, ErrSubscriptionClosed)

	ev, err := second.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.EventFriendRemoved, ev.Type)

	first.Close()
	assert.True(t, hub.IsSubscribed("bob"), "closing a superseded session keeps the new one")
}

func TestHub_CloseStopsDeliveryImmediately(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe(context.Background(), "bob")
	require.NoError(t, err)

	hub.Deliver("bob", []byte(`{"type":"friend_removed","payload":{}}`))
	sub.Close()
	sub.Close()

	_, err = sub.Next(context.Background())
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
	assert.False(t, hub.IsSubscribed("bob"))
	assert.False(t, hub.Deliver("bob", []byte(`{}`)))
}

func TestHub_ContextCancellationUnsubscribes(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	_, err := hub.Subscribe(ctx, "bob")
	require.NoError(t, err)

	cancel()
	assert.Eventually(t, func() bool { return !hub.IsSubscribed("bob") }, testEventuallyTimeout, testPollInterval)

	_, err = hub.Subscribe(ctx, "bob")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHub_FullBufferDropsWithoutBlocking(t *testing.T) {
	hub := NewHub(WithBufferSize(2))
	defer func() { _ = hub.Shutdown(context.Background()) }()
	sub, err := hub.Subscribe(context.Background(), "bob")
	require.NoError(t, err)

	drops := testutil.ToFloat64(observability.WebSocketBackpressureDrops.WithLabelValues(hub.Name(), "full"))
	first := encode(t, models.Event{Type: models.EventFriendRemoved, Payload: models.FriendRemoved{UserID: "first"}})
	second := encode(t, models.Event{Type: models.EventFriendRemoved, Payload: models.FriendRemoved{UserID: "second"}})
	assert.True(t, hub.Deliver("bob", first))
	assert.True(t, hub.Deliver("bob", second))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Deliver("bob", first)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Deliver blocked on a full buffer")
	}
	assert.Equal(t, drops+10, testutil.ToFloat64(observability.WebSocketBackpressureDrops.WithLabelValues(hub.Name(), "full")))

	ctx := context.Background()
	ev, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", ev.Payload.(*models.FriendRemoved).UserID)
	ev, err = sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", ev.Payload.(*models.FriendRemoved).UserID)

	assert.True(t, hub.Deliver("bob", first), "room again after draining")
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe(context.Background(), "bob")
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	<-sub.Done()
	assert.Equal(t, ReasonShutdown, sub.Reason())

	_, err = hub.Subscribe(context.Background(), "carol")
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_RejectsInvalidUser(t *testing.T) {
	hub := NewHub()
	_, err := hub.Subscribe(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrInvalidUserID)
}
