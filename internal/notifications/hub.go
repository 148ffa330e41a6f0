package notifications

import (
	"context"
	"errors"
	"sync"

	"hearth/internal/cache"
	"hearth/internal/models"
	"hearth/internal/observability"
)

// ErrHubClosed is returned by Subscribe after Shutdown.
var ErrHubClosed = errors.New("hub is shut down")

// Hub maps a user to their single live subscription. A new Subscribe for a
// user supersedes and closes the previous one.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Subscription
	closed   bool

	buffer   int
	presence *Presence
	logger   *observability.WSLogger
}

// HubOption customizes a Hub.
type HubOption func(*Hub)

// WithBufferSize sets the per-session event buffer.
func WithBufferSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithPresence mirrors sessions into Redis presence.
func WithPresence(p *Presence) HubOption {
	return func(h *Hub) { h.presence = p }
}

// NewHub creates a new Hub instance for managing user event sessions.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		sessions: make(map[string]*Subscription),
		buffer:   defaultSubscriptionBuffer,
		logger:   observability.NewWSLogger("event hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "event hub" }

// Subscribe opens the session for userID. Cancelling ctx closes it.
func (h *Hub) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := newSubscription(h, userID, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	previous := h.sessions[userID]
	h.sessions[userID] = sub
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	if h.presence != nil {
		h.presence.Register(ctx, userID)
	}
	if previous != nil {
		previous.closeWith(ReasonSuperseded)
	}
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	h.logger.LogConnect(ctx, userID)
	return sub, nil
}

// release is called exactly once per subscription, from closeWith.
func (h *Hub) release(sub *Subscription) {
	h.mu.Lock()
	if h.sessions[sub.UserID] == sub {
		delete(h.sessions, sub.UserID)
	}
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Dec()
	if h.presence != nil {
		h.presence.Unregister(context.Background(), sub.UserID)
	}
	h.logger.LogDisconnect(context.Background(), sub.UserID, sub.reason)
}

// Deliver hands payload to userID's session, if any. It never blocks.
func (h *Hub) Deliver(userID string, payload []byte) bool {
	h.mu.Lock()
	sub := h.sessions[userID]
	h.mu.Unlock()
	if sub == nil {
		return false
	}
	if h.presence != nil {
		h.presence.Touch(context.Background(), userID)
	}
	return sub.trySend(payload)
}

// IsSubscribed reports whether userID holds a live session on this hub.
func (h *Hub) IsSubscribed(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.sessions[userID]
	return ok
}

// StartWiring connects the Notifier to this hub: every message on a user
// event channel is delivered to that user's local session.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		userID, ok := cache.UserIDFromEventsChannel(channel)
		if !ok {
			h.logger.LogError(ctx, "", errors.New("invalid event channel "+channel), "route")
			return
		}
		h.Deliver(userID, []byte(payload))
	})
}

// Shutdown closes every session and rejects new ones.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*Subscription, 0, len(h.sessions))
	for _, sub := range h.sessions {
		sessions = append(sessions, sub)
	}
	h.mu.Unlock()

	for _, sub := range sessions {
		sub.closeWith(ReasonShutdown)
	}
	if h.presence != nil {
		h.presence.Stop()
	}
	h.logger.LogLifecycle(context.Background(), "shutdown", map[string]any{"sessions": len(sessions)})
	return nil
}
