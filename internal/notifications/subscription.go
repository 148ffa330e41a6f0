package notifications

import (
	"context"
	"errors"
	"sync"

	"hearth/internal/models"
	"hearth/internal/observability"
)

// ErrSubscriptionClosed is returned by Next once the subscription has ended.
var ErrSubscriptionClosed = errors.New("subscription closed")

const defaultSubscriptionBuffer = 256

// Close reasons reported to the session.
const (
	ReasonClosed     = "closed"
	ReasonSuperseded = "superseded"
	ReasonShutdown   = "shutdown"
)

var droppedNotice = mustEncode(models.Event{
	Type:    models.EventsDropped,
	Payload: models.EventsDroppedNotice{Reason: "buffer_full"},
})

func mustEncode(e models.Event) []byte {
	b, err := e.Encode()
	if err != nil {
		panic(err)
	}
	return b
}

// Subscription is one live session's view of a user's event channel.
// Events arrive in publish order; nothing is replayed after Close.
type Subscription struct {
	UserID string

	hub    *Hub
	events chan []byte
	done   chan struct{}

	closeOnce sync.Once
	reason    string
}

func newSubscription(h *Hub, userID string, buffer int) *Subscription {
	return &Subscription{
		UserID: userID,
		hub:    h,
		events: make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// Next blocks until the next event, ctx cancellation, or Close.
func (s *Subscription) Next(ctx context.Context) (models.Event, error) {
	for {
		raw, err := s.NextRaw(ctx)
		if err != nil {
			return models.Event{}, err
		}
		ev, err := models.DecodeEvent(raw)
		if err != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(s.hub.Name(), "undecodable").Inc()
			continue
		}
		return ev, nil
	}
}

// NextRaw is Next without decoding the envelope.
func (s *Subscription) NextRaw(ctx context.Context) ([]byte, error) {
	select {
	case <-s.done:
		return nil, ErrSubscriptionClosed
	default:
	}
	select {
	case <-s.done:
		return nil, ErrSubscriptionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload := <-s.events:
		return payload, nil
	}
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Reason reports why the subscription ended. It is empty while open.
func (s *Subscription) Reason() string {
	select {
	case <-s.done:
		return s.reason
	default:
		return ""
	}
}

// Close ends the subscription and releases it from the hub. It is idempotent.
func (s *Subscription) Close() {
	s.closeWith(ReasonClosed)
}

func (s *Subscription) closeWith(reason string) {
	s.closeOnce.Do(func() {
		s.reason = reason
		close(s.done)
		s.hub.release(s)
	})
}

// trySend queues payload without blocking. On a full buffer the payload is
// dropped and the session is told to re-fetch.
func (s *Subscription) trySend(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.events <- payload:
		return true
	default:
	}

	observability.WebSocketBackpressureDrops.WithLabelValues(s.hub.Name(), "full").Inc()
	s.hub.logger.LogError(context.Background(), s.UserID, errors.New("buffer full, dropped event"), "deliver")
	select {
	case s.events <- droppedNotice:
	default:
	}
	return false
}
