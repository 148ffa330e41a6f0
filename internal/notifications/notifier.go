// Package notifications provides real-time event delivery to user sessions.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"hearth/internal/cache"
	"hearth/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes user events into Redis channels and subscribes to them.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends payload to the user's event channel.
func (n *Notifier) Publish(ctx context.Context, userID string, payload []byte) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, cache.UserEventsChannel(userID), payload).Err()
}

// StartPatternSubscriber subscribes to every user event channel and calls
// onMessage for each incoming message. It returns once the subscription is
// confirmed by the server; delivery stops when ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, cache.UserEventsChannelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("psubscribe %s: %w", cache.UserEventsChannelPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.GlobalLogger.Error("panic in pattern subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
