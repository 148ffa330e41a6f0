// Package service holds the friend graph and conversation log engines.
package service

import (
	"context"

	"hearth/internal/models"
)

// EventPublisher hands an event to a user's channel. Implementations must
// not block the caller; delivery is best effort.
type EventPublisher interface {
	PublishUser(userID string, event models.Event)
}

// PresenceChecker reports which of the given users currently hold a session.
type PresenceChecker interface {
	OnlineUsers(ctx context.Context, userIDs []string) (map[string]bool, error)
}

type noopPublisher struct{}

func (noopPublisher) PublishUser(string, models.Event) {}
