package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hearth/internal/models"
	"hearth/internal/observability"
	"hearth/internal/repository"
	"hearth/internal/service"

	"github.com/redis/go-redis/v9"
)

// Options configuration for the seeder
type Options struct {
	NumUsers int
	// FriendsPerUser is how many ring neighbours each user befriends.
	FriendsPerUser  int
	PendingRequests int
	MessagesPerChat int
	ShouldClean     bool
	// Seed makes generated data reproducible; zero picks a random seed.
	Seed int64
}

// Summary reports what a run created.
type Summary struct {
	Users           int
	Friendships     int
	PendingRequests int
	Messages        int
}

// Seeder populates the store with a social mesh of users, friendships and
// conversations.
type Seeder struct {
	rdb     *redis.Client
	factory *Factory
	opts    Options
}

// NewSeeder wires a Seeder to rdb. Events are not published while seeding.
func NewSeeder(rdb *redis.Client, opts Options) *Seeder {
	storeOpts := repository.StoreOptions{}
	users := repository.NewUserRepository(rdb, storeOpts)
	friends := service.NewFriendService(repository.NewFriendRepository(rdb, storeOpts), users, nil, nil)
	chat := service.NewChatService(repository.NewChatRepository(rdb, storeOpts), friends, nil)

	return &Seeder{
		rdb:     rdb,
		factory: NewFactory(users, friends, chat, opts.Seed),
		opts:    opts,
	}
}

// ClearAll removes every key this service owns.
func (s *Seeder) ClearAll(ctx context.Context) error {
	for _, pattern := range []string{"user:*", "chat:*", "presence:*"} {
		iter := s.rdb.Scan(ctx, 0, pattern, 500).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete %s: %w", pattern, err)
			}
		}
	}
	return nil
}

// Run seeds users on a ring: each befriends its next FriendsPerUser
// neighbours and chats with the first of them, and the users after those
// receive pending requests.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	if s.opts.NumUsers < 2 {
		return summary, errors.New("at least two users are required")
	}

	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return summary, err
		}
	}

	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		user, err := s.factory.CreateUser(ctx)
		if err != nil {
			return summary, err
		}
		users = append(users, user)
	}
	summary.Users = len(users)

	n := len(users)
	friendsPerUser := min(s.opts.FriendsPerUser, (n-1)/2)
	pending := min(s.opts.PendingRequests, n-1-2*friendsPerUser)

	for i, user := range users {
		for k := 1; k <= friendsPerUser; k++ {
			friend := users[(i+k)%n]
			if err := s.factory.CreateFriendship(ctx, user, friend); err != nil {
				return summary, fmt.Errorf("befriend %s and %s: %w", user.ID, friend.ID, err)
			}
			summary.Friendships++

			if k == 1 && s.opts.MessagesPerChat > 0 {
				msgs, err := s.factory.CreateConversation(ctx, user, friend, s.opts.MessagesPerChat)
				summary.Messages += len(msgs)
				if err != nil {
					return summary, err
				}
			}
		}
	}

	for i, user := range users {
		for k := 1; k <= pending; k++ {
			recipient := users[(i+friendsPerUser+k)%n]
			err := s.factory.CreatePendingRequest(ctx, user, recipient)
			if errors.Is(err, models.ErrIncomingPending) {
				// The recipient already asked first on the other side of the ring.
				continue
			}
			if err != nil {
				return summary, fmt.Errorf("request %s to %s: %w", user.ID, recipient.ID, err)
			}
			summary.PendingRequests++
		}
	}

	observability.GlobalLogger.Info("seeding complete",
		slog.Int("users", summary.Users),
		slog.Int("friendships", summary.Friendships),
		slog.Int("pending_requests", summary.PendingRequests),
		slog.Int("messages", summary.Messages))
	return summary, nil
}
