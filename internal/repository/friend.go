package repository

import (
	"context"
	"sort"

	"hearth/internal/cache"
	"hearth/internal/models"

	"github.com/redis/go-redis/v9"
)

// FriendRepository defines the interface for friend graph operations.
// Every mutation writes both sides of an edge in one transaction.
type FriendRepository interface {
	CreateRequest(ctx context.Context, senderID, recipientID string) error
	AcceptRequest(ctx context.Context, recipientID, senderID string) error
	DeleteRequest(ctx context.Context, senderID, recipientID string) error
	RemoveFriendship(ctx context.Context, userID, friendID string) error
	IsFriend(ctx context.Context, userID, otherID string) (bool, error)
	HasPendingRequest(ctx context.Context, senderID, recipientID string) (bool, error)
	Friends(ctx context.Context, userID string) ([]string, error)
	IncomingRequests(ctx context.Context, userID string) ([]string, error)
	OutgoingRequests(ctx context.Context, userID string) ([]string, error)
	// WithFriendship commits the writes queued by fn only while userID and
	// otherID are friends. It returns ErrNotFriends otherwise.
	WithFriendship(ctx context.Context, userID, otherID string, fn func(pipe redis.Pipeliner) error) error
}

// Guard runs queued writes under a precondition owned by another repository.
type Guard func(ctx context.Context, fn func(pipe redis.Pipeliner) error) error

// friendRepository implements FriendRepository on Redis sets.
type friendRepository struct {
	store
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(rdb *redis.Client, opts StoreOptions) FriendRepository {
	return &friendRepository{store: newStore(rdb, "friends", opts)}
}

func (r *friendRepository) CreateRequest(ctx context.Context, senderID, recipientID string) error {
	friends := cache.FriendsKey(senderID)
	incoming := cache.IncomingRequestsKey(recipientID)
	reverse := cache.IncomingRequestsKey(senderID)

	err := r.watch(ctx, "create_request", func(ctx context.Context, tx *redis.Tx) error {
		isFriend, err := tx.SIsMember(ctx, friends, recipientID).Result()
		if err != nil {
			return err
		}
		if isFriend {
			return models.ErrAlreadyFriends
		}
		pending, err := tx.SIsMember(ctx, incoming, senderID).Result()
		if err != nil {
			return err
		}
		if pending {
			return models.ErrRequestPending
		}
		reversePending, err := tx.SIsMember(ctx, reverse, recipientID).Result()
		if err != nil {
			return err
		}
		if reversePending {
			return models.ErrIncomingPending
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SAdd(ctx, incoming, senderID)
			pipe.SAdd(ctx, cache.OutgoingRequestsKey(senderID), recipientID)
			return nil
		})
		return err
	}, friends, incoming, reverse)
	if err == nil {
		r.log.LogWrite(ctx, "create_request", map[string]any{"sender_id": senderID, "recipient_id": recipientID})
	}
	return err
}

func (r *friendRepository) AcceptRequest(ctx context.Context, recipientID, senderID string) error {
	incoming := cache.IncomingRequestsKey(recipientID)

	err := r.watch(ctx, "accept_request", func(ctx context.Context, tx *redis.Tx) error {
		pending, err := tx.SIsMember(ctx, incoming, senderID).Result()
		if err != nil {
			return err
		}
		if !pending {
			return models.ErrNoSuchRequest
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SRem(ctx, incoming, senderID)
			pipe.SRem(ctx, cache.OutgoingRequestsKey(senderID), recipientID)
			pipe.SRem(ctx, cache.IncomingRequestsKey(senderID), recipientID)
			pipe.SRem(ctx, cache.OutgoingRequestsKey(recipientID), senderID)
			pipe.SAdd(ctx, cache.FriendsKey(recipientID), senderID)
			pipe.SAdd(ctx, cache.FriendsKey(senderID), recipientID)
			return nil
		})
		return err
	}, incoming)
	if err == nil {
		r.log.LogWrite(ctx, "accept_request", map[string]any{"sender_id": senderID, "recipient_id": recipientID})
	}
	return err
}

func (r *friendRepository) DeleteRequest(ctx context.Context, senderID, recipientID string) error {
	incoming := cache.IncomingRequestsKey(recipientID)

	return r.watch(ctx, "delete_request", func(ctx context.Context, tx *redis.Tx) error {
		pending, err := tx.SIsMember(ctx, incoming, senderID).Result()
		if err != nil {
			return err
		}
		if !pending {
			return models.ErrNoSuchRequest
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SRem(ctx, incoming, senderID)
			pipe.SRem(ctx, cache.OutgoingRequestsKey(senderID), recipientID)
			return nil
		})
		return err
	}, incoming)
}

func (r *friendRepository) RemoveFriendship(ctx context.Context, userID, friendID string) error {
	friends := cache.FriendsKey(userID)

	return r.watch(ctx, "remove_friendship", func(ctx context.Context, tx *redis.Tx) error {
		isFriend, err := tx.SIsMember(ctx, friends, friendID).Result()
		if err != nil {
			return err
		}
		if !isFriend {
			return models.ErrNoSuchFriendship
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SRem(ctx, friends, friendID)
			pipe.SRem(ctx, cache.FriendsKey(friendID), userID)
			return nil
		})
		return err
	}, friends)
}

func (r *friendRepository) IsFriend(ctx context.Context, userID, otherID string) (bool, error) {
	var ok bool
	err := r.run(ctx, "is_friend", func(ctx context.Context) error {
		var err error
		ok, err = r.rdb.SIsMember(ctx, cache.FriendsKey(userID), otherID).Result()
		return err
	})
	return ok, err
}

func (r *friendRepository) WithFriendship(ctx context.Context, userID, otherID string, fn func(pipe redis.Pipeliner) error) error {
	friends := cache.FriendsKey(userID)

	return r.watch(ctx, "with_friendship", func(ctx context.Context, tx *redis.Tx) error {
		// Re-check under WATCH so a concurrent unfriend aborts the EXEC.
		isFriend, err := tx.SIsMember(ctx, friends, otherID).Result()
		if err != nil {
			return err
		}
		if !isFriend {
			return models.ErrNotFriends
		}

		_, err = tx.TxPipelined(ctx, fn)
		return err
	}, friends)
}

func (r *friendRepository) HasPendingRequest(ctx context.Context, senderID, recipientID string) (bool, error) {
	var ok bool
	err := r.run(ctx, "has_pending_request", func(ctx context.Context) error {
		var err error
		ok, err = r.rdb.SIsMember(ctx, cache.IncomingRequestsKey(recipientID), senderID).Result()
		return err
	})
	return ok, err
}

func (r *friendRepository) Friends(ctx context.Context, userID string) ([]string, error) {
	return r.members(ctx, "friends", cache.FriendsKey(userID))
}

func (r *friendRepository) IncomingRequests(ctx context.Context, userID string) ([]string, error) {
	return r.members(ctx, "incoming_requests", cache.IncomingRequestsKey(userID))
}

func (r *friendRepository) OutgoingRequests(ctx context.Context, userID string) ([]string, error) {
	return r.members(ctx, "outgoing_requests", cache.OutgoingRequestsKey(userID))
}

// members returns the sorted members of a set; an absent key is empty.
func (r *friendRepository) members(ctx context.Context, op, key string) ([]string, error) {
	var ids []string
	err := r.run(ctx, op, func(ctx context.Context) error {
		var err error
		ids, err = r.rdb.SMembers(ctx, key).Result()
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
