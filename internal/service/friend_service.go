package service

import (
	"context"
	"log/slog"

	"hearth/internal/models"
	"hearth/internal/observability"
	"hearth/internal/repository"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// FriendService provides friend-request and friendship business logic.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	publisher  EventPublisher
	presence   PresenceChecker
}

// NewFriendService returns a new FriendService. publisher and presence may be nil.
func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository, publisher EventPublisher, presence PresenceChecker) *FriendService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		publisher:  publisher,
		presence:   presence,
	}
}

func validatePair(userID, otherID string) error {
	if err := models.ValidateUserID(userID); err != nil {
		return err
	}
	return models.ValidateUserID(otherID)
}

// SendFriendRequest records a pending request from senderID to recipientID
// and notifies the recipient.
func (s *FriendService) SendFriendRequest(ctx context.Context, senderID, recipientID string) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FriendService", "SendFriendRequest")
	defer func() { observability.EndSpan(span, err) }()

	if err := validatePair(senderID, recipientID); err != nil {
		return err
	}
	if senderID == recipientID {
		return models.ErrSelfRequest
	}

	if err := s.friendRepo.CreateRequest(ctx, senderID, recipientID); err != nil {
		return err
	}
	observability.FriendshipTransitions.WithLabelValues("request_sent").Inc()

	payload := models.FriendRequestReceived{SenderID: senderID}
	if profile, perr := s.userRepo.GetProfile(ctx, senderID); perr != nil {
		observability.GlobalLogger.WarnContext(ctx, "sender profile unavailable for event",
			slog.String("sender_id", senderID), slog.String("error", perr.Error()))
	} else if profile != nil {
		summary := profile.Summary(senderID)
		payload.Sender = &summary
	}
	s.publisher.PublishUser(recipientID, models.Event{Type: models.EventFriendRequestReceived, Payload: payload})
	return nil
}

// AcceptFriendRequest turns the pending request from senderID into a
// friendship and notifies the sender.
func (s *FriendService) AcceptFriendRequest(ctx context.Context, recipientID, senderID string) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FriendService", "AcceptFriendRequest")
	defer func() { observability.EndSpan(span, err) }()

	if err := validatePair(recipientID, senderID); err != nil {
		return err
	}
	if recipientID == senderID {
		return models.ErrNoSuchRequest
	}

	if err := s.friendRepo.AcceptRequest(ctx, recipientID, senderID); err != nil {
		return err
	}
	observability.FriendshipTransitions.WithLabelValues("request_accepted").Inc()

	s.publisher.PublishUser(senderID, models.Event{
		Type:    models.EventFriendRequestAccepted,
		Payload: models.FriendRequestAccepted{RecipientID: recipientID},
	})
	return nil
}

// DenyFriendRequest discards the pending request from senderID. The sender is not notified.
func (s *FriendService) DenyFriendRequest(ctx context.Context, recipientID, senderID string) error {
	if err := validatePair(recipientID, senderID); err != nil {
		return err
	}
	if err := s.friendRepo.DeleteRequest(ctx, senderID, recipientID); err != nil {
		return err
	}
	observability.FriendshipTransitions.WithLabelValues("request_denied").Inc()
	return nil
}

// CancelFriendRequest withdraws a request senderID sent to recipientID.
func (s *FriendService) CancelFriendRequest(ctx context.Context, senderID, recipientID string) error {
	if err := validatePair(senderID, recipientID); err != nil {
		return err
	}
	if err := s.friendRepo.DeleteRequest(ctx, senderID, recipientID); err != nil {
		return err
	}
	observability.FriendshipTransitions.WithLabelValues("request_cancelled").Inc()
	return nil
}

// RemoveFriend deletes the friendship on both sides and notifies the former friend.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	if err := validatePair(userID, friendID); err != nil {
		return err
	}
	if err := s.friendRepo.RemoveFriendship(ctx, userID, friendID); err != nil {
		return err
	}
	observability.FriendshipTransitions.WithLabelValues("friend_removed").Inc()

	s.publisher.PublishUser(friendID, models.Event{
		Type:    models.EventFriendRemoved,
		Payload: models.FriendRemoved{UserID: userID},
	})
	return nil
}

// AreFriends reports whether a and b are friends. A store failure is returned,
// never read as false.
func (s *FriendService) AreFriends(ctx context.Context, a, b string) (bool, error) {
	if a == b {
		return false, nil
	}
	return s.friendRepo.IsFriend(ctx, a, b)
}

// FriendshipGuard returns a repository.Guard that commits only while a and b
// are friends.
func (s *FriendService) FriendshipGuard(a, b string) repository.Guard {
	return func(ctx context.Context, fn func(pipe redis.Pipeliner) error) error {
		if a == b {
			return models.ErrNotFriends
		}
		return s.friendRepo.WithFriendship(ctx, a, b, fn)
	}
}

// ListIncomingRequests returns the ids of users with a pending request to userID.
func (s *FriendService) ListIncomingRequests(ctx context.Context, userID string) ([]string, error) {
	return s.friendRepo.IncomingRequests(ctx, userID)
}

// ListOutgoingRequests returns the ids userID has pending requests to.
func (s *FriendService) ListOutgoingRequests(ctx context.Context, userID string) ([]string, error) {
	return s.friendRepo.OutgoingRequests(ctx, userID)
}

// ListFriends returns the ids of userID's friends.
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]string, error) {
	return s.friendRepo.Friends(ctx, userID)
}

// IncomingRequestsWithProfiles joins each pending sender with their profile.
// Senders without a stored profile keep their id and empty fields.
func (s *FriendService) IncomingRequestsWithProfiles(ctx context.Context, userID string) ([]models.IncomingFriendRequest, error) {
	ids, err := s.friendRepo.IncomingRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	profiles, err := s.userRepo.GetProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	requests := make([]models.IncomingFriendRequest, 0, len(ids))
	for _, id := range ids {
		req := models.IncomingFriendRequest{SenderID: id}
		if p, ok := profiles[id]; ok {
			req.SenderEmail = p.Email
			req.SenderName = p.Name
			req.SenderImage = p.Image
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// FriendsWithProfiles returns userID's friends with profile summaries and
// an online flag when presence is configured.
func (s *FriendService) FriendsWithProfiles(ctx context.Context, userID string) ([]models.Friend, error) {
	ids, err := s.friendRepo.Friends(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		profiles map[string]*models.User
		online   map[string]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profiles, err = s.userRepo.GetProfiles(gctx, ids)
		return err
	})
	if s.presence != nil {
		g.Go(func() error {
			var err error
			online, err = s.presence.OnlineUsers(gctx, ids)
			if err != nil {
				// Presence only decorates the list.
				observability.GlobalLogger.WarnContext(gctx, "presence lookup failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	friends := make([]models.Friend, 0, len(ids))
	for _, id := range ids {
		friends = append(friends, models.Friend{
			UserSummary: profiles[id].Summary(id),
			Online:      online[id],
		})
	}
	return friends, nil
}

// GetFriendshipStatus describes the relation between userID and otherID from userID's side.
func (s *FriendService) GetFriendshipStatus(ctx context.Context, userID, otherID string) (models.FriendshipStatus, error) {
	if err := validatePair(userID, otherID); err != nil {
		return "", err
	}
	if userID == otherID {
		return "", models.NewValidationError("Cannot query friendship status with yourself")
	}

	friends, err := s.friendRepo.IsFriend(ctx, userID, otherID)
	if err != nil {
		return "", err
	}
	if friends {
		return models.FriendshipStatusFriends, nil
	}
	sent, err := s.friendRepo.HasPendingRequest(ctx, userID, otherID)
	if err != nil {
		return "", err
	}
	if sent {
		return models.FriendshipStatusPendingSent, nil
	}
	received, err := s.friendRepo.HasPendingRequest(ctx, otherID, userID)
	if err != nil {
		return "", err
	}
	if received {
		return models.FriendshipStatusPendingReceived, nil
	}
	return models.FriendshipStatusNone, nil
}
