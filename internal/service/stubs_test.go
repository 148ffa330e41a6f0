package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"hearth/internal/models"
	"hearth/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type friendRepoStub struct {
	createRequestFn     func(context.Context, string, string) error
	acceptRequestFn     func(context.Context, string, string) error
	deleteRequestFn     func(context.Context, string, string) error
	removeFriendshipFn  func(context.Context, string, string) error
	isFriendFn          func(context.Context, string, string) (bool, error)
	hasPendingRequestFn func(context.Context, string, string) (bool, error)
	friendsFn           func(context.Context, string) ([]string, error)
	incomingRequestsFn  func(context.Context, string) ([]string, error)
	outgoingRequestsFn  func(context.Context, string) ([]string, error)
	withFriendshipFn    func(context.Context, string, string, func(redis.Pipeliner) error) error
}

func (s *friendRepoStub) CreateRequest(ctx context.Context, senderID, recipientID string) error {
	return s.createRequestFn(ctx, senderID, recipientID)
}
func (s *friendRepoStub) AcceptRequest(ctx context.Context, recipientID, senderID string) error {
	return s.acceptRequestFn(ctx, recipientID, senderID)
}
func (s *friendRepoStub) DeleteRequest(ctx context.Context, senderID, recipientID string) error {
	return s.deleteRequestFn(ctx, senderID, recipientID)
}
func (s *friendRepoStub) RemoveFriendship(ctx context.Context, userID, friendID string) error {
	return s.removeFriendshipFn(ctx, userID, friendID)
}
func (s *friendRepoStub) IsFriend(ctx context.Context, userID, otherID string) (bool, error) {
	return s.isFriendFn(ctx, userID, otherID)
}
func (s *friendRepoStub) HasPendingRequest(ctx context.Context, senderID, recipientID string) (bool, error) {
	return s.hasPendingRequestFn(ctx, senderID, recipientID)
}
func (s *friendRepoStub) Friends(ctx context.Context, userID string) ([]string, error) {
	return s.friendsFn(ctx, userID)
}
func (s *friendRepoStub) IncomingRequests(ctx context.Context, userID string) ([]string, error) {
	return s.incomingRequestsFn(ctx, userID)
}
func (s *friendRepoStub) OutgoingRequests(ctx context.Context, userID string) ([]string, error) {
	return s.outgoingRequestsFn(ctx, userID)
}

func (s *friendRepoStub) WithFriendship(ctx context.Context, userID, otherID string, fn func(redis.Pipeliner) error) error {
	return s.withFriendshipFn(ctx, userID, otherID, fn)
}

type userRepoStub struct {
	getProfileFn  func(context.Context, string) (*models.User, error)
	getProfilesFn func(context.Context, []string) (map[string]*models.User, error)
	saveFn        func(context.Context, *models.User) error
}

func (s *userRepoStub) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.getProfileFn(ctx, userID)
}
func (s *userRepoStub) GetProfiles(ctx context.Context, userIDs []string) (map[string]*models.User, error) {
	return s.getProfilesFn(ctx, userIDs)
}
func (s *userRepoStub) Save(ctx context.Context, user *models.User) error {
	return s.saveFn(ctx, user)
}

type presenceStub struct {
	onlineUsersFn func(context.Context, []string) (map[string]bool, error)
}

func (s *presenceStub) OnlineUsers(ctx context.Context, userIDs []string) (map[string]bool, error) {
	return s.onlineUsersFn(ctx, userIDs)
}

type publishedEvent struct {
	userID string
	event  models.Event
}

// recordingPublisher captures published events in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishUser(userID string, event models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{userID: userID, event: event})
}

func (p *recordingPublisher) For(userID string) []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.Event
	for _, e := range p.events {
		if e.userID == userID {
			out = append(out, e.event)
		}
	}
	return out
}

type testEngine struct {
	mr        *miniredis.Miniredis
	rdb       *redis.Client
	friends   *FriendService
	chat      *ChatService
	publisher *recordingPublisher
}

func newTestEngine(t *testing.T, opts ...ChatOption) *testEngine {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	storeOpts := repository.StoreOptions{Timeout: time.Second}
	pub := &recordingPublisher{}
	friends := NewFriendService(
		repository.NewFriendRepository(rdb, storeOpts),
		repository.NewUserRepository(rdb, storeOpts),
		pub, nil,
	)
	chat := NewChatService(repository.NewChatRepository(rdb, storeOpts), friends, pub, opts...)
	return &testEngine{mr: mr, rdb: rdb, friends: friends, chat: chat, publisher: pub}
}

func (e *testEngine) befriend(t *testing.T, a, b string) {
	t.Helper()
	ctx := context.Background()
	if err := e.friends.SendFriendRequest(ctx, a, b); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := e.friends.AcceptFriendRequest(ctx, b, a); err != nil {
		t.Fatalf("accept request: %v", err)
	}
}
