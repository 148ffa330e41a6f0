package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"hearth/internal/models"
	"hearth/internal/observability"
	"hearth/internal/repository"

	"github.com/google/uuid"
)

// DefaultMaxMessageLength bounds message text in runes.
const DefaultMaxMessageLength = 2000

// ChatService provides the one-to-one conversation log.
type ChatService struct {
	chatRepo  repository.ChatRepository
	friends   *FriendService
	publisher EventPublisher

	maxLength int
	now       func() time.Time
}

// ChatOption customizes a ChatService.
type ChatOption func(*ChatService)

// WithMaxMessageLength overrides DefaultMaxMessageLength.
func WithMaxMessageLength(n int) ChatOption {
	return func(s *ChatService) {
		if n > 0 {
			s.maxLength = n
		}
	}
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) ChatOption {
	return func(s *ChatService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewChatService returns a new ChatService. publisher may be nil.
func NewChatService(chatRepo repository.ChatRepository, friends *FriendService, publisher EventPublisher, opts ...ChatOption) *ChatService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	s := &ChatService{
		chatRepo:  chatRepo,
		friends:   friends,
		publisher: publisher,
		maxLength: DefaultMaxMessageLength,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendMessageInput is the request to append one message.
type SendMessageInput struct {
	ConversationID models.ConversationID
	SenderID       string
	Text           string
}

// ConversationWith returns the conversation id shared by userID and otherID.
func (s *ChatService) ConversationWith(userID, otherID string) (models.ConversationID, error) {
	return models.NewConversationID(userID, otherID)
}

// authorize resolves the peer of requester in conversationID and requires a
// live friendship between them.
func (s *ChatService) authorize(ctx context.Context, conversationID models.ConversationID, requester string) (models.ConversationID, string, error) {
	id, err := models.ParseConversationID(conversationID.String())
	if err != nil {
		return "", "", err
	}
	peer, ok := id.Other(requester)
	if !ok {
		return "", "", models.ErrNotParticipant
	}
	friends, err := s.friends.AreFriends(ctx, requester, peer)
	if err != nil {
		return "", "", err
	}
	if !friends {
		return "", "", models.ErrNotFriends
	}
	return id, peer, nil
}

// SendMessage appends a message and notifies the other participant. The
// sender never receives its own message as an event.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (msg *models.Message, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "ChatService", "SendMessage")
	defer func() { observability.EndSpan(span, err) }()

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > s.maxLength {
		return nil, models.ErrMessageTooLong
	}

	id, peer, err := s.authorize(ctx, in.ConversationID, in.SenderID)
	if err != nil {
		return nil, err
	}

	msgID, err := uuid.NewV7()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	msg = &models.Message{
		ID:        msgID.String(),
		SenderID:  in.SenderID,
		Text:      text,
		Timestamp: s.now().UnixMilli(),
	}
	// The friendship is checked again at commit so an unfriend racing this
	// call either lands first and rejects the message or lands after it.
	if err := s.chatRepo.AppendMessage(ctx, id, msg, s.friends.FriendshipGuard(in.SenderID, peer)); err != nil {
		return nil, err
	}

	s.publisher.PublishUser(peer, models.Event{
		Type:    models.EventNewMessage,
		Payload: models.NewMessage{ConversationID: id, Message: *msg},
	})
	return msg, nil
}

// GetHistory returns the whole conversation oldest first.
func (s *ChatService) GetHistory(ctx context.Context, conversationID models.ConversationID, requester string) ([]models.Message, error) {
	return s.GetRecentMessages(ctx, conversationID, requester, 0)
}

// GetRecentMessages returns the newest limit messages oldest first; a
// non-positive limit returns the whole conversation.
func (s *ChatService) GetRecentMessages(ctx context.Context, conversationID models.ConversationID, requester string, limit int) ([]models.Message, error) {
	id, _, err := s.authorize(ctx, conversationID, requester)
	if err != nil {
		return nil, err
	}
	return s.chatRepo.GetMessages(ctx, id, limit)
}
