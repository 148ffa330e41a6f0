// Package seed provides helpers to create demo data in the store. These
// helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"

	"hearth/internal/models"
	"hearth/internal/repository"
	"hearth/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory builds domain entities and persists them through the services, so
// seeded data obeys the same rules as live traffic.
type Factory struct {
	users   repository.UserRepository
	friends *service.FriendService
	chat    *service.ChatService
	faker   *gofakeit.Faker
	nextID  int
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(users repository.UserRepository, friends *service.FriendService, chat *service.ChatService, seed int64) *Factory {
	return &Factory{
		users:   users,
		friends: friends,
		chat:    chat,
		faker:   gofakeit.New(seed),
		nextID:  1,
	}
}

// BuildUser constructs a user with a unique, valid id but does not persist it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first := f.faker.FirstName()
	last := f.faker.LastName()
	id := fmt.Sprintf("%s.%s%d", slug(first), slug(last), f.nextID)
	f.nextID++

	user := &models.User{
		ID:    id,
		Name:  first + " " + last,
		Email: id + "@example.com",
		Image: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", id),
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and stores a user profile.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if err := f.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user %s: %w", user.ID, err)
	}
	return user, nil
}

// CreateFriendship makes a and b friends through a request and its acceptance.
func (f *Factory) CreateFriendship(ctx context.Context, a, b *models.User) error {
	if err := f.friends.SendFriendRequest(ctx, a.ID, b.ID); err != nil {
		return err
	}
	return f.friends.AcceptFriendRequest(ctx, b.ID, a.ID)
}

// CreatePendingRequest leaves a request from sender to recipient open.
func (f *Factory) CreatePendingRequest(ctx context.Context, sender, recipient *models.User) error {
	return f.friends.SendFriendRequest(ctx, sender.ID, recipient.ID)
}

// CreateConversation appends count alternating messages between two friends.
func (f *Factory) CreateConversation(ctx context.Context, a, b *models.User, count int) ([]*models.Message, error) {
	id, err := f.chat.ConversationWith(a.ID, b.ID)
	if err != nil {
		return nil, err
	}

	messages := make([]*models.Message, 0, count)
	for i := 0; i < count; i++ {
		sender := a
		if i%2 == 1 {
			sender = b
		}
		msg, err := f.chat.SendMessage(ctx, service.SendMessageInput{
			ConversationID: id,
			SenderID:       sender.ID,
			Text:           f.faker.Sentence(f.faker.Number(3, 12)),
		})
		if err != nil {
			return messages, fmt.Errorf("send message in %s: %w", id, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// slug keeps the ASCII letters of name, lowercased.
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
