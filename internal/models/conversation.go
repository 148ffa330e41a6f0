package models

import "strings"

// ConversationSeparator joins the two participant ids of a ConversationID.
const ConversationSeparator = "--"

// ConversationID is the canonical key of the message log shared by two users.
// It is the two ids in ascending byte order joined by ConversationSeparator.
type ConversationID string

// ValidateUserID rejects ids that would make conversation ids ambiguous.
func ValidateUserID(id string) error {
	if id == "" || strings.TrimSpace(id) != id || strings.Contains(id, ConversationSeparator) {
		return ErrInvalidUserID
	}
	if strings.HasPrefix(id, "-") || strings.HasSuffix(id, "-") {
		return ErrInvalidUserID
	}
	return nil
}

// NewConversationID derives the conversation id for the unordered pair {a, b}.
// NewConversationID(a, b) == NewConversationID(b, a) for every valid pair.
func NewConversationID(a, b string) (ConversationID, error) {
	if err := ValidateUserID(a); err != nil {
		return "", err
	}
	if err := ValidateUserID(b); err != nil {
		return "", err
	}
	if a == b {
		return "", ErrSelfConversation
	}
	if b < a {
		a, b = b, a
	}
	return ConversationID(a + ConversationSeparator + b), nil
}

// ParseConversationID checks that raw is a canonical conversation id.
func ParseConversationID(raw string) (ConversationID, error) {
	a, b, ok := strings.Cut(raw, ConversationSeparator)
	if !ok {
		return "", ErrInvalidChatID
	}
	id, err := NewConversationID(a, b)
	if err != nil || string(id) != raw {
		return "", ErrInvalidChatID
	}
	return id, nil
}

// Participants returns both user ids in canonical order.
func (c ConversationID) Participants() (string, string) {
	a, b, _ := strings.Cut(string(c), ConversationSeparator)
	return a, b
}

// Includes reports whether userID is one of the two participants.
func (c ConversationID) Includes(userID string) bool {
	a, b := c.Participants()
	return userID != "" && (userID == a || userID == b)
}

// Other returns the participant that is not userID. ok is false when
// userID does not take part in the conversation.
func (c ConversationID) Other(userID string) (string, bool) {
	a, b := c.Participants()
	switch userID {
	case a:
		return b, true
	case b:
		return a, true
	}
	return "", false
}

func (c ConversationID) String() string {
	return string(c)
}
