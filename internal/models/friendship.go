package models

// FriendshipStatus describes how two users relate, seen from one of them.
type FriendshipStatus string

const (
	// FriendshipStatusNone means no edge and no pending request in either direction.
	FriendshipStatusNone FriendshipStatus = "none"
	// FriendshipStatusFriends means a symmetric friend edge exists.
	FriendshipStatusFriends FriendshipStatus = "friends"
	// FriendshipStatusPendingSent means the viewer sent a request that is still pending.
	FriendshipStatusPendingSent FriendshipStatus = "pending_sent"
	// FriendshipStatusPendingReceived means the other user sent the viewer a pending request.
	FriendshipStatusPendingReceived FriendshipStatus = "pending_received"
)

// FriendRequest is a directional pending relation awaiting accept or deny.
type FriendRequest struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
}

// IncomingFriendRequest is a pending request joined with the sender's profile.
type IncomingFriendRequest struct {
	SenderID    string `json:"senderId"`
	SenderEmail string `json:"senderEmail"`
	SenderName  string `json:"senderName,omitempty"`
	SenderImage string `json:"senderImage,omitempty"`
}

// Friend is a friend listing entry.
type Friend struct {
	UserSummary
	Online bool `json:"online"`
}
