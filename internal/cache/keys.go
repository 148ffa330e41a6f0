package cache

import "fmt"

const (
	UserKeyPrefix            = "user:%s"
	IncomingRequestsKeyFmt   = "user:%s:incoming_friend_requests"
	OutgoingRequestsKeyFmt   = "user:%s:outgoing_friend_requests"
	FriendsKeyFmt            = "user:%s:friends"
	MessagesKeyFmt           = "chat:%s:messages"
	MessageSeqKeyFmt         = "chat:%s:seq"
	UserEventsChannelFmt     = "user:%s:events"
	UserEventsChannelPattern = "user:*:events"
	PresenceOnlineKey        = "presence:online"
	PresenceLastSeenKeyFmt   = "presence:last_seen:%s"
	WSTicketKeyFmt           = "ws_ticket:%s"
)

// UserKey holds the JSON profile of a user.
func UserKey(userID string) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// IncomingRequestsKey is the set of user ids with a pending request to userID.
func IncomingRequestsKey(userID string) string {
	return fmt.Sprintf(IncomingRequestsKeyFmt, userID)
}

// OutgoingRequestsKey is the set of user ids userID has a pending request to.
func OutgoingRequestsKey(userID string) string {
	return fmt.Sprintf(OutgoingRequestsKeyFmt, userID)
}

func FriendsKey(userID string) string {
	return fmt.Sprintf(FriendsKeyFmt, userID)
}

// MessagesKey is the sorted set holding a conversation's log.
func MessagesKey(conversationID string) string {
	return fmt.Sprintf(MessagesKeyFmt, conversationID)
}

// MessageSeqKey is the per-conversation insertion counter.
func MessageSeqKey(conversationID string) string {
	return fmt.Sprintf(MessageSeqKeyFmt, conversationID)
}

func UserEventsChannel(userID string) string {
	return fmt.Sprintf(UserEventsChannelFmt, userID)
}

// UserIDFromEventsChannel extracts the user id from a "user:{id}:events" channel.
func UserIDFromEventsChannel(channel string) (string, bool) {
	const prefix, suffix = "user:", ":events"
	if len(channel) <= len(prefix)+len(suffix) ||
		channel[:len(prefix)] != prefix ||
		channel[len(channel)-len(suffix):] != suffix {
		return "", false
	}
	return channel[len(prefix) : len(channel)-len(suffix)], true
}

func PresenceLastSeenKey(userID string) string {
	return fmt.Sprintf(PresenceLastSeenKeyFmt, userID)
}

// WSTicketKey holds the user a single-use websocket ticket was issued to.
func WSTicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketKeyFmt, ticket)
}
