package models

// Message is one immutable entry in a conversation log.
type Message struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	// Seq is assigned by the store and breaks timestamp ties in insertion order.
	Seq uint64 `json:"seq"`
}

// Before reports whether m sorts ahead of other in a conversation log.
func (m Message) Before(other Message) bool {
	if m.Timestamp != other.Timestamp {
		return m.Timestamp < other.Timestamp
	}
	return m.Seq < other.Seq
}
