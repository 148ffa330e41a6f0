package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"hearth/internal/cache"
	"hearth/internal/models"
	"hearth/internal/observability"

	"github.com/redis/go-redis/v9"
)

// ChatRepository defines the interface for conversation log operations.
type ChatRepository interface {
	// AppendMessage assigns msg.Seq and adds it to the conversation log. When
	// guard is non-nil the write commits only if the guard admits it.
	AppendMessage(ctx context.Context, conversationID models.ConversationID, msg *models.Message, guard Guard) error
	// GetMessages returns the log ordered by timestamp then Seq. A positive
	// limit returns only the newest limit messages, still oldest first.
	GetMessages(ctx context.Context, conversationID models.ConversationID, limit int) ([]models.Message, error)
}

// chatRepository stores each conversation as a sorted set scored by timestamp.
type chatRepository struct {
	store
}

// NewChatRepository creates a new chat repository
func NewChatRepository(rdb *redis.Client, opts StoreOptions) ChatRepository {
	return &chatRepository{store: newStore(rdb, "chat", opts)}
}

// seqWidth is the hex width of the member prefix. Fixed width keeps the
// lexical order of members equal to insertion order for equal scores.
const seqWidth = 16

func encodeMember(msg *models.Message) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*x:%s", seqWidth, msg.Seq, data), nil
}

func decodeMember(member string) (models.Message, error) {
	var msg models.Message
	if len(member) <= seqWidth || member[seqWidth] != ':' {
		return msg, fmt.Errorf("malformed message member %q", member)
	}
	seq, err := strconv.ParseUint(member[:seqWidth], 16, 64)
	if err != nil {
		return msg, fmt.Errorf("malformed message sequence: %w", err)
	}
	if err := json.Unmarshal([]byte(member[seqWidth+1:]), &msg); err != nil {
		return msg, fmt.Errorf("malformed message body: %w", err)
	}
	msg.Seq = seq
	return msg, nil
}

func (r *chatRepository) AppendMessage(ctx context.Context, conversationID models.ConversationID, msg *models.Message, guard Guard) error {
	id := conversationID.String()
	if guard == nil {
		guard = func(ctx context.Context, fn func(pipe redis.Pipeliner) error) error {
			_, err := r.rdb.TxPipelined(ctx, fn)
			return err
		}
	}

	err := r.run(ctx, "append_message", func(ctx context.Context) error {
		// Reserve the sequence first. A rejected append leaves a gap, which
		// readers never see.
		seq, err := r.rdb.Incr(ctx, cache.MessageSeqKey(id)).Result()
		if err != nil {
			return err
		}
		msg.Seq = uint64(seq)

		member, err := encodeMember(msg)
		if err != nil {
			return models.NewInternalError(err)
		}
		return guard(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZAdd(ctx, cache.MessagesKey(id), redis.Z{
				Score:  float64(msg.Timestamp),
				Member: member,
			})
			return nil
		})
	})
	if err != nil {
		msg.Seq = 0
		return err
	}
	observability.MessagesAppended.Inc()
	r.log.LogWrite(ctx, "append_message", map[string]any{"conversation_id": id, "seq": msg.Seq})
	return nil
}

func (r *chatRepository) GetMessages(ctx context.Context, conversationID models.ConversationID, limit int) ([]models.Message, error) {
	id := conversationID.String()
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}

	var members []string
	err := r.run(ctx, "get_messages", func(ctx context.Context) error {
		var err error
		members, err = r.rdb.ZRange(ctx, cache.MessagesKey(id), start, -1).Result()
		return err
	})
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(members))
	for _, member := range members {
		msg, err := decodeMember(member)
		if err != nil {
			r.log.LogError(ctx, err, "get_messages")
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
