// Package history keeps the bounded recent-message ring in the fast store.
//
// This is a replay buffer with strict FIFO eviction, not an LRU cache:
// every push trims the list back to capacity, and reads never affect
// retention.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pokechat/pokechat-server/internal/store"
)

const ringKey = "chat:recent_messages"

// record is the JSON shape stored in the list.
type record struct {
	ID          int64     `json:"id"`
	IdentityID  string    `json:"identityId"`
	DisplayName string    `json:"displayName"`
	AvatarRef   string    `json:"avatarRef"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

// Ring is the bounded most-recent-message buffer.
type Ring struct {
	rdb *redis.Client
	cap int
}

// NewRing builds a ring with the given capacity.
func NewRing(rdb *redis.Client, capacity int) *Ring {
	return &Ring{rdb: rdb, cap: capacity}
}

// Cap returns the ring's fixed capacity.
func (r *Ring) Cap() int {
	return r.cap
}

// Push inserts a message at the head and trims the tail to capacity.
func (r *Ring) Push(ctx context.Context, msg *store.Message) error {
	data, err := json.Marshal(record{
		ID:          msg.ID,
		IdentityID:  msg.IdentityID,
		DisplayName: msg.DisplayName,
		AvatarRef:   msg.AvatarRef,
		Text:        msg.Text,
		Timestamp:   msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.LPush(ctx, ringKey, data)
	pipe.LTrim(ctx, ringKey, 0, int64(r.cap-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push message: %w", err)
	}
	return nil
}

// Recent returns up to limit messages in chronological (oldest-first)
// order. Storage is newest-first, so the slice is reversed before return.
func (r *Ring) Recent(ctx context.Context, limit int) ([]*store.Message, error) {
	if limit <= 0 || limit > r.cap {
		limit = r.cap
	}

	raw, err := r.rdb.LRange(ctx, ringKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent messages: %w", err)
	}

	messages := make([]*store.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var rec record
		if err := json.Unmarshal([]byte(raw[i]), &rec); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		messages = append(messages, &store.Message{
			ID:          rec.ID,
			IdentityID:  rec.IdentityID,
			DisplayName: rec.DisplayName,
			AvatarRef:   rec.AvatarRef,
			Text:        rec.Text,
			Timestamp:   rec.Timestamp,
		})
	}

	return messages, nil
}
