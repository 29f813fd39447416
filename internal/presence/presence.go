// Package presence tracks the set of live sessions in the fast store.
//
// The online count is always derived from the membership set itself
// (SCARD), never from a separately maintained counter, so concurrent
// connects, disconnects and crashed handlers cannot make it drift.
package presence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const onlineKey = "chat:online"

// Tracker maintains the authoritative live-session set.
type Tracker struct {
	rdb *redis.Client
}

// NewTracker builds a tracker backed by the given Redis client.
func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb}
}

// Register adds a session to the live set. Idempotent per session ref.
func (t *Tracker) Register(ctx context.Context, sessionRef string) error {
	if err := t.rdb.SAdd(ctx, onlineKey, sessionRef).Err(); err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	return nil
}

// Deregister removes a session from the live set. No-op when absent.
func (t *Tracker) Deregister(ctx context.Context, sessionRef string) error {
	if err := t.rdb.SRem(ctx, onlineKey, sessionRef).Err(); err != nil {
		return fmt.Errorf("deregister session: %w", err)
	}
	return nil
}

// Count returns the number of currently registered sessions.
func (t *Tracker) Count(ctx context.Context) (int64, error) {
	n, err := t.rdb.SCard(ctx, onlineKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// Reset clears the live set. Called at boot so the count never inherits
// sessions from a previous process run.
func (t *Tracker) Reset(ctx context.Context) error {
	if err := t.rdb.Del(ctx, onlineKey).Err(); err != nil {
		return fmt.Errorf("reset presence: %w", err)
	}
	return nil
}
