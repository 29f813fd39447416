package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const userKeyPrefix = "chat:user:"

// Registry resolves and persists identities in the fast store.
// All mutations go through atomic Redis primitives so concurrent handlers
// can never produce two diverging records for the same id.
type Registry struct {
	rdb *redis.Client
	gen *Generator
	ttl time.Duration
	log *zerolog.Logger
	now func() time.Time
}

// NewRegistry builds a registry backed by the given Redis client.
func NewRegistry(rdb *redis.Client, gen *Generator, ttl time.Duration, logger *zerolog.Logger) *Registry {
	return &Registry{
		rdb: rdb,
		gen: gen,
		ttl: ttl,
		log: logger,
		now: time.Now,
	}
}

func userKey(id string) string {
	return userKeyPrefix + id
}

// ResolveOrCreate returns the identity for clientID when it names an
// existing, non-expired record (refreshing its activity and TTL), and
// otherwise mints a fresh identity. The second return value reports whether
// a new identity was created.
func (r *Registry) ResolveOrCreate(ctx context.Context, clientID string) (*Identity, bool, error) {
	if clientID != "" {
		ident, err := r.Get(ctx, clientID)
		switch {
		case err == nil:
			if err := r.Touch(ctx, ident.ID); err != nil {
				return nil, false, err
			}
			if now := r.now(); now.After(ident.LastActiveAt) {
				ident.LastActiveAt = now
			}
			return ident, false, nil
		case !errors.Is(err, ErrNotFound):
			return nil, false, err
		}
		// Expired or unknown id: fall through and mint a new one.
	}

	now := r.now()
	ident := &Identity{
		ID:           "user-" + uuid.NewString(),
		DisplayName:  r.gen.DisplayName(),
		AvatarRef:    r.gen.AvatarRef(),
		ConnectedAt:  now,
		LastActiveAt: now,
	}

	key := userKey(ident.ID)

	// Claim the id first. If another handler is creating the same id
	// concurrently, exactly one claim wins and everyone reads the winner.
	claimed, err := r.rdb.HSetNX(ctx, key, fieldID, ident.ID).Result()
	if err != nil {
		return nil, false, fmt.Errorf("claim identity: %w", err)
	}
	if !claimed {
		winner, err := r.Get(ctx, ident.ID)
		if err != nil {
			return nil, false, err
		}
		return winner, false, nil
	}

	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, ident.fields())
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		// Roll the claim back so the key is not stranded as a partial
		// record with no TTL.
		if delErr := r.rdb.Del(ctx, key).Err(); delErr != nil {
			r.log.Warn().Err(delErr).Str("identity_id", ident.ID).Msg("claim rollback failed")
		}
		return nil, false, fmt.Errorf("persist identity: %w", err)
	}

	r.log.Info().Str("identity_id", ident.ID).Str("display_name", ident.DisplayName).Msg("identity created")
	return ident, true, nil
}

// Get fetches an identity, returning ErrNotFound for missing or expired ids.
func (r *Registry) Get(ctx context.Context, id string) (*Identity, error) {
	fields, err := r.rdb.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch identity: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return identityFromFields(fields)
}

// touchScript updates activity and TTL only when the key still exists,
// so a touch racing the key's expiry can never recreate it as a partial
// hash without an id or TTL.
var touchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('EXPIRE', KEYS[1], ARGV[3])
return 1
`)

// Touch advances the identity's activity timestamp and refreshes its TTL.
// A touch on a missing identity only logs; the caller re-resolves on the
// next handshake.
func (r *Registry) Touch(ctx context.Context, id string) error {
	key := userKey(id)

	touched, err := touchScript.Run(ctx, r.rdb, []string{key},
		fieldLastActiveAt, r.now().Format(time.RFC3339Nano), int64(r.ttl.Seconds())).Int()
	if err != nil {
		return fmt.Errorf("touch identity: %w", err)
	}
	if touched == 0 {
		r.log.Debug().Str("identity_id", id).Msg("touch on missing identity")
	}
	return nil
}
