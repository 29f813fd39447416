package identity

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when an identity is missing or expired.
var ErrNotFound = errors.New("identity not found")

// Identity is a persisted user profile, independent of any single connection.
// The id is immutable once assigned; LastActiveAt never moves backwards.
type Identity struct {
	ID           string
	DisplayName  string
	AvatarRef    string
	ConnectedAt  time.Time
	LastActiveAt time.Time
}

// Hash field names used in the fast store.
const (
	fieldID           = "id"
	fieldDisplayName  = "display_name"
	fieldAvatarRef    = "avatar_ref"
	fieldConnectedAt  = "connected_at"
	fieldLastActiveAt = "last_active_at"
)

func (i *Identity) fields() map[string]any {
	return map[string]any{
		fieldID:           i.ID,
		fieldDisplayName:  i.DisplayName,
		fieldAvatarRef:    i.AvatarRef,
		fieldConnectedAt:  i.ConnectedAt.Format(time.RFC3339Nano),
		fieldLastActiveAt: i.LastActiveAt.Format(time.RFC3339Nano),
	}
}

// identityFromFields rebuilds an identity from its hash fields. A record
// missing its id or holding unparsable timestamps is reported as absent,
// not as an error, so callers re-mint instead of failing permanently on
// a corrupted key.
func identityFromFields(fields map[string]string) (*Identity, error) {
	id := fields[fieldID]
	if id == "" {
		return nil, ErrNotFound
	}

	connectedAt, err := time.Parse(time.RFC3339Nano, fields[fieldConnectedAt])
	if err != nil {
		return nil, fmt.Errorf("%w: bad connected_at", ErrNotFound)
	}
	lastActiveAt, err := time.Parse(time.RFC3339Nano, fields[fieldLastActiveAt])
	if err != nil {
		return nil, fmt.Errorf("%w: bad last_active_at", ErrNotFound)
	}

	return &Identity{
		ID:           id,
		DisplayName:  fields[fieldDisplayName],
		AvatarRef:    fields[fieldAvatarRef],
		ConnectedAt:  connectedAt,
		LastActiveAt: lastActiveAt,
	}, nil
}
