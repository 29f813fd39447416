package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered account for the optional login variant.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Message is a persisted chat message. Sender profile fields are a
// snapshot taken at send time so history renders correctly even if the
// sender's profile later changes or expires.
type Message struct {
	ID          int64
	IdentityID  string
	DisplayName string
	AvatarRef   string
	Text        string
	Timestamp   time.Time
}

// UserStore handles account persistence for the login variant.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// MessageStore is the durable, append-only message archive.
// Persisted messages are never updated or deleted by this core.
type MessageStore interface {
	// SaveMessage appends a message to the archive and fills in its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// RecentMessages returns the newest limit messages, oldest-first.
	RecentMessages(ctx context.Context, limit int) ([]*Message, error)

	// MessagesBetween returns messages with from <= timestamp < to,
	// ascending by timestamp.
	MessagesBetween(ctx context.Context, from, to time.Time) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
