package core

import (
	"github.com/pokechat/pokechat-server/internal/identity"
	"github.com/pokechat/pokechat-server/internal/store"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventIdentityAssigned delivers the resolved identity to one client,
	// exactly once per connection.
	EventIdentityAssigned EventKind = iota
	// EventPresenceJoined is the system notice sent to everyone else when
	// a session joins.
	EventPresenceJoined
	// EventPresenceCount carries the live online count to all sessions.
	EventPresenceCount
	// EventMessageBroadcast fans an accepted message out to all sessions,
	// sender included.
	EventMessageBroadcast
	// EventHistoryReplay delivers the recent-message buffer to a client
	// upon joining.
	EventHistoryReplay
	// EventPresenceLeft is the system notice sent to the remaining
	// sessions when one disconnects.
	EventPresenceLeft
	// EventError notifies one client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Identity *identity.Identity // EventIdentityAssigned
	Notice   string             // EventPresenceJoined, EventPresenceLeft
	Count    int64              // EventPresenceCount
	Message  *store.Message     // EventMessageBroadcast
	Messages []*store.Message   // EventHistoryReplay
	Error    *CoreError         // EventError
}
