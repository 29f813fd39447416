package core

import (
	"sync"

	"github.com/pokechat/pokechat-server/internal/identity"
)

// SessionState tracks where a connection is in its lifecycle.
type SessionState int

const (
	// StateConnecting is the initial state, before the identity handshake.
	StateConnecting SessionState = iota
	// StateActive means the session is identified, registered and joined.
	StateActive
	// StateDisconnected is terminal.
	StateDisconnected
)

// Client is one live session as seen by the core layer. It is bound to
// exactly one identity for its lifetime; the binding happens atomically
// during the Connecting->Active transition.
type Client struct {
	// SessionRef uniquely identifies this connection.
	SessionRef string

	// Events carries outbound events to the transport's write loop.
	Events chan *Event

	mu       sync.Mutex
	state    SessionState
	identity *identity.Identity

	disconnectOnce sync.Once
}

// NewClient constructs a client in the Connecting state.
func NewClient(sessionRef string) *Client {
	return &Client{
		SessionRef: sessionRef,
		Events:     make(chan *Event, 16),
	}
}

// State returns the current session state.
func (c *Client) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the bound identity, or nil before identification.
func (c *Client) Identity() *identity.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// activate binds the identity and moves the session to Active.
// Returns false if the session is not in Connecting (double handshake or
// already disconnected).
func (c *Client) activate(ident *identity.Identity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnecting {
		return false
	}
	c.identity = ident
	c.state = StateActive
	return true
}

// terminate moves the session to Disconnected and reports the identity it
// was bound to, if any. The sync.Once wrapper lives in Hub.Disconnect.
func (c *Client) terminate() *identity.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	ident := c.identity
	c.state = StateDisconnected
	return ident
}

// Send delivers an event without ever blocking the caller. Slow consumers
// lose events rather than stalling the fan-out.
func (c *Client) Send(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
