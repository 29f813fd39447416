package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	// InboundTypeRequestIdentity starts the identity handshake. The
	// client may resupply a previously issued id to keep its profile.
	InboundTypeRequestIdentity = "request-identity"
	// InboundTypeMessageSend carries one chat utterance.
	InboundTypeMessageSend = "message-send"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventIdentityAssigned = "identity-assigned"
	EventPresenceJoined   = "presence-joined"
	EventPresenceCount    = "presence-count"
	EventMessageBroadcast = "message-broadcast"
	EventHistoryReplay    = "history-replay"
	EventPresenceLeft     = "presence-left"
)

// RequestIdentityData optionally resupplies a previously issued id.
type RequestIdentityData struct {
	ClientID string `json:"clientId,omitempty"`
}

// MessageSendData is a chat message from the client.
type MessageSendData struct {
	Text string `json:"text"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// IdentityAssignedData is emitted once per connection after the handshake.
type IdentityAssignedData struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"avatarRef"`
}

// BroadcastMessage is one fanned-out chat message. Sender fields are the
// snapshot taken when the server accepted the message.
type BroadcastMessage struct {
	IdentityID  string `json:"identityId"`
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"avatarRef"`
	Text        string `json:"text"`
	Timestamp   int64  `json:"timestamp"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
