package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pokechat/pokechat-server/internal/history"
	"github.com/pokechat/pokechat-server/internal/identity"
	"github.com/pokechat/pokechat-server/internal/presence"
	"github.com/pokechat/pokechat-server/internal/store"
)

// disconnectTimeout bounds the store calls made during teardown, which
// runs after the connection's own context is already canceled.
const disconnectTimeout = 5 * time.Second

// Hub orchestrates the per-connection lifecycle: identity handshake,
// presence registration, history replay, message ingestion and fan-out.
// Its methods are called concurrently from many connection goroutines;
// all shared state lives in the fast store or behind the Group's lock.
type Hub struct {
	registry *identity.Registry
	presence *presence.Tracker
	ring     *history.Ring
	archive  store.MessageStore
	group    *Group
	log      *zerolog.Logger
	now      func() time.Time
}

// NewHub wires the hub to its collaborators.
func NewHub(registry *identity.Registry, tracker *presence.Tracker, ring *history.Ring, archive store.MessageStore, logger *zerolog.Logger) *Hub {
	return &Hub{
		registry: registry,
		presence: tracker,
		ring:     ring,
		archive:  archive,
		group:    NewGroup(),
		log:      logger,
		now:      time.Now,
	}
}

// Connect runs the Connecting -> Active transition for a session: resolve
// or create the identity, register presence, announce the join to the
// other sessions, and replay recent history to this one.
//
// A transient store failure leaves the session in Connecting and returns
// a *CoreError; the client may retry by resending its handshake. A
// successful transition happens at most once per connection.
func (h *Hub) Connect(ctx context.Context, c *Client, clientID string) error {
	if c.State() != StateConnecting {
		return coreError(ErrCodeBadRequest, "already identified")
	}

	ident, created, err := h.registry.ResolveOrCreate(ctx, clientID)
	if err != nil {
		h.log.Error().Err(err).Str("session_ref", c.SessionRef).Msg("identity resolution failed")
		return coreError(ErrCodeStoreUnavailable, "identity store unavailable")
	}

	if err := h.presence.Register(ctx, c.SessionRef); err != nil {
		h.log.Error().Err(err).Str("session_ref", c.SessionRef).Msg("presence registration failed")
		return coreError(ErrCodeStoreUnavailable, "presence store unavailable")
	}

	if !c.activate(ident) {
		// Lost a race with Disconnect; undo the registration.
		h.deregister(c)
		return nil
	}

	h.group.Add(c)

	h.log.Info().
		Str("session_ref", c.SessionRef).
		Str("identity_id", ident.ID).
		Bool("created", created).
		Msg("session joined")

	c.Send(&Event{Kind: EventIdentityAssigned, Identity: ident})

	h.group.BroadcastExcept(c, &Event{
		Kind:   EventPresenceJoined,
		Notice: fmt.Sprintf("%s joined the chat.", ident.DisplayName),
	})
	h.broadcastCount(ctx)

	h.replayHistory(ctx, c)
	return nil
}

// HandleMessage ingests one inbound chat message on the Active self-loop:
// validate, touch activity, assign the server timestamp, archive, cache,
// then fan out to every session including the sender.
//
// The archive write is the commit point: if it fails, nothing is cached
// or broadcast and the sender alone sees a protocol error, so no message
// can be delivered that is absent from history.
func (h *Hub) HandleMessage(ctx context.Context, c *Client, text string) error {
	ident := c.Identity()
	if ident == nil {
		h.log.Warn().Str("session_ref", c.SessionRef).Msg("message before identification dropped")
		return coreError(ErrCodeNotIdentified, "identify before sending messages")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return coreError(ErrCodeBadRequest, "message text is required")
	}

	if err := h.registry.Touch(ctx, ident.ID); err != nil {
		h.log.Error().Err(err).Str("identity_id", ident.ID).Msg("activity touch failed")
		return coreError(ErrCodeStoreUnavailable, "identity store unavailable")
	}

	msg := &store.Message{
		IdentityID:  ident.ID,
		DisplayName: ident.DisplayName,
		AvatarRef:   ident.AvatarRef,
		Text:        text,
		Timestamp:   h.now(),
	}

	if err := h.archive.SaveMessage(ctx, msg); err != nil {
		h.log.Error().Err(err).Str("identity_id", ident.ID).Msg("archive write failed")
		return coreError(ErrCodeStoreUnavailable, "message could not be stored")
	}

	if err := h.ring.Push(ctx, msg); err != nil {
		// The archive already holds the message; replay falls back to it.
		h.log.Warn().Err(err).Int64("message_id", msg.ID).Msg("recent-message cache push failed")
	}

	h.group.Broadcast(&Event{Kind: EventMessageBroadcast, Message: msg})
	return nil
}

// Disconnect runs the terminal transition exactly once, regardless of how
// the transport closed or how many times it is called, and even when it
// races an in-flight HandleMessage from the same session.
func (h *Hub) Disconnect(c *Client) {
	c.disconnectOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()

		ident := c.terminate()
		h.group.Remove(c)
		h.deregister(c)

		if ident == nil {
			// Never finished the handshake; nothing was announced.
			return
		}

		h.log.Info().
			Str("session_ref", c.SessionRef).
			Str("identity_id", ident.ID).
			Msg("session left")

		h.group.Broadcast(&Event{
			Kind:   EventPresenceLeft,
			Notice: fmt.Sprintf("%s left the chat.", ident.DisplayName),
		})
		h.broadcastCount(ctx)
	})
}

// OnlineCount reports the live session count from the authoritative set.
func (h *Hub) OnlineCount(ctx context.Context) (int64, error) {
	return h.presence.Count(ctx)
}

func (h *Hub) deregister(c *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	if err := h.presence.Deregister(ctx, c.SessionRef); err != nil {
		h.log.Error().Err(err).Str("session_ref", c.SessionRef).Msg("presence deregistration failed")
	}
}

func (h *Hub) broadcastCount(ctx context.Context) {
	n, err := h.presence.Count(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("online count unavailable")
		return
	}
	h.group.Broadcast(&Event{Kind: EventPresenceCount, Count: n})
}

// replayHistory sends the recent-message buffer to the joining session
// only. The ring is the instant path; when it holds fewer entries than
// its capacity the durable archive backfills, since every ring entry was
// archived first (cold start after a fast-store flush).
func (h *Hub) replayHistory(ctx context.Context, c *Client) {
	messages, err := h.ring.Recent(ctx, h.ring.Cap())
	if err != nil {
		h.log.Warn().Err(err).Str("session_ref", c.SessionRef).Msg("recent-message cache read failed")
		messages = nil
	}

	if len(messages) < h.ring.Cap() {
		archived, err := h.archive.RecentMessages(ctx, h.ring.Cap())
		if err != nil {
			h.log.Warn().Err(err).Str("session_ref", c.SessionRef).Msg("archive history read failed")
		} else if len(archived) > len(messages) {
			messages = archived
		}
	}

	if len(messages) == 0 {
		return
	}

	c.Send(&Event{Kind: EventHistoryReplay, Messages: messages})
}
