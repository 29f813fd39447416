package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pokechat/pokechat-server/internal/core"
	"github.com/pokechat/pokechat-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub      *core.Hub
	log      *zerolog.Logger
	msgLimit int
}

// NewWSHandler builds a new WebSocket handler. msgLimit caps inbound chat
// messages per connection per minute; zero disables the cap.
func NewWSHandler(hub *core.Hub, msgLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, log: logger, msgLimit: msgLimit}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient(uuid.NewString())
	// The terminal transition must run on any closure, graceful or not.
	defer h.hub.Disconnect(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newRateLimiter(h.msgLimit)
	stop := make(chan struct{})
	defer close(stop)
	limiter.startReset(stop)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("session_ref", client.SessionRef).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		switch inbound.Type {
		case proto.InboundTypeRequestIdentity:
			clientID, protoErr := parseRequestIdentity(inbound.Data)
			if protoErr != nil {
				h.sendError(client, protoErr)
				continue
			}
			if err := h.hub.Connect(ctx, client, clientID); err != nil {
				h.sendError(client, errorToProto(err))
			}

		case proto.InboundTypeMessageSend:
			if !limiter.allow() {
				h.log.Warn().Str("session_ref", client.SessionRef).Msg("message rate limit exceeded")
				h.sendError(client, &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages, slow down"})
				continue
			}
			text, protoErr := parseMessageSend(inbound.Data)
			if protoErr != nil {
				h.sendError(client, protoErr)
				continue
			}
			if err := h.hub.HandleMessage(ctx, client, text); err != nil {
				h.sendError(client, errorToProto(err))
			}

		default:
			h.log.Warn().Str("session_ref", client.SessionRef).Str("type", inbound.Type).Msg("unknown inbound type")
			h.sendError(client, &proto.Error{Code: core.ErrCodeInvalidFrame, Msg: "unknown message type"})
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_ref", client.SessionRef).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// sendError routes the error through the client's event channel so the
// write loop stays the only writer on the connection.
func (h *WSHandler) sendError(client *core.Client, protoErr *proto.Error) {
	client.Send(&core.Event{
		Kind:  core.EventError,
		Error: &core.CoreError{Code: protoErr.Code, Message: protoErr.Msg},
	})
}
