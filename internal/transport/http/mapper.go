package http

import (
	"encoding/json"
	"errors"

	"github.com/pokechat/pokechat-server/internal/core"
	"github.com/pokechat/pokechat-server/internal/proto"
	"github.com/pokechat/pokechat-server/internal/store"
)

// parseRequestIdentity extracts the optional resupplied client id. An
// absent or empty payload is a fresh-identity request, not an error.
func parseRequestIdentity(data json.RawMessage) (string, *proto.Error) {
	if len(data) == 0 {
		return "", nil
	}
	var req proto.RequestIdentityData
	if err := json.Unmarshal(data, &req); err != nil {
		return "", &proto.Error{Code: core.ErrCodeInvalidFrame, Msg: "malformed request-identity payload"}
	}
	return req.ClientID, nil
}

func parseMessageSend(data json.RawMessage) (string, *proto.Error) {
	var msg proto.MessageSendData
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", &proto.Error{Code: core.ErrCodeInvalidFrame, Msg: "malformed message-send payload"}
	}
	if msg.Text == "" {
		return "", &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text is required"}
	}
	return msg.Text, nil
}

// errorToProto maps hub errors onto the wire error shape.
func errorToProto(err error) *proto.Error {
	var coreErr *core.CoreError
	if errors.As(err, &coreErr) {
		return &proto.Error{Code: coreErr.Code, Msg: coreErr.Message}
	}
	return &proto.Error{Code: "internal", Msg: "internal error"}
}

func broadcastFromMessage(msg *store.Message) proto.BroadcastMessage {
	return proto.BroadcastMessage{
		IdentityID:  msg.IdentityID,
		DisplayName: msg.DisplayName,
		AvatarRef:   msg.AvatarRef,
		Text:        msg.Text,
		Timestamp:   msg.Timestamp.UnixMilli(),
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventIdentityAssigned:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventIdentityAssigned,
			Data: proto.IdentityAssignedData{
				ID:          event.Identity.ID,
				DisplayName: event.Identity.DisplayName,
				AvatarRef:   event.Identity.AvatarRef,
			},
		}
	case core.EventPresenceJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPresenceJoined,
			Data:  event.Notice,
		}
	case core.EventPresenceCount:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPresenceCount,
			Data:  event.Count,
		}
	case core.EventMessageBroadcast:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessageBroadcast,
			Data:  broadcastFromMessage(event.Message),
		}
	case core.EventHistoryReplay:
		messages := make([]proto.BroadcastMessage, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, broadcastFromMessage(msg))
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventHistoryReplay,
			Data:  messages,
		}
	case core.EventPresenceLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPresenceLeft,
			Data:  event.Notice,
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
