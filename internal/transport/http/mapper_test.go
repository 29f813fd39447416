package http

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/pokechat/pokechat-server/internal/core"
	"github.com/pokechat/pokechat-server/internal/identity"
	"github.com/pokechat/pokechat-server/internal/proto"
	"github.com/pokechat/pokechat-server/internal/store"
)

func TestParseRequestIdentity_EmptyPayloadMintsFresh(t *testing.T) {
	for _, data := range []json.RawMessage{nil, json.RawMessage(`{}`)} {
		clientID, perr := parseRequestIdentity(data)
		if perr != nil {
			t.Fatalf("expected no error for %q, got %v", data, perr)
		}
		if clientID != "" {
			t.Fatalf("expected empty client id, got %q", clientID)
		}
	}
}

func TestParseRequestIdentity_ResuppliedID(t *testing.T) {
	clientID, perr := parseRequestIdentity(json.RawMessage(`{"clientId":"user-abc"}`))
	if perr != nil {
		t.Fatalf("expected no error, got %v", perr)
	}
	if clientID != "user-abc" {
		t.Fatalf("expected user-abc, got %q", clientID)
	}
}

func TestParseRequestIdentity_MalformedPayload(t *testing.T) {
	_, perr := parseRequestIdentity(json.RawMessage(`{not json`))
	if perr == nil {
		t.Fatalf("expected error for malformed payload")
	}
	if perr.Code != core.ErrCodeInvalidFrame {
		t.Fatalf("expected %s, got %s", core.ErrCodeInvalidFrame, perr.Code)
	}
}

func TestParseMessageSend(t *testing.T) {
	text, perr := parseMessageSend(json.RawMessage(`{"text":"hello"}`))
	if perr != nil {
		t.Fatalf("expected no error, got %v", perr)
	}
	if text != "hello" {
		t.Fatalf("expected hello, got %q", text)
	}
}

func TestParseMessageSend_MissingText(t *testing.T) {
	_, perr := parseMessageSend(json.RawMessage(`{}`))
	if perr == nil {
		t.Fatalf("expected error for missing text")
	}
	if perr.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected %s, got %s", core.ErrCodeBadRequest, perr.Code)
	}
}

func TestErrorToProto_CoreError(t *testing.T) {
	err := fmt.Errorf("handle message: %w", &core.CoreError{Code: core.ErrCodeNotIdentified, Message: "identify first"})

	perr := errorToProto(err)
	if perr.Code != core.ErrCodeNotIdentified {
		t.Fatalf("expected %s, got %s", core.ErrCodeNotIdentified, perr.Code)
	}
	if perr.Msg != "identify first" {
		t.Fatalf("unexpected message: %q", perr.Msg)
	}
}

func TestErrorToProto_UnknownError(t *testing.T) {
	perr := errorToProto(fmt.Errorf("boom"))
	if perr.Code != "internal" {
		t.Fatalf("expected internal, got %s", perr.Code)
	}
}

func TestOutboundFromEvent_IdentityAssigned(t *testing.T) {
	outbound := outboundFromEvent(&core.Event{
		Kind: core.EventIdentityAssigned,
		Identity: &identity.Identity{
			ID:          "user-1",
			DisplayName: "LuckyTrainer42",
			AvatarRef:   "https://example.com/sprite/25.png",
		},
	})

	if outbound.Type != proto.OutboundTypeEvent || outbound.Event != proto.EventIdentityAssigned {
		t.Fatalf("unexpected envelope: %+v", outbound)
	}
	data, ok := outbound.Data.(proto.IdentityAssignedData)
	if !ok {
		t.Fatalf("unexpected data type %T", outbound.Data)
	}
	if data.ID != "user-1" || data.DisplayName != "LuckyTrainer42" {
		t.Fatalf("unexpected data: %+v", data)
	}
}

func TestOutboundFromEvent_BroadcastTimestampMillis(t *testing.T) {
	sent := time.Date(2024, 6, 1, 12, 0, 0, 500_000_000, time.UTC)
	outbound := outboundFromEvent(&core.Event{
		Kind: core.EventMessageBroadcast,
		Message: &store.Message{
			IdentityID:  "user-1",
			DisplayName: "SunnyChampion7",
			AvatarRef:   "https://example.com/sprite/7.png",
			Text:        "hi",
			Timestamp:   sent,
		},
	})

	data, ok := outbound.Data.(proto.BroadcastMessage)
	if !ok {
		t.Fatalf("unexpected data type %T", outbound.Data)
	}
	if data.Timestamp != sent.UnixMilli() {
		t.Fatalf("expected %d, got %d", sent.UnixMilli(), data.Timestamp)
	}
}

func TestOutboundFromEvent_HistoryReplayKeepsOrder(t *testing.T) {
	msgs := []*store.Message{
		{Text: "first", Timestamp: time.Now().Add(-2 * time.Minute)},
		{Text: "second", Timestamp: time.Now().Add(-time.Minute)},
	}
	outbound := outboundFromEvent(&core.Event{Kind: core.EventHistoryReplay, Messages: msgs})

	data, ok := outbound.Data.([]proto.BroadcastMessage)
	if !ok {
		t.Fatalf("unexpected data type %T", outbound.Data)
	}
	if len(data) != 2 || data[0].Text != "first" || data[1].Text != "second" {
		t.Fatalf("unexpected replay payload: %+v", data)
	}
}

func TestOutboundFromEvent_Error(t *testing.T) {
	outbound := outboundFromEvent(&core.Event{
		Kind:  core.EventError,
		Error: &core.CoreError{Code: core.ErrCodeStoreUnavailable, Message: "archive down"},
	})

	if outbound.Type != proto.OutboundTypeError {
		t.Fatalf("expected error envelope, got %+v", outbound)
	}
	if outbound.Error == nil || outbound.Error.Code != core.ErrCodeStoreUnavailable {
		t.Fatalf("unexpected error payload: %+v", outbound.Error)
	}
}
