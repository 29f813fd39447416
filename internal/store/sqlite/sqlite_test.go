package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pokechat/pokechat-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestSaveMessageAssignsID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := &store.Message{
		IdentityID:  "user-1",
		DisplayName: "LuckyTrainer42",
		AvatarRef:   "https://example.com/1.png",
		Text:        "hello",
		Timestamp:   time.Now(),
	}
	if err := s.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("save message: %v", err)
	}
	if msg.ID == 0 {
		t.Fatal("expected the archive to assign an id")
	}
}

func TestRecentMessagesChronological(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		msg := &store.Message{
			IdentityID:  "user-1",
			DisplayName: "LuckyTrainer42",
			AvatarRef:   "ref",
			Text:        fmt.Sprintf("message %d", i),
			Timestamp:   base.Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("save message %d: %v", i, err)
		}
	}

	messages, err := s.RecentMessages(ctx, 4)
	if err != nil {
		t.Fatalf("recent messages: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4", len(messages))
	}
	for i, msg := range messages {
		want := fmt.Sprintf("message %d", 6+i)
		if msg.Text != want {
			t.Fatalf("messages[%d].Text = %q, want %q", i, msg.Text, want)
		}
	}
}

func TestMessagesBetween(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		msg := &store.Message{
			IdentityID:  "user-1",
			DisplayName: "name",
			AvatarRef:   "ref",
			Text:        fmt.Sprintf("message %d", i),
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("save message %d: %v", i, err)
		}
	}

	// Half-open range: messages 1, 2, 3.
	from := base.Add(1 * time.Minute)
	to := base.Add(4 * time.Minute)
	messages, err := s.MessagesBetween(ctx, from, to)
	if err != nil {
		t.Fatalf("messages between: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	if messages[0].Text != "message 1" || messages[2].Text != "message 3" {
		t.Fatalf("unexpected range contents: %q .. %q", messages[0].Text, messages[2].Text)
	}
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "misty", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	fetched, err := s.GetUserByUsername(ctx, "misty")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if fetched.ID != created.ID || fetched.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", fetched)
	}

	if _, err := s.GetUserByUsername(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
