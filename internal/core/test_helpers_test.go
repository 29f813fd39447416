package core

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pokechat/pokechat-server/internal/history"
	"github.com/pokechat/pokechat-server/internal/identity"
	"github.com/pokechat/pokechat-server/internal/presence"
	"github.com/pokechat/pokechat-server/internal/store"
	"github.com/pokechat/pokechat-server/internal/store/sqlite"
)

// testHub bundles a hub with handles to its backing fixtures so tests can
// inject faults into individual stores.
type testHub struct {
	hub      *Hub
	fastMain *miniredis.Miniredis // registry + presence
	fastRing *miniredis.Miniredis // recent-message ring only
	archive  store.MessageStore
}

func newTestHub(t *testing.T) *testHub {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return newTestHubWithArchive(t, st)
}

func newTestHubWithArchive(t *testing.T, archive store.MessageStore) *testHub {
	t.Helper()

	mrMain := miniredis.RunT(t)
	rdbMain := redis.NewClient(&redis.Options{Addr: mrMain.Addr()})
	t.Cleanup(func() { _ = rdbMain.Close() })

	// The ring gets its own fast store so tests can fail it independently.
	mrRing := miniredis.RunT(t)
	rdbRing := redis.NewClient(&redis.Options{Addr: mrRing.Addr()})
	t.Cleanup(func() { _ = rdbRing.Close() })

	logger := zerolog.Nop()
	registry := identity.NewRegistry(rdbMain, identity.NewGenerator(1), 48*time.Hour, &logger)
	tracker := presence.NewTracker(rdbMain)
	ring := history.NewRing(rdbRing, 100)

	return &testHub{
		hub:      NewHub(registry, tracker, ring, archive, &logger),
		fastMain: mrMain,
		fastRing: mrRing,
		archive:  archive,
	}
}

func newSession() *Client {
	return NewClient(uuid.NewString())
}

func mustEvent(t *testing.T, c *Client, kind EventKind) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-c.Events:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
			return nil
		}
	}
}

func mustNoEvent(t *testing.T, c *Client, kind EventKind) {
	t.Helper()

	for {
		select {
		case ev := <-c.Events:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v received: %+v", kind, ev)
			}
		default:
			return
		}
	}
}
