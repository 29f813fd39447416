// Command ws_chat is an interactive terminal client for manual testing.
// It performs the identity handshake, prints replayed history and live
// traffic, and sends each stdin line as a chat message.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/pokechat/pokechat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	clientID := flag.String("id", "", "previously issued identity id (empty mints a fresh one)")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	identityPayload, err := json.Marshal(proto.RequestIdentityData{ClientID: *clientID})
	if err != nil {
		return fmt.Errorf("marshal request-identity: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeRequestIdentity, Data: identityPayload}); err != nil {
		return fmt.Errorf("send request-identity: %w", err)
	}

	fmt.Printf("Connected to %s\n", *addr)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if outbound.Type == proto.OutboundTypeError {
			if outbound.Error != nil {
				fmt.Printf("!! error %s: %s\n", outbound.Error.Code, outbound.Error.Msg)
			}
			continue
		}

		switch outbound.Event {
		case proto.EventIdentityAssigned:
			var evt proto.IdentityAssignedData
			if err := decodeData(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal identity-assigned: %v", err)
				continue
			}
			fmt.Printf("You are %s (id %s, reuse with -id to keep the name)\n", evt.DisplayName, evt.ID)
		case proto.EventMessageBroadcast:
			var evt proto.BroadcastMessage
			if err := decodeData(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal message-broadcast: %v", err)
				continue
			}
			printMessage(evt)
		case proto.EventHistoryReplay:
			var evts []proto.BroadcastMessage
			if err := decodeData(outbound.Data, &evts); err != nil {
				log.Printf("unmarshal history-replay: %v", err)
				continue
			}
			if len(evts) > 0 {
				fmt.Printf("--- last %d messages ---\n", len(evts))
				for _, evt := range evts {
					printMessage(evt)
				}
				fmt.Println("--- end of history ---")
			}
		case proto.EventPresenceJoined, proto.EventPresenceLeft:
			var notice string
			if err := decodeData(outbound.Data, &notice); err != nil {
				log.Printf("unmarshal %s: %v", outbound.Event, err)
				continue
			}
			fmt.Printf("* %s\n", notice)
		case proto.EventPresenceCount:
			var count int
			if err := decodeData(outbound.Data, &count); err != nil {
				log.Printf("unmarshal presence-count: %v", err)
				continue
			}
			fmt.Printf("* %d online\n", count)
		default:
			fmt.Printf("event=%s data=%v\n", outbound.Event, outbound.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			payload, err := json.Marshal(proto.MessageSendData{Text: text})
			if err != nil {
				log.Printf("marshal message-send: %v", err)
				return
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeMessageSend, Data: payload}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

// decodeData round-trips the already-decoded envelope payload into the
// concrete event shape.
func decodeData(data any, v any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func printMessage(evt proto.BroadcastMessage) {
	ts := time.UnixMilli(evt.Timestamp).Local().Format("15:04:05")
	fmt.Printf("[%s] %s: %s\n", ts, evt.DisplayName, evt.Text)
}
