package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/vaderpos/inventory-service/internal/ledger"
	"github.com/vaderpos/inventory-service/internal/store"
	"github.com/vaderpos/inventory-service/pkg/eventbus"
)

// testStack wires a full in-memory socket stack: store, ledger, bus,
// registry, hub (running), and an httptest server exposing the session
// handler.
type testStack struct {
	ledger   *ledger.Ledger
	registry *Registry
	server   *httptest.Server
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	bus := eventbus.New()
	reg := NewRegistry()
	led := ledger.New(store.NewMemory(), bus, nil)
	hub := NewHub(led, reg, bus, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	handler := NewSessionHandler(led, reg, hub, 2*time.Second, nil)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testStack{ledger: led, registry: reg, server: srv}
}

func (s *testStack) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMessage reads one frame into a generic map with a deadline.
func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(frame, &msg))
	return msg
}

// readReply skips broadcast frames until a command reply arrives.
func readReply(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		msg := readMessage(t, conn)
		if _, isBroadcast := msg["type"]; !isBroadcast {
			return msg
		}
	}
	t.Fatal("no reply received within 10 frames")
	return nil
}

// readBroadcast skips frames until one satisfies match. Broadcasts from
// mutations that committed just before the connection registered may still
// be in flight, so tests match on content rather than arrival order.
func readBroadcast(t *testing.T, conn *websocket.Conn, match func(map[string]any) bool) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		msg := readMessage(t, conn)
		if match(msg) {
			return msg
		}
	}
	t.Fatal("no matching broadcast received within 10 frames")
	return nil
}

func isUpdate(wantType, wantUpdateType string) func(map[string]any) bool {
	return func(msg map[string]any) bool {
		return msg["type"] == wantType && msg["updateType"] == wantUpdateType
	}
}

func sendCommand(t *testing.T, conn *websocket.Conn, cmd map[string]any) {
	t.Helper()
	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// consumeSnapshot reads frames until the initial product and category
// snapshots sent on connect have both arrived.
func consumeSnapshot(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	readBroadcast(t, conn, isUpdate("productUpdate", "global"))
	readBroadcast(t, conn, isUpdate("categoryUpdate", "global"))
}
