package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/jewel-duel/internal/game"
)

// startHub 启动Hub和测试服务器，返回拨号地址
func startHub(t *testing.T, opts Options) (*Hub, string) {
	t.Helper()
	hub := NewHub(opts, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(hub)
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_ConnectAndPublish(t *testing.T) {
	hub, url := startHub(t, Options{})
	conn := dial(t, url)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeConnected, msg.Type)
	assert.Contains(t, string(msg.Data), "client_id")
	assert.Eventually(t, func() bool { return hub.GetOnlineCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(game.Snapshot{MatchID: "m-1", State: game.StateCounting, Rows: 8, Cols: 8})

	msg = readMessage(t, conn)
	require.Equal(t, MessageTypeMatchState, msg.Type)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, "m-1", snap.MatchID)
	assert.Equal(t, game.StateCounting, snap.State)
}

func TestHub_LateJoinerGetsLatest(t *testing.T) {
	hub, url := startHub(t, Options{})
	hub.Publish(game.Snapshot{MatchID: "m-2", State: game.StatePlaying})

	latest, ok := hub.Latest()
	require.True(t, ok)
	assert.Equal(t, "m-2", latest.MatchID)

	conn := dial(t, url)
	assert.Equal(t, MessageTypeConnected, readMessage(t, conn).Type)

	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeMatchState, msg.Type)
	assert.Contains(t, string(msg.Data), `"m-2"`)
}

func TestHub_ClientMessages(t *testing.T) {
	testCases := []struct {
		name     string
		payload  string
		wantType string
	}{
		{"ping回复pong", `{"type":"ping"}`, MessageTypePong},
		{"控制消息被拒绝", `{"type":"start"}`, MessageTypeError},
		{"非法JSON", `not-json`, MessageTypeError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, url := startHub(t, Options{})
			conn := dial(t, url)
			readMessage(t, conn)

			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tc.payload)))
			msg := readMessage(t, conn)
			assert.Equal(t, tc.wantType, msg.Type)
		})
	}
}

func TestHub_Heartbeat(t *testing.T) {
	_, url := startHub(t, Options{PingInterval: 50 * time.Millisecond, PongTimeout: time.Second})
	conn := dial(t, url)
	readMessage(t, conn)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypePing, msg.Type)
}

func TestHub_Unregister(t *testing.T) {
	hub, url := startHub(t, Options{})
	conn := dial(t, url)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.GetOnlineCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.GetOnlineCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{PingInterval: 2 * time.Minute}.withDefaults()
	assert.Equal(t, 1024, opts.ReadBufferSize)
	assert.Equal(t, 60*time.Second, opts.PongTimeout)
	assert.Equal(t, 54*time.Second, opts.PingInterval)
	assert.Equal(t, 10*time.Second, opts.WriteTimeout)
}
