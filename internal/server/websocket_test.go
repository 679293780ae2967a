package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/tdr/internal/core/events/bus"
	"github.com/zeusync/tdr/internal/core/observability/log"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 2*time.Second, 5*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m map[string]any
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(0, log.Nop())
	s := httptest.NewServer(hub)
	defer s.Close()

	a, b := dial(t, s.URL), dial(t, s.URL)
	waitClients(t, hub, 2)

	require.NoError(t, hub.Broadcast("snapshot", map[string]int{"tick": 7}))
	for _, conn := range []*websocket.Conn{a, b} {
		m := readMessage(t, conn)
		assert.Equal(t, "snapshot", m["type"])
		assert.Equal(t, map[string]any{"tick": float64(7)}, m["data"])
	}

	require.NoError(t, a.Close())
	waitClients(t, hub, 1)
}

func TestHubForwardsBusEvents(t *testing.T) {
	hub := NewHub(0, nil)
	s := httptest.NewServer(hub)
	defer s.Close()
	conn := dial(t, s.URL)
	waitClients(t, hub, 1)

	b := bus.New()
	sub, err := hub.Forward(b)
	require.NoError(t, err)
	defer func() { _ = sub.Cancel() }()

	require.NoError(t, b.Publish(bus.NewEvent(bus.EventLap, "laps", bus.Lap{Car: "blue", Lap: 2, Tick: 90}, nil)))

	m := readMessage(t, conn)
	assert.Equal(t, bus.EventLap, m["type"])
	data, ok := m["data"].(map[string]any)
	require.True(t, ok)

	var want map[string]any
	raw, err := json.Marshal(bus.Lap{Car: "blue", Lap: 2, Tick: 90})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &want))
	assert.Equal(t, want, data)
}

func TestHubLimitsClients(t *testing.T) {
	hub := NewHub(1, nil)
	s := httptest.NewServer(hub)
	defer s.Close()
	dial(t, s.URL)
	waitClients(t, hub, 1)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http"), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHubClose(t *testing.T) {
	hub := NewHub(0, nil)
	s := httptest.NewServer(hub)
	defer s.Close()
	conn := dial(t, s.URL)
	waitClients(t, hub, 1)

	hub.Close()
	hub.Close()
	assert.Zero(t, hub.Clients())
	assert.ErrorIs(t, hub.Broadcast("x", nil), ErrServerClosed)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestHTTPServerLifecycle(t *testing.T) {
	hub := NewHub(0, nil)
	srv := NewHTTPServer(hub, log.Nop())
	require.NoError(t, srv.Start("127.0.0.1:0"))
	assert.ErrorIs(t, srv.Start("127.0.0.1:0"), ErrServerAlreadyRunning)

	resp, err := http.Get("http://" + srv.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok 0\n", string(body))

	resp, err = http.Get("http://" + srv.Addr().String() + "/nope")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.ErrorIs(t, srv.Stop(ctx), ErrServerNotRunning)
	assert.Nil(t, srv.Addr())
}
