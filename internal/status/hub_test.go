package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/dbrain/internal/identity"
)

// GetActive returns the connection for a user and session, or nil.
func (h *Hub) GetActive(userID int64, sessionID string) *websocket.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if sessions, ok := h.active[userID]; ok {
		return sessions[sessionID]
	}
	return nil
}

func TestHub_Register(t *testing.T) {
	h := NewHub()
	conn := &websocket.Conn{}

	h.Register(1, "tab-1", conn)

	if active := h.GetActive(1, "tab-1"); active != conn {
		t.Errorf("Expected connection %v, got %v", conn, active)
	}
}

func TestHub_UnregisterStale(t *testing.T) {
	h := NewHub()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}

	h.Register(1, "tab-1", conn1)
	h.Register(1, "tab-2", conn2)
	h.Unregister(1, "tab-1", conn1)
	h.Unregister(1, "tab-2", conn1)

	assert.Nil(t, h.GetActive(1, "tab-1"))
	assert.Same(t, conn2, h.GetActive(1, "tab-2"))
}

func TestHub_PublishWithoutListener(t *testing.T) {
	h := NewHub()
	err := h.NewIndicator(5).Update(context.Background(), "⏳ x")
	assert.ErrorIs(t, err, ErrNoListener)
}

func TestHub_ConcurrentAccess(t *testing.T) {
	h := NewHub()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			h.Register(1, "tab-"+strconv.Itoa(i), &websocket.Conn{})
		}
	}()
	for i := 0; i < 1000; i++ {
		h.GetActive(1, "tab-"+strconv.Itoa(i))
	}
	<-done
}

func TestHandler_DeliversIndicatorUpdates(t *testing.T) {
	hub := NewHub()
	handler := identity.Middleware(nil, 0)(NewHandler(hub, "*", true))
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user_id=42&session_id=tab-a"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return hub.GetActive(42, "tab-a") != nil }, 2*time.Second, 10*time.Millisecond)

	ind := hub.NewIndicator(42)
	require.NoError(t, ind.Update(ctx, "⏳ Выполняю (0m 30s)"))
	require.NoError(t, ind.Finish(ctx, "✅ готово"))

	var frames []Frame
	for i := 0; i < 2; i++ {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var f Frame
		require.NoError(t, json.Unmarshal(data, &f))
		frames = append(frames, f)
	}
	assert.Equal(t, []Frame{
		{ID: ind.ID(), Text: "⏳ Выполняю (0m 30s)"},
		{ID: ind.ID(), Text: "✅ готово", Final: true},
	}, frames)

	// Other users see nothing.
	assert.ErrorIs(t, hub.NewIndicator(43).Update(ctx, "x"), ErrNoListener)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"ping"}`)))
	_, pong, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(pong))
}

func TestHandler_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(identity.Middleware(nil, 1)(NewHandler(hub, "https://app.example.com", false)))
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
