// Package status pushes live status messages to the user's open websocket
// connections.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// ErrNoListener is returned when a user has no open connection.
var ErrNoListener = errors.New("no status listener connected")

const writeTimeout = 5 * time.Second

// Frame is one status message. Frames with the same ID replace each other
// on the client.
type Frame struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Final bool   `json:"final,omitempty"`
}

// Hub manages active WebSocket connections for users.
type Hub struct {
	mu     sync.RWMutex
	active map[int64]map[string]*websocket.Conn
}

// NewHub creates a new hub.
func NewHub() *Hub {
	return &Hub{
		active: make(map[int64]map[string]*websocket.Conn),
	}
}

// Register adds a connection for a user/session, closing any connection it replaces.
func (h *Hub) Register(userID int64, sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.active[userID]; !exists {
		h.active[userID] = make(map[string]*websocket.Conn)
	}

	if existing, exists := h.active[userID][sessionID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "session replaced")
	}

	h.active[userID][sessionID] = conn
	slog.Info("Status listener registered", "user_id", userID, "session_id", sessionID)
}

// Unregister removes a connection if it is still the current one for the session.
func (h *Hub) Unregister(userID int64, sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessions, ok := h.active[userID]; ok {
		if current, exists := sessions[sessionID]; exists && current == conn {
			delete(sessions, sessionID)
			if len(sessions) == 0 {
				delete(h.active, userID)
			}
			slog.Info("Status listener unregistered", "user_id", userID, "session_id", sessionID)
		}
	}
}

func (h *Hub) conns(userID int64) []*websocket.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*websocket.Conn, 0, len(h.active[userID]))
	for _, c := range h.active[userID] {
		out = append(out, c)
	}
	return out
}

// Publish sends frame to every connection of userID. It fails only when no
// connection accepted the frame.
func (h *Hub) Publish(ctx context.Context, userID int64, frame Frame) error {
	conns := h.conns(userID)
	if len(conns) == 0 {
		return ErrNoListener
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode status frame: %w", err)
	}

	delivered := 0
	var lastErr error
	for _, c := range conns {
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.Write(writeCtx, websocket.MessageText, data)
		cancel()
		if err != nil {
			lastErr = err
			slog.Debug("status write failed", "user_id", userID, "error", err)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("status not delivered: %w", lastErr)
	}
	return nil
}

// Indicator is one editable status message for a user.
type Indicator struct {
	hub    *Hub
	userID int64
	id     string
}

// NewIndicator creates an indicator with a fresh ID.
func (h *Hub) NewIndicator(userID int64) *Indicator {
	return &Indicator{hub: h, userID: userID, id: uuid.Must(uuid.NewV7()).String()}
}

// ID returns the frame ID shared by all updates of this indicator.
func (i *Indicator) ID() string { return i.id }

// Update replaces the indicator text.
func (i *Indicator) Update(ctx context.Context, text string) error {
	return i.hub.Publish(ctx, i.userID, Frame{ID: i.id, Text: text})
}

// Finish sends the final text. Clients may drop the indicator after it.
func (i *Indicator) Finish(ctx context.Context, text string) error {
	return i.hub.Publish(ctx, i.userID, Frame{ID: i.id, Text: text, Final: true})
}
