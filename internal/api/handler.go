// Package api provides HTTP handlers for the dbrain API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/dbrain/internal/domain"
	"github.com/ashureev/dbrain/internal/identity"
	"github.com/ashureev/dbrain/internal/progress"
	"github.com/ashureev/dbrain/internal/status"
	"github.com/ashureev/dbrain/internal/store"
)

const (
	maxRequestBodySize = 64 << 10
	maxPhotoSize       = 20 << 20
)

// Dispatcher is the routing surface the handlers drive. *router.Router
// implements it.
type Dispatcher interface {
	Route(ctx context.Context, msg domain.Message, status progress.Indicator) domain.Result
	CreateTask(ctx context.Context, msg domain.Message) domain.Result
	Delegate(ctx context.Context, msg domain.Message, status progress.Indicator) domain.Result
	ArchivePhoto(ctx context.Context, msg domain.Message, data []byte, ext string) domain.Result
	ProcessDaily(ctx context.Context, status progress.Indicator) domain.Result
	Weekly(ctx context.Context, status progress.Indicator) domain.Result
}

// Handler serves the message, task and session endpoints.
type Handler struct {
	router   Dispatcher
	sessions store.SessionLog
	hub      *status.Hub
	limiter  *RateLimiter
	now      func() time.Time
}

// NewHandler creates a Handler. hub and limiter may be nil.
func NewHandler(router Dispatcher, sessions store.SessionLog, hub *status.Hub, limiter *RateLimiter) *Handler {
	return &Handler{
		router:   router,
		sessions: sessions,
		hub:      hub,
		limiter:  limiter,
		now:      time.Now,
	}
}

// RegisterRoutes registers the API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/messages", h.PostMessage)
		r.Post("/tasks", h.PostTask)
		r.Post("/do", h.PostDo)
		r.Post("/photos", h.PostPhoto)
		r.Post("/process", h.PostProcess)
		r.Post("/weekly", h.PostWeekly)
		r.Get("/session/today", h.GetSessionToday)
	})
}

// MessageRequest is the body of the text endpoints.
type MessageRequest struct {
	Text      string `json:"text"`
	Source    string `json:"source,omitempty"`
	MessageID int64  `json:"message_id,omitempty"`
}

// ResultResponse wraps a routed result.
type ResultResponse struct {
	OK       bool   `json:"ok"`
	StatusID string `json:"status_id,omitempty"`
	domain.Result
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// PostMessage classifies and routes one utterance.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.decodeMessage(w, r)
	if !ok {
		return
	}
	h.withStatus(w, r, func(ctx context.Context, ind progress.Indicator) domain.Result {
		return h.router.Route(ctx, msg, ind)
	})
}

// PostTask creates a task from the body text without classification.
func (h *Handler) PostTask(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.decodeMessage(w, r)
	if !ok {
		return
	}
	h.reply(w, "", h.router.CreateTask(r.Context(), msg))
}

// PostDo hands the body text to the agent.
func (h *Handler) PostDo(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.decodeMessage(w, r)
	if !ok {
		return
	}
	h.withStatus(w, r, func(ctx context.Context, ind progress.Indicator) domain.Result {
		return h.router.Delegate(ctx, msg, ind)
	})
}

// PostPhoto archives a multipart "photo" upload with an optional "caption".
func (h *Handler) PostPhoto(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !h.allow(w, userID) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	file, header, err := r.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "photo too large")
			return
		}
		Error(w, http.StatusBadRequest, "photo is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		Error(w, http.StatusBadRequest, "failed to read photo")
		return
	}

	msg := domain.Message{
		UserID:    userID,
		Source:    domain.SourcePhoto,
		Text:      r.FormValue("caption"),
		Timestamp: h.now(),
	}
	ext := strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	h.reply(w, "", h.router.ArchivePhoto(r.Context(), msg, data, ext))
}

// PostProcess runs daily processing for today.
func (h *Handler) PostProcess(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, identity.UserIDFromContext(r.Context())) {
		return
	}
	slog.Info("Daily processing triggered", "user_id", identity.UserIDFromContext(r.Context()))
	h.withStatus(w, r, h.router.ProcessDaily)
}

// PostWeekly generates the weekly digest.
func (h *Handler) PostWeekly(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, identity.UserIDFromContext(r.Context())) {
		return
	}
	slog.Info("Weekly digest triggered", "user_id", identity.UserIDFromContext(r.Context()))
	h.withStatus(w, r, h.router.Weekly)
}

// GetSessionToday returns the caller's session entries for today.
func (h *Handler) GetSessionToday(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	entries, err := h.sessions.SessionToday(r.Context(), userID, h.now())
	if err != nil {
		slog.Error("Failed to read session log", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to read session log")
		return
	}
	if entries == nil {
		entries = []domain.SessionEntry{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"entries": entries,
	})
}

func (h *Handler) decodeMessage(w http.ResponseWriter, r *http.Request) (domain.Message, bool) {
	userID := identity.UserIDFromContext(r.Context())
	if !h.allow(w, userID) {
		return domain.Message{}, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return domain.Message{}, false
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return domain.Message{}, false
	}
	if strings.TrimSpace(req.Text) == "" {
		Error(w, http.StatusBadRequest, "text is required")
		return domain.Message{}, false
	}

	return domain.Message{
		UserID:    userID,
		Source:    domain.ParseSource(req.Source),
		Text:      req.Text,
		MessageID: req.MessageID,
		Timestamp: h.now(),
	}, true
}

func (h *Handler) allow(w http.ResponseWriter, userID int64) bool {
	if h.limiter != nil && !h.limiter.Allow(userID) {
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return false
	}
	return true
}

// withStatus runs a long operation with a websocket status indicator for the
// caller and closes the indicator with the final text.
func (h *Handler) withStatus(w http.ResponseWriter, r *http.Request, run func(context.Context, progress.Indicator) domain.Result) {
	ctx := r.Context()
	if h.hub == nil {
		h.reply(w, "", run(ctx, nil))
		return
	}

	userID := identity.UserIDFromContext(ctx)
	ind := h.hub.NewIndicator(userID)
	res := run(ctx, ind)
	if err := ind.Finish(context.WithoutCancel(ctx), res.Text()); err != nil {
		slog.Debug("Final status not delivered", "error", err, "user_id", userID)
	}
	h.reply(w, ind.ID(), res)
}

func (h *Handler) reply(w http.ResponseWriter, statusID string, res domain.Result) {
	JSON(w, http.StatusOK, ResultResponse{OK: res.OK(), StatusID: statusID, Result: res})
}
