// Package identity resolves which user a request acts for.
package identity

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

const (
	UserHeaderName        = "X-DBrain-User-ID"
	SessionHeaderName     = "X-DBrain-Session-ID"
	DefaultSessionIDValue = "default"
)

type contextKey int

const (
	userIDKey contextKey = iota
	sessionIDKey
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// WithUserID returns a context carrying userID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the user ID from the request context, or 0.
func UserIDFromContext(ctx context.Context) int64 {
	if v, ok := ctx.Value(userIDKey).(int64); ok {
		return v
	}
	return 0
}

// SessionIDFromContext extracts the tab session ID from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return DefaultSessionIDValue
}

func sanitizeSessionID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || !sessionIDPattern.MatchString(id) {
		return DefaultSessionIDValue
	}
	return id
}

func sessionIDFromRequest(r *http.Request) string {
	sid := r.Header.Get(SessionHeaderName)
	if sid == "" {
		sid = r.URL.Query().Get("session_id")
	}
	return sanitizeSessionID(sid)
}

// userIDFromRequest reads the header, then the user_id query parameter.
// ok is false when a value is present but not a positive integer.
func userIDFromRequest(r *http.Request) (id int64, present, ok bool) {
	raw := strings.TrimSpace(r.Header.Get(UserHeaderName))
	if raw == "" {
		raw = strings.TrimSpace(r.URL.Query().Get("user_id"))
	}
	if raw == "" {
		return 0, false, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, true, false
	}
	return id, true, true
}

// Allowlist decides which user IDs may use the router. An empty list
// admits everyone.
type Allowlist map[int64]struct{}

// NewAllowlist builds an Allowlist from ids.
func NewAllowlist(ids []int64) Allowlist {
	a := make(Allowlist, len(ids))
	for _, id := range ids {
		a[id] = struct{}{}
	}
	return a
}

// Allows reports whether id may act.
func (a Allowlist) Allows(id int64) bool {
	if len(a) == 0 {
		return true
	}
	_, ok := a[id]
	return ok
}

// Middleware injects the acting user and per-tab session ID. Requests that
// carry no user fall back to defaultUser; a user outside allowed is rejected.
func Middleware(allowed Allowlist, defaultUser int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, present, ok := userIDFromRequest(r)
			if !ok {
				http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
				return
			}
			if !present {
				userID = defaultUser
			}
			if userID == 0 {
				http.Error(w, `{"error":"user id required"}`, http.StatusUnauthorized)
				return
			}
			if !allowed.Allows(userID) {
				http.Error(w, `{"error":"user not allowed"}`, http.StatusForbidden)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			ctx = context.WithValue(ctx, sessionIDKey, sessionIDFromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IPFromRequest returns a normalized remote IP for optional request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
