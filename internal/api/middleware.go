package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/stockmgtr/internal/auth"
	"github.com/erazemk/stockmgtr/internal/session"
	"github.com/erazemk/stockmgtr/internal/upstream"
)

type contextKey string

const sessionKey contextKey = "session"

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// sessionToken returns the signed session token from a bearer header or,
// failing that, the session cookie.
func sessionToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer "), true
	}
	c, err := r.Cookie(auth.CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// lookup resolves the session of r. It returns nil without error when the
// request carries no valid token or the session has ended.
func (h *Handler) lookup(r *http.Request) (*session.Session, error) {
	token, ok := sessionToken(r)
	if !ok {
		return nil, nil
	}
	claims, err := auth.ValidateToken(h.JWTSecret, token)
	if err != nil {
		return nil, nil
	}
	return h.Sessions.Resume(r.Context(), claims.SessionID)
}

// AuthMiddleware resolves the session token and adds the session to the
// context. Requests without a live session get a JSON 401.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.lookup(r)
		if err != nil {
			slog.Error("failed to resume session", "error", err)
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if sess == nil {
			jsonError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSession retrieves the session from the context.
func GetSession(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// LoggingMiddleware assigns each request an ID, forwards it upstream and logs
// method, path, status and duration. An inbound X-Request-ID is kept.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(upstream.WithRequestID(r.Context(), id)))

		level := slog.LevelInfo
		if rec.status >= 500 {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", id,
		)
	})
}

// upstreamFailure writes the JSON error for a failed upstream call. A
// cancelled request context means the browser gave up; nothing is written.
func upstreamFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(r.Context().Err(), context.Canceled) {
		return
	}
	if session.Expired(err) {
		jsonError(w, http.StatusUnauthorized, "session expired")
		return
	}
	ue, ok := upstream.AsError(err)
	if !ok {
		slog.Error("api request failed", "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	switch ue.Kind() {
	case upstream.KindTransport, upstream.KindServer:
		slog.Error("upstream request failed", "path", r.URL.Path, "error", err, "request_id", upstream.RequestID(r.Context()))
		jsonError(w, http.StatusBadGateway, "stock server unavailable")
	default:
		jsonError(w, ue.Status, ue.Message)
	}
}
