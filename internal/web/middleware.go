package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/erazemk/stockmgtr/internal/auth"
	"github.com/erazemk/stockmgtr/internal/session"
	"github.com/erazemk/stockmgtr/internal/upstream"
)

type webContextKey string

const webSessionKey webContextKey = "websession"

const (
	flashCookie      = "flash"
	flashErrorCookie = "flash_error"
)

// CookieAuthMiddleware validates the session cookie, resumes the session it
// names and adds it to the context. Requests without a live session are
// redirected to the login page.
func (s *Server) CookieAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.CookieClaims(r, s.JWTSecret)
		if err != nil {
			if !errors.Is(err, auth.ErrNoCookie) {
				auth.ClearCookie(w, s.SecureCookies)
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		sess, err := s.Sessions.Resume(r.Context(), claims.SessionID)
		if err != nil {
			slog.Error("failed to resume session", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if sess == nil {
			auth.ClearCookie(w, s.SecureCookies)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), webSessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentSession retrieves the session from web context.
func CurrentSession(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(webSessionKey).(*session.Session)
	return sess
}

// setFlash stores a one-time message shown by the next page.
func (s *Server) setFlash(w http.ResponseWriter, name, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func takeFlash(w http.ResponseWriter, r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: name, Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

// redirect sends the browser to path with a flash message.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, path, msg string) {
	if msg != "" {
		s.setFlash(w, flashCookie, msg)
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// actionFailed sends the browser back to path with the error of a failed
// action.
func (s *Server) actionFailed(w http.ResponseWriter, r *http.Request, err error, path string) {
	if s.expired(w, r, err) {
		return
	}
	slog.Warn("action failed", "path", r.URL.Path, "status", upstream.StatusOf(err), "error", err)
	s.setFlash(w, flashErrorCookie, userMessage(err))
	http.Redirect(w, r, path, http.StatusSeeOther)
}
