package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/stockmgtr/internal/auth"
	"github.com/erazemk/stockmgtr/internal/session"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	pd := s.page(w, r, "Sign in")
	s.Templates.Render(w, "login.html", &pd)
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	f := newForm(r)
	pd := s.page(w, r, "Sign in")
	pd.Form.Set("username", f.str("username"))

	if !s.limiter.Allow(r) {
		slog.Warn("login rate limited", "remote", r.RemoteAddr)
		pd.Error = "Too many login attempts. Please wait a minute and try again."
		s.Templates.RenderStatus(w, http.StatusTooManyRequests, "login.html", &pd)
		return
	}

	username := f.str("username")
	password := f.values.Get("password")
	if username == "" || password == "" {
		pd.Error = "Enter your username and password."
		s.Templates.Render(w, "login.html", &pd)
		return
	}

	sess, err := s.Sessions.Login(r.Context(), username, password)
	if err != nil {
		var le *session.LoginError
		if errors.As(err, &le) {
			pd.Error = le.Message
		} else {
			slog.Error("login failed", "user", username, "error", err)
			pd.Error = "Login failed. Please try again."
		}
		s.Templates.Render(w, "login.html", &pd)
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, sess.ID, sess.Username, sess.Role, s.Sessions.Lifetime())
	if err != nil {
		slog.Error("failed to sign session cookie", "error", err)
		pd.Error = "Login failed. Please try again."
		s.Templates.Render(w, "login.html", &pd)
		return
	}
	auth.SetCookie(w, token, sess.ExpiresAt, s.SecureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, err := auth.CookieClaims(r, s.JWTSecret); err == nil {
		if err := s.Sessions.Logout(r.Context(), claims.SessionID); err != nil {
			slog.Error("failed to delete session", "error", err)
		} else {
			slog.Info("user logged out", "user", claims.Username)
		}
	}
	auth.ClearCookie(w, s.SecureCookies)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
