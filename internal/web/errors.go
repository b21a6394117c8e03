package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/stockmgtr/internal/auth"
	"github.com/erazemk/stockmgtr/internal/session"
	"github.com/erazemk/stockmgtr/internal/upstream"
)

const (
	msgServer      = "Something went wrong on the stock server. Please try again later."
	msgUnreachable = "Unable to reach the stock server. Please try again later."
	msgUnexpected  = "An unexpected error occurred."
)

// userMessage returns the text shown for a failed upstream call. Server
// errors get a generic message; client errors show what the backend said.
func userMessage(err error) string {
	ue, ok := upstream.AsError(err)
	if !ok {
		return msgUnexpected
	}
	switch ue.Kind() {
	case upstream.KindTransport:
		return msgUnreachable
	case upstream.KindServer:
		return msgServer
	}
	return ue.Message
}

// expired ends the session and sends the browser to the login page when err
// means the upstream session can no longer be refreshed.
func (s *Server) expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !session.Expired(err) {
		return false
	}
	if sess := CurrentSession(r.Context()); sess != nil {
		slog.Warn("upstream session expired", "user", sess.Username)
		if err := s.Sessions.Logout(r.Context(), sess.ID); err != nil {
			slog.Error("failed to delete expired session", "error", err)
		}
	}
	auth.ClearCookie(w, s.SecureCookies)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}

// fail renders the error page for a failed page load.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if s.expired(w, r, err) {
		return
	}

	status := http.StatusInternalServerError
	msg := msgUnexpected
	if ue, ok := upstream.AsError(err); ok {
		msg = userMessage(err)
		switch ue.Kind() {
		case upstream.KindTransport, upstream.KindServer:
			status = http.StatusBadGateway
		default:
			status = ue.Status
		}
	}
	if status >= 500 {
		slog.Error("request failed", "path", r.URL.Path, "error", err, "request_id", upstream.RequestID(r.Context()))
	} else {
		slog.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	pd := s.page(w, r, "Error")
	pd.Error = msg
	s.Templates.RenderStatus(w, status, "error.html", &pd)
}

// notFound renders the error page with a 404.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	pd := s.page(w, r, "Not found")
	pd.Error = "The page you requested does not exist."
	s.Templates.RenderStatus(w, http.StatusNotFound, "error.html", &pd)
}

// forbidden renders the error page with a 403.
func (s *Server) forbidden(w http.ResponseWriter, r *http.Request) {
	pd := s.page(w, r, "Forbidden")
	pd.Error = "You do not have permission to do that."
	s.Templates.RenderStatus(w, http.StatusForbidden, "error.html", &pd)
}
