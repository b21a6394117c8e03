package api

import (
	"net/http"

	"github.com/erazemk/stockmgtr/internal/session"
)

// Handler serves the JSON endpoints used by the pages' scripts.
type Handler struct {
	Sessions  *session.Manager
	JWTSecret string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(sessions *session.Manager, jwtSecret string) http.Handler {
	h := &Handler{Sessions: sessions, JWTSecret: jwtSecret}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/session", h.Session)
	mux.Handle("POST /api/purchase-orders/totals", h.AuthMiddleware(http.HandlerFunc(h.OrderTotals)))
	mux.Handle("GET /api/products/search", h.AuthMiddleware(http.HandlerFunc(h.SearchProducts)))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})
	return mux
}
