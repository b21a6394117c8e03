package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockmgtr/internal/calc"
	"github.com/erazemk/stockmgtr/internal/policy"
	"github.com/erazemk/stockmgtr/internal/stockapi"
)

// maxOrderLines bounds the lines accepted by the totals endpoint.
const maxOrderLines = 500

// minSearchLength is the shortest term sent upstream for autocomplete.
const minSearchLength = 2

type sessionResponse struct {
	Authenticated bool                `json:"authenticated"`
	Username      string              `json:"username,omitempty"`
	Role          string              `json:"role,omitempty"`
	Capabilities  []policy.Capability `json:"capabilities"`
}

// Session handles GET /api/session. It answers unauthenticated requests
// too, with authenticated set to false.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess, err := h.lookup(r)
	if err != nil {
		slog.Error("failed to resume session", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sess == nil {
		jsonResponse(w, http.StatusOK, sessionResponse{Capabilities: []policy.Capability{}})
		return
	}
	jsonResponse(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Username:      sess.Username,
		Role:          sess.Role,
		Capabilities:  sess.Caps.Granted(),
	})
}

type totalsRequest struct {
	Items    []calc.LineInput `json:"items"`
	Shipping decimal.Decimal  `json:"shipping"`
}

// OrderTotals handles POST /api/purchase-orders/totals.
func (h *Handler) OrderTotals(w http.ResponseWriter, r *http.Request) {
	var req totalsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) > maxOrderLines {
		jsonError(w, http.StatusBadRequest, "too many lines")
		return
	}
	jsonResponse(w, http.StatusOK, calc.Totals(req.Items, req.Shipping))
}

// SearchProducts handles GET /api/products/search?q=. The request context is
// passed upstream so an aborted browser request cancels the lookup.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r.Context())
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(q)) < minSearchLength {
		jsonResponse(w, http.StatusOK, []stockapi.ProductOption{})
		return
	}

	options, err := sess.API.SearchProducts(r.Context(), q)
	if err != nil {
		upstreamFailure(w, r, err)
		return
	}
	if options == nil {
		options = []stockapi.ProductOption{}
	}
	jsonResponse(w, http.StatusOK, options)
}
