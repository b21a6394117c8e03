package web

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
	"github.com/erazemk/stockmgtr/internal/report"
)

// exportPageSize is the page size used when collecting every stock line.
const exportPageSize = 200

// sendFile writes a rendered document as an attachment. Rendering happens
// into a buffer first so a failure can still produce the error page.
func (s *Server) sendFile(w http.ResponseWriter, r *http.Request, filename, contentType string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		slog.Error("failed to render export", "file", filename, "error", err)
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to send export", "file", filename, "error", err)
	}
}

// StockExport handles GET /stock/export. It honours the same filters as the
// stock list but includes every page.
func (s *Server) StockExport(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	q := r.URL.Query()
	locationID, _ := strconv.ParseInt(q.Get("location"), 10, 64)
	filter := model.StockFilter{
		Search:     q.Get("q"),
		Condition:  model.Condition(q.Get("condition")),
		LowStock:   q.Get("low") == "1",
		LocationID: locationID,
		PageSize:   exportPageSize,
	}
	if !filter.Condition.Valid() {
		filter.Condition = ""
	}

	var stock []model.Stock
	for filter.Page = 1; ; filter.Page++ {
		page, err := sess.API.ListStock(r.Context(), filter)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		stock = append(stock, page.Results...)
		if !page.HasNext() {
			break
		}
	}

	slog.Info("stock exported", "user", sess.Username, "rows", len(stock))
	name := "stock-" + time.Now().Format("20060102") + ".xlsx"
	s.sendFile(w, r, name, report.XLSXContentType, func(out io.Writer) error {
		return report.StockWorkbook(out, stock)
	})
}

// StocktakeExport handles GET /stocktakes/{id}/export.
func (s *Server) StocktakeExport(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	st, err := sess.API.GetStocktake(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := allStocktakeItems(r, sess.API, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	slog.Info("stocktake exported", "user", sess.Username, "id", id, "items", len(items))
	s.sendFile(w, r, st.AuditReference+".xlsx", report.XLSXContentType, func(out io.Writer) error {
		return report.StocktakeWorkbook(out, st, items)
	})
}

// PurchaseOrderPDF handles GET /purchase-orders/{id}/pdf. Amounts are only
// printed for users allowed to see them.
func (s *Server) PurchaseOrderPDF(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	po, err := sess.API.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	withAmounts := sess.Caps.Has(policy.ViewPurchaseOrderAmounts)
	s.sendFile(w, r, po.ReferenceNumber+".pdf", report.PDFContentType, func(out io.Writer) error {
		return report.PurchaseOrderPDF(out, po, withAmounts)
	})
}
