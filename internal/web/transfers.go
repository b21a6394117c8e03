package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/stockapi"
	"github.com/erazemk/stockmgtr/internal/workflow"
)

// TransfersPage handles GET /transfers.
func (s *Server) TransfersPage(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	q := r.URL.Query()
	status := q.Get("status")
	if !model.TransferStatus(status).Valid() {
		status = ""
	}
	page, err := sess.API.ListTransfers(r.Context(), stockapi.ListOptions{Page: queryPage(q), Status: status})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data := &struct {
		PageData
		Transfers *model.Page[model.Transfer]
		Statuses  []model.TransferStatus
		Status    string
		PrevQuery string
		NextQuery string
	}{
		PageData:  s.page(w, r, "Transfers"),
		Transfers: page,
		Statuses:  model.TransferStatuses,
		Status:    status,
	}
	if page.HasPrevious() {
		data.PrevQuery = pageQuery(q, queryPage(q)-1)
	}
	if page.HasNext() {
		data.NextQuery = pageQuery(q, queryPage(q)+1)
	}
	s.Templates.Render(w, "transfers.html", data)
}

// TransferDetailPage handles GET /transfers/{id}.
func (s *Server) TransferDetailPage(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	t, err := sess.API.GetTransfer(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Templates.Render(w, "transfer_detail.html", &struct {
		PageData
		Transfer *model.Transfer
		Actions  workflow.Actions
	}{
		PageData: s.page(w, r, "Transfer"),
		Transfer: t,
		Actions:  workflow.Transfer(t, sess.Caps),
	})
}

func (s *Server) renderTransferForm(w http.ResponseWriter, r *http.Request, pd PageData) {
	sess := CurrentSession(r.Context())
	stock, err := sess.API.ListStock(r.Context(), model.StockFilter{PageSize: 100})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stores, err := sess.API.ListStores(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Templates.Render(w, "transfer_form.html", &struct {
		PageData
		Stock  []model.Stock
		Stores []model.Store
		Types  []string
	}{
		PageData: pd,
		Stock:    stock.Results,
		Stores:   stores.Results,
		Types:    model.TransferTypes,
	})
}

// TransferNewPage handles GET /transfers/new. The stock line may be
// preselected with ?stock=ID.
func (s *Server) TransferNewPage(w http.ResponseWriter, r *http.Request) {
	pd := s.page(w, r, "New transfer")
	pd.Form.Set("stock_id", r.URL.Query().Get("stock"))
	pd.Form.Set("transfer_type", model.TransferGeneral)
	s.renderTransferForm(w, r, pd)
}

// TransferCreateSubmit handles POST /transfers.
func (s *Server) TransferCreateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	f := newForm(r)
	in := model.TransferInput{
		StockID:        f.id("stock_id", "stock item"),
		Quantity:       f.int("quantity", "Quantity"),
		FromLocationID: f.id("from_location_id", "from location"),
		ToLocationID:   f.id("to_location_id", "to location"),
		FromAisle:      f.str("from_aisle"),
		ToAisle:        f.str("to_aisle"),
		TransferType:   f.str("transfer_type"),
		TransferReason: f.str("transfer_reason"),
		CustomerName:   f.str("customer_name"),
		CustomerPhone:  f.str("customer_phone"),
		Notes:          f.str("notes"),
	}
	if in.TransferType != "" && !slices.Contains(model.TransferTypes, in.TransferType) {
		f.invalid("Unknown transfer type.")
	}

	pd := s.page(w, r, "New transfer")
	pd.Form = f.values
	if !f.ok() {
		pd.Error = f.msg
		s.renderTransferForm(w, r, pd)
		return
	}

	t, err := sess.API.CreateTransfer(r.Context(), in)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		slog.Warn("transfer creation failed", "error", err, "user", sess.Username)
		pd.Error = userMessage(err)
		s.renderTransferForm(w, r, pd)
		return
	}

	slog.Info("transfer created", "user", sess.Username, "id", t.ID,
		"stock", in.StockID, "quantity", in.Quantity,
		"from", t.FromLocation.Name, "to", t.ToLocation.Name)
	s.redirect(w, r, fmt.Sprintf("/transfers/%d", t.ID), "Transfer requested.")
}

// TransferActionSubmit handles POST /transfers/{id}/{action}.
func (s *Server) TransferActionSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	name := r.PathValue("action")
	if !slices.Contains(stockapi.TransferActions, name) {
		s.notFound(w, r)
		return
	}
	back := "/transfers/" + strconv.FormatInt(id, 10)
	msg, err := sess.API.TransferAction(r.Context(), id, name)
	if err != nil {
		s.actionFailed(w, r, err, back)
		return
	}
	slog.Info("transfer "+name, "user", sess.Username, "id", id)
	s.redirect(w, r, back, msg.Message)
}
