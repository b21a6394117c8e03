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

// ReservationsPage handles GET /reservations.
func (s *Server) ReservationsPage(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	q := r.URL.Query()
	status := q.Get("status")
	if !model.ReservationStatus(status).Valid() {
		status = ""
	}
	page, err := sess.API.ListReservations(r.Context(), stockapi.ListOptions{Page: queryPage(q), Status: status})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data := &struct {
		PageData
		Reservations *model.Page[model.Reservation]
		Statuses     []model.ReservationStatus
		Status       string
		PrevQuery    string
		NextQuery    string
	}{
		PageData:     s.page(w, r, "Reservations"),
		Reservations: page,
		Statuses:     model.ReservationStatuses,
		Status:       status,
	}
	if page.HasPrevious() {
		data.PrevQuery = pageQuery(q, queryPage(q)-1)
	}
	if page.HasNext() {
		data.NextQuery = pageQuery(q, queryPage(q)+1)
	}
	s.Templates.Render(w, "reservations.html", data)
}

// ReservationDetailPage handles GET /reservations/{id}.
func (s *Server) ReservationDetailPage(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	res, err := sess.API.GetReservation(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Templates.Render(w, "reservation_detail.html", &struct {
		PageData
		Reservation *model.Reservation
		Actions     workflow.Actions
	}{
		PageData:    s.page(w, r, "Reservation"),
		Reservation: res,
		Actions:     workflow.Reservation(res, sess.Caps),
	})
}

func (s *Server) renderReservationForm(w http.ResponseWriter, r *http.Request, pd PageData) {
	sess := CurrentSession(r.Context())
	stock, err := sess.API.ListStock(r.Context(), model.StockFilter{PageSize: 100})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Templates.Render(w, "reservation_form.html", &struct {
		PageData
		Stock []model.Stock
		Types []string
	}{
		PageData: pd,
		Stock:    stock.Results,
		Types:    model.ReservationTypes,
	})
}

// ReservationNewPage handles GET /reservations/new. The stock line may be
// preselected with ?stock=ID.
func (s *Server) ReservationNewPage(w http.ResponseWriter, r *http.Request) {
	pd := s.page(w, r, "New reservation")
	pd.Form.Set("stock_id", r.URL.Query().Get("stock"))
	pd.Form.Set("reservation_type", model.ReservationHold)
	s.renderReservationForm(w, r, pd)
}

// ReservationCreateSubmit handles POST /reservations.
func (s *Server) ReservationCreateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	f := newForm(r)
	in := reservationInput(f, "")
	in.StockID = f.id("stock_id", "stock item")
	if in.ReservationType != "" && !slices.Contains(model.ReservationTypes, in.ReservationType) {
		f.invalid("Unknown reservation type.")
	}

	pd := s.page(w, r, "New reservation")
	pd.Form = f.values
	if !f.ok() {
		pd.Error = f.msg
		s.renderReservationForm(w, r, pd)
		return
	}

	res, err := sess.API.CreateReservation(r.Context(), in)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		pd.Error = userMessage(err)
		s.renderReservationForm(w, r, pd)
		return
	}
	slog.Info("reservation created", "user", sess.Username, "id", res.ID, "stock", in.StockID, "quantity", in.Quantity)
	s.redirect(w, r, fmt.Sprintf("/reservations/%d", res.ID), "Reservation created.")
}

// ReservationActionSubmit handles POST /reservations/{id}/{action}.
func (s *Server) ReservationActionSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	back := "/reservations/" + strconv.FormatInt(id, 10)

	var (
		msg *stockapi.Message
		err error
	)
	switch name := r.PathValue("action"); name {
	case workflow.Fulfill:
		msg, err = sess.API.FulfillReservation(r.Context(), id)
	case workflow.Cancel:
		msg, err = sess.API.CancelReservation(r.Context(), id)
	default:
		s.notFound(w, r)
		return
	}
	if err != nil {
		s.actionFailed(w, r, err, back)
		return
	}
	slog.Info("reservation "+r.PathValue("action"), "user", sess.Username, "id", id)
	s.redirect(w, r, back, msg.Message)
}
