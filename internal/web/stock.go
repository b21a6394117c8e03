package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/stockapi"
)

type stockListPage struct {
	PageData
	Stock      *model.Page[model.Stock]
	Stores     []model.Store
	Conditions []model.Condition
	Query      url.Values
	PrevQuery  string
	NextQuery  string
}

// pageQuery returns q with page replaced by n.
func pageQuery(q url.Values, n int) string {
	out := url.Values{}
	for k, v := range q {
		out[k] = v
	}
	out.Set("page", strconv.Itoa(n))
	return out.Encode()
}

func queryPage(q url.Values) int {
	n, _ := strconv.Atoi(q.Get("page"))
	if n < 1 {
		return 1
	}
	return n
}

// StockPage handles GET /stock.
func (s *Server) StockPage(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	q := r.URL.Query()
	locationID, _ := strconv.ParseInt(q.Get("location"), 10, 64)
	filter := model.StockFilter{
		Search:     q.Get("q"),
		Condition:  model.Condition(q.Get("condition")),
		LowStock:   q.Get("low") == "1",
		LocationID: locationID,
		Page:       queryPage(q),
	}
	if !filter.Condition.Valid() {
		filter.Condition = ""
	}

	stock, err := sess.API.ListStock(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stores, err := sess.API.ListStores(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data := &stockListPage{
		PageData:   s.page(w, r, "Stock"),
		Stock:      stock,
		Stores:     stores.Results,
		Conditions: model.Conditions,
		Query:      q,
	}
	if stock.HasPrevious() {
		data.PrevQuery = pageQuery(q, filter.Page-1)
	}
	if stock.HasNext() {
		data.NextQuery = pageQuery(q, filter.Page+1)
	}
	s.Templates.Render(w, "stock_list.html", data)
}

type stockDetailPage struct {
	PageData
	Stock        *model.Stock
	History      []model.StockHistory
	Reservations []model.Reservation
	Stores       []model.Store
	Types        []string
}

func (s *Server) renderStockDetail(w http.ResponseWriter, r *http.Request, id int64, pd PageData) {
	sess := CurrentSession(r.Context())
	ctx := r.Context()

	st, err := sess.API.GetStock(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	history, err := sess.API.StockHistory(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	active, err := sess.API.ActiveReservations(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stores, err := sess.API.ListStores(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var reservations []model.Reservation
	for _, res := range active.Results {
		if res.Stock.ID == id {
			reservations = append(reservations, res)
		}
	}

	if pd.Title == "" {
		pd.Title = st.ItemName
	}
	s.Templates.Render(w, "stock_detail.html", &stockDetailPage{
		PageData:     pd,
		Stock:        st,
		History:      history,
		Reservations: reservations,
		Stores:       stores.Results,
		Types:        model.ReservationTypes,
	})
}

// StockDetailPage handles GET /stock/{id}.
func (s *Server) StockDetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	s.renderStockDetail(w, r, id, s.page(w, r, ""))
}

type stockFormPage struct {
	PageData
	Stock      *model.Stock
	Categories []model.Category
	Stores     []model.Store
	Conditions []model.Condition
}

func (s *Server) renderStockForm(w http.ResponseWriter, r *http.Request, st *model.Stock, pd PageData) {
	sess := CurrentSession(r.Context())
	cats, err := sess.API.ListCategories(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stores, err := sess.API.ListStores(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Templates.Render(w, "stock_form.html", &stockFormPage{
		PageData:   pd,
		Stock:      st,
		Categories: cats.Results,
		Stores:     stores.Results,
		Conditions: model.Conditions,
	})
}

// StockNewPage handles GET /stock/new.
func (s *Server) StockNewPage(w http.ResponseWriter, r *http.Request) {
	pd := s.page(w, r, "New stock item")
	pd.Form.Set("condition", string(model.ConditionNew))
	pd.Form.Set("quantity", "0")
	s.renderStockForm(w, r, nil, pd)
}

func stockInput(f *form) model.StockInput {
	in := model.StockInput{
		CategoryID:    f.id("category_id", "category"),
		ItemName:      f.str("item_name"),
		SKU:           f.str("sku"),
		Quantity:      f.optionalInt("quantity", "Quantity"),
		Condition:     model.Condition(f.str("condition")),
		LocationID:    f.id("location_id", "location"),
		Aisle:         f.str("aisle"),
		Note:          f.str("note"),
		ReOrder:       f.optionalInt("re_order", "Re-order level"),
		WarehouseName: f.str("warehouse_name"),
	}
	if in.Condition != "" && !in.Condition.Valid() {
		f.invalid("Unknown condition.")
	}
	return in
}

// StockCreateSubmit handles POST /stock.
func (s *Server) StockCreateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	f := newForm(r)
	in := stockInput(f)

	pd := s.page(w, r, "New stock item")
	pd.Form = f.values
	if !f.ok() {
		pd.Error = f.msg
		s.renderStockForm(w, r, nil, pd)
		return
	}

	st, err := sess.API.CreateStock(r.Context(), in)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		pd.Error = userMessage(err)
		s.renderStockForm(w, r, nil, pd)
		return
	}

	slog.Info("stock item created", "user", sess.Username, "id", st.ID, "item", st.ItemName)
	s.redirect(w, r, fmt.Sprintf("/stock/%d", st.ID), "Stock item created.")
}

func stockFormValues(st *model.Stock) url.Values {
	v := url.Values{}
	if st.Category != nil {
		v.Set("category_id", strconv.FormatInt(st.Category.ID, 10))
	}
	if st.Location != nil {
		v.Set("location_id", strconv.FormatInt(st.Location.ID, 10))
	}
	v.Set("item_name", st.ItemName)
	v.Set("sku", st.SKU)
	v.Set("quantity", strconv.Itoa(st.Quantity))
	v.Set("condition", string(st.Condition))
	v.Set("aisle", st.Aisle)
	v.Set("note", st.Note)
	v.Set("re_order", strconv.Itoa(st.ReOrder))
	v.Set("warehouse_name", st.WarehouseName)
	return v
}

// StockEditPage handles GET /stock/{id}/edit.
func (s *Server) StockEditPage(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	st, err := sess.API.GetStock(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pd := s.page(w, r, "Edit "+st.ItemName)
	pd.Form = stockFormValues(st)
	s.renderStockForm(w, r, st, pd)
}

// StockUpdateSubmit handles POST /stock/{id}.
func (s *Server) StockUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	f := newForm(r)
	in := stockInput(f)

	retry := func(msg string) {
		st, err := sess.API.GetStock(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		pd := s.page(w, r, "Edit "+st.ItemName)
		pd.Form = f.values
		pd.Error = msg
		s.renderStockForm(w, r, st, pd)
	}
	if !f.ok() {
		retry(f.msg)
		return
	}

	st, err := sess.API.UpdateStock(r.Context(), id, in)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		retry(userMessage(err))
		return
	}

	slog.Info("stock item updated", "user", sess.Username, "id", id, "item", st.ItemName)
	s.redirect(w, r, fmt.Sprintf("/stock/%d", id), "Stock item updated.")
}

// StockDeleteSubmit handles POST /stock/{id}/delete.
func (s *Server) StockDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if err := sess.API.DeleteStock(r.Context(), id); err != nil {
		if s.expired(w, r, err) {
			return
		}
		pd := s.page(w, r, "")
		pd.Error = userMessage(err)
		s.renderStockDetail(w, r, id, pd)
		return
	}
	slog.Info("stock item deleted", "user", sess.Username, "id", id)
	s.redirect(w, r, "/stock", "Stock item deleted.")
}

// stockMovement runs a movement form posted from the stock detail page. On
// failure the page is re-rendered with the submitted values.
func (s *Server) stockMovement(w http.ResponseWriter, r *http.Request, name string, run func(api *stockapi.Service, id int64, f *form) (string, error)) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	f := newForm(r)
	msg, err := run(sess.API, id, f)
	if err == nil && f.ok() {
		slog.Info("stock "+name, "user", sess.Username, "id", id)
		s.redirect(w, r, fmt.Sprintf("/stock/%d", id), msg)
		return
	}

	pd := s.page(w, r, "")
	pd.Form = f.values
	if !f.ok() {
		pd.Error = f.msg
	} else {
		if s.expired(w, r, err) {
			return
		}
		pd.Error = userMessage(err)
	}
	s.renderStockDetail(w, r, id, pd)
}

// StockIssueSubmit handles POST /stock/{id}/issue.
func (s *Server) StockIssueSubmit(w http.ResponseWriter, r *http.Request) {
	s.stockMovement(w, r, "issued", func(api *stockapi.Service, id int64, f *form) (string, error) {
		in := model.IssueInput{
			Quantity:   f.int("issue_quantity", "Quantity"),
			IssuedBy:   f.str("issued_by"),
			Note:       f.str("issue_note"),
			LocationID: f.id("issue_location_id", "location"),
		}
		if !f.ok() {
			return "", nil
		}
		res, err := api.IssueStock(r.Context(), id, in)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Issued %d. New quantity: %d.", in.Quantity, res.NewQuantity), nil
	})
}

// StockReceiveSubmit handles POST /stock/{id}/receive.
func (s *Server) StockReceiveSubmit(w http.ResponseWriter, r *http.Request) {
	s.stockMovement(w, r, "received", func(api *stockapi.Service, id int64, f *form) (string, error) {
		in := model.ReceiveInput{
			Quantity:   f.int("receive_quantity", "Quantity"),
			ReceivedBy: f.str("received_by"),
			Note:       f.str("receive_note"),
			LocationID: f.id("receive_location_id", "location"),
			Aisle:      f.str("receive_aisle"),
		}
		if !f.ok() {
			return "", nil
		}
		res, err := api.ReceiveStock(r.Context(), id, in)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Received %d. New quantity: %d.", in.Quantity, res.NewQuantity), nil
	})
}

// defaultReservationWindow is how long a new reservation holds stock unless
// another expiry is given.
const defaultReservationWindow = 7 * 24 * time.Hour

func reservationInput(f *form, prefix string) model.ReservationInput {
	in := model.ReservationInput{
		Quantity:        f.int(prefix+"quantity", "Quantity"),
		ReservationType: f.str(prefix+"reservation_type"),
		CustomerName:    f.str(prefix + "customer_name"),
		CustomerPhone:   f.str(prefix + "customer_phone"),
		CustomerEmail:   f.str(prefix + "customer_email"),
		ReferenceNumber: f.str(prefix + "reference_number"),
		Reason:          f.str(prefix+"reason"),
		Notes:           f.str(prefix + "notes"),
		ExpiresAt:       f.dateTime(prefix+"expires_at", "Expiry"),
	}
	if in.ExpiresAt.IsZero() {
		in.ExpiresAt = time.Now().Add(defaultReservationWindow)
	}
	return in
}

// StockReserveSubmit handles POST /stock/{id}/reserve.
func (s *Server) StockReserveSubmit(w http.ResponseWriter, r *http.Request) {
	s.stockMovement(w, r, "reserved", func(api *stockapi.Service, id int64, f *form) (string, error) {
		in := reservationInput(f, "reserve_")
		if !f.ok() {
			return "", nil
		}
		if _, err := api.ReserveStock(r.Context(), id, in); err != nil {
			return "", err
		}
		return fmt.Sprintf("Reserved %d.", in.Quantity), nil
	})
}

// StockCommitSubmit handles POST /stock/{id}/commit.
func (s *Server) StockCommitSubmit(w http.ResponseWriter, r *http.Request) {
	s.stockMovement(w, r, "committed", func(api *stockapi.Service, id int64, f *form) (string, error) {
		in := model.CommitInput{
			Quantity:            f.int("commit_quantity", "Quantity"),
			CustomerOrderNumber: f.str("customer_order_number"),
			DepositAmount:       f.decimal("deposit_amount", "Deposit"),
			CustomerName:        f.str("commit_customer_name"),
			CustomerPhone:       f.str("commit_customer_phone"),
			CustomerEmail:       f.str("commit_customer_email"),
			Notes:               f.str("commit_notes"),
		}
		if !f.ok() {
			return "", nil
		}
		if _, err := api.CommitStock(r.Context(), id, in); err != nil {
			return "", err
		}
		return fmt.Sprintf("Committed %d to order %s.", in.Quantity, in.CustomerOrderNumber), nil
	})
}

// CommittedPage handles GET /committed.
func (s *Server) CommittedPage(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	q := r.URL.Query()
	page, err := sess.API.ListCommitted(r.Context(), stockapi.ListOptions{Page: queryPage(q)})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data := &struct {
		PageData
		Committed *model.Page[model.CommittedStock]
		PrevQuery string
		NextQuery string
	}{PageData: s.page(w, r, "Committed stock"), Committed: page}
	if page.HasPrevious() {
		data.PrevQuery = pageQuery(q, queryPage(q)-1)
	}
	if page.HasNext() {
		data.NextQuery = pageQuery(q, queryPage(q)+1)
	}
	s.Templates.Render(w, "committed.html", data)
}

// CommittedFulfillSubmit handles POST /committed/{id}/fulfill.
func (s *Server) CommittedFulfillSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	msg, err := sess.API.FulfillCommitment(r.Context(), id)
	if err != nil {
		s.actionFailed(w, r, err, "/committed")
		return
	}
	slog.Info("commitment fulfilled", "user", sess.Username, "id", id)
	s.redirect(w, r, "/committed", msg.Message)
}
