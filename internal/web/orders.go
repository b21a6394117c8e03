package web

import (
	"cmp"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockmgtr/internal/calc"
	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
	"github.com/erazemk/stockmgtr/internal/stockapi"
	"github.com/erazemk/stockmgtr/internal/workflow"
)

// minOrderRows is the number of line rows the order form always shows.
const minOrderRows = 3

// PurchaseOrdersPage handles GET /purchase-orders.
func (s *Server) PurchaseOrdersPage(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	q := r.URL.Query()
	status := q.Get("status")
	if !model.PurchaseOrderStatus(status).Valid() {
		status = ""
	}
	page, err := sess.API.ListPurchaseOrders(r.Context(), stockapi.ListOptions{
		Page:   queryPage(q),
		Status: status,
		Search: q.Get("q"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data := &struct {
		PageData
		Orders    *model.Page[model.PurchaseOrder]
		Statuses  []model.PurchaseOrderStatus
		Status    string
		Search    string
		PrevQuery string
		NextQuery string
	}{
		PageData: s.page(w, r, "Purchase orders"),
		Orders:   page,
		Statuses: model.PurchaseOrderStatuses,
		Status:   status,
		Search:   q.Get("q"),
	}
	if page.HasPrevious() {
		data.PrevQuery = pageQuery(q, queryPage(q)-1)
	}
	if page.HasNext() {
		data.NextQuery = pageQuery(q, queryPage(q)+1)
	}
	s.Templates.Render(w, "purchase_orders.html", data)
}

// orderLine pairs a line with its derived figures.
type orderLine struct {
	model.PurchaseOrderItem
	calc.LineTotals
}

// PurchaseOrderDetailPage handles GET /purchase-orders/{id}.
func (s *Server) PurchaseOrderDetailPage(w http.ResponseWriter, r *http.Request) {
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

	totals := calc.Totals(calc.OrderLines(po.Items), decimal.Zero)
	lines := make([]orderLine, len(po.Items))
	for i, it := range po.Items {
		lines[i] = orderLine{PurchaseOrderItem: it, LineTotals: totals.Lines[i]}
	}

	s.Templates.Render(w, "purchase_order_detail.html", &struct {
		PageData
		Order       *model.PurchaseOrder
		Lines       []orderLine
		Totals      calc.OrderTotals
		ShowAmounts bool
		Actions     workflow.Actions
	}{
		PageData:    s.page(w, r, "Purchase order "+po.ReferenceNumber),
		Order:       po,
		Lines:       lines,
		Totals:      totals,
		ShowAmounts: sess.Caps.Has(policy.ViewPurchaseOrderAmounts),
		Actions:     workflow.PurchaseOrder(po, sess.Caps),
	})
}

type orderFormPage struct {
	PageData
	Order           *model.PurchaseOrder
	Manufacturers   []model.Manufacturer
	DeliveryPersons []model.DeliveryPerson
	Stores          []model.Store
	Rows            []url.Values
}

// orderRows splits the parallel line arrays of the order form into one value
// set per row, padded to minOrderRows.
func orderRows(v url.Values) []url.Values {
	fields := []string{"product", "associated_order_number", "price_inc", "quantity", "discount_percent"}
	n := 0
	for _, f := range fields {
		n = max(n, len(v[f]))
	}
	rows := make([]url.Values, max(n, minOrderRows))
	for i := range rows {
		rows[i] = url.Values{}
		for _, f := range fields {
			if i < len(v[f]) {
				rows[i].Set(f, v[f][i])
			}
		}
	}
	return rows
}

func (s *Server) renderOrderForm(w http.ResponseWriter, r *http.Request, po *model.PurchaseOrder, pd PageData) {
	sess := CurrentSession(r.Context())
	ctx := r.Context()
	manufacturers, err := sess.API.ListManufacturers(ctx, stockapi.ListOptions{PageSize: 200})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	people, err := sess.API.ListDeliveryPersons(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stores, err := sess.API.ListStores(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Templates.Render(w, "purchase_order_form.html", &orderFormPage{
		PageData:        pd,
		Order:           po,
		Manufacturers:   manufacturers.Results,
		DeliveryPersons: people.Results,
		Stores:          stores.Results,
		Rows:            orderRows(pd.Form),
	})
}

// PurchaseOrderNewPage handles GET /purchase-orders/new.
func (s *Server) PurchaseOrderNewPage(w http.ResponseWriter, r *http.Request) {
	pd := s.page(w, r, "New purchase order")
	pd.Form.Set("delivery_type", model.DeliveryStore)
	s.renderOrderForm(w, r, nil, pd)
}

// orderInput reads the order form. Rows left entirely blank are skipped;
// every other check is left to the backend.
func orderInput(f *form) model.PurchaseOrderInput {
	in := model.PurchaseOrderInput{
		ManufacturerID:      f.id("manufacturer_id", "manufacturer"),
		DeliveryPersonID:    f.id("delivery_person_id", "delivery person"),
		DeliveryType:        f.str("delivery_type"),
		StoreID:             f.id("store_id", "store"),
		CreatingStoreID:     f.id("creating_store_id", "store"),
		NoteForManufacturer: f.str("note_for_manufacturer"),
		Items:               []model.PurchaseOrderItemInput{},
	}
	if in.DeliveryType == model.DeliveryDropship {
		in.CustomerName = f.str("customer_name")
		in.CustomerPhone = f.str("customer_phone")
		in.CustomerEmail = f.str("customer_email")
		in.CustomerAddress = f.str("customer_address")
	}

	for i, row := range orderRows(f.values) {
		if strings.TrimSpace(strings.Join([]string{
			row.Get("product"), row.Get("associated_order_number"), row.Get("price_inc"),
			row.Get("quantity"), row.Get("discount_percent"),
		}, "")) == "" {
			continue
		}
		rf := &form{values: row}
		label := fmt.Sprintf("Line %d", i+1)
		item := model.PurchaseOrderItemInput{
			Product:               rf.str("product"),
			AssociatedOrderNumber: rf.str("associated_order_number"),
			PriceInc:              rf.decimal("price_inc", label+" price"),
			Quantity:              rf.int("quantity", label+" quantity"),
			DiscountPercent:       rf.decimal("discount_percent", label+" discount"),
		}
		if !rf.ok() {
			f.invalid("%s", rf.msg)
		}
		in.Items = append(in.Items, item)
	}
	return in
}

// PurchaseOrderCreateSubmit handles POST /purchase-orders.
func (s *Server) PurchaseOrderCreateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	f := newForm(r)
	in := orderInput(f)

	pd := s.page(w, r, "New purchase order")
	pd.Form = f.values
	if !f.ok() {
		pd.Error = f.msg
		s.renderOrderForm(w, r, nil, pd)
		return
	}

	po, err := sess.API.CreatePurchaseOrder(r.Context(), in)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		pd.Error = userMessage(err)
		s.renderOrderForm(w, r, nil, pd)
		return
	}
	slog.Info("purchase order created", "user", sess.Username, "id", po.ID, "reference", po.ReferenceNumber)
	s.redirect(w, r, fmt.Sprintf("/purchase-orders/%d", po.ID), "Purchase order "+po.ReferenceNumber+" created.")
}

// orderFormValues prefills the order form from an existing order. The
// backend returns names for the manufacturer and stores, so those are
// matched back to IDs against the directory lists.
func (s *Server) orderFormValues(r *http.Request, po *model.PurchaseOrder) (url.Values, error) {
	sess := CurrentSession(r.Context())
	v := url.Values{}
	v.Set("delivery_type", po.DeliveryType)
	v.Set("note_for_manufacturer", po.NoteForManufacturer)

	manufacturers, err := sess.API.ListManufacturers(r.Context(), stockapi.ListOptions{PageSize: 200})
	if err != nil {
		return nil, err
	}
	for _, m := range manufacturers.Results {
		if m.CompanyName == po.Manufacturer {
			v.Set("manufacturer_id", strconv.FormatInt(m.ID, 10))
		}
	}
	people, err := sess.API.ListDeliveryPersons(r.Context())
	if err != nil {
		return nil, err
	}
	for _, p := range people.Results {
		if p.Name == po.DeliveryPerson {
			v.Set("delivery_person_id", strconv.FormatInt(p.ID, 10))
		}
	}
	stores, err := sess.API.ListStores(r.Context())
	if err != nil {
		return nil, err
	}
	for _, st := range stores.Results {
		if st.Name == po.Store {
			v.Set("store_id", strconv.FormatInt(st.ID, 10))
		}
		if st.Name == po.CreatingStore {
			v.Set("creating_store_id", strconv.FormatInt(st.ID, 10))
		}
	}

	for _, it := range po.Items {
		v.Add("product", it.Product)
		v.Add("associated_order_number", it.AssociatedOrderNumber)
		v.Add("price_inc", it.PriceInc.StringFixed(2))
		v.Add("quantity", strconv.Itoa(it.Quantity))
		v.Add("discount_percent", it.DiscountPercent.String())
	}
	return v, nil
}

// PurchaseOrderEditPage handles GET /purchase-orders/{id}/edit.
func (s *Server) PurchaseOrderEditPage(w http.ResponseWriter, r *http.Request) {
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
	values, err := s.orderFormValues(r, po)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pd := s.page(w, r, "Edit "+po.ReferenceNumber)
	pd.Form = values
	s.renderOrderForm(w, r, po, pd)
}

// PurchaseOrderUpdateSubmit handles POST /purchase-orders/{id}.
func (s *Server) PurchaseOrderUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	f := newForm(r)
	in := orderInput(f)

	retry := func(msg string) {
		po, err := sess.API.GetPurchaseOrder(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		pd := s.page(w, r, "Edit "+po.ReferenceNumber)
		pd.Form = f.values
		pd.Error = msg
		s.renderOrderForm(w, r, po, pd)
	}
	if !f.ok() {
		retry(f.msg)
		return
	}
	po, err := sess.API.UpdatePurchaseOrder(r.Context(), id, in)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		retry(userMessage(err))
		return
	}
	slog.Info("purchase order updated", "user", sess.Username, "id", id, "reference", po.ReferenceNumber)
	s.redirect(w, r, fmt.Sprintf("/purchase-orders/%d", id), "Purchase order updated.")
}

// PurchaseOrderDeleteSubmit handles POST /purchase-orders/{id}/delete.
func (s *Server) PurchaseOrderDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if err := sess.API.DeletePurchaseOrder(r.Context(), id); err != nil {
		s.actionFailed(w, r, err, fmt.Sprintf("/purchase-orders/%d", id))
		return
	}
	slog.Info("purchase order deleted", "user", sess.Username, "id", id)
	s.redirect(w, r, "/purchase-orders", "Purchase order deleted.")
}

// PurchaseOrderActionSubmit handles POST /purchase-orders/{id}/{action}.
func (s *Server) PurchaseOrderActionSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	name := r.PathValue("action")
	if !slices.Contains(stockapi.PurchaseOrderActions, name) {
		s.notFound(w, r)
		return
	}
	if !workflow.AllowedPurchaseOrder(name, sess.Caps) {
		s.forbidden(w, r)
		return
	}
	back := fmt.Sprintf("/purchase-orders/%d", id)
	msg, err := sess.API.PurchaseOrderAction(r.Context(), id, name)
	if err != nil {
		s.actionFailed(w, r, err, back)
		return
	}
	slog.Info("purchase order "+name, "user", sess.Username, "id", id)
	s.redirect(w, r, back, msg.Message)
}

func (s *Server) renderReceiveForm(w http.ResponseWriter, r *http.Request, id int64, pd PageData) {
	sess := CurrentSession(r.Context())
	po, err := sess.API.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stores, err := sess.API.ListStores(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if pd.Title == "" {
		pd.Title = "Receive " + po.ReferenceNumber
	}
	s.Templates.Render(w, "purchase_order_receive.html", &struct {
		PageData
		Order  *model.PurchaseOrder
		Stores []model.Store
	}{PageData: pd, Order: po, Stores: stores.Results})
}

// PurchaseOrderReceivePage handles GET /purchase-orders/{id}/receive.
func (s *Server) PurchaseOrderReceivePage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	pd := s.page(w, r, "")
	pd.Form.Set("delivery_date", model.NewDate(time.Now()).String())
	s.renderReceiveForm(w, r, id, pd)
}

// PurchaseOrderReceiveSubmit handles POST /purchase-orders/{id}/receive.
// Each line's quantity is posted as received_<line id>.
func (s *Server) PurchaseOrderReceiveSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	f := newForm(r)
	in := model.ReceiveOrderInput{
		ReceivingStoreID: f.id("receiving_store_id", "receiving store"),
		DeliveryDate:     f.date("delivery_date", "Delivery date"),
		Notes:            f.str("notes"),
		Aisle:            f.str("aisle"),
	}
	for key := range f.values {
		lineID, found := strings.CutPrefix(key, "received_")
		if !found || f.str(key) == "" {
			continue
		}
		n, err := strconv.ParseInt(lineID, 10, 64)
		if err != nil {
			continue
		}
		in.Items = append(in.Items, model.ReceiveLine{ID: n, ReceivedQuantity: f.int(key, "Received quantity")})
	}
	slices.SortFunc(in.Items, func(a, b model.ReceiveLine) int { return cmp.Compare(a.ID, b.ID) })

	if f.ok() {
		msg, err := sess.API.ReceivePurchaseOrder(r.Context(), id, in)
		if err == nil {
			slog.Info("purchase order received", "user", sess.Username, "id", id, "store", in.ReceivingStoreID)
			s.redirect(w, r, fmt.Sprintf("/purchase-orders/%d", id), msg.Message)
			return
		}
		if s.expired(w, r, err) {
			return
		}
		f.invalid("%s", userMessage(err))
	}

	pd := s.page(w, r, "")
	pd.Form = f.values
	pd.Error = f.msg
	s.renderReceiveForm(w, r, id, pd)
}

func (s *Server) renderInvoiceForm(w http.ResponseWriter, r *http.Request, id int64, pd PageData) {
	sess := CurrentSession(r.Context())
	po, err := sess.API.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if pd.Title == "" {
		pd.Title = "Invoice for " + po.ReferenceNumber
	}
	s.Templates.Render(w, "invoice_form.html", &struct {
		PageData
		Order *model.PurchaseOrder
	}{PageData: pd, Order: po})
}

// InvoiceNewPage handles GET /purchase-orders/{id}/invoice.
func (s *Server) InvoiceNewPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	pd := s.page(w, r, "")
	today := model.NewDate(time.Now())
	pd.Form.Set("invoice_date", today.String())
	pd.Form.Set("due_date", model.NewDate(today.AddDate(0, 0, 30)).String())
	s.renderInvoiceForm(w, r, id, pd)
}

// InvoiceCreateSubmit handles POST /purchase-orders/{id}/invoice. GST and
// total are derived from the ex-GST amount when left blank.
func (s *Server) InvoiceCreateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	f, file := newUploadForm(w, r, "invoice_file")
	in := model.InvoiceInput{
		InvoiceNumber:    f.str("invoice_number"),
		InvoiceDate:      f.date("invoice_date", "Invoice date"),
		DueDate:          f.date("due_date", "Due date"),
		InvoiceAmountExc: f.decimal("invoice_amount_exc", "Amount (ex GST)"),
		GSTAmount:        f.decimal("gst_amount", "GST"),
		InvoiceTotal:     f.decimal("invoice_total", "Total"),
		Notes:            f.str("notes"),
		File:             file,
	}
	if f.str("gst_amount") == "" || f.str("invoice_total") == "" {
		gst, total := calc.InvoiceAmounts(in.InvoiceAmountExc)
		if f.str("gst_amount") == "" {
			in.GSTAmount = gst
		}
		if f.str("invoice_total") == "" {
			in.InvoiceTotal = total
		}
	}

	if f.ok() {
		inv, err := sess.API.CreateInvoice(r.Context(), id, in)
		if err == nil {
			slog.Info("invoice created", "user", sess.Username, "purchase_order", id, "invoice", inv.InvoiceNumber)
			s.redirect(w, r, fmt.Sprintf("/invoices/%d", inv.ID), "Invoice "+inv.InvoiceNumber+" created.")
			return
		}
		if s.expired(w, r, err) {
			return
		}
		f.invalid("%s", userMessage(err))
	}

	pd := s.page(w, r, "")
	pd.Form = f.values
	pd.Error = f.msg
	s.renderInvoiceForm(w, r, id, pd)
}
