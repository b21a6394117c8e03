package stockapitest

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
)

// stockView returns the stock line with its derived quantities filled in.
func (b *Backend) stockView(id int64) model.Stock {
	st, ok := b.stock[id]
	if !ok {
		return model.Stock{ID: id}
	}
	out := *st
	out.ReservedQuantity = 0
	for _, r := range b.reservations {
		if r.Stock.ID == id && r.Status == model.ReservationActive {
			out.ReservedQuantity += r.Quantity
		}
	}
	out.CommittedQuantity = 0
	for _, c := range b.committed {
		if c.Stock.ID == id && !c.IsFulfilled {
			out.CommittedQuantity += c.Quantity
		}
	}
	out.AvailableForSale = max(out.Quantity-out.ReservedQuantity-out.CommittedQuantity, 0)
	out.IsLowStock = out.Quantity <= out.ReOrder
	out.Locations = nil
	if out.Location != nil {
		out.Locations = []model.StockLocation{{
			ID: id, Store: *out.Location, StoreID: out.Location.ID, Quantity: out.Quantity,
			Aisle: out.Aisle, LastUpdated: out.LastUpdated, IsLowStock: out.IsLowStock,
		}}
	}
	return out
}

// Quantity returns the on-hand quantity of a stock line.
func (b *Backend) Quantity(id int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.stock[id]; ok {
		return st.Quantity
	}
	return 0
}

func (b *Backend) findStock(w http.ResponseWriter, r *http.Request) *model.Stock {
	st, ok := b.stock[pathID(r)]
	if !ok {
		notFound(w)
		return nil
	}
	return st
}

func (b *Backend) listStock(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ViewStock) {
		return
	}
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	location, _ := strconv.ParseInt(q.Get("location"), 10, 64)

	var out []model.Stock
	for _, st := range sorted(b.stock) {
		v := b.stockView(st.ID)
		if search != "" && !strings.Contains(strings.ToLower(v.ItemName), search) &&
			!strings.Contains(strings.ToLower(v.SKU), search) {
			continue
		}
		if c := q.Get("condition"); c != "" && string(v.Condition) != c {
			continue
		}
		if q.Get("is_low_stock") == "true" && !v.IsLowStock {
			continue
		}
		if location != 0 && (v.Location == nil || v.Location.ID != location) {
			continue
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *Backend) lowStock(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ViewStock) {
		return
	}
	var out []model.Stock
	for _, st := range sorted(b.stock) {
		if v := b.stockView(st.ID); v.IsLowStock {
			out = append(out, v)
		}
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *Backend) getStock(w http.ResponseWriter, r *http.Request, a *Account) {
	if st := b.findStock(w, r); st != nil {
		writeJSON(w, http.StatusOK, b.stockView(st.ID))
	}
}

func (b *Backend) applyStockInput(st *model.Stock, in model.StockInput) {
	if in.CategoryID != 0 {
		st.Category = b.categories[in.CategoryID]
	}
	if in.ItemName != "" {
		st.ItemName = in.ItemName
	}
	if in.SKU != "" {
		st.SKU = in.SKU
	}
	if in.Quantity != nil {
		st.Quantity = *in.Quantity
	}
	if in.Condition != "" {
		st.Condition = in.Condition
	}
	if in.LocationID != 0 {
		st.Location = b.stores[in.LocationID]
	}
	if in.Aisle != "" {
		st.Aisle = in.Aisle
	}
	if in.Note != "" {
		st.Note = in.Note
	}
	if in.ReOrder != nil {
		st.ReOrder = *in.ReOrder
	}
	if in.WarehouseName != "" {
		st.WarehouseName = in.WarehouseName
	}
	st.LastUpdated = time.Now().UTC()
}

func (b *Backend) createStock(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.CreateStock) {
		return
	}
	var in model.StockInput
	if !decodeBody(w, r, &in) {
		return
	}
	errs := map[string][]string{}
	if in.ItemName == "" {
		errs["item_name"] = []string{"This field is required."}
	}
	if in.LocationID != 0 && b.stores[in.LocationID] == nil {
		errs["location_id"] = []string{"Invalid pk \"" + strconv.FormatInt(in.LocationID, 10) + "\" - object does not exist."}
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		errs["quantity"] = []string{"Ensure this value is greater than or equal to 0."}
	}
	if fieldErrors(w, errs) {
		return
	}
	st := &model.Stock{ID: b.next(), Condition: model.ConditionNew}
	b.applyStockInput(st, in)
	b.stock[st.ID] = st
	writeJSON(w, http.StatusCreated, b.stockView(st.ID))
}

func (b *Backend) updateStock(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.EditStock) {
		return
	}
	st := b.findStock(w, r)
	if st == nil {
		return
	}
	var in model.StockInput
	if !decodeBody(w, r, &in) {
		return
	}
	b.applyStockInput(st, in)
	writeJSON(w, http.StatusOK, b.stockView(st.ID))
}

func (b *Backend) deleteStock(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.EditStock) {
		return
	}
	st := b.findStock(w, r)
	if st == nil {
		return
	}
	delete(b.stock, st.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) stockHistory(w http.ResponseWriter, r *http.Request, a *Account) {
	st := b.findStock(w, r)
	if st == nil {
		return
	}
	h := b.history[st.ID]
	if h == nil {
		h = []model.StockHistory{}
	}
	writeJSON(w, http.StatusOK, h)
}

func (b *Backend) record(st *model.Stock, h model.StockHistory) {
	now := time.Now().UTC()
	h.ID = b.next()
	h.ItemName = st.ItemName
	h.Quantity = st.Quantity
	h.Timestamp = &now
	b.history[st.ID] = append(b.history[st.ID], h)
	st.LastUpdated = now
}

func (b *Backend) issueStock(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.IssueStock) {
		return
	}
	st := b.findStock(w, r)
	if st == nil {
		return
	}
	var in model.IssueInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "Quantity must be positive")
		return
	}
	if in.Quantity > st.Quantity {
		writeError(w, http.StatusBadRequest, "Insufficient stock. Available: "+strconv.Itoa(st.Quantity))
		return
	}
	st.Quantity -= in.Quantity
	b.record(st, model.StockHistory{IssueQuantity: in.Quantity, IssuedBy: in.IssuedBy, Note: in.Note, CreatedBy: a.Username})
	v := b.stockView(st.ID)
	writeJSON(w, http.StatusOK, model.MovementResult{
		Message: "Stock issued successfully", NewQuantity: v.Quantity, AvailableForSale: v.AvailableForSale,
	})
}

func (b *Backend) receiveStock(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ReceiveStock) {
		return
	}
	st := b.findStock(w, r)
	if st == nil {
		return
	}
	var in model.ReceiveInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "Quantity must be positive")
		return
	}
	st.Quantity += in.Quantity
	if in.Aisle != "" {
		st.Aisle = in.Aisle
	}
	b.record(st, model.StockHistory{ReceiveQuantity: in.Quantity, ReceivedBy: in.ReceivedBy, Note: in.Note, CreatedBy: a.Username})
	v := b.stockView(st.ID)
	writeJSON(w, http.StatusOK, model.MovementResult{
		Message: "Stock received successfully", NewQuantity: v.Quantity, AvailableForSale: v.AvailableForSale,
	})
}

func (b *Backend) newReservation(w http.ResponseWriter, a *Account, stockID int64, in model.ReservationInput) {
	st, ok := b.stock[stockID]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"stock_id": {"Stock not found."}})
		return
	}
	errs := map[string][]string{}
	if in.Quantity <= 0 {
		errs["quantity"] = []string{"Ensure this value is greater than or equal to 1."}
	}
	if in.Reason == "" {
		errs["reason"] = []string{"This field is required."}
	}
	if in.ExpiresAt.IsZero() {
		errs["expires_at"] = []string{"This field is required."}
	}
	if fieldErrors(w, errs) {
		return
	}
	if avail := b.stockView(st.ID).AvailableForSale; in.Quantity > avail {
		writeError(w, http.StatusBadRequest, "Cannot reserve "+strconv.Itoa(in.Quantity)+" units. Only "+strconv.Itoa(avail)+" available.")
		return
	}
	res := &model.Reservation{
		ID: b.next(), Stock: model.Stock{ID: st.ID}, Quantity: in.Quantity,
		ReservationType: in.ReservationType, Status: model.ReservationActive,
		CustomerName: in.CustomerName, CustomerPhone: in.CustomerPhone, CustomerEmail: in.CustomerEmail,
		ReferenceNumber: in.ReferenceNumber, Reason: in.Reason, Notes: in.Notes,
		ReservedBy: a.user(), ReservedAt: time.Now().UTC(), ExpiresAt: in.ExpiresAt,
	}
	if res.ReservationType == "" {
		res.ReservationType = model.ReservationOther
	}
	b.reservations[res.ID] = res
	writeJSON(w, http.StatusCreated, b.reservationView(res))
}

func (b *Backend) reserveStock(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ReserveStock) {
		return
	}
	var in model.ReservationInput
	if !decodeBody(w, r, &in) {
		return
	}
	id := pathID(r)
	if _, ok := b.stock[id]; !ok {
		notFound(w)
		return
	}
	b.newReservation(w, a, id, in)
}

func (b *Backend) commitStock(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.CommitStock) {
		return
	}
	st := b.findStock(w, r)
	if st == nil {
		return
	}
	var in model.CommitInput
	if !decodeBody(w, r, &in) {
		return
	}
	errs := map[string][]string{}
	if in.Quantity <= 0 {
		errs["quantity"] = []string{"Ensure this value is greater than or equal to 1."}
	}
	if in.CustomerOrderNumber == "" {
		errs["customer_order_number"] = []string{"This field is required."}
	}
	if in.CustomerName == "" {
		errs["customer_name"] = []string{"This field is required."}
	}
	if fieldErrors(w, errs) {
		return
	}
	if avail := b.stockView(st.ID).AvailableForSale; in.Quantity > avail {
		writeError(w, http.StatusBadRequest, "Insufficient available stock. Available for sale: "+strconv.Itoa(avail))
		return
	}
	c := &model.CommittedStock{
		ID: b.next(), Stock: model.Stock{ID: st.ID}, Quantity: in.Quantity,
		CustomerOrderNumber: in.CustomerOrderNumber, DepositAmount: in.DepositAmount,
		CustomerName: in.CustomerName, CustomerPhone: in.CustomerPhone, CustomerEmail: in.CustomerEmail,
		Notes: in.Notes, CommittedBy: a.user(), CommittedAt: time.Now().UTC(),
	}
	b.committed[c.ID] = c
	writeJSON(w, http.StatusCreated, b.commitmentView(c))
}

func (b *Backend) commitmentView(c *model.CommittedStock) model.CommittedStock {
	out := *c
	out.Stock = b.stockView(c.Stock.ID)
	return out
}

func (b *Backend) listCommitted(w http.ResponseWriter, r *http.Request, a *Account) {
	var out []model.CommittedStock
	for _, c := range sorted(b.committed) {
		out = append(out, b.commitmentView(c))
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *Backend) fulfillCommitment(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.FulfillCommitment) {
		return
	}
	c, ok := b.committed[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	if c.IsFulfilled {
		writeError(w, http.StatusBadRequest, "Commitment is already fulfilled")
		return
	}
	now := time.Now().UTC()
	c.IsFulfilled = true
	c.FulfilledAt = &now
	if st, ok := b.stock[c.Stock.ID]; ok {
		st.Quantity -= c.Quantity
		b.record(st, model.StockHistory{IssueQuantity: c.Quantity, Note: "Commitment " + c.CustomerOrderNumber + " fulfilled", CreatedBy: a.Username})
	}
	message(w, "Commitment fulfilled successfully")
}

func (b *Backend) reservationView(res *model.Reservation) model.Reservation {
	out := *res
	out.Stock = b.stockView(res.Stock.ID)
	return out
}

func (b *Backend) listReservations(w http.ResponseWriter, r *http.Request, a *Account) {
	status := r.URL.Query().Get("status")
	var out []model.Reservation
	for _, res := range sorted(b.reservations) {
		if status != "" && string(res.Status) != status {
			continue
		}
		out = append(out, b.reservationView(res))
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *Backend) activeReservations(w http.ResponseWriter, r *http.Request, a *Account) {
	var out []model.Reservation
	for _, res := range sorted(b.reservations) {
		if res.Status == model.ReservationActive {
			out = append(out, b.reservationView(res))
		}
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *Backend) getReservation(w http.ResponseWriter, r *http.Request, a *Account) {
	res, ok := b.reservations[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, b.reservationView(res))
}

func (b *Backend) createReservation(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ReserveStock) {
		return
	}
	var in model.ReservationInput
	if !decodeBody(w, r, &in) {
		return
	}
	b.newReservation(w, a, in.StockID, in)
}

func (b *Backend) reservationAction(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ReserveStock) {
		return
	}
	res, ok := b.reservations[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	if res.Status != model.ReservationActive {
		writeError(w, http.StatusBadRequest, "Reservation is not active")
		return
	}
	now := time.Now().UTC()
	switch r.PathValue("action") {
	case "fulfill":
		st, ok := b.stock[res.Stock.ID]
		if !ok || st.Quantity < res.Quantity {
			writeError(w, http.StatusBadRequest, "Insufficient stock to fulfill reservation")
			return
		}
		res.Status = model.ReservationFulfilled
		res.FulfilledAt = &now
		st.Quantity -= res.Quantity
		b.record(st, model.StockHistory{IssueQuantity: res.Quantity, Note: "Reservation fulfilled", CreatedBy: a.Username})
		message(w, "Reservation fulfilled successfully")
	case "cancel":
		res.Status = model.ReservationCancelled
		res.CancelledAt = &now
		message(w, "Reservation cancelled successfully")
	default:
		notFound(w)
	}
}

func (b *Backend) transferView(t *model.Transfer) model.Transfer {
	out := *t
	out.Stock = b.stockView(t.Stock.ID)
	return out
}

func (b *Backend) listTransfers(w http.ResponseWriter, r *http.Request, a *Account) {
	status := r.URL.Query().Get("status")
	var out []model.Transfer
	for _, t := range sorted(b.transfers) {
		if status != "" && string(t.Status) != status {
			continue
		}
		out = append(out, b.transferView(t))
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *Backend) getTransfer(w http.ResponseWriter, r *http.Request, a *Account) {
	t, ok := b.transfers[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, b.transferView(t))
}

func (b *Backend) createTransfer(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.TransferStock) {
		return
	}
	var in model.TransferInput
	if !decodeBody(w, r, &in) {
		return
	}
	errs := map[string][]string{}
	st, ok := b.stock[in.StockID]
	if !ok {
		errs["stock_id"] = []string{"Stock not found."}
	}
	from, to := b.stores[in.FromLocationID], b.stores[in.ToLocationID]
	if from == nil {
		errs["from_location_id"] = []string{"This field is required."}
	}
	if to == nil {
		errs["to_location_id"] = []string{"This field is required."}
	}
	if in.Quantity <= 0 {
		errs["quantity"] = []string{"Ensure this value is greater than or equal to 1."}
	}
	if fieldErrors(w, errs) {
		return
	}
	if from.ID == to.ID {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"non_field_errors": {"Source and destination locations must be different."},
		})
		return
	}
	if in.Quantity > st.Quantity {
		writeError(w, http.StatusBadRequest, "Insufficient stock. Available: "+strconv.Itoa(st.Quantity))
		return
	}
	t := &model.Transfer{
		ID: b.next(), Stock: model.Stock{ID: st.ID}, Quantity: in.Quantity,
		FromLocation: *from, ToLocation: *to, FromAisle: in.FromAisle, ToAisle: in.ToAisle,
		TransferType: in.TransferType, TransferReason: in.TransferReason,
		CustomerName: in.CustomerName, CustomerPhone: in.CustomerPhone, Notes: in.Notes,
		Status: model.TransferPending, CreatedBy: a.user(), CreatedAt: time.Now().UTC(),
	}
	if t.TransferType == "" {
		t.TransferType = model.TransferGeneral
	}
	b.transfers[t.ID] = t
	writeJSON(w, http.StatusCreated, b.transferView(t))
}

var transferMoves = map[string]struct {
	from []model.TransferStatus
	to   model.TransferStatus
}{
	"approve":  {[]model.TransferStatus{model.TransferPending}, model.TransferApproved},
	"dispatch": {[]model.TransferStatus{model.TransferApproved}, model.TransferInTransit},
	"complete": {[]model.TransferStatus{model.TransferInTransit}, model.TransferCompleted},
	"collect":  {[]model.TransferStatus{model.TransferAwaitingCollection}, model.TransferCollected},
	"cancel":   {[]model.TransferStatus{model.TransferPending, model.TransferInTransit}, model.TransferCancelled},
}

func (b *Backend) transferAction(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.TransferStock) {
		return
	}
	t, ok := b.transfers[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	name := r.PathValue("action")
	move, ok := transferMoves[name]
	if !ok {
		notFound(w)
		return
	}
	if !slices.Contains(move.from, t.Status) {
		writeError(w, http.StatusBadRequest, "Cannot "+name+" transfer with status '"+string(t.Status)+"'")
		return
	}
	now := time.Now().UTC()
	t.Status = move.to
	switch name {
	case "approve":
		t.ApprovedBy = a.user()
		t.ApprovedAt = &now
	case "dispatch":
		if t.TransferType == model.TransferCustomerCollection {
			t.Status = model.TransferAwaitingCollection
		}
	case "complete":
		t.CompletedAt = &now
		if st, ok := b.stock[t.Stock.ID]; ok {
			to := t.ToLocation
			st.Location = &to
			if t.ToAisle != "" {
				st.Aisle = t.ToAisle
			}
			st.LastUpdated = now
		}
	case "collect":
		t.CollectedAt = &now
		if st, ok := b.stock[t.Stock.ID]; ok {
			st.Quantity -= t.Quantity
			b.record(st, model.StockHistory{IssueQuantity: t.Quantity, Note: "Collected by " + t.CustomerName, CreatedBy: a.Username})
		}
	}
	message(w, "Transfer "+string(t.Status))
}
