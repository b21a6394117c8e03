package stockapitest

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
)

const maxUpload = 10 << 20

func (b *Backend) purchaseOrderView(po *model.PurchaseOrder) model.PurchaseOrder {
	out := *po
	out.Items = slices.Clone(po.Items)
	out.Invoices = nil
	for _, inv := range sorted(b.invoices) {
		if inv.PurchaseOrder == po.ID {
			out.Invoices = append(out.Invoices, b.invoiceView(inv))
		}
	}
	return out
}

// PurchaseOrder returns a copy of a purchase order.
func (b *Backend) PurchaseOrder(id int64) (model.PurchaseOrder, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	po, ok := b.purchaseOrders[id]
	if !ok {
		return model.PurchaseOrder{}, false
	}
	return b.purchaseOrderView(po), true
}

func (b *Backend) findPurchaseOrder(w http.ResponseWriter, r *http.Request) *model.PurchaseOrder {
	po, ok := b.purchaseOrders[pathID(r)]
	if !ok {
		notFound(w)
		return nil
	}
	return po
}

func (b *Backend) listPurchaseOrders(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ViewPurchaseOrder) {
		return
	}
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	var out []model.PurchaseOrder
	for _, po := range sorted(b.purchaseOrders) {
		if s := q.Get("status"); s != "" && string(po.Status) != s {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(po.ReferenceNumber+" "+po.Manufacturer), search) {
			continue
		}
		out = append(out, b.purchaseOrderView(po))
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *Backend) getPurchaseOrder(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ViewPurchaseOrder) {
		return
	}
	if po := b.findPurchaseOrder(w, r); po != nil {
		writeJSON(w, http.StatusOK, b.purchaseOrderView(po))
	}
}

func (b *Backend) validateOrder(in model.PurchaseOrderInput) map[string][]string {
	errs := map[string][]string{}
	if b.manufacturers[in.ManufacturerID] == nil {
		errs["manufacturer_id"] = []string{"Manufacturer not found."}
	}
	if in.DeliveryType == model.DeliveryStore && in.StoreID != 0 && b.stores[in.StoreID] == nil {
		errs["store_id"] = []string{"Store not found."}
	}
	if len(in.Items) == 0 {
		errs["items"] = []string{"At least one item is required."}
	}
	for i, it := range in.Items {
		switch {
		case strings.TrimSpace(it.Product) == "":
			errs["items"] = append(errs["items"], fmt.Sprintf("Item %d: product is required.", i+1))
		case it.Quantity <= 0:
			errs["items"] = append(errs["items"], fmt.Sprintf("Item %d: quantity must be greater than 0.", i+1))
		case it.PriceInc.IsNegative():
			errs["items"] = append(errs["items"], fmt.Sprintf("Item %d: price cannot be negative.", i+1))
		}
	}
	return errs
}

func (b *Backend) applyOrder(po *model.PurchaseOrder, in model.PurchaseOrderInput) {
	po.Manufacturer = b.manufacturers[in.ManufacturerID].CompanyName
	po.DeliveryPerson = ""
	if dp := b.deliveryPersons[in.DeliveryPersonID]; dp != nil {
		po.DeliveryPerson = dp.Name
	}
	po.DeliveryType = in.DeliveryType
	po.Store = ""
	if s := b.stores[in.StoreID]; s != nil {
		po.Store = s.Name
	}
	if s := b.stores[in.CreatingStoreID]; s != nil {
		po.CreatingStore = s.Name
	}
	po.NoteForManufacturer = in.NoteForManufacturer
	po.Items = po.Items[:0]
	for _, it := range in.Items {
		po.Items = append(po.Items, model.PurchaseOrderItem{
			ID: b.next(), Product: it.Product, AssociatedOrderNumber: it.AssociatedOrderNumber,
			PriceInc: it.PriceInc, Quantity: it.Quantity, DiscountPercent: it.DiscountPercent,
		})
	}
}

func (b *Backend) createPurchaseOrder(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.CreatePurchaseOrder) {
		return
	}
	var in model.PurchaseOrderInput
	if !decodeBody(w, r, &in) {
		return
	}
	if fieldErrors(w, b.validateOrder(in)) {
		return
	}
	po := &model.PurchaseOrder{
		ID: b.next(), Status: model.POStatusDraft, CreatedBy: a.user(), CreatedAt: time.Now().UTC(),
	}
	po.ReferenceNumber = fmt.Sprintf("PO-%04d", po.ID)
	b.applyOrder(po, in)
	b.purchaseOrders[po.ID] = po
	writeJSON(w, http.StatusCreated, b.purchaseOrderView(po))
}

func (b *Backend) updatePurchaseOrder(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.EditPurchaseOrder) {
		return
	}
	po := b.findPurchaseOrder(w, r)
	if po == nil {
		return
	}
	if po.Status != model.POStatusDraft {
		writeError(w, http.StatusBadRequest, "Only draft purchase orders can be edited")
		return
	}
	var in model.PurchaseOrderInput
	if !decodeBody(w, r, &in) {
		return
	}
	if fieldErrors(w, b.validateOrder(in)) {
		return
	}
	b.applyOrder(po, in)
	writeJSON(w, http.StatusOK, b.purchaseOrderView(po))
}

func (b *Backend) deletePurchaseOrder(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.DeletePurchaseOrder) {
		return
	}
	po := b.findPurchaseOrder(w, r)
	if po == nil {
		return
	}
	if po.Status != model.POStatusDraft {
		writeError(w, http.StatusBadRequest, "Only draft purchase orders can be deleted")
		return
	}
	delete(b.purchaseOrders, po.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) purchaseOrderAction(w http.ResponseWriter, r *http.Request, a *Account) {
	po := b.findPurchaseOrder(w, r)
	if po == nil {
		return
	}
	name := r.PathValue("action")
	reject := func() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Cannot %s purchase order with status '%s'", name, po.Status))
	}
	switch name {
	case "send":
		if !allowed(w, a, policy.SendPurchaseOrder) {
			return
		}
		if po.Status != model.POStatusDraft {
			reject()
			return
		}
		now := time.Now().UTC()
		po.Status = model.POStatusSent
		po.SentAt = &now
		message(w, "Purchase order sent to "+po.Manufacturer)
	case "approve":
		if !allowed(w, a, policy.ApprovePurchaseOrder) {
			return
		}
		if po.Status != model.POStatusSent {
			reject()
			return
		}
		po.Status = model.POStatusConfirmed
		message(w, "Purchase order approved")
	case "cancel":
		if !allowed(w, a, policy.CancelPurchaseOrder) {
			return
		}
		if po.Status != model.POStatusDraft && po.Status != model.POStatusSent {
			reject()
			return
		}
		po.Status = model.POStatusCancelled
		message(w, "Purchase order cancelled")
	default:
		notFound(w)
	}
}

var receivable = []model.PurchaseOrderStatus{
	model.POStatusSent, model.POStatusConfirmed, model.POStatusPartiallyReceived,
}

func (b *Backend) receivePurchaseOrder(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ReceivePurchaseOrder) {
		return
	}
	po := b.findPurchaseOrder(w, r)
	if po == nil {
		return
	}
	if !slices.Contains(receivable, po.Status) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Cannot receive purchase order with status '%s'", po.Status))
		return
	}
	var in model.ReceiveOrderInput
	if !decodeBody(w, r, &in) {
		return
	}
	store := b.stores[in.ReceivingStoreID]
	if store == nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"receiving_store_id": {"Store not found."}})
		return
	}

	received := map[int]int{}
	total := 0
	for _, line := range in.Items {
		idx := slices.IndexFunc(po.Items, func(it model.PurchaseOrderItem) bool { return it.ID == line.ID })
		if idx < 0 {
			writeError(w, http.StatusBadRequest, "Item "+strconv.FormatInt(line.ID, 10)+" is not on this purchase order")
			return
		}
		item := po.Items[idx]
		if line.ReceivedQuantity < 0 || line.ReceivedQuantity > item.RemainingQuantity() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Cannot receive %d of %s. Remaining: %d",
				line.ReceivedQuantity, item.Product, item.RemainingQuantity()))
			return
		}
		received[idx] += line.ReceivedQuantity
		total += line.ReceivedQuantity
	}
	if total == 0 {
		writeError(w, http.StatusBadRequest, "No items to receive")
		return
	}

	for idx, n := range received {
		if n == 0 {
			continue
		}
		item := &po.Items[idx]
		item.ReceivedQuantity += n
		st := b.stockAt(item.Product, store)
		st.Quantity += n
		if in.Aisle != "" {
			st.Aisle = in.Aisle
		}
		b.record(st, model.StockHistory{
			ReceiveQuantity: n, ReceivedBy: a.Username, CreatedBy: a.Username,
			Note: "Received from " + po.ReferenceNumber,
		})
	}
	po.DeliveryDate = in.DeliveryDate
	if po.HasItemsToReceive() {
		po.Status = model.POStatusPartiallyReceived
	} else {
		po.Status = model.POStatusCompleted
	}
	message(w, fmt.Sprintf("Received %d items", total))
}

// stockAt returns the stock line of product at store, creating it if needed.
func (b *Backend) stockAt(product string, store *model.Store) *model.Stock {
	for _, st := range sorted(b.stock) {
		if st.ItemName == product && st.Location != nil && st.Location.ID == store.ID {
			return st
		}
	}
	st := &model.Stock{
		ID: b.next(), ItemName: product, Condition: model.ConditionNew,
		Location: store, LastUpdated: time.Now().UTC(),
	}
	b.stock[st.ID] = st
	return st
}

var invoiceable = []model.PurchaseOrderStatus{
	model.POStatusSent, model.POStatusConfirmed, model.POStatusPartiallyReceived, model.POStatusCompleted,
}

func formDecimal(r *http.Request, key string, errs map[string][]string) decimal.Decimal {
	d, err := decimal.NewFromString(r.FormValue(key))
	if err != nil {
		errs[key] = []string{"A valid number is required."}
	}
	return d
}

func formDate(r *http.Request, key string, errs map[string][]string) model.Date {
	d, err := model.ParseDate(r.FormValue(key))
	if err != nil || d.IsZero() {
		errs[key] = []string{"Date has wrong format. Use one of these formats instead: YYYY-MM-DD."}
	}
	return d
}

// formFile returns the media path of an uploaded file, or "" when none was sent.
func formFile(r *http.Request, key, dir string) string {
	_, fh, err := r.FormFile(key)
	if err != nil {
		return ""
	}
	return "/media/" + dir + "/" + fh.Filename
}

func (b *Backend) createInvoice(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.CreateInvoices) {
		return
	}
	po := b.findPurchaseOrder(w, r)
	if po == nil {
		return
	}
	if !slices.Contains(invoiceable, po.Status) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Cannot invoice purchase order with status '%s'", po.Status))
		return
	}
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "Expected multipart form data")
		return
	}

	errs := map[string][]string{}
	inv := &model.Invoice{
		ID: b.next(), PurchaseOrder: po.ID, InvoiceNumber: r.FormValue("invoice_number"),
		InvoiceDate:      formDate(r, "invoice_date", errs),
		DueDate:          formDate(r, "due_date", errs),
		InvoiceAmountExc: formDecimal(r, "invoice_amount_exc", errs),
		GSTAmount:        formDecimal(r, "gst_amount", errs),
		InvoiceTotal:     formDecimal(r, "invoice_total", errs),
		Notes:            r.FormValue("notes"),
		InvoiceFile:      formFile(r, "invoice_file", "invoices"),
		CreatedAt:        time.Now().UTC(),
	}
	if inv.InvoiceNumber == "" {
		errs["invoice_number"] = []string{"This field is required."}
	}
	for _, other := range b.invoices {
		if other.InvoiceNumber == inv.InvoiceNumber && inv.InvoiceNumber != "" {
			errs["invoice_number"] = []string{"invoice with this invoice number already exists."}
		}
	}
	if fieldErrors(w, errs) {
		return
	}
	b.invoices[inv.ID] = inv
	writeJSON(w, http.StatusCreated, b.invoiceView(inv))
}

func (b *Backend) invoiceView(inv *model.Invoice) model.Invoice {
	out := *inv
	out.TotalPaid = decimal.Zero
	out.Payments = nil
	for _, p := range sorted(b.payments) {
		if p.Invoice == inv.ID {
			out.TotalPaid = out.TotalPaid.Add(p.PaymentAmount)
			out.Payments = append(out.Payments, *p)
		}
	}
	out.OutstandingAmount = out.InvoiceTotal.Sub(out.TotalPaid)
	switch {
	case out.OutstandingAmount.Sign() <= 0:
		out.Status = model.InvoiceFullyPaid
	case out.TotalPaid.Sign() > 0:
		out.Status = model.InvoicePartiallyPaid
	default:
		out.Status = model.InvoicePending
	}
	return out
}

func (b *Backend) listInvoices(w http.ResponseWriter, r *http.Request, a *Account) {
	poID, _ := strconv.ParseInt(r.URL.Query().Get("purchase_order"), 10, 64)
	var out []model.Invoice
	for _, inv := range sorted(b.invoices) {
		if poID != 0 && inv.PurchaseOrder != poID {
			continue
		}
		out = append(out, b.invoiceView(inv))
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *Backend) getInvoice(w http.ResponseWriter, r *http.Request, a *Account) {
	inv, ok := b.invoices[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, b.invoiceView(inv))
}

func (b *Backend) recordPayment(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ManagePayments) {
		return
	}
	inv, ok := b.invoices[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "Expected multipart form data")
		return
	}
	errs := map[string][]string{}
	p := &model.Payment{
		ID: b.next(), Invoice: inv.ID, PaymentReference: r.FormValue("payment_reference"),
		PaymentDate:   formDate(r, "payment_date", errs),
		PaymentAmount: formDecimal(r, "payment_amount", errs),
		PaymentMethod: r.FormValue("payment_method"), PaymentStatus: "completed",
		BankDetails: r.FormValue("bank_details"), Notes: r.FormValue("notes"),
		ReceiptFile: formFile(r, "receipt_file", "receipts"),
		CreatedAt:   time.Now().UTC(),
	}
	if p.PaymentReference == "" {
		errs["payment_reference"] = []string{"This field is required."}
	}
	if fieldErrors(w, errs) {
		return
	}
	if p.PaymentAmount.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "Payment amount must be positive")
		return
	}
	if outstanding := b.invoiceView(inv).OutstandingAmount; p.PaymentAmount.GreaterThan(outstanding) {
		writeError(w, http.StatusBadRequest, "Payment amount exceeds outstanding amount of "+outstanding.StringFixed(2))
		return
	}
	b.payments[p.ID] = p
	writeJSON(w, http.StatusCreated, p)
}

func (b *Backend) listPayments(w http.ResponseWriter, r *http.Request, a *Account) {
	invoiceID, _ := strconv.ParseInt(r.URL.Query().Get("invoice"), 10, 64)
	out := []model.Payment{}
	for _, p := range sorted(b.payments) {
		if invoiceID != 0 && p.Invoice != invoiceID {
			continue
		}
		out = append(out, *p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) deletePayment(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ManagePayments) {
		return
	}
	id := pathID(r)
	if _, ok := b.payments[id]; !ok {
		notFound(w)
		return
	}
	delete(b.payments, id)
	w.WriteHeader(http.StatusNoContent)
}
