// Package workflow decides which status-driven actions are offered for a
// record. The backend decides whether a transition is legal and may still
// reject an offered action.
package workflow

import (
	"slices"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
)

// Action names.
const (
	Edit          = "edit"
	Send          = "send"
	Delete        = "delete"
	Approve       = "approve"
	Receive       = "receive"
	Cancel        = "cancel"
	CreateInvoice = "create_invoice"
	Start         = "start"
	Count         = "count"
	Complete      = "complete"
	Dispatch      = "dispatch"
	Collect       = "collect"
	Fulfill       = "fulfill"
)

// Action is one control rendered for a record.
type Action struct {
	Name   string
	Label  string
	Danger bool
}

// Actions is the ordered set of actions offered for a record.
type Actions []Action

// Has reports whether the named action is offered.
func (as Actions) Has(name string) bool {
	return slices.ContainsFunc(as, func(a Action) bool { return a.Name == name })
}

// Names returns the action names in order.
func (as Actions) Names() []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Name
	}
	return out
}

type rule[S comparable] struct {
	action Action
	from   []S
	cap    policy.Capability
	when   func() bool
}

func evaluate[S comparable](status S, caps policy.Set, rules []rule[S]) Actions {
	var out Actions
	for _, r := range rules {
		if !slices.Contains(r.from, status) || !caps.Has(r.cap) {
			continue
		}
		if r.when != nil && !r.when() {
			continue
		}
		out = append(out, r.action)
	}
	return out
}

// purchaseOrderCaps maps each purchase order action to the capability it
// needs.
var purchaseOrderCaps = map[string]policy.Capability{
	Edit:          policy.EditPurchaseOrder,
	Send:          policy.SendPurchaseOrder,
	Approve:       policy.ApprovePurchaseOrder,
	Receive:       policy.ReceivePurchaseOrder,
	CreateInvoice: policy.CreateInvoices,
	Cancel:        policy.CancelPurchaseOrder,
	Delete:        policy.DeletePurchaseOrder,
}

// stocktakeCaps maps each stocktake action to the capability it needs.
// Counting is open to anyone who can view stock.
var stocktakeCaps = map[string]policy.Capability{
	Start:    policy.StartStocktake,
	Count:    policy.ViewStock,
	Complete: policy.CompleteStocktake,
	Approve:  policy.CompleteStocktake,
	Cancel:   policy.CancelStocktake,
	Delete:   policy.DeleteStocktake,
}

// AllowedPurchaseOrder reports whether caps grant the named purchase order
// action, whatever the order's status. Unknown actions are never allowed.
func AllowedPurchaseOrder(action string, caps policy.Set) bool {
	c, ok := purchaseOrderCaps[action]
	return ok && caps.Has(c)
}

// AllowedStocktake reports whether caps grant the named stocktake action.
func AllowedStocktake(action string, caps policy.Set) bool {
	c, ok := stocktakeCaps[action]
	return ok && caps.Has(c)
}

// PurchaseOrder returns the actions offered for a purchase order.
func PurchaseOrder(po *model.PurchaseOrder, caps policy.Set) Actions {
	return evaluate(po.Status, caps, []rule[model.PurchaseOrderStatus]{
		{action: Action{Name: Edit, Label: "Edit"}, from: []model.PurchaseOrderStatus{model.POStatusDraft}, cap: purchaseOrderCaps[Edit]},
		{action: Action{Name: Send, Label: "Send to manufacturer"}, from: []model.PurchaseOrderStatus{model.POStatusDraft}, cap: purchaseOrderCaps[Send]},
		{action: Action{Name: Approve, Label: "Approve"}, from: []model.PurchaseOrderStatus{model.POStatusSent}, cap: purchaseOrderCaps[Approve]},
		{
			action: Action{Name: Receive, Label: "Receive items"},
			from:   []model.PurchaseOrderStatus{model.POStatusSent, model.POStatusConfirmed, model.POStatusPartiallyReceived},
			cap:    purchaseOrderCaps[Receive],
			when:   po.HasItemsToReceive,
		},
		{
			action: Action{Name: CreateInvoice, Label: "Create invoice"},
			from:   []model.PurchaseOrderStatus{model.POStatusSent, model.POStatusConfirmed, model.POStatusPartiallyReceived, model.POStatusCompleted},
			cap:    purchaseOrderCaps[CreateInvoice],
		},
		{action: Action{Name: Cancel, Label: "Cancel", Danger: true}, from: []model.PurchaseOrderStatus{model.POStatusDraft, model.POStatusSent}, cap: purchaseOrderCaps[Cancel]},
		{action: Action{Name: Delete, Label: "Delete", Danger: true}, from: []model.PurchaseOrderStatus{model.POStatusDraft}, cap: purchaseOrderCaps[Delete]},
	})
}

// Stocktake returns the actions offered for a stocktake. Complete is only
// offered once every planned item has been counted.
func Stocktake(st *model.Stocktake, caps policy.Set) Actions {
	allCounted := func() bool {
		return st.TotalItemsPlanned > 0 && st.TotalItemsCounted >= st.TotalItemsPlanned
	}
	return evaluate(st.Status, caps, []rule[model.StocktakeStatus]{
		{action: Action{Name: Start, Label: "Start counting"}, from: []model.StocktakeStatus{model.StocktakePlanned}, cap: stocktakeCaps[Start]},
		{action: Action{Name: Count, Label: "Count items"}, from: []model.StocktakeStatus{model.StocktakeInProgress}, cap: stocktakeCaps[Count]},
		{action: Action{Name: Complete, Label: "Complete"}, from: []model.StocktakeStatus{model.StocktakeInProgress}, cap: stocktakeCaps[Complete], when: allCounted},
		{action: Action{Name: Approve, Label: "Approve adjustments"}, from: []model.StocktakeStatus{model.StocktakeCompleted}, cap: stocktakeCaps[Approve]},
		{action: Action{Name: Cancel, Label: "Cancel", Danger: true}, from: []model.StocktakeStatus{model.StocktakePlanned, model.StocktakeInProgress}, cap: stocktakeCaps[Cancel]},
		{action: Action{Name: Delete, Label: "Delete", Danger: true}, from: []model.StocktakeStatus{model.StocktakePlanned}, cap: stocktakeCaps[Delete]},
	})
}

// Transfer returns the actions offered for a stock transfer.
func Transfer(tr *model.Transfer, caps policy.Set) Actions {
	return evaluate(tr.Status, caps, []rule[model.TransferStatus]{
		{action: Action{Name: Approve, Label: "Approve"}, from: []model.TransferStatus{model.TransferPending}, cap: policy.TransferStock},
		{action: Action{Name: Dispatch, Label: "Dispatch"}, from: []model.TransferStatus{model.TransferApproved}, cap: policy.TransferStock},
		{action: Action{Name: Complete, Label: "Mark received"}, from: []model.TransferStatus{model.TransferInTransit}, cap: policy.TransferStock},
		{action: Action{Name: Collect, Label: "Mark collected"}, from: []model.TransferStatus{model.TransferAwaitingCollection}, cap: policy.TransferStock},
		{action: Action{Name: Cancel, Label: "Cancel", Danger: true}, from: []model.TransferStatus{model.TransferPending, model.TransferInTransit}, cap: policy.TransferStock},
	})
}

// Reservation returns the actions offered for a reservation. Fulfil needs
// enough stock available for sale.
func Reservation(res *model.Reservation, caps policy.Set) Actions {
	active := []model.ReservationStatus{model.ReservationActive}
	return evaluate(res.Status, caps, []rule[model.ReservationStatus]{
		{
			action: Action{Name: Fulfill, Label: "Fulfil"},
			from:   active,
			cap:    policy.ReserveStock,
			when:   func() bool { return res.Stock.AvailableForSale >= res.Quantity },
		},
		{action: Action{Name: Cancel, Label: "Cancel", Danger: true}, from: active, cap: policy.ReserveStock},
	})
}

// Commitment returns the actions offered for committed stock.
func Commitment(c *model.CommittedStock, caps policy.Set) Actions {
	return evaluate(c.IsFulfilled, caps, []rule[bool]{
		{action: Action{Name: Fulfill, Label: "Fulfil"}, from: []bool{false}, cap: policy.FulfillCommitment},
	})
}
