// Package policy exposes the capabilities the backend grants the signed-in
// user. Capabilities only decide which controls are rendered; the backend
// still authorizes every request.
package policy

import (
	"encoding/json"
	"sort"
)

// Capability is a backend permission key.
type Capability string

// Capabilities declared by /auth/user/permissions/.
const (
	ManageUsers              Capability = "can_manage_users"
	ManageAccessControl      Capability = "can_manage_access_control"
	CreatePurchaseOrder      Capability = "can_create_purchase_order"
	EditPurchaseOrder        Capability = "can_edit_purchase_order"
	ViewPurchaseOrder        Capability = "can_view_purchase_order"
	SendPurchaseOrder        Capability = "can_send_purchase_order"
	ApprovePurchaseOrder     Capability = "can_approve_purchase_order"
	CancelPurchaseOrder      Capability = "can_cancel_purchase_order"
	DeletePurchaseOrder      Capability = "can_delete_purchase_order"
	ReceivePurchaseOrder     Capability = "can_receive_purchase_order"
	ViewPurchaseOrderAmounts Capability = "can_view_purchase_order_amounts"
	CreateStock              Capability = "can_create_stock"
	EditStock                Capability = "can_edit_stock"
	ViewStock                Capability = "can_view_stock"
	TransferStock            Capability = "can_transfer_stock"
	CommitStock              Capability = "can_commit_stock"
	FulfillCommitment        Capability = "can_fulfill_commitment"
	IssueStock               Capability = "can_issue_stock"
	ReceiveStock             Capability = "can_receive_stock"
	ReserveStock             Capability = "can_reserve_stock"
	ViewWarehouseReceiving   Capability = "can_view_warehouse_receiving"
	CreateStocktake          Capability = "can_create_stocktake"
	StartStocktake           Capability = "can_start_stocktake"
	CompleteStocktake        Capability = "can_complete_stocktake"
	CancelStocktake          Capability = "can_cancel_stocktake"
	DeleteStocktake          Capability = "can_delete_stocktake"
	ManageManufacturers      Capability = "can_manage_manufacturers"
	CreateInvoices           Capability = "can_create_invoices"
	ManagePayments           Capability = "can_manage_payments"
	ViewFinancialReports     Capability = "can_view_financial_reports"
)

// Set is an immutable set of granted capabilities. The zero value grants
// nothing.
type Set struct {
	granted map[Capability]bool
}

// FromMap builds a Set from the backend permissions document. Keys mapped to
// false are not granted.
func FromMap(m map[string]bool) Set {
	s := Set{granted: make(map[Capability]bool, len(m))}
	for k, v := range m {
		if v {
			s.granted[Capability(k)] = true
		}
	}
	return s
}

// Of builds a Set granting exactly caps.
func Of(caps ...Capability) Set {
	s := Set{granted: make(map[Capability]bool, len(caps))}
	for _, c := range caps {
		s.granted[c] = true
	}
	return s
}

// Has reports whether c is granted. Unknown capabilities are denied.
func (s Set) Has(c Capability) bool { return s.granted[c] }

// Any reports whether at least one of caps is granted.
func (s Set) Any(caps ...Capability) bool {
	for _, c := range caps {
		if s.granted[c] {
			return true
		}
	}
	return false
}

// Granted returns the granted capabilities in sorted order.
func (s Set) Granted() []Capability {
	out := make([]Capability, 0, len(s.granted))
	for c := range s.granted {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON encodes the set as a sorted list of capability keys.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Granted())
}

// UnmarshalJSON decodes either a list of keys or a permissions document.
func (s *Set) UnmarshalJSON(data []byte) error {
	var list []Capability
	if err := json.Unmarshal(data, &list); err == nil {
		*s = Of(list...)
		return nil
	}
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*s = FromMap(m)
	return nil
}
