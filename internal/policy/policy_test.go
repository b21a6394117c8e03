package policy

import (
	"encoding/json"
	"testing"
)

func TestFromMapFailsClosed(t *testing.T) {
	s := FromMap(map[string]bool{
		"can_view_stock":            true,
		"can_create_purchase_order": false,
	})

	if !s.Has(ViewStock) {
		t.Error("expected can_view_stock granted")
	}
	if s.Has(CreatePurchaseOrder) {
		t.Error("expected false permission to be denied")
	}
	if s.Has(ManagePayments) {
		t.Error("expected missing permission to be denied")
	}

	var zero Set
	if zero.Has(ViewStock) {
		t.Error("expected zero set to deny everything")
	}
}

func TestAny(t *testing.T) {
	s := Of(IssueStock)
	if !s.Any(ReceiveStock, IssueStock) {
		t.Error("expected Any to match issue")
	}
	if s.Any(ReceiveStock, CommitStock) {
		t.Error("expected Any to be false")
	}
}

func TestSetJSON(t *testing.T) {
	s := Of(ViewStock, CreateInvoices)
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["can_create_invoices","can_view_stock"]` {
		t.Errorf("unexpected encoding %s", data)
	}

	var back Set
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if !back.Has(CreateInvoices) || !back.Has(ViewStock) || back.Has(EditStock) {
		t.Errorf("unexpected decoded set %v", back.Granted())
	}

	var fromDoc Set
	if err := json.Unmarshal([]byte(`{"can_edit_stock":true,"can_view_stock":false}`), &fromDoc); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	if !fromDoc.Has(EditStock) || fromDoc.Has(ViewStock) {
		t.Errorf("unexpected decoded set %v", fromDoc.Granted())
	}
}
