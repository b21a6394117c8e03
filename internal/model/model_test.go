package model

import (
	"encoding/json"
	"testing"
)

func TestTransferStatusRejectsLegacyVocabulary(t *testing.T) {
	for _, s := range []string{"dispatched", "confirmed", "", "IN_TRANSIT"} {
		var st TransferStatus
		if err := json.Unmarshal([]byte(`"`+s+`"`), &st); err == nil {
			t.Errorf("expected error decoding transfer status %q", s)
		}
	}

	var st TransferStatus
	if err := json.Unmarshal([]byte(`"awaiting_collection"`), &st); err != nil {
		t.Fatalf("decoding awaiting_collection: %v", err)
	}
	if st != TransferAwaitingCollection {
		t.Errorf("expected %q, got %q", TransferAwaitingCollection, st)
	}
}

func TestStatusDecodingInsideRecord(t *testing.T) {
	var po PurchaseOrder
	err := json.Unmarshal([]byte(`{"id":1,"status":"partially_received","items":[]}`), &po)
	if err != nil {
		t.Fatalf("decoding purchase order: %v", err)
	}
	if po.Status != POStatusPartiallyReceived {
		t.Errorf("expected partially_received, got %q", po.Status)
	}

	if err := json.Unmarshal([]byte(`{"id":1,"status":"on_hold"}`), &po); err != nil {
		t.Fatalf("decoding unknown purchase order status: %v", err)
	}
	if po.Status != "on_hold" || po.Status.Valid() {
		t.Errorf("expected raw status on_hold, got %q", po.Status)
	}
	if got := po.Status.Label(); got != "On Hold" {
		t.Errorf("expected label On Hold, got %q", got)
	}

	var tr Transfer
	if err := json.Unmarshal([]byte(`{"id":1,"status":"dispatched"}`), &tr); err == nil {
		t.Error("expected error for legacy transfer status")
	}
}

func TestLenientStatusDecoding(t *testing.T) {
	var st StocktakeStatus
	if err := json.Unmarshal([]byte(`"paused"`), &st); err != nil || st != "paused" {
		t.Errorf("stocktake status: got %q, %v", st, err)
	}
	var rs ReservationStatus
	if err := json.Unmarshal([]byte(`"on_hold"`), &rs); err != nil || rs != "on_hold" {
		t.Errorf("reservation status: got %q, %v", rs, err)
	}
	var is InvoiceStatus
	if err := json.Unmarshal([]byte(`"disputed"`), &is); err != nil || is.Label() != "Disputed" {
		t.Errorf("invoice status: got %q, %v", is, err)
	}
	if err := json.Unmarshal([]byte(`42`), &is); err == nil {
		t.Error("expected error for a non-string status")
	}
}

func TestStatusLabels(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{POStatusPartiallyReceived.Label(), "Partially Received"},
		{TransferAwaitingCollection.Label(), "Awaiting Collection"},
		{StocktakeInProgress.Label(), "In Progress"},
		{ConditionBStock.Label(), "B-Stock"},
		{ConditionOpenBox.Label(), "Open Box"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected label %q, got %q", tt.want, tt.got)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d, err := ParseDate("2025-03-14")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	data, _ := json.Marshal(d)
	if string(data) != `"2025-03-14"` {
		t.Errorf("expected \"2025-03-14\", got %s", data)
	}

	var zero Date
	data, _ = json.Marshal(zero)
	if string(data) != "null" {
		t.Errorf("expected null for zero date, got %s", data)
	}

	var fromTimestamp Date
	if err := json.Unmarshal([]byte(`"2025-03-14T09:30:00Z"`), &fromTimestamp); err != nil {
		t.Fatalf("decoding timestamp date: %v", err)
	}
	if fromTimestamp.String() != "2025-03-14" {
		t.Errorf("expected 2025-03-14, got %s", fromTimestamp)
	}
}

func TestHasItemsToReceive(t *testing.T) {
	po := PurchaseOrder{Items: []PurchaseOrderItem{
		{Quantity: 2, ReceivedQuantity: 2},
		{Quantity: 5, ReceivedQuantity: 3},
	}}
	if !po.HasItemsToReceive() {
		t.Error("expected items to receive")
	}
	if got := po.Items[1].RemainingQuantity(); got != 2 {
		t.Errorf("expected remaining 2, got %d", got)
	}

	po.Items[1].ReceivedQuantity = 5
	if po.HasItemsToReceive() {
		t.Error("expected nothing left to receive")
	}
}

func TestPageLinks(t *testing.T) {
	var p Page[Stock]
	err := json.Unmarshal([]byte(`{"links":{"next":"http://x/?page=2","previous":null},"count":30,"total_pages":2,"current_page":1,"page_size":25,"results":[]}`), &p)
	if err != nil {
		t.Fatalf("decoding page: %v", err)
	}
	if !p.HasNext() || p.HasPrevious() {
		t.Errorf("unexpected links: next=%v previous=%v", p.HasNext(), p.HasPrevious())
	}
	if p.TotalPages != 2 {
		t.Errorf("expected 2 pages, got %d", p.TotalPages)
	}
}
