package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Delivery types.
const (
	DeliveryStore    = "store"
	DeliveryDropship = "dropship"
)

// PurchaseOrderItem is one ordered line. PriceInc includes GST.
type PurchaseOrderItem struct {
	ID                    int64           `json:"id"`
	Product               string          `json:"product"`
	AssociatedOrderNumber string          `json:"associated_order_number,omitempty"`
	PriceInc              decimal.Decimal `json:"price_inc"`
	Quantity              int             `json:"quantity"`
	DiscountPercent       decimal.Decimal `json:"discount_percent"`
	ReceivedQuantity      int             `json:"received_quantity"`
}

// RemainingQuantity is the quantity still to be received.
func (i *PurchaseOrderItem) RemainingQuantity() int {
	if r := i.Quantity - i.ReceivedQuantity; r > 0 {
		return r
	}
	return 0
}

// PurchaseOrder is an order placed with a manufacturer.
type PurchaseOrder struct {
	ID                   int64               `json:"id"`
	ReferenceNumber      string              `json:"reference_number"`
	Manufacturer         string              `json:"manufacturer"`
	DeliveryPerson       string              `json:"delivery_person,omitempty"`
	DeliveryType         string              `json:"delivery_type,omitempty"`
	CreatingStore        string              `json:"creating_store,omitempty"`
	Store                string              `json:"store,omitempty"`
	Status               PurchaseOrderStatus `json:"status"`
	NoteForManufacturer  string              `json:"note_for_manufacturer,omitempty"`
	ExpectedDeliveryDate Date                `json:"expected_delivery_date"`
	DeliveryDate         Date                `json:"delivery_date"`
	CreatedBy            *User               `json:"created_by"`
	CreatedAt            time.Time           `json:"created_at"`
	SentAt               *time.Time          `json:"sent_at"`
	Items                []PurchaseOrderItem `json:"items"`
	Invoices             []Invoice           `json:"invoices,omitempty"`
}

// HasItemsToReceive reports whether any line is not yet fully received.
func (po *PurchaseOrder) HasItemsToReceive() bool {
	for i := range po.Items {
		if po.Items[i].RemainingQuantity() > 0 {
			return true
		}
	}
	return false
}

// PurchaseOrderItemInput is one line of a purchase order payload.
type PurchaseOrderItemInput struct {
	Product               string          `json:"product"`
	AssociatedOrderNumber string          `json:"associated_order_number,omitempty"`
	PriceInc              decimal.Decimal `json:"price_inc"`
	Quantity              int             `json:"quantity"`
	DiscountPercent       decimal.Decimal `json:"discount_percent"`
}

// PurchaseOrderInput creates or updates a purchase order. Customer fields are
// only sent for dropship deliveries.
type PurchaseOrderInput struct {
	ManufacturerID      int64                    `json:"manufacturer_id"`
	DeliveryPersonID    int64                    `json:"delivery_person_id,omitempty"`
	DeliveryType        string                   `json:"delivery_type"`
	StoreID             int64                    `json:"store_id,omitempty"`
	CreatingStoreID     int64                    `json:"creating_store_id,omitempty"`
	NoteForManufacturer string                   `json:"note_for_manufacturer,omitempty"`
	CustomerName        string                   `json:"customer_name,omitempty"`
	CustomerPhone       string                   `json:"customer_phone,omitempty"`
	CustomerEmail       string                   `json:"customer_email,omitempty"`
	CustomerAddress     string                   `json:"customer_address,omitempty"`
	Items               []PurchaseOrderItemInput `json:"items"`
}

// ReceiveLine is the quantity received against one order line.
type ReceiveLine struct {
	ID               int64 `json:"id"`
	ReceivedQuantity int   `json:"received_quantity"`
}

// ReceiveOrderInput records a delivery against a purchase order.
type ReceiveOrderInput struct {
	Items            []ReceiveLine `json:"items"`
	ReceivingStoreID int64         `json:"receiving_store_id"`
	DeliveryDate     Date          `json:"delivery_date"`
	Notes            string        `json:"notes,omitempty"`
	Aisle            string        `json:"aisle,omitempty"`
}
