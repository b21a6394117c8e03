package model

import "time"

// Transfer types.
const (
	TransferRestock            = "restock"
	TransferCustomerCollection = "customer_collection"
	TransferGeneral            = "general"
)

// TransferTypes lists the accepted transfer types.
var TransferTypes = []string{TransferRestock, TransferCustomerCollection, TransferGeneral}

// Transfer moves quantity of a stock line between two stores.
type Transfer struct {
	ID             int64          `json:"id"`
	Stock          Stock          `json:"stock"`
	Quantity       int            `json:"quantity"`
	FromLocation   Store          `json:"from_location"`
	ToLocation     Store          `json:"to_location"`
	FromAisle      string         `json:"from_aisle,omitempty"`
	ToAisle        string         `json:"to_aisle,omitempty"`
	TransferType   string         `json:"transfer_type"`
	TransferReason string         `json:"transfer_reason"`
	CustomerName   string         `json:"customer_name,omitempty"`
	CustomerPhone  string         `json:"customer_phone,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	Status         TransferStatus `json:"status"`
	CreatedBy      *User          `json:"created_by"`
	ApprovedBy     *User          `json:"approved_by"`
	CreatedAt      time.Time      `json:"created_at"`
	ApprovedAt     *time.Time     `json:"approved_at"`
	CompletedAt    *time.Time     `json:"completed_at"`
	CollectedAt    *time.Time     `json:"collected_at"`
}

// TransferInput requests a transfer.
type TransferInput struct {
	StockID        int64  `json:"stock_id"`
	Quantity       int    `json:"quantity"`
	FromLocationID int64  `json:"from_location_id"`
	ToLocationID   int64  `json:"to_location_id"`
	FromAisle      string `json:"from_aisle,omitempty"`
	ToAisle        string `json:"to_aisle,omitempty"`
	TransferType   string `json:"transfer_type"`
	TransferReason string `json:"transfer_reason"`
	CustomerName   string `json:"customer_name,omitempty"`
	CustomerPhone  string `json:"customer_phone,omitempty"`
	Notes          string `json:"notes,omitempty"`
}
