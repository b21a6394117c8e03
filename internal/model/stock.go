package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLocation is the quantity of a stock line held at one store.
type StockLocation struct {
	ID          int64     `json:"id"`
	Store       Store     `json:"store"`
	StoreID     int64     `json:"store_id"`
	Quantity    int       `json:"quantity"`
	Aisle       string    `json:"aisle,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
	IsLowStock  bool      `json:"is_low_stock"`
}

// Stock is a stock line. AvailableForSale and IsLowStock are computed
// upstream and displayed as received.
type Stock struct {
	ID                int64           `json:"id"`
	Category          *Category       `json:"category"`
	ItemName          string          `json:"item_name"`
	SKU               string          `json:"sku,omitempty"`
	Quantity          int             `json:"quantity"`
	Condition         Condition       `json:"condition"`
	Location          *Store          `json:"location"`
	Aisle             string          `json:"aisle,omitempty"`
	Note              string          `json:"note,omitempty"`
	ReOrder           int             `json:"re_order"`
	ImageURL          string          `json:"image_url,omitempty"`
	WarehouseName     string          `json:"warehouse_name,omitempty"`
	Locations         []StockLocation `json:"locations"`
	CommittedQuantity int             `json:"committed_quantity"`
	ReservedQuantity  int             `json:"reserved_quantity"`
	AvailableForSale  int             `json:"available_for_sale"`
	IsLowStock        bool            `json:"is_low_stock"`
	LastUpdated       time.Time       `json:"last_updated"`
}

// StockInput is the create/update payload for a stock line. Update sends it
// as a PATCH, so zero values are omitted.
type StockInput struct {
	CategoryID    int64     `json:"category_id,omitempty"`
	ItemName      string    `json:"item_name,omitempty"`
	SKU           string    `json:"sku,omitempty"`
	Quantity      *int      `json:"quantity,omitempty"`
	Condition     Condition `json:"condition,omitempty"`
	LocationID    int64     `json:"location_id,omitempty"`
	Aisle         string    `json:"aisle,omitempty"`
	Note          string    `json:"note,omitempty"`
	ReOrder       *int      `json:"re_order,omitempty"`
	WarehouseName string    `json:"warehouse_name,omitempty"`
}

// StockFilter narrows a stock list.
type StockFilter struct {
	Search     string
	Condition  Condition
	LowStock   bool
	LocationID int64
	Ordering   string
	Page       int
	PageSize   int
}

// StockHistory is one movement record of a stock line.
type StockHistory struct {
	ID              int64      `json:"id"`
	ItemName        string     `json:"item_name"`
	Quantity        int        `json:"quantity"`
	ReceiveQuantity int        `json:"receive_quantity"`
	ReceivedBy      string     `json:"received_by,omitempty"`
	IssueQuantity   int        `json:"issue_quantity"`
	IssuedBy        string     `json:"issued_by,omitempty"`
	Note            string     `json:"note,omitempty"`
	CreatedBy       string     `json:"created_by,omitempty"`
	Timestamp       *time.Time `json:"timestamp"`
}

// IssueInput removes quantity from a stock line.
type IssueInput struct {
	Quantity   int    `json:"quantity"`
	IssuedBy   string `json:"issued_by,omitempty"`
	Note       string `json:"note,omitempty"`
	LocationID int64  `json:"location_id,omitempty"`
}

// ReceiveInput adds quantity to a stock line.
type ReceiveInput struct {
	Quantity   int    `json:"quantity"`
	ReceivedBy string `json:"received_by,omitempty"`
	Note       string `json:"note,omitempty"`
	LocationID int64  `json:"location_id,omitempty"`
	Aisle      string `json:"aisle,omitempty"`
}

// MovementResult is returned by issue and receive.
type MovementResult struct {
	Message          string `json:"message"`
	NewQuantity      int    `json:"new_quantity"`
	AvailableForSale int    `json:"available_for_sale"`
}

// CommittedStock is quantity promised to a customer order against a deposit.
type CommittedStock struct {
	ID                  int64           `json:"id"`
	Stock               Stock           `json:"stock"`
	Quantity            int             `json:"quantity"`
	CustomerOrderNumber string          `json:"customer_order_number"`
	DepositAmount       decimal.Decimal `json:"deposit_amount"`
	CustomerName        string          `json:"customer_name"`
	CustomerPhone       string          `json:"customer_phone,omitempty"`
	CustomerEmail       string          `json:"customer_email,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	CommittedBy         *User           `json:"committed_by"`
	CommittedAt         time.Time       `json:"committed_at"`
	IsFulfilled         bool            `json:"is_fulfilled"`
	FulfilledAt         *time.Time      `json:"fulfilled_at"`
}

// CommitInput commits stock to a customer order.
type CommitInput struct {
	Quantity            int             `json:"quantity"`
	CustomerOrderNumber string          `json:"customer_order_number"`
	DepositAmount       decimal.Decimal `json:"deposit_amount"`
	CustomerName        string          `json:"customer_name"`
	CustomerPhone       string          `json:"customer_phone,omitempty"`
	CustomerEmail       string          `json:"customer_email,omitempty"`
	Notes               string          `json:"notes,omitempty"`
}
