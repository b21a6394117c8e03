package model

import "time"

// Reservation types.
const (
	ReservationQuote        = "quote"
	ReservationHold         = "hold"
	ReservationInspection   = "inspection"
	ReservationTransferPrep = "transfer_prep"
	ReservationMaintenance  = "maintenance"
	ReservationOther        = "other"
)

// ReservationTypes lists the accepted reservation types.
var ReservationTypes = []string{
	ReservationQuote, ReservationHold, ReservationInspection,
	ReservationTransferPrep, ReservationMaintenance, ReservationOther,
}

// Reservation holds stock aside until it expires.
type Reservation struct {
	ID              int64             `json:"id"`
	Stock           Stock             `json:"stock"`
	Quantity        int               `json:"quantity"`
	ReservationType string            `json:"reservation_type"`
	Status          ReservationStatus `json:"status"`
	CustomerName    string            `json:"customer_name,omitempty"`
	CustomerPhone   string            `json:"customer_phone,omitempty"`
	CustomerEmail   string            `json:"customer_email,omitempty"`
	ReferenceNumber string            `json:"reference_number,omitempty"`
	Reason          string            `json:"reason"`
	Notes           string            `json:"notes,omitempty"`
	ReservedBy      *User             `json:"reserved_by"`
	ReservedAt      time.Time         `json:"reserved_at"`
	ExpiresAt       time.Time         `json:"expires_at"`
	FulfilledAt     *time.Time        `json:"fulfilled_at"`
	CancelledAt     *time.Time        `json:"cancelled_at"`
}

// ReservationInput reserves quantity of a stock line. StockID is only sent
// when creating through /reservations/.
type ReservationInput struct {
	StockID         int64     `json:"stock_id,omitempty"`
	Quantity        int       `json:"quantity"`
	ReservationType string    `json:"reservation_type"`
	CustomerName    string    `json:"customer_name,omitempty"`
	CustomerPhone   string    `json:"customer_phone,omitempty"`
	CustomerEmail   string    `json:"customer_email,omitempty"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	Reason          string    `json:"reason"`
	Notes           string    `json:"notes,omitempty"`
	ExpiresAt       time.Time `json:"expires_at"`
}
