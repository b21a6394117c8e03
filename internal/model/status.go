package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Label renders a snake_case value as a display label,
// e.g. "partially_received" -> "Partially Received".
func Label(s string) string {
	// A Caser is stateful, so one is made per call.
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

// decodeEnum decodes a JSON string into T. Values outside the known
// vocabulary are kept as sent and render through Label.
func decodeEnum[T ~string](data []byte, kind string) (T, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("decoding %s: %w", kind, err)
	}
	return T(s), nil
}

// decodeStrictEnum is decodeEnum that rejects values outside the canonical
// vocabulary.
func decodeStrictEnum[T ~string](data []byte, valid func(T) bool, kind string) (T, error) {
	v, err := decodeEnum[T](data, kind)
	if err != nil {
		return "", err
	}
	if !valid(v) {
		return "", fmt.Errorf("unknown %s %q", kind, string(v))
	}
	return v, nil
}

// PurchaseOrderStatus is the lifecycle state of a purchase order.
type PurchaseOrderStatus string

// Purchase order statuses.
const (
	POStatusDraft             PurchaseOrderStatus = "draft"
	POStatusSent              PurchaseOrderStatus = "sent"
	POStatusConfirmed         PurchaseOrderStatus = "confirmed"
	POStatusPartiallyReceived PurchaseOrderStatus = "partially_received"
	POStatusCompleted         PurchaseOrderStatus = "completed"
	POStatusCancelled         PurchaseOrderStatus = "cancelled"
)

// PurchaseOrderStatuses lists every purchase order status in lifecycle order.
var PurchaseOrderStatuses = []PurchaseOrderStatus{
	POStatusDraft, POStatusSent, POStatusConfirmed,
	POStatusPartiallyReceived, POStatusCompleted, POStatusCancelled,
}

func (s PurchaseOrderStatus) Valid() bool {
	switch s {
	case POStatusDraft, POStatusSent, POStatusConfirmed, POStatusPartiallyReceived, POStatusCompleted, POStatusCancelled:
		return true
	}
	return false
}

func (s PurchaseOrderStatus) Label() string { return Label(string(s)) }

func (s *PurchaseOrderStatus) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum[PurchaseOrderStatus](data, "purchase order status")
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// StocktakeStatus is the lifecycle state of a stocktake (stock audit).
type StocktakeStatus string

// Stocktake statuses.
const (
	StocktakePlanned    StocktakeStatus = "planned"
	StocktakeInProgress StocktakeStatus = "in_progress"
	StocktakeCompleted  StocktakeStatus = "completed"
	StocktakeApproved   StocktakeStatus = "approved"
	StocktakeCancelled  StocktakeStatus = "cancelled"
)

// StocktakeStatuses lists every stocktake status in lifecycle order.
var StocktakeStatuses = []StocktakeStatus{
	StocktakePlanned, StocktakeInProgress, StocktakeCompleted, StocktakeApproved, StocktakeCancelled,
}

func (s StocktakeStatus) Valid() bool {
	switch s {
	case StocktakePlanned, StocktakeInProgress, StocktakeCompleted, StocktakeApproved, StocktakeCancelled:
		return true
	}
	return false
}

func (s StocktakeStatus) Label() string { return Label(string(s)) }

func (s *StocktakeStatus) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum[StocktakeStatus](data, "stocktake status")
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// TransferStatus is the lifecycle state of a stock transfer. This is the only
// accepted vocabulary; "dispatched" and "confirmed" are not transfer statuses.
type TransferStatus string

// Transfer statuses.
const (
	TransferPending            TransferStatus = "pending"
	TransferApproved           TransferStatus = "approved"
	TransferInTransit          TransferStatus = "in_transit"
	TransferAwaitingCollection TransferStatus = "awaiting_collection"
	TransferCompleted          TransferStatus = "completed"
	TransferCollected          TransferStatus = "collected"
	TransferCancelled          TransferStatus = "cancelled"
)

// TransferStatuses lists every transfer status in lifecycle order.
var TransferStatuses = []TransferStatus{
	TransferPending, TransferApproved, TransferInTransit, TransferAwaitingCollection,
	TransferCompleted, TransferCollected, TransferCancelled,
}

func (s TransferStatus) Valid() bool {
	switch s {
	case TransferPending, TransferApproved, TransferInTransit, TransferAwaitingCollection,
		TransferCompleted, TransferCollected, TransferCancelled:
		return true
	}
	return false
}

func (s TransferStatus) Label() string { return Label(string(s)) }

func (s *TransferStatus) UnmarshalJSON(data []byte) error {
	v, err := decodeStrictEnum(data, TransferStatus.Valid, "transfer status")
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ReservationStatus is the state of a stock reservation.
type ReservationStatus string

// Reservation statuses.
const (
	ReservationActive    ReservationStatus = "active"
	ReservationExpired   ReservationStatus = "expired"
	ReservationFulfilled ReservationStatus = "fulfilled"
	ReservationCancelled ReservationStatus = "cancelled"
)

// ReservationStatuses lists every reservation status.
var ReservationStatuses = []ReservationStatus{
	ReservationActive, ReservationExpired, ReservationFulfilled, ReservationCancelled,
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationActive, ReservationExpired, ReservationFulfilled, ReservationCancelled:
		return true
	}
	return false
}

func (s ReservationStatus) Label() string { return Label(string(s)) }

func (s *ReservationStatus) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum[ReservationStatus](data, "reservation status")
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// InvoiceStatus is computed by the backend from the payments recorded.
type InvoiceStatus string

// Invoice statuses.
const (
	InvoicePending       InvoiceStatus = "pending"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceFullyPaid     InvoiceStatus = "fully_paid"
	InvoiceOverdue       InvoiceStatus = "overdue"
	InvoiceDisputed      InvoiceStatus = "disputed"
	InvoiceCancelled     InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoicePending, InvoicePartiallyPaid, InvoiceFullyPaid, InvoiceOverdue, InvoiceDisputed, InvoiceCancelled:
		return true
	}
	return false
}

func (s InvoiceStatus) Label() string { return Label(string(s)) }

func (s *InvoiceStatus) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum[InvoiceStatus](data, "invoice status")
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Condition describes the physical condition of a stock line.
type Condition string

// Stock conditions.
const (
	ConditionNew         Condition = "new"
	ConditionDemoUnit    Condition = "demo_unit"
	ConditionBStock      Condition = "bstock"
	ConditionOpenBox     Condition = "open_box"
	ConditionRefurbished Condition = "refurbished"
)

// Conditions lists every stock condition.
var Conditions = []Condition{
	ConditionNew, ConditionDemoUnit, ConditionBStock, ConditionOpenBox, ConditionRefurbished,
}

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionDemoUnit, ConditionBStock, ConditionOpenBox, ConditionRefurbished:
		return true
	}
	return false
}

func (c Condition) Label() string {
	if c == ConditionBStock {
		return "B-Stock"
	}
	return Label(string(c))
}
