package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Audit types.
const (
	AuditFull      = "full"
	AuditPartial   = "partial"
	AuditCycle     = "cycle"
	AuditLocation  = "location"
	AuditCategory  = "category"
	AuditSpotCheck = "spot_check"
)

// AuditTypes lists the accepted stocktake types.
var AuditTypes = []string{AuditFull, AuditPartial, AuditCycle, AuditLocation, AuditCategory, AuditSpotCheck}

// StocktakeItem is one stock line being counted. PhysicalCount is nil until
// the line has been counted.
type StocktakeItem struct {
	ID                int64      `json:"id"`
	Audit             int64      `json:"audit"`
	Stock             Stock      `json:"stock"`
	SystemQuantity    int        `json:"system_quantity"`
	CommittedQuantity int        `json:"committed_quantity"`
	ReservedQuantity  int        `json:"reserved_quantity"`
	PhysicalCount     *int       `json:"physical_count"`
	VarianceQuantity  int        `json:"variance_quantity"`
	VarianceReason    string     `json:"variance_reason,omitempty"`
	VarianceNotes     string     `json:"variance_notes,omitempty"`
	CountedBy         *User      `json:"counted_by"`
	CountDate         *time.Time `json:"count_date"`
	AuditLocation     string     `json:"audit_location,omitempty"`
	AuditAisle        string     `json:"audit_aisle,omitempty"`
}

// Stocktake is a physical inventory count.
type Stocktake struct {
	ID                 int64           `json:"id"`
	AuditReference     string          `json:"audit_reference"`
	Title              string          `json:"title"`
	Description        string          `json:"description,omitempty"`
	AuditType          string          `json:"audit_type"`
	AuditLocations     []Store         `json:"audit_locations"`
	Status             StocktakeStatus `json:"status"`
	PlannedStartDate   Date            `json:"planned_start_date"`
	PlannedEndDate     Date            `json:"planned_end_date"`
	ActualStartDate    *time.Time      `json:"actual_start_date"`
	ActualEndDate      *time.Time      `json:"actual_end_date"`
	CreatedBy          *User           `json:"created_by"`
	ApprovedBy         *User           `json:"approved_by"`
	CreatedAt          time.Time       `json:"created_at"`
	AuditItems         []StocktakeItem `json:"audit_items"`
	ProgressPercentage decimal.Decimal `json:"progress_percentage"`
	TotalItemsPlanned  int             `json:"total_items_planned"`
	TotalItemsCounted  int             `json:"total_items_counted"`
	ItemsWithVariances int             `json:"items_with_variances"`
	TotalVarianceValue decimal.Decimal `json:"total_variance_value"`
}

// StocktakeInput creates or updates a stocktake.
type StocktakeInput struct {
	Title            string  `json:"title,omitempty"`
	Description      string  `json:"description,omitempty"`
	AuditType        string  `json:"audit_type,omitempty"`
	PlannedStartDate Date    `json:"planned_start_date"`
	PlannedEndDate   Date    `json:"planned_end_date"`
	LocationIDs      []int64 `json:"audit_location_ids,omitempty"`
	CategoryIDs      []int64 `json:"audit_category_ids,omitempty"`
}

// CountInput records the physical count of one stocktake item.
type CountInput struct {
	ItemID          int64  `json:"item_id"`
	CountedQuantity int    `json:"counted_quantity"`
	Notes           string `json:"notes,omitempty"`
}
