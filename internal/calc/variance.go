package calc

import (
	"github.com/shopspring/decimal"

	"github.com/erazemk/stockmgtr/internal/model"
)

// ItemStatus classifies a stocktake item by its count.
type ItemStatus string

// Stocktake item statuses.
const (
	ItemPending     ItemStatus = "pending"
	ItemCounted     ItemStatus = "counted"
	ItemDiscrepancy ItemStatus = "discrepancy"
)

// Variance returns physical minus system and the resulting status. A nil
// physical count is pending with zero variance; a positive variance is a
// surplus.
func Variance(system int, physical *int) (int, ItemStatus) {
	if physical == nil {
		return 0, ItemPending
	}
	v := *physical - system
	if v == 0 {
		return 0, ItemCounted
	}
	return v, ItemDiscrepancy
}

// Summary aggregates the counting progress of a stocktake.
type Summary struct {
	Total        int
	Counted      int
	Pending      int
	WithVariance int
	NetVariance  int
	Progress     decimal.Decimal
}

// Complete reports whether every item has been counted.
func (s Summary) Complete() bool { return s.Total > 0 && s.Pending == 0 }

// Summarize computes progress and variance totals from the items.
func Summarize(items []model.StocktakeItem) Summary {
	s := Summary{Total: len(items), Progress: decimal.Zero}
	for _, it := range items {
		v, st := Variance(it.SystemQuantity, it.PhysicalCount)
		switch st {
		case ItemPending:
			s.Pending++
			continue
		case ItemDiscrepancy:
			s.WithVariance++
		}
		s.Counted++
		s.NetVariance += v
	}
	if s.Total > 0 {
		s.Progress = decimal.NewFromInt(int64(s.Counted)).Mul(hundred).
			Div(decimal.NewFromInt(int64(s.Total))).Round(1)
	}
	return s
}
