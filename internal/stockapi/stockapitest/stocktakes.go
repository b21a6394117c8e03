package stockapitest

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
)

// auditItems snapshots the stock lines at locations (all when empty) as
// uncounted stocktake items.
func (b *Backend) auditItems(auditID int64, locations []int64) []model.StocktakeItem {
	var items []model.StocktakeItem
	for _, st := range sorted(b.stock) {
		if len(locations) > 0 && (st.Location == nil || !slices.Contains(locations, st.Location.ID)) {
			continue
		}
		v := b.stockView(st.ID)
		item := model.StocktakeItem{
			ID: b.next(), Audit: auditID, Stock: model.Stock{ID: st.ID},
			SystemQuantity: v.Quantity, CommittedQuantity: v.CommittedQuantity, ReservedQuantity: v.ReservedQuantity,
			AuditAisle: v.Aisle,
		}
		if v.Location != nil {
			item.AuditLocation = v.Location.Name
		}
		items = append(items, item)
	}
	return items
}

func (b *Backend) stocktakeView(st *model.Stocktake) model.Stocktake {
	out := *st
	out.AuditItems = make([]model.StocktakeItem, len(st.AuditItems))
	out.TotalItemsPlanned = len(st.AuditItems)
	out.TotalItemsCounted = 0
	out.ItemsWithVariances = 0
	for i, item := range st.AuditItems {
		item.Stock = b.stockView(item.Stock.ID)
		if item.PhysicalCount != nil {
			out.TotalItemsCounted++
			if item.VarianceQuantity != 0 {
				out.ItemsWithVariances++
			}
		}
		out.AuditItems[i] = item
	}
	out.ProgressPercentage = decimal.Zero
	if out.TotalItemsPlanned > 0 {
		out.ProgressPercentage = decimal.NewFromInt(int64(out.TotalItemsCounted * 100)).
			Div(decimal.NewFromInt(int64(out.TotalItemsPlanned))).Round(2)
	}
	return out
}

func (b *Backend) findStocktake(w http.ResponseWriter, r *http.Request) *model.Stocktake {
	st, ok := b.stocktakes[pathID(r)]
	if !ok {
		notFound(w)
		return nil
	}
	return st
}

func (b *Backend) listStocktakes(w http.ResponseWriter, r *http.Request, a *Account) {
	status := r.URL.Query().Get("status")
	var out []model.Stocktake
	for _, st := range sorted(b.stocktakes) {
		if status != "" && string(st.Status) != status {
			continue
		}
		out = append(out, b.stocktakeView(st))
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *Backend) getStocktake(w http.ResponseWriter, r *http.Request, a *Account) {
	if st := b.findStocktake(w, r); st != nil {
		writeJSON(w, http.StatusOK, b.stocktakeView(st))
	}
}

func (b *Backend) createStocktake(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.CreateStocktake) {
		return
	}
	var in model.StocktakeInput
	if !decodeBody(w, r, &in) {
		return
	}
	errs := map[string][]string{}
	if in.Title == "" {
		errs["title"] = []string{"This field is required."}
	}
	if in.PlannedStartDate.IsZero() {
		errs["planned_start_date"] = []string{"This field is required."}
	}
	if in.PlannedEndDate.IsZero() {
		errs["planned_end_date"] = []string{"This field is required."}
	}
	if fieldErrors(w, errs) {
		return
	}
	if in.PlannedEndDate.Before(in.PlannedStartDate.Time) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"non_field_errors": {"Planned end date must be after start date."},
		})
		return
	}
	st := &model.Stocktake{
		ID: b.next(), Title: in.Title, Description: in.Description, AuditType: in.AuditType,
		Status: model.StocktakePlanned, PlannedStartDate: in.PlannedStartDate, PlannedEndDate: in.PlannedEndDate,
		CreatedBy: a.user(), CreatedAt: time.Now().UTC(),
	}
	if st.AuditType == "" {
		st.AuditType = model.AuditFull
	}
	st.AuditReference = fmt.Sprintf("SA-%04d", st.ID)
	for _, id := range in.LocationIDs {
		if s := b.stores[id]; s != nil {
			st.AuditLocations = append(st.AuditLocations, *s)
		}
	}
	st.AuditItems = b.auditItems(st.ID, in.LocationIDs)
	b.stocktakes[st.ID] = st
	writeJSON(w, http.StatusCreated, b.stocktakeView(st))
}

func (b *Backend) updateStocktake(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.CreateStocktake) {
		return
	}
	st := b.findStocktake(w, r)
	if st == nil {
		return
	}
	if st.Status != model.StocktakePlanned {
		writeError(w, http.StatusBadRequest, "Only planned audits can be edited")
		return
	}
	var in model.StocktakeInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Title != "" {
		st.Title = in.Title
	}
	if in.Description != "" {
		st.Description = in.Description
	}
	if !in.PlannedStartDate.IsZero() {
		st.PlannedStartDate = in.PlannedStartDate
	}
	if !in.PlannedEndDate.IsZero() {
		st.PlannedEndDate = in.PlannedEndDate
	}
	writeJSON(w, http.StatusOK, b.stocktakeView(st))
}

func (b *Backend) deleteStocktake(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.DeleteStocktake) {
		return
	}
	st := b.findStocktake(w, r)
	if st == nil {
		return
	}
	if st.Status != model.StocktakePlanned {
		writeError(w, http.StatusBadRequest, "Only planned audits can be deleted")
		return
	}
	delete(b.stocktakes, st.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) stocktakeItems(w http.ResponseWriter, r *http.Request, a *Account) {
	st := b.findStocktake(w, r)
	if st == nil {
		return
	}
	writeJSON(w, http.StatusOK, paginate(r, b.stocktakeView(st).AuditItems))
}

func (b *Backend) countItem(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ViewStock) {
		return
	}
	st := b.findStocktake(w, r)
	if st == nil {
		return
	}
	if st.Status != model.StocktakeInProgress {
		writeError(w, http.StatusBadRequest, "Can only count items in audits that are in progress")
		return
	}
	var in model.CountInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.CountedQuantity < 0 {
		writeError(w, http.StatusBadRequest, "Counted quantity cannot be negative")
		return
	}
	for i := range st.AuditItems {
		item := &st.AuditItems[i]
		if item.ID != in.ItemID {
			continue
		}
		now := time.Now().UTC()
		n := in.CountedQuantity
		item.PhysicalCount = &n
		item.VarianceQuantity = n - item.SystemQuantity
		item.VarianceNotes = in.Notes
		item.CountedBy = a.user()
		item.CountDate = &now
		message(w, "Item counted successfully")
		return
	}
	writeError(w, http.StatusNotFound, "Audit item not found")
}

func (b *Backend) stocktakeAction(w http.ResponseWriter, r *http.Request, a *Account) {
	st := b.findStocktake(w, r)
	if st == nil {
		return
	}
	name := r.PathValue("action")
	now := time.Now().UTC()
	reject := func() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Cannot %s audit with status '%s'", name, st.Status))
	}

	switch name {
	case "start":
		if !allowed(w, a, policy.StartStocktake) {
			return
		}
		if st.Status != model.StocktakePlanned {
			reject()
			return
		}
		st.Status = model.StocktakeInProgress
		st.ActualStartDate = &now
	case "complete":
		if !allowed(w, a, policy.CompleteStocktake) {
			return
		}
		if st.Status != model.StocktakeInProgress {
			reject()
			return
		}
		if v := b.stocktakeView(st); v.TotalItemsCounted < v.TotalItemsPlanned {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%d items have not been counted", v.TotalItemsPlanned-v.TotalItemsCounted))
			return
		}
		st.Status = model.StocktakeCompleted
		st.ActualEndDate = &now
	case "approve":
		if !allowed(w, a, policy.CompleteStocktake) {
			return
		}
		if st.Status != model.StocktakeCompleted {
			reject()
			return
		}
		for _, item := range st.AuditItems {
			stock, ok := b.stock[item.Stock.ID]
			if !ok || item.PhysicalCount == nil || item.VarianceQuantity == 0 {
				continue
			}
			stock.Quantity = *item.PhysicalCount
			b.record(stock, model.StockHistory{Note: "Stocktake " + st.AuditReference + " adjustment", CreatedBy: a.Username})
		}
		st.Status = model.StocktakeApproved
		st.ApprovedBy = a.user()
	case "cancel":
		if !allowed(w, a, policy.CancelStocktake) {
			return
		}
		if st.Status != model.StocktakePlanned && st.Status != model.StocktakeInProgress {
			reject()
			return
		}
		st.Status = model.StocktakeCancelled
	default:
		notFound(w)
		return
	}
	message(w, "Audit "+string(st.Status))
}
