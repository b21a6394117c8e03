package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/stockapi"
	"github.com/erazemk/stockmgtr/internal/workflow"
)

// stocktakeItemsPageSize is the number of items counted per page.
const stocktakeItemsPageSize = 50

// StocktakesPage handles GET /stocktakes.
func (s *Server) StocktakesPage(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	q := r.URL.Query()
	status := q.Get("status")
	if !model.StocktakeStatus(status).Valid() {
		status = ""
	}
	page, err := sess.API.ListStocktakes(r.Context(), stockapi.ListOptions{Page: queryPage(q), Status: status})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data := &struct {
		PageData
		Stocktakes *model.Page[model.Stocktake]
		Statuses   []model.StocktakeStatus
		Status     string
		PrevQuery  string
		NextQuery  string
	}{
		PageData:   s.page(w, r, "Stocktakes"),
		Stocktakes: page,
		Statuses:   model.StocktakeStatuses,
		Status:     status,
	}
	if page.HasPrevious() {
		data.PrevQuery = pageQuery(q, queryPage(q)-1)
	}
	if page.HasNext() {
		data.NextQuery = pageQuery(q, queryPage(q)+1)
	}
	s.Templates.Render(w, "stocktakes.html", data)
}

// StocktakeDetailPage handles GET /stocktakes/{id}.
func (s *Server) StocktakeDetailPage(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	q := r.URL.Query()
	st, err := sess.API.GetStocktake(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := sess.API.StocktakeItems(r.Context(), id, stockapi.ListOptions{Page: queryPage(q), PageSize: stocktakeItemsPageSize})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	actions := workflow.Stocktake(st, sess.Caps)
	data := &struct {
		PageData
		Stocktake *model.Stocktake
		Items     *model.Page[model.StocktakeItem]
		Actions   workflow.Actions
		CanCount  bool
		PrevQuery string
		NextQuery string
	}{
		PageData:  s.page(w, r, st.AuditReference+" "+st.Title),
		Stocktake: st,
		Items:     items,
		Actions:   actions,
		CanCount:  actions.Has(workflow.Count),
	}
	if items.HasPrevious() {
		data.PrevQuery = pageQuery(q, queryPage(q)-1)
	}
	if items.HasNext() {
		data.NextQuery = pageQuery(q, queryPage(q)+1)
	}
	s.Templates.Render(w, "stocktake_detail.html", data)
}

func (s *Server) renderStocktakeForm(w http.ResponseWriter, r *http.Request, st *model.Stocktake, pd PageData) {
	sess := CurrentSession(r.Context())
	stores, err := sess.API.ListStores(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cats, err := sess.API.ListCategories(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Templates.Render(w, "stocktake_form.html", &struct {
		PageData
		Stocktake  *model.Stocktake
		Stores     []model.Store
		Categories []model.Category
		Types      []string
	}{
		PageData:   pd,
		Stocktake:  st,
		Stores:     stores.Results,
		Categories: cats.Results,
		Types:      model.AuditTypes,
	})
}

// StocktakeNewPage handles GET /stocktakes/new.
func (s *Server) StocktakeNewPage(w http.ResponseWriter, r *http.Request) {
	pd := s.page(w, r, "New stocktake")
	pd.Form.Set("audit_type", model.AuditFull)
	s.renderStocktakeForm(w, r, nil, pd)
}

func stocktakeInput(f *form) model.StocktakeInput {
	in := model.StocktakeInput{
		Title:            f.str("title"),
		Description:      f.str("description"),
		AuditType:        f.str("audit_type"),
		PlannedStartDate: f.date("planned_start_date", "Planned start"),
		PlannedEndDate:   f.date("planned_end_date", "Planned end"),
		LocationIDs:      f.ids("audit_location_ids", "location"),
		CategoryIDs:      f.ids("audit_category_ids", "category"),
	}
	if in.AuditType != "" && !slices.Contains(model.AuditTypes, in.AuditType) {
		f.invalid("Unknown audit type.")
	}
	return in
}

// StocktakeCreateSubmit handles POST /stocktakes.
func (s *Server) StocktakeCreateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	f := newForm(r)
	in := stocktakeInput(f)

	pd := s.page(w, r, "New stocktake")
	pd.Form = f.values
	if !f.ok() {
		pd.Error = f.msg
		s.renderStocktakeForm(w, r, nil, pd)
		return
	}

	st, err := sess.API.CreateStocktake(r.Context(), in)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		pd.Error = userMessage(err)
		s.renderStocktakeForm(w, r, nil, pd)
		return
	}
	slog.Info("stocktake created", "user", sess.Username, "id", st.ID, "reference", st.AuditReference)
	s.redirect(w, r, fmt.Sprintf("/stocktakes/%d", st.ID), "Stocktake "+st.AuditReference+" created.")
}

func stocktakeFormValues(st *model.Stocktake) url.Values {
	v := url.Values{}
	v.Set("title", st.Title)
	v.Set("description", st.Description)
	v.Set("audit_type", st.AuditType)
	v.Set("planned_start_date", st.PlannedStartDate.String())
	v.Set("planned_end_date", st.PlannedEndDate.String())
	for _, loc := range st.AuditLocations {
		v.Add("audit_location_ids", strconv.FormatInt(loc.ID, 10))
	}
	return v
}

// StocktakeEditPage handles GET /stocktakes/{id}/edit.
func (s *Server) StocktakeEditPage(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	st, err := sess.API.GetStocktake(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pd := s.page(w, r, "Edit "+st.AuditReference)
	pd.Form = stocktakeFormValues(st)
	s.renderStocktakeForm(w, r, st, pd)
}

// StocktakeUpdateSubmit handles POST /stocktakes/{id}.
func (s *Server) StocktakeUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	f := newForm(r)
	in := stocktakeInput(f)

	retry := func(msg string) {
		st, err := sess.API.GetStocktake(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		pd := s.page(w, r, "Edit "+st.AuditReference)
		pd.Form = f.values
		pd.Error = msg
		s.renderStocktakeForm(w, r, st, pd)
	}
	if !f.ok() {
		retry(f.msg)
		return
	}
	if _, err := sess.API.UpdateStocktake(r.Context(), id, in); err != nil {
		if s.expired(w, r, err) {
			return
		}
		retry(userMessage(err))
		return
	}
	slog.Info("stocktake updated", "user", sess.Username, "id", id)
	s.redirect(w, r, fmt.Sprintf("/stocktakes/%d", id), "Stocktake updated.")
}

// StocktakeDeleteSubmit handles POST /stocktakes/{id}/delete.
func (s *Server) StocktakeDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if err := sess.API.DeleteStocktake(r.Context(), id); err != nil {
		s.actionFailed(w, r, err, fmt.Sprintf("/stocktakes/%d", id))
		return
	}
	slog.Info("stocktake deleted", "user", sess.Username, "id", id)
	s.redirect(w, r, "/stocktakes", "Stocktake deleted.")
}

// StocktakeCountSubmit handles POST /stocktakes/{id}/count.
func (s *Server) StocktakeCountSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	f := newForm(r)
	in := model.CountInput{
		ItemID:          f.id("item_id", "item"),
		CountedQuantity: f.int("counted_quantity", "Counted quantity"),
		Notes:           f.str("notes"),
	}
	if f.str("counted_quantity") == "" {
		f.invalid("Enter the counted quantity.")
	}

	back := fmt.Sprintf("/stocktakes/%d", id)
	if p := f.str("page"); p != "" {
		back += "?page=" + url.QueryEscape(p)
	}
	if !f.ok() {
		s.setFlash(w, flashErrorCookie, f.msg)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	msg, err := sess.API.CountItem(r.Context(), id, in)
	if err != nil {
		s.actionFailed(w, r, err, back)
		return
	}
	slog.Info("stocktake item counted", "user", sess.Username, "stocktake", id, "item", in.ItemID, "count", in.CountedQuantity)
	s.redirect(w, r, back, msg.Message)
}

// StocktakeActionSubmit handles POST /stocktakes/{id}/{action}.
func (s *Server) StocktakeActionSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	name := r.PathValue("action")
	if !slices.Contains(stockapi.StocktakeActions, name) {
		s.notFound(w, r)
		return
	}
	if !workflow.AllowedStocktake(name, sess.Caps) {
		s.forbidden(w, r)
		return
	}
	back := fmt.Sprintf("/stocktakes/%d", id)
	msg, err := sess.API.StocktakeAction(r.Context(), id, name)
	if err != nil {
		s.actionFailed(w, r, err, back)
		return
	}
	slog.Info("stocktake "+name, "user", sess.Username, "id", id)
	s.redirect(w, r, back, msg.Message)
}

// allStocktakeItems pages through every item of a stocktake.
func allStocktakeItems(r *http.Request, api *stockapi.Service, id int64) ([]model.StocktakeItem, error) {
	var items []model.StocktakeItem
	for page := 1; ; page++ {
		p, err := api.StocktakeItems(r.Context(), id, stockapi.ListOptions{Page: page, PageSize: 100})
		if err != nil {
			return nil, err
		}
		items = append(items, p.Results...)
		if !p.HasNext() {
			return items, nil
		}
	}
}
