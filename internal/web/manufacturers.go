package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/stockapi"
)

// ManufacturersPage handles GET /manufacturers.
func (s *Server) ManufacturersPage(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	q := r.URL.Query()
	page, err := sess.API.ListManufacturers(r.Context(), stockapi.ListOptions{
		Page:   queryPage(q),
		Search: q.Get("q"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data := &struct {
		PageData
		Manufacturers *model.Page[model.Manufacturer]
		Search        string
		PrevQuery     string
		NextQuery     string
	}{
		PageData:      s.page(w, r, "Manufacturers"),
		Manufacturers: page,
		Search:        q.Get("q"),
	}
	if page.HasPrevious() {
		data.PrevQuery = pageQuery(q, queryPage(q)-1)
	}
	if page.HasNext() {
		data.NextQuery = pageQuery(q, queryPage(q)+1)
	}
	s.Templates.Render(w, "manufacturers.html", data)
}

func (s *Server) renderManufacturerForm(w http.ResponseWriter, m *model.Manufacturer, pd PageData) {
	s.Templates.Render(w, "manufacturer_form.html", &struct {
		PageData
		Manufacturer *model.Manufacturer
	}{PageData: pd, Manufacturer: m})
}

func manufacturerInput(f *form) model.ManufacturerInput {
	return model.ManufacturerInput{
		CompanyName:      f.str("company_name"),
		CompanyEmail:     f.str("company_email"),
		AdditionalEmail:  f.str("additional_email"),
		StreetAddress:    f.str("street_address"),
		City:             f.str("city"),
		Country:          f.str("country"),
		Region:           f.str("region"),
		PostalCode:       f.str("postal_code"),
		CompanyTelephone: f.str("company_telephone"),
		ABN:              f.str("abn"),
	}
}

func manufacturerFormValues(m *model.Manufacturer) url.Values {
	v := url.Values{}
	v.Set("company_name", m.CompanyName)
	v.Set("company_email", m.CompanyEmail)
	v.Set("additional_email", m.AdditionalEmail)
	v.Set("street_address", m.StreetAddress)
	v.Set("city", m.City)
	v.Set("country", m.Country)
	v.Set("region", m.Region)
	v.Set("postal_code", m.PostalCode)
	v.Set("company_telephone", m.CompanyTelephone)
	v.Set("abn", m.ABN)
	return v
}

// ManufacturerNewPage handles GET /manufacturers/new.
func (s *Server) ManufacturerNewPage(w http.ResponseWriter, r *http.Request) {
	s.renderManufacturerForm(w, nil, s.page(w, r, "New manufacturer"))
}

// ManufacturerCreateSubmit handles POST /manufacturers.
func (s *Server) ManufacturerCreateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	f := newForm(r)
	pd := s.page(w, r, "New manufacturer")
	pd.Form = f.values
	if !f.ok() {
		pd.Error = f.msg
		s.renderManufacturerForm(w, nil, pd)
		return
	}

	m, err := sess.API.CreateManufacturer(r.Context(), manufacturerInput(f))
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		pd.Error = userMessage(err)
		s.renderManufacturerForm(w, nil, pd)
		return
	}
	slog.Info("manufacturer created", "user", sess.Username, "id", m.ID, "name", m.CompanyName)
	s.redirect(w, r, "/manufacturers", m.CompanyName+" added.")
}

// ManufacturerEditPage handles GET /manufacturers/{id}/edit.
func (s *Server) ManufacturerEditPage(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	m, err := sess.API.GetManufacturer(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pd := s.page(w, r, "Edit "+m.CompanyName)
	pd.Form = manufacturerFormValues(m)
	s.renderManufacturerForm(w, m, pd)
}

// ManufacturerUpdateSubmit handles POST /manufacturers/{id}.
func (s *Server) ManufacturerUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	f := newForm(r)
	current := &model.Manufacturer{ID: id}

	if f.ok() {
		m, err := sess.API.UpdateManufacturer(r.Context(), id, manufacturerInput(f))
		if err == nil {
			slog.Info("manufacturer updated", "user", sess.Username, "id", id)
			s.redirect(w, r, "/manufacturers", m.CompanyName+" updated.")
			return
		}
		if s.expired(w, r, err) {
			return
		}
		f.invalid("%s", userMessage(err))
	}

	pd := s.page(w, r, "Edit manufacturer")
	pd.Form = f.values
	pd.Error = f.msg
	s.renderManufacturerForm(w, current, pd)
}

// ManufacturerDeleteSubmit handles POST /manufacturers/{id}/delete.
func (s *Server) ManufacturerDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if err := sess.API.DeleteManufacturer(r.Context(), id); err != nil {
		s.actionFailed(w, r, err, fmt.Sprintf("/manufacturers/%d/edit", id))
		return
	}
	slog.Info("manufacturer deleted", "user", sess.Username, "id", id)
	s.redirect(w, r, "/manufacturers", "Manufacturer deleted.")
}
