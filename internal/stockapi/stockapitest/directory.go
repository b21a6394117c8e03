package stockapitest

import (
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
)

func (b *Backend) listManufacturers(w http.ResponseWriter, r *http.Request, a *Account) {
	search := strings.ToLower(r.URL.Query().Get("search"))
	var out []model.Manufacturer
	for _, m := range sorted(b.manufacturers) {
		if search != "" && !strings.Contains(strings.ToLower(m.CompanyName), search) {
			continue
		}
		out = append(out, *m)
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *Backend) getManufacturer(w http.ResponseWriter, r *http.Request, a *Account) {
	m, ok := b.manufacturers[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func validateManufacturer(in model.ManufacturerInput) map[string][]string {
	errs := map[string][]string{}
	if strings.TrimSpace(in.CompanyName) == "" {
		errs["company_name"] = []string{"This field is required."}
	}
	if in.CompanyEmail != "" && !strings.Contains(in.CompanyEmail, "@") {
		errs["company_email"] = []string{"Enter a valid email address."}
	}
	return errs
}

func applyManufacturer(m *model.Manufacturer, in model.ManufacturerInput) {
	m.CompanyName = in.CompanyName
	m.CompanyEmail = in.CompanyEmail
	m.AdditionalEmail = in.AdditionalEmail
	m.StreetAddress = in.StreetAddress
	m.City = in.City
	m.Country = in.Country
	m.Region = in.Region
	m.PostalCode = in.PostalCode
	m.CompanyTelephone = in.CompanyTelephone
	m.ABN = in.ABN
	m.UpdatedAt = time.Now().UTC()
}

func (b *Backend) createManufacturer(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ManageManufacturers) {
		return
	}
	var in model.ManufacturerInput
	if !decodeBody(w, r, &in) || fieldErrors(w, validateManufacturer(in)) {
		return
	}
	m := &model.Manufacturer{ID: b.next(), CreatedAt: time.Now().UTC()}
	applyManufacturer(m, in)
	b.manufacturers[m.ID] = m
	writeJSON(w, http.StatusCreated, m)
}

func (b *Backend) updateManufacturer(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ManageManufacturers) {
		return
	}
	m, ok := b.manufacturers[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	var in model.ManufacturerInput
	if !decodeBody(w, r, &in) || fieldErrors(w, validateManufacturer(in)) {
		return
	}
	applyManufacturer(m, in)
	writeJSON(w, http.StatusOK, m)
}

func (b *Backend) deleteManufacturer(w http.ResponseWriter, r *http.Request, a *Account) {
	if !allowed(w, a, policy.ManageManufacturers) {
		return
	}
	m, ok := b.manufacturers[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	for _, po := range b.purchaseOrders {
		if po.Manufacturer == m.CompanyName {
			writeError(w, http.StatusBadRequest, "Cannot delete manufacturer with existing purchase orders")
			return
		}
	}
	delete(b.manufacturers, m.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) listDeliveryPersons(w http.ResponseWriter, r *http.Request, a *Account) {
	var out []model.DeliveryPerson
	for _, d := range sorted(b.deliveryPersons) {
		out = append(out, *d)
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *Backend) listStores(w http.ResponseWriter, r *http.Request, a *Account) {
	var out []model.Store
	for _, s := range sorted(b.stores) {
		out = append(out, *s)
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *Backend) listCategories(w http.ResponseWriter, r *http.Request, a *Account) {
	var out []model.Category
	for _, c := range sorted(b.categories) {
		out = append(out, *c)
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}
