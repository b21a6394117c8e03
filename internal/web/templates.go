package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/erazemk/stockmgtr/internal/calc"
	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
	"github.com/erazemk/stockmgtr/internal/session"
	webembed "github.com/erazemk/stockmgtr/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"money":   calc.Money,
		"percent": calc.Percent,
		"date": func(v any) string {
			switch d := v.(type) {
			case model.Date:
				return d.String()
			case time.Time:
				if d.IsZero() {
					return ""
				}
				return d.Local().Format("2006-01-02 15:04")
			case *time.Time:
				if d == nil || d.IsZero() {
					return ""
				}
				return d.Local().Format("2006-01-02 15:04")
			}
			return ""
		},
		"person": (*model.User).DisplayName,
		"label":  model.Label,
		"variance": func(system int, physical *int) int {
			v, _ := calc.Variance(system, physical)
			return v
		},
		"itemStatus": func(system int, physical *int) string {
			_, st := calc.Variance(system, physical)
			return string(st)
		},
		"deref": func(p *int) int {
			if p == nil {
				return 0
			}
			return *p
		},
		"add": func(a, b int) int { return a + b },
		// in reports whether the form field key holds val, for multi-selects.
		"in": func(v url.Values, key string, val any) bool {
			return slices.Contains(v[key], fmt.Sprint(val))
		},
	}
}

var pages = []string{
	"login.html",
	"error.html",
	"dashboard.html",
	"stock_list.html",
	"stock_detail.html",
	"stock_form.html",
	"committed.html",
	"reservations.html",
	"reservation_detail.html",
	"reservation_form.html",
	"transfers.html",
	"transfer_detail.html",
	"transfer_form.html",
	"stocktakes.html",
	"stocktake_detail.html",
	"stocktake_form.html",
	"purchase_orders.html",
	"purchase_order_detail.html",
	"purchase_order_form.html",
	"purchase_order_receive.html",
	"invoice_form.html",
	"invoice_detail.html",
	"manufacturers.html",
	"manufacturer_form.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data and a 200 status.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given data and status.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates. Form holds submitted
// or prefilled form values.
type PageData struct {
	Title   string
	Session *session.Session
	Caps    policy.Set
	Error   string
	Success string
	Form    url.Values
}

// Server holds all dependencies for page handlers.
type Server struct {
	Sessions      *session.Manager
	Templates     *Templates
	JWTSecret     string
	SecureCookies bool
	limiter       *loginLimiter
}

// page returns the base page data for the request, consuming any flash
// message.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string) PageData {
	pd := PageData{Title: title, Form: url.Values{}}
	if sess := CurrentSession(r.Context()); sess != nil {
		pd.Session = sess
		pd.Caps = sess.Caps
	}
	pd.Success = takeFlash(w, r, flashCookie)
	pd.Error = takeFlash(w, r, flashErrorCookie)
	return pd
}
