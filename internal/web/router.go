package web

import (
	"net/http"

	"github.com/erazemk/stockmgtr/internal/policy"
	"github.com/erazemk/stockmgtr/internal/session"
	webembed "github.com/erazemk/stockmgtr/web"
)

// Options configures the page router.
type Options struct {
	Sessions      *session.Manager
	JWTSecret     string
	SecureCookies bool
	// LoginRate is the sustained number of login attempts allowed per
	// client and minute, LoginBurst the number allowed at once.
	LoginRate  float64
	LoginBurst int
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(opts Options) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Sessions:      opts.Sessions,
		Templates:     templates,
		JWTSecret:     opts.JWTSecret,
		SecureCookies: opts.SecureCookies,
		limiter:       newLoginLimiter(opts.LoginRate, opts.LoginBurst),
	}

	mux := http.NewServeMux()

	// page registers an authenticated route that needs any of caps.
	page := func(pattern string, h http.HandlerFunc, caps ...policy.Capability) {
		mux.Handle(pattern, s.CookieAuthMiddleware(s.require(h, caps...)))
	}

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	page("GET /{$}", s.Dashboard)

	page("GET /stock", s.StockPage, policy.ViewStock)
	page("GET /stock/export", s.StockExport, policy.ViewStock)
	page("GET /stock/new", s.StockNewPage, policy.CreateStock)
	page("POST /stock", s.StockCreateSubmit, policy.CreateStock)
	page("GET /stock/{id}", s.StockDetailPage, policy.ViewStock)
	page("GET /stock/{id}/edit", s.StockEditPage, policy.EditStock)
	page("POST /stock/{id}", s.StockUpdateSubmit, policy.EditStock)
	page("POST /stock/{id}/delete", s.StockDeleteSubmit, policy.EditStock)
	page("POST /stock/{id}/issue", s.StockIssueSubmit, policy.IssueStock)
	page("POST /stock/{id}/receive", s.StockReceiveSubmit, policy.ReceiveStock)
	page("POST /stock/{id}/reserve", s.StockReserveSubmit, policy.ReserveStock)
	page("POST /stock/{id}/commit", s.StockCommitSubmit, policy.CommitStock)

	page("GET /committed", s.CommittedPage, policy.ViewStock)
	page("POST /committed/{id}/fulfill", s.CommittedFulfillSubmit, policy.FulfillCommitment)

	page("GET /reservations", s.ReservationsPage, policy.ViewStock)
	page("GET /reservations/new", s.ReservationNewPage, policy.ReserveStock)
	page("POST /reservations", s.ReservationCreateSubmit, policy.ReserveStock)
	page("GET /reservations/{id}", s.ReservationDetailPage, policy.ViewStock)
	page("POST /reservations/{id}/{action}", s.ReservationActionSubmit, policy.ReserveStock)

	page("GET /transfers", s.TransfersPage, policy.ViewStock)
	page("GET /transfers/new", s.TransferNewPage, policy.TransferStock)
	page("POST /transfers", s.TransferCreateSubmit, policy.TransferStock)
	page("GET /transfers/{id}", s.TransferDetailPage, policy.ViewStock)
	page("POST /transfers/{id}/{action}", s.TransferActionSubmit, policy.TransferStock)

	page("GET /stocktakes", s.StocktakesPage, policy.ViewStock)
	page("GET /stocktakes/new", s.StocktakeNewPage, policy.CreateStocktake)
	page("POST /stocktakes", s.StocktakeCreateSubmit, policy.CreateStocktake)
	page("GET /stocktakes/{id}", s.StocktakeDetailPage, policy.ViewStock)
	page("GET /stocktakes/{id}/export", s.StocktakeExport, policy.ViewStock)
	page("GET /stocktakes/{id}/edit", s.StocktakeEditPage, policy.CreateStocktake)
	page("POST /stocktakes/{id}", s.StocktakeUpdateSubmit, policy.CreateStocktake)
	page("POST /stocktakes/{id}/delete", s.StocktakeDeleteSubmit, policy.DeleteStocktake)
	page("POST /stocktakes/{id}/count", s.StocktakeCountSubmit, policy.ViewStock)
	page("POST /stocktakes/{id}/{action}", s.StocktakeActionSubmit,
		policy.StartStocktake, policy.CompleteStocktake, policy.CancelStocktake)

	page("GET /purchase-orders", s.PurchaseOrdersPage, policy.ViewPurchaseOrder)
	page("GET /purchase-orders/new", s.PurchaseOrderNewPage, policy.CreatePurchaseOrder)
	page("POST /purchase-orders", s.PurchaseOrderCreateSubmit, policy.CreatePurchaseOrder)
	page("GET /purchase-orders/{id}", s.PurchaseOrderDetailPage, policy.ViewPurchaseOrder)
	page("GET /purchase-orders/{id}/pdf", s.PurchaseOrderPDF, policy.ViewPurchaseOrder)
	page("GET /purchase-orders/{id}/edit", s.PurchaseOrderEditPage, policy.EditPurchaseOrder)
	page("POST /purchase-orders/{id}", s.PurchaseOrderUpdateSubmit, policy.EditPurchaseOrder)
	page("POST /purchase-orders/{id}/delete", s.PurchaseOrderDeleteSubmit, policy.DeletePurchaseOrder)
	page("POST /purchase-orders/{id}/{action}", s.PurchaseOrderActionSubmit,
		policy.SendPurchaseOrder, policy.ApprovePurchaseOrder, policy.CancelPurchaseOrder)
	page("GET /purchase-orders/{id}/receive", s.PurchaseOrderReceivePage, policy.ReceivePurchaseOrder)
	page("POST /purchase-orders/{id}/receive", s.PurchaseOrderReceiveSubmit, policy.ReceivePurchaseOrder)
	page("GET /purchase-orders/{id}/invoice", s.InvoiceNewPage, policy.CreateInvoices)
	page("POST /purchase-orders/{id}/invoice", s.InvoiceCreateSubmit, policy.CreateInvoices)

	page("GET /invoices/{id}", s.InvoiceDetailPage, policy.ViewPurchaseOrder)
	page("POST /invoices/{id}/payments", s.PaymentCreateSubmit, policy.ManagePayments)
	page("POST /invoices/{id}/payments/{payment}/delete", s.PaymentDeleteSubmit, policy.ManagePayments)

	page("GET /manufacturers", s.ManufacturersPage, policy.ViewPurchaseOrder, policy.ManageManufacturers)
	page("GET /manufacturers/new", s.ManufacturerNewPage, policy.ManageManufacturers)
	page("POST /manufacturers", s.ManufacturerCreateSubmit, policy.ManageManufacturers)
	page("GET /manufacturers/{id}/edit", s.ManufacturerEditPage, policy.ManageManufacturers)
	page("POST /manufacturers/{id}", s.ManufacturerUpdateSubmit, policy.ManageManufacturers)
	page("POST /manufacturers/{id}/delete", s.ManufacturerDeleteSubmit, policy.ManageManufacturers)

	mux.Handle("/", s.CookieAuthMiddleware(http.HandlerFunc(s.notFound)))

	return mux, nil
}

// require renders the forbidden page unless the session holds at least one
// of caps. No caps means any signed-in user.
func (s *Server) require(next http.HandlerFunc, caps ...policy.Capability) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(caps) > 0 && !CurrentSession(r.Context()).Caps.Any(caps...) {
			s.forbidden(w, r)
			return
		}
		next(w, r)
	})
}
