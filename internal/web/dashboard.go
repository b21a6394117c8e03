package web

import (
	"net/http"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
	"github.com/erazemk/stockmgtr/internal/stockapi"
)

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	ctx := r.Context()

	data := struct {
		PageData
		LowStock         []model.Stock
		PendingTransfers []model.Transfer
		ActiveStocktakes []model.Stocktake
		OpenOrders       []model.PurchaseOrder
	}{PageData: s.page(w, r, "Dashboard")}

	if sess.Caps.Has(policy.ViewStock) {
		low, err := sess.API.LowStock(ctx)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		data.LowStock = low.Results

		transfers, err := sess.API.ListTransfers(ctx, stockapi.ListOptions{Status: string(model.TransferPending)})
		if err != nil {
			s.fail(w, r, err)
			return
		}
		data.PendingTransfers = transfers.Results

		audits, err := sess.API.ListStocktakes(ctx, stockapi.ListOptions{Status: string(model.StocktakeInProgress)})
		if err != nil {
			s.fail(w, r, err)
			return
		}
		data.ActiveStocktakes = audits.Results
	}

	if sess.Caps.Has(policy.ViewPurchaseOrder) {
		orders, err := sess.API.ListPurchaseOrders(ctx, stockapi.ListOptions{})
		if err != nil {
			s.fail(w, r, err)
			return
		}
		for _, po := range orders.Results {
			switch po.Status {
			case model.POStatusCompleted, model.POStatusCancelled:
			default:
				data.OpenOrders = append(data.OpenOrders, po)
			}
		}
	}

	s.Templates.Render(w, "dashboard.html", &data)
}
