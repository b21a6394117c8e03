package stockapitest

import "net/http"

func (b *Backend) routes() {
	m := http.NewServeMux()
	p := func(method, path string) string { return method + " " + Prefix + path + "{$}" }

	m.HandleFunc(p("POST", "/auth/token/"), b.handleLogin)
	m.HandleFunc(p("POST", "/auth/token/refresh/"), b.handleRefresh)
	m.HandleFunc(p("POST", "/auth/token/verify/"), b.handleVerify)
	m.Handle(p("GET", "/auth/user/profile/"), b.authed(b.handleProfile))
	m.Handle(p("GET", "/auth/user/permissions/"), b.authed(b.handlePermissions))

	m.Handle(p("GET", "/stock/"), b.authed(b.listStock))
	m.Handle(p("POST", "/stock/"), b.authed(b.createStock))
	m.Handle(p("GET", "/stock/low-stock/"), b.authed(b.lowStock))
	m.Handle(p("GET", "/stock/{id}/"), b.authed(b.getStock))
	m.Handle(p("PATCH", "/stock/{id}/"), b.authed(b.updateStock))
	m.Handle(p("DELETE", "/stock/{id}/"), b.authed(b.deleteStock))
	m.Handle(p("GET", "/stock/{id}/history/"), b.authed(b.stockHistory))
	m.Handle(p("POST", "/stock/{id}/issue/"), b.authed(b.issueStock))
	m.Handle(p("POST", "/stock/{id}/receive/"), b.authed(b.receiveStock))
	m.Handle(p("POST", "/stock/{id}/reserve/"), b.authed(b.reserveStock))
	m.Handle(p("POST", "/stock/{id}/commit/"), b.authed(b.commitStock))

	m.Handle(p("GET", "/committed-stock/"), b.authed(b.listCommitted))
	m.Handle(p("POST", "/committed-stock/{id}/fulfill/"), b.authed(b.fulfillCommitment))

	m.Handle(p("GET", "/reservations/"), b.authed(b.listReservations))
	m.Handle(p("POST", "/reservations/"), b.authed(b.createReservation))
	m.Handle(p("GET", "/reservations/active/"), b.authed(b.activeReservations))
	m.Handle(p("GET", "/reservations/{id}/"), b.authed(b.getReservation))
	m.Handle(p("POST", "/reservations/{id}/{action}/"), b.authed(b.reservationAction))

	m.Handle(p("GET", "/transfers/"), b.authed(b.listTransfers))
	m.Handle(p("POST", "/transfers/"), b.authed(b.createTransfer))
	m.Handle(p("GET", "/transfers/{id}/"), b.authed(b.getTransfer))
	m.Handle(p("POST", "/transfers/{id}/{action}/"), b.authed(b.transferAction))

	m.Handle(p("GET", "/stock-audits/"), b.authed(b.listStocktakes))
	m.Handle(p("POST", "/stock-audits/"), b.authed(b.createStocktake))
	m.Handle(p("GET", "/stock-audits/{id}/"), b.authed(b.getStocktake))
	m.Handle(p("PATCH", "/stock-audits/{id}/"), b.authed(b.updateStocktake))
	m.Handle(p("DELETE", "/stock-audits/{id}/"), b.authed(b.deleteStocktake))
	m.Handle(p("GET", "/stock-audits/{id}/items/"), b.authed(b.stocktakeItems))
	m.Handle(p("POST", "/stock-audits/{id}/count_item/"), b.authed(b.countItem))
	m.Handle(p("POST", "/stock-audits/{id}/{action}/"), b.authed(b.stocktakeAction))

	m.Handle(p("GET", "/purchase-orders/"), b.authed(b.listPurchaseOrders))
	m.Handle(p("POST", "/purchase-orders/"), b.authed(b.createPurchaseOrder))
	m.Handle(p("GET", "/purchase-orders/{id}/"), b.authed(b.getPurchaseOrder))
	m.Handle(p("PATCH", "/purchase-orders/{id}/"), b.authed(b.updatePurchaseOrder))
	m.Handle(p("DELETE", "/purchase-orders/{id}/"), b.authed(b.deletePurchaseOrder))
	m.Handle(p("POST", "/purchase-orders/{id}/receive/"), b.authed(b.receivePurchaseOrder))
	m.Handle(p("POST", "/purchase-orders/{id}/create-invoice/"), b.authed(b.createInvoice))
	m.Handle(p("POST", "/purchase-orders/{id}/{action}/"), b.authed(b.purchaseOrderAction))

	m.Handle(p("GET", "/invoices/"), b.authed(b.listInvoices))
	m.Handle(p("GET", "/invoices/{id}/"), b.authed(b.getInvoice))
	m.Handle(p("POST", "/invoices/{id}/record-payment/"), b.authed(b.recordPayment))
	m.Handle(p("GET", "/payments/"), b.authed(b.listPayments))
	m.Handle(p("DELETE", "/payments/{id}/"), b.authed(b.deletePayment))

	m.Handle(p("GET", "/manufacturers/"), b.authed(b.listManufacturers))
	m.Handle(p("POST", "/manufacturers/"), b.authed(b.createManufacturer))
	m.Handle(p("GET", "/manufacturers/{id}/"), b.authed(b.getManufacturer))
	m.Handle(p("PUT", "/manufacturers/{id}/"), b.authed(b.updateManufacturer))
	m.Handle(p("DELETE", "/manufacturers/{id}/"), b.authed(b.deleteManufacturer))
	m.Handle(p("GET", "/delivery-persons/"), b.authed(b.listDeliveryPersons))
	m.Handle(p("GET", "/stores/"), b.authed(b.listStores))
	m.Handle(p("GET", "/categories/"), b.authed(b.listCategories))

	m.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { notFound(w) })
	b.mux = m
}
