package stockapi_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockmgtr/internal/cache"
	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
	"github.com/erazemk/stockmgtr/internal/stockapi"
	"github.com/erazemk/stockmgtr/internal/stockapi/stockapitest"
	"github.com/erazemk/stockmgtr/internal/upstream"
)

func setupService(t *testing.T, username string) (*stockapi.Service, *stockapitest.Backend) {
	t.Helper()
	backend := stockapitest.Start(t)
	client, err := upstream.New(backend.URL, upstream.NewHTTPClient(5*time.Second), upstream.NewMemoryTokens(model.TokenPair{}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Login(context.Background(), username, "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	return stockapi.New(client, cache.New(), "test", stockapi.DefaultTTLs), backend
}

func TestCachedListMakesOneRequest(t *testing.T) {
	svc, backend := setupService(t, "manager")
	ctx := context.Background()

	for range 3 {
		page, err := svc.ListStock(ctx, model.StockFilter{})
		if err != nil {
			t.Fatalf("list stock: %v", err)
		}
		if page.Count != 4 {
			t.Fatalf("expected 4 stock lines, got %d", page.Count)
		}
	}
	if n := backend.Hits("GET", "/stock/"); n != 1 {
		t.Errorf("expected 1 upstream request, got %d", n)
	}
}

func TestMutationInvalidatesList(t *testing.T) {
	svc, backend := setupService(t, "manager")
	ctx := context.Background()

	if _, err := svc.GetStock(ctx, stockapitest.FridgeID); err != nil {
		t.Fatalf("get stock: %v", err)
	}
	res, err := svc.IssueStock(ctx, stockapitest.FridgeID, model.IssueInput{Quantity: 2, IssuedBy: "manager"})
	if err != nil {
		t.Fatalf("issue stock: %v", err)
	}
	if res.NewQuantity != 10 {
		t.Errorf("expected new quantity 10, got %d", res.NewQuantity)
	}

	st, err := svc.GetStock(ctx, stockapitest.FridgeID)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if st.Quantity != 10 {
		t.Errorf("expected fresh quantity 10, got %d", st.Quantity)
	}
	if n := backend.Hits("GET", "/stock/201/"); n != 2 {
		t.Errorf("expected 2 upstream reads, got %d", n)
	}
}

func TestDerivedStockQuantities(t *testing.T) {
	svc, _ := setupService(t, "manager")

	st, err := svc.GetStock(context.Background(), stockapitest.FridgeID)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	// 12 on hand, 2 reserved, 1 committed.
	if st.AvailableForSale != 9 || st.ReservedQuantity != 2 || st.CommittedQuantity != 1 {
		t.Errorf("unexpected quantities: %+v", st)
	}
}

func TestExpiredAccessTokenIsRefreshed(t *testing.T) {
	svc, backend := setupService(t, "manager")
	ctx := context.Background()

	backend.ExpireAccessTokens()
	if _, err := svc.ListTransfers(ctx, stockapi.ListOptions{}); err != nil {
		t.Fatalf("list transfers after expiry: %v", err)
	}
	if n := backend.RefreshCalls(); n != 1 {
		t.Errorf("expected 1 refresh, got %d", n)
	}
}

func TestFailedRefreshExpiresSession(t *testing.T) {
	svc, backend := setupService(t, "manager")
	ctx := context.Background()

	backend.ExpireAccessTokens()
	backend.SetFailRefresh(true)
	_, err := svc.ListTransfers(ctx, stockapi.ListOptions{})
	if !errors.Is(err, upstream.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if svc.Client().IsAuthenticated(ctx) {
		t.Error("tokens should be cleared after a failed refresh")
	}
}

func TestRejectedTransition(t *testing.T) {
	svc, _ := setupService(t, "manager")
	ctx := context.Background()

	_, err := svc.TransferAction(ctx, stockapitest.TransferID, "complete")
	if upstream.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	var apiErr *upstream.Error
	if !errors.As(err, &apiErr) || !strings.Contains(apiErr.Message, "pending") {
		t.Errorf("expected message naming the status, got %v", err)
	}

	if _, err := svc.TransferAction(ctx, stockapitest.TransferID, "teleport"); err == nil {
		t.Error("expected unknown action to be rejected before any request")
	}
}

func TestTransferLifecycle(t *testing.T) {
	svc, _ := setupService(t, "manager")
	ctx := context.Background()

	for _, action := range []string{"approve", "dispatch", "complete"} {
		if _, err := svc.TransferAction(ctx, stockapitest.TransferID, action); err != nil {
			t.Fatalf("%s: %v", action, err)
		}
	}
	tr, err := svc.GetTransfer(ctx, stockapitest.TransferID)
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if tr.Status != model.TransferCompleted {
		t.Errorf("expected completed, got %s", tr.Status)
	}
}

func TestStocktakeCountAndApprove(t *testing.T) {
	svc, backend := setupService(t, "manager")
	ctx := context.Background()

	if _, err := svc.StocktakeAction(ctx, stockapitest.StocktakeID, "start"); err != nil {
		t.Fatalf("start: %v", err)
	}
	items, err := svc.StocktakeItems(ctx, stockapitest.StocktakeID, stockapi.ListOptions{})
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items.Results) != 4 {
		t.Fatalf("expected 4 audit items, got %d", len(items.Results))
	}

	if _, err := svc.StocktakeAction(ctx, stockapitest.StocktakeID, "complete"); upstream.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected completing an uncounted stocktake to fail, got %v", err)
	}

	for _, item := range items.Results {
		counted := item.SystemQuantity
		if item.Stock.ID == stockapitest.FridgeID {
			counted = item.SystemQuantity - 3
		}
		if _, err := svc.CountItem(ctx, stockapitest.StocktakeID, model.CountInput{ItemID: item.ID, CountedQuantity: counted}); err != nil {
			t.Fatalf("count item %d: %v", item.ID, err)
		}
	}

	st, err := svc.GetStocktake(ctx, stockapitest.StocktakeID)
	if err != nil {
		t.Fatalf("get stocktake: %v", err)
	}
	if st.TotalItemsCounted != 4 || st.ItemsWithVariances != 1 {
		t.Errorf("expected 4 counted with 1 variance, got %d and %d", st.TotalItemsCounted, st.ItemsWithVariances)
	}

	for _, action := range []string{"complete", "approve"} {
		if _, err := svc.StocktakeAction(ctx, stockapitest.StocktakeID, action); err != nil {
			t.Fatalf("%s: %v", action, err)
		}
	}
	if q := backend.Quantity(stockapitest.FridgeID); q != 9 {
		t.Errorf("expected approved count to set quantity 9, got %d", q)
	}
}

func TestCountItemOutsideProgressFails(t *testing.T) {
	svc, _ := setupService(t, "manager")

	_, err := svc.CountItem(context.Background(), stockapitest.StocktakeID, model.CountInput{ItemID: 1, CountedQuantity: 1})
	if upstream.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestCreatePurchaseOrderValidation(t *testing.T) {
	svc, _ := setupService(t, "manager")

	_, err := svc.CreatePurchaseOrder(context.Background(), model.PurchaseOrderInput{
		ManufacturerID: stockapitest.ManufacturerID,
		DeliveryType:   model.DeliveryStore,
	})
	var apiErr *upstream.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if apiErr.Message != "items: At least one item is required." {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
	if apiErr.Kind() != upstream.KindClient {
		t.Errorf("expected client error kind, got %s", apiErr.Kind())
	}
}

func TestReceiveAndInvoicePurchaseOrder(t *testing.T) {
	svc, backend := setupService(t, "manager")
	ctx := context.Background()

	po, err := svc.GetPurchaseOrder(ctx, stockapitest.SentOrderID)
	if err != nil {
		t.Fatalf("get purchase order: %v", err)
	}
	line := po.Items[0]
	_, err = svc.ReceivePurchaseOrder(ctx, po.ID, model.ReceiveOrderInput{
		Items:            []model.ReceiveLine{{ID: line.ID, ReceivedQuantity: 1}},
		ReceivingStoreID: stockapitest.CityStoreID,
		DeliveryDate:     model.NewDate(time.Now()),
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if q := backend.Quantity(stockapitest.SpeakerID); q != 4 {
		t.Errorf("expected speaker quantity 4, got %d", q)
	}

	inv, err := svc.CreateInvoice(ctx, po.ID, model.InvoiceInput{
		InvoiceNumber:    "INV-1",
		InvoiceDate:      model.NewDate(time.Now()),
		DueDate:          model.NewDate(time.Now().AddDate(0, 0, 30)),
		InvoiceAmountExc: decimal.RequireFromString("200"),
		GSTAmount:        decimal.RequireFromString("20"),
		InvoiceTotal:     decimal.RequireFromString("220"),
		File:             &model.Attachment{Filename: "inv.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if inv.InvoiceFile != "/media/invoices/inv.pdf" {
		t.Errorf("expected uploaded file path, got %q", inv.InvoiceFile)
	}

	got, ok := backend.PurchaseOrder(po.ID)
	if !ok || got.Status != model.POStatusPartiallyReceived || len(got.Invoices) != 1 {
		t.Errorf("unexpected purchase order after receive and invoice: %+v", got)
	}

	if _, err := svc.RecordPayment(ctx, inv.ID, model.PaymentInput{
		PaymentReference: "PAY-1",
		PaymentDate:      model.NewDate(time.Now()),
		PaymentAmount:    decimal.RequireFromString("300"),
		PaymentMethod:    model.PaymentBankTransfer,
	}); upstream.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected overpayment to be rejected, got %v", err)
	}
	if _, err := svc.RecordPayment(ctx, inv.ID, model.PaymentInput{
		PaymentReference: "PAY-1",
		PaymentDate:      model.NewDate(time.Now()),
		PaymentAmount:    decimal.RequireFromString("220"),
		PaymentMethod:    model.PaymentBankTransfer,
	}); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	paid, err := svc.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if paid.Status != model.InvoiceFullyPaid || !paid.OutstandingAmount.IsZero() {
		t.Errorf("expected fully paid invoice, got %s with %s outstanding", paid.Status, paid.OutstandingAmount)
	}
}

func TestSearchProductsGroupsDuplicateNames(t *testing.T) {
	svc, backend := setupService(t, "manager")
	ctx := context.Background()

	opts, err := svc.SearchProducts(ctx, "fridge")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(opts) != 2 {
		t.Fatalf("expected 2 options, got %d", len(opts))
	}
	if opts[0].Value != "Fridge 400L_201" || opts[0].Label != "Fridge 400L (Main Warehouse) - Qty: 12" {
		t.Errorf("unexpected first option %+v", opts[0])
	}
	for _, o := range opts {
		if o.OriginalName != "Fridge 400L" {
			t.Errorf("expected the plain product name, got %q", o.OriginalName)
		}
	}

	opts, err = svc.SearchProducts(ctx, "dish")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(opts) != 1 || opts[0].Value != "Dishwasher" || opts[0].OriginalName != "Dishwasher" {
		t.Errorf("unexpected options %+v", opts)
	}

	svc.SearchProducts(ctx, "dish")
	if n := backend.Hits("GET", "/stock/"); n != 3 {
		t.Errorf("search must not be cached, got %d requests", n)
	}
}

func TestSearchProductsEmptyTerm(t *testing.T) {
	svc, backend := setupService(t, "manager")

	opts, err := svc.SearchProducts(context.Background(), "")
	if err != nil || len(opts) != 0 {
		t.Fatalf("expected no options, got %v, %v", opts, err)
	}
	if n := backend.Hits("GET", "/stock/"); n != 0 {
		t.Errorf("expected no request, got %d", n)
	}
}

func TestPermissions(t *testing.T) {
	svc, _ := setupService(t, "viewer")
	ctx := context.Background()

	caps, err := svc.Permissions(ctx)
	if err != nil {
		t.Fatalf("permissions: %v", err)
	}
	if !caps.Has(policy.ViewStock) || caps.Has(policy.CreatePurchaseOrder) {
		t.Errorf("unexpected capabilities %v", caps.Granted())
	}

	_, err = svc.ListPurchaseOrders(ctx, stockapi.ListOptions{})
	if upstream.StatusOf(err) != http.StatusForbidden {
		t.Errorf("expected 403 for purchase orders, got %v", err)
	}
}

func TestPermissionsWithoutRole(t *testing.T) {
	backend := stockapitest.Start(t)
	backend.AddAccount("pending", "secret", "")
	client, err := upstream.New(backend.URL, nil, upstream.NewMemoryTokens(model.TokenPair{}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()
	if _, err := client.Login(ctx, "pending", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	svc := stockapi.New(client, nil, "pending", stockapi.DefaultTTLs)

	caps, err := svc.Permissions(ctx)
	if err != nil {
		t.Fatalf("permissions: %v", err)
	}
	if len(caps.Granted()) != 0 {
		t.Errorf("expected no capabilities, got %v", caps.Granted())
	}
	profile, err := svc.Profile(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.RoleName() != "pending" {
		t.Errorf("expected pending role, got %q", profile.RoleName())
	}
}

func TestManufacturerDirectory(t *testing.T) {
	svc, backend := setupService(t, "manager")
	ctx := context.Background()

	if _, err := svc.ListManufacturers(ctx, stockapi.ListOptions{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	m, err := svc.CreateManufacturer(ctx, model.ManufacturerInput{CompanyName: "Beta Audio", CompanyEmail: "hi@beta.example"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	page, err := svc.ListManufacturers(ctx, stockapi.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Count != 2 {
		t.Errorf("expected 2 manufacturers after create, got %d", page.Count)
	}
	if n := backend.Hits("GET", "/manufacturers/"); n != 2 {
		t.Errorf("expected create to invalidate the cached list, got %d requests", n)
	}

	if err := svc.DeleteManufacturer(ctx, stockapitest.ManufacturerID); upstream.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("expected delete of referenced manufacturer to fail, got %v", err)
	}
	if err := svc.DeleteManufacturer(ctx, m.ID); err != nil {
		t.Errorf("delete: %v", err)
	}
}
