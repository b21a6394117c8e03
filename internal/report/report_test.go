package report

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/erazemk/stockmgtr/internal/model"
)

func intPtr(n int) *int { return &n }

func TestStocktakeWorkbook(t *testing.T) {
	st := &model.Stocktake{AuditReference: "SA-0001", Title: "Quarterly", Status: model.StocktakeInProgress}
	items := []model.StocktakeItem{
		{Stock: model.Stock{ItemName: "Fridge"}, SystemQuantity: 50, PhysicalCount: intPtr(47)},
		{Stock: model.Stock{ItemName: "Oven"}, SystemQuantity: 5, PhysicalCount: intPtr(5)},
		{Stock: model.Stock{ItemName: "Kettle"}, SystemQuantity: 9},
	}

	var buf bytes.Buffer
	if err := StocktakeWorkbook(&buf, st, items); err != nil {
		t.Fatalf("StocktakeWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Items")
	if err != nil {
		t.Fatalf("reading items: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header and 3 rows, got %d", len(rows))
	}
	if rows[1][0] != "Fridge" || rows[1][6] != "-3" || rows[1][7] != "discrepancy" {
		t.Errorf("unexpected fridge row %v", rows[1])
	}
	if rows[3][5] != "" || rows[3][7] != "pending" {
		t.Errorf("unexpected pending row %v", rows[3])
	}

	pending, _ := f.GetCellValue("Summary", "B8")
	if pending != "1" {
		t.Errorf("expected 1 pending in summary, got %q", pending)
	}
}

func TestStockWorkbook(t *testing.T) {
	stock := []model.Stock{
		{ID: 1, ItemName: "Fridge", Condition: model.ConditionBStock, Location: &model.Store{Name: "Main"}, Quantity: 3, ReOrder: 5, IsLowStock: true},
	}

	var buf bytes.Buffer
	if err := StockWorkbook(&buf, stock); err != nil {
		t.Fatalf("StockWorkbook: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows("Stock")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1][3] != "B-Stock" || rows[1][4] != "Main" || rows[1][11] != "Yes" {
		t.Errorf("unexpected row %v", rows[1])
	}
}

func TestPurchaseOrderPDF(t *testing.T) {
	po := &model.PurchaseOrder{
		ReferenceNumber: "PO-0001",
		Manufacturer:    "Acme",
		Status:          model.POStatusDraft,
		Items: []model.PurchaseOrderItem{
			{Product: "Fridge", PriceInc: decimal.NewFromInt(110), Quantity: 2, DiscountPercent: decimal.NewFromInt(10)},
		},
		NoteForManufacturer: "Deliver before noon",
	}

	for _, withAmounts := range []bool{true, false} {
		var buf bytes.Buffer
		if err := PurchaseOrderPDF(&buf, po, withAmounts); err != nil {
			t.Fatalf("PurchaseOrderPDF(%v): %v", withAmounts, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
			t.Errorf("output is not a PDF")
		}
	}
}
