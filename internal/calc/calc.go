// Package calc derives the displayed figures of purchase orders, invoices and
// stocktakes from raw fields. All prices include a fixed 10% GST.
package calc

import (
	"github.com/shopspring/decimal"

	"github.com/erazemk/stockmgtr/internal/model"
)

var (
	gstRate     = decimal.RequireFromString("0.10")
	exGSTFactor = decimal.RequireFromString("0.9")
	hundred     = decimal.NewFromInt(100)
)

// LineInput is the raw data of one purchase order line.
type LineInput struct {
	PriceInc        decimal.Decimal `json:"price_inc"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// LineTotals are the derived figures of one line.
type LineTotals struct {
	PriceExc     decimal.Decimal `json:"price_exc"`
	LineTotalExc decimal.Decimal `json:"line_total_exc"`
	Discount     decimal.Decimal `json:"discount"`
	SubtotalExc  decimal.Decimal `json:"subtotal_exc"`
}

// Line computes the ex-GST price, line total, discount and discounted
// subtotal of one line.
func Line(in LineInput) LineTotals {
	priceExc := in.PriceInc.Mul(exGSTFactor)
	lineTotal := priceExc.Mul(decimal.NewFromInt(int64(in.Quantity)))
	discount := lineTotal.Mul(in.DiscountPercent).Div(hundred)
	return LineTotals{
		PriceExc:     priceExc,
		LineTotalExc: lineTotal,
		Discount:     discount,
		SubtotalExc:  lineTotal.Sub(discount),
	}
}

// OrderTotals are the derived figures of a whole purchase order.
type OrderTotals struct {
	Lines         []LineTotals    `json:"lines"`
	SubtotalExc   decimal.Decimal `json:"subtotal_exc"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	AfterDiscount decimal.Decimal `json:"after_discount"`
	GST           decimal.Decimal `json:"gst"`
	Shipping      decimal.Decimal `json:"shipping"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// Totals sums the lines and applies GST to the discounted subtotal before
// adding shipping.
func Totals(items []LineInput, shipping decimal.Decimal) OrderTotals {
	t := OrderTotals{
		Lines:         make([]LineTotals, 0, len(items)),
		SubtotalExc:   decimal.Zero,
		TotalDiscount: decimal.Zero,
		Shipping:      shipping,
	}
	for _, it := range items {
		l := Line(it)
		t.Lines = append(t.Lines, l)
		t.SubtotalExc = t.SubtotalExc.Add(l.LineTotalExc)
		t.TotalDiscount = t.TotalDiscount.Add(l.Discount)
	}
	t.AfterDiscount = t.SubtotalExc.Sub(t.TotalDiscount)
	t.GST = t.AfterDiscount.Mul(gstRate)
	t.GrandTotal = t.AfterDiscount.Add(t.GST).Add(shipping)
	return t
}

// OrderLines converts purchase order items to calculator input.
func OrderLines(items []model.PurchaseOrderItem) []LineInput {
	out := make([]LineInput, len(items))
	for i, it := range items {
		out[i] = LineInput{PriceInc: it.PriceInc, Quantity: it.Quantity, DiscountPercent: it.DiscountPercent}
	}
	return out
}

// InvoiceAmounts returns the GST and total for an ex-GST invoice amount,
// rounded to cents as the invoice form fills them in.
func InvoiceAmounts(exc decimal.Decimal) (gst, total decimal.Decimal) {
	gst = exc.Mul(gstRate).Round(2)
	return gst, exc.Round(2).Add(gst)
}

// AvailableForSale mirrors the upstream computation for display only.
func AvailableForSale(quantity, reserved, committed int) int {
	return quantity - reserved - committed
}
