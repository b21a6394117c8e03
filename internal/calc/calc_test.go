package calc

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockmgtr/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestLineScenario(t *testing.T) {
	l := Line(LineInput{PriceInc: dec("110.00"), Quantity: 2, DiscountPercent: dec("10")})

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"price_exc", l.PriceExc, "99"},
		{"line_total_exc", l.LineTotalExc, "198"},
		{"discount", l.Discount, "19.8"},
		{"subtotal_exc", l.SubtotalExc, "178.2"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Errorf("%s: expected %s, got %s", c.name, c.want, c.got)
		}
	}
	if got := Money(l.SubtotalExc); got != "$178.20" {
		t.Errorf("expected $178.20, got %s", got)
	}
}

func TestLineSubtotalFormula(t *testing.T) {
	prices := []string{"0", "0.01", "19.99", "110", "1234.56"}
	qtys := []int{0, 1, 3, 17}
	discounts := []string{"0", "2.5", "10", "33.3", "100"}

	for _, p := range prices {
		for _, q := range qtys {
			for _, d := range discounts {
				l := Line(LineInput{PriceInc: dec(p), Quantity: q, DiscountPercent: dec(d)})
				want := dec(p).Mul(dec("0.9")).Mul(decimal.NewFromInt(int64(q))).
					Mul(decimal.NewFromInt(1).Sub(dec(d).Div(dec("100"))))
				if !l.SubtotalExc.Round(8).Equal(want.Round(8)) {
					t.Errorf("price=%s qty=%d disc=%s: expected %s, got %s", p, q, d, want, l.SubtotalExc)
				}
				if l.SubtotalExc.IsNegative() {
					t.Errorf("price=%s qty=%d disc=%s: negative subtotal %s", p, q, d, l.SubtotalExc)
				}
			}
		}
	}
}

func TestTotals(t *testing.T) {
	items := []LineInput{
		{PriceInc: dec("110"), Quantity: 2, DiscountPercent: dec("10")},
		{PriceInc: dec("50"), Quantity: 1, DiscountPercent: dec("0")},
	}
	tot := Totals(items, dec("25"))

	// subtotal 198 + 45 = 243, discount 19.8, after 223.2, gst 22.32
	if !tot.SubtotalExc.Equal(dec("243")) {
		t.Errorf("expected subtotal 243, got %s", tot.SubtotalExc)
	}
	if !tot.AfterDiscount.Equal(dec("223.2")) {
		t.Errorf("expected after discount 223.2, got %s", tot.AfterDiscount)
	}
	if !tot.GST.Equal(dec("22.32")) {
		t.Errorf("expected gst 22.32, got %s", tot.GST)
	}
	if !tot.GrandTotal.Equal(dec("270.52")) {
		t.Errorf("expected grand total 270.52, got %s", tot.GrandTotal)
	}
	if len(tot.Lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(tot.Lines))
	}
}

func TestTotalsOrderIndependent(t *testing.T) {
	items := []LineInput{
		{PriceInc: dec("110"), Quantity: 2, DiscountPercent: dec("10")},
		{PriceInc: dec("33.33"), Quantity: 3, DiscountPercent: dec("7.5")},
		{PriceInc: dec("0.99"), Quantity: 11, DiscountPercent: dec("0")},
	}
	reversed := []LineInput{items[2], items[1], items[0]}
	a := Totals(items, dec("9.95"))
	b := Totals(reversed, dec("9.95"))
	if !a.GrandTotal.Equal(b.GrandTotal) {
		t.Errorf("grand total depends on item order: %s vs %s", a.GrandTotal, b.GrandTotal)
	}
}

func TestTotalsEmpty(t *testing.T) {
	tot := Totals(nil, decimal.Zero)
	if !tot.GrandTotal.IsZero() {
		t.Errorf("expected zero grand total, got %s", tot.GrandTotal)
	}
	if Money(tot.GrandTotal) != "$0.00" {
		t.Errorf("expected $0.00, got %s", Money(tot.GrandTotal))
	}
}

func TestVariance(t *testing.T) {
	v, st := Variance(50, intPtr(47))
	if v != -3 || st != ItemDiscrepancy {
		t.Errorf("expected -3 discrepancy, got %d %s", v, st)
	}

	v, st = Variance(50, nil)
	if v != 0 || st != ItemPending {
		t.Errorf("expected pending, got %d %s", v, st)
	}

	v, st = Variance(12, intPtr(12))
	if v != 0 || st != ItemCounted {
		t.Errorf("expected counted, got %d %s", v, st)
	}

	v, _ = Variance(5, intPtr(8))
	if v != 3 {
		t.Errorf("expected surplus of 3, got %d", v)
	}
}

func TestSummarize(t *testing.T) {
	items := []model.StocktakeItem{
		{SystemQuantity: 50, PhysicalCount: intPtr(47)},
		{SystemQuantity: 10, PhysicalCount: intPtr(10)},
		{SystemQuantity: 4, PhysicalCount: intPtr(6)},
		{SystemQuantity: 9},
	}
	s := Summarize(items)
	if s.Counted != 3 || s.Pending != 1 || s.WithVariance != 2 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.NetVariance != -1 {
		t.Errorf("expected net variance -1, got %d", s.NetVariance)
	}
	if !s.Progress.Equal(dec("75")) {
		t.Errorf("expected progress 75, got %s", s.Progress)
	}
	if s.Complete() {
		t.Error("expected incomplete stocktake")
	}
}

func TestInvoiceAmounts(t *testing.T) {
	gst, total := InvoiceAmounts(dec("1000.05"))
	if !gst.Equal(dec("100.01")) {
		t.Errorf("expected gst 100.01, got %s", gst)
	}
	if !total.Equal(dec("1100.06")) {
		t.Errorf("expected total 1100.06, got %s", total)
	}
}

func TestAvailableForSale(t *testing.T) {
	if got := AvailableForSale(20, 3, 5); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"1234.56", "$1,234.56"},
		{"1234567.891", "$1,234,567.89"},
		{"-1.5", "-$1.50"},
		{"0.005", "$0.01"},
		{"2.675", "$2.68"},
		{"-0.001", "$0.00"},
		{"999.999", "$1,000.00"},
		{"-98765432.1", "-$98,765,432.10"},
	}
	for _, tt := range tests {
		if got := Money(dec(tt.in)); got != tt.want {
			t.Errorf("Money(%s): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func intPtr(n int) *int { return &n }
