package calc

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// Money formats an amount as dollars with thousands separators,
// e.g. 1234.5 -> "$1,234.50" and -1.5 -> "-$1.50".
func Money(d decimal.Decimal) string {
	cents := d.Abs().Round(2)
	_, frac, _ := strings.Cut(cents.StringFixed(2), ".")
	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}
	return sign + "$" + printer.Sprintf("%d", cents.IntPart()) + "." + frac
}

// Percent formats a percentage with up to one decimal place.
func Percent(d decimal.Decimal) string {
	return d.Round(1).String() + "%"
}
