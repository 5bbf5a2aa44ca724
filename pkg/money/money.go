package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	usPrinter = message.NewPrinter(language.AmericanEnglish)
	maxInt64  = decimal.NewFromInt(1<<63 - 1)
)

// Sum adds prices exactly, avoiding float drift across many lines.
func Sum(prices ...float64) decimal.Decimal {
	total := decimal.Zero
	for _, p := range prices {
		total = total.Add(decimal.NewFromFloat(p))
	}
	return total
}

// FormatUSD renders an amount the way en-US currency formatting does, e.g. $1,234.50.
// Rounding is half away from zero on the exact decimal.
func FormatUSD(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	fixed := rounded.StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")
	return sign + "$" + groupWhole(rounded, whole) + "." + cents
}

func groupWhole(amount decimal.Decimal, whole string) string {
	if amount.LessThanOrEqual(maxInt64) {
		return usPrinter.Sprintf("%d", amount.IntPart())
	}
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
