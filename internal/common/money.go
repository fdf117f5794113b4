package common

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount as dollars with thousands separators,
// rounded to cents, e.g. "$1,234.56" or "-$650.00".
func FormatMoney(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.Round(2).IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(cents)
	return b.String()
}

// FormatRate renders a fractional rate as a percent, e.g. 0.22 as "22%"
// and 0.0765 as "7.65%".
func FormatRate(rate decimal.Decimal) string {
	return FormatPercent(rate.Mul(decimal.NewFromInt(100)))
}

// FormatPercent renders a whole percent with at most two decimals.
func FormatPercent(pct decimal.Decimal) string {
	return pct.Round(2).String() + "%"
}
