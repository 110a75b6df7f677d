package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice keeps only digits, '.' and '-' from a display price such as
// "$1,299.99" and parses the rest. ok is false when nothing parseable remains.
func ParsePrice(display string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range display {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatAmount renders an amount with exactly two decimals ("12.50").
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
