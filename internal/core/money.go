package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"NGN": "₦",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// FormatAmount renders amount in whole currency units with thousands
// separators, e.g. FormatAmount("NGN", 150000) -> "₦150,000". Unknown codes
// are used as a prefix: "CHF 1,200". No conversion is ever applied.
// Non-finite amounts render as "NaN" or "∞" after the symbol.
func FormatAmount(currency string, amount float64) string {
	var (
		neg    bool
		digits string
	)
	switch {
	case math.IsNaN(amount):
		digits = "NaN"
	case math.IsInf(amount, 0):
		neg, digits = amount < 0, "∞"
	default:
		d := decimal.NewFromFloat(amount).Round(0)
		neg = d.IsNegative()
		digits = groupThousands(d.Abs().StringFixed(0))
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	code := strings.ToUpper(strings.TrimSpace(currency))
	if sym, ok := currencySymbols[code]; ok {
		b.WriteString(sym)
	} else if code != "" {
		b.WriteString(code)
		b.WriteByte(' ')
	}
	b.WriteString(digits)
	return b.String()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
