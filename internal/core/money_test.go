package core

import (
	"math"
	"testing"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		currency string
		amount   float64
		want     string
	}{
		{"NGN", 150000, "₦150,000"},
		{"NGN", 0, "₦0"},
		{"USD", 999.5, "$1,000"},
		{"EUR", 12.49, "€12"},
		{"GBP", -2500, "-£2,500"},
		{"usd", 1234567, "$1,234,567"},
		{"CHF", 1200, "CHF 1,200"},
		{"", 42, "42"},
		{"NGN", math.Inf(1), "₦∞"},
		{"USD", math.Inf(-1), "-$∞"},
		{"EUR", math.NaN(), "€NaN"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.currency, tc.amount); got != tc.want {
			t.Errorf("FormatAmount(%q, %v) = %q, want %q", tc.currency, tc.amount, got, tc.want)
		}
	}
}
