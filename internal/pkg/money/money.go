// Package money formats integer minor-unit amounts for humans.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "NGN"

var symbols = map[string]string{
	"NGN": "₦",
	"USD": "$",
	"GHS": "₵",
	"KES": "KSh",
	"IDR": "Rp",
	"ZAR": "R",
}

// Major converts minor units (kobo, cents) to a decimal in major units.
func Major(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-2)
}

// Format renders 9500000 NGN as "₦95,000.00".
func Format(minor int64, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	symbol, ok := symbols[currency]
	if !ok {
		symbol = currency + " "
	}

	sign := ""
	amount := Major(minor)
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + symbol + groupThousands(whole) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
