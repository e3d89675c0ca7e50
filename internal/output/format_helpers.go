package output

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatCurrency renders rupees with Indian digit grouping: ₹12,34,567.00.
func FormatCurrency(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	whole, frac, _ := strings.Cut(amount.Abs().StringFixed(2), ".")
	return sign + "₹" + groupIndian(whole) + "." + frac
}

// groupIndian puts a comma before the last three digits and every two
// digits before that.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, ",") + "," + tail
}

// FormatPercentage formats a decimal as a percentage with 2 decimals.
func FormatPercentage(amount decimal.Decimal) string { return amount.StringFixed(2) + "%" }

// FormatRate renders a fractional rate such as 0.125 as "12.5%".
func FormatRate(rate decimal.Decimal) string { return rate.Mul(hundred).String() + "%" }
