package utils

import (
	"regexp"
	"strings"

	"tableadmin/internal/domain"

	"github.com/shopspring/decimal"
)

var plainAmount = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseAmount parses "$1,234.56", "1234.56" or "-$12.00" into a decimal.
// Currency symbol, spaces and thousands separators are ignored.
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(raw, "-") {
		neg = true
		raw = strings.TrimSpace(raw[1:])
	}
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "$"))
	if !neg && strings.HasPrefix(raw, "-") {
		neg = true
		raw = raw[1:]
	}
	raw = strings.NewReplacer(",", "", " ", "").Replace(raw)
	if raw == "" {
		return decimal.Zero, domain.ValidationError{Field: "amount", Msg: "amount is empty"}
	}
	if !plainAmount.MatchString(raw) {
		return decimal.Zero, domain.ValidationError{Field: "amount", Msg: "invalid amount " + strings.TrimSpace(s)}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domain.ValidationError{Field: "amount", Msg: "invalid amount " + strings.TrimSpace(s), Err: err}
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// AmountOrZero is ParseAmount for aggregation: unparseable input counts as 0.
func AmountOrZero(s string) (decimal.Decimal, bool) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatAmount renders a decimal as "$1,234.56", keeping thousands separators.
func FormatAmount(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + "$" + formatThousand(intPart) + "." + frac
}

// ParseRecordAmount is ParseAmount for a stored record: amounts below zero
// are rejected so every gateway agrees on the default 0 lower bound.
func ParseRecordAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, domain.ValidationError{Field: "amount", Msg: "must not be negative"}
	}
	return d, nil
}

// NormalizeAmount re-renders a user supplied record amount in canonical form.
func NormalizeAmount(s string) (string, error) {
	d, err := ParseRecordAmount(s)
	if err != nil {
		return "", err
	}
	return FormatAmount(d), nil
}

func formatThousand(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var out strings.Builder
	for i, c := range digits {
		if i != 0 && (len(digits)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
