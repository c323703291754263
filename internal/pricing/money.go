package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units (cents).
type Money = int64

// ErrInvalidAmount is returned when a textual amount cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// FromDecimal converts a decimal amount in major units into Money, rounding
// half away from zero to the nearest cent.
func FromDecimal(d decimal.Decimal) Money {
	return d.Mul(hundred).Round(0).IntPart()
}

// ToDecimal converts Money into a decimal amount in major units.
func ToDecimal(m Money) decimal.Decimal {
	return decimal.New(m, -2)
}

// Parse reads an amount such as "499.99" or "$1,200" into Money.
// Negative amounts are rejected.
func Parse(value string) (Money, error) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, value)
	}
	return FromDecimal(d), nil
}

// MustParse behaves like Parse but panics on error. Intended for seed data and tests.
func MustParse(value string) Money {
	m, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return m
}

// Format renders Money with two decimals, e.g. "1066.98".
func Format(m Money) string {
	return ToDecimal(m).StringFixed(2)
}

// FormatUSD renders Money with a leading dollar sign, e.g. "$1066.98".
func FormatUSD(m Money) string {
	if m < 0 {
		return "-$" + Format(-m)
	}
	return "$" + Format(m)
}
