// Package money converts between decimal prices and integer minor units.
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitsPerMajor is applied uniformly to every currency, zero-decimal
// ones included.
const MinorUnitsPerMajor = 100

var (
	ErrNotInteger = errors.New("amount is not an integer")
	ErrOutOfRange = errors.New("amount out of range")
)

var (
	hundred  = decimal.NewFromInt(MinorUnitsPerMajor)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// ToMinorUnits returns round(price × 100), half away from zero.
func ToMinorUnits(price decimal.Decimal) (int64, error) {
	minor := price.Mul(hundred)
	if tooWide(minor) {
		return 0, ErrOutOfRange
	}
	return Integer(minor.Round(0))
}

// maxInt64Digits is the number of decimal digits in math.MaxInt64.
const maxInt64Digits = 19

// tooWide reports whether d has more integer digits than any int64.
// Rounding or comparing d rescales it to exponent 0, which costs time and
// memory proportional to the exponent, so this is checked first.
func tooWide(d decimal.Decimal) bool {
	return !d.IsZero() && d.NumDigits()+int(d.Exponent()) > maxInt64Digits
}

// Integer returns d as an int64 when it has no fractional part and fits.
// 2999.0 is an integer; 2999.5 is not.
func Integer(d decimal.Decimal) (int64, error) {
	if tooWide(d) {
		return 0, ErrOutOfRange
	}
	if !d.IsInteger() {
		return 0, ErrNotInteger
	}
	if d.GreaterThan(maxInt64) || d.LessThan(minInt64) {
		return 0, ErrOutOfRange
	}
	return d.IntPart(), nil
}

// Format renders a price as symbol followed by exactly two decimals, e.g. "$29.99", "¥3999.00".
func Format(symbol string, price decimal.Decimal) string {
	return symbol + price.StringFixed(2)
}
