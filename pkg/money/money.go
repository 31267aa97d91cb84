// Package money represents CZK prices as integer haléře so that the
// customization, discount and VAT pipeline never accumulates float drift.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a price in haléře (1/100 CZK).
type Amount int64

const (
	Zero Amount = 0
	// MinorUnits is the number of haléře in one koruna.
	MinorUnits = 100
	Currency   = "CZK"
)

var hundred = decimal.NewFromInt(100)

// CZK converts whole korun into an Amount.
func CZK(units int64) Amount {
	return Amount(units * MinorUnits)
}

// FromDecimal converts a koruna value, rounding half away from zero to the haléř.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.Mul(hundred).Round(0).IntPart())
}

// Parse reads a koruna value such as "1299.50".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// Decimal returns the koruna value.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

// Percent returns pct percent of a, rounded to the haléř.
func (a Amount) Percent(pct decimal.Decimal) Amount {
	return Amount(decimal.NewFromInt(int64(a)).Mul(pct).Div(hundred).Round(0).IntPart())
}

// Mul multiplies by an integer quantity.
func (a Amount) Mul(n int) Amount {
	return a * Amount(n)
}

// NonNegative clamps a to zero from below.
func (a Amount) NonNegative() Amount {
	if a < 0 {
		return Zero
	}
	return a
}

func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// WithVAT returns the gross amount: a + round(a * rate).
func WithVAT(a Amount, rate float64) Amount {
	tax := decimal.NewFromInt(int64(a)).Mul(decimal.NewFromFloat(rate)).Round(0).IntPart()
	return a + Amount(tax)
}
