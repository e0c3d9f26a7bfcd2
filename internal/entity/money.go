package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal currency amount. It decodes from JSON numbers or
// numeric strings and encodes as a bare two-decimal number.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// ParseMoney parses "1250.00", "-3.5", "0.33".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Money{Decimal: d}, nil
}

// MustMoney is for literals in tests and fixtures.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// IsWholePennies reports whether m survives rounding to two decimal places unchanged.
func (m Money) IsWholePennies() bool {
	return m.Equal(m.Round(2))
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Decimal.UnmarshalJSON(b)
}

func (m Money) String() string {
	return m.StringFixed(2)
}
