package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// Money is an exact signed monetary amount. Arithmetic never goes through
// float64, so sums are reproducible regardless of order.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoneyFromCents builds an amount from an integer number of cents.
func NewMoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

// ParseMoney parses a plain decimal amount such as "12.50", "-5" or "+0.3".
// Exponents, thousand separators, NaN and Inf spellings are rejected, as is
// any value needing more than two fractional digits.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	body := s
	neg := false
	switch body[0] {
	case '-':
		neg = true
		body = body[1:]
	case '+':
		body = body[1:]
	}

	intPart, fracPart, _ := strings.Cut(body, ".")
	if intPart == "" && fracPart == "" {
		return Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	if len(strings.TrimRight(fracPart, "0")) > 2 {
		return Zero, fmt.Errorf("%w: %q has more than two decimal places", ErrInvalidAmount, s)
	}

	if intPart == "" {
		intPart = "0"
	}
	d, err := decimal.NewFromString(intPart + "." + fracPart + "0")
	if err != nil {
		return Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if neg {
		d = d.Neg()
	}
	return Money{d: d}, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) Neg() Money { return Money{d: m.d.Neg()} }
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }
func (m Money) IsZero() bool { return m.d.IsZero() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Decimal exposes the underlying value for callers that need ratios.
func (m Money) Decimal() decimal.Decimal { return m.d }

// Mul scales the amount by an integer factor.
func (m Money) Mul(n int64) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(n))}
}

// Div divides by n and rounds half away from zero to whole cents.
// Dividing by zero yields zero.
func (m Money) Div(n int64) Money {
	if n == 0 {
		return Zero
	}
	return Money{d: m.d.DivRound(decimal.NewFromInt(n), 2)}
}

// Ratio returns m/o as a plain decimal, zero when o is zero.
func (m Money) Ratio(o Money) decimal.Decimal {
	if o.d.IsZero() {
		return decimal.Zero
	}
	return m.d.DivRound(o.d, 4)
}

// Cents returns the amount in whole cents.
func (m Money) Cents() int64 {
	return m.d.Shift(2).Round(0).IntPart()
}

func (m Money) String() string {
	return m.d.StringFixed(2)
}

func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalText(text []byte) error {
	parsed, err := ParseMoney(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
