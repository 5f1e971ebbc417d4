// Package money holds currency amounts as integer minor units (cents).
package money

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount is a currency amount in cents.
type Amount int64

const Zero Amount = 0

var ErrInvalidAmount = errors.New("invalid_amount")

var (
	hundred = decimal.NewFromInt(100)
	// Largest major-unit magnitude whose cents still fit in an int64.
	maxMajor = decimal.NewFromInt(math.MaxInt64 / 100)
)

// Cents builds an Amount from minor units.
func Cents(v int64) Amount { return Amount(v) }

// Dollars builds an Amount from whole major units.
func Dollars(v int64) Amount { return Amount(v * 100) }

// FromDecimal rounds half-to-even to two places and converts to cents.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.RoundBank(2).Mul(hundred).IntPart())
}

// FromFloat converts a major-unit float, rounding half-to-even at two places.
func FromFloat(v float64) Amount {
	return FromDecimal(decimal.NewFromFloat(v))
}

// Parse reads a decimal string such as "180.00" or "12.5".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, err)
	}
	if d.Abs().GreaterThan(maxMajor) {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidAmount, s)
	}
	return FromDecimal(d), nil
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

func (a Amount) Int64() int64 { return int64(a) }

func (a Amount) IsNegative() bool { return a < 0 }

// String renders the amount with two fractional digits, e.g. "180.00".
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

// Format renders the amount with a dollar sign, e.g. "$180.00".
func (a Amount) Format() string {
	if a < 0 {
		return "-$" + (-a).String()
	}
	return "$" + a.String()
}

// Mul multiplies by an integer quantity.
func (a Amount) Mul(qty int) Amount {
	return a * Amount(qty)
}

// Percent applies a percentage, rounding half-to-even at two places.
func (a Amount) Percent(pct decimal.Decimal) Amount {
	return FromDecimal(a.Decimal().Mul(pct).Div(hundred))
}

// BasisPoints applies a rate expressed in hundredths of a percent.
func (a Amount) BasisPoints(bps int64) Amount {
	return a.Percent(decimal.New(bps, -2))
}

// Min returns the smaller of two amounts.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// MarshalJSON renders a JSON number with two fractional digits.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if len(data) > 1 && data[0] == '"' {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return ErrInvalidAmount
		}
		raw = unquoted
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Ptr returns a pointer to the amount.
func Ptr(a Amount) *Amount { return &a }
