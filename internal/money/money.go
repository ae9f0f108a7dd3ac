// Every amount in the system is a decimal, never a float.
// Balances and shares are stored at the currency's minor-unit precision,
// and rounding is always banker's (half-even) so that repeated
// settlements don't drift in one direction.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var (
	ErrInvalidCurrency   = errors.New("invalid currency code")
	ErrInvalidAmount     = errors.New("amount must be a valid decimal number")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
)

// ParseCurrency validates an ISO 4217 code and returns its canonical
// upper-case form.
func ParseCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", ErrInvalidCurrency
	}

	return unit.String(), nil
}

// MinorUnits returns the number of decimal places the currency is
// accounted in, e.g. 2 for ETB and USD, 0 for JPY.
func MinorUnits(code string) int32 {
	unit, err := currency.ParseISO(code)
	if err != nil {
		// unknown codes are treated like the common two-decimal case
		return 2
	}

	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// RoundToMinor rounds half-even to the currency's minor units.
func RoundToMinor(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.RoundBank(MinorUnits(code))
}

// ParseAmount parses a decimal string and rejects anything that is not
// strictly positive. Every user-supplied amount goes through here.
func ParseAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}

	if !amount.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}

	return amount, nil
}
