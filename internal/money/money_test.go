package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	code, err := ParseCurrency("etb")
	require.NoError(t, err)
	require.Equal(t, "ETB", code)

	code, err = ParseCurrency(" usd ")
	require.NoError(t, err)
	require.Equal(t, "USD", code)

	_, err = ParseCurrency("NOPE")
	require.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = ParseCurrency("")
	require.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestRoundToMinor_HalfEven(t *testing.T) {
	cases := map[string]string{
		"1.005": "1.00", // ties round to the even neighbour
		"1.015": "1.02",
		"1.025": "1.02",
		"1.004": "1.00",
		"1.006": "1.01",
	}

	for in, want := range cases {
		amount, err := decimal.NewFromString(in)
		require.NoError(t, err)

		got := RoundToMinor(amount, "ETB")
		require.Equal(t, want, got.StringFixed(2), "rounding %s", in)
	}
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("150.75")
	require.NoError(t, err)
	require.True(t, amount.Equal(decimal.NewFromFloat(150.75)))

	_, err = ParseAmount("abc")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseAmount("0")
	require.ErrorIs(t, err, ErrNonPositiveAmount)

	_, err = ParseAmount("-3")
	require.ErrorIs(t, err, ErrNonPositiveAmount)
}
