package split

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testCalculator(t *testing.T) *Calculator {
	t.Helper()

	calc, err := NewCalculator(Config{
		VatPercent:         "15",
		WithholdingPercent: "2",
		DellalaPercent:     "5",
		PlatformFeePercent: "10",
	})
	require.NoError(t, err)

	return calc
}

func TestCalculate_WithDellala(t *testing.T) {
	calc := testCalculator(t)

	gross := decimal.NewFromInt(1000)

	breakdown, err := calc.Calculate(gross, true, "ETB")
	require.NoError(t, err)

	require.True(t, breakdown.VatAmount.Equal(decimal.NewFromInt(150)), "vat: %s", breakdown.VatAmount)
	require.True(t, breakdown.WithholdingTax.Equal(decimal.NewFromInt(20)), "withholding: %s", breakdown.WithholdingTax)
	require.True(t, breakdown.DellalaShare.Equal(decimal.NewFromInt(50)), "dellala: %s", breakdown.DellalaShare)
	require.True(t, breakdown.OwnerShare.Equal(decimal.NewFromInt(702)), "owner: %s", breakdown.OwnerShare)
	require.True(t, breakdown.CorporateShare.Equal(decimal.NewFromInt(78)), "corporate: %s", breakdown.CorporateShare)

	require.True(t, breakdown.Total().Equal(gross))
}

func TestCalculate_WithoutDellala(t *testing.T) {
	calc := testCalculator(t)

	gross := decimal.NewFromInt(1000)

	breakdown, err := calc.Calculate(gross, false, "ETB")
	require.NoError(t, err)

	require.True(t, breakdown.DellalaShare.IsZero())
	// the skipped commission flows into the owner/corporate remainder
	require.True(t, breakdown.OwnerShare.Equal(decimal.NewFromInt(747)), "owner: %s", breakdown.OwnerShare)
	require.True(t, breakdown.CorporateShare.Equal(decimal.NewFromInt(83)), "corporate: %s", breakdown.CorporateShare)

	require.True(t, breakdown.Total().Equal(gross))
}

// The components must reassemble to the gross amount exactly, whatever
// awkward value comes in. The corporate share absorbs the rounding residual.
func TestCalculate_ComponentsAlwaysSumToGross(t *testing.T) {
	calc := testCalculator(t)

	amounts := []string{"0.03", "1", "99.99", "123.45", "1000.01", "33333.33", "7777777.77"}

	for _, raw := range amounts {
		gross, err := decimal.NewFromString(raw)
		require.NoError(t, err)

		for _, hasDellala := range []bool{true, false} {
			breakdown, err := calc.Calculate(gross, hasDellala, "ETB")
			require.NoError(t, err, "gross %s", raw)

			require.True(t, breakdown.Total().Equal(gross),
				"gross %s dellala %v: components sum to %s", raw, hasDellala, breakdown.Total())
			require.False(t, breakdown.OwnerShare.IsNegative())
			require.False(t, breakdown.CorporateShare.IsNegative())
		}
	}
}

func TestCalculate_RejectsNonPositiveGross(t *testing.T) {
	calc := testCalculator(t)

	_, err := calc.Calculate(decimal.Zero, false, "ETB")
	require.ErrorIs(t, err, ErrNonPositiveGross)

	_, err = calc.Calculate(decimal.NewFromInt(-5), false, "ETB")
	require.ErrorIs(t, err, ErrNonPositiveGross)
}

func TestCalculate_RejectsUnknownCurrency(t *testing.T) {
	calc := testCalculator(t)

	_, err := calc.Calculate(decimal.NewFromInt(100), false, "NOPE")
	require.Error(t, err)
}

func TestNewCalculator_RejectsExcessivePercentages(t *testing.T) {
	_, err := NewCalculator(Config{
		VatPercent:         "60",
		WithholdingPercent: "30",
		DellalaPercent:     "15",
		PlatformFeePercent: "10",
	})
	require.ErrorIs(t, err, ErrPercentagesTooHigh)
}

func TestNewCalculator_RejectsMalformedPercentage(t *testing.T) {
	_, err := NewCalculator(Config{
		VatPercent:         "fifteen",
		WithholdingPercent: "2",
		DellalaPercent:     "5",
		PlatformFeePercent: "10",
	})
	require.Error(t, err)
}
