package fx

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tesfam/kiraypay/internal/mocks"
	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/money"
)

func testService(t *testing.T, fxRepo *mocks.MockFxRateRepo) *Service {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(&mocks.MockDatabase{FxRateRepo: fxRepo}, nil, nil, logger, time.Minute)
}

func TestGetRate_DirectHit(t *testing.T) {
	repo := new(mocks.MockFxRateRepo)
	repo.On("GetActive", "USD", "ETB").Return(&models.FxRate{
		ID:           "rate-1",
		FromCurrency: "USD",
		ToCurrency:   "ETB",
		Rate:         decimal.NewFromInt(120),
		InverseRate:  decimal.RequireFromString("0.008333333333"),
	}, true, nil)

	service := testService(t, repo)

	rate, err := service.GetRate("usd", "ETB")
	require.NoError(t, err)
	require.Equal(t, "rate-1", rate.ID)
	require.True(t, rate.Rate.Equal(decimal.NewFromInt(120)))

	repo.AssertExpectations(t)
}

// when only the reverse pair is active the inverse is synthesized, keeping
// the reverse row's id so settlements still reference a real rate row
func TestGetRate_SynthesizesInverseFromReversePair(t *testing.T) {
	repo := new(mocks.MockFxRateRepo)
	repo.On("GetActive", "ETB", "USD").Return((*models.FxRate)(nil), false, nil)
	repo.On("GetActive", "USD", "ETB").Return(&models.FxRate{
		ID:           "rate-usd-etb",
		FromCurrency: "USD",
		ToCurrency:   "ETB",
		Rate:         decimal.NewFromInt(120),
		InverseRate:  decimal.RequireFromString("0.008333333333"),
	}, true, nil)

	service := testService(t, repo)

	rate, err := service.GetRate("ETB", "USD")
	require.NoError(t, err)
	require.Equal(t, "rate-usd-etb", rate.ID)
	require.Equal(t, "ETB", rate.FromCurrency)
	require.Equal(t, "USD", rate.ToCurrency)
	require.True(t, rate.Rate.Equal(decimal.RequireFromString("0.008333333333")))
	require.True(t, rate.InverseRate.Equal(decimal.NewFromInt(120)))
}

func TestGetRate_NotFound(t *testing.T) {
	repo := new(mocks.MockFxRateRepo)
	repo.On("GetActive", "ETB", "KES").Return((*models.FxRate)(nil), false, nil)
	repo.On("GetActive", "KES", "ETB").Return((*models.FxRate)(nil), false, nil)

	service := testService(t, repo)

	_, err := service.GetRate("ETB", "KES")
	require.ErrorIs(t, err, ErrRateNotFound)
}

func TestGetRate_SameCurrency(t *testing.T) {
	service := testService(t, new(mocks.MockFxRateRepo))

	_, err := service.GetRate("ETB", "etb")
	require.ErrorIs(t, err, ErrSameCurrency)
}

func TestConvert_UsesRateAndRoundsToMinorUnits(t *testing.T) {
	repo := new(mocks.MockFxRateRepo)
	repo.On("GetActive", "USD", "ETB").Return(&models.FxRate{
		ID:           "rate-1",
		FromCurrency: "USD",
		ToCurrency:   "ETB",
		Rate:         decimal.RequireFromString("120.55"),
	}, true, nil)

	service := testService(t, repo)

	conversion, err := service.Convert(decimal.RequireFromString("10.01"), "USD", "ETB")
	require.NoError(t, err)
	// 10.01 * 120.55 = 1206.7055, half-even to 1206.71 at 2 decimals
	require.Equal(t, "1206.71", conversion.ConvertedAmount.StringFixed(2))
	require.Equal(t, "rate-1", conversion.RateID)
}

func TestConvert_SameCurrencyIdentity(t *testing.T) {
	service := testService(t, new(mocks.MockFxRateRepo))

	conversion, err := service.Convert(decimal.RequireFromString("99.999"), "ETB", "ETB")
	require.NoError(t, err)
	require.Equal(t, "100.00", conversion.ConvertedAmount.StringFixed(2))
	require.True(t, conversion.RateUsed.Equal(decimal.NewFromInt(1)))
	require.Empty(t, conversion.RateID)
}

// converting out and back under reciprocal rates lands within one minor
// unit of the original amount
func TestConvert_RoundTripWithinOneMinorUnit(t *testing.T) {
	repo := new(mocks.MockFxRateRepo)
	repo.On("GetActive", "ETB", "USD").Return(&models.FxRate{
		ID:           "rate-etb-usd",
		FromCurrency: "ETB",
		ToCurrency:   "USD",
		Rate:         decimal.RequireFromString("0.018"),
		InverseRate:  decimal.RequireFromString("55.555555555556"),
	}, true, nil)
	repo.On("GetActive", "USD", "ETB").Return(&models.FxRate{
		ID:           "rate-usd-etb",
		FromCurrency: "USD",
		ToCurrency:   "ETB",
		Rate:         decimal.RequireFromString("55.555555555556"),
		InverseRate:  decimal.RequireFromString("0.018"),
	}, true, nil)

	service := testService(t, repo)

	out, err := service.Convert(decimal.NewFromInt(1000), "ETB", "USD")
	require.NoError(t, err)
	require.Equal(t, "18.00", out.ConvertedAmount.StringFixed(2))

	back, err := service.Convert(out.ConvertedAmount, "USD", "ETB")
	require.NoError(t, err)

	drift := back.ConvertedAmount.Sub(decimal.NewFromInt(1000)).Abs()
	require.True(t, drift.LessThanOrEqual(decimal.RequireFromString("0.01")), "drift %s", drift)
}

func TestConvert_RejectsNonPositiveAmount(t *testing.T) {
	service := testService(t, new(mocks.MockFxRateRepo))

	_, err := service.Convert(decimal.Zero, "USD", "ETB")
	require.ErrorIs(t, err, money.ErrNonPositiveAmount)
}
