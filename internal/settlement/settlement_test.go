package settlement

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tesfam/kiraypay/internal/mocks"
	"github.com/tesfam/kiraypay/internal/models"
)

func validEvent() *BookingPaidEvent {
	return &BookingPaidEvent{
		BookingID:             "booking-1",
		PropertyID:            "property-1",
		OwnerID:               "owner-1",
		DellalaID:             "dellala-1",
		PropertyFirstBookedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		GrossAmount:           decimal.NewFromInt(1000),
		Currency:              "ETB",
		PaidAt:                time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBookingPaidEventValidate(t *testing.T) {
	require.NoError(t, validEvent().validate())

	ev := validEvent()
	ev.BookingID = ""
	require.ErrorIs(t, ev.validate(), ErrInvalidEvent)

	ev = validEvent()
	ev.OwnerID = ""
	require.ErrorIs(t, ev.validate(), ErrInvalidEvent)

	ev = validEvent()
	ev.GrossAmount = decimal.Zero
	require.ErrorIs(t, ev.validate(), ErrInvalidEvent)

	ev = validEvent()
	ev.GrossAmount = decimal.NewFromInt(-10)
	require.ErrorIs(t, ev.validate(), ErrInvalidEvent)
}

func TestDellalaEligible_Window(t *testing.T) {
	engine := &Engine{dellalaWindowMonths: 36}

	firstBooked := time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC)
	deadline := firstBooked.AddDate(0, 36, 0)

	ev := validEvent()
	ev.PropertyFirstBookedAt = firstBooked

	ev.PaidAt = deadline.Add(-time.Second)
	require.True(t, engine.dellalaEligible(ev))

	// the window is strict: paying exactly on the anniversary is too late
	ev.PaidAt = deadline
	require.False(t, engine.dellalaEligible(ev))

	ev.PaidAt = deadline.Add(time.Second)
	require.False(t, engine.dellalaEligible(ev))
}

func TestDellalaEligible_RequiresDellalaAndHistory(t *testing.T) {
	engine := &Engine{dellalaWindowMonths: 36}

	ev := validEvent()
	ev.DellalaID = ""
	require.False(t, engine.dellalaEligible(ev))

	ev = validEvent()
	ev.PropertyFirstBookedAt = time.Time{}
	require.False(t, engine.dellalaEligible(ev))
}

func TestSettleCurrencyFor(t *testing.T) {
	usd := models.Wallet{ID: "wallet-usd", Currency: "USD"}
	etb := models.Wallet{ID: "wallet-etb", Currency: "ETB"}

	// a first-time owner settles in the booking currency
	require.Equal(t, "ETB", settleCurrencyFor("ETB", nil))

	// a wallet already held in the booking currency wins, even when an
	// older wallet in another currency exists
	require.Equal(t, "ETB", settleCurrencyFor("ETB", []models.Wallet{usd, etb}))

	// with no wallet in the booking currency the oldest one keeps accruing
	require.Equal(t, "USD", settleCurrencyFor("ETB", []models.Wallet{usd}))
}

// redelivering a settled booking returns the recorded transaction without
// touching wallets, rates or the ledger
func TestProcessBookingPaid_DuplicateDeliveryReturnsExisting(t *testing.T) {
	existing := &models.SettlementTransaction{
		ID:        "settlement-1",
		BookingID: "booking-1",
		Status:    models.SettlementStatusCompleted,
	}

	settlementRepo := new(mocks.MockSettlementRepo)
	settlementRepo.On("GetByBookingID", "booking-1").Return(existing, true, nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := New(&mocks.MockDatabase{SettlementRepo: settlementRepo}, nil, nil, nil, logger, 36)

	// only the settlement repository is wired, so any attempt to re-settle
	// would panic on the nil wallet repository
	for range 2 {
		got, err := engine.ProcessBookingPaid(context.Background(), validEvent())
		require.NoError(t, err)
		require.Same(t, existing, got)
	}

	settlementRepo.AssertNumberOfCalls(t, "GetByBookingID", 2)
}
