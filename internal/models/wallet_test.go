package models

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Walks a wallet through a settlement credit and a full payout lifecycle,
// applying exactly the bucket deltas the engines apply alongside each
// ledger write. The three buckets must sum to the signed ledger total at
// every step: earmarking moves value between buckets without a ledger
// entry, and only settlement credits and payout completion debits touch
// the ledger.
func TestWalletBuckets_TrackSignedLedgerSum(t *testing.T) {
	w := &Wallet{Currency: "ETB", Status: WalletActiveStatus}
	ledgerSum := decimal.Zero

	adjust := func(available, pending, frozen decimal.Decimal) {
		w.AvailableBalance = w.AvailableBalance.Add(available)
		w.PendingBalance = w.PendingBalance.Add(pending)
		w.FrozenBalance = w.FrozenBalance.Add(frozen)
	}

	// settlement credits the owner share: ledger credit plus available
	ownerShare := decimal.NewFromInt(702)
	ledgerSum = ledgerSum.Add(ownerShare)
	adjust(ownerShare, decimal.Zero, decimal.Zero)
	require.True(t, w.LedgerBalance().Equal(ledgerSum))

	// payout request earmarks without a ledger entry: available -> pending
	payoutAmount := decimal.NewFromInt(500)
	adjust(payoutAmount.Neg(), payoutAmount, decimal.Zero)
	require.True(t, w.LedgerBalance().Equal(ledgerSum))

	// approval moves the earmark: pending -> frozen
	adjust(decimal.Zero, payoutAmount.Neg(), payoutAmount)
	require.True(t, w.LedgerBalance().Equal(ledgerSum))

	// completion debits the ledger and releases the frozen earmark
	ledgerSum = ledgerSum.Sub(payoutAmount)
	adjust(decimal.Zero, decimal.Zero, payoutAmount.Neg())
	w.TotalWithdrawals = w.TotalWithdrawals.Add(payoutAmount)
	require.True(t, w.LedgerBalance().Equal(ledgerSum))

	require.True(t, w.AvailableBalance.Equal(decimal.NewFromInt(202)))
	require.True(t, w.TotalWithdrawals.Equal(payoutAmount))
}

// a failed payout returns the earmark to available from whichever bucket
// holds it; no ledger entry is written so the totals still agree
func TestWalletBuckets_FailedPayoutReturnsEarmark(t *testing.T) {
	w := &Wallet{
		Currency:         "ETB",
		Status:           WalletActiveStatus,
		AvailableBalance: decimal.NewFromInt(300),
		PendingBalance:   decimal.NewFromInt(500),
	}
	ledgerSum := decimal.NewFromInt(800)

	w.AvailableBalance = w.AvailableBalance.Add(decimal.NewFromInt(500))
	w.PendingBalance = w.PendingBalance.Sub(decimal.NewFromInt(500))

	require.True(t, w.LedgerBalance().Equal(ledgerSum))
	require.True(t, w.PendingBalance.IsZero())
}

func TestWalletHasPayoutRail(t *testing.T) {
	w := &Wallet{}
	require.False(t, w.HasPayoutRail())

	w.BankName = sql.NullString{String: "CBE", Valid: true}
	require.False(t, w.HasPayoutRail())

	w.BankAccountNumber = sql.NullString{String: "1000200030004000", Valid: true}
	require.True(t, w.HasPayoutRail())

	mobile := &Wallet{
		MobileMoneyProvider: sql.NullString{String: "telebirr", Valid: true},
		MobileMoneyNumber:   sql.NullString{String: "0911000000", Valid: true},
	}
	require.True(t, mobile.HasPayoutRail())
}
