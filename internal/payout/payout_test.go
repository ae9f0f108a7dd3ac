package payout

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tesfam/kiraypay/internal/models"
)

func activeWallet() *models.Wallet {
	return &models.Wallet{
		ID:                "wallet-1",
		OwnerID:           sql.NullString{String: "user-1", Valid: true},
		OwnerType:         models.WalletOwnerTypeUser,
		Currency:          "ETB",
		AvailableBalance:  decimal.NewFromInt(300),
		Status:            models.WalletActiveStatus,
		BankName:          sql.NullString{String: "CBE", Valid: true},
		BankAccountName:   sql.NullString{String: "Owner One", Valid: true},
		BankAccountNumber: sql.NullString{String: "1000200030004000", Valid: true},
	}
}

func TestCheckWithdrawable(t *testing.T) {
	wallet := activeWallet()
	require.NoError(t, CheckWithdrawable(wallet, "user-1", decimal.NewFromInt(300), "ETB"))
}

// a 500 ETB request against 300 ETB available is refused outright, leaving
// the wallet untouched
func TestCheckWithdrawable_InsufficientBalance(t *testing.T) {
	wallet := activeWallet()

	err := CheckWithdrawable(wallet, "user-1", decimal.NewFromInt(500), "ETB")
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.True(t, wallet.AvailableBalance.Equal(decimal.NewFromInt(300)))
	require.True(t, wallet.PendingBalance.IsZero())
}

// frozen and pending funds never count toward what can be withdrawn
func TestCheckWithdrawable_IgnoresFrozenAndPendingFunds(t *testing.T) {
	wallet := activeWallet()
	wallet.FrozenBalance = decimal.NewFromInt(1000)
	wallet.PendingBalance = decimal.NewFromInt(1000)

	err := CheckWithdrawable(wallet, "user-1", decimal.NewFromInt(301), "ETB")
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestCheckWithdrawable_FrozenWallet(t *testing.T) {
	wallet := activeWallet()
	wallet.Status = models.WalletFrozenStatus
	wallet.AvailableBalance = decimal.NewFromInt(1000)

	err := CheckWithdrawable(wallet, "user-1", decimal.NewFromInt(100), "ETB")
	require.ErrorIs(t, err, ErrWalletFrozen)
}

func TestCheckWithdrawable_NoPayoutRail(t *testing.T) {
	wallet := activeWallet()
	wallet.BankName = sql.NullString{}
	wallet.BankAccountNumber = sql.NullString{}

	err := CheckWithdrawable(wallet, "user-1", decimal.NewFromInt(100), "ETB")
	require.ErrorIs(t, err, ErrNoPayoutRail)
}

func TestCheckWithdrawable_WrongOwner(t *testing.T) {
	err := CheckWithdrawable(activeWallet(), "user-2", decimal.NewFromInt(100), "ETB")
	require.ErrorIs(t, err, ErrNotWalletOwner)
}

func TestCheckWithdrawable_CurrencyMismatch(t *testing.T) {
	err := CheckWithdrawable(activeWallet(), "user-1", decimal.NewFromInt(100), "USD")
	require.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestCheckWithdrawable_NilWallet(t *testing.T) {
	err := CheckWithdrawable(nil, "user-1", decimal.NewFromInt(100), "ETB")
	require.ErrorIs(t, err, ErrWalletNotFound)
}

// only a missing row becomes "wallet not found"; a transient database
// failure keeps its identity so callers answer 500, not 404
func TestLockedWallet_ErrorMapping(t *testing.T) {
	wallet := activeWallet()

	got, err := lockedWallet(map[string]*models.Wallet{"wallet-1": wallet}, nil, "wallet-1")
	require.NoError(t, err)
	require.Same(t, wallet, got)

	_, err = lockedWallet(nil, sql.ErrNoRows, "wallet-1")
	require.ErrorIs(t, err, ErrWalletNotFound)

	transient := errors.New("connection reset by peer")
	_, err = lockedWallet(nil, transient, "wallet-1")
	require.ErrorIs(t, err, transient)
	require.NotErrorIs(t, err, ErrWalletNotFound)
}
