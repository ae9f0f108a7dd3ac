package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tesfam/kiraypay/internal/models"
)

func balancedSet() []models.LedgerEntry {
	return []models.LedgerEntry{
		{
			WalletID:             "incoming",
			Direction:            models.LedgerDirectionDebit,
			Amount:               decimal.NewFromInt(1000),
			Currency:             "ETB",
			RelatedTransactionID: "settlement-1",
		},
		{
			WalletID:             "owner",
			Direction:            models.LedgerDirectionCredit,
			Amount:               decimal.NewFromInt(830),
			Currency:             "ETB",
			RelatedTransactionID: "settlement-1",
		},
		{
			WalletID:             "tax",
			Direction:            models.LedgerDirectionCredit,
			Amount:               decimal.NewFromInt(170),
			Currency:             "ETB",
			RelatedTransactionID: "settlement-1",
		},
	}
}

func TestValidateBalanced_AcceptsBalancedSet(t *testing.T) {
	require.NoError(t, ValidateBalanced(balancedSet()))
}

func TestValidateBalanced_RejectsEmptySet(t *testing.T) {
	require.ErrorIs(t, ValidateBalanced(nil), ErrEmptyLedgerSet)
	require.ErrorIs(t, ValidateBalanced([]models.LedgerEntry{}), ErrEmptyLedgerSet)
}

func TestValidateBalanced_RejectsUnbalancedSet(t *testing.T) {
	entries := balancedSet()
	entries[1].Amount = decimal.NewFromInt(831)

	require.ErrorIs(t, ValidateBalanced(entries), ErrUnbalancedLedgerSet)
}

func TestValidateBalanced_RejectsNonPositiveAmount(t *testing.T) {
	entries := balancedSet()
	entries[0].Amount = decimal.Zero

	require.ErrorIs(t, ValidateBalanced(entries), ErrBadLedgerEntry)
}

func TestValidateBalanced_RejectsUnknownDirection(t *testing.T) {
	entries := balancedSet()
	entries[2].Direction = "sideways"

	require.ErrorIs(t, ValidateBalanced(entries), ErrBadLedgerEntry)
}

// balance is per currency per related transaction: two sets that balance
// individually must not be allowed to cancel each other out
func TestValidateBalanced_GroupsByCurrencyAndTransaction(t *testing.T) {
	entries := []models.LedgerEntry{
		{
			WalletID:             "a",
			Direction:            models.LedgerDirectionDebit,
			Amount:               decimal.NewFromInt(100),
			Currency:             "ETB",
			RelatedTransactionID: "t1",
		},
		{
			WalletID:             "b",
			Direction:            models.LedgerDirectionCredit,
			Amount:               decimal.NewFromInt(100),
			Currency:             "USD",
			RelatedTransactionID: "t1",
		},
	}

	require.ErrorIs(t, ValidateBalanced(entries), ErrUnbalancedLedgerSet)
}

func TestLedgerEntrySigned(t *testing.T) {
	credit := models.LedgerEntry{Direction: models.LedgerDirectionCredit, Amount: decimal.NewFromInt(50)}
	debit := models.LedgerEntry{Direction: models.LedgerDirectionDebit, Amount: decimal.NewFromInt(50)}

	require.True(t, credit.Signed().Equal(decimal.NewFromInt(50)))
	require.True(t, debit.Signed().Equal(decimal.NewFromInt(-50)))
}
