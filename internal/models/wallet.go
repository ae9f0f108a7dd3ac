package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a materialized projection over the ledger: its three balance
// columns must always equal the signed sum of the wallet's ledger entries.
// Nothing writes these columns directly; they only move inside the same
// database transaction as a ledger append or a payout state change.
type Wallet struct {
	ID               string          `db:"id"`
	OwnerID          sql.NullString  `db:"owner_id"`
	OwnerType        string          `db:"owner_type"`
	SystemName       sql.NullString  `db:"system_name"`
	Currency         string          `db:"currency"`
	AvailableBalance decimal.Decimal `db:"available_balance"`
	FrozenBalance    decimal.Decimal `db:"frozen_balance"`
	PendingBalance   decimal.Decimal `db:"pending_balance"`
	TotalEarnings    decimal.Decimal `db:"total_earnings"`
	TotalWithdrawals decimal.Decimal `db:"total_withdrawals"`
	Status           string          `db:"status"`

	BankName            sql.NullString `db:"bank_name"`
	BankAccountName     sql.NullString `db:"bank_account_name"`
	BankAccountNumber   sql.NullString `db:"bank_account_number"`
	MobileMoneyProvider sql.NullString `db:"mobile_money_provider"`
	MobileMoneyNumber   sql.NullString `db:"mobile_money_number"`

	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}

const (
	WalletActiveStatus = "active"
	WalletFrozenStatus = "frozen"
)

// wallet owner types
const (
	WalletOwnerTypeUser      = "user"
	WalletOwnerTypeDellala   = "dellala"
	WalletOwnerTypeCorporate = "corporate"
	WalletOwnerTypeSystem    = "system"
)

// System wallets exist once per currency and carry the non-customer side
// of every balanced ledger set.
const (
	SystemWalletIncomingFunds = "incoming_funds"
	SystemWalletTaxLiability  = "tax_liability"
	SystemWalletOutgoingFunds = "outgoing_funds"
	SystemWalletCorporate     = "corporate"
)

// HasPayoutRail reports whether at least one payout destination has been
// captured. Payout requests are rejected until this is true.
func (w *Wallet) HasPayoutRail() bool {
	bank := w.BankName.Valid && w.BankAccountNumber.Valid
	mobile := w.MobileMoneyProvider.Valid && w.MobileMoneyNumber.Valid
	return bank || mobile
}

// LedgerBalance is the projection total the reconciliation checker compares
// against the signed ledger sum.
func (w *Wallet) LedgerBalance() decimal.Decimal {
	return w.AvailableBalance.Add(w.FrozenBalance).Add(w.PendingBalance)
}
