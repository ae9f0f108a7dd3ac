package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one half of a balanced, immutable debit/credit record.
// Entries are only ever written in sets that sum to zero per currency per
// RelatedTransactionID; there is no update or delete path.
type LedgerEntry struct {
	ID                   string          `db:"id"`
	WalletID             string          `db:"wallet_id"`
	Direction            string          `db:"direction"`
	Amount               decimal.Decimal `db:"amount"`
	Currency             string          `db:"currency"`
	RelatedTransactionID string          `db:"related_transaction_id"`
	Description          string          `db:"description"`
	CreatedAt            time.Time       `db:"created_at"`
}

const (
	LedgerDirectionDebit  = "debit"
	LedgerDirectionCredit = "credit"
)

// Signed returns the entry amount with credits positive and debits negative,
// which is the convention the wallet projection uses.
func (e *LedgerEntry) Signed() decimal.Decimal {
	if e.Direction == LedgerDirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
