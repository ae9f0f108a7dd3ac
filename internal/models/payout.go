package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Payout is a withdrawal moving funds from a wallet to an external
// money-movement rail. Lifecycle: pending -> processing -> completed, with
// pending|processing -> failed. The earmarked amount lives in the wallet's
// pending balance while pending and in frozen while processing, so value is
// moved between buckets but never created or destroyed mid-flight.
type Payout struct {
	ID                string          `db:"id"`
	WalletID          string          `db:"wallet_id"`
	RecipientID       string          `db:"recipient_id"`
	Amount            decimal.Decimal `db:"amount"`
	Currency          string          `db:"currency"`
	Rail              string          `db:"rail"`
	ExternalReference sql.NullString  `db:"external_reference"`
	FailureReason     sql.NullString  `db:"failure_reason"`
	Status            string          `db:"status"`
	CreatedAt         time.Time       `db:"created_at"`
	CompletedAt       sql.NullTime    `db:"completed_at"`
}

const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusFailed     = "failed"
)

// payout rails
const (
	PayoutRailBank        = "bank"
	PayoutRailMobileMoney = "mobile_money"
)
