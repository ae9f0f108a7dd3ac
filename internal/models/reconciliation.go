package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationRun is the persisted result of one pass of the checker.
// Runs only report; discrepancies are never auto-corrected.
type ReconciliationRun struct {
	ID               string         `db:"id"`
	PeriodType       string         `db:"period_type"`
	StartedAt        time.Time      `db:"started_at"`
	FinishedAt       sql.NullTime   `db:"finished_at"`
	WalletsChecked   int            `db:"wallets_checked"`
	DiscrepancyCount int            `db:"discrepancy_count"`
	Balanced         bool           `db:"balanced"`
	Details          sql.NullString `db:"details"`
}

const (
	ReconciliationPeriodDaily     = "daily"
	ReconciliationPeriodWeekly    = "weekly"
	ReconciliationPeriodIntegrity = "integrity"
)

type ReconciliationDiscrepancy struct {
	ID          string          `db:"id"`
	RunID       string          `db:"run_id"`
	WalletID    string          `db:"wallet_id"`
	Field       string          `db:"field"`
	CachedValue decimal.Decimal `db:"cached_value"`
	LedgerValue decimal.Decimal `db:"ledger_value"`
	Resolved    bool            `db:"resolved"`
	CreatedAt   time.Time       `db:"created_at"`
}
