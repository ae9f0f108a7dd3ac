// Every sensitive mutation in the money engine leaves a row here.
// The table is append-only and is the record auditors and the
// reconciliation reports point into; there's no such thing as too much log.
package models

import (
	"time"
)

type FinancialAuditLog struct {
	ID          string    `db:"id"`
	ActorID     string    `db:"actor_id"`
	Action      string    `db:"action"`
	TargetType  string    `db:"target_type"`
	TargetID    string    `db:"target_id"`
	BeforeState []byte    `db:"before_state"`
	AfterState  []byte    `db:"after_state"`
	CreatedAt   time.Time `db:"created_at"`
}

// audit target types
const (
	AuditTargetWallet         = "wallet"
	AuditTargetPayout         = "payout"
	AuditTargetSettlement     = "settlement_transaction"
	AuditTargetFxRate         = "fx_rate"
	AuditTargetReconciliation = "reconciliation_run"
)

// audit actions
const (
	AuditActionWalletFrozen          = "wallet.frozen"
	AuditActionWalletUnfrozen        = "wallet.unfrozen"
	AuditActionPayoutDetailsUpdated  = "wallet.payout_details_updated"
	AuditActionPayoutCreated         = "payout.created"
	AuditActionPayoutProcessing      = "payout.processing"
	AuditActionPayoutCompleted       = "payout.completed"
	AuditActionPayoutFailed          = "payout.failed"
	AuditActionFxRateSet             = "fx_rate.set"
	AuditActionSettlementReversed    = "settlement.reversed"
	AuditActionDiscrepancyDetected   = "reconciliation.discrepancy"
	AuditActionIntegrityViolation    = "integrity.violation"
)

// SystemActorID is recorded when a scheduled job, rather than a person,
// performed the mutation.
const SystemActorID = "system"
