// Package reconciliation proves, on a schedule and on demand, that the
// cached wallet projections still agree with the append-only ledger and
// that the books as a whole balance. The checker only reports: a
// discrepancy is recorded, audited and alerted on, never auto-corrected.
package reconciliation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tesfam/kiraypay/internal/auditlog"
	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/repository"
	"github.com/tesfam/kiraypay/internal/smtp"
)

type Checker struct {
	db                repository.Database
	audit             *auditlog.Recorder
	mailer            smtp.MailerInterface
	notificationEmail string
	logger            *slog.Logger
}

func New(db repository.Database, audit *auditlog.Recorder, mailer smtp.MailerInterface, notificationEmail string, logger *slog.Logger) *Checker {
	return &Checker{
		db:                db,
		audit:             audit,
		mailer:            mailer,
		notificationEmail: notificationEmail,
		logger:            logger,
	}
}

// Run walks every wallet and diffs its cached available+frozen+pending
// total against the balance recomputed from its ledger entries. Both sides
// of each diff come from a single snapshot statement. The run and any
// discrepancies are persisted; discrepancies also raise an audit row and
// an operations email.
func (c *Checker) Run(ctx context.Context, periodType string) (*models.ReconciliationRun, []models.ReconciliationDiscrepancy, error) {
	runID, err := c.db.Reconciliation().InsertRun(&models.ReconciliationRun{PeriodType: periodType})
	if err != nil {
		return nil, nil, err
	}

	snapshots, err := c.db.Reconciliation().SnapshotBalances()
	if err != nil {
		return nil, nil, err
	}

	var discrepancies []models.ReconciliationDiscrepancy

	for _, snap := range snapshots {
		if snap.CachedBalance.Equal(snap.LedgerBalance) {
			continue
		}

		d := models.ReconciliationDiscrepancy{
			RunID:       runID,
			WalletID:    snap.WalletID,
			Field:       "ledger_balance",
			CachedValue: snap.CachedBalance,
			LedgerValue: snap.LedgerBalance,
		}

		id, err := c.db.Reconciliation().InsertDiscrepancy(&d)
		if err != nil {
			return nil, nil, err
		}
		d.ID = id
		discrepancies = append(discrepancies, d)

		c.audit.Record(models.SystemActorID, models.AuditActionDiscrepancyDetected, models.AuditTargetWallet, snap.WalletID,
			map[string]string{"cached_balance": snap.CachedBalance.String()},
			map[string]string{"ledger_balance": snap.LedgerBalance.String()},
		)

		c.logger.Error("reconciliation: wallet out of balance",
			"run_id", runID,
			"wallet_id", snap.WalletID,
			"cached_balance", snap.CachedBalance.String(),
			"ledger_balance", snap.LedgerBalance.String(),
		)
	}

	details := ""
	if len(discrepancies) > 0 {
		details = fmt.Sprintf("%d wallet(s) diverged from the ledger", len(discrepancies))
	}

	err = c.db.Reconciliation().FinishRun(runID, len(snapshots), len(discrepancies), len(discrepancies) == 0, details)
	if err != nil {
		return nil, nil, err
	}

	run, _, err := c.db.Reconciliation().GetRun(runID)
	if err != nil {
		return nil, nil, err
	}

	if len(discrepancies) > 0 {
		c.alert(runID, periodType, discrepancyLines(discrepancies))
	} else {
		c.logger.Info("reconciliation: balanced",
			"run_id", runID, "period_type", periodType, "wallets_checked", len(snapshots))
	}

	return run, discrepancies, nil
}

// VerifyIntegrity cross-checks the books at the system level:
// per-currency ledger credits must equal debits, the corporate wallet's
// recorded earnings must match the settlement table's corporate shares,
// and the tax liability wallet must hold exactly the recorded VAT plus
// withholding. All reads happen inside one repeatable-read read-only
// transaction so a settlement landing mid-check cannot fake a violation.
// The pass is persisted as a run with period type "integrity" and any
// violation is audited and alerted on.
func (c *Checker) VerifyIntegrity(ctx context.Context) (*models.ReconciliationRun, []string, error) {
	runID, err := c.db.Reconciliation().InsertRun(&models.ReconciliationRun{PeriodType: models.ReconciliationPeriodIntegrity})
	if err != nil {
		return nil, nil, err
	}

	totals, violations, err := c.collectViolations(ctx)
	if err != nil {
		return nil, nil, err
	}

	err = c.db.Reconciliation().FinishRun(runID, len(totals), len(violations), len(violations) == 0, strings.Join(violations, "; "))
	if err != nil {
		return nil, nil, err
	}

	run, _, err := c.db.Reconciliation().GetRun(runID)
	if err != nil {
		return nil, nil, err
	}

	if len(violations) > 0 {
		c.audit.Record(models.SystemActorID, models.AuditActionIntegrityViolation, models.AuditTargetReconciliation, runID,
			nil, map[string][]string{"violations": violations})

		for _, v := range violations {
			c.logger.Error("reconciliation: integrity violation", "run_id", runID, "violation", v)
		}

		c.alert(runID, models.ReconciliationPeriodIntegrity, violations)
	}

	return run, violations, nil
}

// collectViolations runs every system-level check against a single
// repeatable-read snapshot. The transaction is read-only, so the checks
// use GetSystem rather than GetOrCreateSystem; a system wallet that was
// never created contributes zero to both sides.
func (c *Checker) collectViolations(ctx context.Context) ([]repository.CurrencyTotals, []string, error) {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var violations []string

	totals, err := c.db.Ledger().TotalsByCurrency(tx)
	if err != nil {
		return nil, nil, err
	}

	for _, t := range totals {
		if !t.Credits.Equal(t.Debits) {
			violations = append(violations, fmt.Sprintf(
				"ledger does not balance for %s: credits %s, debits %s",
				t.Currency, t.Credits.String(), t.Debits.String()))
		}
	}

	summaries, err := c.db.Settlement().Summary(tx)
	if err != nil {
		return nil, nil, err
	}

	for _, s := range summaries {
		corporateEarnings := decimal.Zero
		corporate, found, err := c.db.Wallet().GetSystem(tx, models.SystemWalletCorporate, s.Currency)
		if err != nil {
			return nil, nil, err
		}
		if found {
			corporateEarnings = corporate.TotalEarnings
		}
		if !corporateEarnings.Equal(s.CorporateTotal) {
			violations = append(violations, fmt.Sprintf(
				"corporate earnings mismatch for %s: wallet records %s, settlements total %s",
				s.Currency, corporateEarnings.String(), s.CorporateTotal.String()))
		}

		taxHeld := decimal.Zero
		taxWallet, found, err := c.db.Wallet().GetSystem(tx, models.SystemWalletTaxLiability, s.Currency)
		if err != nil {
			return nil, nil, err
		}
		if found {
			taxHeld, err = c.db.Ledger().SumByWallet(tx, taxWallet.ID)
			if err != nil {
				return nil, nil, err
			}
		}
		taxDue := s.VatTotal.Add(s.WithholdingTotal)
		if !taxHeld.Equal(taxDue) {
			violations = append(violations, fmt.Sprintf(
				"tax liability mismatch for %s: wallet holds %s, settlements recorded %s",
				s.Currency, taxHeld.String(), taxDue.String()))
		}
	}

	return totals, violations, nil
}

func (c *Checker) alert(runID, periodType string, lines []string) {
	if c.mailer == nil || c.notificationEmail == "" {
		return
	}

	data := map[string]any{
		"RunID":      runID,
		"PeriodType": periodType,
		"Lines":      lines,
	}

	if err := c.mailer.Send(c.notificationEmail, data, "reconciliation-alert.tmpl"); err != nil {
		c.logger.Error("reconciliation: alert email failed", "run_id", runID, "error", err)
	}
}

func discrepancyLines(discrepancies []models.ReconciliationDiscrepancy) []string {
	lines := make([]string, 0, len(discrepancies))
	for _, d := range discrepancies {
		diff := d.CachedValue.Sub(d.LedgerValue)
		lines = append(lines, fmt.Sprintf("wallet %s: cached %s, ledger %s (off by %s)",
			d.WalletID, d.CachedValue.String(), d.LedgerValue.String(), diff.String()))
	}
	return lines
}
