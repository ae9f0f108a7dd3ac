package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/tesfam/kiraypay/internal/models"
)

// BalanceSnapshot pairs a wallet's cached projection with its recomputed
// ledger balance, read in a single statement so both sides come from the
// same committed snapshot.
type BalanceSnapshot struct {
	WalletID      string          `db:"wallet_id"`
	CachedBalance decimal.Decimal `db:"cached_balance"`
	LedgerBalance decimal.Decimal `db:"ledger_balance"`
}

type ReconciliationRepository interface {
	SnapshotBalances() ([]BalanceSnapshot, error)
	InsertRun(run *models.ReconciliationRun) (string, error)
	FinishRun(id string, walletsChecked, discrepancyCount int, balanced bool, details string) error
	GetRun(id string) (*models.ReconciliationRun, bool, error)
	ListRuns(limit, offset int) ([]models.ReconciliationRun, error)
	InsertDiscrepancy(d *models.ReconciliationDiscrepancy) (string, error)
	ListDiscrepancies(runID string) ([]models.ReconciliationDiscrepancy, error)
}

type ReconciliationRepositoryImpl struct {
	db *sqlx.DB
}

func NewReconciliationRepository(db *sqlx.DB) ReconciliationRepository {
	return &ReconciliationRepositoryImpl{db: db}
}

func (repo *ReconciliationRepositoryImpl) SnapshotBalances() ([]BalanceSnapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var snapshots []BalanceSnapshot

	query := `
		SELECT w.id AS wallet_id,
		       w.available_balance + w.frozen_balance + w.pending_balance AS cached_balance,
		       COALESCE(SUM(CASE WHEN le.direction = 'credit' THEN le.amount ELSE -le.amount END), 0) AS ledger_balance
		FROM wallets w
		LEFT JOIN ledger_entries le ON le.wallet_id = w.id
		GROUP BY w.id
		ORDER BY w.id`

	err := repo.db.SelectContext(ctx, &snapshots, query)
	if err != nil {
		return nil, err
	}

	return snapshots, nil
}

func (repo *ReconciliationRepositoryImpl) InsertRun(run *models.ReconciliationRun) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO reconciliation_runs (period_type)
		VALUES ($1)
		RETURNING id`

	err := repo.db.QueryRowContext(ctx, query, run.PeriodType).Scan(&id)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *ReconciliationRepositoryImpl) FinishRun(id string, walletsChecked, discrepancyCount int, balanced bool, details string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE reconciliation_runs SET
			finished_at       = now(),
			wallets_checked   = $1,
			discrepancy_count = $2,
			balanced          = $3,
			details           = NULLIF($4, '')
		WHERE id = $5`

	_, err := repo.db.ExecContext(ctx, query, walletsChecked, discrepancyCount, balanced, details, id)
	return err
}

func (repo *ReconciliationRepositoryImpl) GetRun(id string) (*models.ReconciliationRun, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var run models.ReconciliationRun

	query := `
		SELECT id, period_type, started_at, finished_at, wallets_checked, discrepancy_count, balanced, details
		FROM reconciliation_runs WHERE id=$1`

	err := repo.db.GetContext(ctx, &run, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &run, true, nil
}

func (repo *ReconciliationRepositoryImpl) ListRuns(limit, offset int) ([]models.ReconciliationRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	var runs []models.ReconciliationRun

	query := `
		SELECT id, period_type, started_at, finished_at, wallets_checked, discrepancy_count, balanced, details
		FROM reconciliation_runs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2`

	err := repo.db.SelectContext(ctx, &runs, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return runs, nil
}

func (repo *ReconciliationRepositoryImpl) InsertDiscrepancy(d *models.ReconciliationDiscrepancy) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO reconciliation_discrepancies (run_id, wallet_id, field, cached_value, ledger_value)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := repo.db.QueryRowContext(ctx, query,
		d.RunID,
		d.WalletID,
		d.Field,
		d.CachedValue,
		d.LedgerValue,
	).Scan(&id)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *ReconciliationRepositoryImpl) ListDiscrepancies(runID string) ([]models.ReconciliationDiscrepancy, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var list []models.ReconciliationDiscrepancy

	query := `
		SELECT id, run_id, wallet_id, field, cached_value, ledger_value, resolved, created_at
		FROM reconciliation_discrepancies
		WHERE ($1 = '' OR run_id::text = $1)
		ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &list, query, runID)
	if err != nil {
		return nil, err
	}

	return list, nil
}
