// The financial audit log is append-only: freezes, payout transitions,
// rate changes, reversals and detected discrepancies all leave a row with
// the actor and the before/after state. Nothing ever updates or deletes
// these rows.
package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/tesfam/kiraypay/internal/models"
)

type AuditFilter struct {
	TargetType string
	TargetID   string
	Limit      int
	Offset     int
}

type AuditRepository interface {
	Insert(entry *models.FinancialAuditLog) (*models.FinancialAuditLog, error)
	List(filter *AuditFilter) ([]models.FinancialAuditLog, error)
}

type AuditRepositoryImpl struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

func (repo *AuditRepositoryImpl) Insert(entry *models.FinancialAuditLog) (*models.FinancialAuditLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO financial_audit_logs (actor_id, action, target_type, target_id, before_state, after_state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := repo.db.QueryRowContext(ctx, query,
		entry.ActorID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		entry.BeforeState,
		entry.AfterState,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (repo *AuditRepositoryImpl) List(filter *AuditFilter) ([]models.FinancialAuditLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if filter == nil {
		filter = &AuditFilter{Limit: 50}
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	query := `
		SELECT id, actor_id, action, target_type, target_id, before_state, after_state, created_at
		FROM financial_audit_logs
		WHERE ($1 = '' OR target_type = $1)
		  AND ($2 = '' OR target_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	var entries []models.FinancialAuditLog

	err := repo.db.SelectContext(ctx, &entries, query,
		filter.TargetType, filter.TargetID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
