package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tesfam/kiraypay/internal/models"
)

const payoutColumns = `
	id, wallet_id, recipient_id, amount, currency, rail,
	external_reference, failure_reason, status, created_at, completed_at`

type PayoutFilter struct {
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

type PayoutRepository interface {
	Insert(tx *sqlx.Tx, payout *models.Payout) (string, error)
	GetOne(id string) (*models.Payout, bool, error)
	GetOneForUpdate(tx *sqlx.Tx, id string) (*models.Payout, bool, error)
	ListByRecipient(recipientID string, filter *PayoutFilter) ([]models.Payout, error)
	List(filter *PayoutFilter) ([]models.Payout, error)
	MarkProcessing(tx *sqlx.Tx, id string) error
	MarkCompleted(tx *sqlx.Tx, id, externalReference string) error
	MarkFailed(tx *sqlx.Tx, id, reason string) error
}

type PayoutRepositoryImpl struct {
	db *sqlx.DB
}

func NewPayoutRepository(db *sqlx.DB) PayoutRepository {
	return &PayoutRepositoryImpl{db: db}
}

func (repo *PayoutRepositoryImpl) Insert(tx *sqlx.Tx, payout *models.Payout) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO payouts (wallet_id, recipient_id, amount, currency, rail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := tx.QueryRowContext(ctx, query,
		payout.WalletID,
		payout.RecipientID,
		payout.Amount,
		payout.Currency,
		payout.Rail,
	).Scan(&id)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *PayoutRepositoryImpl) GetOne(id string) (*models.Payout, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var payout models.Payout

	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id=$1`

	err := repo.db.GetContext(ctx, &payout, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &payout, true, nil
}

// GetOneForUpdate locks the payout row for the duration of a state
// transition so that a duplicated rail confirmation can't race it.
func (repo *PayoutRepositoryImpl) GetOneForUpdate(tx *sqlx.Tx, id string) (*models.Payout, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var payout models.Payout

	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id=$1 FOR UPDATE`

	err := tx.GetContext(ctx, &payout, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &payout, true, nil
}

func (repo *PayoutRepositoryImpl) ListByRecipient(recipientID string, filter *PayoutFilter) ([]models.Payout, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if filter == nil {
		filter = &PayoutFilter{Limit: 50}
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	query := `
		SELECT ` + payoutColumns + `
		FROM payouts
		WHERE recipient_id = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`

	var payouts []models.Payout

	err := repo.db.SelectContext(ctx, &payouts, query,
		recipientID, filter.Status, filter.StartDate, filter.EndDate, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}

	return payouts, nil
}

func (repo *PayoutRepositoryImpl) List(filter *PayoutFilter) ([]models.Payout, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if filter == nil {
		filter = &PayoutFilter{Limit: 50}
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	query := `
		SELECT ` + payoutColumns + `
		FROM payouts
		WHERE ($1 = '' OR status = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	var payouts []models.Payout

	err := repo.db.SelectContext(ctx, &payouts, query,
		filter.Status, filter.StartDate, filter.EndDate, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}

	return payouts, nil
}

func (repo *PayoutRepositoryImpl) MarkProcessing(tx *sqlx.Tx, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE payouts SET status = $1
		WHERE id = $2 AND status = $3`

	return repo.execTransition(ctx, tx, query, models.PayoutStatusProcessing, id, models.PayoutStatusPending)
}

func (repo *PayoutRepositoryImpl) MarkCompleted(tx *sqlx.Tx, id, externalReference string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE payouts SET status = $1, external_reference = $4, completed_at = now()
		WHERE id = $2 AND status = $3`

	return repo.execTransition(ctx, tx, query, models.PayoutStatusCompleted, id, models.PayoutStatusProcessing, externalReference)
}

func (repo *PayoutRepositoryImpl) MarkFailed(tx *sqlx.Tx, id, reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	// failure is reachable from both non-terminal states
	query := `
		UPDATE payouts SET status = $1, failure_reason = $4
		WHERE id = $2 AND status IN ($3, 'processing')`

	return repo.execTransition(ctx, tx, query, models.PayoutStatusFailed, id, models.PayoutStatusPending, reason)
}

// execTransition runs a guarded UPDATE; zero affected rows means the payout
// was not in the expected source state.
func (repo *PayoutRepositoryImpl) execTransition(ctx context.Context, tx *sqlx.Tx, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
