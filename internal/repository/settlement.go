package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/tesfam/kiraypay/internal/models"
)

const settlementColumns = `
	id, booking_id, property_id, gross_amount, currency,
	owner_share, dellala_share, corporate_share, vat_amount, withholding_tax,
	fx_rate_id, fx_rate_value, status, created_at`

type SettlementFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// CorporateSummary aggregates recorded settlement shares per currency.
// The integrity checker compares these against the corporate and
// tax-liability wallet inflows.
type CorporateSummary struct {
	Currency         string          `db:"currency"`
	GrossTotal       decimal.Decimal `db:"gross_total"`
	OwnerTotal       decimal.Decimal `db:"owner_total"`
	DellalaTotal     decimal.Decimal `db:"dellala_total"`
	CorporateTotal   decimal.Decimal `db:"corporate_total"`
	VatTotal         decimal.Decimal `db:"vat_total"`
	WithholdingTotal decimal.Decimal `db:"withholding_total"`
	Count            int             `db:"count"`
}

type SettlementRepository interface {
	Insert(tx *sqlx.Tx, st *models.SettlementTransaction) (string, error)
	GetOne(id string) (*models.SettlementTransaction, bool, error)
	GetByBookingID(bookingID string) (*models.SettlementTransaction, bool, error)
	ListByOwner(ownerID string, filter *SettlementFilter) ([]models.SettlementTransaction, error)
	List(filter *SettlementFilter) ([]models.SettlementTransaction, error)
	MarkReversed(tx *sqlx.Tx, id string) error
	Summary(tx *sqlx.Tx) ([]CorporateSummary, error)
}

type SettlementRepositoryImpl struct {
	db *sqlx.DB
}

func NewSettlementRepository(db *sqlx.DB) SettlementRepository {
	return &SettlementRepositoryImpl{db: db}
}

func (repo *SettlementRepositoryImpl) Insert(tx *sqlx.Tx, st *models.SettlementTransaction) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO settlement_transactions
			(booking_id, property_id, gross_amount, currency,
			 owner_share, dellala_share, corporate_share, vat_amount, withholding_tax,
			 fx_rate_id, fx_rate_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	err := tx.QueryRowContext(ctx, query,
		st.BookingID,
		st.PropertyID,
		st.GrossAmount,
		st.Currency,
		st.OwnerShare,
		st.DellalaShare,
		st.CorporateShare,
		st.VatAmount,
		st.WithholdingTax,
		st.FxRateID,
		st.FxRateValue,
	).Scan(&id)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *SettlementRepositoryImpl) GetOne(id string) (*models.SettlementTransaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var st models.SettlementTransaction

	query := `SELECT ` + settlementColumns + ` FROM settlement_transactions WHERE id=$1`

	err := repo.db.GetContext(ctx, &st, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &st, true, nil
}

func (repo *SettlementRepositoryImpl) GetByBookingID(bookingID string) (*models.SettlementTransaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var st models.SettlementTransaction

	query := `SELECT ` + settlementColumns + ` FROM settlement_transactions WHERE booking_id=$1`

	err := repo.db.GetContext(ctx, &st, query, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &st, true, nil
}

// listByOwnerQuery joins settlements to the caller's wallets through the
// ledger. ledger_entries.related_transaction_id is TEXT (it also carries
// payout ids), so the settlement's UUID id must be cast before comparing.
const listByOwnerQuery = `
	SELECT DISTINCT st.id, st.booking_id, st.property_id, st.gross_amount, st.currency,
	       st.owner_share, st.dellala_share, st.corporate_share, st.vat_amount, st.withholding_tax,
	       st.fx_rate_id, st.fx_rate_value, st.status, st.created_at
	FROM settlement_transactions st
	JOIN ledger_entries le ON le.related_transaction_id = st.id::text
	JOIN wallets w ON w.id = le.wallet_id
	WHERE w.owner_id = $1
	  AND ($2::timestamptz IS NULL OR st.created_at >= $2)
	  AND ($3::timestamptz IS NULL OR st.created_at <= $3)
	ORDER BY st.created_at DESC
	LIMIT $4 OFFSET $5`

// ListByOwner scopes history to settlements that credited one of the
// owner's wallets, joined through the ledger.
func (repo *SettlementRepositoryImpl) ListByOwner(ownerID string, filter *SettlementFilter) ([]models.SettlementTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if filter == nil {
		filter = &SettlementFilter{Limit: 50}
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	var list []models.SettlementTransaction

	err := repo.db.SelectContext(ctx, &list, listByOwnerQuery,
		ownerID, filter.StartDate, filter.EndDate, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}

	return list, nil
}

func (repo *SettlementRepositoryImpl) List(filter *SettlementFilter) ([]models.SettlementTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if filter == nil {
		filter = &SettlementFilter{Limit: 50}
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	query := `
		SELECT ` + settlementColumns + `
		FROM settlement_transactions
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	var list []models.SettlementTransaction

	err := repo.db.SelectContext(ctx, &list, query,
		filter.StartDate, filter.EndDate, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}

	return list, nil
}

// MarkReversed is the only mutation allowed on a settlement transaction:
// a terminal status annotation. The money itself moves back through a new
// balancing ledger set, never by editing history.
func (repo *SettlementRepositoryImpl) MarkReversed(tx *sqlx.Tx, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE settlement_transactions SET status = $1
		WHERE id = $2 AND status = $3`

	res, err := tx.ExecContext(ctx, query, models.SettlementStatusReversed, id, models.SettlementStatusCompleted)
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

// Summary aggregates inside the caller's transaction when one is given, so
// the integrity checker reads it under the same snapshot as the ledger
// totals.
func (repo *SettlementRepositoryImpl) Summary(tx *sqlx.Tx) ([]CorporateSummary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		SELECT currency,
		       COALESCE(SUM(gross_amount), 0)    AS gross_total,
		       COALESCE(SUM(owner_share), 0)     AS owner_total,
		       COALESCE(SUM(dellala_share), 0)   AS dellala_total,
		       COALESCE(SUM(corporate_share), 0) AS corporate_total,
		       COALESCE(SUM(vat_amount), 0)      AS vat_total,
		       COALESCE(SUM(withholding_tax), 0) AS withholding_total,
		       COUNT(*)                          AS count
		FROM settlement_transactions
		WHERE status = 'completed'
		GROUP BY currency`

	var summary []CorporateSummary
	var err error

	if tx != nil {
		err = tx.SelectContext(ctx, &summary, query)
	} else {
		err = repo.db.SelectContext(ctx, &summary, query)
	}
	if err != nil {
		return nil, err
	}

	return summary, nil
}
