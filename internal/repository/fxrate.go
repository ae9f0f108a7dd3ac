package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/tesfam/kiraypay/internal/models"
)

const fxRateColumns = `
	id, from_currency, to_currency, rate, inverse_rate, source,
	effective_from, is_active, set_by, created_at`

type FxRateRepository interface {
	GetActive(from, to string) (*models.FxRate, bool, error)
	Deactivate(tx *sqlx.Tx, from, to string) error
	Insert(tx *sqlx.Tx, rate *models.FxRate) (string, error)
	List(limit, offset int) ([]models.FxRate, error)
}

type FxRateRepositoryImpl struct {
	db *sqlx.DB
}

func NewFxRateRepository(db *sqlx.DB) FxRateRepository {
	return &FxRateRepositoryImpl{db: db}
}

func (repo *FxRateRepositoryImpl) GetActive(from, to string) (*models.FxRate, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var rate models.FxRate

	query := `
		SELECT ` + fxRateColumns + `
		FROM fx_rates
		WHERE from_currency=$1 AND to_currency=$2 AND is_active
		ORDER BY effective_from DESC
		LIMIT 1`

	err := repo.db.GetContext(ctx, &rate, query, from, to)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &rate, true, nil
}

// Deactivate retires the current active row for the ordered pair. Rate
// history is retained for audit replay; rows are never deleted.
func (repo *FxRateRepositoryImpl) Deactivate(tx *sqlx.Tx, from, to string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE fx_rates SET is_active = false
		WHERE from_currency = $1 AND to_currency = $2 AND is_active`

	_, err := tx.ExecContext(ctx, query, from, to)
	return err
}

func (repo *FxRateRepositoryImpl) Insert(tx *sqlx.Tx, rate *models.FxRate) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO fx_rates (from_currency, to_currency, rate, inverse_rate, source, set_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := tx.QueryRowContext(ctx, query,
		rate.FromCurrency,
		rate.ToCurrency,
		rate.Rate,
		rate.InverseRate,
		rate.Source,
		rate.SetBy,
	).Scan(&id)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *FxRateRepositoryImpl) List(limit, offset int) ([]models.FxRate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	var rates []models.FxRate

	query := `
		SELECT ` + fxRateColumns + `
		FROM fx_rates
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	err := repo.db.SelectContext(ctx, &rates, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return rates, nil
}
