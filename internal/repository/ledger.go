package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/tesfam/kiraypay/internal/models"
)

var (
	ErrEmptyLedgerSet      = errors.New("ledger entry set must not be empty")
	ErrUnbalancedLedgerSet = errors.New("ledger entry set does not balance to zero")
	ErrBadLedgerEntry      = errors.New("ledger entry has a non-positive amount or unknown direction")
)

type LedgerFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// CurrencyTotals is one row of the system-wide credit/debit aggregation
// used by the integrity checker.
type CurrencyTotals struct {
	Currency string          `db:"currency"`
	Credits  decimal.Decimal `db:"credits"`
	Debits   decimal.Decimal `db:"debits"`
}

type LedgerRepository interface {
	Append(tx *sqlx.Tx, entries []models.LedgerEntry) error
	ListByWallet(walletID string, filter *LedgerFilter) ([]models.LedgerEntry, error)
	ListByRelatedTransaction(relatedTransactionID string) ([]models.LedgerEntry, error)
	SumByWallet(tx *sqlx.Tx, walletID string) (decimal.Decimal, error)
	TotalsByCurrency(tx *sqlx.Tx) ([]CurrencyTotals, error)
}

type LedgerRepositoryImpl struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) LedgerRepository {
	return &LedgerRepositoryImpl{db: db}
}

// ValidateBalanced checks that the set of entries sums to zero per currency
// per related transaction id, with every amount strictly positive. It is
// exported so the settlement and payout engines can assert their sets
// before opening a transaction, and so tests can exercise the rule directly.
func ValidateBalanced(entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return ErrEmptyLedgerSet
	}

	type group struct {
		relatedID string
		currency  string
	}

	sums := make(map[group]decimal.Decimal)

	for i := range entries {
		e := &entries[i]

		if !e.Amount.IsPositive() {
			return ErrBadLedgerEntry
		}
		if e.Direction != models.LedgerDirectionDebit && e.Direction != models.LedgerDirectionCredit {
			return ErrBadLedgerEntry
		}

		key := group{relatedID: e.RelatedTransactionID, currency: e.Currency}
		sums[key] = sums[key].Add(e.Signed())
	}

	for key, sum := range sums {
		if !sum.IsZero() {
			return fmt.Errorf("%w: transaction %s currency %s is off by %s",
				ErrUnbalancedLedgerSet, key.relatedID, key.currency, sum.String())
		}
	}

	return nil
}

// Append writes a balanced entry set inside the caller's transaction.
// Either every entry persists or none do; an unbalanced set is rejected
// before any row is written.
func (repo *LedgerRepositoryImpl) Append(tx *sqlx.Tx, entries []models.LedgerEntry) error {
	if err := ValidateBalanced(entries); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO ledger_entries (wallet_id, direction, amount, currency, related_transaction_id, description)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for i := range entries {
		e := &entries[i]
		_, err := tx.ExecContext(ctx, query,
			e.WalletID,
			e.Direction,
			e.Amount,
			e.Currency,
			e.RelatedTransactionID,
			e.Description,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (repo *LedgerRepositoryImpl) ListByWallet(walletID string, filter *LedgerFilter) ([]models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if filter == nil {
		filter = &LedgerFilter{Limit: 50}
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	// time-ordered with id as tiebreaker so pagination is restartable
	query := `
		SELECT id, wallet_id, direction, amount, currency, related_transaction_id, description, created_at
		FROM ledger_entries
		WHERE wallet_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at, id
		LIMIT $4 OFFSET $5`

	var entries []models.LedgerEntry

	err := repo.db.SelectContext(ctx, &entries, query,
		walletID, filter.StartDate, filter.EndDate, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (repo *LedgerRepositoryImpl) ListByRelatedTransaction(relatedTransactionID string) ([]models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		SELECT id, wallet_id, direction, amount, currency, related_transaction_id, description, created_at
		FROM ledger_entries
		WHERE related_transaction_id = $1
		ORDER BY created_at, id`

	var entries []models.LedgerEntry

	err := repo.db.SelectContext(ctx, &entries, query, relatedTransactionID)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// SumByWallet recomputes the wallet's balance from first principles:
// credits positive, debits negative. Reconciliation diffs this against the
// cached projection on the wallets row, reading inside its snapshot
// transaction when one is given.
func (repo *LedgerRepositoryImpl) SumByWallet(tx *sqlx.Tx, walletID string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var sum decimal.Decimal

	query := `
		SELECT COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END), 0)
		FROM ledger_entries WHERE wallet_id = $1`

	var err error
	if tx != nil {
		err = tx.GetContext(ctx, &sum, query, walletID)
	} else {
		err = repo.db.GetContext(ctx, &sum, query, walletID)
	}
	if err != nil {
		return decimal.Zero, err
	}

	return sum, nil
}

func (repo *LedgerRepositoryImpl) TotalsByCurrency(tx *sqlx.Tx) ([]CurrencyTotals, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var totals []CurrencyTotals

	query := `
		SELECT currency,
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'credit'), 0) AS credits,
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'debit'), 0)  AS debits
		FROM ledger_entries
		GROUP BY currency`

	var err error
	if tx != nil {
		err = tx.SelectContext(ctx, &totals, query)
	} else {
		err = repo.db.SelectContext(ctx, &totals, query)
	}
	if err != nil {
		return nil, err
	}

	return totals, nil
}
