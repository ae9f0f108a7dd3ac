package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/tesfam/kiraypay/internal/models"
)

const walletColumns = `
	id, owner_id, owner_type, system_name, currency,
	available_balance, frozen_balance, pending_balance,
	total_earnings, total_withdrawals, status,
	bank_name, bank_account_name, bank_account_number,
	mobile_money_provider, mobile_money_number,
	created_at, updated_at`

type PayoutDetails struct {
	BankName            string
	BankAccountName     string
	BankAccountNumber   string
	MobileMoneyProvider string
	MobileMoneyNumber   string
}

type WalletRepository interface {
	GetOrCreate(ownerID, ownerType, currency string, tx *sqlx.Tx) (*models.Wallet, error)
	GetOrCreateSystem(systemName, currency string, tx *sqlx.Tx) (*models.Wallet, error)
	GetSystem(tx *sqlx.Tx, systemName, currency string) (*models.Wallet, bool, error)
	GetOne(id string) (*models.Wallet, bool, error)
	GetByOwner(ownerID, currency string) (*models.Wallet, bool, error)
	GetAllByOwner(ownerID string) ([]models.Wallet, error)
	List(limit, offset int) ([]models.Wallet, error)
	ListIDs() ([]string, error)

	LockForUpdate(tx *sqlx.Tx, ids []string) (map[string]*models.Wallet, error)
	AdjustBalances(tx *sqlx.Tx, id string, availableDelta, pendingDelta, frozenDelta decimal.Decimal) error
	IncrementTotals(tx *sqlx.Tx, id string, earningsDelta, withdrawalsDelta decimal.Decimal) error

	UpdatePayoutDetails(id string, details *PayoutDetails) error
	SetStatus(id, status string) error
}

type WalletRepositoryImpl struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &WalletRepositoryImpl{db: db}
}

// GetOrCreate returns the owner's wallet in the given currency, creating a
// zero-initialized row on first use. The insert is idempotent: a concurrent
// caller hitting the (owner_id, currency) unique index simply falls through
// to the reselect.
func (repo *WalletRepositoryImpl) GetOrCreate(ownerID, ownerType, currency string, tx *sqlx.Tx) (*models.Wallet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	insert := `
		INSERT INTO wallets (owner_id, owner_type, currency)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, currency) WHERE owner_id IS NOT NULL DO NOTHING`

	selectQuery := `
		SELECT ` + walletColumns + `
		FROM wallets WHERE owner_id=$1 AND currency=$2`

	var wallet models.Wallet

	if tx != nil {
		if _, err := tx.ExecContext(ctx, insert, ownerID, ownerType, currency); err != nil {
			return nil, err
		}
		if err := tx.GetContext(ctx, &wallet, selectQuery, ownerID, currency); err != nil {
			return nil, err
		}
	} else {
		if _, err := repo.db.ExecContext(ctx, insert, ownerID, ownerType, currency); err != nil {
			return nil, err
		}
		if err := repo.db.GetContext(ctx, &wallet, selectQuery, ownerID, currency); err != nil {
			return nil, err
		}
	}

	return &wallet, nil
}

// GetOrCreateSystem resolves one of the per-currency system wallets
// (incoming_funds, tax_liability, outgoing_funds, corporate). They carry the
// non-customer side of every balanced ledger set and are created lazily the
// same way owner wallets are.
func (repo *WalletRepositoryImpl) GetOrCreateSystem(systemName, currency string, tx *sqlx.Tx) (*models.Wallet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	ownerType := models.WalletOwnerTypeSystem
	if systemName == models.SystemWalletCorporate {
		ownerType = models.WalletOwnerTypeCorporate
	}

	insert := `
		INSERT INTO wallets (owner_type, system_name, currency)
		VALUES ($1, $2, $3)
		ON CONFLICT (system_name, currency) WHERE system_name IS NOT NULL DO NOTHING`

	selectQuery := `
		SELECT ` + walletColumns + `
		FROM wallets WHERE system_name=$1 AND currency=$2`

	var wallet models.Wallet

	if tx != nil {
		if _, err := tx.ExecContext(ctx, insert, ownerType, systemName, currency); err != nil {
			return nil, err
		}
		if err := tx.GetContext(ctx, &wallet, selectQuery, systemName, currency); err != nil {
			return nil, err
		}
	} else {
		if _, err := repo.db.ExecContext(ctx, insert, ownerType, systemName, currency); err != nil {
			return nil, err
		}
		if err := repo.db.GetContext(ctx, &wallet, selectQuery, systemName, currency); err != nil {
			return nil, err
		}
	}

	return &wallet, nil
}

// GetSystem is the read-only counterpart of GetOrCreateSystem, safe to call
// inside a read-only transaction. A system wallet that was never created has
// never carried an entry, so callers treat "not found" as a zero balance.
func (repo *WalletRepositoryImpl) GetSystem(tx *sqlx.Tx, systemName, currency string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE system_name=$1 AND currency=$2`

	var err error
	if tx != nil {
		err = tx.GetContext(ctx, &wallet, query, systemName, currency)
	} else {
		err = repo.db.GetContext(ctx, &wallet, query, systemName, currency)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *WalletRepositoryImpl) GetOne(id string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id=$1`

	err := repo.db.GetContext(ctx, &wallet, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *WalletRepositoryImpl) GetByOwner(ownerID, currency string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id=$1 AND currency=$2`

	err := repo.db.GetContext(ctx, &wallet, query, ownerID, currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *WalletRepositoryImpl) GetAllByOwner(ownerID string) ([]models.Wallet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallets []models.Wallet

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id=$1 ORDER BY created_at`

	err := repo.db.SelectContext(ctx, &wallets, query, ownerID)
	if err != nil {
		return nil, err
	}

	return wallets, nil
}

func (repo *WalletRepositoryImpl) List(limit, offset int) ([]models.Wallet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallets []models.Wallet

	query := `SELECT ` + walletColumns + ` FROM wallets ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	err := repo.db.SelectContext(ctx, &wallets, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return wallets, nil
}

func (repo *WalletRepositoryImpl) ListIDs() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var ids []string

	err := repo.db.SelectContext(ctx, &ids, `SELECT id FROM wallets ORDER BY id`)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// LockForUpdate acquires row locks on the given wallets inside the caller's
// transaction. The ids are locked in sorted order so that two settlements
// touching the same wallets can never deadlock each other.
func (repo *WalletRepositoryImpl) LockForUpdate(tx *sqlx.Tx, ids []string) (map[string]*models.Wallet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	query := `
		SELECT ` + walletColumns + `
		FROM wallets WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	var wallets []models.Wallet
	if err := tx.SelectContext(ctx, &wallets, query, pq.Array(sorted)); err != nil {
		return nil, err
	}

	locked := make(map[string]*models.Wallet, len(wallets))
	for i := range wallets {
		locked[wallets[i].ID] = &wallets[i]
	}

	for _, id := range sorted {
		if _, ok := locked[id]; !ok {
			return nil, sql.ErrNoRows
		}
	}

	return locked, nil
}

// AdjustBalances moves value between the wallet's balance buckets. The
// caller must hold the row lock (LockForUpdate) in the same transaction.
func (repo *WalletRepositoryImpl) AdjustBalances(tx *sqlx.Tx, id string, availableDelta, pendingDelta, frozenDelta decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE wallets SET
			available_balance = available_balance + $1,
			pending_balance   = pending_balance + $2,
			frozen_balance    = frozen_balance + $3,
			updated_at        = now()
		WHERE id = $4`

	_, err := tx.ExecContext(ctx, query, availableDelta, pendingDelta, frozenDelta, id)
	return err
}

func (repo *WalletRepositoryImpl) IncrementTotals(tx *sqlx.Tx, id string, earningsDelta, withdrawalsDelta decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE wallets SET
			total_earnings    = total_earnings + $1,
			total_withdrawals = total_withdrawals + $2,
			updated_at        = now()
		WHERE id = $3`

	_, err := tx.ExecContext(ctx, query, earningsDelta, withdrawalsDelta, id)
	return err
}

func (repo *WalletRepositoryImpl) UpdatePayoutDetails(id string, details *PayoutDetails) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE wallets SET
			bank_name             = NULLIF($1, ''),
			bank_account_name     = NULLIF($2, ''),
			bank_account_number   = NULLIF($3, ''),
			mobile_money_provider = NULLIF($4, ''),
			mobile_money_number   = NULLIF($5, ''),
			updated_at            = now()
		WHERE id = $6`

	_, err := repo.db.ExecContext(ctx, query,
		details.BankName,
		details.BankAccountName,
		details.BankAccountNumber,
		details.MobileMoneyProvider,
		details.MobileMoneyNumber,
		id,
	)
	return err
}

func (repo *WalletRepositoryImpl) SetStatus(id, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE wallets SET status = $1, updated_at = now() WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, status, id)
	return err
}
