package mocks

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/tesfam/kiraypay/internal/repository"
)

// MockDatabase satisfies repository.Database by delegating to whichever
// repositories the test cares about; everything else stays nil.
type MockDatabase struct {
	UserRepo           repository.UserRepository
	WalletRepo         repository.WalletRepository
	LedgerRepo         repository.LedgerRepository
	SettlementRepo     repository.SettlementRepository
	PayoutRepo         repository.PayoutRepository
	FxRateRepo         repository.FxRateRepository
	AuditRepo          repository.AuditRepository
	ReconciliationRepo repository.ReconciliationRepository

	// BeginTxFunc lets a test observe or fail transaction starts; when nil,
	// BeginTx reports that the mock does not support transactions.
	BeginTxFunc func(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

func (d *MockDatabase) User() repository.UserRepository       { return d.UserRepo }
func (d *MockDatabase) Wallet() repository.WalletRepository   { return d.WalletRepo }
func (d *MockDatabase) Ledger() repository.LedgerRepository   { return d.LedgerRepo }
func (d *MockDatabase) Settlement() repository.SettlementRepository {
	return d.SettlementRepo
}
func (d *MockDatabase) Payout() repository.PayoutRepository { return d.PayoutRepo }
func (d *MockDatabase) FxRate() repository.FxRateRepository { return d.FxRateRepo }
func (d *MockDatabase) Audit() repository.AuditRepository   { return d.AuditRepo }
func (d *MockDatabase) Reconciliation() repository.ReconciliationRepository {
	return d.ReconciliationRepo
}

func (d *MockDatabase) Close() error { return nil }

func (d *MockDatabase) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	if d.BeginTxFunc != nil {
		return d.BeginTxFunc(ctx, opts)
	}
	return nil, errors.New("transactions are not supported by the mock database")
}
