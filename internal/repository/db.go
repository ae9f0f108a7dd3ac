package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/tesfam/kiraypay/assets"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

const defaultTimeout = 3 * time.Second

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation. Writers racing on an idempotency key treat it as "someone
// else got there first", not as a failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Database interface defines available repositories
type Database interface {
	User() UserRepository
	Wallet() WalletRepository
	Ledger() LedgerRepository
	Settlement() SettlementRepository
	Payout() PayoutRepository
	FxRate() FxRateRepository
	Audit() AuditRepository
	Reconciliation() ReconciliationRepository

	Close() error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// DatabaseImpl implements the Database interface
type DatabaseImpl struct {
	db                 *sqlx.DB
	userRepo           UserRepository
	walletRepo         WalletRepository
	ledgerRepo         LedgerRepository
	settlementRepo     SettlementRepository
	payoutRepo         PayoutRepository
	fxRateRepo         FxRateRepository
	auditRepo          AuditRepository
	reconciliationRepo ReconciliationRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	// Run migrations if enabled
	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	return &DatabaseImpl{db: db}, nil
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

func (d *DatabaseImpl) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	tx, err := d.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (d *DatabaseImpl) User() UserRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.userRepo == nil {
		d.userRepo = NewUserRepository(d.db)
	}
	return d.userRepo
}

func (d *DatabaseImpl) Wallet() WalletRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.walletRepo == nil {
		d.walletRepo = NewWalletRepository(d.db)
	}
	return d.walletRepo
}

func (d *DatabaseImpl) Ledger() LedgerRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ledgerRepo == nil {
		d.ledgerRepo = NewLedgerRepository(d.db)
	}
	return d.ledgerRepo
}

func (d *DatabaseImpl) Settlement() SettlementRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.settlementRepo == nil {
		d.settlementRepo = NewSettlementRepository(d.db)
	}
	return d.settlementRepo
}

func (d *DatabaseImpl) Payout() PayoutRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.payoutRepo == nil {
		d.payoutRepo = NewPayoutRepository(d.db)
	}
	return d.payoutRepo
}

func (d *DatabaseImpl) FxRate() FxRateRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.fxRateRepo == nil {
		d.fxRateRepo = NewFxRateRepository(d.db)
	}
	return d.fxRateRepo
}

func (d *DatabaseImpl) Audit() AuditRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.auditRepo == nil {
		d.auditRepo = NewAuditRepository(d.db)
	}
	return d.auditRepo
}

func (d *DatabaseImpl) Reconciliation() ReconciliationRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reconciliationRepo == nil {
		d.reconciliationRepo = NewReconciliationRepository(d.db)
	}
	return d.reconciliationRepo
}
