package mocks

import (
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/repository"
)

// MockWalletRepo implements WalletRepository but only mocks the lookups
// handlers and engines perform outside a database transaction.
type MockWalletRepo struct {
	mock.Mock
}

func (m *MockWalletRepo) GetByOwner(ownerID, currency string) (*models.Wallet, bool, error) {
	args := m.Called(ownerID, currency)
	return args.Get(0).(*models.Wallet), args.Bool(1), args.Error(2)
}

func (m *MockWalletRepo) GetAllByOwner(ownerID string) ([]models.Wallet, error) {
	args := m.Called(ownerID)
	return args.Get(0).([]models.Wallet), args.Error(1)
}

func (m *MockWalletRepo) GetOrCreate(ownerID, ownerType, currency string, tx *sqlx.Tx) (*models.Wallet, error) {
	args := m.Called(ownerID, ownerType, currency)
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepo) GetOrCreateSystem(systemName, currency string, tx *sqlx.Tx) (*models.Wallet, error) {
	args := m.Called(systemName, currency)
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepo) GetSystem(tx *sqlx.Tx, systemName, currency string) (*models.Wallet, bool, error) {
	return nil, false, nil
}

func (m *MockWalletRepo) GetOne(id string) (*models.Wallet, bool, error) {
	return nil, false, nil
}

func (m *MockWalletRepo) List(limit, offset int) ([]models.Wallet, error) {
	return nil, nil
}

func (m *MockWalletRepo) ListIDs() ([]string, error) {
	return nil, nil
}

func (m *MockWalletRepo) LockForUpdate(tx *sqlx.Tx, ids []string) (map[string]*models.Wallet, error) {
	return nil, nil
}

func (m *MockWalletRepo) AdjustBalances(tx *sqlx.Tx, id string, availableDelta, pendingDelta, frozenDelta decimal.Decimal) error {
	return nil
}

func (m *MockWalletRepo) IncrementTotals(tx *sqlx.Tx, id string, earningsDelta, withdrawalsDelta decimal.Decimal) error {
	return nil
}

func (m *MockWalletRepo) UpdatePayoutDetails(id string, details *repository.PayoutDetails) error {
	return nil
}

func (m *MockWalletRepo) SetStatus(id, status string) error {
	return nil
}
