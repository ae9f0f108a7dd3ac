package mocks

import (
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/repository"
)

// MockSettlementRepo implements SettlementRepository but only mocks the
// lookups the settlement engine consults before opening a transaction.
type MockSettlementRepo struct {
	mock.Mock
}

func (m *MockSettlementRepo) GetByBookingID(bookingID string) (*models.SettlementTransaction, bool, error) {
	args := m.Called(bookingID)
	return args.Get(0).(*models.SettlementTransaction), args.Bool(1), args.Error(2)
}

func (m *MockSettlementRepo) Insert(tx *sqlx.Tx, st *models.SettlementTransaction) (string, error) {
	return "", nil
}

func (m *MockSettlementRepo) GetOne(id string) (*models.SettlementTransaction, bool, error) {
	return nil, false, nil
}

func (m *MockSettlementRepo) ListByOwner(ownerID string, filter *repository.SettlementFilter) ([]models.SettlementTransaction, error) {
	return nil, nil
}

func (m *MockSettlementRepo) List(filter *repository.SettlementFilter) ([]models.SettlementTransaction, error) {
	return nil, nil
}

func (m *MockSettlementRepo) MarkReversed(tx *sqlx.Tx, id string) error {
	return nil
}

func (m *MockSettlementRepo) Summary(tx *sqlx.Tx) ([]repository.CorporateSummary, error) {
	return nil, nil
}
