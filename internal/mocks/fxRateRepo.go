package mocks

import (
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/tesfam/kiraypay/internal/models"
)

// MockFxRateRepo implements FxRateRepository but only mocks rate lookups.
type MockFxRateRepo struct {
	mock.Mock
}

func (m *MockFxRateRepo) GetActive(from, to string) (*models.FxRate, bool, error) {
	args := m.Called(from, to)
	return args.Get(0).(*models.FxRate), args.Bool(1), args.Error(2)
}

func (m *MockFxRateRepo) Deactivate(tx *sqlx.Tx, from, to string) error {
	return nil
}

func (m *MockFxRateRepo) Insert(tx *sqlx.Tx, rate *models.FxRate) (string, error) {
	return "", nil
}

func (m *MockFxRateRepo) List(limit, offset int) ([]models.FxRate, error) {
	return nil, nil
}
