package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/repository"
)

// MockReconciliationRepo implements ReconciliationRepository but only mocks
// run bookkeeping.
type MockReconciliationRepo struct {
	mock.Mock
}

func (m *MockReconciliationRepo) InsertRun(run *models.ReconciliationRun) (string, error) {
	args := m.Called(run)
	return args.String(0), args.Error(1)
}

func (m *MockReconciliationRepo) SnapshotBalances() ([]repository.BalanceSnapshot, error) {
	return nil, nil
}

func (m *MockReconciliationRepo) FinishRun(id string, walletsChecked, discrepancyCount int, balanced bool, details string) error {
	return nil
}

func (m *MockReconciliationRepo) GetRun(id string) (*models.ReconciliationRun, bool, error) {
	return nil, false, nil
}

func (m *MockReconciliationRepo) ListRuns(limit, offset int) ([]models.ReconciliationRun, error) {
	return nil, nil
}

func (m *MockReconciliationRepo) InsertDiscrepancy(d *models.ReconciliationDiscrepancy) (string, error) {
	return "", nil
}

func (m *MockReconciliationRepo) ListDiscrepancies(runID string) ([]models.ReconciliationDiscrepancy, error) {
	return nil, nil
}
