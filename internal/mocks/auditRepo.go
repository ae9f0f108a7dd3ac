package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/repository"
)

type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Insert(entry *models.FinancialAuditLog) (*models.FinancialAuditLog, error) {
	args := m.Called(entry)
	return args.Get(0).(*models.FinancialAuditLog), args.Error(1)
}

func (m *MockAuditRepo) List(filter *repository.AuditFilter) ([]models.FinancialAuditLog, error) {
	return nil, nil
}
