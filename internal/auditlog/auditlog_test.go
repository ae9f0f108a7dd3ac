package auditlog

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tesfam/kiraypay/internal/mocks"
	"github.com/tesfam/kiraypay/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecord_MarshalsStatesAndInserts(t *testing.T) {
	repo := new(mocks.MockAuditRepo)
	repo.On("Insert", mock.MatchedBy(func(entry *models.FinancialAuditLog) bool {
		return entry.ActorID == "admin-1" &&
			entry.Action == models.AuditActionWalletFrozen &&
			entry.TargetType == models.AuditTargetWallet &&
			entry.TargetID == "wallet-1" &&
			string(entry.BeforeState) == `{"status":"active"}` &&
			string(entry.AfterState) == `{"status":"frozen"}`
	})).Return(&models.FinancialAuditLog{ID: "log-1"}, nil)

	rec := New(repo, discardLogger())

	rec.Record("admin-1", models.AuditActionWalletFrozen, models.AuditTargetWallet, "wallet-1",
		map[string]string{"status": "active"},
		map[string]string{"status": "frozen"},
	)

	repo.AssertExpectations(t)
}

func TestRecord_NilStatesStayEmpty(t *testing.T) {
	repo := new(mocks.MockAuditRepo)
	repo.On("Insert", mock.MatchedBy(func(entry *models.FinancialAuditLog) bool {
		return entry.BeforeState == nil && entry.AfterState == nil
	})).Return(&models.FinancialAuditLog{ID: "log-2"}, nil)

	rec := New(repo, discardLogger())

	rec.Record(models.SystemActorID, models.AuditActionIntegrityViolation, models.AuditTargetReconciliation, "run-1", nil, nil)

	repo.AssertExpectations(t)
}

// a failed insert must not panic or propagate; the money movement being
// described has already committed
func TestRecord_InsertFailureIsSwallowed(t *testing.T) {
	repo := new(mocks.MockAuditRepo)
	repo.On("Insert", mock.Anything).Return((*models.FinancialAuditLog)(nil), errors.New("connection reset"))

	rec := New(repo, discardLogger())

	require.NotPanics(t, func() {
		rec.Record("admin-1", models.AuditActionPayoutFailed, models.AuditTargetPayout, "payout-1", nil,
			map[string]string{"reason": "rail timeout"})
	})

	repo.AssertExpectations(t)
}
