package reconciliation

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tesfam/kiraypay/internal/mocks"
)

// the integrity pass reads the ledger totals, the settlement summary and
// the system wallets from one repeatable-read read-only snapshot; separate
// autocommit reads would let a settlement landing mid-check fake a
// violation
func TestVerifyIntegrity_ReadsUnderSnapshotTransaction(t *testing.T) {
	reconRepo := new(mocks.MockReconciliationRepo)
	reconRepo.On("InsertRun", mock.Anything).Return("run-1", nil)

	var captured *sql.TxOptions
	dbErr := errors.New("database unavailable")
	db := &mocks.MockDatabase{
		ReconciliationRepo: reconRepo,
		BeginTxFunc: func(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
			captured = opts
			return nil, dbErr
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	checker := New(db, nil, nil, "", logger)

	_, _, err := checker.VerifyIntegrity(context.Background())
	require.ErrorIs(t, err, dbErr)

	require.NotNil(t, captured)
	require.Equal(t, sql.LevelRepeatableRead, captured.Isolation)
	require.True(t, captured.ReadOnly)
	reconRepo.AssertExpectations(t)
}
