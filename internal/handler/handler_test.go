package handler

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tesfam/kiraypay/internal/errHandler"
	"github.com/tesfam/kiraypay/internal/fx"
	"github.com/tesfam/kiraypay/internal/helper"
	"github.com/tesfam/kiraypay/internal/mocks"
	"github.com/tesfam/kiraypay/internal/repository"
	"github.com/tesfam/kiraypay/internal/split"
)

// newTestHandler wires a RouteHandler against the mock database with the
// dependencies the handler under test actually reaches. Error notification
// mail is disabled so server errors do not require a mailer expectation.
func newTestHandler(t *testing.T, db repository.Database) *RouteHandler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errs := errHandler.New("", mocks.MockConfig.BaseURL, nil, logger)

	calc, err := split.NewCalculator(split.Config{
		VatPercent:         "15",
		WithholdingPercent: "2",
		DellalaPercent:     "5",
		PlatformFeePercent: "10",
	})
	require.NoError(t, err)

	var wg sync.WaitGroup

	return NewRouteHandler(&RouteHandler{
		DB:         db,
		ErrHandler: errs,
		Helper:     helper.New(&mocks.MockConfig.BaseURL, &wg, errs),
		Config:     mocks.MockConfig,
		Fx:         fx.New(db, nil, nil, logger, time.Minute),
		Calculator: calc,
	})
}
