package app

import (
	"net/http"

	"github.com/tesfam/kiraypay/internal/handler"
	"github.com/tesfam/kiraypay/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	middlewareRepo := middleware.New(app.errorHandler, app.Logger, app.DB.User(), &app.Config)

	routeHandler := handler.NewRouteHandler(&handler.RouteHandler{
		DB:             app.DB,
		ErrHandler:     app.errorHandler,
		Helper:         app.helper,
		Mailer:         app.Mailer,
		Config:         &app.Config,
		Fx:             app.Fx,
		Settlement:     app.Settlement,
		Payouts:        app.Payouts,
		Reconciliation: app.Reconciliation,
		Audit:          app.Audit,
		Calculator:     app.Calculator,
		Kafka:          app.Kafka,
	})

	mux.HandleFunc("GET /status", routeHandler.HandleHealthCheck)

	mux.HandleFunc("POST /auth/register", routeHandler.HandleAuthRegister)
	mux.HandleFunc("POST /auth/login", routeHandler.HandleAuthLogin)

	// unauthenticated calculators; they read configuration and rates but
	// never touch wallets
	mux.HandleFunc("GET /calculate-split", routeHandler.HandleCalculateSplit)
	mux.HandleFunc("GET /fx-convert", routeHandler.HandleFxConvert)

	// owner-scoped surface
	authenticated := func(fn http.HandlerFunc) http.Handler {
		return middlewareRepo.RequireAuthenticatedUser(fn)
	}

	mux.Handle("GET /my-wallet", authenticated(routeHandler.HandleMyWallet))
	mux.Handle("PATCH /my-wallet/payout-details", authenticated(routeHandler.HandleUpdatePayoutDetails))
	mux.Handle("GET /my-ledger", authenticated(routeHandler.HandleMyLedger))
	mux.Handle("GET /my-transactions", authenticated(routeHandler.HandleMyTransactions))
	mux.Handle("POST /request-payout", authenticated(routeHandler.HandleRequestPayout))
	mux.Handle("GET /my-payouts", authenticated(routeHandler.HandleMyPayouts))

	// back-office surface
	admin := func(fn http.HandlerFunc) http.Handler {
		return middlewareRepo.RequireAdminUser(fn)
	}

	mux.Handle("GET /admin/wallets", admin(routeHandler.HandleAdminListWallets))
	mux.Handle("POST /admin/wallets/{id}/freeze", admin(routeHandler.HandleAdminFreezeWallet))
	mux.Handle("POST /admin/wallets/{id}/unfreeze", admin(routeHandler.HandleAdminUnfreezeWallet))

	mux.Handle("GET /admin/transactions", admin(routeHandler.HandleAdminListSettlements))
	mux.Handle("POST /admin/transactions", admin(routeHandler.HandleAdminSettleBooking))
	mux.Handle("POST /admin/transactions/{id}/reverse", admin(routeHandler.HandleAdminReverseSettlement))

	mux.Handle("GET /admin/payouts", admin(routeHandler.HandleAdminListPayouts))
	mux.Handle("POST /admin/payouts/{id}/approve", admin(routeHandler.HandleAdminApprovePayout))
	mux.Handle("POST /admin/payouts/{id}/complete", admin(routeHandler.HandleAdminCompletePayout))
	mux.Handle("POST /admin/payouts/{id}/fail", admin(routeHandler.HandleAdminFailPayout))

	mux.Handle("GET /admin/fx-rates", admin(routeHandler.HandleAdminListFxRates))
	mux.Handle("POST /admin/fx-rates", admin(routeHandler.HandleAdminSetFxRate))

	mux.Handle("GET /admin/reconciliation", admin(routeHandler.HandleAdminListReconciliationRuns))
	mux.Handle("POST /admin/reconciliation/run", admin(routeHandler.HandleAdminRunReconciliation))
	mux.Handle("GET /admin/reconciliation/discrepancies", admin(routeHandler.HandleAdminListDiscrepancies))
	mux.Handle("GET /admin/integrity-check", admin(routeHandler.HandleAdminVerifyIntegrity))

	mux.Handle("GET /admin/corporate-summary", admin(routeHandler.HandleAdminCorporateSummary))

	mux.Handle("GET /admin/audit-logs", admin(routeHandler.HandleAdminListAuditLogs))

	return middlewareRepo.LogAccess(middlewareRepo.RecoverPanic(middlewareRepo.Authenticate(mux)))
}
