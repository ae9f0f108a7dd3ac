package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tesfam/kiraypay/internal/context"
	"github.com/tesfam/kiraypay/internal/fx"
	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/money"
	"github.com/tesfam/kiraypay/internal/payout"
	"github.com/tesfam/kiraypay/internal/repository"
	"github.com/tesfam/kiraypay/internal/request"
	"github.com/tesfam/kiraypay/internal/response"
	"github.com/tesfam/kiraypay/internal/settlement"
	"github.com/tesfam/kiraypay/internal/validator"
)

// The /admin surface is gated by the RequireAdminUser middleware, so every
// handler in this file can assume an admin or operator actor.

func (h *RouteHandler) HandleAdminListWallets(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	wallets, err := h.DB.Wallet().List(queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, wallets, "Wallets retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// Freezing a wallet blocks new payout requests while leaving settlements
// flowing in. The reason is mandatory; it lands in the audit trail.
func (h *RouteHandler) HandleAdminFreezeWallet(w http.ResponseWriter, r *http.Request) {
	h.setWalletStatus(w, r, models.WalletFrozenStatus, models.AuditActionWalletFrozen)
}

func (h *RouteHandler) HandleAdminUnfreezeWallet(w http.ResponseWriter, r *http.Request) {
	h.setWalletStatus(w, r, models.WalletActiveStatus, models.AuditActionWalletUnfrozen)
}

func (h *RouteHandler) setWalletStatus(w http.ResponseWriter, r *http.Request, status, auditAction string) {
	user := context.ContextGetAuthenticatedUser(r)
	walletID := r.PathValue("id")

	var input struct {
		Reason    string              `json:"reason"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Reason), "Reason is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	wallet, found, err := h.DB.Wallet().GetOne(walletID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if err := h.DB.Wallet().SetStatus(walletID, status); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Audit.Record(user.ID, auditAction, models.AuditTargetWallet, walletID,
		map[string]string{"status": wallet.Status},
		map[string]string{"status": status, "reason": input.Reason},
	)

	err = response.JSONOkResponse(w, nil, "Wallet status updated successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleAdminListSettlements(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	settlements, err := h.DB.Settlement().List(&repository.SettlementFilter{
		StartDate: queryValues.StartDate,
		EndDate:   queryValues.EndDate,
		Limit:     queryValues.Limit,
		Offset:    queryValues.Offset,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*settlementResponse, 0, len(settlements))
	for i := range settlements {
		data = append(data, newSettlementResponse(&settlements[i]))
	}

	err = response.JSONOkResponse(w, data, "Settlements retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleAdminSettleBooking settles a booking payment synchronously, for
// back-office corrections and test environments without the event stream.
// The engine is idempotent on booking_id, so replaying is safe.
func (h *RouteHandler) HandleAdminSettleBooking(w http.ResponseWriter, r *http.Request) {
	var event settlement.BookingPaidEvent

	err := request.DecodeJSON(w, r, &event)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	st, err := h.Settlement.ProcessBookingPaid(r.Context(), &event)
	if err != nil {
		switch {
		case errors.Is(err, settlement.ErrInvalidEvent),
			errors.Is(err, money.ErrInvalidCurrency),
			errors.Is(err, money.ErrNonPositiveAmount):
			h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
		case errors.Is(err, fx.ErrRateNotFound):
			h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	err = response.JSONCreatedResponse(w, newSettlementResponse(st), "Booking settled successfully")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// Reversal writes new balancing entries; it never edits or deletes the
// original set.
func (h *RouteHandler) HandleAdminReverseSettlement(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	settlementID := r.PathValue("id")

	var input struct {
		Reason    string              `json:"reason"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Reason), "Reason is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	err = h.Settlement.Reverse(r.Context(), user.ID, settlementID, input.Reason)
	if err != nil {
		switch {
		case errors.Is(err, settlement.ErrSettlementNotFound):
			h.ErrHandler.NotFound(w, r)
		case errors.Is(err, settlement.ErrAlreadyReversed):
			h.ErrHandler.Conflict(w, r, err)
		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	err = response.JSONOkResponse(w, nil, "Settlement reversed successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleAdminListPayouts(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	payouts, err := h.DB.Payout().List(&repository.PayoutFilter{
		Status:    r.URL.Query().Get("status"),
		StartDate: queryValues.StartDate,
		EndDate:   queryValues.EndDate,
		Limit:     queryValues.Limit,
		Offset:    queryValues.Offset,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*payoutResponse, 0, len(payouts))
	for i := range payouts {
		data = append(data, newPayoutResponse(&payouts[i]))
	}

	err = response.JSONOkResponse(w, data, "Payouts retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// payoutDispatchTopic carries dispatch instructions to the rail integration,
// which reports back on the payout.result topic.
const payoutDispatchTopic = "payout.dispatch"

type payoutDispatchEvent struct {
	DispatchID string          `json:"dispatch_id"`
	PayoutID   string          `json:"payout_id"`
	WalletID   string          `json:"wallet_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Rail       string          `json:"rail"`
}

func (h *RouteHandler) HandleAdminApprovePayout(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	payoutID := r.PathValue("id")

	approved, err := h.Payouts.MarkProcessing(r.Context(), user, payoutID)
	if err != nil {
		switch {
		case errors.Is(err, payout.ErrPayoutNotFound):
			h.ErrHandler.NotFound(w, r)
		case errors.Is(err, payout.ErrInvalidTransition):
			h.ErrHandler.Conflict(w, r, err)
		case errors.Is(err, payout.ErrActorNotPermitted):
			h.ErrHandler.Forbidden(w, r)
		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	// hand the approved payout to the rail integration; its result comes
	// back through the payout.result consumer
	h.Helper.BackgroundTask(r, func() error {
		message, err := json.Marshal(payoutDispatchEvent{
			DispatchID: uuid.NewString(),
			PayoutID:   approved.ID,
			WalletID:   approved.WalletID,
			Amount:     approved.Amount,
			Currency:   approved.Currency,
			Rail:       approved.Rail,
		})
		if err != nil {
			return err
		}

		return h.Kafka.ProduceMessage(payoutDispatchTopic, string(message))
	})

	err = response.JSONOkResponse(w, newPayoutResponse(approved), "Payout approved for processing", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleAdminCompletePayout(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	payoutID := r.PathValue("id")

	var input struct {
		ExternalReference string              `json:"external_reference"`
		Validator         validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.ExternalReference), "External reference is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	completed, err := h.Payouts.MarkCompleted(r.Context(), user, payoutID, input.ExternalReference)
	if err != nil {
		switch {
		case errors.Is(err, payout.ErrPayoutNotFound):
			h.ErrHandler.NotFound(w, r)
		case errors.Is(err, payout.ErrInvalidTransition):
			h.ErrHandler.Conflict(w, r, err)
		case errors.Is(err, payout.ErrMissingExternalReference):
			h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	err = response.JSONOkResponse(w, newPayoutResponse(completed), "Payout completed successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleAdminFailPayout(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	payoutID := r.PathValue("id")

	var input struct {
		Reason    string              `json:"reason"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Reason), "Reason is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	failed, err := h.Payouts.MarkFailed(r.Context(), user, payoutID, input.Reason)
	if err != nil {
		switch {
		case errors.Is(err, payout.ErrPayoutNotFound):
			h.ErrHandler.NotFound(w, r)
		case errors.Is(err, payout.ErrInvalidTransition):
			h.ErrHandler.Conflict(w, r, err)
		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	err = response.JSONOkResponse(w, newPayoutResponse(failed), "Payout marked as failed", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleAdminListFxRates(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	rates, err := h.DB.FxRate().List(queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, rates, "Exchange rates retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleAdminSetFxRate(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		FromCurrency string              `json:"from_currency"`
		ToCurrency   string              `json:"to_currency"`
		Rate         string              `json:"rate"`
		Source       string              `json:"source"`
		Validator    validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.FromCurrency), "From currency is required")
	input.Validator.Check(validator.NotBlank(input.ToCurrency), "To currency is required")
	input.Validator.Check(validator.NotBlank(input.Rate), "Rate is required")

	if input.Source == "" {
		input.Source = "manual"
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	rate, err := money.ParseAmount(input.Rate)
	if err != nil {
		h.ErrHandler.FailedValidation(w, r, []string{"Rate must be a positive decimal number"})
		return
	}

	created, err := h.Fx.SetRate(r.Context(), user.ID, input.FromCurrency, input.ToCurrency, rate, input.Source)
	if err != nil {
		switch {
		case errors.Is(err, money.ErrInvalidCurrency),
			errors.Is(err, fx.ErrSameCurrency),
			errors.Is(err, fx.ErrNonPositiveRate):
			h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	err = response.JSONCreatedResponse(w, created, "Exchange rate set successfully")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleAdminRunReconciliation kicks off an on-demand balance check and
// returns the persisted run with its discrepancies.
func (h *RouteHandler) HandleAdminRunReconciliation(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PeriodType string `json:"period_type"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	if input.PeriodType == "" {
		input.PeriodType = models.ReconciliationPeriodDaily
	}

	if input.PeriodType != models.ReconciliationPeriodDaily && input.PeriodType != models.ReconciliationPeriodWeekly {
		h.ErrHandler.FailedValidation(w, r, []string{"Period type must be daily or weekly"})
		return
	}

	run, discrepancies, err := h.Reconciliation.Run(r.Context(), input.PeriodType)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]any{
		"run":           run,
		"discrepancies": discrepancies,
	}

	err = response.JSONOkResponse(w, data, "Reconciliation run completed", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleAdminVerifyIntegrity runs the system-level cross checks: per-currency
// credits equal debits, and system wallet totals agree with the settlement
// table.
func (h *RouteHandler) HandleAdminVerifyIntegrity(w http.ResponseWriter, r *http.Request) {
	run, violations, err := h.Reconciliation.VerifyIntegrity(r.Context())
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]any{
		"run":        run,
		"violations": violations,
		"balanced":   len(violations) == 0,
	}

	err = response.JSONOkResponse(w, data, "Integrity verification completed", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleAdminListReconciliationRuns(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	runs, err := h.DB.Reconciliation().ListRuns(queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, runs, "Reconciliation runs retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleAdminListDiscrepancies(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")

	discrepancies, err := h.DB.Reconciliation().ListDiscrepancies(runID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, discrepancies, "Discrepancies retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleAdminCorporateSummary reports the per-currency totals recorded by
// completed settlements: gross, owner, dellala, corporate, VAT and
// withholding. Finance uses it as the remittance figure for each period.
func (h *RouteHandler) HandleAdminCorporateSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.DB.Settlement().Summary(nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, summary, "Corporate summary retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

type auditLogResponse struct {
	ID          string          `json:"id"`
	ActorID     string          `json:"actor_id"`
	Action      string          `json:"action"`
	TargetType  string          `json:"target_type"`
	TargetID    string          `json:"target_id"`
	BeforeState json.RawMessage `json:"before_state,omitempty"`
	AfterState  json.RawMessage `json:"after_state,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

func (h *RouteHandler) HandleAdminListAuditLogs(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	logs, err := h.DB.Audit().List(&repository.AuditFilter{
		TargetType: r.URL.Query().Get("target_type"),
		TargetID:   r.URL.Query().Get("target_id"),
		Limit:      queryValues.Limit,
		Offset:     queryValues.Offset,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*auditLogResponse, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		data = append(data, &auditLogResponse{
			ID:          l.ID,
			ActorID:     l.ActorID,
			Action:      l.Action,
			TargetType:  l.TargetType,
			TargetID:    l.TargetID,
			BeforeState: l.BeforeState,
			AfterState:  l.AfterState,
			CreatedAt:   l.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	err = response.JSONOkResponse(w, data, "Audit logs retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
