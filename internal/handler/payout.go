package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tesfam/kiraypay/internal/context"
	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/money"
	"github.com/tesfam/kiraypay/internal/payout"
	"github.com/tesfam/kiraypay/internal/repository"
	"github.com/tesfam/kiraypay/internal/request"
	"github.com/tesfam/kiraypay/internal/response"
	"github.com/tesfam/kiraypay/internal/validator"
)

type payoutResponse struct {
	ID                string          `json:"id"`
	WalletID          string          `json:"wallet_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Rail              string          `json:"rail"`
	Status            string          `json:"status"`
	ExternalReference string          `json:"external_reference,omitempty"`
	FailureReason     string          `json:"failure_reason,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

func newPayoutResponse(p *models.Payout) *payoutResponse {
	resp := &payoutResponse{
		ID:                p.ID,
		WalletID:          p.WalletID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Rail:              p.Rail,
		Status:            p.Status,
		ExternalReference: p.ExternalReference.String,
		FailureReason:     p.FailureReason.String,
		CreatedAt:         p.CreatedAt,
	}
	if p.CompletedAt.Valid {
		resp.CompletedAt = &p.CompletedAt.Time
	}
	return resp
}

// Requesting a payout earmarks the amount immediately: the wallet's
// available balance drops and the pending balance rises in the same
// transaction that creates the payout record. The caller names an amount
// and a currency; the wallet is theirs by construction, so it is resolved
// here rather than taken from the request. Validation problems are the
// client's to fix, so everything the processor classifies as a business
// rule violation comes back as a 400.
func (h *RouteHandler) HandleRequestPayout(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		Amount    string              `json:"amount"`
		Currency  string              `json:"currency"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Amount), "Amount is required")
	input.Validator.Check(validator.NotBlank(input.Currency), "Currency is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	amount, err := money.ParseAmount(input.Amount)
	if err != nil {
		h.ErrHandler.FailedValidation(w, r, []string{"Amount must be a positive decimal number"})
		return
	}

	code, err := money.ParseCurrency(input.Currency)
	if err != nil {
		h.ErrHandler.FailedValidation(w, r, []string{"Currency must be a valid ISO 4217 code"})
		return
	}

	wallet, found, err := h.DB.Wallet().GetByOwner(user.ID, code)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.FailedValidation(w, r, []string{"No wallet in this currency"})
		return
	}

	created, err := h.Payouts.CreateOwnerPayout(r.Context(), user, wallet.ID, amount, code)
	if err != nil {
		switch {
		case errors.Is(err, payout.ErrWalletNotFound), errors.Is(err, payout.ErrNotWalletOwner):
			h.ErrHandler.NotFound(w, r)
		case errors.Is(err, payout.ErrInsufficientBalance),
			errors.Is(err, payout.ErrNoPayoutRail),
			errors.Is(err, payout.ErrWalletFrozen),
			errors.Is(err, payout.ErrCurrencyMismatch),
			errors.Is(err, money.ErrInvalidCurrency),
			errors.Is(err, money.ErrNonPositiveAmount):
			h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	err = response.JSONCreatedResponse(w, newPayoutResponse(created), "Payout requested successfully")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleMyPayouts(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	queryValues := retrieveUrlQueryValues(r)

	payouts, err := h.DB.Payout().ListByRecipient(user.ID, &repository.PayoutFilter{
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
