package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tesfam/kiraypay/internal/context"
	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/money"
	"github.com/tesfam/kiraypay/internal/repository"
	"github.com/tesfam/kiraypay/internal/request"
	"github.com/tesfam/kiraypay/internal/response"
	"github.com/tesfam/kiraypay/internal/validator"
)

// walletResponse is the owner-facing view of a wallet. The three balance
// buckets are reported separately so clients can show "on its way out"
// money distinctly from spendable money.
type walletResponse struct {
	ID               string          `json:"id"`
	Currency         string          `json:"currency"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	FrozenBalance    decimal.Decimal `json:"frozen_balance"`
	PendingBalance   decimal.Decimal `json:"pending_balance"`
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	Status           string          `json:"status"`
	HasPayoutRail    bool            `json:"has_payout_rail"`
	CreatedAt        time.Time       `json:"created_at"`
}

func newWalletResponse(wallet *models.Wallet) *walletResponse {
	return &walletResponse{
		ID:               wallet.ID,
		Currency:         wallet.Currency,
		AvailableBalance: wallet.AvailableBalance,
		FrozenBalance:    wallet.FrozenBalance,
		PendingBalance:   wallet.PendingBalance,
		TotalEarnings:    wallet.TotalEarnings,
		TotalWithdrawals: wallet.TotalWithdrawals,
		Status:           wallet.Status,
		HasPayoutRail:    wallet.HasPayoutRail(),
		CreatedAt:        wallet.CreatedAt,
	}
}

// HandleMyWallet lists the caller's wallets. With ?currency=CCY it
// narrows to that single wallet; since wallets are created lazily on the
// first settlement, a missing currency is reported as exists=false rather
// than a 404.
func (h *RouteHandler) HandleMyWallet(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	wallets, err := h.DB.Wallet().GetAllByOwner(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if currency := r.URL.Query().Get("currency"); currency != "" {
		code, err := money.ParseCurrency(currency)
		if err != nil {
			h.ErrHandler.FailedValidation(w, r, []string{"Currency must be a valid ISO 4217 code"})
			return
		}

		for i := range wallets {
			if wallets[i].Currency == code {
				err = response.JSONOkResponse(w, newWalletResponse(&wallets[i]), "Wallet retrieved successfully", nil)
				if err != nil {
					h.ErrHandler.ServerError(w, r, err)
				}
				return
			}
		}

		err = response.JSONOkResponse(w, map[string]bool{"exists": false}, "No wallet in this currency yet", nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	data := make([]*walletResponse, 0, len(wallets))
	for i := range wallets {
		data = append(data, newWalletResponse(&wallets[i]))
	}

	err = response.JSONOkResponse(w, data, "Wallets retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// Payout details are captured per wallet, not per user: an owner can route
// each currency to a different destination. The wallet is addressed by
// currency (ETB when omitted) and created lazily if the owner does not hold
// one yet, so details can be filed before the first settlement lands.
// Either a complete bank destination or a complete mobile money destination
// must be supplied.
func (h *RouteHandler) HandleUpdatePayoutDetails(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		Currency            string              `json:"currency"`
		BankName            string              `json:"bank_name"`
		BankAccountName     string              `json:"bank_account_name"`
		BankAccountNumber   string              `json:"bank_account_number"`
		MobileMoneyProvider string              `json:"mobile_money_provider"`
		MobileMoneyNumber   string              `json:"mobile_money_number"`
		Validator           validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	if input.Currency == "" {
		input.Currency = "ETB"
	}
	code, err := money.ParseCurrency(input.Currency)
	if err != nil {
		h.ErrHandler.FailedValidation(w, r, []string{"Currency must be a valid ISO 4217 code"})
		return
	}

	wallet, err := h.DB.Wallet().GetOrCreate(user.ID, models.WalletOwnerTypeUser, code, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	bankProvided := input.BankName != "" || input.BankAccountNumber != ""
	mobileProvided := input.MobileMoneyProvider != "" || input.MobileMoneyNumber != ""

	input.Validator.Check(bankProvided || mobileProvided, "Provide a bank or mobile money destination")

	if bankProvided {
		input.Validator.Check(validator.NotBlank(input.BankName), "Bank name is required")
		input.Validator.Check(validator.NotBlank(input.BankAccountName), "Bank account name is required")
		input.Validator.Check(validator.NotBlank(input.BankAccountNumber), "Bank account number is required")
	}
	if mobileProvided {
		input.Validator.Check(validator.NotBlank(input.MobileMoneyProvider), "Mobile money provider is required")
		input.Validator.Check(validator.NotBlank(input.MobileMoneyNumber), "Mobile money number is required")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	before := map[string]string{
		"bank_name":             wallet.BankName.String,
		"bank_account_number":   wallet.BankAccountNumber.String,
		"mobile_money_provider": wallet.MobileMoneyProvider.String,
		"mobile_money_number":   wallet.MobileMoneyNumber.String,
	}

	err = h.DB.Wallet().UpdatePayoutDetails(wallet.ID, &repository.PayoutDetails{
		BankName:            input.BankName,
		BankAccountName:     input.BankAccountName,
		BankAccountNumber:   input.BankAccountNumber,
		MobileMoneyProvider: input.MobileMoneyProvider,
		MobileMoneyNumber:   input.MobileMoneyNumber,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Audit.Record(user.ID, models.AuditActionPayoutDetailsUpdated, models.AuditTargetWallet, wallet.ID, before, map[string]string{
		"bank_name":             input.BankName,
		"bank_account_number":   input.BankAccountNumber,
		"mobile_money_provider": input.MobileMoneyProvider,
		"mobile_money_number":   input.MobileMoneyNumber,
	})

	err = response.JSONOkResponse(w, nil, "Payout details updated successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
