package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tesfam/kiraypay/internal/context"
	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/money"
	"github.com/tesfam/kiraypay/internal/repository"
	"github.com/tesfam/kiraypay/internal/response"
)

type settlementResponse struct {
	ID             string          `json:"id"`
	BookingID      string          `json:"booking_id"`
	PropertyID     string          `json:"property_id"`
	GrossAmount    decimal.Decimal `json:"gross_amount"`
	Currency       string          `json:"currency"`
	OwnerShare     decimal.Decimal `json:"owner_share"`
	DellalaShare   decimal.Decimal `json:"dellala_share"`
	CorporateShare decimal.Decimal `json:"corporate_share"`
	VatAmount      decimal.Decimal `json:"vat_amount"`
	WithholdingTax decimal.Decimal `json:"withholding_tax"`
	FxRateValue    string          `json:"fx_rate_value,omitempty"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

func newSettlementResponse(st *models.SettlementTransaction) *settlementResponse {
	resp := &settlementResponse{
		ID:             st.ID,
		BookingID:      st.BookingID,
		PropertyID:     st.PropertyID,
		GrossAmount:    st.GrossAmount,
		Currency:       st.Currency,
		OwnerShare:     st.OwnerShare,
		DellalaShare:   st.DellalaShare,
		CorporateShare: st.CorporateShare,
		VatAmount:      st.VatAmount,
		WithholdingTax: st.WithholdingTax,
		Status:         st.Status,
		CreatedAt:      st.CreatedAt,
	}
	if st.FxRateValue.Valid {
		resp.FxRateValue = st.FxRateValue.Decimal.String()
	}
	return resp
}

// HandleMyTransactions lists settlements that touched one of the caller's
// wallets, newest first.
func (h *RouteHandler) HandleMyTransactions(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	queryValues := retrieveUrlQueryValues(r)

	settlements, err := h.DB.Settlement().ListByOwner(user.ID, &repository.SettlementFilter{
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

type ledgerEntryResponse struct {
	ID                   string          `json:"id"`
	WalletID             string          `json:"wallet_id"`
	Direction            string          `json:"direction"`
	Amount               decimal.Decimal `json:"amount"`
	SignedAmount         decimal.Decimal `json:"signed_amount"`
	Currency             string          `json:"currency"`
	RelatedTransactionID string          `json:"related_transaction_id"`
	Description          string          `json:"description"`
	CreatedAt            time.Time       `json:"created_at"`
}

// HandleMyLedger streams the caller's ledger entries in insertion order so
// a client can rebuild each balance. All the caller's wallets are covered;
// ?currency=CCY narrows to the wallet held in that currency.
func (h *RouteHandler) HandleMyLedger(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	queryValues := retrieveUrlQueryValues(r)

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
		narrowed := wallets[:0]
		for i := range wallets {
			if wallets[i].Currency == code {
				narrowed = append(narrowed, wallets[i])
			}
		}
		wallets = narrowed
	}

	data := make([]*ledgerEntryResponse, 0)
	for i := range wallets {
		entries, err := h.DB.Ledger().ListByWallet(wallets[i].ID, &repository.LedgerFilter{
			StartDate: queryValues.StartDate,
			EndDate:   queryValues.EndDate,
			Limit:     queryValues.Limit,
			Offset:    queryValues.Offset,
		})
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		for j := range entries {
			e := &entries[j]
			data = append(data, &ledgerEntryResponse{
				ID:                   e.ID,
				WalletID:             e.WalletID,
				Direction:            e.Direction,
				Amount:               e.Amount,
				SignedAmount:         e.Signed(),
				Currency:             e.Currency,
				RelatedTransactionID: e.RelatedTransactionID,
				Description:          e.Description,
				CreatedAt:            e.CreatedAt,
			})
		}
	}

	err = response.JSONOkResponse(w, data, "Ledger entries retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
