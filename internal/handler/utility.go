package handler

import (
	"errors"
	"net/http"

	"github.com/tesfam/kiraypay/internal/fx"
	"github.com/tesfam/kiraypay/internal/money"
	"github.com/tesfam/kiraypay/internal/response"
	"github.com/tesfam/kiraypay/internal/split"
)

// HandleCalculateSplit previews the allocation for a hypothetical gross
// amount without writing anything. It runs the same calculator the
// settlement engine uses, so the preview always matches what a real
// settlement would record.
func (h *RouteHandler) HandleCalculateSplit(w http.ResponseWriter, r *http.Request) {
	amountStr := r.URL.Query().Get("amount")
	currency := r.URL.Query().Get("currency")
	hasDellala := r.URL.Query().Get("hasDellala") == "true"

	if currency == "" {
		currency = "ETB"
	}

	amount, err := money.ParseAmount(amountStr)
	if err != nil {
		h.ErrHandler.FailedValidation(w, r, []string{"Amount must be a positive decimal number"})
		return
	}

	breakdown, err := h.Calculator.Calculate(amount, hasDellala, currency)
	if err != nil {
		switch {
		case errors.Is(err, money.ErrInvalidCurrency),
			errors.Is(err, split.ErrNonPositiveGross),
			errors.Is(err, split.ErrPercentagesTooHigh):
			h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	err = response.JSONOkResponse(w, breakdown, "Split calculated successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleFxConvert converts an amount between currencies using the active
// rate, reporting which rate row was used.
func (h *RouteHandler) HandleFxConvert(w http.ResponseWriter, r *http.Request) {
	amountStr := r.URL.Query().Get("amount")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	amount, err := money.ParseAmount(amountStr)
	if err != nil {
		h.ErrHandler.FailedValidation(w, r, []string{"Amount must be a positive decimal number"})
		return
	}

	conversion, err := h.Fx.Convert(amount, from, to)
	if err != nil {
		switch {
		case errors.Is(err, money.ErrInvalidCurrency),
			errors.Is(err, money.ErrNonPositiveAmount),
			errors.Is(err, fx.ErrSameCurrency):
			h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
		case errors.Is(err, fx.ErrRateNotFound):
			h.ErrHandler.NotFound(w, r)
		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	err = response.JSONOkResponse(w, conversion, "Conversion calculated successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
