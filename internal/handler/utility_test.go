package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tesfam/kiraypay/internal/fx"
	"github.com/tesfam/kiraypay/internal/mocks"
	"github.com/tesfam/kiraypay/internal/split"
)

func TestHandleCalculateSplit(t *testing.T) {
	h := newTestHandler(t, &mocks.MockDatabase{})

	req := httptest.NewRequest(http.MethodGet, "/calculate-split?amount=1000&currency=ETB&hasDellala=true", nil)
	w := httptest.NewRecorder()

	h.HandleCalculateSplit(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data split.Breakdown `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))

	require.True(t, envelope.Data.VatAmount.Equal(decimal.NewFromInt(150)))
	require.True(t, envelope.Data.WithholdingTax.Equal(decimal.NewFromInt(20)))
	require.True(t, envelope.Data.DellalaShare.Equal(decimal.NewFromInt(50)))
	require.True(t, envelope.Data.OwnerShare.Equal(decimal.NewFromInt(702)))
	require.True(t, envelope.Data.CorporateShare.Equal(decimal.NewFromInt(78)))
	require.Equal(t, "ETB", envelope.Data.Currency)
}

func TestHandleCalculateSplit_DefaultsToETB(t *testing.T) {
	h := newTestHandler(t, &mocks.MockDatabase{})

	req := httptest.NewRequest(http.MethodGet, "/calculate-split?amount=100", nil)
	w := httptest.NewRecorder()

	h.HandleCalculateSplit(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data split.Breakdown `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "ETB", envelope.Data.Currency)
	require.True(t, envelope.Data.DellalaShare.IsZero())
}

func TestHandleCalculateSplit_RejectsBadAmount(t *testing.T) {
	h := newTestHandler(t, &mocks.MockDatabase{})

	for _, amount := range []string{"", "abc", "0", "-10"} {
		req := httptest.NewRequest(http.MethodGet, "/calculate-split?amount="+amount, nil)
		w := httptest.NewRecorder()

		h.HandleCalculateSplit(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code, "amount %q", amount)
	}
}

func TestHandleFxConvert_SameCurrencyIsIdentity(t *testing.T) {
	h := newTestHandler(t, &mocks.MockDatabase{})

	req := httptest.NewRequest(http.MethodGet, "/fx-convert?amount=250.509&from=ETB&to=etb", nil)
	w := httptest.NewRecorder()

	h.HandleFxConvert(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data fx.Conversion `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Data.ConvertedAmount.Equal(decimal.NewFromFloat(250.51)))
	require.True(t, envelope.Data.RateUsed.Equal(decimal.NewFromInt(1)))
	require.Empty(t, envelope.Data.RateID)
}

func TestHandleFxConvert_RejectsBadInput(t *testing.T) {
	h := newTestHandler(t, &mocks.MockDatabase{})

	cases := map[string]string{
		"missing amount":   "/fx-convert?from=ETB&to=USD",
		"negative amount":  "/fx-convert?amount=-5&from=ETB&to=USD",
		"unknown currency": "/fx-convert?amount=10&from=NOPE&to=USD",
	}

	for name, target := range cases {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()

		h.HandleFxConvert(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}
