package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tesfam/kiraypay/internal/context"
	"github.com/tesfam/kiraypay/internal/mocks"
	"github.com/tesfam/kiraypay/internal/models"
)

func authenticatedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return context.ContextSetAuthenticatedUser(req, &models.User{
		ID:     "user-1",
		Email:  "owner@example.com",
		Role:   models.UserRoleOwner,
		Status: models.UserAccountActiveStatus,
	})
}

func TestHandleRequestPayout_RejectsMissingFields(t *testing.T) {
	h := newTestHandler(t, &mocks.MockDatabase{})

	cases := map[string]string{
		"missing amount":   `{"currency": "ETB"}`,
		"missing currency": `{"amount": "100"}`,
		"empty body":       `{}`,
	}

	for name, body := range cases {
		req := authenticatedRequest(http.MethodPost, "/request-payout", body)
		w := httptest.NewRecorder()

		h.HandleRequestPayout(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestHandleRequestPayout_RejectsBadAmount(t *testing.T) {
	h := newTestHandler(t, &mocks.MockDatabase{})

	for _, amount := range []string{"abc", "0", "-50"} {
		body := `{"amount": "` + amount + `", "currency": "ETB"}`
		req := authenticatedRequest(http.MethodPost, "/request-payout", body)
		w := httptest.NewRecorder()

		h.HandleRequestPayout(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code, "amount %q", amount)
	}
}

// the caller names only amount and currency; the wallet is resolved from
// the authenticated owner, and an owner with no wallet in that currency
// gets a validation error rather than a payout against someone else's
// wallet
func TestHandleRequestPayout_ResolvesWalletFromOwnerAndCurrency(t *testing.T) {
	walletRepo := new(mocks.MockWalletRepo)
	walletRepo.On("GetByOwner", "user-1", "ETB").Return((*models.Wallet)(nil), false, nil)

	h := newTestHandler(t, &mocks.MockDatabase{WalletRepo: walletRepo})

	req := authenticatedRequest(http.MethodPost, "/request-payout", `{"amount": "100", "currency": "ETB"}`)
	w := httptest.NewRecorder()

	h.HandleRequestPayout(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "No wallet in this currency")
	walletRepo.AssertExpectations(t)
}

func TestHandleRequestPayout_RejectsMalformedJSON(t *testing.T) {
	h := newTestHandler(t, &mocks.MockDatabase{})

	req := authenticatedRequest(http.MethodPost, "/request-payout", `{"amount": `)
	w := httptest.NewRecorder()

	h.HandleRequestPayout(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
