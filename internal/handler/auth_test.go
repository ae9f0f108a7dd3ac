package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cradoe/gopass"
	"github.com/stretchr/testify/require"

	"github.com/tesfam/kiraypay/internal/mocks"
	"github.com/tesfam/kiraypay/internal/models"
)

const testPassword = "S3cure#Pass1"

func activeUser(t *testing.T) *models.User {
	t.Helper()

	hashed, err := gopass.Hash(testPassword)
	require.NoError(t, err)

	return &models.User{
		ID:             "user-1",
		FirstName:      "Abel",
		LastName:       "Tesfaye",
		Email:          "owner@example.com",
		HashedPassword: hashed,
		Role:           models.UserRoleOwner,
		Status:         models.UserAccountActiveStatus,
	}
}

func TestHandleAuthLogin_ValidCredentials(t *testing.T) {
	user := activeUser(t)

	userRepo := new(mocks.MockUserRepo)
	userRepo.On("GetByEmail", user.Email).Return(user, true, nil)

	h := newTestHandler(t, &mocks.MockDatabase{UserRepo: userRepo})

	body := `{"email": "owner@example.com", "password": "` + testPassword + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleAuthLogin(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NotEmpty(t, envelope.Data["auth_token"])
	require.NotEmpty(t, envelope.Data["token_expiry"])

	userRepo.AssertExpectations(t)
}

func TestHandleAuthLogin_WrongPassword(t *testing.T) {
	user := activeUser(t)

	userRepo := new(mocks.MockUserRepo)
	userRepo.On("GetByEmail", user.Email).Return(user, true, nil)

	h := newTestHandler(t, &mocks.MockDatabase{UserRepo: userRepo})

	body := `{"email": "owner@example.com", "password": "not-the-password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleAuthLogin(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotContains(t, w.Body.String(), "auth_token")
}

func TestHandleAuthLogin_UnknownEmail(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	userRepo.On("GetByEmail", "nobody@example.com").Return((*models.User)(nil), false, nil)

	h := newTestHandler(t, &mocks.MockDatabase{UserRepo: userRepo})

	body := `{"email": "nobody@example.com", "password": "whatever"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleAuthLogin(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAuthLogin_LockedAccount(t *testing.T) {
	user := activeUser(t)
	user.Status = models.UserAccountLockedStatus

	userRepo := new(mocks.MockUserRepo)
	userRepo.On("GetByEmail", user.Email).Return(user, true, nil)

	h := newTestHandler(t, &mocks.MockDatabase{UserRepo: userRepo})

	body := `{"email": "owner@example.com", "password": "` + testPassword + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleAuthLogin(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}
