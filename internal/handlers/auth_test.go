package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BradenHooton/acctlock/internal/models"
	"github.com/BradenHooton/acctlock/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestLogin_Success(t *testing.T) {
	mockAuth := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResponse, error) {
			assert.Equal(t, "user@example.com", email)
			assert.Equal(t, "correct horse battery", password)
			return &services.AuthResponse{
				AccessToken:  "access_token_123",
				RefreshToken: "refresh_token_123",
			}, nil
		},
	}

	handler := NewAuthHandler(mockAuth, newTestLogger())
	req := NewTestRequest(t, http.MethodPost, "/auth/login", LoginRequest{
		Email:    "user@example.com",
		Password: "correct horse battery",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp services.AuthResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "access_token_123", resp.AccessToken)
	assert.Equal(t, "refresh_token_123", resp.RefreshToken)
}

func TestLogin_AuthenticationFailed(t *testing.T) {
	mockAuth := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResponse, error) {
			return nil, models.ErrUnauthorized
		},
	}

	handler := NewAuthHandler(mockAuth, newTestLogger())
	req := NewTestRequest(t, http.MethodPost, "/auth/login", LoginRequest{
		Email:    "user@example.com",
		Password: "wrongpassword",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestLogin_AccountLockedShowsDenialMessage(t *testing.T) {
	mockAuth := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResponse, error) {
			return nil, fmt.Errorf("gate: %w", &models.AccountLockedError{UserID: "u1", Message: "Locked by IT"})
		},
	}

	handler := NewAuthHandler(mockAuth, newTestLogger())
	req := NewTestRequest(t, http.MethodPost, "/auth/login", LoginRequest{
		Email:    "user@example.com",
		Password: "correct horse battery",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	resp := AssertErrorResponse(t, w, http.StatusForbidden, "account_locked")
	assert.Equal(t, "Locked by IT", resp.Message)
}

func TestLogin_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"missing password", `{"email":"user@example.com"}`},
		{"invalid email", `{"email":"nope","password":"secret"}`},
		{"unknown field", `{"email":"user@example.com","password":"secret","admin":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mockAuth := &MockAuthService{
				LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResponse, error) {
					called = true
					return nil, nil
				},
			}

			handler := NewAuthHandler(mockAuth, newTestLogger())
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.Login(w, req)

			AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
			assert.False(t, called)
		})
	}
}

func TestLogin_InternalError(t *testing.T) {
	mockAuth := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResponse, error) {
			return nil, models.ErrInternalServer
		},
	}

	handler := NewAuthHandler(mockAuth, newTestLogger())
	req := NewTestRequest(t, http.MethodPost, "/auth/login", LoginRequest{
		Email:    "user@example.com",
		Password: "correct horse battery",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	AssertErrorResponse(t, w, http.StatusInternalServerError, "internal_error")
}

func TestRefresh(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockAuth := &MockAuthService{
			RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
				assert.Equal(t, "refresh_1", refreshToken)
				return &services.AuthResponse{AccessToken: "access_2", RefreshToken: "refresh_2"}, nil
			},
		}

		handler := NewAuthHandler(mockAuth, newTestLogger())
		req := NewTestRequest(t, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: "refresh_1"})
		w := httptest.NewRecorder()
		handler.Refresh(w, req)

		var resp services.AuthResponse
		AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, "refresh_2", resp.RefreshToken)
	})

	t.Run("locked account cannot refresh", func(t *testing.T) {
		mockAuth := &MockAuthService{
			RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
				return nil, &models.AccountLockedError{UserID: "u1", Message: models.DefaultDenialMessage}
			},
		}

		handler := NewAuthHandler(mockAuth, newTestLogger())
		req := NewTestRequest(t, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: "refresh_1"})
		w := httptest.NewRecorder()
		handler.Refresh(w, req)

		AssertErrorResponse(t, w, http.StatusForbidden, "account_locked")
	})

	t.Run("missing token", func(t *testing.T) {
		handler := NewAuthHandler(&MockAuthService{}, newTestLogger())
		req := NewTestRequest(t, http.MethodPost, "/auth/refresh", RefreshTokenRequest{})
		w := httptest.NewRecorder()
		handler.Refresh(w, req)

		AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	})
}

func TestLogout(t *testing.T) {
	t.Run("ends the caller's session", func(t *testing.T) {
		var got *models.TokenClaims
		mockAuth := &MockAuthService{
			LogoutFunc: func(ctx context.Context, claims *models.TokenClaims) error {
				got = claims
				return nil
			},
		}

		handler := NewAuthHandler(mockAuth, newTestLogger())
		req := WithAuthContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), "user-1")
		w := httptest.NewRecorder()
		handler.Logout(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		if assert.NotNil(t, got) {
			assert.Equal(t, "user-1", got.UserID)
			assert.Equal(t, "sid-user-1", got.SessionID)
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		handler := NewAuthHandler(&MockAuthService{}, newTestLogger())
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		w := httptest.NewRecorder()
		handler.Logout(w, req)

		AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
	})
}
