package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/acctlock/internal/auth"
	"github.com/BradenHooton/acctlock/internal/models"
	"github.com/BradenHooton/acctlock/internal/services"
	pkghttp "github.com/BradenHooton/acctlock/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID string) *http.Request {
	claims := &models.TokenClaims{
		UserID:    userID,
		Type:      models.TokenTypeAccess,
		SessionID: "sid-" + userID,
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc        func(ctx context.Context, email, password string) (*services.AuthResponse, error)
	RefreshTokenFunc func(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	LogoutFunc       func(ctx context.Context, claims *models.TokenClaims) error
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Logout(ctx context.Context, claims *models.TokenClaims) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, claims)
	}
	return nil
}

// MockLockService implements LockServiceInterface for testing
type MockLockService struct {
	SetLockFunc     func(ctx context.Context, userID string, locked bool, actorID string) (*models.LockResult, error)
	SetLockBulkFunc func(ctx context.Context, userIDs []string, locked bool, actorID string) (*models.BulkLockResult, error)
	StatusFunc      func(ctx context.Context, userID string) (*models.LockStatus, error)
}

func (m *MockLockService) SetLock(ctx context.Context, userID string, locked bool, actorID string) (*models.LockResult, error) {
	if m.SetLockFunc != nil {
		return m.SetLockFunc(ctx, userID, locked, actorID)
	}
	return &models.LockResult{UserID: userID, Locked: locked, Changed: true}, nil
}

func (m *MockLockService) SetLockBulk(ctx context.Context, userIDs []string, locked bool, actorID string) (*models.BulkLockResult, error) {
	if m.SetLockBulkFunc != nil {
		return m.SetLockBulkFunc(ctx, userIDs, locked, actorID)
	}
	return &models.BulkLockResult{Processed: len(userIDs), Users: len(userIDs)}, nil
}

func (m *MockLockService) Status(ctx context.Context, userID string) (*models.LockStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

// MockActivityService implements ActivityServiceInterface for testing
type MockActivityService struct {
	QueryAllFunc func(ctx context.Context, q models.ActivityQuery) (*models.ActivityPage, error)
}

func (m *MockActivityService) QueryAll(ctx context.Context, q models.ActivityQuery) (*models.ActivityPage, error) {
	if m.QueryAllFunc != nil {
		return m.QueryAllFunc(ctx, q)
	}
	return &models.ActivityPage{Entries: []models.ActivityRecord{}, Page: 1, PerPage: models.DefaultActivityPageSize}, nil
}

// MockSettingsService implements SettingsServiceInterface for testing
type MockSettingsService struct {
	DenialMessageFunc    func(ctx context.Context) (string, error)
	SetDenialMessageFunc func(ctx context.Context, message, actorID string) (string, error)
}

func (m *MockSettingsService) DenialMessage(ctx context.Context) (string, error) {
	if m.DenialMessageFunc != nil {
		return m.DenialMessageFunc(ctx)
	}
	return models.DefaultDenialMessage, nil
}

func (m *MockSettingsService) SetDenialMessage(ctx context.Context, message, actorID string) (string, error) {
	if m.SetDenialMessageFunc != nil {
		return m.SetDenialMessageFunc(ctx, message, actorID)
	}
	return message, nil
}

// MockMaintenanceService implements MaintenanceServiceInterface for testing
type MockMaintenanceService struct {
	PurgeDataFunc func(ctx context.Context, actorID string) (*services.PurgeResult, error)
}

func (m *MockMaintenanceService) PurgeData(ctx context.Context, actorID string) (*services.PurgeResult, error) {
	if m.PurgeDataFunc != nil {
		return m.PurgeDataFunc(ctx, actorID)
	}
	return &services.PurgeResult{}, nil
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	ListUsersFunc    func(ctx context.Context, filter models.UserListFilter) ([]*models.UserWithLock, error)
	StatusCountsFunc func(ctx context.Context) (*models.UserStatusCounts, error)
}

func (m *MockUserService) ListUsers(ctx context.Context, filter models.UserListFilter) ([]*models.UserWithLock, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockUserService) StatusCounts(ctx context.Context) (*models.UserStatusCounts, error) {
	if m.StatusCountsFunc != nil {
		return m.StatusCountsFunc(ctx)
	}
	return &models.UserStatusCounts{}, nil
}
