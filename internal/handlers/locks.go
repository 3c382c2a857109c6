package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/acctlock/internal/auth"
	"github.com/BradenHooton/acctlock/internal/models"
	pkghttp "github.com/BradenHooton/acctlock/pkg/http"
	"github.com/go-chi/chi/v5"
)

// LockServiceInterface defines the lock operations exposed over HTTP
type LockServiceInterface interface {
	SetLock(ctx context.Context, userID string, locked bool, actorID string) (*models.LockResult, error)
	SetLockBulk(ctx context.Context, userIDs []string, locked bool, actorID string) (*models.BulkLockResult, error)
	Status(ctx context.Context, userID string) (*models.LockStatus, error)
}

// LockHandler serves per-account and bulk lock requests
type LockHandler struct {
	service LockServiceInterface
	logger  *slog.Logger
}

func NewLockHandler(service LockServiceInterface, logger *slog.Logger) *LockHandler {
	return &LockHandler{
		service: service,
		logger:  logger,
	}
}

// SetLockRequest is the body of a single-account lock change
type SetLockRequest struct {
	Locked *bool `json:"locked" validate:"required"`
}

// BulkLockRequest is the body of a bulk lock change
type BulkLockRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,max=500,unique,dive,required"`
	Locked  *bool    `json:"locked" validate:"required"`
}

// GetLock returns the lock state and history of one account
// @Summary Get lock status
// @Param id path string true "User ID"
// @Produce json
// @Success 200 {object} models.LockStatus
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/lock [get]
func (h *LockHandler) GetLock(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "user id is required")
		return
	}

	status, err := h.service.Status(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, status)
}

// SetLock locks or unlocks one account
// @Summary Lock or unlock an account
// @Accept json
// @Param id path string true "User ID"
// @Param request body SetLockRequest true "Lock request"
// @Produce json
// @Success 200 {object} models.LockResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/lock [put]
func (h *LockHandler) SetLock(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "user id is required")
		return
	}

	var req SetLockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.SetLock(r.Context(), userID, *req.Locked, claims.UserID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// BulkLock applies one lock action to many accounts. The caller's own
// account is skipped and reported in the result.
// @Summary Bulk lock or unlock
// @Accept json
// @Param request body BulkLockRequest true "Bulk request"
// @Produce json
// @Success 200 {object} models.BulkLockResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /users/bulk-lock [post]
func (h *LockHandler) BulkLock(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req BulkLockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.SetLockBulk(r.Context(), req.UserIDs, *req.Locked, claims.UserID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}
