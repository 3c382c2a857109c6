package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/acctlock/internal/auth"
	pkghttp "github.com/BradenHooton/acctlock/pkg/http"
)

// SettingsServiceInterface reads and updates the denial message
type SettingsServiceInterface interface {
	DenialMessage(ctx context.Context) (string, error)
	SetDenialMessage(ctx context.Context, message, actorID string) (string, error)
}

type SettingsHandler struct {
	service SettingsServiceInterface
	logger  *slog.Logger
}

func NewSettingsHandler(service SettingsServiceInterface, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  logger,
	}
}

// LockMessageRequest is the body of a denial message update. Length is
// checked after sanitizing, in the service.
type LockMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type LockMessageResponse struct {
	Message string `json:"message"`
}

// GetLockMessage returns the message shown to locked accounts
// @Summary Get denial message
// @Produce json
// @Success 200 {object} LockMessageResponse
// @Router /settings/lock-message [get]
func (h *SettingsHandler) GetLockMessage(w http.ResponseWriter, r *http.Request) {
	message, err := h.service.DenialMessage(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, LockMessageResponse{Message: message})
}

// UpdateLockMessage stores a new denial message
// @Summary Update denial message
// @Accept json
// @Param request body LockMessageRequest true "Message"
// @Produce json
// @Success 200 {object} LockMessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /settings/lock-message [put]
func (h *SettingsHandler) UpdateLockMessage(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req LockMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	message, err := h.service.SetDenialMessage(r.Context(), req.Message, claims.UserID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, LockMessageResponse{Message: message})
}
