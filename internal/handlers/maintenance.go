package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/acctlock/internal/auth"
	"github.com/BradenHooton/acctlock/internal/services"
	pkghttp "github.com/BradenHooton/acctlock/pkg/http"
)

// MaintenanceServiceInterface removes all stored lock data
type MaintenanceServiceInterface interface {
	PurgeData(ctx context.Context, actorID string) (*services.PurgeResult, error)
}

type MaintenanceHandler struct {
	service MaintenanceServiceInterface
	logger  *slog.Logger
}

func NewMaintenanceHandler(service MaintenanceServiceInterface, logger *slog.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		service: service,
		logger:  logger,
	}
}

// PurgeData deletes every lock flag, activity history and the denial message
// @Summary Remove all lock data
// @Produce json
// @Success 200 {object} services.PurgeResult
// @Failure 403 {object} ErrorResponse
// @Router /data [delete]
func (h *MaintenanceHandler) PurgeData(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	result, err := h.service.PurgeData(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("lock data removed",
		slog.String("actor_id", claims.UserID),
		slog.Int64("lock_flags", result.LockFlags),
		slog.Int64("activity_logs", result.ActivityLogs))
	pkghttp.WriteJSON(w, http.StatusOK, result)
}
