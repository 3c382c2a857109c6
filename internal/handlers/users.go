package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/acctlock/internal/models"
	pkghttp "github.com/BradenHooton/acctlock/pkg/http"
)

// UserServiceInterface defines the interface for user listings
type UserServiceInterface interface {
	ListUsers(ctx context.Context, filter models.UserListFilter) ([]*models.UserWithLock, error)
	StatusCounts(ctx context.Context) (*models.UserStatusCounts, error)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service UserServiceInterface
	logger  *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// UserListParams holds the query string of a user listing
type UserListParams struct {
	Status string `validate:"omitempty,oneof=active locked"`
	Limit  int    `validate:"gte=0,lte=100"`
	Offset int    `validate:"gte=0"`
}

// UserListItem represents a user with its lock state in the HTTP response
type UserListItem struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Locked    bool      `json:"locked"`
	CreatedAt time.Time `json:"created_at"`
}

type UserListResponse struct {
	Users  []UserListItem `json:"users"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ListUsers lists accounts with their effective lock state
// @Summary List users
// @Param status query string false "active or locked"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Produce json
// @Success 200 {object} UserListResponse
// @Failure 400 {object} ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := UserListParams{Status: r.URL.Query().Get("status")}

	var err error
	if params.Limit, err = queryInt(r, "limit"); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if params.Offset, err = queryInt(r, "offset"); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(params); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	users, err := h.service.ListUsers(r.Context(), models.UserListFilter{
		Status: params.Status,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	items := make([]UserListItem, 0, len(users))
	for _, u := range users {
		items = append(items, UserListItem{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      u.Role,
			Locked:    u.LockFlag.Locked(),
			CreatedAt: u.CreatedAt,
		})
	}

	pkghttp.WriteJSON(w, http.StatusOK, UserListResponse{
		Users:  items,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

// StatusCounts returns account totals by lock state
// @Summary Count users by lock state
// @Produce json
// @Success 200 {object} models.UserStatusCounts
// @Router /users/counts [get]
func (h *UserHandler) StatusCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.StatusCounts(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, counts)
}
