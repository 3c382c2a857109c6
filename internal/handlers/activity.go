package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/acctlock/internal/models"
	pkghttp "github.com/BradenHooton/acctlock/pkg/http"
)

// ActivityServiceInterface queries the activity history of all accounts
type ActivityServiceInterface interface {
	QueryAll(ctx context.Context, q models.ActivityQuery) (*models.ActivityPage, error)
}

// ActivityHandler serves the cross-account activity listing
type ActivityHandler struct {
	service ActivityServiceInterface
	logger  *slog.Logger
}

func NewActivityHandler(service ActivityServiceInterface, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger,
	}
}

// ActivityQueryParams holds the raw query string of an activity listing
type ActivityQueryParams struct {
	Action   string `validate:"omitempty,oneof=locked unlocked"`
	User     string `validate:"omitempty,max=64"`
	Actor    string `validate:"omitempty,max=64"`
	DateFrom string `validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `validate:"omitempty,datetime=2006-01-02"`
	OrderBy  string `validate:"omitempty,oneof=timestamp account action actor"`
	Order    string `validate:"omitempty,oneof=asc desc"`
	Page     int    `validate:"gte=0"`
	PerPage  int    `validate:"gte=0,lte=100"`
}

func parseActivityQuery(r *http.Request) (*ActivityQueryParams, error) {
	q := r.URL.Query()
	params := &ActivityQueryParams{
		Action:   q.Get("action"),
		User:     strings.TrimSpace(q.Get("user")),
		Actor:    strings.TrimSpace(q.Get("actor")),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
		OrderBy:  q.Get("orderby"),
		Order:    strings.ToLower(q.Get("order")),
	}

	var err error
	if params.Page, err = queryInt(r, "page"); err != nil {
		return nil, err
	}
	if params.PerPage, err = queryInt(r, "per_page"); err != nil {
		return nil, err
	}

	if err := ValidateRequest(params); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *ActivityQueryParams) toQuery() models.ActivityQuery {
	return models.ActivityQuery{
		Filter: models.ActivityFilter{
			ActionKind: models.ActionKind(p.Action),
			UserID:     p.User,
			Actor:      p.Actor,
			DateFrom:   p.DateFrom,
			DateTo:     p.DateTo,
		},
		Sort: models.ActivitySort{
			Field:     p.OrderBy,
			Direction: p.Order,
		},
		Page: models.Page{
			Number: p.Page,
			Size:   p.PerPage,
		},
	}
}

// List returns one page of activity across all accounts
// @Summary List activity
// @Param action query string false "locked or unlocked"
// @Param user query string false "Account ID"
// @Param actor query string false "Performer ID or system"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD"
// @Param orderby query string false "timestamp, account, action or actor"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Produce json
// @Success 200 {object} models.ActivityPage
// @Failure 400 {object} ErrorResponse
// @Router /activity [get]
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseActivityQuery(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	page, err := h.service.QueryAll(r.Context(), params.toQuery())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, page)
}
