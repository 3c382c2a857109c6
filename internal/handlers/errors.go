package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/acctlock/internal/models"
	pkghttp "github.com/BradenHooton/acctlock/pkg/http"
)

// writeServiceError maps service errors onto HTTP responses. Errors not
// recognised here are logged and reported as internal errors.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if lockedErr, ok := models.IsAccountLocked(err); ok {
		pkghttp.WriteAccountLocked(w, lockedErr.Message)
		return
	}

	switch {
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "you are not allowed to perform this action")
	case errors.Is(err, models.ErrSelfActionForbidden):
		pkghttp.WriteBadRequest(w, models.ErrSelfActionForbidden.Error())
	case errors.Is(err, models.ErrInvalidSetting), errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, clientMessage(err))
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "user not found")
	default:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, "internal server error")
	}
}

// clientMessage strips the sentinel prefix from wrapped validation errors,
// e.g. "bad request: unknown sort field" becomes "unknown sort field".
func clientMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{models.ErrBadRequest, models.ErrInvalidSetting} {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return rest
		}
	}
	return msg
}
