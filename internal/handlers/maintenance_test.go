package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/acctlock/internal/models"
	"github.com/BradenHooton/acctlock/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestPurgeData(t *testing.T) {
	t.Run("returns counts", func(t *testing.T) {
		handler := NewMaintenanceHandler(&MockMaintenanceService{
			PurgeDataFunc: func(ctx context.Context, actorID string) (*services.PurgeResult, error) {
				assert.Equal(t, "admin-1", actorID)
				return &services.PurgeResult{LockFlags: 4, ActivityLogs: 3, OptionRemoved: true}, nil
			},
		}, newTestLogger())

		req := WithAuthContext(httptest.NewRequest(http.MethodDelete, "/data", nil), "admin-1")
		w := httptest.NewRecorder()
		handler.PurgeData(w, req)

		var result services.PurgeResult
		AssertJSONResponse(t, w, http.StatusOK, &result)
		assert.Equal(t, services.PurgeResult{LockFlags: 4, ActivityLogs: 3, OptionRemoved: true}, result)
	})

	t.Run("missing capability", func(t *testing.T) {
		handler := NewMaintenanceHandler(&MockMaintenanceService{
			PurgeDataFunc: func(ctx context.Context, actorID string) (*services.PurgeResult, error) {
				return nil, models.ErrUnauthorized
			},
		}, newTestLogger())

		req := WithAuthContext(httptest.NewRequest(http.MethodDelete, "/data", nil), "user-1")
		w := httptest.NewRecorder()
		handler.PurgeData(w, req)

		AssertErrorResponse(t, w, http.StatusForbidden, "forbidden")
	})
}
