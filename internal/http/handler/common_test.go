package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/fabworks/workshop-api/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondServiceError_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized},
		{"user context required", service.ErrUserContextRequired, http.StatusUnauthorized},
		{"permission denied", service.ErrPermissionDenied, http.StatusForbidden},
		{"notification not owned", service.ErrNotificationNotOwned, http.StatusForbidden},
		{"project not found", service.ErrProjectNotFound, http.StatusNotFound},
		{"assignment not found", service.ErrAssignmentNotFound, http.StatusNotFound},
		{"validation", service.ErrValidation, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("%w: hours must be positive", service.ErrValidation), http.StatusBadRequest},
		{"already resolved", service.ErrAlreadyResolved, http.StatusConflict},
		{"invalid transition", service.ErrInvalidTransition, http.StatusConflict},
		{"version conflict", service.ErrConflict, http.StatusConflict},
		{"unexpected", fmt.Errorf("database on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondServiceError(rec, tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body domain.APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Status)
		})
	}
}

func TestRespondServiceError_OverAllocation(t *testing.T) {
	rec := httptest.NewRecorder()
	respondServiceError(rec, &service.OverAllocationError{
		ProjectID: uuid.New(),
		Revenue:   500000,
		Requested: 600000,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body domain.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.ErrorTypeOverAllocation, body.Type)
	assert.Equal(t, "100000.00", body.Errors["excess"])
}
