package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"familyspace/internal/auth"
	"familyspace/internal/service"
	"familyspace/internal/validation"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"member not found", service.ErrMemberNotFound, http.StatusNotFound},
		{"unknown code", service.ErrInvitationCodeNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("redeem: %w", service.ErrFamilyNotFound), http.StatusNotFound},
		{"already attended", service.ErrAlreadyAttended, http.StatusConflict},
		{"already member", service.ErrAlreadyMember, http.StatusConflict},
		{"already in family", service.ErrAlreadyInFamily, http.StatusConflict},
		{"not in family", service.ErrNotInFamily, http.StatusForbidden},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"provider rejected", auth.ErrProviderRejected, http.StatusUnauthorized},
		{"missing email", auth.ErrMissingEmail, http.StatusBadRequest},
		{"validation", validation.ValidationError{Field: "content", Message: "content is required"}, http.StatusBadRequest},
		{"exhausted", service.ErrCodeSpaceExhausted, http.StatusServiceUnavailable},
		{"contention", service.ErrPointContention, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := statusFor(tt.err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestRespondWithErrorHidesInternalErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	recorder := httptest.NewRecorder()

	respondWithError(recorder, zap.New(core), "failed to check in", errors.New("disk full"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, ErrInternalServerError, body.Error)
	assert.NotContains(t, recorder.Body.String(), "disk full")

	entries := logs.FilterMessage("failed to check in").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "disk full", entries[0].ContextMap()["error"])
}

func TestRespondWithErrorValidationDetails(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, zap.NewNop(), "bad input",
		validation.ValidationError{Field: "family_name", Message: "family_name is required"})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "family_name is required", body.Details["family_name"])
}
