package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"familyspace/internal/auth"
	"familyspace/internal/service"
	"familyspace/internal/validation"
)

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a service error onto an HTTP status and a message safe to
// show the caller. Unknown errors become 500 with a generic message.
func statusFor(err error) (int, ErrorResponse) {
	var vErr validation.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{vErr.Field: vErr.Message},
		}
	}

	switch {
	case errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrFamilyNotFound),
		errors.Is(err, service.ErrInvitationCodeNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error()}
	case errors.Is(err, service.ErrAlreadyAttended),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrAlreadyInFamily):
		return http.StatusConflict, ErrorResponse{Error: err.Error()}
	case errors.Is(err, service.ErrNotInFamily):
		return http.StatusForbidden, ErrorResponse{Error: err.Error()}
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrProviderRejected):
		return http.StatusUnauthorized, ErrorResponse{Error: ErrUnauthorized}
	case errors.Is(err, auth.ErrMissingEmail):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, service.ErrCodeSpaceExhausted),
		errors.Is(err, service.ErrPointContention):
		return http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: ErrInternalServerError}
	}
}

func respondWithError(w http.ResponseWriter, logger *zap.Logger, logMsg string, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(logMsg, zap.Error(err), zap.Int("status", status))
	} else {
		logger.Debug(logMsg, zap.Error(err), zap.Int("status", status))
	}
	writeJSON(w, status, body)
}

const (
	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
)
