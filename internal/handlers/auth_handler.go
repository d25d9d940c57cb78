package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"familyspace/internal/service"
)

const maxBodyBytes = 1 << 20

// AuthHandler handles login and profile requests
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// KakaoLogin exchanges a Kakao access token for a session token. New
// members get 201, returning ones 200.
func (h *AuthHandler) KakaoLogin(w http.ResponseWriter, r *http.Request) {
	var req KakaoLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authService.KakaoLogin(r.Context(), req.AccessToken)
	if err != nil {
		respondWithError(w, h.logger, "kakao login failed", err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, LoginResponse{
		Token:   res.Token,
		Created: res.Created,
		Member:  memberDTO(res.Member),
	})
}

// SignUp completes the caller's profile
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	state, err := h.authService.SignUp(r.Context(), GetMemberID(r.Context()), service.SignUpInput{
		Nickname:   req.Nickname,
		FamilyRole: req.FamilyRole,
		Birthdate:  req.Birthdate,
		PushToken:  req.PushToken,
	})
	if err != nil {
		respondWithError(w, h.logger, "signup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, memberDTO(*state))
}

// Me returns the caller's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	state, err := h.authService.Member(r.Context(), GetMemberID(r.Context()))
	if err != nil {
		respondWithError(w, h.logger, "failed to load member", err)
		return
	}
	writeJSON(w, http.StatusOK, memberDTO(*state))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrInvalidRequestBody})
		return false
	}
	return true
}
