package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"familyspace/internal/service"
)

// FamilyHandler handles family formation and invitation requests
type FamilyHandler struct {
	families *service.FamilyService
	registry *service.InvitationRegistry
	logger   *zap.Logger
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(families *service.FamilyService, registry *service.InvitationRegistry, logger *zap.Logger) *FamilyHandler {
	return &FamilyHandler{
		families: families,
		registry: registry,
		logger:   logger,
	}
}

// Create forms a family with the caller as its first member
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFamilyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.families.Create(r.Context(), GetMemberID(r.Context()), req.FamilyName, req.PlantName)
	if err != nil {
		respondWithError(w, h.logger, "failed to create family", err)
		return
	}

	writeJSON(w, http.StatusCreated, FamilyResponse{
		FamilyID:       res.Family.ID,
		Name:           res.Family.Name,
		ChannelKey:     res.ChatRoom.ChannelKey,
		InvitationCode: res.InvitationCode.Code,
		Plant:          plantDTO(res.Plant),
		Token:          res.Token,
		Member:         memberDTO(res.Member),
	})
}

// GenerateCode returns a currently unused invitation code without storing it
func (h *FamilyHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.registry.Generate(r.Context())
	if err != nil {
		respondWithError(w, h.logger, "failed to generate invitation code", err)
		return
	}
	writeJSON(w, http.StatusOK, CodeResponse{Code: code})
}

// Join redeems an invitation code for the caller
func (h *FamilyHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinFamilyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.registry.Redeem(r.Context(), req.InvitationCode, GetMemberID(r.Context()))
	if err != nil {
		respondWithError(w, h.logger, "failed to join family", err)
		return
	}

	writeJSON(w, http.StatusOK, JoinFamilyResponse{
		FamilyID: res.Family.ID,
		Name:     res.Family.Name,
		Token:    res.Token,
		Member:   memberDTO(res.Member),
	})
}
