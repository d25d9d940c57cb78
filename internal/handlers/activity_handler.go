package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"familyspace/internal/service"
)

// ActivityHandler handles check-ins and daily posts
type ActivityHandler struct {
	activities *service.ActivityService
	logger     *zap.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activities *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		activities: activities,
		logger:     logger,
	}
}

// CheckIn records the caller's attendance for today
func (h *ActivityHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	res, err := h.activities.CheckIn(r.Context(), GetMemberID(r.Context()))
	if err != nil {
		respondWithError(w, h.logger, "failed to check in", err)
		return
	}
	writeJSON(w, http.StatusCreated, ActivityResponse{Delta: res.Delta, Plant: plantDTO(res.Plant)})
}

// TodayAttendance lists who in the caller's family checked in today
func (h *ActivityHandler) TodayAttendance(w http.ResponseWriter, r *http.Request) {
	familyID, ok := h.requireFamily(w, r)
	if !ok {
		return
	}

	records, err := h.activities.TodayAttendees(r.Context(), familyID)
	if err != nil {
		respondWithError(w, h.logger, "failed to list attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(records, attendanceDTO))
}

// WeeklyAttendance returns the family's check-ins of the last week by day
func (h *ActivityHandler) WeeklyAttendance(w http.ResponseWriter, r *http.Request) {
	familyID, ok := h.requireFamily(w, r)
	if !ok {
		return
	}

	groups, err := h.activities.WeeklyAttendance(r.Context(), familyID)
	if err != nil {
		respondWithError(w, h.logger, "failed to list weekly attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, groupsDTO(groups, attendanceDTO))
}

// CreatePost stores a daily post by the caller
func (h *ActivityHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.activities.RegisterPost(r.Context(), GetMemberID(r.Context()), req.Content)
	if err != nil {
		respondWithError(w, h.logger, "failed to register post", err)
		return
	}
	writeJSON(w, http.StatusCreated, PostResponse{
		Post:             postDTO(res.Post),
		ActivityResponse: ActivityResponse{Delta: res.Delta, Plant: plantDTO(res.Plant)},
	})
}

// TodayPosts lists the family's posts of today, newest first
func (h *ActivityHandler) TodayPosts(w http.ResponseWriter, r *http.Request) {
	familyID, ok := h.requireFamily(w, r)
	if !ok {
		return
	}

	posts, err := h.activities.TodayPosts(r.Context(), familyID)
	if err != nil {
		respondWithError(w, h.logger, "failed to list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(posts, postDTO))
}

// Status reports whether the caller already posted and checked in today
func (h *ActivityHandler) Status(w http.ResponseWriter, r *http.Request) {
	memberID := GetMemberID(r.Context())

	posted, err := h.activities.HasPostedToday(r.Context(), memberID)
	if err != nil {
		respondWithError(w, h.logger, "failed to read post status", err)
		return
	}
	checkedIn, err := h.activities.HasCheckedInToday(r.Context(), memberID)
	if err != nil {
		respondWithError(w, h.logger, "failed to read attendance status", err)
		return
	}
	writeJSON(w, http.StatusOK, ActivityStatusResponse{PostedToday: posted, CheckedInToday: checkedIn})
}

// WeeklyPosts returns the family's posts of the last week by day
func (h *ActivityHandler) WeeklyPosts(w http.ResponseWriter, r *http.Request) {
	familyID, ok := h.requireFamily(w, r)
	if !ok {
		return
	}

	groups, err := h.activities.WeeklyPosts(r.Context(), familyID)
	if err != nil {
		respondWithError(w, h.logger, "failed to list weekly posts", err)
		return
	}
	writeJSON(w, http.StatusOK, groupsDTO(groups, postDTO))
}

func (h *ActivityHandler) requireFamily(w http.ResponseWriter, r *http.Request) (int64, bool) {
	familyID, err := h.activities.CurrentFamily(r.Context(), GetMemberID(r.Context()))
	if err != nil {
		respondWithError(w, h.logger, "failed to resolve family", err)
		return 0, false
	}
	if claimed := GetFamilyID(r.Context()); claimed != familyID {
		h.logger.Debug("session family is stale",
			zap.Int64("member_id", GetMemberID(r.Context())),
			zap.Int64("token_family_id", claimed),
			zap.Int64("family_id", familyID),
		)
	}
	return familyID, true
}
