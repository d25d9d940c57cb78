package handlers

import (
	"time"

	"familyspace/internal/models"
)

type KakaoLoginRequest struct {
	AccessToken string `json:"access_token"`
}

type LoginResponse struct {
	Token   string    `json:"token"`
	Created bool      `json:"created"`
	Member  MemberDTO `json:"member"`
}

type SignUpRequest struct {
	Nickname   string `json:"nickname"`
	FamilyRole string `json:"family_role"`
	Birthdate  string `json:"birthdate"`
	PushToken  string `json:"push_token"`
}

type MemberDTO struct {
	ID         int64   `json:"id"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Picture    string  `json:"picture,omitempty"`
	Nickname   string  `json:"nickname"`
	Role       string  `json:"role"`
	FamilyRole *string `json:"family_role"`
	Birthdate  *string `json:"birthdate"`
	FamilyID   int64   `json:"family_id,omitempty"`
	DailyPoint int     `json:"daily_point"`
}

func memberDTO(state models.MemberState) MemberDTO {
	return MemberDTO{
		ID:         state.Member.ID,
		Email:      state.Member.Email,
		Name:       state.Member.DisplayName,
		Picture:    state.Member.Picture,
		Nickname:   state.Member.Nickname,
		Role:       state.Member.Role.Key(),
		FamilyRole: state.Member.FamilyRole,
		Birthdate:  state.Member.Birthdate,
		FamilyID:   state.FamilyID,
		DailyPoint: state.DailyPoint,
	}
}

type CreateFamilyRequest struct {
	FamilyName string `json:"family_name"`
	PlantName  string `json:"plant_name"`
}

type JoinFamilyRequest struct {
	InvitationCode string `json:"invitation_code"`
}

type PlantDTO struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Experience int    `json:"experience"`
	Stage      string `json:"stage"`
}

func plantDTO(p models.Plant) PlantDTO {
	return PlantDTO{ID: p.ID, Name: p.Name, Experience: p.Experience, Stage: string(p.Stage())}
}

type FamilyResponse struct {
	FamilyID       int64     `json:"family_id"`
	Name           string    `json:"name"`
	ChannelKey     string    `json:"channel_key"`
	InvitationCode string    `json:"invitation_code"`
	Plant          PlantDTO  `json:"plant"`
	Token          string    `json:"token"`
	Member         MemberDTO `json:"member"`
}

type JoinFamilyResponse struct {
	FamilyID int64     `json:"family_id"`
	Name     string    `json:"name"`
	Token    string    `json:"token"`
	Member   MemberDTO `json:"member"`
}

type CodeResponse struct {
	Code string `json:"code"`
}

type CreatePostRequest struct {
	Content string `json:"content"`
}

type ActivityResponse struct {
	Delta int      `json:"delta"`
	Plant PlantDTO `json:"plant"`
}

type AttendanceDTO struct {
	MemberID   int64     `json:"member_id"`
	Nickname   string    `json:"nickname"`
	AttendedAt time.Time `json:"attended_at"`
	AttendedOn string    `json:"attended_on"`
}

func attendanceDTO(a models.Attendance) AttendanceDTO {
	return AttendanceDTO{MemberID: a.MemberID, Nickname: a.Nickname, AttendedAt: a.AttendedAt, AttendedOn: a.AttendedOn}
}

type PostDTO struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	Nickname  string    `json:"nickname"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func postDTO(p models.DailyPost) PostDTO {
	return PostDTO{ID: p.ID, MemberID: p.MemberID, Nickname: p.Nickname, Content: p.Content, CreatedAt: p.CreatedAt}
}

type PostResponse struct {
	Post PostDTO `json:"post"`
	ActivityResponse
}

type ActivityStatusResponse struct {
	PostedToday    bool `json:"posted_today"`
	CheckedInToday bool `json:"checked_in_today"`
}

type DailyGroupDTO[T any] struct {
	Date    string `json:"date"`
	Records []T    `json:"records"`
}

func mapSlice[T, D any](in []T, conv func(T) D) []D {
	out := make([]D, 0, len(in))
	for _, v := range in {
		out = append(out, conv(v))
	}
	return out
}

func groupsDTO[T, D any](groups []models.DailyGroup[T], conv func(T) D) []DailyGroupDTO[D] {
	return mapSlice(groups, func(g models.DailyGroup[T]) DailyGroupDTO[D] {
		return DailyGroupDTO[D]{Date: g.Date, Records: mapSlice(g.Records, conv)}
	})
}
