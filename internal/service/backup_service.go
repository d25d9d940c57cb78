package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"familyspace/internal/database"
	"familyspace/internal/models"
	"familyspace/internal/repository"
)

// BackupData is a snapshot of one family and everything it owns
type BackupData struct {
	Version     string             `json:"version"`
	ExportedAt  time.Time          `json:"exported_at"`
	Family      FamilyBackup       `json:"family"`
	Members     []MemberBackup     `json:"members"`
	Codes       []string           `json:"invitation_codes"`
	Attendances []AttendanceBackup `json:"attendances"`
	Posts       []PostBackup       `json:"posts"`
}

// FamilyBackup represents the family with its chat room and plant
type FamilyBackup struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	ChannelKey      string    `json:"channel_key"`
	PlantName       string    `json:"plant_name"`
	PlantExperience int       `json:"plant_experience"`
	PlantStage      string    `json:"plant_stage"`
	CreatedAt       time.Time `json:"created_at"`
}

// MemberBackup represents a family member
type MemberBackup struct {
	ID         int64   `json:"id"`
	Email      string  `json:"email"`
	Nickname   string  `json:"nickname"`
	Role       string  `json:"role"`
	FamilyRole *string `json:"family_role"`
	Birthdate  *string `json:"birthdate"`
	DailyPoint int     `json:"daily_point"`
}

// AttendanceBackup represents a check-in
type AttendanceBackup struct {
	MemberID   int64     `json:"member_id"`
	AttendedAt time.Time `json:"attended_at"`
	AttendedOn string    `json:"attended_on"`
}

// PostBackup represents a daily post
type PostBackup struct {
	MemberID  int64     `json:"member_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupService exports family snapshots
type BackupService struct {
	db       *database.DB
	calendar *Calendar
	logger   *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, calendar *Calendar, logger *zap.Logger) *BackupService {
	return &BackupService{db: db, calendar: calendar, logger: logger}
}

// Export writes a JSON snapshot of familyID to w
func (s *BackupService) Export(ctx context.Context, familyID int64, w io.Writer) (*BackupData, error) {
	store := repository.NewStore(s.db)

	family, err := store.Families.GetByID(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrFamilyNotFound
	}

	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: s.calendar.Now(),
	}

	if err := s.exportFamily(ctx, store, family, backup); err != nil {
		return nil, fmt.Errorf("failed to export family: %w", err)
	}
	if err := s.exportMembers(ctx, store, familyID, backup); err != nil {
		return nil, fmt.Errorf("failed to export members: %w", err)
	}
	if err := s.exportActivities(ctx, store, familyID, backup); err != nil {
		return nil, fmt.Errorf("failed to export activities: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("family exported",
		zap.Int64("family_id", familyID),
		zap.Int("members", len(backup.Members)),
		zap.Int("attendances", len(backup.Attendances)),
		zap.Int("posts", len(backup.Posts)),
	)
	return backup, nil
}

func (s *BackupService) exportFamily(ctx context.Context, store *repository.Store, family *models.Family, backup *BackupData) error {
	room, err := store.Families.GetChatRoom(ctx, family.ChatRoomID)
	if err != nil {
		return err
	}
	plant, err := store.Families.GetPlantByFamily(ctx, family.ID)
	if err != nil {
		return err
	}

	backup.Family = FamilyBackup{ID: family.ID, Name: family.Name, CreatedAt: family.CreatedAt}
	if room != nil {
		backup.Family.ChannelKey = room.ChannelKey
	}
	if plant != nil {
		backup.Family.PlantName = plant.Name
		backup.Family.PlantExperience = plant.Experience
		backup.Family.PlantStage = string(plant.Stage())
	}

	codes, err := store.Invitations.ListByFamily(ctx, family.ID)
	if err != nil {
		return err
	}
	for _, c := range codes {
		backup.Codes = append(backup.Codes, c.Code)
	}
	return nil
}

func (s *BackupService) exportMembers(ctx context.Context, store *repository.Store, familyID int64, backup *BackupData) error {
	members, err := store.Members.ListFamilyMembers(ctx, familyID, 0)
	if err != nil {
		return err
	}
	for _, m := range members {
		state, err := store.Members.GetState(ctx, m.ID)
		if err != nil {
			return err
		}
		points := 0
		if state != nil {
			points = state.DailyPoint
		}
		backup.Members = append(backup.Members, MemberBackup{
			ID:         m.ID,
			Email:      m.Email,
			Nickname:   m.Nickname,
			Role:       string(m.Role),
			FamilyRole: m.FamilyRole,
			Birthdate:  m.Birthdate,
			DailyPoint: points,
		})
	}
	return nil
}

func (s *BackupService) exportActivities(ctx context.Context, store *repository.Store, familyID int64, backup *BackupData) error {
	from := time.Unix(0, 0).UTC()
	to := s.calendar.Now().AddDate(0, 0, 1)

	attendances, err := store.Attendances.ListByFamilyBetween(ctx, familyID, from, to)
	if err != nil {
		return err
	}
	for _, a := range attendances {
		backup.Attendances = append(backup.Attendances, AttendanceBackup{
			MemberID:   a.MemberID,
			AttendedAt: a.AttendedAt,
			AttendedOn: a.AttendedOn,
		})
	}

	posts, err := store.Posts.ListByFamilyBetween(ctx, familyID, from, to, false)
	if err != nil {
		return err
	}
	for _, p := range posts {
		backup.Posts = append(backup.Posts, PostBackup{MemberID: p.MemberID, Content: p.Content, CreatedAt: p.CreatedAt})
	}
	return nil
}
