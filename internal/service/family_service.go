package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"familyspace/internal/auth"
	"familyspace/internal/config"
	"familyspace/internal/database"
	"familyspace/internal/metrics"
	"familyspace/internal/models"
	"familyspace/internal/repository"
	"familyspace/internal/validation"
)

// FormationResult is returned by a successful Create
type FormationResult struct {
	Family         models.Family
	ChatRoom       models.ChatRoom
	Plant          models.Plant
	InvitationCode models.InvitationCode
	Member         models.MemberState
	Token          string
}

// FamilyService forms families
type FamilyService struct {
	db           *database.DB
	codes        CodeIssuer
	tokens       auth.TokenIssuer
	rejoinPolicy string
	calendar     *Calendar
	logger       *zap.Logger
}

// NewFamilyService creates a new family service
func NewFamilyService(db *database.DB, codes CodeIssuer, tokens auth.TokenIssuer, rejoinPolicy string, calendar *Calendar, logger *zap.Logger) *FamilyService {
	return &FamilyService{
		db:           db,
		codes:        codes,
		tokens:       tokens,
		rejoinPolicy: rejoinPolicy,
		calendar:     calendar,
		logger:       logger,
	}
}

// Create forms a family around its creator. The chat room, plant, family,
// membership, role change and first invitation code are written in one
// transaction; any failure leaves nothing behind.
func (s *FamilyService) Create(ctx context.Context, creatorID int64, familyName, plantName string) (*FormationResult, error) {
	familyName = strings.TrimSpace(familyName)
	plantName = strings.TrimSpace(plantName)
	if err := validation.ValidateName("family_name", familyName); err != nil {
		return nil, err
	}
	if err := validation.ValidateName("plant_name", plantName); err != nil {
		return nil, err
	}

	var result FormationResult
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		store := repository.NewStore(tx)

		state, err := store.Members.GetState(ctx, creatorID)
		if err != nil {
			return err
		}
		if state == nil {
			return ErrMemberNotFound
		}
		if state.HasFamily() && s.rejoinPolicy != config.RejoinAllow {
			return ErrAlreadyInFamily
		}

		now := s.calendar.Now()

		room, err := store.Families.CreateChatRoom(ctx, uuid.NewString(), now)
		if err != nil {
			return err
		}
		plant, err := store.Families.CreatePlant(ctx, plantName, now)
		if err != nil {
			return err
		}
		family, err := store.Families.Create(ctx, familyName, room.ID, plant.ID, now)
		if err != nil {
			return err
		}
		if err := joinFamily(ctx, store, state, family.ID, now); err != nil {
			return err
		}
		code, err := s.codes.Issue(ctx, tx, family.ID)
		if err != nil {
			return err
		}

		result = FormationResult{
			Family:         *family,
			ChatRoom:       *room,
			Plant:          *plant,
			InvitationCode: *code,
			Member:         *state,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(creatorID, models.RoleUser.Key(), result.Family.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	result.Token = token

	metrics.RecordFamilyCreated()
	s.logger.Info("family created",
		zap.Int64("family_id", result.Family.ID),
		zap.Int64("creator_id", creatorID),
	)
	return &result, nil
}
