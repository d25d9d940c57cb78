package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"familyspace/internal/auth"
	"familyspace/internal/config"
	"familyspace/internal/credentials"
	"familyspace/internal/database"
	"familyspace/internal/metrics"
	"familyspace/internal/models"
	"familyspace/internal/repository"
)

// MaxCodeAttempts bounds how many codes are drawn before giving up
const MaxCodeAttempts = 10

const codeSavepoint = "invitation_code"

// CodeIssuer stores a fresh invitation code inside a caller's transaction
type CodeIssuer interface {
	Issue(ctx context.Context, tx *database.Tx, familyID int64) (*models.InvitationCode, error)
}

// JoinResult is returned by a successful redemption
type JoinResult struct {
	Family models.Family
	Member models.MemberState
	Token  string
}

// InvitationRegistry allocates collision-free invitation codes and redeems
// them
type InvitationRegistry struct {
	db           *database.DB
	tokens       auth.TokenIssuer
	rejoinPolicy string
	calendar     *Calendar
	logger       *zap.Logger
	generate     func() (string, error)
}

var _ CodeIssuer = (*InvitationRegistry)(nil)

// NewInvitationRegistry creates a new invitation registry
func NewInvitationRegistry(db *database.DB, tokens auth.TokenIssuer, rejoinPolicy string, calendar *Calendar, logger *zap.Logger) *InvitationRegistry {
	return &InvitationRegistry{
		db:           db,
		tokens:       tokens,
		rejoinPolicy: rejoinPolicy,
		calendar:     calendar,
		logger:       logger,
		generate:     credentials.GenerateInvitationCode,
	}
}

// Generate returns a code that is not taken at the time of the check. It
// reserves nothing; Issue is the authoritative path.
func (r *InvitationRegistry) Generate(ctx context.Context) (string, error) {
	invitations := repository.NewInvitationRepository(r.db)
	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		code, err := r.generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate invitation code: %w", err)
		}

		exists, err := invitations.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		metrics.RecordCodeCollision()
	}
	return "", ErrCodeSpaceExhausted
}

// Issue draws codes and inserts the first one the UNIQUE constraint accepts.
// Each attempt runs under a savepoint so a collision does not abort tx.
func (r *InvitationRegistry) Issue(ctx context.Context, tx *database.Tx, familyID int64) (*models.InvitationCode, error) {
	invitations := repository.NewInvitationRepository(tx)
	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		code, err := r.generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate invitation code: %w", err)
		}

		if err := tx.Savepoint(ctx, codeSavepoint); err != nil {
			return nil, fmt.Errorf("failed to set savepoint: %w", err)
		}

		inv, err := invitations.Create(ctx, code, familyID, r.calendar.Now())
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.RecordCodeCollision()
			r.logger.Debug("invitation code collision", zap.Int("attempt", attempt+1))
			if err := tx.RollbackTo(ctx, codeSavepoint); err != nil {
				return nil, fmt.Errorf("failed to roll back savepoint: %w", err)
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := tx.Release(ctx, codeSavepoint); err != nil {
			return nil, fmt.Errorf("failed to release savepoint: %w", err)
		}
		return inv, nil
	}
	return nil, ErrCodeSpaceExhausted
}

// Redeem joins memberID to the family owning code. Codes are never
// consumed.
func (r *InvitationRegistry) Redeem(ctx context.Context, code string, memberID int64) (*JoinResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !credentials.IsWellFormedCode(code) {
		metrics.RecordJoin("not_found")
		return nil, ErrInvitationCodeNotFound
	}

	var result JoinResult
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		store := repository.NewStore(tx)

		inv, err := store.Invitations.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if inv == nil {
			return ErrInvitationCodeNotFound
		}

		state, err := store.Members.GetState(ctx, memberID)
		if err != nil {
			return err
		}
		if state == nil {
			return ErrMemberNotFound
		}
		if state.FamilyID == inv.FamilyID {
			return ErrAlreadyMember
		}
		if state.HasFamily() && r.rejoinPolicy != config.RejoinAllow {
			return ErrAlreadyInFamily
		}

		family, err := store.Families.GetByID(ctx, inv.FamilyID)
		if err != nil {
			return err
		}
		if family == nil {
			return ErrFamilyNotFound
		}

		now := r.calendar.Now()
		if err := joinFamily(ctx, store, state, family.ID, now); err != nil {
			return err
		}

		result.Family = *family
		result.Member = *state
		return nil
	})
	if err != nil {
		metrics.RecordJoin(joinOutcome(err))
		return nil, err
	}

	token, err := r.tokens.GenerateToken(memberID, models.RoleUser.Key(), result.Family.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	result.Token = token

	metrics.RecordJoin("ok")
	r.logger.Info("member joined family",
		zap.Int64("member_id", memberID),
		zap.Int64("family_id", result.Family.ID),
	)
	return &result, nil
}

// joinFamily moves a member into familyID and promotes it to USER. state is
// updated to match.
func joinFamily(ctx context.Context, store *repository.Store, state *models.MemberState, familyID int64, now time.Time) error {
	if err := store.Memberships.Set(ctx, state.Member.ID, familyID, now); err != nil {
		return err
	}
	if err := store.Members.SetRole(ctx, state.Member.ID, models.RoleUser, now); err != nil {
		return err
	}
	if err := store.Points.Ensure(ctx, state.Member.ID, now); err != nil {
		return err
	}
	state.FamilyID = familyID
	state.Member.Role = models.RoleUser
	state.Member.UpdatedAt = now
	return nil
}

func joinOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInvitationCodeNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrAlreadyInFamily):
		return "rejected"
	default:
		return "error"
	}
}
