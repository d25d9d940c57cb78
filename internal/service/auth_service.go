package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"familyspace/internal/auth"
	"familyspace/internal/database"
	"familyspace/internal/models"
	"familyspace/internal/repository"
	"familyspace/internal/validation"
)

// LoginResult is returned by a successful login
type LoginResult struct {
	Member  models.MemberState
	Token   string
	Created bool
}

// SignUpInput carries the profile fields completed after the first login
type SignUpInput struct {
	Nickname   string
	FamilyRole string
	Birthdate  string
	PushToken  string
}

// AuthService logs members in through an identity provider and completes
// their profiles
type AuthService struct {
	db       *database.DB
	provider auth.IdentityProvider
	tokens   auth.TokenIssuer
	calendar *Calendar
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(db *database.DB, provider auth.IdentityProvider, tokens auth.TokenIssuer, calendar *Calendar, logger *zap.Logger) *AuthService {
	return &AuthService{
		db:       db,
		provider: provider,
		tokens:   tokens,
		calendar: calendar,
		logger:   logger,
	}
}

// KakaoLogin resolves accessToken with the identity provider and finds or
// creates the member with that email. New members start as GUEST outside
// any family.
func (s *AuthService) KakaoLogin(ctx context.Context, accessToken string) (*LoginResult, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, validation.ValidationError{Field: "access_token", Message: "access_token is required"}
	}

	info, err := s.provider.FetchUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(info.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	result, err := s.findOrCreate(ctx, info, email)
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent first login for the same email won the insert
		result, err = s.findOrCreate(ctx, info, email)
	}
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(result.Member.Member.ID, result.Member.Member.Role.Key(), result.Member.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	result.Token = token

	s.logger.Info("member logged in",
		zap.Int64("member_id", result.Member.Member.ID),
		zap.Bool("created", result.Created),
	)
	return result, nil
}

func (s *AuthService) findOrCreate(ctx context.Context, info *auth.UserInfo, email string) (*LoginResult, error) {
	var result LoginResult
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		store := repository.NewStore(tx)

		member, err := store.Members.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if member == nil {
			member, err = s.createMember(ctx, store, info, email)
			if err != nil {
				return err
			}
			result.Created = true
		}

		state, err := store.Members.GetState(ctx, member.ID)
		if err != nil {
			return err
		}
		if state == nil {
			return ErrMemberNotFound
		}
		result.Member = *state
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *AuthService) createMember(ctx context.Context, store *repository.Store, info *auth.UserInfo, email string) (*models.Member, error) {
	now := s.calendar.Now()
	name := strings.TrimSpace(info.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	member := &models.Member{
		DisplayName: name,
		Email:       email,
		Picture:     info.Picture,
		Role:        models.RoleGuest,
		Nickname:    name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.Members.Create(ctx, member); err != nil {
		return nil, err
	}
	if err := store.Points.Ensure(ctx, member.ID, now); err != nil {
		return nil, err
	}
	return member, nil
}

// SignUp completes a member's profile. The role is left unchanged; it only
// becomes USER when the member creates or joins a family.
func (s *AuthService) SignUp(ctx context.Context, memberID int64, input SignUpInput) (*models.MemberState, error) {
	input.Nickname = strings.TrimSpace(input.Nickname)
	input.FamilyRole = strings.ToUpper(strings.TrimSpace(input.FamilyRole))
	input.Birthdate = strings.TrimSpace(input.Birthdate)

	now := s.calendar.Now()
	if err := validation.ValidateName("nickname", input.Nickname); err != nil {
		return nil, err
	}
	if err := validation.ValidateFamilyRole(input.FamilyRole); err != nil {
		return nil, err
	}
	if err := validation.ValidateBirthdate(input.Birthdate, now); err != nil {
		return nil, err
	}

	var state *models.MemberState
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		store := repository.NewStore(tx)

		member, err := store.Members.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}

		if err := store.Members.UpdateProfile(ctx, memberID, input.Nickname,
			optional(input.FamilyRole), optional(input.Birthdate), input.PushToken, now); err != nil {
			return err
		}

		state, err = store.Members.GetState(ctx, memberID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Member returns the composed state of a member
func (s *AuthService) Member(ctx context.Context, memberID int64) (*models.MemberState, error) {
	state, err := repository.NewMemberRepository(s.db).GetState(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrMemberNotFound
	}
	return state, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
