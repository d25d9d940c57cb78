package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familyspace/internal/auth"
	"familyspace/internal/config"
	"familyspace/internal/models"
	"familyspace/internal/validation"
)

func TestAuthService_KakaoLogin(t *testing.T) {
	env := newTestEnv(t, config.RejoinReject)
	ctx := context.Background()
	env.provider.users["abc"] = &auth.UserInfo{Subject: "1", Email: " Mom@Example.com ", Name: "Mom", Picture: "http://img"}

	first, err := env.auth.KakaoLogin(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "mom@example.com", first.Member.Member.Email)
	assert.Equal(t, "Mom", first.Member.Member.Nickname)
	assert.Equal(t, models.RoleGuest, first.Member.Member.Role)
	assert.False(t, first.Member.HasFamily())
	assert.Equal(t, 0, first.Member.DailyPoint)

	claims, err := env.tokens.ValidateToken(first.Token)
	require.NoError(t, err)
	assert.Equal(t, first.Member.Member.ID, claims.MemberID)
	assert.Equal(t, "ROLE_GUEST", claims.Role)
	assert.Equal(t, int64(0), claims.FamilyID)

	second, err := env.auth.KakaoLogin(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Member.Member.ID, second.Member.Member.ID)
	assert.Equal(t, 1, env.count(t, "members"))
}

func TestAuthService_KakaoLoginCarriesFamily(t *testing.T) {
	env := newTestEnv(t, config.RejoinReject)
	_, family := env.newFamily(t, "mom@example.com")

	res, err := env.auth.KakaoLogin(context.Background(), "token-mom@example.com")
	require.NoError(t, err)

	claims, err := env.tokens.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, family.Family.ID, claims.FamilyID)
	assert.Equal(t, "ROLE_USER", claims.Role)
}

func TestAuthService_KakaoLoginErrors(t *testing.T) {
	env := newTestEnv(t, config.RejoinReject)
	ctx := context.Background()
	env.provider.users["no-email"] = &auth.UserInfo{Subject: "2"}

	_, err := env.auth.KakaoLogin(ctx, "")
	var vErr validation.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = env.auth.KakaoLogin(ctx, "unknown")
	assert.ErrorIs(t, err, auth.ErrProviderRejected)

	_, err = env.auth.KakaoLogin(ctx, "no-email")
	assert.ErrorAs(t, err, &vErr)

	assert.Equal(t, 0, env.count(t, "members"))
}

func TestAuthService_SignUp(t *testing.T) {
	env := newTestEnv(t, config.RejoinReject)
	ctx := context.Background()
	memberID := env.newMember(t, "kid@example.com")

	state, err := env.auth.SignUp(ctx, memberID, SignUpInput{
		Nickname:   " Junior ",
		FamilyRole: "son",
		Birthdate:  "2015-03-04",
		PushToken:  "push-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Junior", state.Member.Nickname)
	require.NotNil(t, state.Member.FamilyRole)
	assert.Equal(t, "SON", *state.Member.FamilyRole)
	require.NotNil(t, state.Member.Birthdate)
	assert.Equal(t, "2015-03-04", *state.Member.Birthdate)
	assert.Equal(t, "push-1", state.Member.PushToken)
	assert.Equal(t, models.RoleGuest, state.Member.Role)

	// Optional fields may be cleared
	state, err = env.auth.SignUp(ctx, memberID, SignUpInput{Nickname: "Junior"})
	require.NoError(t, err)
	assert.Nil(t, state.Member.FamilyRole)
	assert.Nil(t, state.Member.Birthdate)
}

func TestAuthService_SignUpValidation(t *testing.T) {
	env := newTestEnv(t, config.RejoinReject)
	ctx := context.Background()
	memberID := env.newMember(t, "kid@example.com")

	tests := []struct {
		name  string
		input SignUpInput
		field string
	}{
		{name: "missing nickname", input: SignUpInput{}, field: "nickname"},
		{name: "bad role", input: SignUpInput{Nickname: "a", FamilyRole: "mom-1"}, field: "family_role"},
		{name: "bad birthdate", input: SignUpInput{Nickname: "a", Birthdate: "03/04/2015"}, field: "birthdate"},
		{name: "future birthdate", input: SignUpInput{Nickname: "a", Birthdate: "2030-01-01"}, field: "birthdate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.SignUp(ctx, memberID, tt.input)
			var vErr validation.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	_, err := env.auth.SignUp(ctx, 999, SignUpInput{Nickname: "ghost"})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestAuthService_Member(t *testing.T) {
	env := newTestEnv(t, config.RejoinReject)
	memberID := env.newMember(t, "kid@example.com")

	state, err := env.auth.Member(context.Background(), memberID)
	require.NoError(t, err)
	assert.Equal(t, "kid@example.com", state.Member.Email)

	_, err = env.auth.Member(context.Background(), 999)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}
