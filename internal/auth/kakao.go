package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
)

// ErrProviderRejected is returned when the identity provider refuses the
// access token
var ErrProviderRejected = errors.New("identity provider rejected the access token")

// ErrMissingEmail is returned when the provider account has no email
var ErrMissingEmail = errors.New("identity provider account has no email")

// UserInfo is the identity returned by the provider
type UserInfo struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityProvider resolves an access token into a user identity
type IdentityProvider interface {
	FetchUser(ctx context.Context, accessToken string) (*UserInfo, error)
}

// KakaoClient fetches Kakao account details with a client-supplied access
// token
type KakaoClient struct {
	userInfoURL string
}

var _ IdentityProvider = (*KakaoClient)(nil)

// NewKakaoClient creates a client for the given user-info endpoint
func NewKakaoClient(userInfoURL string) *KakaoClient {
	return &KakaoClient{userInfoURL: userInfoURL}
}

type kakaoUserResponse struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

func (c *KakaoClient) FetchUser(ctx context.Context, accessToken string) (*UserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build Kakao request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Kakao user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrProviderRejected
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch Kakao user info: status %d", resp.StatusCode)
	}

	var payload kakaoUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse Kakao user info: %w", err)
	}
	if payload.KakaoAccount.Email == "" {
		return nil, ErrMissingEmail
	}

	return &UserInfo{
		Subject: strconv.FormatInt(payload.ID, 10),
		Email:   payload.KakaoAccount.Email,
		Name:    payload.KakaoAccount.Profile.Nickname,
		Picture: payload.KakaoAccount.Profile.ProfileImageURL,
	}, nil
}
