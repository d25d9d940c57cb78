package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const issuer = "familyspace"

// Claims identify the caller of an authenticated request. FamilyID is 0
// for members that have not joined a family.
type Claims struct {
	MemberID int64  `json:"member_id"`
	Role     string `json:"role"`
	FamilyID int64  `json:"family_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates session credentials
type TokenIssuer interface {
	GenerateToken(memberID int64, roleKey string, familyID int64) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type JWTService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

var _ TokenIssuer = (*JWTService)(nil)

func NewJWTService(secret string, expiry time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

func (s *JWTService) GenerateToken(memberID int64, roleKey string, familyID int64) (string, error) {
	now := s.now()
	claims := Claims{
		MemberID: memberID,
		Role:     roleKey,
		FamilyID: familyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatInt(memberID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.MemberID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
