package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/equezada327/pro-tasker-backend/internal/apperr"
	"github.com/equezada327/pro-tasker-backend/internal/models"
)

// TokenLifetime is how long an issued session token stays valid.
const TokenLifetime = 24 * time.Hour

// TokenService issues and verifies the signed session tokens that carry
// the caller identity. The signing key is fixed at construction.
type TokenService struct {
	key      []byte
	lifetime time.Duration
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{key: []byte(secret), lifetime: TokenLifetime}
}

// Issue embeds {id, username, email, role} and an expiry into a signed token.
func (s *TokenService) Issue(user *models.User) (string, error) {
	expireTime := time.Now().Add(s.lifetime)

	claims := &models.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expireTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	//create the token using hs256 algo
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	//sign with the secret key and return
	return token.SignedString(s.key)
}

// Verify parses and validates a token, distinguishing expiry from every
// other failure so the transport can report the right kind.
func (s *TokenService) Verify(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, apperr.ErrTokenInvalid
	}

	return claims, nil
}
