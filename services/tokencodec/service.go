package tokencodec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/trove-app/trove/services/logging"
)

// RefreshAudience restricts refresh tokens to the refresh endpoint; an access
// token can never pass a Decode call that expects this audience, and the
// reverse holds for AccessAudience.
const (
	RefreshAudience = "trove:refresh"
	AccessAudience  = "trove:access"
)

// ErrInvalidToken is the single failure Decode reports. Signature mismatch,
// malformed input, audience mismatch, and expiry are deliberately
// indistinguishable to the caller so the endpoint cannot be used as an oracle.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Family string `json:"family"`
	jwt.RegisteredClaims
}

// Service signs and verifies the claims bundle carried by token strings.
// It is stateless; the persisted row stays the source of truth.
type Service struct {
	secret []byte
	logger *logging.Service
}

func NewService(secretKey string, logger *logging.Service) *Service {
	return &Service{
		secret: []byte(secretKey),
		logger: logger,
	}
}

func (s *Service) Encode(subject, tokenID, family, audience string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Family: family,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   subject,
			Audience:  []string{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("failed to sign token")
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *Service) Decode(tokenString, expectedAudience string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected algorithm: expected HS256, got %s", token.Method.Alg())
		}
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid algorithm family: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithAudience(expectedAudience))

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
