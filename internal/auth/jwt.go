package auth

import (
	"time"

	zanzar_errors "zanzar-backend/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	ProfileID string `json:"sub"`
	jwt.RegisteredClaims
}

// ParseToken validates an HS256 token and returns the profile it belongs to.
func ParseToken(secret, tokenString string) (uuid.UUID, error) {
	if tokenString == "" {
		return uuid.Nil, zanzar_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, zanzar_errors.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, zanzar_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return uuid.Nil, zanzar_errors.ErrUnauthorized
	}

	profileID, err := uuid.Parse(claims.ProfileID)
	if err != nil {
		return uuid.Nil, zanzar_errors.ErrUnauthorized
	}

	return profileID, nil
}

// NewToken signs an HS256 token for the given profile.
func NewToken(secret string, profileID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		ProfileID: profileID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profileID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
