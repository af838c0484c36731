package utils

import (
	"errors"
	"strconv"
	"time"

	"tourneypay/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateAccessToken signs claims with secret. Session tokens are issued by
// the auth service; this is used by tooling and tests.
func GenerateAccessToken(claims *models.UserClaims, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT_SECRET not configured")
	}

	now := time.Now()
	accessClaims := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "tourneypay-api",
			Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
		},
		UserID:      claims.UserID,
		Email:       claims.Email,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(secret))
}

// ParseToken parses and validates a JWT token string.
func ParseToken(tokenStr, secret string) (*models.UserClaims, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET not configured")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
