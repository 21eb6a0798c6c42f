package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidShareToken = errors.New("invalid share token")

// ShareClaims names one shared report file.
type ShareClaims struct {
	File string `json:"file"`
	jwt.RegisteredClaims
}

func GenerateShareToken(secret string, reportID string, file string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("share secret not configured")
	}

	now := time.Now()
	claims := ShareClaims{
		File: file,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   "report",
			ID:        reportID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign share token: %w", err)
	}
	return signed, nil
}

func ParseShareToken(tokenStr string, secret string) (*ShareClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ShareClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShareToken, err)
	}
	if claims, ok := token.Claims.(*ShareClaims); ok && token.Valid && claims.File != "" {
		return claims, nil
	}
	return nil, ErrInvalidShareToken
}
