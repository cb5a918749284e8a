// Package auth mints and verifies owner-scoped access tokens (HS256 JWT).
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vinocave/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the owner the token acts for.
type Claims struct {
	jwt.RegisteredClaims
	OwnerID string
}

func GenerateToken(ownerID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		OwnerID: ownerID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetOwnerIDFromToken validates tokenString and returns its owner.
// An expired token yields common.ErrTokenExpired; anything else that fails
// validation wraps common.ErrInvalidToken.
func GetOwnerIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.OwnerID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.OwnerID, nil
}
