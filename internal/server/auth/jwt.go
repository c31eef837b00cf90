// Package auth mints and checks the HS256 bearer tokens that guard the
// sweep endpoint.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/paaster/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// ScopeSweep is the only scope the server accepts.
const ScopeSweep = "sweep"

// Claims are the standard registered claims plus a Scope.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

func GenerateToken(subject string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Scope: ScopeSweep,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken checks signature, expiry and scope and returns the subject.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// yields common.ErrInvalidToken.
func ValidateToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Scope != ScopeSweep {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
