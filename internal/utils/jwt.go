// internal/utils/jwt.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleRelayer = "relayer"
	tokenIssuer = "vials-backend"
)

// RelayerClaims identify a trusted writer (indexer, settlement relayer) that
// records listings and mints on behalf of the marketplace contracts.
type RelayerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var jwtSecret = []byte("your-secret-key-change-in-production")

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func GenerateRelayerToken(subject string, ttlHours int) (string, error) {
	claims := RelayerClaims{
		Role: RoleRelayer,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(ttlHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateRelayerToken(tokenString string) (*RelayerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RelayerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*RelayerClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Role != RoleRelayer {
		return nil, errors.New("token is not a relayer token")
	}

	return claims, nil
}
